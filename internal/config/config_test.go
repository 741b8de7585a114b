package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	opts := Default()
	assert.Equal(t, InputFormatJSON, opts.InputFormat)
	assert.Equal(t, 100, opts.MaxErrors)
	assert.Equal(t, StorageLocal, opts.Storage.Type)
}

func TestResolve_FillsStoragePathFromDataDir(t *testing.T) {
	opts := &Options{DataDir: "/tmp/bqschema-test"}
	opts.Resolve()
	assert.Equal(t, filepath.Join("/tmp/bqschema-test", "storage"), opts.Storage.Path)
	assert.Equal(t, StorageLocal, opts.Storage.Type)
}

func TestResolve_CSVForcesKeepNulls(t *testing.T) {
	opts := &Options{InputFormat: InputFormatCSV}
	opts.Resolve()
	assert.True(t, opts.KeepNulls)
}

func TestResolve_EmptyDataDirGetsDefault(t *testing.T) {
	opts := &Options{}
	opts.Resolve()
	assert.Equal(t, "./data/bqschema", opts.DataDir)
}

func TestRegistryPath(t *testing.T) {
	opts := &Options{DataDir: "/data"}
	assert.Equal(t, filepath.Join("/data", "registry.db"), opts.RegistryPath())
}

func TestValidate_RejectsBadInputFormat(t *testing.T) {
	opts := Default()
	opts.InputFormat = "xml"
	assert.Error(t, opts.Validate())
}

func TestValidate_RejectsBadStorageType(t *testing.T) {
	opts := Default()
	opts.Storage.Type = "gcs"
	assert.Error(t, opts.Validate())
}

func TestValidate_S3RequiresBucket(t *testing.T) {
	opts := Default()
	opts.Storage.Type = StorageS3
	assert.Error(t, opts.Validate())

	opts.Storage.S3.Bucket = "my-bucket"
	assert.NoError(t, opts.Validate())
}

func TestValidate_RejectsNegativeMaxErrors(t *testing.T) {
	opts := Default()
	opts.MaxErrors = -1
	assert.Error(t, opts.Validate())
}

func TestLoadFromFile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"input_format": "csv", "max_errors": 5}`), 0644))

	opts, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, InputFormatCSV, opts.InputFormat)
	assert.Equal(t, 5, opts.MaxErrors)
}

func TestLoadFromFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input_format: csv\nsanitize_names: true\n"), 0644))

	opts, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, InputFormatCSV, opts.InputFormat)
	assert.True(t, opts.SanitizeNames)
}

func TestLoadFromFile_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromEnv_OverlaysFields(t *testing.T) {
	os.Setenv("BQSCHEMA_INPUT_FORMAT", "csv")
	os.Setenv("BQSCHEMA_MAX_ERRORS", "7")
	os.Setenv("BQSCHEMA_SANITIZE_NAMES", "true")
	defer os.Unsetenv("BQSCHEMA_INPUT_FORMAT")
	defer os.Unsetenv("BQSCHEMA_MAX_ERRORS")
	defer os.Unsetenv("BQSCHEMA_SANITIZE_NAMES")

	opts := Default()
	LoadFromEnv(opts)

	assert.Equal(t, InputFormatCSV, opts.InputFormat)
	assert.Equal(t, 7, opts.MaxErrors)
	assert.True(t, opts.SanitizeNames)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	opts := &Options{DataDir: filepath.Join(dir, "data")}
	opts.Resolve()

	require.NoError(t, opts.EnsureDirectories())
	_, err := os.Stat(opts.DataDir)
	assert.NoError(t, err)
	_, err = os.Stat(opts.Storage.Path)
	assert.NoError(t, err)
}
