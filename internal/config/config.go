// Package config provides unified configuration for bqschema's generator,
// validator, and registry.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// InputFormat selects how raw input bytes are decoded into records.
type InputFormat string

const (
	InputFormatJSON InputFormat = "json"
	InputFormatCSV  InputFormat = "csv"
)

// StorageType selects the ObjectStorage backend used to read input files,
// existing-schema documents, and write output.
type StorageType string

const (
	StorageLocal StorageType = "local"
	StorageS3    StorageType = "s3"
)

// Options holds every knob spec.md's external interface exposes, plus the
// ambient settings (registry location, storage backend, error budget) a
// deployed instance of the generator needs.
type Options struct {
	// InputFormat is "json" (default) or "csv".
	InputFormat InputFormat `json:"input_format" yaml:"input_format"`

	// KeepNulls includes fields whose type was never confirmed by a
	// non-null observation. Forced true automatically for CSV input.
	KeepNulls bool `json:"keep_nulls" yaml:"keep_nulls"`

	// QuotedValuesAreStrings disables inference of numeric/boolean types
	// from quoted strings, so "123" or "true" stays STRING; quoted DATE,
	// TIME and TIMESTAMP values are still recognized.
	QuotedValuesAreStrings bool `json:"quoted_values_are_strings" yaml:"quoted_values_are_strings"`

	// InferMode promotes always-filled CSV columns to REQUIRED.
	InferMode bool `json:"infer_mode" yaml:"infer_mode"`

	// SanitizeNames replaces characters BigQuery field names disallow
	// with underscores and truncates to 128 characters.
	SanitizeNames bool `json:"sanitize_names" yaml:"sanitize_names"`

	// PreserveInputSortOrder emits fields in first-seen order instead of
	// sorting lexicographically by canonical name.
	PreserveInputSortOrder bool `json:"preserve_input_sort_order" yaml:"preserve_input_sort_order"`

	// IgnoreInvalidLines skips records that fail to parse or aren't JSON
	// objects instead of aborting the run.
	IgnoreInvalidLines bool `json:"ignore_invalid_lines" yaml:"ignore_invalid_lines"`

	// ExistingSchemaPath, if set, seeds the accumulator with a
	// previously generated schema before processing any records.
	ExistingSchemaPath string `json:"existing_schema" yaml:"existing_schema"`

	// MaxErrors bounds the validator's error budget; zero means
	// unlimited.
	MaxErrors int `json:"max_errors" yaml:"max_errors"`

	// DataDir is the base directory for the schema registry database.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Storage selects which ObjectStorage backend serves input/output.
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// StorageConfig selects and configures the ObjectStorage backend.
type StorageConfig struct {
	Type StorageType `json:"type" yaml:"type"`
	Path string      `json:"path" yaml:"path"`
	S3   S3Config    `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	Bucket   string `json:"bucket" yaml:"bucket"`
	Region   string `json:"region" yaml:"region"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// Default returns the default configuration.
func Default() *Options {
	return &Options{
		InputFormat: InputFormatJSON,
		DataDir:     "./data/bqschema",
		MaxErrors:   100,
		Storage: StorageConfig{
			Type: StorageLocal,
		},
	}
}

// Resolve applies CSV's forced KeepNulls rule and fills in
// DataDir-relative defaults. Callers should call Resolve once after
// loading options from any source (defaults, file, flags) and before
// constructing a generator.
func (o *Options) Resolve() {
	if o.DataDir == "" {
		o.DataDir = "./data/bqschema"
	}
	if o.Storage.Type == "" {
		o.Storage.Type = StorageLocal
	}
	if o.Storage.Path == "" {
		o.Storage.Path = filepath.Join(o.DataDir, "storage")
	}
	if o.InputFormat == InputFormatCSV {
		o.KeepNulls = true
	}
}

// RegistryPath returns the path to the schema registry database.
func (o *Options) RegistryPath() string {
	return filepath.Join(o.DataDir, "registry.db")
}

// Validate checks the configuration for internal consistency.
func (o *Options) Validate() error {
	switch o.InputFormat {
	case InputFormatJSON, InputFormatCSV:
	default:
		return fmt.Errorf("invalid input_format: %s (must be json or csv)", o.InputFormat)
	}

	switch o.Storage.Type {
	case StorageLocal, StorageS3:
	default:
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", o.Storage.Type)
	}

	if o.Storage.Type == StorageS3 && o.Storage.S3.Bucket == "" {
		return fmt.Errorf("storage.s3.bucket is required when storage type is s3")
	}

	if o.MaxErrors < 0 {
		return fmt.Errorf("max_errors must be >= 0, got %d", o.MaxErrors)
	}

	return nil
}

// LoadFromFile loads options from a YAML or JSON file, layered on top of
// Default().
func LoadFromFile(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	opts := Default()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, opts); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, opts); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return opts, nil
}

// LoadFromEnv overlays environment variables (BQSCHEMA_ prefix) onto opts.
func LoadFromEnv(opts *Options) {
	if v := os.Getenv("BQSCHEMA_INPUT_FORMAT"); v != "" {
		opts.InputFormat = InputFormat(v)
	}
	if v := os.Getenv("BQSCHEMA_DATA_DIR"); v != "" {
		opts.DataDir = v
	}
	if v := os.Getenv("BQSCHEMA_KEEP_NULLS"); v != "" {
		opts.KeepNulls = v == "true" || v == "1"
	}
	if v := os.Getenv("BQSCHEMA_QUOTED_VALUES_ARE_STRINGS"); v != "" {
		opts.QuotedValuesAreStrings = v == "true" || v == "1"
	}
	if v := os.Getenv("BQSCHEMA_INFER_MODE"); v != "" {
		opts.InferMode = v == "true" || v == "1"
	}
	if v := os.Getenv("BQSCHEMA_SANITIZE_NAMES"); v != "" {
		opts.SanitizeNames = v == "true" || v == "1"
	}
	if v := os.Getenv("BQSCHEMA_PRESERVE_INPUT_SORT_ORDER"); v != "" {
		opts.PreserveInputSortOrder = v == "true" || v == "1"
	}
	if v := os.Getenv("BQSCHEMA_IGNORE_INVALID_LINES"); v != "" {
		opts.IgnoreInvalidLines = v == "true" || v == "1"
	}
	if v := os.Getenv("BQSCHEMA_EXISTING_SCHEMA"); v != "" {
		opts.ExistingSchemaPath = v
	}
	if v := os.Getenv("BQSCHEMA_MAX_ERRORS"); v != "" {
		fmt.Sscanf(v, "%d", &opts.MaxErrors)
	}
	if v := os.Getenv("BQSCHEMA_STORAGE_TYPE"); v != "" {
		opts.Storage.Type = StorageType(v)
	}
	if v := os.Getenv("BQSCHEMA_STORAGE_PATH"); v != "" {
		opts.Storage.Path = v
	}
	if v := os.Getenv("BQSCHEMA_S3_BUCKET"); v != "" {
		opts.Storage.S3.Bucket = v
	}
	if v := os.Getenv("BQSCHEMA_S3_REGION"); v != "" {
		opts.Storage.S3.Region = v
	}
	if v := os.Getenv("BQSCHEMA_S3_ENDPOINT"); v != "" {
		opts.Storage.S3.Endpoint = v
	}
}

// EnsureDirectories creates the registry's data directory and, for local
// storage, the storage path.
func (o *Options) EnsureDirectories() error {
	dirs := []string{o.DataDir}
	if o.Storage.Type == StorageLocal && o.Storage.Path != "" {
		dirs = append(dirs, o.Storage.Path)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
