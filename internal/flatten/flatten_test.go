package flatten

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-labs/bqschema/internal/lattice"
)

func TestFlatten_SortsLexicographicallyByDefault(t *testing.T) {
	m := lattice.NewMap()
	m.Set("zeta", lattice.NewEntry("zeta", lattice.String, lattice.Nullable))
	m.Set("alpha", lattice.NewEntry("alpha", lattice.String, lattice.Nullable))

	fields := Flatten(m, Options{})
	require.Len(t, fields, 2)
	assert.Equal(t, "alpha", fields[0].Name)
	assert.Equal(t, "zeta", fields[1].Name)
}

func TestFlatten_PreserveInputSortOrder(t *testing.T) {
	m := lattice.NewMap()
	m.Set("zeta", lattice.NewEntry("zeta", lattice.String, lattice.Nullable))
	m.Set("alpha", lattice.NewEntry("alpha", lattice.String, lattice.Nullable))

	fields := Flatten(m, Options{PreserveInputSortOrder: true})
	require.Len(t, fields, 2)
	assert.Equal(t, "zeta", fields[0].Name)
	assert.Equal(t, "alpha", fields[1].Name)
}

func TestFlatten_CSVAlwaysPreservesOrder(t *testing.T) {
	m := lattice.NewMap()
	m.Set("zeta", lattice.NewEntry("zeta", lattice.String, lattice.Nullable))
	m.Set("alpha", lattice.NewEntry("alpha", lattice.String, lattice.Nullable))

	fields := Flatten(m, Options{CSV: true, PreserveInputSortOrder: false})
	assert.Equal(t, "zeta", fields[0].Name)
}

func TestFlatten_DropsIgnoreEntries(t *testing.T) {
	m := lattice.NewMap()
	ignored := lattice.NewEntry("bad", lattice.String, lattice.Nullable)
	ignored.Status = lattice.Ignore
	m.Set("bad", ignored)
	m.Set("good", lattice.NewEntry("good", lattice.String, lattice.Nullable))

	fields := Flatten(m, Options{})
	require.Len(t, fields, 1)
	assert.Equal(t, "good", fields[0].Name)
}

func TestFlatten_DropsSoftEntriesUnlessKeepNulls(t *testing.T) {
	m := lattice.NewMap()
	m.Set("soft", lattice.SoftEntry("soft", lattice.String, lattice.Nullable))

	fields := Flatten(m, Options{})
	assert.Empty(t, fields)

	fields = Flatten(m, Options{KeepNulls: true})
	require.Len(t, fields, 1)
	assert.Equal(t, "STRING", fields[0].Type)
}

func TestFlatten_EmptyRecordGetsUnknownPlaceholder(t *testing.T) {
	m := lattice.NewMap()
	m.Set("obj", lattice.Entry{Status: lattice.Soft, Name: "obj", Type: lattice.EmptyRecord,
		Mode: lattice.Nullable, Fields: lattice.NewMap()})

	fields := Flatten(m, Options{KeepNulls: true})
	require.Len(t, fields, 1)
	require.Len(t, fields[0].Fields, 1)
	assert.Equal(t, "__unknown__", fields[0].Fields[0].Name)
}

func TestFlatten_RecordWithAllSoftChildrenGetsPlaceholder(t *testing.T) {
	nested := lattice.NewMap()
	nested.Set("x", lattice.SoftEntry("x", lattice.String, lattice.Nullable))

	m := lattice.NewMap()
	m.Set("obj", lattice.Entry{Status: lattice.Hard, Filled: true, Name: "obj",
		Type: lattice.Record, Mode: lattice.Nullable, Fields: nested})

	fields := Flatten(m, Options{KeepNulls: false})
	require.Len(t, fields, 1)
	require.Len(t, fields[0].Fields, 1)
	assert.Equal(t, "__unknown__", fields[0].Fields[0].Name)
}

func TestFlatten_InferModePromotesFilledNullableToRequired(t *testing.T) {
	m := lattice.NewMap()
	filled := lattice.NewEntry("id", lattice.Integer, lattice.Nullable)
	filled.Filled = true
	m.Set("id", filled)

	fields := Flatten(m, Options{CSV: true, InferMode: true})
	require.Len(t, fields, 1)
	assert.Equal(t, "REQUIRED", fields[0].Mode)
}
