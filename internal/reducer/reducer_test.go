package reducer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-labs/bqschema/internal/lattice"
	"github.com/kestrel-labs/bqschema/internal/ojson"
)

func obj(pairs ...interface{}) ojson.Object {
	o := make(ojson.Object, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		o = append(o, ojson.KV{Key: pairs[i].(string), Value: pairs[i+1]})
	}
	return o
}

func TestObserve_RejectsNonObject(t *testing.T) {
	a := New(Config{})
	err := a.Observe("not an object")
	require.Error(t, err)
}

func TestObserve_ScalarFields(t *testing.T) {
	a := New(Config{})
	err := a.Observe(obj("name", "alice", "active", true))
	require.NoError(t, err)

	name, ok := a.Schema().Get("name")
	require.True(t, ok)
	assert.Equal(t, lattice.String, name.Type)

	active, ok := a.Schema().Get("active")
	require.True(t, ok)
	assert.Equal(t, lattice.Boolean, active.Type)
}

func TestObserve_NestedObject(t *testing.T) {
	a := New(Config{})
	err := a.Observe(obj("address", obj("city", "nyc")))
	require.NoError(t, err)

	addr, ok := a.Schema().Get("address")
	require.True(t, ok)
	assert.Equal(t, lattice.Record, addr.Type)
	assert.Equal(t, lattice.Nullable, addr.Mode)

	city, ok := addr.Fields.Get("city")
	require.True(t, ok)
	assert.Equal(t, lattice.String, city.Type)
}

func TestObserve_ArrayOfObjectsBecomesRepeatedRecord(t *testing.T) {
	a := New(Config{})
	err := a.Observe(obj("tags", []interface{}{obj("id", "1"), obj("label", "x")}))
	require.NoError(t, err)

	tags, ok := a.Schema().Get("tags")
	require.True(t, ok)
	assert.Equal(t, lattice.Record, tags.Type)
	assert.Equal(t, lattice.Repeated, tags.Mode)
	assert.Equal(t, 2, tags.Fields.Len())
}

func TestObserve_EmptyArrayIsSoftPlaceholder(t *testing.T) {
	a := New(Config{})
	err := a.Observe(obj("items", []interface{}{}))
	require.NoError(t, err)

	items, ok := a.Schema().Get("items")
	require.True(t, ok)
	assert.Equal(t, lattice.EmptyArray, items.Type)
	assert.Equal(t, lattice.Soft, items.Status)
	assert.Equal(t, lattice.Repeated, items.Mode)
}

func TestObserve_ArrayOfAllNullsIsRepeatedPlaceholder(t *testing.T) {
	a := New(Config{})
	err := a.Observe(obj("items", []interface{}{nil, nil}))
	require.NoError(t, err)

	items, ok := a.Schema().Get("items")
	require.True(t, ok)
	assert.Equal(t, lattice.EmptyArray, items.Type)
	assert.Equal(t, lattice.Soft, items.Status)
	assert.Equal(t, lattice.Repeated, items.Mode)
}

func TestObserve_MixedScalarObjectArrayRejected(t *testing.T) {
	a := New(Config{})
	err := a.Observe(obj("bad", []interface{}{"x", obj("y", 1)}))
	require.NoError(t, err)
	assert.NotEmpty(t, a.Log())
	_, ok := a.Schema().Get("bad")
	assert.False(t, ok)
}

func TestObserve_CSVEmptyStringIsNull(t *testing.T) {
	a := New(Config{CSV: true})
	err := a.Observe(obj("note", ""))
	require.NoError(t, err)

	note, ok := a.Schema().Get("note")
	require.True(t, ok)
	assert.Equal(t, lattice.Soft, note.Status)
}

func TestObserve_MergesAcrossRecords(t *testing.T) {
	a := New(Config{})
	require.NoError(t, a.Observe(obj("id", "42")))
	require.NoError(t, a.Observe(obj("id", "not-a-number")))

	id, ok := a.Schema().Get("id")
	require.True(t, ok)
	assert.Equal(t, lattice.String, id.Type)
}

func TestSanitizeName(t *testing.T) {
	a := New(Config{SanitizeNames: true})
	require.NoError(t, a.Observe(obj("bad name!", json.Number("1"))))
	_, ok := a.Schema().Get("bad_name_")
	assert.True(t, ok)
}

func TestSanitizeName_Idempotent(t *testing.T) {
	a := New(Config{SanitizeNames: true})
	once := a.sanitizeName("bad name!")
	twice := a.sanitizeName(once)
	assert.Equal(t, once, twice)
}

func TestSanitizeName_CollisionsDisambiguatedInSortedOrder(t *testing.T) {
	a := New(Config{SanitizeNames: true})
	require.NoError(t, a.Observe(obj("a-b", json.Number("1"), "a.b", json.Number("2"), "a_b", json.Number("3"))))

	// "a-b", "a.b", "a_b" all sanitize to "a_b"; disambiguation orders by
	// the original raw name, not by observation order, so "a-b" (sorts
	// first) keeps the bare name and the others get _2/_3 suffixes.
	_, ok := a.Schema().Get("a_b")
	assert.True(t, ok)
	_, ok = a.Schema().Get("a_b_2")
	assert.True(t, ok)
	_, ok = a.Schema().Get("a_b_3")
	assert.True(t, ok)
}

func TestSanitizeName_NoCollisionNoSuffix(t *testing.T) {
	a := New(Config{SanitizeNames: true})
	require.NoError(t, a.Observe(obj("clean", json.Number("1"), "also_clean", json.Number("2"))))

	_, ok := a.Schema().Get("clean")
	assert.True(t, ok)
	_, ok = a.Schema().Get("also_clean")
	assert.True(t, ok)
	_, ok = a.Schema().Get("clean_2")
	assert.False(t, ok)
}

func TestCombine(t *testing.T) {
	a := New(Config{})
	require.NoError(t, a.Observe(obj("id", "42")))

	b := New(Config{})
	require.NoError(t, b.Observe(obj("id", "43")))
	require.NoError(t, b.Observe(obj("name", "x")))

	combined := Combine(a, b)
	id, ok := combined.Schema().Get("id")
	require.True(t, ok)
	assert.Equal(t, lattice.QInteger, id.Type)

	_, ok = combined.Schema().Get("name")
	assert.True(t, ok)
}
