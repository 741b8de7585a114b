package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap_SetPreservesInsertionOrder(t *testing.T) {
	m := NewMap()
	m.Set("b", NewEntry("b", String, Nullable))
	m.Set("a", NewEntry("a", String, Nullable))
	m.Set("c", NewEntry("c", String, Nullable))

	assert.Equal(t, []string{"b", "a", "c"}, m.Keys())
}

func TestMap_SetUpdateKeepsPosition(t *testing.T) {
	m := NewMap()
	m.Set("a", NewEntry("a", String, Nullable))
	m.Set("b", NewEntry("b", String, Nullable))
	m.Set("a", NewEntry("a", Integer, Nullable))

	assert.Equal(t, []string{"a", "b"}, m.Keys())
	e, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, Integer, e.Type)
}

func TestMap_Delete(t *testing.T) {
	m := NewMap()
	m.Set("a", NewEntry("a", String, Nullable))
	m.Set("b", NewEntry("b", String, Nullable))
	m.Delete("a")

	assert.Equal(t, []string{"b"}, m.Keys())
	_, ok := m.Get("a")
	assert.False(t, ok)
}

func TestMap_CloneIsIndependent(t *testing.T) {
	m := NewMap()
	nested := NewMap()
	nested.Set("x", NewEntry("x", Integer, Nullable))
	m.Set("obj", Entry{Status: Hard, Name: "obj", Type: Record, Mode: Nullable, Fields: nested})

	clone := m.Clone()
	entry, _ := clone.Get("obj")
	entry.Fields.Set("y", NewEntry("y", String, Nullable))

	original, _ := m.Get("obj")
	assert.Equal(t, 1, original.Fields.Len())
	assert.Equal(t, 2, entry.Fields.Len())
}

func TestMap_Each(t *testing.T) {
	m := NewMap()
	m.Set("a", NewEntry("a", String, Nullable))
	m.Set("b", NewEntry("b", Integer, Nullable))

	var seen []string
	m.Each(func(key string, e Entry) { seen = append(seen, key) })
	assert.Equal(t, []string{"a", "b"}, seen)
}
