package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kestrel-labs/bqschema/internal/lattice"
)

func TestSchema_OrderIndependent(t *testing.T) {
	a := []lattice.Field{
		lattice.NewField("id", "INTEGER", "REQUIRED"),
		lattice.NewField("name", "STRING", "NULLABLE"),
	}
	b := []lattice.Field{
		lattice.NewField("name", "STRING", "NULLABLE"),
		lattice.NewField("id", "INTEGER", "REQUIRED"),
	}

	assert.Equal(t, Schema(a), Schema(b))
}

func TestSchema_DifferentFieldsDiffer(t *testing.T) {
	a := []lattice.Field{lattice.NewField("id", "INTEGER", "REQUIRED")}
	b := []lattice.Field{lattice.NewField("id", "STRING", "REQUIRED")}

	assert.NotEqual(t, Schema(a), Schema(b))
}

func TestSchema_RecursesIntoNestedFields(t *testing.T) {
	a := []lattice.Field{lattice.NewRecordField("obj", "NULLABLE", []lattice.Field{
		lattice.NewField("a", "STRING", "NULLABLE"),
	})}
	b := []lattice.Field{lattice.NewRecordField("obj", "NULLABLE", []lattice.Field{
		lattice.NewField("a", "INTEGER", "NULLABLE"),
	})}

	assert.NotEqual(t, Schema(a), Schema(b))
}

func TestSchema_NestedFieldOrderIndependent(t *testing.T) {
	a := []lattice.Field{lattice.NewRecordField("obj", "NULLABLE", []lattice.Field{
		lattice.NewField("a", "STRING", "NULLABLE"),
		lattice.NewField("b", "STRING", "NULLABLE"),
	})}
	b := []lattice.Field{lattice.NewRecordField("obj", "NULLABLE", []lattice.Field{
		lattice.NewField("b", "STRING", "NULLABLE"),
		lattice.NewField("a", "STRING", "NULLABLE"),
	})}

	assert.Equal(t, Schema(a), Schema(b))
}

func TestSchema_EmptyFieldsStable(t *testing.T) {
	first := Schema(nil)
	second := Schema([]lattice.Field{})
	assert.Equal(t, first, second)
}
