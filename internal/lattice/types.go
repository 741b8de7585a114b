// Package lattice defines the BigQuery type/mode vocabulary and the join
// operation used to reconcile two observations of the same field.
package lattice

import "fmt"

// Type is a node in the schema type lattice. It carries both the canonical
// BigQuery output types (Boolean, Integer, Float, String, Timestamp, Date,
// Time, Record) and the internal bookkeeping types used while a field's
// type is still provisional: Null and EmptyArray are soft placeholders that
// give way to the first concrete observation's type (and render as STRING
// if none ever arrives), EmptyRecord is
// the placeholder for `{}`, and the Q-prefixed types track a value that
// arrived quoted (`"123"`) so it can still merge with an unquoted sibling.
type Type int

const (
	Boolean Type = iota
	Integer
	Float
	String
	Timestamp
	Date
	Time
	Record

	// Soft placeholders — resolved once a Hard observation of the same
	// field arrives.
	Null
	EmptyArray
	EmptyRecord

	// Quoted shadow types — a value observed inside a JSON string that
	// looks like a boolean/integer/float.
	QBoolean
	QInteger
	QFloat
)

// String returns the canonical BigQuery type name used in schema JSON.
func (t Type) String() string {
	switch t {
	case Boolean, QBoolean:
		return "BOOLEAN"
	case Integer, QInteger:
		return "INTEGER"
	case Float, QFloat:
		return "FLOAT"
	case String:
		return "STRING"
	case Timestamp:
		return "TIMESTAMP"
	case Date:
		return "DATE"
	case Time:
		return "TIME"
	case Record, EmptyRecord:
		return "RECORD"
	case Null, EmptyArray:
		return "STRING"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// IsInternal reports whether t is a soft placeholder never surfaced as
// itself in output — it always resolves to something else first.
func (t Type) IsInternal() bool {
	return t == Null || t == EmptyArray || t == EmptyRecord
}

// IsQuoted reports whether t was inferred from a quoted scalar.
func (t Type) IsQuoted() bool {
	return t == QBoolean || t == QInteger || t == QFloat
}

// IsStringCompatible reports whether t can be widened to STRING when it
// conflicts with another string-compatible type.
func (t Type) IsStringCompatible() bool {
	switch t {
	case String, Timestamp, Date, Time, QInteger, QFloat, QBoolean:
		return true
	default:
		return false
	}
}

// Mode is a BigQuery field mode.
type Mode int

const (
	Nullable Mode = iota
	Required
	Repeated
)

func (m Mode) String() string {
	switch m {
	case Nullable:
		return "NULLABLE"
	case Required:
		return "REQUIRED"
	case Repeated:
		return "REPEATED"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// EntryStatus tracks how confident the accumulator is about a field's type.
type EntryStatus int

const (
	// Hard: the type was determined from an actual, non-null value.
	Hard EntryStatus = iota
	// Soft: the type is provisional, inferred only from null/empty values,
	// and will be overwritten by the first Hard observation.
	Soft
	// Ignore: conflicting types were observed for this field; it is
	// dropped from output entirely.
	Ignore
)

func (s EntryStatus) String() string {
	switch s {
	case Hard:
		return "Hard"
	case Soft:
		return "Soft"
	case Ignore:
		return "Ignore"
	default:
		return fmt.Sprintf("EntryStatus(%d)", int(s))
	}
}

// Entry is a single field's accumulated inference state.
type Entry struct {
	Status EntryStatus
	// Filled is false once any observation of this field was null or
	// empty; a record that omits the field altogether does not clear it.
	// It is the precondition for inferring REQUIRED mode on CSV input,
	// where every row carries every column.
	Filled bool
	Name   string
	Type   Type
	Mode   Mode
	// Fields holds the nested schema for Record/EmptyRecord entries.
	Fields *Map
}

// NewEntry creates a Hard, Filled entry — the state produced by an actual
// observed value.
func NewEntry(name string, t Type, mode Mode) Entry {
	return Entry{Status: Hard, Filled: true, Name: name, Type: t, Mode: mode}
}

// SoftEntry creates a Soft, unfilled entry — the state produced by a null
// or empty observation.
func SoftEntry(name string, t Type, mode Mode) Entry {
	return Entry{Status: Soft, Filled: false, Name: name, Type: t, Mode: mode}
}

// Field is the canonical BigQuery schema output representation of one
// field: `{fields, mode, name, type}`, with fields present only for
// RECORD-typed entries. Key order on MarshalJSON follows the fixed order
// spec.md requires so output is byte-stable across runs.
type Field struct {
	Fields []Field
	Mode   string
	Name   string
	Type   string
}

// NewField builds a scalar output field.
func NewField(name, fieldType, mode string) Field {
	return Field{Name: name, Type: fieldType, Mode: mode}
}

// NewRecordField builds a RECORD output field with nested fields.
func NewRecordField(name, mode string, fields []Field) Field {
	return Field{Name: name, Type: "RECORD", Mode: mode, Fields: fields}
}
