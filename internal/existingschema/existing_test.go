package existingschema

import "testing"

func TestParse_BareArray(t *testing.T) {
	fields, err := Parse([]byte(`[
		{"name": "id", "type": "INTEGER", "mode": "REQUIRED"},
		{"name": "name", "type": "STRING"}
	]`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Mode != "REQUIRED" {
		t.Errorf("expected REQUIRED mode, got %q", fields[0].Mode)
	}
	if fields[1].Mode != "NULLABLE" {
		t.Errorf("expected default NULLABLE mode, got %q", fields[1].Mode)
	}
}

func TestParse_FieldsWrappedObject(t *testing.T) {
	fields, err := Parse([]byte(`{"fields": [{"name": "id", "type": "INTEGER"}]}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(fields) != 1 || fields[0].Name != "id" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

func TestParse_ObjectWithoutFieldsKeyErrors(t *testing.T) {
	_, err := Parse([]byte(`{"other": "data"}`))
	if err == nil {
		t.Fatal("expected error for object without fields key")
	}
}

func TestParse_TypeAliasNormalization(t *testing.T) {
	fields, err := Parse([]byte(`[
		{"name": "a", "type": "INT64"},
		{"name": "b", "type": "FLOAT64"},
		{"name": "c", "type": "BOOL"},
		{"name": "d", "type": "STRUCT", "fields": [{"name": "x", "type": "STRING"}]}
	]`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := map[string]string{"a": "INTEGER", "b": "FLOAT", "c": "BOOLEAN", "d": "RECORD"}
	for _, f := range fields {
		if f.Type != want[f.Name] {
			t.Errorf("field %q: got type %q, want %q", f.Name, f.Type, want[f.Name])
		}
	}
}

func TestParse_DatetimeFoldsToTimestamp(t *testing.T) {
	fields, err := Parse([]byte(`[{"name": "a", "type": "DATETIME"}]`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if fields[0].Type != "TIMESTAMP" {
		t.Errorf("expected DATETIME folded to TIMESTAMP, got %q", fields[0].Type)
	}
}

func TestParse_BytesFoldsToString(t *testing.T) {
	fields, err := Parse([]byte(`[{"name": "a", "type": "BYTES"}]`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if fields[0].Type != "STRING" {
		t.Errorf("expected BYTES folded to STRING, got %q", fields[0].Type)
	}
}

func TestParse_CaseInsensitiveTypeAndMode(t *testing.T) {
	fields, err := Parse([]byte(`[{"name": "a", "type": "string", "mode": "required"}]`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if fields[0].Type != "STRING" || fields[0].Mode != "REQUIRED" {
		t.Errorf("got type=%q mode=%q", fields[0].Type, fields[0].Mode)
	}
}

func TestParse_UnknownTypeErrors(t *testing.T) {
	_, err := Parse([]byte(`[{"name": "field", "type": "UNKNOWN_TYPE"}]`))
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestParse_RecordWithoutFieldsErrors(t *testing.T) {
	_, err := Parse([]byte(`[{"name": "r", "type": "RECORD"}]`))
	if err == nil {
		t.Fatal("expected error for RECORD without fields")
	}
}

func TestParse_MissingNameErrors(t *testing.T) {
	_, err := Parse([]byte(`[{"type": "STRING"}]`))
	if err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestParse_MissingTypeErrors(t *testing.T) {
	_, err := Parse([]byte(`[{"name": "field"}]`))
	if err == nil {
		t.Fatal("expected error for missing type")
	}
}

func TestParse_NestedRecordRecurses(t *testing.T) {
	fields, err := Parse([]byte(`[
		{"name": "user", "type": "RECORD", "fields": [
			{"name": "email", "type": "STRING"},
			{"name": "age", "type": "INT64"}
		]}
	]`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(fields[0].Fields) != 2 {
		t.Fatalf("expected 2 nested fields, got %d", len(fields[0].Fields))
	}
	if fields[0].Fields[1].Type != "INTEGER" {
		t.Errorf("expected nested INT64 normalized to INTEGER, got %q", fields[0].Fields[1].Type)
	}
}

func TestParse_InvalidRootTypeErrors(t *testing.T) {
	_, err := Parse([]byte(`"just a string"`))
	if err == nil {
		t.Fatal("expected error for invalid root type")
	}
}

func TestParse_EmptyArray(t *testing.T) {
	fields, err := Parse([]byte(`[]`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(fields) != 0 {
		t.Errorf("expected 0 fields, got %d", len(fields))
	}
}
