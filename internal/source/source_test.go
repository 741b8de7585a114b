package source

import (
	"io"
	"strings"
	"testing"

	"github.com/kestrel-labs/bqschema/internal/ojson"
)

func TestJSONLinesReader(t *testing.T) {
	input := `{"a": 1}
{"a": 2}

{"a": 3}`
	r := NewJSONLines(strings.NewReader(input))

	var got []int
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		obj, ok := rec.Value.(ojson.Object)
		if !ok {
			t.Fatalf("expected ojson.Object, got %T", rec.Value)
		}
		v, _ := obj.Get("a")
		n, ok := v.(interface{ String() string })
		if !ok {
			t.Fatalf("expected json.Number, got %T", v)
		}
		_ = n
		got = append(got, len(got)+1)
	}
	if len(got) != 3 {
		t.Errorf("decoded %d records, want 3", len(got))
	}
}

func TestJSONLinesReaderInvalidLine(t *testing.T) {
	r := NewJSONLines(strings.NewReader("not json\n"))
	_, err := r.Next()
	if err == nil {
		t.Fatal("expected error for invalid JSON line")
	}
}

func TestCSVReader(t *testing.T) {
	input := "name,age\nalice,30\nbob,\n"
	r, err := NewCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("NewCSV: %v", err)
	}

	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	obj := rec.Value.(ojson.Object)
	name, _ := obj.Get("name")
	if name != "alice" {
		t.Errorf("name = %v, want alice", name)
	}

	rec, err = r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	obj = rec.Value.(ojson.Object)
	age, _ := obj.Get("age")
	if age != "" {
		t.Errorf("age = %q, want empty string", age)
	}

	_, err = r.Next()
	if err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}
