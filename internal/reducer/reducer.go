// Package reducer implements the record reducer: folding one decoded
// record into a running schema fragment, field by field, recursing into
// nested objects and arrays and classifying each leaf value through
// internal/inference.
package reducer

import (
	"fmt"
	"regexp"
	"sort"

	bqerrors "github.com/kestrel-labs/bqschema/internal/errors"
	"github.com/kestrel-labs/bqschema/internal/inference"
	"github.com/kestrel-labs/bqschema/internal/lattice"
	"github.com/kestrel-labs/bqschema/internal/merger"
	"github.com/kestrel-labs/bqschema/internal/ojson"
)

// Config carries the subset of the caller's options that affect how a
// record folds into a schema.
type Config struct {
	CSV                    bool
	QuotedValuesAreStrings bool
	SanitizeNames          bool
	InferMode              bool
}

var fieldNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]`)

const maxFieldNameLength = 128

// LogEntry is one non-fatal condition recorded while reducing a batch of
// records, tagged with the accumulator's record count at the time (1 for
// the first record passed to Observe). That count equals the input line
// number only when every input line is a record that reaches Observe.
type LogEntry struct {
	Line    int
	Message string
}

// Accumulator holds the schema fragment built so far, plus the log of
// non-fatal conditions encountered along the way. It is not safe for
// concurrent use; parallel batches should each use their own Accumulator
// and be combined afterward with Combine.
type Accumulator struct {
	cfg    Config
	schema *lattice.Map
	line   int
	log    []LogEntry
}

// New creates an empty accumulator. CSV input forces KeepNulls at the
// caller level (handled by the top-level pipeline, not here); this
// accumulator only needs to know CSV is in play to treat an empty string
// cell as a null observation rather than the literal string "".
func New(cfg Config) *Accumulator {
	return &Accumulator{cfg: cfg, schema: lattice.NewMap()}
}

// Schema returns the accumulated schema fragment.
func (a *Accumulator) Schema() *lattice.Map { return a.schema }

// Log returns the non-fatal conditions recorded so far.
func (a *Accumulator) Log() []LogEntry { return a.log }

func (a *Accumulator) logf(format string, args ...interface{}) {
	a.log = append(a.log, LogEntry{Line: a.line, Message: fmt.Sprintf(format, args...)})
}

// Observe folds one record into the accumulator's schema. record must be
// an ojson.Object (a JSON object); anything else is a fatal, non-recoverable
// condition for that record and is returned as a *bqerrors.SchemaError with
// code CodeNonObjectRecord — spec.md requires the caller be able to skip
// such a record via ignore_invalid_lines rather than abort the whole run.
func (a *Accumulator) Observe(record interface{}) error {
	a.line++
	obj, ok := record.(ojson.Object)
	if !ok {
		msg := fmt.Sprintf("record %d is not a JSON object", a.line)
		a.logf("%s", msg)
		return bqerrors.NewInferenceError(bqerrors.CodeNonObjectRecord, msg)
	}
	mergeCfg := merger.Config{InferMode: a.cfg.InferMode}
	fragment := a.deduceRecord(obj, "")
	merged, warnings := merger.MergeMaps(a.schema, fragment, "", mergeCfg)
	a.schema = merged
	for _, w := range warnings {
		a.logf("%s", w.Message)
	}
	return nil
}

// sanitizeName replaces characters BigQuery field names disallow with
// underscores and truncates to the maximum field name length. It is
// idempotent: re-sanitizing an already-sanitized name is a no-op, since
// the result contains only characters the regexp already accepts and is
// never longer than maxFieldNameLength.
func (a *Accumulator) sanitizeName(name string) string {
	if !a.cfg.SanitizeNames {
		return name
	}
	sanitized := fieldNameSanitizer.ReplaceAllString(name, "_")
	if len(sanitized) > maxFieldNameLength {
		return sanitized[:maxFieldNameLength]
	}
	return sanitized
}

// sanitizeNames sanitizes every key of one record's fields and
// disambiguates any collisions that sanitization introduces between
// distinct raw names — e.g. "a.b" and "a-b" both sanitizing to "a_b".
// The first colliding name in sorted raw-name order keeps the bare
// sanitized name; later ones get "_2", "_3", … appended, so the
// assignment is independent of the record's original key order.
func (a *Accumulator) sanitizeNames(rawNames []string) []string {
	sanitized := make([]string, len(rawNames))
	for i, n := range rawNames {
		sanitized[i] = a.sanitizeName(n)
	}
	if !a.cfg.SanitizeNames {
		return sanitized
	}

	groups := make(map[string][]int, len(rawNames))
	for i, s := range sanitized {
		groups[s] = append(groups[s], i)
	}

	result := append([]string(nil), sanitized...)
	for base, idxs := range groups {
		if len(idxs) < 2 {
			continue
		}
		order := append([]int(nil), idxs...)
		sort.Slice(order, func(i, j int) bool { return rawNames[order[i]] < rawNames[order[j]] })
		suffix := 1
		for n, idx := range order {
			if n > 0 && rawNames[idx] != rawNames[order[n-1]] {
				suffix++
			}
			if suffix == 1 {
				result[idx] = base
			} else {
				result[idx] = fmt.Sprintf("%s_%d", base, suffix)
			}
		}
	}
	return result
}

// deduceRecord classifies every field of obj into a fresh schema fragment,
// recursing into nested objects/arrays-of-objects. Fields of one record
// that end up under the same canonical name are merged with
// merger.MergeEntry.
func (a *Accumulator) deduceRecord(obj ojson.Object, basePath string) *lattice.Map {
	frag := lattice.NewMap()
	mergeCfg := merger.Config{InferMode: a.cfg.InferMode}

	rawNames := make([]string, len(obj))
	for i, kv := range obj {
		rawNames[i] = kv.Key
	}
	names := a.sanitizeNames(rawNames)

	for i, kv := range obj {
		name := names[i]
		canonical := toCanonical(name)

		entry, ok := a.classify(name, kv.Value, basePath)
		if !ok {
			continue // unsupported shape, already logged
		}

		if existing, present := frag.Get(canonical); present {
			merged, warnings := merger.MergeEntry(&existing, entry, basePath, mergeCfg)
			for _, w := range warnings {
				a.logf("%s", w.Message)
			}
			frag.Set(canonical, merged)
		} else {
			frag.Set(canonical, entry)
		}
	}
	return frag
}

func toCanonical(name string) string {
	// BigQuery field matching is case-insensitive; canonicalize to
	// lowercase for map keys while the entry itself retains the
	// first-seen display name.
	b := []byte(name)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// classify turns one field's raw value into a schema entry. ok is false
// when the value's shape is unsupported (heterogeneous array, nested
// array of arrays) and has already been logged.
func (a *Accumulator) classify(name string, value interface{}, basePath string) (lattice.Entry, bool) {
	switch v := value.(type) {
	case nil:
		return lattice.SoftEntry(name, lattice.String, lattice.Nullable), true

	case bool:
		return lattice.NewEntry(name, lattice.Boolean, lattice.Nullable), true

	case string:
		if a.cfg.CSV && v == "" {
			return lattice.SoftEntry(name, lattice.String, lattice.Nullable), true
		}
		t := inference.FromString(v, a.cfg.QuotedValuesAreStrings)
		return lattice.NewEntry(name, t, lattice.Nullable), true

	case interface{ String() string }: // json.Number
		t := inference.NumberString(v.String())
		return lattice.NewEntry(name, t, lattice.Nullable), true

	case ojson.Object:
		if len(v) == 0 {
			return lattice.Entry{Status: lattice.Soft, Filled: false, Name: name,
				Type: lattice.EmptyRecord, Mode: lattice.Nullable, Fields: lattice.NewMap()}, true
		}
		newBase := fullPath(basePath, name)
		fields := a.deduceRecord(v, newBase)
		return lattice.Entry{Status: lattice.Hard, Filled: true, Name: name,
			Type: lattice.Record, Mode: lattice.Nullable, Fields: fields}, true

	case []interface{}:
		return a.classifyArray(name, v, basePath)

	default:
		a.logf("unsupported value type for field %q: %T", name, value)
		return lattice.Entry{}, false
	}
}

func (a *Accumulator) classifyArray(name string, arr []interface{}, basePath string) (lattice.Entry, bool) {
	if len(arr) == 0 {
		return lattice.Entry{Status: lattice.Soft, Filled: false, Name: name,
			Type: lattice.EmptyArray, Mode: lattice.Repeated}, true
	}

	// Reject nested arrays outright: BigQuery has no array-of-array type.
	for _, elem := range arr {
		if _, isArr := elem.([]interface{}); isArr {
			a.logf("unsupported array element type for field %q: nested array", name)
			return lattice.Entry{}, false
		}
	}

	// All-object arrays merge into one nested RECORD schema; all-scalar
	// arrays join to one common scalar type. The two shapes can't mix.
	allObjects := true
	for _, elem := range arr {
		if _, isObj := elem.(ojson.Object); !isObj {
			allObjects = false
			break
		}
	}

	if allObjects {
		newBase := fullPath(basePath, name)
		fields := lattice.NewMap()
		mergeCfg := merger.Config{InferMode: a.cfg.InferMode}
		for _, elem := range arr {
			obj := elem.(ojson.Object)
			frag := a.deduceRecord(obj, newBase)
			merged, warnings := merger.MergeMaps(fields, frag, newBase, mergeCfg)
			fields = merged
			for _, w := range warnings {
				a.logf("%s", w.Message)
			}
		}
		return lattice.Entry{Status: lattice.Hard, Filled: true, Name: name,
			Type: lattice.Record, Mode: lattice.Repeated, Fields: fields}, true
	}

	var candidate lattice.Type
	haveCandidate := false
	for _, elem := range arr {
		if _, isObj := elem.(ojson.Object); isObj {
			a.logf("unsupported array element type for field %q: mixed scalar and object elements", name)
			return lattice.Entry{}, false
		}
		entry, ok := a.classify(name, elem, basePath)
		if !ok {
			return lattice.Entry{}, false
		}
		if elem == nil || (entry.Type.IsInternal() && entry.Type != lattice.EmptyRecord) {
			// Null/EmptyArray elements inside an array carry no signal of
			// their own; skip them when picking the array's element type.
			continue
		}
		if !haveCandidate {
			candidate = entry.Type
			haveCandidate = true
			continue
		}
		joined, ok := lattice.Join(candidate, entry.Type)
		if !ok {
			a.logf("all array elements for field %q must be the same compatible type", name)
			return lattice.Entry{}, false
		}
		candidate = joined
	}

	if !haveCandidate {
		// Every element was Null/EmptyArray: treat like an empty array.
		return lattice.Entry{Status: lattice.Soft, Filled: false, Name: name,
			Type: lattice.EmptyArray, Mode: lattice.Repeated}, true
	}

	return lattice.NewEntry(name, candidate, lattice.Repeated), true
}

func fullPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}
