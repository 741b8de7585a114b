// Package bqschema is the public entry point for schema inference,
// diffing, and validation: it wires internal/reducer, internal/merger,
// internal/flatten, internal/diff, internal/validate, and
// internal/registry into the operations callers actually invoke.
package bqschema

import (
	"context"
	"io"

	"github.com/kestrel-labs/bqschema/internal/config"
	"github.com/kestrel-labs/bqschema/internal/diff"
	"github.com/kestrel-labs/bqschema/internal/existingschema"
	"github.com/kestrel-labs/bqschema/internal/flatten"
	"github.com/kestrel-labs/bqschema/internal/lattice"
	"github.com/kestrel-labs/bqschema/internal/merger"
	"github.com/kestrel-labs/bqschema/internal/observability"
	"github.com/kestrel-labs/bqschema/internal/reducer"
	"github.com/kestrel-labs/bqschema/internal/registry"
	"github.com/kestrel-labs/bqschema/internal/source"
	"github.com/kestrel-labs/bqschema/internal/storage"
	"github.com/kestrel-labs/bqschema/internal/validate"
)

// Field is the canonical output type: a BigQuery-compatible field
// definition with name, type, mode, and (for RECORD) nested fields.
type Field = lattice.Field

// Generator infers a canonical schema by observing a stream of records.
type Generator struct {
	acc     *reducer.Accumulator
	opts    *config.Options
	metrics *observability.Metrics
}

// NewGenerator constructs a Generator from resolved options. Callers
// should call opts.Resolve() before passing it here.
func NewGenerator(opts *config.Options) *Generator {
	cfg := reducer.Config{
		CSV:                    opts.InputFormat == config.InputFormatCSV,
		QuotedValuesAreStrings: opts.QuotedValuesAreStrings,
		SanitizeNames:          opts.SanitizeNames,
		InferMode:              opts.InferMode,
	}
	return &Generator{
		acc:     reducer.New(cfg),
		opts:    opts,
		metrics: observability.NewMetrics(),
	}
}

// SeedExisting merges a previously generated schema into the
// accumulator before any records are observed, so a fresh run can widen
// an existing schema rather than starting from nothing.
func (g *Generator) SeedExisting(fields []Field) []merger.Warning {
	existing := fieldsToMap(fields)
	merged, warnings := merger.MergeMaps(existing, g.acc.Schema(), "", merger.Config{InferMode: g.opts.InferMode})
	*g.acc.Schema() = *merged
	return warnings
}

// Consume reads every record from r, merging each into the schema, and
// stops at EOF. Malformed records are skipped (and counted) rather than
// aborting the run when opts.IgnoreInvalidLines is set; otherwise the
// first parse failure is returned.
func (g *Generator) Consume(r source.Reader) error {
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			g.metrics.RecordRejected()
			if g.opts.IgnoreInvalidLines {
				continue
			}
			return err
		}

		if err := g.acc.Observe(rec.Value); err != nil {
			g.metrics.RecordRejected()
			if g.opts.IgnoreInvalidLines {
				continue
			}
			return err
		}
		g.metrics.RecordObserved()
	}
}

// Result is the outcome of a completed generation run.
type Result struct {
	Fields  []Field
	Log     []reducer.LogEntry
	Metrics observability.Snapshot
}

// Finish projects the accumulated schema into its canonical field list
// and returns the run's diagnostics.
func (g *Generator) Finish() Result {
	fields := flatten.Flatten(g.acc.Schema(), flatten.Options{
		KeepNulls:              g.opts.KeepNulls,
		InferMode:              g.opts.InferMode,
		CSV:                    g.opts.InputFormat == config.InputFormatCSV,
		PreserveInputSortOrder: g.opts.PreserveInputSortOrder,
	})

	var hard, soft, ignore int64
	g.acc.Schema().Each(func(_ string, e lattice.Entry) {
		switch e.Status {
		case lattice.Hard:
			hard++
		case lattice.Soft:
			soft++
		case lattice.Ignore:
			ignore++
		}
	})
	g.metrics.SetEntryCounts(hard, soft, ignore)

	return Result{
		Fields:  fields,
		Log:     g.acc.Log(),
		Metrics: g.metrics.Snapshot(),
	}
}

func fieldsToMap(fields []Field) *lattice.Map {
	m := lattice.NewMap()
	for _, f := range fields {
		mode := lattice.Nullable
		switch f.Mode {
		case "REQUIRED":
			mode = lattice.Required
		case "REPEATED":
			mode = lattice.Repeated
		}

		var t lattice.Type
		switch f.Type {
		case "BOOLEAN":
			t = lattice.Boolean
		case "INTEGER":
			t = lattice.Integer
		case "FLOAT":
			t = lattice.Float
		case "TIMESTAMP", "DATETIME":
			// DATETIME has no canonical counterpart; fold it to TIMESTAMP,
			// matching internal/existingschema's own normalization so a
			// caller that builds a Field directly, bypassing
			// LoadExistingSchema, gets the same fold.
			t = lattice.Timestamp
		case "DATE":
			t = lattice.Date
		case "TIME":
			t = lattice.Time
		default:
			// STRING, BYTES, and anything unrecognized: STRING is BYTES's
			// canonical fold, and the safest fallback for the rest.
			t = lattice.String
		}

		entry := lattice.NewEntry(f.Name, t, mode)
		if f.Type == "RECORD" {
			entry.Type = lattice.Record
			entry.Fields = fieldsToMap(f.Fields)
		}
		m.Set(canonicalKey(f.Name), entry)
	}
	return m
}

func canonicalKey(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// Diff compares two schemas, classifying each change as breaking or
// non-breaking.
func Diff(old, new_ []Field, strict bool) diff.Result {
	return diff.Compare(old, new_, diff.Options{Strict: strict})
}

// Validator checks decoded records against a canonical schema.
type Validator struct {
	v *validate.Validator
}

// NewValidator builds a Validator over schema.
func NewValidator(schema []Field, allowUnknown, strictTypes bool, maxErrors int) *Validator {
	return &Validator{v: validate.New(schema, validate.Options{
		AllowUnknown: allowUnknown,
		StrictTypes:  strictTypes,
		MaxErrors:    maxErrors,
	})}
}

// ValidateAll runs every record from r through the validator, returning
// once the reader is exhausted or the error budget is reached.
func (vd *Validator) ValidateAll(r source.Reader) (*validate.Result, error) {
	result := validate.NewResult()
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return result, err
		}
		if !vd.v.ValidateRecord(rec.Value, rec.Line, result) {
			return result, nil
		}
	}
}

// SchemaRegistry opens the on-disk version registry for opts.
func SchemaRegistry(ctx context.Context, opts *config.Options) (*registry.Registry, error) {
	if err := opts.EnsureDirectories(); err != nil {
		return nil, err
	}
	return registry.Open(opts.RegistryPath())
}

// LoadExistingSchema parses a previously generated or hand-authored
// BigQuery schema document into canonical fields, normalizing Standard
// SQL type aliases (INT64, FLOAT64, BOOL, STRUCT) and defaulting an
// absent mode to NULLABLE. See internal/existingschema for the accepted
// document shapes.
func LoadExistingSchema(data []byte) ([]Field, error) {
	return existingschema.Parse(data)
}

// OpenStorage constructs the ObjectStorage backend opts.Storage selects,
// used to fetch S3-resident input/existing-schema documents and to write
// a generated schema back out.
func OpenStorage(ctx context.Context, opts *config.Options) (storage.ObjectStorage, error) {
	switch opts.Storage.Type {
	case config.StorageS3:
		cfg := storage.S3Config{
			Region:       opts.Storage.S3.Region,
			Endpoint:     opts.Storage.S3.Endpoint,
			UsePathStyle: opts.Storage.S3.Endpoint != "",
		}
		return storage.NewS3Storage(ctx, opts.Storage.S3.Bucket, cfg)
	default:
		return storage.NewLocalStorage(opts.Storage.Path)
	}
}
