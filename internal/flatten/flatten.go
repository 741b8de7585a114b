// Package flatten projects an accumulated schema fragment (internal/lattice.Map)
// into the canonical BigQuery output shape: an ordered slice of
// lattice.Field, with Ignore entries dropped, Soft entries dropped unless
// keep_nulls is set, and empty RECORDs given the __unknown__ placeholder
// column BigQuery itself requires for a RECORD with no fields.
package flatten

import (
	"sort"

	"github.com/kestrel-labs/bqschema/internal/lattice"
)

// Options controls the projection.
type Options struct {
	// KeepNulls includes fields whose type was never confirmed by a
	// non-null observation (Soft status), typed as their placeholder
	// resolution (STRING, or REPEATED STRING for an always-empty array).
	KeepNulls bool
	// InferMode promotes a filled, NULLABLE scalar field to REQUIRED —
	// only meaningful for CSV input, which is the only format where every
	// record is known to supply every column.
	InferMode bool
	// CSV indicates the input came from a CSV source: CSV output is
	// always emitted in input column order regardless of
	// PreserveInputSortOrder, matching positional column semantics.
	CSV bool
	// PreserveInputSortOrder emits fields in first-seen order instead of
	// sorting lexicographically by canonical name.
	PreserveInputSortOrder bool
}

// Flatten projects m into the canonical output field list.
func Flatten(m *lattice.Map, opts Options) []lattice.Field {
	if m == nil {
		return nil
	}

	keys := m.Keys()
	if !opts.PreserveInputSortOrder && !opts.CSV {
		keys = append([]string(nil), keys...)
		sort.Strings(keys)
	}

	result := make([]lattice.Field, 0, len(keys))
	for _, key := range keys {
		entry, _ := m.Get(key)
		if entry.Status == lattice.Ignore {
			continue
		}
		if entry.Status == lattice.Soft && !opts.KeepNulls {
			continue
		}
		result = append(result, toField(entry, opts))
	}
	return result
}

func toField(entry lattice.Entry, opts Options) lattice.Field {
	mode := outputMode(entry, opts)

	if entry.Fields != nil {
		var nested []lattice.Field
		if entry.Fields.Len() == 0 {
			nested = []lattice.Field{lattice.NewField("__unknown__", "STRING", "NULLABLE")}
		} else {
			nested = Flatten(entry.Fields, opts)
			if len(nested) == 0 {
				// Every nested field was Soft and keep_nulls is off:
				// still need a placeholder so the RECORD isn't empty.
				nested = []lattice.Field{lattice.NewField("__unknown__", "STRING", "NULLABLE")}
			}
		}
		return lattice.NewRecordField(entry.Name, mode.String(), nested)
	}

	return lattice.NewField(entry.Name, entry.Type.String(), mode.String())
}

func outputMode(entry lattice.Entry, opts Options) lattice.Mode {
	if opts.InferMode && opts.CSV && entry.Mode == lattice.Nullable && entry.Filled {
		return lattice.Required
	}
	return entry.Mode
}
