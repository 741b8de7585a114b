// Package merger implements the schema-merge algebra: combining two
// observations (or two whole schema fragments) of the same field set into
// one, following the Hard/Soft/Ignore state machine. MergeMaps is
// associative and commutative up to display_name (see MergeMaps), which
// is what lets independent batches of
// records be reduced in parallel and folded together in any order.
package merger

import (
	"fmt"

	"github.com/kestrel-labs/bqschema/internal/lattice"
)

// Config carries the merge-time knobs that affect mode reconciliation.
type Config struct {
	// InferMode allows a REQUIRED field to relax to NULLABLE when a later
	// record leaves it unfilled. Only meaningful for CSV input, where
	// REQUIRED is inferred in the first place.
	InferMode bool
}

// Warning is a non-fatal condition raised while merging, meant to be
// appended to the caller's accumulated log rather than aborting the merge.
type Warning struct {
	Path    string
	Message string
}

func warnf(path, format string, args ...interface{}) Warning {
	return Warning{Path: path, Message: fmt.Sprintf(format, args...)}
}

func fullPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}

// MergeEntry combines an existing entry (nil if the field is new) with a
// freshly observed entry for the same field, at the given dotted path
// (used only for warning messages). It always returns a non-nil entry:
// conflicting fields are marked Ignore rather than dropped, so the caller
// can still track that the field was seen.
func MergeEntry(old *lattice.Entry, next lattice.Entry, path string, cfg Config) (lattice.Entry, []Warning) {
	if old == nil {
		return next, nil
	}
	cur := *old
	var warnings []Warning

	if !next.Filled || !cur.Filled {
		cur.Filled = false
	}

	if cur.Status == lattice.Ignore {
		return cur, nil
	}

	// Hard -> Soft: keep the hard type, just reconcile mode.
	if cur.Status == lattice.Hard && next.Status == lattice.Soft {
		if mode, ok := mergeMode(cur, next, path, cfg, &warnings); ok {
			cur.Mode = mode
			return cur, warnings
		}
		cur.Status = lattice.Ignore
		return cur, warnings
	}

	// Soft -> Hard: the hard observation wins, carrying forward whether
	// the field has been filled in every record seen so far.
	if cur.Status == lattice.Soft && next.Status == lattice.Hard {
		result := next
		result.Filled = cur.Filled
		if mode, ok := mergeMode(cur, result, path, cfg, &warnings); ok {
			result.Mode = mode
			return result, warnings
		}
		cur.Status = lattice.Ignore
		return cur, warnings
	}

	// Both entries carry a nested record: merge their field maps
	// regardless of mode, then reconcile REPEATED-vs-NULLABLE separately
	// since RECORD mode transitions follow their own rule.
	if cur.Fields != nil && next.Fields != nil {
		return mergeRecordEntry(cur, next, path, cfg, warnings)
	}

	mode, ok := mergeMode(cur, next, path, cfg, &warnings)
	if !ok {
		cur.Status = lattice.Ignore
		return cur, warnings
	}

	if cur.Type != next.Type {
		joined, ok := lattice.Join(cur.Type, next.Type)
		if !ok {
			warnings = append(warnings, warnf(path,
				"ignoring field %q with mismatched type: old=(%s,%s,%s), new=(%s,%s,%s)",
				path, cur.Status, cur.Mode, cur.Type, next.Status, next.Mode, next.Type))
			cur.Status = lattice.Ignore
			return cur, warnings
		}
		cur.Type = joined
		cur.Mode = mode
		return cur, warnings
	}

	cur.Mode = mode
	return cur, warnings
}

// mergeRecordEntry merges two RECORD-typed entries: their nested field
// maps always merge, and their modes reconcile under the RECORD-specific
// rule rather than the general mergeMode used for scalars — a NULLABLE
// RECORD promotes to REPEATED RECORD the first time an array of objects is
// seen, but the reverse (REPEATED narrowing back to NULLABLE) is refused
// outright rather than silently discarded, since a caller relying on the
// REPEATED shape downstream would otherwise be broken without warning.
func mergeRecordEntry(cur, next lattice.Entry, path string, cfg Config, warnings []Warning) (lattice.Entry, []Warning) {
	full := fullPath(path, cur.Name)

	switch {
	case cur.Mode == lattice.Nullable && next.Mode == lattice.Repeated:
		warnings = append(warnings, warnf(path,
			"converting schema for %q from NULLABLE RECORD into REPEATED RECORD", full))
		cur.Mode = lattice.Repeated
	case cur.Mode == lattice.Repeated && next.Mode == lattice.Nullable:
		warnings = append(warnings, warnf(path,
			"ignoring field %q: cannot narrow REPEATED RECORD back to NULLABLE RECORD", full))
		cur.Status = lattice.Ignore
		return cur, warnings
	}

	merged, mergeWarnings := MergeMaps(cur.Fields, next.Fields, full, cfg)
	warnings = append(warnings, mergeWarnings...)
	cur.Fields = merged
	return cur, warnings
}

// mergeMode reconciles two scalar/array modes, appending a warning and
// returning ok=false when the transition is disallowed.
func mergeMode(cur, next lattice.Entry, path string, cfg Config, warnings *[]Warning) (lattice.Mode, bool) {
	if cur.Mode == next.Mode {
		return cur.Mode, true
	}

	full := fullPath(path, cur.Name)
	mode, ok := lattice.JoinMode(cur.Mode, next.Mode, cur.Status, next.Status, next.Filled, cfg.InferMode)
	if !ok {
		*warnings = append(*warnings, warnf(path,
			"ignoring field %q with mismatched mode: old=(%s,%s,%s), new=(%s,%s,%s)",
			full, cur.Status, cur.Mode, cur.Type, next.Status, next.Mode, next.Type))
	}
	return mode, ok
}

// MergeMaps combines two schema fragments field-by-field, preserving the
// left map's field order and appending any fields the right map introduces
// at the end. It is associative and commutative up to which side's
// display_name (original-case field name) survives on a merged field —
// ties are broken in favor of the left operand, matching the reducer's use
// of MergeMaps to fold each record into the running total in record order.
func MergeMaps(left, right *lattice.Map, path string, cfg Config) (*lattice.Map, []Warning) {
	if left == nil {
		return right.Clone(), nil
	}
	if right == nil {
		return left.Clone(), nil
	}

	result := left.Clone()
	var warnings []Warning

	for _, key := range right.Keys() {
		rightEntry, _ := right.Get(key)
		existing, ok := result.Get(key)
		var merged lattice.Entry
		var w []Warning
		if ok {
			merged, w = MergeEntry(&existing, rightEntry, path, cfg)
		} else {
			merged, w = MergeEntry(nil, rightEntry, path, cfg)
		}
		warnings = append(warnings, w...)
		result.Set(key, merged)
	}

	return result, warnings
}
