package reducer

import "github.com/kestrel-labs/bqschema/internal/merger"

// Combine merges two independently accumulated fragments — typically the
// results of reducing disjoint batches of records in parallel — into a
// single accumulator. Because MergeMaps is associative and commutative up
// to display_name, batches may be combined in any order or grouping and
// the result is the same as reducing all records sequentially in a single
// accumulator, aside from which batch's original-case field name survives
// on a merged field.
func Combine(a, b *Accumulator) *Accumulator {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	mergeCfg := merger.Config{InferMode: a.cfg.InferMode}
	merged, warnings := merger.MergeMaps(a.schema, b.schema, "", mergeCfg)

	out := &Accumulator{cfg: a.cfg, schema: merged, line: a.line}
	out.log = append(out.log, a.log...)
	out.log = append(out.log, b.log...)
	for _, w := range warnings {
		out.log = append(out.log, LogEntry{Line: out.line, Message: w.Message})
	}
	return out
}
