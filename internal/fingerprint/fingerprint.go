// Package fingerprint computes a stable hash of a canonical schema, used
// both by the schema registry to detect an unchanged schema without a full
// JSON comparison, and by the diff engine as a fast-path short-circuit.
package fingerprint

import (
	"encoding/binary"
	"sort"

	"github.com/spaolacci/murmur3"

	"github.com/kestrel-labs/bqschema/internal/lattice"
)

// Schema returns a 128-bit murmur3 fingerprint of fields, independent of
// input field order — two schemas with the same fields in different
// orders (e.g. one flattened with preserve_input_sort_order, one without)
// fingerprint identically, since PreserveInputSortOrder is a display
// concern, not a schema-identity one.
func Schema(fields []lattice.Field) [16]byte {
	h := murmur3.New128()
	writeFields(h, fields)
	hi, lo := h.Sum128()
	var out [16]byte
	binary.BigEndian.PutUint64(out[:8], hi)
	binary.BigEndian.PutUint64(out[8:], lo)
	return out
}

func writeFields(h interface {
	Write([]byte) (int, error)
}, fields []lattice.Field) {
	sorted := append([]lattice.Field(nil), fields...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, f := range sorted {
		h.Write([]byte(f.Name))
		h.Write([]byte{0})
		h.Write([]byte(f.Type))
		h.Write([]byte{0})
		h.Write([]byte(f.Mode))
		h.Write([]byte{0})
		if f.Fields != nil {
			writeFields(h, f.Fields)
		}
		h.Write([]byte{0xff})
	}
}
