package lattice

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON emits keys in the fixed order {fields, mode, name, type},
// omitting "fields" entirely for non-RECORD entries, matching the wire
// format `bq load` itself produces.
func (f Field) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	wrote := false
	if f.Fields != nil {
		buf.WriteString(`"fields":`)
		b, err := json.Marshal(f.Fields)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
		wrote = true
	}
	if wrote {
		buf.WriteByte(',')
	}
	buf.WriteString(`"mode":`)
	mb, err := json.Marshal(f.Mode)
	if err != nil {
		return nil, err
	}
	buf.Write(mb)
	buf.WriteByte(',')
	buf.WriteString(`"name":`)
	nb, err := json.Marshal(f.Name)
	if err != nil {
		return nil, err
	}
	buf.Write(nb)
	buf.WriteByte(',')
	buf.WriteString(`"type":`)
	tb, err := json.Marshal(f.Type)
	if err != nil {
		return nil, err
	}
	buf.Write(tb)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the standard bq schema field shape regardless of
// key order, for reading back existing_schema documents.
func (f *Field) UnmarshalJSON(data []byte) error {
	var raw struct {
		Fields []Field `json:"fields"`
		Mode   string  `json:"mode"`
		Name   string  `json:"name"`
		Type   string  `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Fields = raw.Fields
	f.Mode = raw.Mode
	f.Name = raw.Name
	f.Type = raw.Type
	return nil
}
