// Package existingschema parses a previously generated or hand-authored
// BigQuery schema document into the canonical lattice.Field
// representation, so a fresh inference run can seed a Generator and
// widen an existing schema instead of starting from nothing.
//
// The accepted document shape follows what BigQuery itself accepts back
// from bq show --schema and the console's schema editor: either a bare
// JSON array of field objects, or an object with a top-level "fields"
// array. Standard SQL type spellings (INT64, FLOAT64, BOOL, STRUCT) are
// normalized to their legacy equivalents so a document copy-pasted from
// either dialect works unchanged.
package existingschema

import (
	"encoding/json"
	"strings"

	bqerrors "github.com/kestrel-labs/bqschema/internal/errors"
	"github.com/kestrel-labs/bqschema/internal/lattice"
)

// rawField mirrors one field object as it appears on disk, before type
// normalization.
type rawField struct {
	Name   string     `json:"name"`
	Type   string     `json:"type"`
	Mode   string     `json:"mode"`
	Fields []rawField `json:"fields"`
}

// Parse decodes an existing-schema document (either a bare array of
// fields, or an object with a "fields" key) into canonical fields.
func Parse(data []byte) ([]lattice.Field, error) {
	var probe interface{}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, bqerrors.Wrap(bqerrors.ErrCategoryInference, bqerrors.CodeParseError,
			"cannot parse existing schema document", err)
	}

	var raw []rawField
	switch v := probe.(type) {
	case []interface{}:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, bqerrors.Wrap(bqerrors.ErrCategoryInference, bqerrors.CodeParseError,
				"cannot parse existing schema fields", err)
		}
	case map[string]interface{}:
		fieldsVal, ok := v["fields"]
		if !ok {
			return nil, bqerrors.New(bqerrors.ErrCategoryInference, bqerrors.CodeParseError,
				`existing schema object must have a "fields" array`)
		}
		fieldsRaw, err := json.Marshal(fieldsVal)
		if err != nil {
			return nil, bqerrors.Wrap(bqerrors.ErrCategoryInference, bqerrors.CodeParseError,
				"cannot re-marshal existing schema fields", err)
		}
		if err := json.Unmarshal(fieldsRaw, &raw); err != nil {
			return nil, bqerrors.Wrap(bqerrors.ErrCategoryInference, bqerrors.CodeParseError,
				"cannot parse existing schema fields", err)
		}
	default:
		return nil, bqerrors.New(bqerrors.ErrCategoryInference, bqerrors.CodeParseError,
			"existing schema must be an array or an object with a \"fields\" array")
	}

	return convertFields(raw)
}

func convertFields(raw []rawField) ([]lattice.Field, error) {
	fields := make([]lattice.Field, 0, len(raw))
	for _, rf := range raw {
		if rf.Name == "" {
			return nil, bqerrors.New(bqerrors.ErrCategoryInference, bqerrors.CodeParseError,
				"existing schema field must have a \"name\"")
		}
		if rf.Type == "" {
			return nil, bqerrors.New(bqerrors.ErrCategoryInference, bqerrors.CodeParseError,
				"existing schema field \""+rf.Name+"\" must have a \"type\"")
		}

		normType, err := normalizeType(rf.Type)
		if err != nil {
			return nil, err
		}
		mode := normalizeMode(rf.Mode)

		field := lattice.Field{Name: rf.Name, Type: normType, Mode: mode}

		if normType == "RECORD" {
			if len(rf.Fields) == 0 {
				return nil, bqerrors.New(bqerrors.ErrCategoryInference, bqerrors.CodeParseError,
					"RECORD field \""+rf.Name+"\" must have \"fields\"")
			}
			nested, err := convertFields(rf.Fields)
			if err != nil {
				return nil, err
			}
			field.Fields = nested
		}

		fields = append(fields, field)
	}
	return fields, nil
}

// normalizeType maps a Standard SQL type spelling, or a legacy spelling
// with no canonical equivalent, into the canonical vocabulary
// (BOOLEAN/INTEGER/FLOAT/STRING/DATE/TIME/TIMESTAMP/RECORD): DATETIME
// folds to TIMESTAMP and BYTES folds to STRING, since neither survives
// as its own type past this point.
func normalizeType(typeName string) (string, error) {
	switch strings.ToUpper(typeName) {
	case "STRING":
		return "STRING", nil
	case "BYTES":
		// BYTES has no canonical counterpart; fold it to STRING.
		return "STRING", nil
	case "INTEGER", "INT64":
		return "INTEGER", nil
	case "FLOAT", "FLOAT64":
		return "FLOAT", nil
	case "BOOLEAN", "BOOL":
		return "BOOLEAN", nil
	case "TIMESTAMP":
		return "TIMESTAMP", nil
	case "DATE":
		return "DATE", nil
	case "TIME":
		return "TIME", nil
	case "DATETIME":
		// DATETIME has no timezone-less counterpart in the canonical
		// vocabulary; fold it to TIMESTAMP.
		return "TIMESTAMP", nil
	case "RECORD", "STRUCT":
		return "RECORD", nil
	default:
		return "", bqerrors.New(bqerrors.ErrCategoryInference, bqerrors.CodeParseError,
			"unknown BigQuery type: "+typeName)
	}
}

// normalizeMode defaults an absent or unrecognized mode to NULLABLE, the
// same default BigQuery applies when a field object omits "mode".
func normalizeMode(mode string) string {
	switch strings.ToUpper(mode) {
	case "REQUIRED":
		return "REQUIRED"
	case "REPEATED":
		return "REPEATED"
	default:
		return "NULLABLE"
	}
}
