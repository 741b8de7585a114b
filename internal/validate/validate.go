// Package validate checks decoded records against a canonical BigQuery
// schema: missing REQUIRED fields, type mismatches, and fields absent from
// the schema entirely.
package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kestrel-labs/bqschema/internal/inference"
	"github.com/kestrel-labs/bqschema/internal/lattice"
	"github.com/kestrel-labs/bqschema/internal/ojson"
)

// ErrorKind classifies a validation error.
type ErrorKind string

const (
	MissingRequired ErrorKind = "missing_required"
	TypeMismatch    ErrorKind = "type_mismatch"
	UnknownField    ErrorKind = "unknown_field"
)

// Error is a single validation finding.
type Error struct {
	Line     int
	Path     string
	Kind     ErrorKind
	Expected string
	Actual   string
	Message  string
}

func (e Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func missingRequired(line int, path string) Error {
	return Error{Line: line, Path: path, Kind: MissingRequired,
		Message: fmt.Sprintf("field %q is REQUIRED but missing", path)}
}

func typeMismatch(line int, path, expected, actual, value string) Error {
	return Error{Line: line, Path: path, Kind: TypeMismatch, Expected: expected, Actual: actual,
		Message: fmt.Sprintf("field %q expected %s, got %s (%q)", path, expected, actual, value)}
}

func unknownField(line int, path string) Error {
	return Error{Line: line, Path: path, Kind: UnknownField,
		Message: fmt.Sprintf("unknown field %q not in schema", path)}
}

// Result accumulates the outcome of validating one or more records.
type Result struct {
	Valid    bool
	Errors   []Error
	Warnings []Error
}

// NewResult returns an empty, valid result.
func NewResult() *Result { return &Result{Valid: true} }

func (r *Result) addError(e Error) {
	r.Valid = false
	r.Errors = append(r.Errors, e)
}

func (r *Result) addWarning(e Error) {
	r.Warnings = append(r.Warnings, e)
}

// ReachedMaxErrors reports whether the caller-configured error budget is
// exhausted.
func (r *Result) ReachedMaxErrors(maxErrors int) bool {
	return maxErrors > 0 && len(r.Errors) >= maxErrors
}

// Options controls validation strictness.
type Options struct {
	// AllowUnknown demotes UnknownField from an error to a warning
	// instead of suppressing it outright.
	AllowUnknown bool
	// StrictTypes disallows quoted-scalar coercion: a STRING "123" no
	// longer satisfies an INTEGER field.
	StrictTypes bool
	// MaxErrors stops validation once this many errors have accumulated.
	// Zero means unlimited.
	MaxErrors int
}

// Validator checks records against a fixed schema.
type Validator struct {
	schema  []lattice.Field
	byName  map[string]lattice.Field
	options Options
}

// New builds a Validator over schema.
func New(schema []lattice.Field, options Options) *Validator {
	byName := make(map[string]lattice.Field, len(schema))
	for _, f := range schema {
		byName[strings.ToLower(f.Name)] = f
	}
	return &Validator{schema: schema, byName: byName, options: options}
}

// ValidateRecord validates one record at the given 1-indexed line,
// appending findings to result. It returns false once the error budget in
// Options.MaxErrors has been exhausted, signaling the caller to stop.
func (v *Validator) ValidateRecord(record interface{}, line int, result *Result) bool {
	if result.ReachedMaxErrors(v.options.MaxErrors) {
		return false
	}

	obj, ok := record.(ojson.Object)
	if !ok {
		result.addError(Error{Line: line, Kind: TypeMismatch, Expected: "RECORD", Actual: jsonTypeName(record),
			Message: fmt.Sprintf("expected object/record, got %s", jsonTypeName(record))})
		return !result.ReachedMaxErrors(v.options.MaxErrors)
	}

	v.validateObject(obj, line, "", v.schema, v.byName, result)
	return !result.ReachedMaxErrors(v.options.MaxErrors)
}

func (v *Validator) validateObject(obj ojson.Object, line int, prefix string, fields []lattice.Field, byName map[string]lattice.Field, result *Result) {
	for _, f := range fields {
		if f.Mode != "REQUIRED" {
			continue
		}
		key := strings.ToLower(f.Name)
		value, found := lookupCaseInsensitive(obj, key)
		if !found || value == nil {
			result.addError(missingRequired(line, joinPath(prefix, f.Name)))
			if result.ReachedMaxErrors(v.options.MaxErrors) {
				return
			}
		}
	}

	for _, kv := range obj {
		if result.ReachedMaxErrors(v.options.MaxErrors) {
			return
		}
		path := joinPath(prefix, kv.Key)
		field, ok := byName[strings.ToLower(kv.Key)]
		if !ok {
			e := unknownField(line, path)
			if v.options.AllowUnknown {
				result.addWarning(e)
			} else {
				result.addError(e)
			}
			continue
		}
		v.validateValue(kv.Value, field, line, path, result)
	}
}

func lookupCaseInsensitive(obj ojson.Object, lowerKey string) (interface{}, bool) {
	for _, kv := range obj {
		if strings.ToLower(kv.Key) == lowerKey {
			return kv.Value, true
		}
	}
	return nil, false
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func (v *Validator) validateValue(value interface{}, field lattice.Field, line int, path string, result *Result) {
	if result.ReachedMaxErrors(v.options.MaxErrors) {
		return
	}
	if value == nil {
		return // REQUIRED-ness already checked above.
	}

	if field.Mode == "REPEATED" {
		arr, ok := value.([]interface{})
		if !ok {
			result.addError(typeMismatch(line, path, "ARRAY", jsonTypeName(value), truncateValue(value)))
			return
		}
		for i, item := range arr {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			v.validateSingleValue(item, field, line, itemPath, result)
			if result.ReachedMaxErrors(v.options.MaxErrors) {
				return
			}
		}
		return
	}

	v.validateSingleValue(value, field, line, path, result)
}

func (v *Validator) validateSingleValue(value interface{}, field lattice.Field, line int, path string, result *Result) {
	if result.ReachedMaxErrors(v.options.MaxErrors) {
		return
	}
	if value == nil {
		return
	}

	switch field.Type {
	case "RECORD":
		obj, ok := value.(ojson.Object)
		if !ok {
			result.addError(typeMismatch(line, path, "RECORD", jsonTypeName(value), truncateValue(value)))
			return
		}
		if field.Fields == nil {
			return
		}
		nestedByName := make(map[string]lattice.Field, len(field.Fields))
		for _, f := range field.Fields {
			nestedByName[strings.ToLower(f.Name)] = f
		}
		v.validateObject(obj, line, path, field.Fields, nestedByName, result)

	case "STRING":
		if !v.isValidString(value) {
			result.addError(typeMismatch(line, path, "STRING", jsonTypeName(value), truncateValue(value)))
		}
	case "INTEGER":
		if !v.isValidInteger(value) {
			result.addError(typeMismatch(line, path, "INTEGER", jsonTypeName(value), truncateValue(value)))
		}
	case "FLOAT":
		if !v.isValidFloat(value) {
			result.addError(typeMismatch(line, path, "FLOAT", jsonTypeName(value), truncateValue(value)))
		}
	case "BOOLEAN":
		if !v.isValidBoolean(value) {
			result.addError(typeMismatch(line, path, "BOOLEAN", jsonTypeName(value), truncateValue(value)))
		}
	case "TIMESTAMP", "DATETIME":
		// DATETIME has no canonical counterpart and folds to TIMESTAMP at
		// parse time; handled here too in case a Field was built directly
		// rather than through internal/existingschema.
		if !v.isValidTimestamp(value) {
			result.addError(typeMismatch(line, path, field.Type, jsonTypeName(value), truncateValue(value)))
		}
	case "DATE":
		if !v.isValidDate(value) {
			result.addError(typeMismatch(line, path, "DATE", jsonTypeName(value), truncateValue(value)))
		}
	case "TIME":
		if !v.isValidTime(value) {
			result.addError(typeMismatch(line, path, "TIME", jsonTypeName(value), truncateValue(value)))
		}
	case "BYTES":
		// BYTES folds to STRING at parse time; handled here too for the
		// same reason.
		if !v.isValidString(value) {
			result.addError(typeMismatch(line, path, field.Type, jsonTypeName(value), truncateValue(value)))
		}
	default:
		// Unrecognized schema type: nothing to check.
	}
}

func (v *Validator) isValidString(value interface{}) bool {
	switch value.(type) {
	case string:
		return true
	case bool:
		return true
	case interface{ String() string }:
		return true
	default:
		return false
	}
}

func (v *Validator) isValidInteger(value interface{}) bool {
	switch t := value.(type) {
	case interface{ String() string }:
		_, err := strconv.ParseInt(t.String(), 10, 64)
		return err == nil
	case string:
		if v.options.StrictTypes {
			return false
		}
		return inference.IsIntegerString(t)
	default:
		return false
	}
}

func (v *Validator) isValidFloat(value interface{}) bool {
	switch t := value.(type) {
	case interface{ String() string }:
		return true
	case string:
		if v.options.StrictTypes {
			return false
		}
		return inference.IsFloatString(t) || inference.IsIntegerString(t)
	default:
		return false
	}
}

func (v *Validator) isValidBoolean(value interface{}) bool {
	switch t := value.(type) {
	case bool:
		return true
	case string:
		if v.options.StrictTypes {
			return false
		}
		return inference.IsBooleanString(t)
	default:
		return false
	}
}

func (v *Validator) isValidTimestamp(value interface{}) bool {
	switch t := value.(type) {
	case string:
		return inference.IsTimestamp(t)
	case interface{ String() string }:
		return !v.options.StrictTypes
	default:
		return false
	}
}

func (v *Validator) isValidDate(value interface{}) bool {
	s, ok := value.(string)
	return ok && inference.IsDate(s)
}

func (v *Validator) isValidTime(value interface{}) bool {
	s, ok := value.(string)
	return ok && inference.IsTime(s)
}

func jsonTypeName(value interface{}) string {
	switch value.(type) {
	case nil:
		return "NULL"
	case bool:
		return "BOOLEAN"
	case interface{ String() string }:
		return "NUMBER"
	case string:
		return "STRING"
	case []interface{}:
		return "ARRAY"
	case ojson.Object:
		return "RECORD"
	default:
		return "UNKNOWN"
	}
}

func truncateValue(value interface{}) string {
	var s string
	if str, ok := value.(string); ok {
		s = str
	} else {
		s = fmt.Sprintf("%v", value)
	}
	if len(s) > 50 {
		return s[:47] + "..."
	}
	return s
}
