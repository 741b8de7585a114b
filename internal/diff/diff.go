// Package diff compares two canonical BigQuery schemas and classifies
// each change as breaking or non-breaking, following the same widening
// rules `bq load --schema_update_options` tolerates.
package diff

import (
	"strings"

	"github.com/kestrel-labs/bqschema/internal/fingerprint"
	"github.com/kestrel-labs/bqschema/internal/lattice"
)

// ChangeType classifies a single field-level change.
type ChangeType string

const (
	Added    ChangeType = "added"
	Removed  ChangeType = "removed"
	Modified ChangeType = "modified"
)

// FieldSnapshot is a name/type/mode capture of a field at one side of a
// diff, kept on the Change so a formatter can render "X changed from Y to
// Z" without re-walking either schema.
type FieldSnapshot struct {
	Name string
	Type string
	Mode string
}

func snapshot(f lattice.Field) FieldSnapshot {
	return FieldSnapshot{Name: f.Name, Type: f.Type, Mode: f.Mode}
}

// Change is a single detected difference between two schemas.
type Change struct {
	Path        string
	ChangeType  ChangeType
	Breaking    bool
	Description string
	OldField    *FieldSnapshot
	NewField    *FieldSnapshot
}

// Summary tallies the changes found by Compare.
type Summary struct {
	Added    int
	Removed  int
	Modified int
	Breaking int
}

// Result is the outcome of comparing two schemas.
type Result struct {
	Summary Summary
	Changes []Change
}

// HasChanges reports whether any field differs.
func (r Result) HasChanges() bool { return len(r.Changes) > 0 }

// HasBreakingChanges reports whether any change is breaking.
func (r Result) HasBreakingChanges() bool { return r.Summary.Breaking > 0 }

// BreakingChanges returns only the breaking changes.
func (r Result) BreakingChanges() []Change {
	var out []Change
	for _, c := range r.Changes {
		if c.Breaking {
			out = append(out, c)
		}
	}
	return out
}

// Options controls comparison strictness.
type Options struct {
	// Strict flags every change, including safe widenings, as breaking.
	Strict bool
}

// Compare returns the differences between old and new. As a pure
// optimization, when both schemas fingerprint identically Compare returns
// an empty Result without walking either tree — the walk would find
// nothing regardless, since the fingerprint is computed over the same
// canonical field set the walk inspects.
func Compare(old, new_ []lattice.Field, opts Options) Result {
	if fingerprint.Schema(old) == fingerprint.Schema(new_) {
		return Result{}
	}

	var changes []Change
	diffFields(old, new_, "", &changes, opts)

	summary := Summary{}
	for _, c := range changes {
		switch c.ChangeType {
		case Added:
			summary.Added++
		case Removed:
			summary.Removed++
		case Modified:
			summary.Modified++
		}
		if c.Breaking {
			summary.Breaking++
		}
	}

	return Result{Summary: summary, Changes: changes}
}

func fieldPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func diffFields(oldFields, newFields []lattice.Field, prefix string, changes *[]Change, opts Options) {
	oldByKey := make(map[string]lattice.Field, len(oldFields))
	for _, f := range oldFields {
		oldByKey[strings.ToLower(f.Name)] = f
	}
	newByKey := make(map[string]lattice.Field, len(newFields))
	for _, f := range newFields {
		newByKey[strings.ToLower(f.Name)] = f
	}

	for _, oldField := range oldFields {
		key := strings.ToLower(oldField.Name)
		if _, ok := newByKey[key]; ok {
			continue
		}
		old := snapshot(oldField)
		*changes = append(*changes, Change{
			Path:        fieldPath(prefix, oldField.Name),
			ChangeType:  Removed,
			Breaking:    true,
			Description: "field removed: " + oldField.Name + " (" + oldField.Type + ", " + oldField.Mode + ")",
			OldField:    &old,
		})
	}

	for _, newField := range newFields {
		key := strings.ToLower(newField.Name)
		path := fieldPath(prefix, newField.Name)
		oldField, ok := oldByKey[key]
		if !ok {
			nf := snapshot(newField)
			*changes = append(*changes, Change{
				Path:        path,
				ChangeType:  Added,
				Breaking:    opts.Strict || newField.Mode == "REQUIRED",
				Description: "field added: " + newField.Name + " (" + newField.Type + ", " + newField.Mode + ")",
				NewField:    &nf,
			})
			continue
		}
		compareFields(oldField, newField, path, changes, opts)
	}
}

func compareFields(oldField, newField lattice.Field, path string, changes *[]Change, opts Options) {
	if oldField.Type != newField.Type {
		old, nf := snapshot(oldField), snapshot(newField)
		*changes = append(*changes, Change{
			Path:        path,
			ChangeType:  Modified,
			Breaking:    isTypeChangeBreaking(oldField.Type, newField.Type, opts),
			Description: "type changed: " + oldField.Type + " -> " + newField.Type,
			OldField:    &old,
			NewField:    &nf,
		})
	}

	if oldField.Mode != newField.Mode {
		old, nf := snapshot(oldField), snapshot(newField)
		*changes = append(*changes, Change{
			Path:        path,
			ChangeType:  Modified,
			Breaking:    isModeChangeBreaking(oldField.Mode, newField.Mode, opts),
			Description: "mode changed: " + oldField.Mode + " -> " + newField.Mode,
			OldField:    &old,
			NewField:    &nf,
		})
	}

	if oldField.Type == "RECORD" && newField.Type == "RECORD" {
		diffFields(oldField.Fields, newField.Fields, path, changes, opts)
	}
}

func isTypeChangeBreaking(oldType, newType string, opts Options) bool {
	if opts.Strict {
		return true
	}
	// INTEGER -> FLOAT is a safe widening; any type -> STRING is safe
	// since STRING can represent every other type's textual form.
	if oldType == "INTEGER" && newType == "FLOAT" {
		return false
	}
	if newType == "STRING" {
		return false
	}
	return true
}

func isModeChangeBreaking(oldMode, newMode string, opts Options) bool {
	if opts.Strict {
		return true
	}
	// REQUIRED -> NULLABLE only relaxes a constraint; every other
	// transition either tightens one (NULLABLE -> REQUIRED) or changes
	// cardinality (anything involving REPEATED).
	if oldMode == "REQUIRED" && newMode == "NULLABLE" {
		return false
	}
	return true
}
