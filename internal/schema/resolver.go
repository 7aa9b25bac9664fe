package schema

import (
	"fmt"
	"strings"

	"github.com/servicepack/restock-backend/internal/domain"
)

// Table is a raw tabular input: an ordered header row plus data rows.
// Rows may be ragged; missing trailing cells read as empty.
type Table struct {
	Header []string
	Rows   [][]string
}

// Field describes one logical column of a target schema.
type Field struct {
	Name string

	// Aliases is the ordered list of header labels that bind this field,
	// compared case-insensitively with whitespace collapsed.
	Aliases []string

	// Position is the fixed column index used when no alias matches and the
	// table is wide enough for the known layout. -1 disables the fallback.
	Position int

	// Required fields abort resolution when they cannot be bound at all.
	Required bool
}

// Spec is the full target schema for one import format.
type Spec struct {
	Fields []Field

	// MinPositionalCols is the column count the fixed layout assumes. The
	// positional fallback only engages on headers at least this wide.
	MinPositionalCols int
}

// Resolved maps logical field names onto column indexes of one Table.
type Resolved struct {
	columns map[string]int

	// UsedPositional is set when at least one field was bound by fixed
	// position rather than by alias. Callers surface this for auditing.
	UsedPositional bool
}

// Has reports whether the field was bound to any column.
func (r *Resolved) Has(field string) bool {
	_, ok := r.columns[field]
	return ok
}

// Column returns the header index the field was bound to.
func (r *Resolved) Column(field string) (int, bool) {
	idx, ok := r.columns[field]
	return idx, ok
}

// Get returns the cell bound to field in row, or "" when the field is
// unbound or the row is too short. Absent optional fields are never errors.
func (r *Resolved) Get(row []string, field string) string {
	idx, ok := r.columns[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

var labelSanitizer = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ")

// normalizeLabel prepares a header label for alias comparison.
func normalizeLabel(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(labelSanitizer.Replace(s))), " ")
}

// isBlankLabel matches artifacts of merged header cells ("", "Unnamed: 3",
// "Column1" style placeholders are kept; only unnamed/blank are dropped).
func isBlankLabel(norm string) bool {
	return norm == "" || strings.HasPrefix(norm, "unnamed")
}

// Resolve binds the spec's logical fields onto the header of t.
// Unmatched optional fields stay unbound; unmatched required fields are an
// error. Blank and "Unnamed" columns are dropped before alias matching.
func Resolve(t *Table, spec Spec) (*Resolved, error) {
	norm := make([]string, len(t.Header))
	for i, label := range t.Header {
		norm[i] = normalizeLabel(label)
	}

	res := &Resolved{columns: make(map[string]int, len(spec.Fields))}

	for _, f := range spec.Fields {
		idx := -1
		for _, alias := range f.Aliases {
			want := normalizeLabel(alias)
			for i, label := range norm {
				if isBlankLabel(label) {
					continue
				}
				if label == want {
					idx = i
					break
				}
			}
			if idx >= 0 {
				break
			}
		}

		if idx < 0 && f.Position >= 0 && len(t.Header) >= spec.MinPositionalCols {
			idx = f.Position
			res.UsedPositional = true
		}

		if idx < 0 {
			if f.Required {
				return nil, fmt.Errorf("field %q: %w", f.Name, domain.ErrNoCodeColumn)
			}
			continue
		}
		res.columns[f.Name] = idx
	}

	return res, nil
}

func countNonBlank(row []string) int {
	n := 0
	for _, cell := range row {
		if !isBlankLabel(normalizeLabel(cell)) {
			n++
		}
	}
	return n
}

// ResolveWithHeaderDetection handles exports that place the real header on
// either the first or the second physical row. The first row is tried as the
// header; when its required fields only resolve structurally (or not at
// all), the second row layout is tried before giving up. Machine-generated
// exports commonly carry a title row above the actual header.
func ResolveWithHeaderDetection(rows [][]string, spec Spec) (*Table, *Resolved, error) {
	if len(rows) == 0 {
		return nil, nil, domain.ErrEmptyTable
	}

	candidates := []int{0}
	if len(rows) > 1 {
		candidates = append(candidates, 1)
	}

	var structural *Table
	var structuralRes *Resolved

	for _, headerRow := range candidates {
		t := &Table{Header: rows[headerRow], Rows: rows[headerRow+1:]}
		res, err := Resolve(t, spec)
		if err != nil {
			continue
		}
		if !res.UsedPositional {
			return t, res, nil
		}
		// Keep the first structurally-valid candidate in case no alias
		// match exists on either row.
		if structural == nil {
			structural = t
			structuralRes = res
		}
	}

	if structural != nil {
		// For purely positional resolution, prefer the second-row layout
		// when the first row looks like a title row: a title is a single
		// merged cell, far narrower than the fixed layout.
		if len(candidates) > 1 && countNonBlank(rows[0]) < spec.MinPositionalCols {
			t := &Table{Header: rows[1], Rows: rows[2:]}
			if res, err := Resolve(t, spec); err == nil {
				return t, res, nil
			}
		}
		return structural, structuralRes, nil
	}

	return nil, nil, fmt.Errorf("header detection failed: %w", domain.ErrNoCodeColumn)
}
