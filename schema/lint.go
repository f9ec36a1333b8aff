package schema

import (
	"fmt"
	"strings"
)

// Finding is one lint result for the loaded schema.
type Finding struct {
	Type     string `json:"type"`
	Table    string `json:"table,omitempty"`
	Column   string `json:"column,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // "error", "warning", "info"
}

// LintResult groups findings by severity.
type LintResult struct {
	Valid    bool      `json:"valid"`
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
	Info     []Finding `json:"info"`
}

var boolWords = map[string]bool{"true": true, "false": true, "yes": true, "no": true, "1": true, "0": true}

// Lint checks the metadata of every column for problems that would make
// generated code differ from what the metadata author intended.
func Lint(s *Store) *LintResult {
	result := &LintResult{
		Valid:    true,
		Errors:   []Finding{},
		Warnings: []Finding{},
		Info:     []Finding{},
	}

	known := make(map[Subtype]bool, len(KnownSubtypes))
	for _, st := range KnownSubtypes {
		known[st] = true
	}

	for _, t := range s.tables {
		if _, ok, _ := s.PrimaryKey(t.Name); !ok {
			result.add(Finding{Type: "primary_key", Table: t.Name, Message: "table has no primary key", Severity: "info"})
		}

		for _, c := range t.Columns {
			key := columnKey{t.Name, c.Name}
			if merr := s.metaErr[key]; merr != nil {
				result.add(Finding{Type: "metadata", Table: t.Name, Column: c.Name, Message: merr.Error(), Severity: "error"})
			}

			m := s.meta[key]
			for _, flag := range []string{"fillable", "guarded"} {
				if v, ok := m[flag]; ok && !boolWords[strings.ToLower(strings.TrimSpace(v))] {
					result.add(Finding{
						Type:     "metadata",
						Table:    t.Name,
						Column:   c.Name,
						Message:  fmt.Sprintf("%s value %q is not a boolean, it reads as false", flag, v),
						Severity: "warning",
					})
				}
			}
			_, hasFillable := m["fillable"]
			if _, hasGuarded := m["guarded"]; hasFillable && hasGuarded {
				result.add(Finding{Type: "metadata", Table: t.Name, Column: c.Name, Message: "fillable overrides guarded", Severity: "info"})
			}
			if v, ok := m["subtype"]; ok && !known[Subtype(v)] {
				result.add(Finding{
					Type:     "subtype",
					Table:    t.Name,
					Column:   c.Name,
					Message:  fmt.Sprintf("unknown subtype %q", v),
					Severity: "warning",
				})
			}

			if fk := c.ForeignKey; fk != nil {
				switch {
				case !s.TableExists(fk.Table):
					result.add(Finding{
						Type:     "foreign_key",
						Table:    t.Name,
						Column:   c.Name,
						Message:  fmt.Sprintf("references table %q which was not loaded", fk.Table),
						Severity: "warning",
					})
				case !s.ColumnExists(fk.Table, fk.Column):
					result.add(Finding{
						Type:     "foreign_key",
						Table:    t.Name,
						Column:   c.Name,
						Message:  fmt.Sprintf("references unknown column %s.%s", fk.Table, fk.Column),
						Severity: "warning",
					})
				}
			}
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func (r *LintResult) add(f Finding) {
	switch f.Severity {
	case "error":
		r.Errors = append(r.Errors, f)
	case "warning":
		r.Warnings = append(r.Warnings, f)
	default:
		r.Info = append(r.Info, f)
	}
}
