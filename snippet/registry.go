// Package snippet holds the named text generators a template can call. Each
// snippet reads the schema store and returns a fragment of generated source.
package snippet

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ridoystarlord/metagen/schema"
)

// ErrUnknownSnippet is returned by Call for a name outside the registry.
var ErrUnknownSnippet = errors.New("unknown snippet")

// Context is the formatting context a snippet renders into.
type Context struct {
	// Table is the table being generated.
	Table string
	// Indent prefixes every emitted line after the first, so multi-line
	// fragments line up with the marker that produced them.
	Indent string
}

// Func renders a snippet.
type Func func(lib *Library, fc Context, args []string) (string, error)

// Library binds the snippets to a loaded schema store.
type Library struct {
	store *schema.Store
	warn  func(*FieldError)
}

// New returns a library reading s.
func New(s *schema.Store) *Library {
	return &Library{store: s}
}

// WithWarnings returns a copy of l reporting columns whose metadata cannot
// be parsed to fn. Those columns are still generated, from their name and
// type only.
func (l *Library) WithWarnings(fn func(*FieldError)) *Library {
	cp := *l
	cp.warn = fn
	return &cp
}

// Store returns the underlying schema store.
func (l *Library) Store() *schema.Store {
	return l.store
}

// registry is the closed set of snippets reachable from templates.
var registry = map[string]Func{
	"cg_class":       func(l *Library, fc Context, _ []string) (string, error) { return l.tableName(fc, Class) },
	"cg_element":     func(l *Library, fc Context, _ []string) (string, error) { return l.tableName(fc, Element) },
	"cg_table":       func(l *Library, fc Context, _ []string) (string, error) { return l.tableName(fc, func(t string) string { return t }) },
	"cg_url":         func(l *Library, fc Context, _ []string) (string, error) { return l.tableName(fc, URL) },
	"cg_primary_key": cgPrimaryKey,
	"cg_subtype":     cgSubtype,

	"csv_fields":              csvFields,
	"fillable_list":           fillableList,
	"guarded":                 guardedList,
	"create_validation_rules": validationRules(true),
	"update_validation_rules": validationRules(false),
	"create_set_attributes":   createSetAttributes,
	"update_set_attributes":   updateSetAttributes,
	"primary_key_declaration": primaryKeyDeclaration,

	"factory_referenced_models": factoryReferencedModels,
	"factory_field_list":        factoryFieldList,

	"csv_high_variability_fields": csvHighVariabilityFields,
	"field_list_translation":      fieldListTranslation,
	"field_list_cells":            fieldListCells,
	"field_list_titles":           fieldListTitles,
	"field_list_input_form":       fieldListInputForm,
	"initial_form_values":         initialFormValues,
	"join_for_images":             joinForImages,
}

// Names returns the registered snippet names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the snippet registered under name.
func Lookup(name string) (Func, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Call runs the snippet name for fc. A numeric first argument is a tab count
// and replaces fc.Indent.
func (l *Library) Call(name string, fc Context, args []string) (string, error) {
	fn, ok := registry[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSnippet, name)
	}
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n >= 0 {
			fc.Indent = strings.Repeat("\t", n)
			args = args[1:]
		}
	}
	if !l.store.TableExists(fc.Table) {
		return "", &schema.NotFoundError{Table: fc.Table}
	}
	return fn(l, fc, args)
}

func (l *Library) tableName(fc Context, name func(string) string) (string, error) {
	return name(fc.Table), nil
}

func cgPrimaryKey(l *Library, fc Context, _ []string) (string, error) {
	pk, _, err := l.store.PrimaryKey(fc.Table)
	return pk, err
}

func cgSubtype(l *Library, fc Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("cg_subtype needs a column argument")
	}
	st, err := l.subtype(fc.Table, args[0])
	if err != nil {
		return "", err
	}
	return st.String(), nil
}

// subtype is Store.Subtype, except that malformed metadata is reported as a
// warning and the column is classified without it.
func (l *Library) subtype(table, column string) (schema.Subtype, error) {
	st, err := l.store.Subtype(table, column)
	if !errors.Is(err, schema.ErrMalformedMetadata) {
		return st, err
	}
	if l.warn != nil {
		l.warn(&FieldError{Table: table, Column: column, Err: err})
	}
	return l.store.FallbackSubtype(table, column)
}

// FieldError reports a snippet failure on one column.
type FieldError struct {
	Table  string
	Column string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Table, e.Column, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// eachColumn calls fn for every column of table, wrapping failures with the
// column they occurred on.
func (l *Library) eachColumn(table string, columns []string, fn func(column string) error) error {
	for _, c := range columns {
		if err := fn(c); err != nil {
			var fe *FieldError
			if errors.As(err, &fe) {
				return err
			}
			return &FieldError{Table: table, Column: c, Err: err}
		}
	}
	return nil
}

// joinLines joins entries with a newline followed by indent, without a
// trailing newline.
func joinLines(entries []string, indent string) string {
	return strings.Join(entries, "\n"+indent)
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = `"` + n + `"`
	}
	return strings.Join(quoted, ", ")
}
