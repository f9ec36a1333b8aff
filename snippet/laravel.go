package snippet

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/metagen/schema"
)

// Validation patterns for comma separated list columns.
const (
	csvIntRule    = `regex:(\d+),?`
	csvStringRule = `regex:/\'(.+?)\'|\"(.+?)\"/`
)

// FillableColumns returns the mass assignable columns of table in
// declaration order.
func (l *Library) FillableColumns(table string) ([]string, error) {
	return l.filterColumns(table, l.store.IsFillable)
}

// GuardedColumns returns the columns of table that are not fillable.
func (l *Library) GuardedColumns(table string) ([]string, error) {
	return l.filterColumns(table, l.store.IsGuarded)
}

func (l *Library) filterColumns(table string, keep func(table, column string) (bool, error)) ([]string, error) {
	columns, err := l.store.ColumnList(table)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, c := range columns {
		ok, err := keep(table, c)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// ValidationRule returns the Laravel validation entry of one column, e.g.
//
//	"email" => 'required|string|max:191|email',
//
// Columns holding comma separated lists need a regex rule, which cannot be
// pipe joined, so their rules are written as an array.
func (l *Library) ValidationRule(table, column string, create bool) (string, error) {
	nullable, err := l.store.IsNullable(table, column)
	if err != nil {
		return "", err
	}
	base, err := l.store.BaseType(table, column)
	if err != nil {
		return "", err
	}
	st, err := l.subtype(table, column)
	if err != nil {
		return "", err
	}

	var rules []string
	listForm := false
	if !nullable && create {
		rules = append(rules, "required")
	}
	if base == "varchar" {
		size, err := l.store.Size(table, column)
		if err != nil {
			return "", err
		}
		rules = append(rules, "string", fmt.Sprintf("max:%d", size))
	}
	if st == schema.SubtypeEmail {
		rules = append(rules, "email")
	}
	if st == schema.SubtypeBoolean || base == "boolean" {
		rules = append(rules, "boolean")
	}
	if st == schema.SubtypeDate {
		rules = append(rules, "date")
	}
	if st == schema.SubtypeTime {
		rules = append(rules, "time")
	}
	if st == schema.SubtypeCSVInt {
		listForm = true
		rules = append(rules, csvIntRule)
	}
	if st == schema.SubtypeCSVString {
		listForm = true
		rules = append(rules, csvStringRule)
	}
	if base == "enum" {
		values, err := l.store.EnumValues(table, column)
		if err != nil {
			return "", err
		}
		rules = append(rules, "in:"+strings.Join(values, ","))
	}
	fk, ok, err := l.store.ForeignKey(table, column)
	if err != nil {
		return "", err
	}
	if ok {
		rules = append(rules, "exists:"+fk.Table+","+fk.Column)
	}

	if listForm {
		return fmt.Sprintf("%q => [%s],", column, quoteList(rules)), nil
	}
	return fmt.Sprintf("%q => '%s',", column, strings.Join(rules, "|")), nil
}

// ValidationRuleSet returns the rules of every fillable column, one per line.
// indent is written before every entry but the first.
func (l *Library) ValidationRuleSet(table string, create bool, indent string) (string, error) {
	columns, err := l.FillableColumns(table)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	err = l.eachColumn(table, columns, func(c string) error {
		rule, err := l.ValidationRule(table, c, create)
		if err != nil {
			return err
		}
		if b.Len() > 0 {
			b.WriteString(indent)
		}
		b.WriteString(rule)
		b.WriteString("\n")
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func validationRules(create bool) Func {
	return func(l *Library, fc Context, _ []string) (string, error) {
		return l.ValidationRuleSet(fc.Table, create, fc.Indent)
	}
}

func csvFields(l *Library, fc Context, _ []string) (string, error) {
	columns, err := l.store.ColumnList(fc.Table)
	if err != nil {
		return "", err
	}
	return quoteList(columns), nil
}

func fillableList(l *Library, fc Context, _ []string) (string, error) {
	columns, err := l.FillableColumns(fc.Table)
	if err != nil {
		return "", err
	}
	return quoteList(columns), nil
}

func guardedList(l *Library, fc Context, _ []string) (string, error) {
	columns, err := l.GuardedColumns(fc.Table)
	if err != nil {
		return "", err
	}
	return quoteList(columns), nil
}

func createSetAttributes(l *Library, fc Context, _ []string) (string, error) {
	columns, err := l.FillableColumns(fc.Table)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i, c := range columns {
		if i > 0 {
			b.WriteString(fc.Indent)
		}
		fmt.Fprintf(&b, "$element->%s = $request->%s;\n", c, c)
	}
	return b.String(), nil
}

func updateSetAttributes(l *Library, fc Context, _ []string) (string, error) {
	columns, err := l.FillableColumns(fc.Table)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i, c := range columns {
		if i > 0 {
			b.WriteString(fc.Indent)
		}
		fmt.Fprintf(&b, "if ($request->%s) {\n", c)
		fmt.Fprintf(&b, "%s\t$element->%s = $request->%s;\n", fc.Indent, c, c)
		fmt.Fprintf(&b, "%s}\n", fc.Indent)
	}
	return b.String(), nil
}

// primaryKeyDeclaration overrides the model key when it is not "id".
func primaryKeyDeclaration(l *Library, fc Context, _ []string) (string, error) {
	pk, ok, err := l.store.PrimaryKey(fc.Table)
	if err != nil || !ok || pk == "id" {
		return "", err
	}
	decl := fmt.Sprintf("protected $primaryKey = '%s';", pk)
	base, err := l.store.BaseType(fc.Table, pk)
	if err != nil {
		return "", err
	}
	switch base {
	case "varchar", "char":
		decl += "\n" + fc.Indent + "protected $keyType = 'string';"
	}
	return decl, nil
}
