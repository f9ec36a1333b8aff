package snippet

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/metagen/schema"
)

// fakerRef is the receiver the generated factory calls Faker through. It is
// substituted for %[1]s in the expressions below.
const fakerRef = "$this->faker->"

// FactoryValue returns the PHP expression producing a random value for
// column in a model factory. The first applicable source wins: an explicit
// "faker" metadata directive, a name column, an email or csv_string subtype,
// a foreign key, then the base type. Unique columns draw through unique().
func (l *Library) FactoryValue(table, column string) (string, error) {
	expr, err := l.factoryExpr(table, column)
	if err != nil {
		return "", err
	}
	unique, err := l.store.IsUnique(table, column)
	if err != nil {
		return "", err
	}
	ref := fakerRef
	if unique {
		ref += "unique()->"
	}
	return fmt.Sprintf(expr, ref), nil
}

func (l *Library) factoryExpr(table, column string) (string, error) {
	directive, ok, err := l.store.MetaValue(table, column, "faker")
	if err != nil {
		return "", err
	}
	if ok && directive != "" {
		if !strings.Contains(directive, "(") {
			directive += "()"
		}
		return "%[1]s" + escapeVerbs(directive), nil
	}

	if strings.Contains(column, "name") {
		return "%[1]sname()", nil
	}

	st, err := l.subtype(table, column)
	if err != nil {
		return "", err
	}
	switch st {
	case schema.SubtypeEmail:
		return "%[1]ssafeEmail()", nil
	case schema.SubtypeCSVString:
		return `"'" . implode("','", %[1]swords(3)) . "'"`, nil
	}

	fk, ok, err := l.store.ForeignKey(table, column)
	if err != nil {
		return "", err
	}
	if ok {
		return fmt.Sprintf("%%[1]srandomElement(%s::pluck('%s')->all())", Class(fk.Table), fk.Column), nil
	}

	return l.structuralFactoryExpr(table, column)
}

func (l *Library) structuralFactoryExpr(table, column string) (string, error) {
	raw, err := l.store.RawType(table, column)
	if err != nil {
		return "", err
	}
	base, err := l.store.BaseType(table, column)
	if err != nil {
		return "", err
	}
	size, err := l.store.Size(table, column)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(base) {
	case "varchar", "char":
		if size > 0 && size < 5 {
			return fmt.Sprintf("%%[1]slexify('%s')", strings.Repeat("?", size)), nil
		}
		if size == 0 {
			size = 255
		}
		return fmt.Sprintf("%%[1]stext(%d)", size), nil
	case "tinyint", "bool", "boolean":
		return "%[1]sboolean()", nil
	case "int", "integer", "smallint", "mediumint", "bigint":
		if strings.Contains(raw, "unsigned") {
			return "%[1]snumberBetween(0, 1000)", nil
		}
		return "%[1]snumberBetween(-1000, 1000)", nil
	case "decimal", "numeric", "float", "double":
		return "%[1]srandomFloat(2, 0, 1000)", nil
	case "enum":
		values, err := l.store.EnumValues(table, column)
		if err != nil {
			return "", err
		}
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = "'" + strings.ReplaceAll(v, "'", `\'`) + "'"
		}
		return "%[1]srandomElement([" + escapeVerbs(strings.Join(quoted, ", ")) + "])", nil
	case "date":
		return "%[1]sdate()", nil
	case "time":
		return "%[1]stime()", nil
	case "datetime", "timestamp":
		return "%[1]sdateTime()", nil
	case "text", "tinytext", "mediumtext", "longtext":
		return "%[1]sparagraph()", nil
	}
	return "%[1]sword()", nil
}

// escapeVerbs protects literal percent signs from fmt.
func escapeVerbs(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}

func factoryFieldList(l *Library, fc Context, _ []string) (string, error) {
	columns, err := l.FillableColumns(fc.Table)
	if err != nil {
		return "", err
	}
	entries := make([]string, 0, len(columns))
	err = l.eachColumn(fc.Table, columns, func(c string) error {
		v, err := l.FactoryValue(fc.Table, c)
		if err != nil {
			return err
		}
		entries = append(entries, fmt.Sprintf("'%s' => %s,", c, v))
		return nil
	})
	if err != nil {
		return "", err
	}
	return joinLines(entries, fc.Indent), nil
}

// factoryReferencedModels imports the models a factory draws foreign keys
// from, once each.
func factoryReferencedModels(l *Library, fc Context, _ []string) (string, error) {
	columns, err := l.FillableColumns(fc.Table)
	if err != nil {
		return "", err
	}
	seen := map[string]bool{}
	var uses []string
	for _, c := range columns {
		fk, ok, err := l.store.ForeignKey(fc.Table, c)
		if err != nil {
			return "", err
		}
		if !ok || seen[fk.Table] {
			continue
		}
		seen[fk.Table] = true
		uses = append(uses, fmt.Sprintf(`use App\Models\%s;`, Class(fk.Table)))
	}
	return joinLines(uses, fc.Indent), nil
}
