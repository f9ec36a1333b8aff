package snippet

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/metagen/schema"
)

// formRowSize is the number of inputs per form row.
const formRowSize = 4

// WidgetKind returns the form input used for a subtype.
func WidgetKind(st schema.Subtype) string {
	switch st {
	case schema.SubtypeEmail:
		return "email"
	case schema.SubtypePassword:
		return "password"
	case schema.SubtypeURL:
		return "url"
	case schema.SubtypePhone:
		return "tel"
	case schema.SubtypeInteger, schema.SubtypeFloat, schema.SubtypeCurrency, schema.SubtypeYear:
		return "number"
	case schema.SubtypeDate:
		return "date"
	case schema.SubtypeDatetime, schema.SubtypeTimestamp:
		return "datetime-local"
	case schema.SubtypeTime:
		return "time"
	case schema.SubtypeColor:
		return "color"
	case schema.SubtypeImage, schema.SubtypeFile:
		return "file"
	case schema.SubtypeBoolean:
		return "checkbox"
	case schema.SubtypeEnum:
		return "select"
	case schema.SubtypeForeignKey:
		return "reference"
	case schema.SubtypeText:
		return "textarea"
	}
	return "text"
}

func translationKey(table, column string) string {
	return table + "." + column
}

func fieldListTranslation(l *Library, fc Context, _ []string) (string, error) {
	columns, err := l.store.ColumnList(fc.Table)
	if err != nil {
		return "", err
	}
	var entries []string
	err = l.eachColumn(fc.Table, columns, func(c string) error {
		entries = append(entries, fmt.Sprintf("%q: %q,", c, Label(c)))
		base, err := l.store.BaseType(fc.Table, c)
		if err != nil || base != "enum" {
			return err
		}
		values, err := l.store.EnumValues(fc.Table, c)
		if err != nil {
			return err
		}
		for _, v := range values {
			entries = append(entries, fmt.Sprintf("%q: %q,", c+"_"+v, Label(v)))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return joinLines(entries, fc.Indent), nil
}

func fieldListTitles(l *Library, fc Context, _ []string) (string, error) {
	columns, err := l.FillableColumns(fc.Table)
	if err != nil {
		return "", err
	}
	entries := make([]string, len(columns))
	for i, c := range columns {
		entries[i] = fmt.Sprintf("<th>{t('%s')}</th>", translationKey(fc.Table, c))
	}
	return joinLines(entries, fc.Indent), nil
}

func fieldListCells(l *Library, fc Context, _ []string) (string, error) {
	columns, err := l.FillableColumns(fc.Table)
	if err != nil {
		return "", err
	}
	element := Element(fc.Table)
	entries := make([]string, 0, len(columns))
	err = l.eachColumn(fc.Table, columns, func(c string) error {
		st, err := l.subtype(fc.Table, c)
		if err != nil {
			return err
		}
		value := element + "." + c
		var cell string
		switch st {
		case schema.SubtypeBoolean:
			cell = fmt.Sprintf("<td>{%s ? t('yes') : t('no')}</td>", value)
		case schema.SubtypeEnum:
			cell = fmt.Sprintf("<td>{t('%s_' + %s)}</td>", translationKey(fc.Table, c), value)
		case schema.SubtypeImage:
			cell = fmt.Sprintf("<td><img src={%s} alt={t('%s')} /></td>", value, translationKey(fc.Table, c))
		case schema.SubtypePassword:
			cell = "<td>********</td>"
		default:
			cell = fmt.Sprintf("<td>{%s}</td>", value)
		}
		entries = append(entries, cell)
		return nil
	})
	if err != nil {
		return "", err
	}
	return joinLines(entries, fc.Indent), nil
}

// InputWidget returns the form element editing column.
func (l *Library) InputWidget(table, column string) (string, error) {
	st, err := l.subtype(table, column)
	if err != nil {
		return "", err
	}
	key := translationKey(table, column)
	label := fmt.Sprintf("label={t('%s')}", key)

	switch kind := WidgetKind(st); kind {
	case "select":
		values, err := l.store.EnumValues(table, column)
		if err != nil {
			return "", err
		}
		options := make([]string, len(values))
		for i, v := range values {
			options[i] = fmt.Sprintf("{ value: '%s', label: t('%s_%s') }", v, key, v)
		}
		return fmt.Sprintf("<Select name=%q %s options={[%s]} />", column, label, strings.Join(options, ", ")), nil
	case "reference":
		fk, _, err := l.store.ForeignKey(table, column)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("<ReferenceSelect name=%q %s resource=%q optionValue=%q />", column, label, URL(fk.Table), fk.Column), nil
	case "checkbox":
		return fmt.Sprintf("<Checkbox name=%q %s />", column, label), nil
	case "textarea":
		return fmt.Sprintf("<TextArea name=%q %s />", column, label), nil
	default:
		return fmt.Sprintf("<Input type=%q name=%q %s />", kind, column, label), nil
	}
}

func fieldListInputForm(l *Library, fc Context, _ []string) (string, error) {
	columns, err := l.FillableColumns(fc.Table)
	if err != nil {
		return "", err
	}
	var lines []string
	err = l.eachColumn(fc.Table, columns, func(c string) error {
		widget, err := l.InputWidget(fc.Table, c)
		if err != nil {
			return err
		}
		lines = append(lines, "\t"+widget)
		return nil
	})
	if err != nil {
		return "", err
	}

	var rows []string
	for start := 0; start < len(lines); start += formRowSize {
		end := min(start+formRowSize, len(lines))
		rows = append(rows, `<div className="row">`)
		rows = append(rows, lines[start:end]...)
		rows = append(rows, "</div>")
	}
	return joinLines(rows, fc.Indent), nil
}

// InitialFormValue returns the JavaScript literal a new record's form starts
// with: the column default when there is one, else an empty value.
func (l *Library) InitialFormValue(table, column string) (string, error) {
	st, err := l.subtype(table, column)
	if err != nil {
		return "", err
	}
	def, ok, err := l.store.DefaultValue(table, column)
	if err != nil {
		return "", err
	}

	switch st {
	case schema.SubtypeBoolean:
		if ok {
			return fmt.Sprint(schema.ParseBool(def)), nil
		}
		return "false", nil
	case schema.SubtypeInteger, schema.SubtypeFloat, schema.SubtypeCurrency:
		if ok && def != "" {
			return def, nil
		}
		return "''", nil
	}
	if ok {
		return "'" + strings.ReplaceAll(def, "'", `\'`) + "'", nil
	}
	return "''", nil
}

func initialFormValues(l *Library, fc Context, _ []string) (string, error) {
	columns, err := l.FillableColumns(fc.Table)
	if err != nil {
		return "", err
	}
	entries := make([]string, 0, len(columns))
	err = l.eachColumn(fc.Table, columns, func(c string) error {
		v, err := l.InitialFormValue(fc.Table, c)
		if err != nil {
			return err
		}
		entries = append(entries, fmt.Sprintf("%s: %s,", c, v))
		return nil
	})
	if err != nil {
		return "", err
	}
	return joinLines(entries, fc.Indent), nil
}

// csvHighVariabilityFields lists the columns whose value changes on every
// insert, which exports compare while ignoring.
func csvHighVariabilityFields(l *Library, fc Context, _ []string) (string, error) {
	columns, err := l.store.ColumnList(fc.Table)
	if err != nil {
		return "", err
	}
	var out []string
	err = l.eachColumn(fc.Table, columns, func(c string) error {
		unique, err := l.store.IsUnique(fc.Table, c)
		if err != nil {
			return err
		}
		extra, err := l.store.ExtraFlag(fc.Table, c)
		if err != nil {
			return err
		}
		base, err := l.store.BaseType(fc.Table, c)
		if err != nil {
			return err
		}
		switch {
		case unique, strings.Contains(extra, "auto_increment"),
			base == "timestamp", base == "datetime",
			c == "created_at", c == "updated_at":
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return quoteList(out), nil
}

// joinForImages joins the tables referenced by foreign keys that carry image
// columns, selecting each image under the prefix of the foreign key.
func joinForImages(l *Library, fc Context, _ []string) (string, error) {
	columns, err := l.store.ColumnList(fc.Table)
	if err != nil {
		return "", err
	}
	var lines []string
	err = l.eachColumn(fc.Table, columns, func(c string) error {
		fk, ok, err := l.store.ForeignKey(fc.Table, c)
		if err != nil || !ok || !l.store.TableExists(fk.Table) {
			return err
		}
		images, err := l.imageColumns(fk.Table)
		if err != nil || len(images) == 0 {
			return err
		}
		alias := strings.TrimSuffix(c, "_id")
		lines = append(lines, fmt.Sprintf("->leftJoin('%s as %s', '%s.%s', '=', '%s.%s')",
			fk.Table, alias, fc.Table, c, alias, fk.Column))
		for _, img := range images {
			lines = append(lines, fmt.Sprintf("->addSelect('%s.%s as %s_%s')", alias, img, alias, img))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return joinLines(lines, fc.Indent), nil
}

func (l *Library) imageColumns(table string) ([]string, error) {
	return l.filterColumns(table, func(t, c string) (bool, error) {
		st, err := l.subtype(t, c)
		return st == schema.SubtypeImage, err
	})
}
