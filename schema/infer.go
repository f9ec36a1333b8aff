package schema

import (
	"strconv"
	"strings"
)

// Size returns the integer in parentheses of the raw type, e.g. 255 for
// varchar(255). It is 0 when there is no parenthesis or the content is not
// a single integer, as for enum(...) or decimal(10,2).
func (s *Store) Size(table, column string) (int, error) {
	c, err := s.column(table, column)
	if err != nil {
		return 0, err
	}
	return typeSize(c.Type), nil
}

// BaseType returns the type name before any parenthesis, or the raw type
// unchanged when it has none.
func (s *Store) BaseType(table, column string) (string, error) {
	c, err := s.column(table, column)
	if err != nil {
		return "", err
	}
	return baseType(c.Type), nil
}

// EnumValues returns the literals of an enum column in declaration order,
// and an empty slice for any other type.
func (s *Store) EnumValues(table, column string) ([]string, error) {
	c, err := s.column(table, column)
	if err != nil {
		return nil, err
	}
	if baseType(c.Type) != "enum" {
		return []string{}, nil
	}
	return parseLiterals(typeArgs(c.Type)), nil
}

func (s *Store) IsUnsigned(table, column string) (bool, error) {
	c, err := s.column(table, column)
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(c.Type), "unsigned"), nil
}

func (s *Store) IsNullable(table, column string) (bool, error) {
	c, err := s.column(table, column)
	if err != nil {
		return false, err
	}
	return c.Null == "YES", nil
}

func (s *Store) IsPrimaryKey(table, column string) (bool, error) {
	c, err := s.column(table, column)
	if err != nil {
		return false, err
	}
	return c.Key == KeyPrimary, nil
}

// IsUnique reports a unique key; primary keys are unique too.
func (s *Store) IsUnique(table, column string) (bool, error) {
	c, err := s.column(table, column)
	if err != nil {
		return false, err
	}
	return c.Key == KeyUnique || c.Key == KeyPrimary, nil
}

// PrimaryKey returns the first primary key column in declaration order.
// Composite keys are not modeled.
func (s *Store) PrimaryKey(table string) (string, bool, error) {
	t, err := s.table(table)
	if err != nil {
		return "", false, err
	}
	for _, c := range t.Columns {
		if c.Key == KeyPrimary {
			return c.Name, true, nil
		}
	}
	return "", false, nil
}

// ForeignKey returns the reference held by a column, if any.
func (s *Store) ForeignKey(table, column string) (ForeignKeyRef, bool, error) {
	c, err := s.column(table, column)
	if err != nil {
		return ForeignKeyRef{}, false, err
	}
	if c.ForeignKey == nil {
		return ForeignKeyRef{}, false, nil
	}
	return *c.ForeignKey, true, nil
}

// IsFillable decides whether a column may be mass assigned. The first
// matching rule wins: id, created_at and updated_at never are; an explicit
// "fillable" key governs; otherwise a column is fillable unless "guarded".
func (s *Store) IsFillable(table, column string) (bool, error) {
	if _, err := s.column(table, column); err != nil {
		return false, err
	}
	switch column {
	case "id", "created_at", "updated_at":
		return false, nil
	}
	m := s.meta[columnKey{table, column}]
	if v, ok := m["fillable"]; ok {
		return ParseBool(v), nil
	}
	return !ParseBool(m["guarded"]), nil
}

// IsGuarded is the negation of IsFillable.
func (s *Store) IsGuarded(table, column string) (bool, error) {
	ok, err := s.IsFillable(table, column)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// ParseBool reports whether v is one of "true", "yes" or "1", ignoring case.
func ParseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "1":
		return true
	}
	return false
}

func baseType(raw string) string {
	if i := strings.Index(raw, "("); i >= 0 {
		return strings.TrimSpace(raw[:i])
	}
	return raw
}

// typeArgs returns the text between the first "(" and its matching ")".
func typeArgs(raw string) string {
	start := strings.Index(raw, "(")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(raw, ")")
	if end < start {
		return ""
	}
	return raw[start+1 : end]
}

func typeSize(raw string) int {
	args := strings.TrimSpace(typeArgs(raw))
	if args == "" {
		return 0
	}
	for _, r := range args {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(args)
	if err != nil {
		return 0
	}
	return n
}

// parseLiterals splits a SQL literal list such as 'a','b,c','it''s' into its
// unquoted values.
func parseLiterals(list string) []string {
	values := []string{}
	var (
		cur     strings.Builder
		quote   rune
		started bool
	)
	runes := []rune(list)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			if r == '\\' && i+1 < len(runes) {
				i++
				cur.WriteRune(runes[i])
			} else if r == quote {
				if i+1 < len(runes) && runes[i+1] == quote {
					i++
					cur.WriteRune(quote)
				} else {
					quote = 0
				}
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			started = true
		case r == ',':
			values = append(values, cur.String())
			cur.Reset()
			started = false
		case r == ' ' || r == '\t':
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if started || cur.Len() > 0 || len(values) > 0 {
		values = append(values, cur.String())
	}
	return values
}
