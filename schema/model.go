package schema

// Key classifications reported by SHOW COLUMNS.
const (
	KeyPrimary  = "PRI"
	KeyUnique   = "UNI"
	KeyMultiple = "MUL"
)

// Table is a loaded table. Columns keep declaration order.
type Table struct {
	Name    string
	Columns []*Column

	byName map[string]*Column
}

func (t *Table) clone() *Table {
	cp := newTable(t.Name)
	for _, c := range t.Columns {
		cp.add(c.clone())
	}
	return cp
}

// Column is one loaded column. Its identity is (Table, Name).
type Column struct {
	Table      string
	Name       string
	Type       string
	Collation  string
	Null       string
	Key        string
	Default    *string
	Extra      string
	Privileges string
	Comment    string

	ForeignKey *ForeignKeyRef
}

func (c *Column) clone() *Column {
	cp := *c
	if c.Default != nil {
		d := *c.Default
		cp.Default = &d
	}
	if c.ForeignKey != nil {
		fk := *c.ForeignKey
		cp.ForeignKey = &fk
	}
	return &cp
}

// ForeignKeyRef points a column at the column it references.
type ForeignKeyRef struct {
	Table  string
	Column string
}

// Metadata holds the merged metadata of one column. Scalar JSON values are
// stored in their string form; objects and arrays as compact JSON text.
type Metadata map[string]string

type columnKey struct {
	table  string
	column string
}

func newTable(name string) *Table {
	return &Table{Name: name, byName: make(map[string]*Column)}
}

func (t *Table) add(c *Column) {
	t.Columns = append(t.Columns, c)
	t.byName[c.Name] = c
}

func (t *Table) column(name string) (*Column, bool) {
	c, ok := t.byName[name]
	return c, ok
}
