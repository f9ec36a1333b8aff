package schema

// Store is the loaded schema of one database. It is read-only after Load and
// safe to share.
type Store struct {
	database string
	tables   []*Table
	byName   map[string]*Table
	meta     map[columnKey]Metadata
	metaErr  map[columnKey]*MetadataError
}

func newStore(database string) *Store {
	return &Store{
		database: database,
		byName:   make(map[string]*Table),
		meta:     make(map[columnKey]Metadata),
		metaErr:  make(map[columnKey]*MetadataError),
	}
}

// Database returns the name the store was loaded from.
func (s *Store) Database() string {
	return s.database
}

// Tables returns the table names in load order.
func (s *Store) Tables() []string {
	names := make([]string, 0, len(s.tables))
	for _, t := range s.tables {
		names = append(names, t.Name)
	}
	return names
}

func (s *Store) TableExists(table string) bool {
	_, ok := s.byName[table]
	return ok
}

func (s *Store) ColumnExists(table, column string) bool {
	t, ok := s.byName[table]
	if !ok {
		return false
	}
	_, ok = t.column(column)
	return ok
}

// Table returns a copy of the named table. Changing it does not affect the
// store.
func (s *Store) Table(table string) (*Table, error) {
	t, err := s.table(table)
	if err != nil {
		return nil, err
	}
	return t.clone(), nil
}

func (s *Store) table(table string) (*Table, error) {
	t, ok := s.byName[table]
	if !ok {
		return nil, &NotFoundError{Table: table}
	}
	return t, nil
}

// ColumnList returns the column names of table in declaration order.
func (s *Store) ColumnList(table string) ([]string, error) {
	t, err := s.table(table)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names, nil
}

// Column returns a copy of the named column.
func (s *Store) Column(table, column string) (*Column, error) {
	c, err := s.column(table, column)
	if err != nil {
		return nil, err
	}
	return c.clone(), nil
}

func (s *Store) column(table, column string) (*Column, error) {
	t, err := s.table(table)
	if err != nil {
		return nil, err
	}
	c, ok := t.column(column)
	if !ok {
		return nil, &NotFoundError{Table: table, Column: column}
	}
	return c, nil
}

func (s *Store) RawType(table, column string) (string, error) {
	c, err := s.column(table, column)
	if err != nil {
		return "", err
	}
	return c.Type, nil
}

func (s *Store) Collation(table, column string) (string, error) {
	c, err := s.column(table, column)
	if err != nil {
		return "", err
	}
	return c.Collation, nil
}

func (s *Store) NullFlag(table, column string) (string, error) {
	c, err := s.column(table, column)
	if err != nil {
		return "", err
	}
	return c.Null, nil
}

func (s *Store) KeyFlag(table, column string) (string, error) {
	c, err := s.column(table, column)
	if err != nil {
		return "", err
	}
	return c.Key, nil
}

// DefaultValue returns the column default; ok is false when it is NULL.
func (s *Store) DefaultValue(table, column string) (value string, ok bool, err error) {
	c, err := s.column(table, column)
	if err != nil {
		return "", false, err
	}
	if c.Default == nil {
		return "", false, nil
	}
	return *c.Default, true, nil
}

func (s *Store) ExtraFlag(table, column string) (string, error) {
	c, err := s.column(table, column)
	if err != nil {
		return "", err
	}
	return c.Extra, nil
}

func (s *Store) Privileges(table, column string) (string, error) {
	c, err := s.column(table, column)
	if err != nil {
		return "", err
	}
	return c.Privileges, nil
}

func (s *Store) Comment(table, column string) (string, error) {
	c, err := s.column(table, column)
	if err != nil {
		return "", err
	}
	return c.Comment, nil
}

// Metadata returns a copy of the merged metadata of a column.
func (s *Store) Metadata(table, column string) (Metadata, error) {
	if _, err := s.column(table, column); err != nil {
		return nil, err
	}
	m := make(Metadata, len(s.meta[columnKey{table, column}]))
	for k, v := range s.meta[columnKey{table, column}] {
		m[k] = v
	}
	return m, nil
}

// MetaValue looks up one metadata key. A missing key is not an error.
func (s *Store) MetaValue(table, column, key string) (string, bool, error) {
	if _, err := s.column(table, column); err != nil {
		return "", false, err
	}
	v, ok := s.meta[columnKey{table, column}][key]
	return v, ok, nil
}

// MetadataErr returns the parse failure recorded for a column's metadata, or
// nil when its metadata is well formed.
func (s *Store) MetadataErr(table, column string) (*MetadataError, error) {
	if _, err := s.column(table, column); err != nil {
		return nil, err
	}
	return s.metaErr[columnKey{table, column}], nil
}
