package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ridoystarlord/metagen/introspect"
)

// Loader builds a Store from a gateway. A Store is loaded once per run.
type Loader struct {
	gw     introspect.Gateway
	logger *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used to trace loading.
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader returns a loader reading from gw.
func NewLoader(gw introspect.Gateway, opts ...LoaderOption) *Loader {
	l := &Loader{gw: gw, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every table of database with its columns, foreign keys and
// metadata. Gateway failures abort the load.
func (l *Loader) Load(ctx context.Context, database string) (*Store, error) {
	s := newStore(database)

	names, err := l.loadTables(ctx, s)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if err := l.loadColumns(ctx, s, name); err != nil {
			return nil, err
		}
		if err := l.loadForeignKeys(ctx, s, name); err != nil {
			return nil, err
		}
		if err := l.loadTableMetadata(ctx, s, name); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (l *Loader) loadTables(ctx context.Context, s *Store) ([]string, error) {
	names, err := l.gw.Tables(ctx, s.database)
	if err != nil {
		return nil, fmt.Errorf("%w: listing tables of %s: %w", ErrConnectivity, s.database, err)
	}
	for _, name := range names {
		t := newTable(name)
		s.tables = append(s.tables, t)
		s.byName[name] = t
	}
	l.logger.Debug("tables loaded", zap.String("database", s.database), zap.Int("count", len(names)))
	return names, nil
}

func (l *Loader) loadColumns(ctx context.Context, s *Store, table string) error {
	rows, err := l.gw.Columns(ctx, s.database, table)
	if err != nil {
		if errors.Is(err, introspect.ErrUnknownTable) {
			return fmt.Errorf("%w: %s: %w", ErrSchema, table, err)
		}
		return fmt.Errorf("%w: loading columns of %s: %w", ErrConnectivity, table, err)
	}

	t := s.byName[table]
	for _, row := range rows {
		t.add(&Column{
			Table:      table,
			Name:       row.Field,
			Type:       row.Type,
			Collation:  row.Collation,
			Null:       row.Null,
			Key:        row.Key,
			Default:    row.Default,
			Extra:      row.Extra,
			Privileges: row.Privileges,
			Comment:    row.Comment,
		})
		l.logger.Debug("column loaded",
			zap.String("table", table),
			zap.String("column", row.Field),
			zap.String("type", row.Type))
	}
	return nil
}

// loadForeignKeys attaches a ForeignKeyRef to every column referenced by a
// constraint row. Composite keys become independent per-column entries.
func (l *Loader) loadForeignKeys(ctx context.Context, s *Store, table string) error {
	rows, err := l.gw.ForeignKeys(ctx, s.database, table)
	if err != nil {
		return fmt.Errorf("%w: loading foreign keys of %s: %w", ErrConnectivity, table, err)
	}

	t := s.byName[table]
	for _, row := range rows {
		if row.ReferencedTable == nil {
			continue
		}
		c, ok := t.column(row.Column)
		if !ok {
			l.logger.Warn("foreign key on unknown column",
				zap.String("table", table),
				zap.String("column", row.Column),
				zap.String("constraint", row.ConstraintName))
			continue
		}
		ref := &ForeignKeyRef{Table: *row.ReferencedTable}
		if row.ReferencedColumn != nil {
			ref.Column = *row.ReferencedColumn
		}
		c.ForeignKey = ref
	}
	return nil
}

// loadTableMetadata merges the comment JSON of each column with the rows of
// the metadata side table. Side-table rows are applied last and win.
func (l *Loader) loadTableMetadata(ctx context.Context, s *Store, table string) error {
	t := s.byName[table]
	for _, c := range t.Columns {
		key := columnKey{table, c.Name}
		fields, err := parseComment(c.Comment)
		if err != nil {
			s.metaErr[key] = &MetadataError{Table: table, Column: c.Name, Source: "comment", Err: err}
			l.logger.Warn("malformed comment metadata", zap.String("table", table), zap.String("column", c.Name), zap.Error(err))
		}
		if len(fields) > 0 {
			s.meta[key] = fields
		}
	}

	rows, err := l.gw.Metadata(ctx, s.database, table)
	if err != nil {
		return fmt.Errorf("%w: loading metadata of %s: %w", ErrConnectivity, table, err)
	}
	for _, row := range rows {
		key := columnKey{row.Table, row.Column}
		m := s.meta[key]
		if m == nil {
			m = make(Metadata)
		}
		if row.Key == "json" {
			fields, err := parseObject(row.Value)
			if err != nil {
				s.metaErr[key] = &MetadataError{Table: row.Table, Column: row.Column, Source: "metadata table", Err: err}
				l.logger.Warn("malformed metadata row", zap.String("table", row.Table), zap.String("column", row.Column), zap.Error(err))
				continue
			}
			for k, v := range fields {
				m[k] = v
			}
		} else {
			m[row.Key] = row.Value
		}
		s.meta[key] = m
	}
	return nil
}

// parseComment extracts the JSON object embedded in a column comment. A
// comment without braces carries no metadata.
func parseComment(comment string) (Metadata, error) {
	start := strings.Index(comment, "{")
	if start < 0 {
		return nil, nil
	}
	end := strings.LastIndex(comment, "}")
	if end < start {
		return nil, fmt.Errorf("unterminated JSON object in %q", comment)
	}
	return parseObject(comment[start : end+1])
}

func parseObject(text string) (Metadata, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, err
	}
	m := make(Metadata, len(raw))
	for k, v := range raw {
		m[k] = metaString(v)
	}
	return m, nil
}

func metaString(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	if bytes.Equal(v, []byte("null")) {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return string(v)
	}
	return buf.String()
}
