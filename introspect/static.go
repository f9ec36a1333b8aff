package introspect

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StaticTable holds the raw rows of one table for a StaticGateway.
type StaticTable struct {
	Name        string          `yaml:"name"`
	Columns     []ColumnRow     `yaml:"columns"`
	ForeignKeys []ForeignKeyRow `yaml:"foreign_keys,omitempty"`
	Metadata    []MetadataRow   `yaml:"metadata,omitempty"`
}

// StaticGateway serves schema rows from memory. It backs offline runs
// (--schema-file) and tests.
type StaticGateway struct {
	Database  string        `yaml:"database"`
	TableDefs []StaticTable `yaml:"tables"`

	// Err, when set, is returned by every call.
	Err error `yaml:"-"`
}

// LoadStaticGateway reads a YAML schema dump.
func LoadStaticGateway(filename string) (*StaticGateway, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	var gw StaticGateway
	if err := yaml.Unmarshal(data, &gw); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}
	return &gw, nil
}

// Add appends a table and returns the gateway for chaining.
func (g *StaticGateway) Add(t StaticTable) *StaticGateway {
	g.TableDefs = append(g.TableDefs, t)
	return g
}

func (g *StaticGateway) Tables(_ context.Context, _ string) ([]string, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	names := make([]string, 0, len(g.TableDefs))
	for _, t := range g.TableDefs {
		names = append(names, t.Name)
	}
	return names, nil
}

func (g *StaticGateway) Columns(_ context.Context, database, table string) ([]ColumnRow, error) {
	t, err := g.table(database, table)
	if err != nil {
		return nil, err
	}
	return t.Columns, nil
}

func (g *StaticGateway) ForeignKeys(_ context.Context, database, table string) ([]ForeignKeyRow, error) {
	t, err := g.table(database, table)
	if err != nil {
		return nil, err
	}
	return t.ForeignKeys, nil
}

func (g *StaticGateway) Metadata(_ context.Context, database, table string) ([]MetadataRow, error) {
	t, err := g.table(database, table)
	if err != nil {
		return nil, err
	}
	return t.Metadata, nil
}

func (g *StaticGateway) table(database, name string) (*StaticTable, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	for i := range g.TableDefs {
		if g.TableDefs[i].Name == name {
			return &g.TableDefs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrUnknownTable, database, name)
}
