// Package docs renders entity relationship diagrams of a loaded schema.
package docs

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/metagen/schema"
)

// Formats lists the supported diagram formats.
var Formats = []string{"mermaid", "plantuml", "graphviz"}

// DefaultOutput returns the file name used for format when none is given.
func DefaultOutput(format string) string {
	switch format {
	case "plantuml":
		return "erd.puml"
	case "graphviz":
		return "erd.dot"
	}
	return "erd.md"
}

// Render returns the diagram of s in format.
func Render(s *schema.Store, format string) (string, error) {
	switch format {
	case "mermaid":
		return Mermaid(s)
	case "plantuml":
		return PlantUML(s)
	case "graphviz":
		return Graphviz(s)
	}
	return "", fmt.Errorf("unsupported format %q (%s)", format, strings.Join(Formats, ", "))
}

type column struct {
	name     string
	baseType string
	pk       bool
	unique   bool
	notNull  bool
	fk       *schema.ForeignKeyRef
	subtype  schema.Subtype
}

type entity struct {
	name    string
	columns []column
}

// entities flattens the store in declaration order. A column whose subtype
// cannot be inferred is drawn without one.
func entities(s *schema.Store) ([]entity, error) {
	var out []entity
	for _, name := range s.Tables() {
		t, err := s.Table(name)
		if err != nil {
			return nil, err
		}
		e := entity{name: name}
		for _, c := range t.Columns {
			base, err := s.BaseType(name, c.Name)
			if err != nil {
				return nil, err
			}
			st, _ := s.Subtype(name, c.Name)
			if st == schema.SubtypeInvalid {
				st = schema.SubtypeNone
			}
			e.columns = append(e.columns, column{
				name:     c.Name,
				baseType: strings.Fields(base + " ?")[0],
				pk:       c.Key == schema.KeyPrimary,
				unique:   c.Key == schema.KeyUnique,
				notNull:  c.Null != "YES",
				fk:       c.ForeignKey,
				subtype:  st,
			})
		}
		out = append(out, e)
	}
	return out, nil
}

// Mermaid renders a Mermaid erDiagram wrapped in a Markdown document.
func Mermaid(s *schema.Store) (string, error) {
	ents, err := entities(s)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s ERD\n\n", s.Database())
	b.WriteString("```mermaid\nerDiagram\n")
	for _, e := range ents {
		fmt.Fprintf(&b, "    %s {\n", e.name)
		for _, c := range e.columns {
			line := fmt.Sprintf("        %s %s", c.baseType, c.name)
			var keys []string
			if c.pk {
				keys = append(keys, "PK")
			}
			if c.fk != nil {
				keys = append(keys, "FK")
			}
			if c.unique {
				keys = append(keys, "UK")
			}
			if len(keys) > 0 {
				line += " " + strings.Join(keys, ", ")
			}
			if c.subtype != schema.SubtypeNone {
				line += fmt.Sprintf(" %q", c.subtype)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("    }\n")
	}
	for _, e := range ents {
		for _, c := range e.columns {
			if c.fk != nil {
				fmt.Fprintf(&b, "    %s ||--o{ %s : %s\n", c.fk.Table, e.name, c.name)
			}
		}
	}
	b.WriteString("```\n")
	return b.String(), nil
}

// PlantUML renders a PlantUML entity diagram.
func PlantUML(s *schema.Store) (string, error) {
	ents, err := entities(s)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("@startuml\n")
	b.WriteString("!theme plain\n")
	b.WriteString("skinparam linetype ortho\n\n")
	for _, e := range ents {
		fmt.Fprintf(&b, "entity \"%s\" {\n", e.name)
		for _, c := range e.columns {
			line := fmt.Sprintf("  %s : %s", c.name, c.baseType)
			if c.pk {
				line += " <<PK>>"
			}
			if c.fk != nil {
				line += " <<FK>>"
			}
			if c.unique {
				line += " <<UQ>>"
			}
			if c.notNull {
				line += " <<NN>>"
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("}\n\n")
	}
	for _, e := range ents {
		for _, c := range e.columns {
			if c.fk != nil {
				fmt.Fprintf(&b, "\"%s\" ||--o{ \"%s\" : \"%s\"\n", c.fk.Table, e.name, c.name)
			}
		}
	}
	b.WriteString("@enduml\n")
	return b.String(), nil
}

// Graphviz renders a dot digraph with one record node per table.
func Graphviz(s *schema.Store) (string, error) {
	ents, err := entities(s)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("digraph ERD {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=record];\n\n")
	for _, e := range ents {
		lines := make([]string, len(e.columns))
		for i, c := range e.columns {
			lines[i] = fmt.Sprintf("%s: %s", c.name, c.baseType)
			if c.pk {
				lines[i] += " (PK)"
			}
			if c.fk != nil {
				lines[i] += " (FK)"
			}
		}
		fmt.Fprintf(&b, "  %s [label=\"%s|%s\\l\"];\n", e.name, e.name, strings.Join(lines, "\\l"))
	}
	for _, e := range ents {
		for _, c := range e.columns {
			if c.fk != nil {
				fmt.Fprintf(&b, "  %s -> %s [label=\"%s\"];\n", c.fk.Table, e.name, c.name)
			}
		}
	}
	b.WriteString("}\n")
	return b.String(), nil
}
