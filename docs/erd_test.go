package docs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/metagen/schema/schematest"
)

func TestMermaid(t *testing.T) {
	out, err := Mermaid(schematest.Store(t))
	require.NoError(t, err)

	assert.Contains(t, out, "# blog ERD\n\n```mermaid\nerDiagram\n")
	assert.Contains(t, out, "    users {\n        int id PK \"integer\"\n")
	assert.Contains(t, out, "        varchar email UK \"email\"\n")
	assert.Contains(t, out, "        int owner_id FK \"foreign_key\"\n")
	assert.Contains(t, out, "    users ||--o{ boards : owner_id\n")
	assert.True(t, len(out) > 0 && out[len(out)-4:] == "```\n")
}

func TestPlantUMLAndGraphviz(t *testing.T) {
	s := schematest.Store(t)

	puml, err := PlantUML(s)
	require.NoError(t, err)
	assert.Contains(t, puml, "entity \"countries\" {\n  code : char <<PK>> <<NN>>\n")
	assert.Contains(t, puml, "\"users\" ||--o{ \"boards\" : \"owner_id\"\n")

	dot, err := Graphviz(s)
	require.NoError(t, err)
	assert.Contains(t, dot, "  countries [label=\"countries|code: char (PK)\\lname: varchar\\l\"];\n")
	assert.Contains(t, dot, "  users -> boards [label=\"owner_id\"];\n")
}

func TestRender(t *testing.T) {
	s := schematest.Store(t)
	for _, f := range Formats {
		out, err := Render(s, f)
		require.NoError(t, err, f)
		assert.NotEmpty(t, out)
	}
	_, err := Render(s, "svg")
	assert.Error(t, err)

	assert.Equal(t, "erd.puml", DefaultOutput("plantuml"))
	assert.Equal(t, "erd.md", DefaultOutput("mermaid"))
}
