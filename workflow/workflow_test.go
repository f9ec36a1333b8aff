package workflow

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/metagen/introspect"
	"github.com/ridoystarlord/metagen/render"
	"github.com/ridoystarlord/metagen/schema/schematest"
	"github.com/ridoystarlord/metagen/snippet"
)

const catalogYAML = `
artifacts:
  - name: api_model
    template: Model.php
    output: "{class}.php"
    install: app/Models/{class}.php
  - name: list_page
    template: List.jsx
    output: "{url}/List.jsx"
tables:
  exclude: [countries]
`

func TestLoadCatalog(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "workflow.yaml", []byte(catalogYAML), 0644))

	c, err := LoadCatalog(fs, "workflow.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"api_model", "list_page"}, c.Names())

	arts, err := c.Select("api_model")
	require.NoError(t, err)
	require.Len(t, arts, 1)
	assert.Equal(t, "Model.php", arts[0].Template)

	arts, err = c.Select(All)
	require.NoError(t, err)
	assert.Len(t, arts, 2)

	_, err = c.Select("api_controller")
	assert.ErrorContains(t, err, "unknown artifact")
}

func TestLoadCatalogDefaultAndInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()

	c, err := LoadCatalog(fs, "workflow.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"api_controller", "api_model"}, c.Names())

	require.NoError(t, afero.WriteFile(fs, "dup.yaml", []byte(`
artifacts:
  - {name: a, template: a.tpl, output: a}
  - {name: a, template: b.tpl, output: b}
`), 0644))
	_, err = LoadCatalog(fs, "dup.yaml")
	assert.ErrorContains(t, err, "duplicate artifact")

	require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte("artifacts: [oops"), 0644))
	_, err = LoadCatalog(fs, "bad.yaml")
	assert.Error(t, err)
}

func TestSelectTables(t *testing.T) {
	c := &Catalog{Tables: TableFilter{Exclude: []string{"countries"}}}
	available := []string{"users", "boards", "countries"}

	tables, err := c.SelectTables(available, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "boards"}, tables)

	tables, err = c.SelectTables(available, []string{"countries"})
	require.NoError(t, err)
	assert.Equal(t, []string{"countries"}, tables)

	_, err = c.SelectTables(available, []string{"ghosts"})
	assert.Error(t, err)

	c.Tables = TableFilter{Include: []string{"boards"}}
	tables, err = c.SelectTables(available, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"boards"}, tables)
}

func TestArtifactJob(t *testing.T) {
	a := Artifact{Name: "list_page", Template: "List.jsx", Output: "{url}/{class}List.jsx", Install: "src/{element}/List.jsx"}

	job := a.Job("board_items", Dirs{Templates: "tpl", Build: "build", Install: "/srv/app"})
	assert.Equal(t, "tpl/List.jsx", job.Template)
	assert.Equal(t, "build/board-items/BoardItemList.jsx", job.Output)
	assert.Equal(t, "/srv/app/src/board_item/List.jsx", job.Installed)

	job = a.Job("users", Dirs{Templates: "tpl", Build: "build"})
	assert.Empty(t, job.Installed)
}

func newRunner(t *testing.T, fs afero.Fs) *Runner {
	t.Helper()
	return &Runner{
		Engine:    render.NewEngine(snippet.New(schematest.Store(t))),
		Installer: &render.Installer{Fs: fs, Out: &bytes.Buffer{}},
		Dirs:      Dirs{Templates: "templates", Build: "build", Install: "app"},
	}
}

func TestRunnerGenerateAndCheck(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "templates/Model.php",
		[]byte("class {{class}} {\n\tprotected $fillable = [{{#cg}}fillable_list{{/cg}}];\n}\n"), 0644))
	arts := []Artifact{{Name: "api_model", Template: "Model.php", Output: "{class}.php", Install: "Models/{class}.php"}}
	r := newRunner(t, fs)
	ctx := context.Background()

	report, err := r.Run(ctx, []string{"users", "boards"}, arts, render.ActionGenerate)
	require.NoError(t, err)
	require.Len(t, report.Records, 2)
	assert.Equal(t, 2, report.Count(StatusOK))
	assert.NotEmpty(t, report.Records[0].Checksum)
	assert.True(t, report.Records[0].Seeded, "generate seeds the missing installed files")

	data, err := afero.ReadFile(fs, "build/User.php")
	require.NoError(t, err)
	assert.Equal(t, "class User {\n\tprotected $fillable = [\"name\", \"email\", \"password\", \"role\", \"avatar_image\"];\n}\n", string(data))
	installed, err := afero.ReadFile(fs, "app/Models/User.php")
	require.NoError(t, err)
	assert.Equal(t, data, installed)

	report, err = r.Run(ctx, []string{"users", "boards"}, arts, render.ActionCheck)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count(StatusOK))
	assert.False(t, report.Records[0].Seeded)

	require.NoError(t, afero.WriteFile(fs, "app/Models/Board.php", []byte("edited\n"), 0644))
	report, err = r.Run(ctx, []string{"users", "boards"}, arts, render.ActionCheck)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, report.Records[0].Status)
	assert.Equal(t, StatusDiffers, report.Records[1].Status)
}

func TestRunnerIsolatesFailures(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "templates/Show.php",
		[]byte("{{class}} {{#cg}}cg_subtype avatar_image{{/cg}}\n"), 0644))
	arts := []Artifact{
		{Name: "show", Template: "Show.php", Output: "{class}Show.php"},
		{Name: "missing", Template: "Missing.php", Output: "{class}Missing.php"},
	}
	r := newRunner(t, fs)

	report, err := r.Run(context.Background(), []string{"boards", "users"}, arts, render.ActionGenerate)
	require.NoError(t, err)
	require.Len(t, report.Records, 4)

	// boards has no avatar_image column; users renders fine.
	assert.Equal(t, StatusFailed, report.Records[0].Status)
	assert.Equal(t, StatusFailed, report.Records[1].Status)
	assert.Equal(t, StatusOK, report.Records[2].Status)
	assert.Equal(t, StatusFailed, report.Records[3].Status)
	assert.True(t, report.Failed())
	assert.Len(t, report.Errors(), 3)

	data, err := afero.ReadFile(fs, "build/UserShow.php")
	require.NoError(t, err)
	assert.Equal(t, "User image\n", string(data))
}

func TestRunnerNeedsInstallLocation(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "templates/List.jsx", []byte("{{class}}"), 0644))
	arts := []Artifact{{Name: "list", Template: "List.jsx", Output: "{class}List.jsx"}}

	report, err := newRunner(t, fs).Run(context.Background(), []string{"users"}, arts, render.ActionInstall)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, report.Records[0].Status)
}

func TestRunnerStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newRunner(t, afero.NewMemMapFs()).Run(ctx, []string{"users"}, DefaultCatalog().Artifacts, render.ActionGenerate)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Records)
}

func TestScaffold(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "metagen.yaml", []byte("db:\n  name: kept\n"), 0644))

	written, err := Scaffold(fs, ".", "templates", "workflow.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"workflow.yaml", "templates/Model.php", "templates/ApiController.php"}, written)

	kept, err := afero.ReadFile(fs, "metagen.yaml")
	require.NoError(t, err)
	assert.Equal(t, "db:\n  name: kept\n", string(kept))

	c, err := LoadCatalog(fs, "workflow.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog().Names(), c.Names())

	r := newRunner(t, fs)
	report, err := r.Run(context.Background(), []string{"users"}, c.Artifacts, render.ActionGenerate)
	require.NoError(t, err)
	assert.False(t, report.Failed(), "%v", report.Errors())

	model, err := afero.ReadFile(fs, "build/User.php")
	require.NoError(t, err)
	assert.Contains(t, string(model), "class User extends Model")
	assert.Contains(t, string(model), "protected $table = 'users';\n")

	_, err = Scaffold(fs, ".", "templates", "workflow.yaml")
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestRunnerReportsMalformedMetadata(t *testing.T) {
	gw := schematest.Gateway()
	gw.Add(introspect.StaticTable{
		Name: "notes",
		Columns: []introspect.ColumnRow{
			schematest.Column("title", "varchar(20)", "NO", "", ""),
			schematest.Column("body", "text", "NO", "", "Markdown, e.g. {code}"),
		},
	})
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "templates/rules.php", []byte("{{#cg}}create_validation_rules{{/cg}}"), 0644))
	r := &Runner{
		Engine:    render.NewEngine(snippet.New(schematest.Load(t, gw))),
		Installer: &render.Installer{Fs: fs, Out: &bytes.Buffer{}},
		Dirs:      Dirs{Templates: "templates", Build: "build"},
	}
	arts := []Artifact{{Name: "rules", Template: "rules.php", Output: "{table}.php"}}

	report, err := r.Run(context.Background(), []string{"notes", "users"}, arts, render.ActionGenerate)
	require.NoError(t, err)
	assert.False(t, report.Failed())
	assert.Equal(t, 2, report.Count(StatusOK))

	warnings := report.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "notes", warnings[0].Table)
	assert.Equal(t, "body", warnings[0].Column)
	assert.Empty(t, report.Records[1].Warnings)

	data, err := afero.ReadFile(fs, "build/notes.php")
	require.NoError(t, err)
	assert.Equal(t, "\"title\" => 'required|string|max:20',\n\"body\" => 'required',\n", string(data))
	assert.Equal(t, fmt.Sprintf("%x", sha256.Sum256(data)), report.Records[0].Checksum)
}
