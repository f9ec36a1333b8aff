// Package workflow drives code generation over (table, artifact) pairs.
package workflow

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/ridoystarlord/metagen/render"
	"github.com/ridoystarlord/metagen/snippet"
)

// All selects every artifact of the catalog.
const All = "all"

// Artifact is one kind of generated file. Output and Install are path
// patterns relative to the build and install directories; {table}, {class},
// {element} and {url} are replaced per table.
type Artifact struct {
	Name     string `yaml:"name"`
	Template string `yaml:"template"`
	Output   string `yaml:"output"`
	Install  string `yaml:"install,omitempty"`
}

// TableFilter restricts the tables generated when none are requested.
type TableFilter struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// Catalog lists the artifacts of a project.
type Catalog struct {
	Artifacts []Artifact  `yaml:"artifacts"`
	Tables    TableFilter `yaml:"tables,omitempty"`
}

// DefaultCatalog is used when no catalog file exists: a Laravel API
// controller and model per table.
func DefaultCatalog() *Catalog {
	return &Catalog{Artifacts: []Artifact{
		{
			Name:     "api_controller",
			Template: "ApiController.php",
			Output:   "{class}Controller.php",
			Install:  "app/Http/Controllers/{class}Controller.php",
		},
		{
			Name:     "api_model",
			Template: "Model.php",
			Output:   "{class}.php",
			Install:  "app/Models/{class}.php",
		},
	}}
}

// LoadCatalog reads a catalog file. A missing file yields DefaultCatalog.
func LoadCatalog(fs afero.Fs, filename string) (*Catalog, error) {
	exists, err := afero.Exists(fs, filename)
	if err != nil {
		return nil, err
	}
	if !exists {
		return DefaultCatalog(), nil
	}

	data, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	seen := map[string]bool{}
	for i, a := range c.Artifacts {
		switch {
		case a.Name == "":
			return fmt.Errorf("artifact %d has no name", i+1)
		case a.Name == All:
			return fmt.Errorf("artifact name %q is reserved", All)
		case seen[a.Name]:
			return fmt.Errorf("duplicate artifact %q", a.Name)
		case a.Template == "":
			return fmt.Errorf("artifact %q has no template", a.Name)
		case a.Output == "":
			return fmt.Errorf("artifact %q has no output", a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}

// Names returns the artifact names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Artifacts))
	for i, a := range c.Artifacts {
		names[i] = a.Name
	}
	return names
}

// Select returns the artifact called name, or every artifact for "all".
func (c *Catalog) Select(name string) ([]Artifact, error) {
	if name == All {
		return c.Artifacts, nil
	}
	for _, a := range c.Artifacts {
		if a.Name == name {
			return []Artifact{a}, nil
		}
	}
	return nil, fmt.Errorf("unknown artifact %q (%s, %s)", name, strings.Join(c.Names(), ", "), All)
}

// SelectTables returns the requested tables, or when none are requested the
// schema tables passing the filter. Requested tables must exist.
func (c *Catalog) SelectTables(available, requested []string) ([]string, error) {
	if len(requested) > 0 {
		for _, t := range requested {
			if !slices.Contains(available, t) {
				return nil, fmt.Errorf("unknown table %q", t)
			}
		}
		return requested, nil
	}

	var out []string
	for _, t := range available {
		if len(c.Tables.Include) > 0 && !slices.Contains(c.Tables.Include, t) {
			continue
		}
		if slices.Contains(c.Tables.Exclude, t) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Dirs locates templates and generated files.
type Dirs struct {
	Templates string
	Build     string
	Install   string
}

// Job returns the files of artifact a for table. The installed path is left
// empty when the artifact or dirs have no install location.
func (a Artifact) Job(table string, dirs Dirs) render.Job {
	r := strings.NewReplacer(
		"{table}", table,
		"{class}", snippet.Class(table),
		"{element}", snippet.Element(table),
		"{url}", snippet.URL(table),
	)
	job := render.Job{
		Table:    table,
		Template: filepath.Join(dirs.Templates, a.Template),
		Output:   filepath.Join(dirs.Build, r.Replace(a.Output)),
	}
	if a.Install != "" && dirs.Install != "" {
		job.Installed = filepath.Join(dirs.Install, r.Replace(a.Install))
	}
	return job
}
