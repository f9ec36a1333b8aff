package workflow

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ErrAlreadyInitialized is returned by Scaffold when the catalog exists.
var ErrAlreadyInitialized = errors.New("project already initialized")

const configExample = `# metagen configuration. Environment variables (META_DB, META_DB_USER, ...)
# and command-line flags override these values.
db:
  driver: mysql
  name: app
  user: root
  host: localhost
  port: 3306

workflow:
  templates_dir: templates
  build_dir: build
  install_dir: ..
  catalog: workflow.yaml

compare:
  # tool: meld

prereq:
  urls: []
  databases: []
`

const modelTemplate = `<?php

namespace App\Models;

use Illuminate\Database\Eloquent\Factories\HasFactory;
use Illuminate\Database\Eloquent\Model;

class {{class}} extends Model
{
    use HasFactory;

    protected $table = '{{table}}';
    {{#cg}}primary_key_declaration{{/cg}}

    protected $fillable = [{{#cg}}fillable_list{{/cg}}];

    protected $guarded = [{{#cg}}guarded{{/cg}}];
}
`

const controllerTemplate = `<?php

namespace App\Http\Controllers;

use App\Models\{{class}};
use Illuminate\Http\Request;

class {{class}}Controller extends Controller
{
    public function store(Request $request)
    {
        $request->validate([
            {{#cg}}create_validation_rules{{/cg}}
        ]);

        ${{element}} = new {{class}}();
        {{#cg}}create_set_attributes{{/cg}}
        ${{element}}->save();

        return ${{element}};
    }

    public function update(Request $request, {{class}} ${{element}})
    {
        $request->validate([
            {{#cg}}update_validation_rules{{/cg}}
        ]);

        {{#cg}}update_set_attributes{{/cg}}
        ${{element}}->save();

        return ${{element}};
    }
}
`

// ScaffoldFile is one file written by Scaffold.
type ScaffoldFile struct {
	Path    string
	Content string
}

// ScaffoldFiles returns the files of a new project rooted at dir: a config
// file, the default catalog and its templates.
func ScaffoldFiles(dir, templatesDir, catalogFile string) ([]ScaffoldFile, error) {
	catalog, err := yaml.Marshal(DefaultCatalog())
	if err != nil {
		return nil, fmt.Errorf("marshalling catalog: %w", err)
	}
	return []ScaffoldFile{
		{Path: filepath.Join(dir, "metagen.yaml"), Content: configExample},
		{Path: filepath.Join(dir, catalogFile), Content: string(catalog)},
		{Path: filepath.Join(dir, templatesDir, "Model.php"), Content: modelTemplate},
		{Path: filepath.Join(dir, templatesDir, "ApiController.php"), Content: controllerTemplate},
	}, nil
}

// Scaffold writes the files of a new project. Existing files other than the
// catalog are left untouched; an existing catalog aborts the scaffold.
func Scaffold(fs afero.Fs, dir, templatesDir, catalogFile string) ([]string, error) {
	files, err := ScaffoldFiles(dir, templatesDir, catalogFile)
	if err != nil {
		return nil, err
	}
	if exists, _ := afero.Exists(fs, files[1].Path); exists {
		return nil, fmt.Errorf("%w: %s exists", ErrAlreadyInitialized, files[1].Path)
	}

	var written []string
	for _, f := range files {
		if exists, _ := afero.Exists(fs, f.Path); exists {
			continue
		}
		if err := fs.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
			return written, fmt.Errorf("creating directory: %w", err)
		}
		if err := afero.WriteFile(fs, f.Path, []byte(f.Content), 0644); err != nil {
			return written, fmt.Errorf("writing %s: %w", f.Path, err)
		}
		written = append(written, f.Path)
	}
	return written, nil
}
