package snippet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/metagen/introspect"
	"github.com/ridoystarlord/metagen/schema"
	"github.com/ridoystarlord/metagen/schema/schematest"
	"github.com/ridoystarlord/metagen/snippet"
)

func library(t *testing.T) *snippet.Library {
	t.Helper()
	return snippet.New(schematest.Store(t))
}

func call(t *testing.T, lib *snippet.Library, name, table, indent string, args ...string) string {
	t.Helper()
	out, err := lib.Call(name, snippet.Context{Table: table, Indent: indent}, args)
	require.NoError(t, err)
	return out
}

func TestNaming(t *testing.T) {
	assert.Equal(t, "Board", snippet.Class("boards"))
	assert.Equal(t, "BoardItem", snippet.Class("board_items"))
	assert.Equal(t, "country", snippet.Element("countries"))
	assert.Equal(t, "board-items", snippet.URL("board_items"))
	assert.Equal(t, "Owner", snippet.Label("owner_id"))
	assert.Equal(t, "Start Date", snippet.Label("start_date"))

	lib := library(t)
	assert.Equal(t, "User", call(t, lib, "cg_class", "users", ""))
	assert.Equal(t, "user", call(t, lib, "cg_element", "users", ""))
	assert.Equal(t, "users", call(t, lib, "cg_table", "users", ""))
	assert.Equal(t, "code", call(t, lib, "cg_primary_key", "countries", ""))
	assert.Equal(t, "csv_string", call(t, lib, "cg_subtype", "boards", "", "tags"))
}

func TestRegistryIsClosed(t *testing.T) {
	names := snippet.Names()
	assert.Len(t, names, 23)
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "create_validation_rules")

	_, ok := snippet.Lookup("os_system")
	assert.False(t, ok)

	_, err := library(t).Call("totally_unknown", snippet.Context{Table: "users"}, nil)
	assert.ErrorIs(t, err, snippet.ErrUnknownSnippet)

	_, err = library(t).Call("csv_fields", snippet.Context{Table: "ghosts"}, nil)
	assert.ErrorIs(t, err, schema.ErrNotFound)
}

func TestValidationRuleScenarios(t *testing.T) {
	lib := library(t)

	rule, err := lib.ValidationRule("users", "email", true)
	require.NoError(t, err)
	assert.Equal(t, `"email" => 'required|string|max:191|email',`, rule)

	rule, err = lib.ValidationRule("users", "role", true)
	require.NoError(t, err)
	assert.Equal(t, `"role" => 'in:admin,member',`, rule)
}

func TestValidationRule(t *testing.T) {
	lib := library(t)
	tests := []struct {
		table, column string
		create        bool
		want          string
	}{
		{"users", "email", false, `"email" => 'string|max:191|email',`},
		{"users", "avatar_image", true, `"avatar_image" => 'string|max:255',`},
		{"boards", "owner_id", true, `"owner_id" => 'required|exists:users,id',`},
		{"boards", "is_public", true, `"is_public" => 'required|boolean',`},
		{"boards", "tags", true, `"tags" => ["string", "max:255", "regex:/\'(.+?)\'|\"(.+?)\"/"],`},
		{"boards", "start_date", true, `"start_date" => 'date',`},
		{"boards", "price", true, `"price" => '',`},
	}
	for _, tt := range tests {
		t.Run(tt.table+"."+tt.column, func(t *testing.T) {
			got, err := lib.ValidationRule(tt.table, tt.column, tt.create)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := lib.ValidationRule("users", "nickname", true)
	assert.True(t, schema.IsNotFound(err))
}

func TestValidationRuleEnumAndCSVInt(t *testing.T) {
	gw := &introspect.StaticGateway{Database: schematest.Database}
	gw.Add(introspect.StaticTable{
		Name: "grades",
		Columns: []introspect.ColumnRow{
			schematest.Column("level", "enum('a','b','c')", "NO", "", ""),
			schematest.Column("scores", "varchar(100)", "YES", "", `{"subtype":"csv_int"}`),
		},
	})
	lib := snippet.New(schematest.Load(t, gw))

	rule, err := lib.ValidationRule("grades", "level", true)
	require.NoError(t, err)
	assert.Equal(t, `"level" => 'required|in:a,b,c',`, rule)

	rule, err = lib.ValidationRule("grades", "scores", true)
	require.NoError(t, err)
	assert.Equal(t, `"scores" => ["string", "max:100", "regex:(\d+),?"],`, rule)
}

func TestValidationRuleSet(t *testing.T) {
	lib := library(t)

	got, err := lib.ValidationRuleSet("users", true, "\t\t\t")
	require.NoError(t, err)
	want := `"name" => 'required|string|max:255',` + "\n" +
		"\t\t\t" + `"email" => 'required|string|max:191|email',` + "\n" +
		"\t\t\t" + `"password" => 'required|string|max:255',` + "\n" +
		"\t\t\t" + `"role" => 'in:admin,member',` + "\n" +
		"\t\t\t" + `"avatar_image" => 'string|max:255',` + "\n"
	assert.Equal(t, want, got)

	// A numeric first argument is a tab count.
	assert.Equal(t, want, call(t, lib, "create_validation_rules", "users", "", "3"))
	assert.Equal(t, want, call(t, lib, "create_validation_rules", "users", "\t\t\t"))
}

func TestFillableAndGuardedLists(t *testing.T) {
	lib := library(t)

	fillable, err := lib.FillableColumns("boards")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "description", "owner_id", "is_public", "tags", "price", "start_date"}, fillable)

	assert.Equal(t, `"id", "status", "created_at", "updated_at"`, call(t, lib, "guarded", "boards", ""))
	assert.Equal(t, `"code", "name"`, call(t, lib, "fillable_list", "countries", ""))
	assert.Equal(t, `"code", "name"`, call(t, lib, "csv_fields", "countries", ""))
}

func TestSetAttributes(t *testing.T) {
	lib := library(t)

	assert.Equal(t,
		"$element->code = $request->code;\n\t\t$element->name = $request->name;\n",
		call(t, lib, "create_set_attributes", "countries", "", "2"))

	assert.Equal(t,
		"if ($request->code) {\n\t\t\t$element->code = $request->code;\n\t\t}\n"+
			"\t\tif ($request->name) {\n\t\t\t$element->name = $request->name;\n\t\t}\n",
		call(t, lib, "update_set_attributes", "countries", "\t\t"))
}

func TestPrimaryKeyDeclaration(t *testing.T) {
	lib := library(t)
	assert.Equal(t, "", call(t, lib, "primary_key_declaration", "users", "\t"))
	assert.Equal(t,
		"protected $primaryKey = 'code';\n\tprotected $keyType = 'string';",
		call(t, lib, "primary_key_declaration", "countries", "\t"))
}

func TestFactory(t *testing.T) {
	lib := library(t)

	want := "'name' => $this->faker->name(),\n" +
		"\t\t\t'description' => $this->faker->paragraph(),\n" +
		"\t\t\t'owner_id' => $this->faker->randomElement(User::pluck('id')->all()),\n" +
		"\t\t\t'is_public' => $this->faker->boolean(),\n" +
		"\t\t\t'tags' => \"'\" . implode(\"','\", $this->faker->words(3)) . \"'\",\n" +
		"\t\t\t'price' => $this->faker->randomFloat(2, 0, 1000),\n" +
		"\t\t\t'start_date' => $this->faker->date(),"
	assert.Equal(t, want, call(t, lib, "factory_field_list", "boards", "\t\t\t"))
	assert.Equal(t, `use App\Models\User;`, call(t, lib, "factory_referenced_models", "boards", ""))

	tests := []struct {
		table, column, want string
	}{
		{"users", "email", "$this->faker->unique()->safeEmail()"},
		{"users", "role", "$this->faker->randomElement(['admin', 'member'])"},
		{"users", "password", "$this->faker->text(255)"},
		{"countries", "code", "$this->faker->unique()->lexify('??')"},
	}
	for _, tt := range tests {
		got, err := lib.FactoryValue(tt.table, tt.column)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.table+"."+tt.column)
	}
}

func TestReactHelpers(t *testing.T) {
	lib := library(t)

	assert.Equal(t,
		"<th>{t('countries.code')}</th>\n<th>{t('countries.name')}</th>",
		call(t, lib, "field_list_titles", "countries", ""))

	cells := call(t, lib, "field_list_cells", "boards", "")
	assert.Contains(t, cells, "<td>{board.name}</td>")
	assert.Contains(t, cells, "<td>{board.is_public ? t('yes') : t('no')}</td>")

	translation := call(t, lib, "field_list_translation", "users", "")
	assert.Contains(t, translation, `"role": "Role",`)
	assert.Contains(t, translation, `"role_admin": "Admin",`)
	assert.Contains(t, translation, `"role_member": "Member",`)
	assert.Contains(t, translation, `"avatar_image": "Avatar Image",`)

	form := call(t, lib, "field_list_input_form", "users", "")
	assert.Equal(t, `<div className="row">`+"\n"+
		"\t"+`<Input type="text" name="name" label={t('users.name')} />`+"\n"+
		"\t"+`<Input type="email" name="email" label={t('users.email')} />`+"\n"+
		"\t"+`<Input type="password" name="password" label={t('users.password')} />`+"\n"+
		"\t"+`<Select name="role" label={t('users.role')} options={[{ value: 'admin', label: t('users.role_admin') }, { value: 'member', label: t('users.role_member') }]} />`+"\n"+
		"</div>\n"+
		`<div className="row">`+"\n"+
		"\t"+`<Input type="file" name="avatar_image" label={t('users.avatar_image')} />`+"\n"+
		"</div>", form)

	assert.Equal(t,
		"name: '',\ndescription: '',\nowner_id: '',\nis_public: false,\ntags: '',\nprice: '',\nstart_date: '',",
		call(t, lib, "initial_form_values", "boards", ""))

	assert.Equal(t, `"id", "email", "created_at", "updated_at"`,
		call(t, lib, "csv_high_variability_fields", "users", ""))

	assert.Equal(t,
		"->leftJoin('users as owner', 'boards.owner_id', '=', 'owner.id')\n"+
			"->addSelect('owner.avatar_image as owner_avatar_image')",
		call(t, lib, "join_for_images", "boards", ""))
	assert.Equal(t, "", call(t, lib, "join_for_images", "users", ""))
}

func TestMalformedMetadataKeepsOtherFields(t *testing.T) {
	gw := schematest.Gateway()
	gw.Add(introspect.StaticTable{
		Name: "notes",
		Columns: []introspect.ColumnRow{
			schematest.Column("title", "varchar(80)", "NO", "", ""),
			schematest.Column("body", "text", "YES", "", "Markdown, e.g. {code}"),
		},
	})
	store := schematest.Load(t, gw)

	var warnings []*snippet.FieldError
	lib := snippet.New(store).WithWarnings(func(fe *snippet.FieldError) {
		warnings = append(warnings, fe)
	})

	out, err := lib.Call("create_validation_rules", snippet.Context{Table: "notes"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "\"title\" => 'required|string|max:80',\n\"body\" => '',\n", out)

	require.Len(t, warnings, 1)
	assert.Equal(t, "notes", warnings[0].Table)
	assert.Equal(t, "body", warnings[0].Column)
	assert.ErrorIs(t, warnings[0], schema.ErrMalformedMetadata)

	// The column falls back to its name and type.
	assert.Equal(t, "text", call(t, lib, "cg_subtype", "notes", "", "body"))
	form := call(t, lib, "field_list_input_form", "notes", "")
	assert.Contains(t, form, "title")
	assert.Contains(t, form, "body")

	// Without a warning hook the fallback is silent.
	out, err = snippet.New(store).Call("factory_field_list", snippet.Context{Table: "notes"}, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "'title' =>")
	assert.Contains(t, out, "'body' =>")
}
