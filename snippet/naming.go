package snippet

import (
	"strings"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Class is the model class name of a table: "board_items" becomes "BoardItem".
func Class(table string) string {
	return inflect.Camelize(inflect.Singularize(table))
}

// Element is the singular variable name of a table.
func Element(table string) string {
	return inflect.Singularize(table)
}

// URL is the route segment of a table: "board_items" becomes "board-items".
func URL(table string) string {
	return inflect.Dasherize(table)
}

// Label is the human readable title of a column or enum value:
// "owner_id" becomes "Owner", "start_date" becomes "Start Date".
func Label(name string) string {
	name = strings.TrimSuffix(name, "_id")
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}
