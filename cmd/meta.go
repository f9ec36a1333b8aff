package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/metagen/schema"
)

var metaTable string
var metaField string
var lintJSON bool

func init() {
	metaCmd.Flags().StringVarP(&metaTable, "table", "t", "", "Table to describe")
	metaCmd.Flags().StringVarP(&metaField, "field", "f", "", "Field to describe (needs --table)")
	metaLintCmd.Flags().BoolVar(&lintJSON, "json", false, "Print the findings as JSON")
	metaCmd.AddCommand(metaLintCmd)
}

var metaCmd = &cobra.Command{
	Use:   "meta [list]",
	Short: "Show the schema and the facts inferred for each field",
	Long: `Show the loaded schema.

Without flags every table is printed with its fields, their type and their
subtype. With "list" only the table names are printed. --table restricts the
output to one table, --field to one field; with --verbose every inferred fact
of the field is shown.

Examples:
  metagen meta list
  metagen meta -t users
  metagen meta -t users -f email -v
`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := mustLoadStore(context.Background())

		if metaTable != "" {
			if !store.TableExists(metaTable) {
				fmt.Println("❌", &schema.NotFoundError{Table: metaTable})
				os.Exit(1)
			}
			fmt.Println("📋", metaTable)
			if metaField != "" {
				if err := printField(store, metaTable, metaField, cfg.Verbose); err != nil {
					fmt.Println("❌", err)
					os.Exit(1)
				}
				return
			}
			printTable(store, metaTable, cfg.Verbose)
			return
		}

		fmt.Println(store.Database())
		fmt.Println("tables:", strings.Join(store.Tables(), ", "))
		if len(args) == 1 && args[0] == "list" {
			return
		}
		for _, t := range store.Tables() {
			fmt.Println("📋", t)
			printTable(store, t, cfg.Verbose)
		}
	},
}

func printTable(store *schema.Store, table string, full bool) {
	columns, _ := store.ColumnList(table)
	for _, c := range columns {
		if err := printField(store, table, c, full); err != nil {
			fmt.Println("❌", err)
		}
	}
}

func printField(store *schema.Store, table, field string, full bool) error {
	col, err := store.Column(table, field)
	if err != nil {
		return err
	}
	subtype, subtypeErr := store.Subtype(table, field)

	if !full {
		line := fmt.Sprintf("\t%s  %s  %s", field, col.Type, subtype)
		if subtypeErr != nil {
			color.Yellow("%s  ⚠️  %v", line, subtypeErr)
			return nil
		}
		fmt.Println(line)
		return nil
	}

	size, _ := store.Size(table, field)
	base, _ := store.BaseType(table, field)
	enum, _ := store.EnumValues(table, field)
	unsigned, _ := store.IsUnsigned(table, field)
	nullable, _ := store.IsNullable(table, field)
	unique, _ := store.IsUnique(table, field)
	fillable, _ := store.IsFillable(table, field)
	def, hasDefault, _ := store.DefaultValue(table, field)
	fk, hasFK, _ := store.ForeignKey(table, field)
	meta, _ := store.Metadata(table, field)

	fmt.Println("\t" + field)
	fmt.Println("\t\ttype:", col.Type)
	if subtypeErr != nil {
		color.Yellow("\t\tsubtype: %s (%v)", subtype, subtypeErr)
	} else {
		fmt.Println("\t\tsubtype:", subtype)
	}
	fmt.Println("\t\tsize:", size)
	fmt.Println("\t\tbase_type:", base)
	fmt.Println("\t\tenum_values:", enum)
	fmt.Println("\t\tunsigned:", unsigned)
	fmt.Println("\t\tcollation:", col.Collation)
	fmt.Println("\t\tnull:", col.Null)
	fmt.Println("\t\tnullable:", nullable)
	fmt.Println("\t\tkey:", col.Key)
	fmt.Println("\t\tunique:", unique)
	fmt.Println("\t\tfillable:", fillable)
	if hasDefault {
		fmt.Println("\t\tdefault:", def)
	} else {
		fmt.Println("\t\tdefault: NULL")
	}
	fmt.Println("\t\textra:", col.Extra)
	fmt.Println("\t\tprivileges:", col.Privileges)
	fmt.Println("\t\tcomment:", col.Comment)
	if hasFK {
		fmt.Printf("\t\tforeign key: %s.%s\n", fk.Table, fk.Column)
	} else {
		fmt.Println("\t\tforeign key: none")
	}
	for _, k := range slices.Sorted(maps.Keys(meta)) {
		fmt.Printf("\t\tmeta %s: %s\n", k, meta[k])
	}
	fmt.Println()
	return nil
}

var metaLintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Check the column metadata",
	Long: `Check the column metadata for malformed JSON, non boolean fillable and
guarded values, unknown subtypes and foreign keys to tables that were not
loaded. Exits with status 1 when errors are found.

Examples:
  metagen meta lint
`,
	Run: func(cmd *cobra.Command, args []string) {
		store := mustLoadStore(context.Background())
		result := schema.Lint(store)

		if lintJSON {
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				fmt.Println("❌ Encoding findings:", err)
				os.Exit(1)
			}
			fmt.Println(string(out))
			if !result.Valid {
				os.Exit(1)
			}
			return
		}

		fmt.Println("🔍 Checking metadata of", store.Database())
		for _, f := range result.Errors {
			color.Red("❌ %s.%s: %s", f.Table, f.Column, f.Message)
		}
		for _, f := range result.Warnings {
			color.Yellow("⚠️  %s.%s: %s", f.Table, f.Column, f.Message)
		}
		if cfg.Verbose {
			for _, f := range result.Info {
				fmt.Printf("ℹ️  %s.%s: %s\n", f.Table, f.Column, f.Message)
			}
		}

		fmt.Printf("\n📊 %d errors, %d warnings, %d notes\n", len(result.Errors), len(result.Warnings), len(result.Info))
		if !result.Valid {
			os.Exit(1)
		}
		color.Green("✅ Metadata is valid")
	},
}
