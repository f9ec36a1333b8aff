package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/metagen/snippet"
)

var listSnippets bool

func init() {
	snippetCmd.Flags().BoolVarP(&listSnippets, "list", "l", false, "List the supported snippets")
}

var snippetCmd = &cobra.Command{
	Use:   "snippet <name> <table> [args...]",
	Short: "Print the output of one snippet",
	Long: `Print the output of one snippet for a table, as a template marker
{{#cg}}name args{{/cg}} would render it.

A numeric first argument is the number of tabs indenting the lines after the
first one.

Examples:
  metagen snippet --list
  metagen snippet cg_class board_items
  metagen snippet create_validation_rules users 3
  metagen snippet cg_subtype users email
`,
	Run: func(cmd *cobra.Command, args []string) {
		if listSnippets {
			fmt.Println("📋 supported snippets:")
			for _, name := range snippet.Names() {
				fmt.Println("  " + name)
			}
			return
		}
		if len(args) < 2 {
			fmt.Println("❌ snippet needs a name and a table")
			os.Exit(1)
		}
		name, table := args[0], args[1]
		if _, ok := snippet.Lookup(name); !ok {
			fmt.Println("❌ unknown snippet", name)
			os.Exit(1)
		}

		lib := snippet.New(mustLoadStore(context.Background())).WithWarnings(func(fe *snippet.FieldError) {
			color.Yellow("⚠️  %v, generated from name and type", fe)
		})
		out, err := lib.Call(name, snippet.Context{Table: table}, args[2:])
		if err != nil {
			var fe *snippet.FieldError
			if errors.As(err, &fe) {
				fmt.Printf("❌ %s failed on %s.%s: %v\n", name, fe.Table, fe.Column, fe.Err)
			} else {
				fmt.Printf("❌ %s: %v\n", name, err)
			}
			os.Exit(1)
		}
		fmt.Println(out)
	},
}
