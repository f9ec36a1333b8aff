package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/metagen/docs"
	"github.com/ridoystarlord/metagen/schema"
)

var (
	docsFormat string
	docsOutput string
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Generate an ERD of the schema",
	Long: `Generate an entity relationship diagram of the loaded schema.

Supported formats:
  - mermaid: Mermaid ERD diagram
  - plantuml: PlantUML ERD diagram
  - graphviz: Graphviz DOT format
  - all: every format, written to the --output directory

Examples:
  metagen docs --format mermaid --output erd.md
  metagen docs --format plantuml
  metagen docs --format all --output docs/
`,
	Run: func(cmd *cobra.Command, args []string) {
		if docsFormat != "all" && !slices.Contains(docs.Formats, docsFormat) {
			fmt.Printf("❌ Unsupported format: %s\n", docsFormat)
			fmt.Println("Supported formats: mermaid, plantuml, graphviz, all")
			os.Exit(1)
		}

		store := mustLoadStore(context.Background())
		if len(store.Tables()) == 0 {
			fmt.Println("❌ No tables found in schema")
			os.Exit(1)
		}

		if docsFormat != "all" {
			output := docsOutput
			if output == "" {
				output = docs.DefaultOutput(docsFormat)
			}
			writeDiagram(store, docsFormat, output)
			return
		}

		dir := docsOutput
		if dir == "" {
			dir = "docs"
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("❌ Error creating output directory: %v\n", err)
			os.Exit(1)
		}
		for _, format := range docs.Formats {
			writeDiagram(store, format, filepath.Join(dir, docs.DefaultOutput(format)))
		}
		fmt.Printf("✅ All documentation generated in: %s\n", dir)
	},
}

func writeDiagram(store *schema.Store, format, output string) {
	content, err := docs.Render(store, format)
	if err != nil {
		fmt.Printf("❌ Error generating %s: %v\n", format, err)
		os.Exit(1)
	}
	if err := os.WriteFile(output, []byte(content), 0644); err != nil {
		fmt.Printf("❌ Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ %s ERD saved to: %s\n", format, output)
}

func init() {
	docsCmd.Flags().StringVarP(&docsFormat, "format", "f", "mermaid", "Output format (mermaid, plantuml, graphviz, all)")
	docsCmd.Flags().StringVarP(&docsOutput, "output", "o", "", "Output file or directory")
}
