package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/metagen/render"
	"github.com/ridoystarlord/metagen/snippet"
)

var (
	renderTable     string
	renderTemplate  string
	renderOutput    string
	renderInstalled string
	renderAction    string
)

func init() {
	renderCmd.Flags().StringVarP(&renderTable, "table", "t", "", "Table to render the template for")
	renderCmd.Flags().StringVar(&renderTemplate, "template", "", "Template file")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Generated file (default: print)")
	renderCmd.Flags().StringVarP(&renderInstalled, "compare", "c", "", "Installed file to compare with or install to")
	renderCmd.Flags().StringVarP(&renderAction, "action", "a", "generate", "generate, compare, install or check")
	renderCmd.MarkFlagRequired("table")
	renderCmd.MarkFlagRequired("template")
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one template for one table",
	Long: `Render a template for a table and apply an action to the result.

Actions:
  generate  write the output (or print it) and stop
  compare   show the differences with the installed file
  install   overwrite the installed file
  check     report only when the installed file differs

A missing installed file is first created from the output.

Examples:
  metagen render -t users --template templates/ApiController.php
  metagen render -t users --template templates/ApiController.php -o build/UserController.php \
      -c app/Http/Controllers/UserController.php -a compare
`,
	Run: func(cmd *cobra.Command, args []string) {
		action, err := render.ParseAction(renderAction)
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}

		ctx := context.Background()
		store := mustLoadStore(ctx)
		engine := render.NewEngine(snippet.New(store), render.WithLogger(logger))

		installer := render.NewInstaller(os.Stdout)
		installer.CompareTool = cfg.Compare.Tool
		installer.Verbose = cfg.Verbose

		tpl, err := afero.ReadFile(installer.Fs, renderTemplate)
		if err != nil {
			fmt.Println("❌ Reading template:", err)
			os.Exit(1)
		}
		out, warnings, err := engine.RenderWithWarnings(renderTable, string(tpl))
		for _, w := range warnings {
			color.Yellow("⚠️  %v, generated from name and type", w)
		}
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}

		job := render.Job{
			Table:     renderTable,
			Template:  renderTemplate,
			Output:    renderOutput,
			Installed: renderInstalled,
		}
		if _, err := installer.Apply(ctx, job, out, action); err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}
	},
}
