package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/metagen/workflow"
)

var initDir string

func init() {
	initCmd.Flags().StringVar(&initDir, "dir", ".", "Directory of the new project")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new metagen project",
	Long: `Initialize a new metagen project: a metagen.yaml config file, a workflow.yaml
catalog with a Laravel API controller and model, and their templates.

Existing templates and config files are kept.

Examples:
  metagen init
  metagen init --dir generator
`,
	Run: func(cmd *cobra.Command, args []string) {
		written, err := workflow.Scaffold(afero.NewOsFs(), initDir, cfg.Workflow.TemplatesDir, cfg.Workflow.Catalog)
		if errors.Is(err, workflow.ErrAlreadyInitialized) {
			fmt.Println("❌", err)
			return
		}
		if err != nil {
			fmt.Println("❌ Error initializing project:", err)
			os.Exit(1)
		}

		for _, path := range written {
			fmt.Println("✅ Created", path)
		}
		fmt.Println("📝 Edit metagen.yaml to point at your database")
		fmt.Println("🚀 Run 'metagen workflow' to generate the files of every table")
	},
}
