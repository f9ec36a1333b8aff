package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/metagen/render"
	"github.com/ridoystarlord/metagen/snippet"
	"github.com/ridoystarlord/metagen/workflow"
)

var (
	workflowAction    string
	workflowArtifact  string
	workflowBuildDir  string
	workflowTemplates string
	workflowInstall   string
)

func init() {
	workflowCmd.Flags().StringVarP(&workflowAction, "action", "a", "generate", "generate, compare, install or check")
	workflowCmd.Flags().StringVarP(&workflowArtifact, "code", "c", workflow.All, "Artifact to generate, or all")
	workflowCmd.Flags().StringVarP(&workflowBuildDir, "build-dir", "b", "", "Directory receiving generated files (WF_BUILD_DIR)")
	workflowCmd.Flags().StringVar(&workflowTemplates, "template-dir", "", "Directory holding the templates (WF_TEMPLATES_DIR)")
	workflowCmd.Flags().StringVarP(&workflowInstall, "install-dir", "i", "", "Directory where the application is installed (WF_INSTALL_DIR)")
}

var workflowCmd = &cobra.Command{
	Use:   "workflow [tables...]",
	Short: "Generate every artifact of the catalog for a set of tables",
	Long: `Render the artifacts listed in the catalog (workflow.yaml) for each table and
apply an action. Without table arguments every table of the schema is used,
filtered by the catalog's include and exclude lists.

A failing table is reported and the others are still generated.

Examples:
  metagen workflow
  metagen workflow -c api_controller users boards
  metagen workflow -a compare -c all
  metagen workflow -a install -i ../app
`,
	Run: func(cmd *cobra.Command, args []string) {
		action, err := render.ParseAction(workflowAction)
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}

		installer := render.NewInstaller(os.Stdout)
		installer.CompareTool = cfg.Compare.Tool
		installer.Verbose = cfg.Verbose

		catalog, err := workflow.LoadCatalog(installer.Fs, cfg.Workflow.Catalog)
		if err != nil {
			fmt.Println("❌ Loading catalog:", err)
			os.Exit(1)
		}
		artifacts, err := catalog.Select(workflowArtifact)
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}

		ctx := context.Background()
		store := mustLoadStore(ctx)
		tables, err := catalog.SelectTables(store.Tables(), args)
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}

		runner := &workflow.Runner{
			Engine:    render.NewEngine(snippet.New(store), render.WithLogger(logger)),
			Installer: installer,
			Dirs: workflow.Dirs{
				Templates: firstNonEmpty(workflowTemplates, cfg.Workflow.TemplatesDir),
				Build:     firstNonEmpty(workflowBuildDir, cfg.Workflow.BuildDir),
				Install:   firstNonEmpty(workflowInstall, cfg.Workflow.InstallDir),
			},
			Logger: logger,
		}
		report, err := runner.Run(ctx, tables, artifacts, action)
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}

		for _, rec := range report.Records {
			for _, w := range rec.Warnings {
				color.Yellow("⚠️  %s %s: %v, generated from name and type", rec.Table, rec.Artifact, w)
			}
			switch rec.Status {
			case workflow.StatusFailed:
				color.Red("❌ %v", rec.Err)
			case workflow.StatusDiffers:
				color.Yellow("⚠️  %s %s differs", rec.Table, rec.Artifact)
			default:
				if cfg.Verbose {
					fmt.Printf("✅ %s %s -> %s (sha256 %.12s)\n", rec.Table, rec.Artifact, filepath.Base(rec.Output), rec.Checksum)
				}
			}
		}
		fmt.Printf("\n📊 %d generated, %d different, %d failed, %d warnings\n",
			report.Count(workflow.StatusOK), report.Count(workflow.StatusDiffers), report.Count(workflow.StatusFailed),
			len(report.Warnings()))
		if report.Failed() {
			os.Exit(1)
		}
	},
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
