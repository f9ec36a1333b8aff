package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ridoystarlord/metagen/config"
	"github.com/ridoystarlord/metagen/database"
	"github.com/ridoystarlord/metagen/introspect"
	"github.com/ridoystarlord/metagen/schema"
	"github.com/ridoystarlord/metagen/utils"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "metagen",
	Short: "Generate source files from a database schema and its metadata",
	Long: `metagen reads a MySQL or PostgreSQL schema, together with the JSON metadata
stored in column comments and in an optional "metadata" table, and expands
{{#cg}}snippet{{/cg}} markers in templates to generate models, controllers,
factories, forms and translations.

Connection settings come from flags, the environment (META_DB, META_DB_USER,
META_DB_PASSWORD, META_DB_HOST, META_DB_PORT, .env is loaded first) or
metagen.yaml.

Examples:

  metagen meta list
  metagen meta -t users -f email
  metagen snippet create_validation_rules users
  metagen render -t users --template templates/ApiController.php
  metagen workflow -a check -c all
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		utils.LoadEnv(verbose)

		c, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		cfg = c
		logger = utils.NewLogger(cfg.Verbose)
		return nil
	},
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default ./metagen.yaml)")
	flags.BoolP("verbose", "v", false, "Verbose mode")
	flags.String("driver", "", "Database driver: mysql or postgres")
	flags.StringP("database", "d", "", "Database name (META_DB)")
	flags.StringP("user", "u", "", "Database user (META_DB_USER)")
	flags.StringP("password", "p", "", "Database password (META_DB_PASSWORD)")
	flags.String("host", "", "Database host (META_DB_HOST)")
	flags.Int("port", 0, "Database port (META_DB_PORT)")
	flags.String("schema-file", "", "Read the schema from a YAML dump instead of a database")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(metaCmd)
	rootCmd.AddCommand(snippetCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(workflowCmd)
	rootCmd.AddCommand(prerequisitesCmd)
	rootCmd.AddCommand(docsCmd)
}

// loadStore loads the schema from the configured database or schema file.
func loadStore(ctx context.Context) (*schema.Store, error) {
	if cfg.DB.SchemaFile != "" {
		gw, err := introspect.LoadStaticGateway(cfg.DB.SchemaFile)
		if err != nil {
			return nil, err
		}
		name := gw.Database
		if cfg.DB.Name != "" {
			name = cfg.DB.Name
		}
		return schema.NewLoader(gw, schema.WithLogger(logger)).Load(ctx, name)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conn, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return schema.NewLoader(conn.Gateway, schema.WithLogger(logger)).Load(ctx, conn.Schema)
}

// mustLoadStore loads the schema or exits.
func mustLoadStore(ctx context.Context) *schema.Store {
	store, err := loadStore(ctx)
	if err != nil {
		fmt.Println("❌ Loading schema:", err)
		os.Exit(1)
	}
	return store
}
