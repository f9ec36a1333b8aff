package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/metagen/config"
	"github.com/ridoystarlord/metagen/database"
	"github.com/ridoystarlord/metagen/prereq"
)

var (
	prereqURLs      []string
	prereqDatabases []string
	prereqCreateDB  bool
)

func init() {
	prerequisitesCmd.Flags().StringSliceVar(&prereqURLs, "urls", nil, "URLs that must answer 200 (URLS)")
	prerequisitesCmd.Flags().StringSliceVar(&prereqDatabases, "databases", nil, "Databases that must exist (DATABASES)")
	prerequisitesCmd.Flags().BoolVar(&prereqCreateDB, "create-db", false, "Create the missing databases")
}

var prerequisitesCmd = &cobra.Command{
	Use:     "prerequisites",
	Aliases: []string{"prereq"},
	Short:   "Check the environment before generating",
	Long: `Check that the connection settings are present, that the database server
answers, that the listed databases exist and that the listed URLs are
reachable.

Examples:
  metagen prerequisites
  metagen prerequisites --databases app,app_test --create-db
  metagen prerequisites --urls localhost:8000,https://example.com
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		failed := false

		fmt.Println("🔍 Checking environment...")
		if err := prereq.CheckEnv(cfg); err != nil {
			color.Red("❌ %v", err)
			os.Exit(1)
		}
		color.Green("✅ Environment variables are set")

		databases := prereqDatabases
		if len(databases) == 0 {
			databases = cfg.Prereq.Databases
		}
		if cfg.DB.Driver == config.DriverMySQL {
			if !checkMySQL(ctx, databases) {
				failed = true
			}
		} else if len(databases) > 0 {
			color.Yellow("⚠️  database existence checks need the mysql driver, skipped")
		}

		urls := prereqURLs
		if len(urls) == 0 {
			urls = cfg.Prereq.URLs
		}
		if len(urls) > 0 {
			fmt.Println("🌐 Checking URLs...")
			client := &http.Client{Timeout: cfg.Prereq.Timeout}
			for _, r := range prereq.CheckURLs(ctx, client, urls, cfg.Prereq.Workers) {
				if r.Reachable {
					color.Green("✅ %s: %s", r.URL, r.Status)
				} else {
					color.Red("❌ %s: %s", r.URL, r.Status)
					failed = true
				}
			}
		}

		if failed {
			os.Exit(1)
		}
		color.Green("✅ All prerequisites are met")
	},
}

func checkMySQL(ctx context.Context, databases []string) bool {
	fmt.Println("🗄️  Checking database server...")
	db, err := database.OpenServer(ctx, cfg)
	if err != nil {
		color.Red("❌ %v", err)
		return false
	}
	defer db.Close()

	if err := prereq.CheckDatabase(ctx, db); err != nil {
		color.Red("❌ %v", err)
		return false
	}
	color.Green("✅ Database server is reachable")

	if len(databases) == 0 {
		return true
	}
	exists, err := prereq.DatabasesExist(ctx, db, databases)
	if err != nil {
		color.Red("❌ %v", err)
		return false
	}

	ok := true
	for _, name := range databases {
		if exists[name] {
			color.Green("✅ database %s exists", name)
			continue
		}
		if !prereqCreateDB {
			color.Red("❌ database %s does not exist", name)
			ok = false
			continue
		}
		if err := prereq.CreateDatabase(ctx, db, name); err != nil {
			color.Red("❌ %v", err)
			ok = false
			continue
		}
		color.Green("✅ database %s has been created", name)
	}
	return ok
}
