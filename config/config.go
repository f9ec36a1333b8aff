package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config is the metagen configuration.
type Config struct {
	Verbose  bool           `mapstructure:"verbose"`
	DB       DBConfig       `mapstructure:"db"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Compare  CompareConfig  `mapstructure:"compare"`
	Prereq   PrereqConfig   `mapstructure:"prereq"`
}

// DBConfig describes the database to introspect.
type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	// Schema is the PostgreSQL schema to read.
	Schema string `mapstructure:"schema"`
	// URL overrides the other settings for PostgreSQL.
	URL string `mapstructure:"url"`
	// SchemaFile, when set, loads the schema from a YAML dump instead of a
	// live database.
	SchemaFile string `mapstructure:"schema_file"`
}

// WorkflowConfig locates templates and outputs.
type WorkflowConfig struct {
	TemplatesDir string `mapstructure:"templates_dir"`
	BuildDir     string `mapstructure:"build_dir"`
	InstallDir   string `mapstructure:"install_dir"`
	Catalog      string `mapstructure:"catalog"`
}

// CompareConfig names the external tool used by the compare action.
type CompareConfig struct {
	Tool string `mapstructure:"tool"`
}

// PrereqConfig drives the prerequisites command.
type PrereqConfig struct {
	URLs      []string      `mapstructure:"urls"`
	Databases []string      `mapstructure:"databases"`
	Workers   int           `mapstructure:"workers"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// envBindings maps configuration keys to the environment variables the
// generator scripts have always read.
var envBindings = map[string]string{
	"verbose":                "VERBOSE",
	"db.driver":              "META_DB_DRIVER",
	"db.name":                "META_DB",
	"db.user":                "META_DB_USER",
	"db.password":            "META_DB_PASSWORD",
	"db.host":                "META_DB_HOST",
	"db.port":                "META_DB_PORT",
	"db.schema":              "META_DB_SCHEMA",
	"db.url":                 "DATABASE_URL",
	"db.schema_file":         "META_SCHEMA_FILE",
	"workflow.templates_dir": "WF_TEMPLATES_DIR",
	"workflow.build_dir":     "WF_BUILD_DIR",
	"workflow.install_dir":   "WF_INSTALL_DIR",
	"workflow.catalog":       "WF_CATALOG",
	"compare.tool":           "META_COMPARE_TOOL",
	"prereq.urls":            "URLS",
	"prereq.databases":       "DATABASES",
}

// flagBindings maps configuration keys to persistent command-line flags.
var flagBindings = map[string]string{
	"verbose":        "verbose",
	"db.driver":      "driver",
	"db.name":        "database",
	"db.user":        "user",
	"db.password":    "password",
	"db.host":        "host",
	"db.port":        "port",
	"db.schema_file": "schema-file",
}

// Load reads the configuration from, in increasing priority: defaults,
// metagen.yaml (or configFile), the environment and flags. flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("db.driver", DriverMySQL)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.schema", "public")
	v.SetDefault("workflow.templates_dir", "templates")
	v.SetDefault("workflow.build_dir", "build")
	v.SetDefault("workflow.catalog", "workflow.yaml")
	v.SetDefault("prereq.workers", 10)
	v.SetDefault("prereq.timeout", 5*time.Second)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("metagen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}
	if flags != nil {
		for key, name := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding --%s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.DB.Driver = strings.ToLower(cfg.DB.Driver)
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 3306
		if cfg.DB.Driver == DriverPostgres {
			cfg.DB.Port = 5432
		}
	}
	cfg.Prereq.URLs = splitList(cfg.Prereq.URLs)
	cfg.Prereq.Databases = splitList(cfg.Prereq.Databases)

	return &cfg, nil
}

// Validate reports the mandatory settings that are missing.
func (c *Config) Validate() error {
	if c.DB.SchemaFile != "" {
		return nil
	}
	if c.DB.Driver == DriverPostgres && c.DB.URL != "" {
		return nil
	}

	var missing []string
	if c.DB.Name == "" {
		missing = append(missing, "META_DB")
	}
	if c.DB.User == "" {
		missing = append(missing, "META_DB_USER")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing environment variable: %s", strings.Join(missing, ", "))
	}
	if c.DB.Driver != DriverMySQL && c.DB.Driver != DriverPostgres {
		return fmt.Errorf("unsupported driver %q (mysql, postgres)", c.DB.Driver)
	}
	return nil
}

// SchemaName is the name handed to the gateway.
func (c *Config) SchemaName() string {
	if c.DB.Driver == DriverPostgres {
		return c.DB.Schema
	}
	return c.DB.Name
}

// splitList flattens comma separated entries and drops empty ones.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
