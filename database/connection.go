package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridoystarlord/metagen/config"
	"github.com/ridoystarlord/metagen/introspect"
	"github.com/ridoystarlord/metagen/schema"
)

// Connection is an open database handle together with the gateway reading
// schema rows through it.
type Connection struct {
	Gateway introspect.Gateway
	// Schema is the name passed to the gateway: the database for MySQL, the
	// schema (e.g. "public") for PostgreSQL.
	Schema string
	// DB is set for MySQL connections.
	DB *sql.DB

	pool *pgxpool.Pool
}

// Open connects according to cfg and verifies the connection with a ping.
// Failures wrap schema.ErrConnectivity.
func Open(ctx context.Context, cfg *config.Config) (*Connection, error) {
	switch cfg.DB.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg)
	case config.DriverMySQL, "":
		return openMySQL(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.DB.Driver)
	}
}

// Close releases the connection.
func (c *Connection) Close() {
	if c.DB != nil {
		c.DB.Close()
	}
	if c.pool != nil {
		c.pool.Close()
	}
}

// MySQLConfig builds the driver configuration. An empty database name
// connects to the server without selecting one.
func MySQLConfig(cfg *config.Config, database string) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = cfg.DB.User
	mc.Passwd = cfg.DB.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.DB.Host, strconv.Itoa(cfg.DB.Port))
	mc.DBName = database
	mc.Timeout = 5 * time.Second
	return mc
}

// OpenServer connects to the MySQL server without selecting a database.
func OpenServer(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	return openMySQLDB(ctx, MySQLConfig(cfg, ""))
}

func openMySQL(ctx context.Context, cfg *config.Config) (*Connection, error) {
	db, err := openMySQLDB(ctx, MySQLConfig(cfg, cfg.DB.Name))
	if err != nil {
		return nil, err
	}
	return newMySQLConnection(db, cfg), nil
}

func newMySQLConnection(db *sql.DB, cfg *config.Config) *Connection {
	return &Connection{
		Gateway: introspect.NewMySQLGateway(db),
		Schema:  cfg.SchemaName(),
		DB:      db,
	}
}

func openMySQLDB(ctx context.Context, mc *mysql.Config) (*sql.DB, error) {
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid MySQL configuration: %v", schema.ErrConnectivity, err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: unable to ping database: %v", schema.ErrConnectivity, err)
	}
	return db, nil
}

func openPostgres(ctx context.Context, cfg *config.Config) (*Connection, error) {
	connStr := cfg.DB.URL
	if connStr == "" {
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(cfg.DB.User, cfg.DB.Password),
			Host:   net.JoinHostPort(cfg.DB.Host, strconv.Itoa(cfg.DB.Port)),
			Path:   "/" + cfg.DB.Name,
		}
		connStr = u.String()
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to create connection pool: %v", schema.ErrConnectivity, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: unable to ping database: %v", schema.ErrConnectivity, err)
	}

	return newPostgresConnection(pool, cfg), nil
}

func newPostgresConnection(pool *pgxpool.Pool, cfg *config.Config) *Connection {
	return &Connection{
		Gateway: introspect.NewPostgresGateway(pool),
		Schema:  cfg.SchemaName(),
		pool:    pool,
	}
}
