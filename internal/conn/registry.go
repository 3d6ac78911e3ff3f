package conn

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sync"
	"time"

	"db-bridge/internal/dialect"

	"github.com/google/uuid"
)

// Config describes one database endpoint. Either DSN is given directly or
// it is assembled from the host/credential fields.
type Config struct {
	Name     string `mapstructure:"name"`
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DataSourceName builds a driver-appropriate DSN. Credentials are
// URL-encoded so special characters survive.
func (c Config) DataSourceName() string {
	if c.DSN != "" {
		return c.DSN
	}

	user := url.QueryEscape(c.Username)
	pass := url.QueryEscape(c.Password)

	switch c.Driver {
	case "postgres":
		sslmode := c.SSLMode
		if sslmode == "" {
			sslmode = "require"
		}
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			user, pass, c.Host, c.portOr(5432), c.Database, sslmode)
	case "sqlserver", "mssql":
		return fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
			user, pass, c.Host, c.portOr(1433), url.QueryEscape(c.Database))
	case "oracle":
		return fmt.Sprintf("oracle://%s:%s@%s:%d/%s",
			user, pass, c.Host, c.portOr(1521), c.Database)
	default: // mysql
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			c.Username, c.Password, c.Host, c.portOr(3306), c.Database)
	}
}

func (c Config) portOr(def int) int {
	if c.Port > 0 {
		return c.Port
	}
	return def
}

// Conn is one registered endpoint: a bounded pool plus its dialect.
type Conn struct {
	DB      *sql.DB
	Driver  string
	Dialect dialect.Dialect
	Config  Config
}

// Status reports the outcome of a connect attempt.
type Status struct {
	ID        string
	Connected bool
	Database  string
	Host      string
	Error     string
}

// Registry holds active connections keyed by opaque id. Reads (pool
// lookups, concurrent migrations over different connections) share the
// lock; registering or removing takes it exclusively.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Conn)}
}

// Connect opens a bounded pool for the endpoint, verifies it with a ping,
// and registers it under a fresh id.
func (r *Registry) Connect(ctx context.Context, cfg Config) (Status, error) {
	db, err := sql.Open(driverName(cfg.Driver), cfg.DataSourceName())
	if err != nil {
		return Status{}, fmt.Errorf("failed to open db: %w", err)
	}

	// Each pool enforces its own small concurrency bound; the migration
	// engine never adds a limiter of its own.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return Status{}, fmt.Errorf("failed to connect: %w", err)
	}

	id := uuid.NewString()
	c := &Conn{DB: db, Driver: cfg.Driver, Dialect: dialect.GetDialect(cfg.Driver), Config: cfg}

	r.mu.Lock()
	r.conns[id] = c
	r.mu.Unlock()

	return Status{ID: id, Connected: true, Database: cfg.Database, Host: cfg.Host}, nil
}

// Disconnect closes and removes a connection.
func (r *Registry) Disconnect(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[id]
	if !ok {
		return fmt.Errorf("connection %s not found", id)
	}
	delete(r.conns, id)
	return c.DB.Close()
}

// Pool returns the registered connection, if any.
func (r *Registry) Pool(id string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// Close drains every registered connection.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.conns {
		c.DB.Close()
		delete(r.conns, id)
	}
}

// driverName maps config driver aliases onto registered sql drivers.
func driverName(driver string) string {
	switch driver {
	case "mssql":
		return "sqlserver"
	case "":
		return "mysql"
	default:
		return driver
	}
}
