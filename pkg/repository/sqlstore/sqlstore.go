package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/interfaces"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	// database/sql drivers
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned for missing records
var ErrNotFound = interfaces.ErrNotFound

var ErrUnsupportedDriver = goerr.New("unsupported SQL driver")

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Config implements the go-persistence-bun configuration contract
type Config struct {
	Driver      string
	DSN         string
	Debug       bool
	PingTimeout time.Duration
}

func (c Config) GetDebug() bool {
	return c.Debug
}

func (c Config) GetDriver() string {
	return c.Driver
}

func (c Config) GetServer() string {
	return c.DSN
}

func (c Config) GetOtelIdentifier() string {
	return "lime"
}

func (c Config) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.PingTimeout
}

// Migrations returns the embedded migration files for driver
func Migrations(driver string) (fs.FS, error) {
	var dir string
	switch driver {
	case DriverPostgres:
		dir = "migrations/postgres"
	case DriverSQLite:
		dir = "migrations/sqlite"
	default:
		return nil, goerr.Wrap(ErrUnsupportedDriver, "no migrations for driver", goerr.V("driver", driver))
	}

	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open migrations", goerr.V("driver", driver))
	}
	return sub, nil
}

func dialectFor(driver string) (schema.Dialect, error) {
	switch driver {
	case DriverPostgres:
		return pgdialect.New(), nil
	case DriverSQLite:
		return sqlitedialect.New(), nil
	default:
		return nil, goerr.Wrap(ErrUnsupportedDriver, "unknown driver", goerr.V("driver", driver))
	}
}

// Open connects to the database and registers the schema migrations for
// the driver. Call Migrate on the returned client to apply them.
func Open(cfg Config) (*persistence.Client, error) {
	dialect, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	migrations, err := Migrations(cfg.Driver)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("driver", cfg.Driver))
	}
	if cfg.Driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(cfg, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, goerr.Wrap(err, "failed to create persistence client", goerr.V("driver", cfg.Driver))
	}
	client.RegisterSQLMigrations(migrations)

	return client, nil
}

// Migrate applies every pending migration registered by Open
func Migrate(ctx context.Context, client *persistence.Client) error {
	if err := client.Migrate(ctx); err != nil {
		return goerr.Wrap(err, "failed to apply migrations")
	}
	return nil
}

// Store is the SQL implementation of interfaces.Repository. Postgres and
// SQLite share the same queries; the partial unique index on active
// connections backs the one-active-per-user rule in both.
type Store struct {
	client     *persistence.Client
	db         *bun.DB
	connection *connectionRepository
	tokens     repository.Repository[*tokenRecord]
}

var _ interfaces.Repository = &Store{}

func New(client *persistence.Client) (*Store, error) {
	if client == nil || client.DB() == nil {
		return nil, goerr.New("persistence client is required")
	}
	db := client.DB()

	connections := repository.NewRepository[*connectionRecord](db, connectionHandlers())
	if validator, ok := connections.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid connection repository wiring")
		}
	}
	tokens := repository.NewRepository[*tokenRecord](db, tokenHandlers())
	if validator, ok := tokens.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid token repository wiring")
		}
	}

	return &Store{
		client:     client,
		db:         db,
		connection: &connectionRepository{db: db, repo: connections},
		tokens:     tokens,
	}, nil
}

func (s *Store) Connection() interfaces.ConnectionRepository {
	return s.connection
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close database")
	}
	return nil
}
