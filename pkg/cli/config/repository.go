package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/interfaces"
	"github.com/m2rads/lime/pkg/repository/firestore"
	"github.com/m2rads/lime/pkg/repository/memory"
	"github.com/m2rads/lime/pkg/repository/sqlstore"
	"github.com/m2rads/lime/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository backends
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend     string
	projectID   string
	databaseID  string
	dsn         string
	sqlDebug    bool
	autoMigrate bool
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (memory, firestore, postgres or sqlite)",
			Category:    "Repository",
			Value:       BackendMemory,
			Sources:     cli.EnvVars("LIME_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("LIME_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Sources:     cli.EnvVars("LIME_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "sql-dsn",
			Usage:       "Database DSN (required when using postgres or sqlite backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("LIME_SQL_DSN", "DATABASE_URL"),
			Destination: &r.dsn,
		},
		&cli.BoolFlag{
			Name:        "sql-debug",
			Usage:       "Log every SQL query",
			Category:    "Repository",
			Sources:     cli.EnvVars("LIME_SQL_DEBUG"),
			Destination: &r.sqlDebug,
		},
		&cli.BoolFlag{
			Name:        "sql-auto-migrate",
			Usage:       "Apply pending SQL migrations on startup",
			Category:    "Repository",
			Sources:     cli.EnvVars("LIME_SQL_AUTO_MIGRATE"),
			Destination: &r.autoMigrate,
		},
	}
}

func (r Repository) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.String("project_id", r.projectID),
		slog.String("database_id", r.databaseID),
		slog.Int("dsn.len", len(r.dsn)),
		slog.Bool("auto_migrate", r.autoMigrate),
	)
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// ProjectID returns the Firestore project ID
func (r *Repository) ProjectID() string {
	return r.projectID
}

// DatabaseID returns the Firestore database ID
func (r *Repository) DatabaseID() string {
	return r.databaseID
}

// IsSQL reports whether the backend is a relational database
func (r *Repository) IsSQL() bool {
	return r.backend == BackendPostgres || r.backend == BackendSQLite
}

// SQLConfig returns the connection settings of a relational backend
func (r *Repository) SQLConfig() (sqlstore.Config, error) {
	var driver string
	switch r.backend {
	case BackendPostgres:
		driver = sqlstore.DriverPostgres
	case BackendSQLite:
		driver = sqlstore.DriverSQLite
	default:
		return sqlstore.Config{}, goerr.Wrap(ErrInvalidBackend, "backend is not a SQL database", goerr.V(BackendKey, r.backend))
	}
	if r.dsn == "" {
		return sqlstore.Config{}, goerr.Wrap(ErrMissingParameter, "sql-dsn is required", goerr.V(BackendKey, r.backend), goerr.V(ParameterKey, "sql-dsn"))
	}
	return sqlstore.Config{Driver: driver, DSN: r.dsn, Debug: r.sqlDebug}, nil
}

// Configure initializes and returns a repository based on the configured backend.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case BackendFirestore:
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrMissingParameter, "firestore-project-id is required when using firestore backend",
				goerr.V(ParameterKey, "firestore-project-id"))
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, nil

	case BackendPostgres, BackendSQLite:
		cfg, err := r.SQLConfig()
		if err != nil {
			return nil, err
		}
		client, err := sqlstore.Open(cfg)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open SQL database", goerr.V(BackendKey, r.backend))
		}
		if r.autoMigrate {
			if err := sqlstore.Migrate(ctx, client); err != nil {
				_ = client.Close()
				return nil, err
			}
		}
		store, err := sqlstore.New(client)
		if err != nil {
			_ = client.Close()
			return nil, goerr.Wrap(err, "failed to initialize SQL repository")
		}
		logging.Default().Info("Using SQL repository", "driver", cfg.Driver, "auto_migrate", r.autoMigrate)
		return store, nil

	case BackendMemory:
		logging.Default().Warn("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidBackend, "unknown repository backend", goerr.V(BackendKey, r.backend))
	}
}
