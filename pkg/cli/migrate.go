package cli

import (
	"context"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/cli/config"
	"github.com/m2rads/lime/pkg/repository/firestore"
	"github.com/m2rads/lime/pkg/repository/sqlstore"
	"github.com/m2rads/lime/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var repoCfg config.Repository
	var dryRun bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Preview changes without applying",
			Destination: &dryRun,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate Firestore indexes or SQL schema",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("Migrate configuration",
				"repository", repoCfg,
				"dryRun", dryRun)

			switch {
			case repoCfg.Backend() == config.BackendFirestore:
				return migrateFirestore(ctx, os.Stdout, repoCfg.ProjectID(), repoCfg.DatabaseID(), dryRun)
			case repoCfg.IsSQL():
				return migrateSQL(ctx, os.Stdout, &repoCfg, dryRun)
			default:
				logging.Default().Info("Backend has no schema, nothing to migrate", "backend", repoCfg.Backend())
				return nil
			}
		},
	}
}

func migrateFirestore(ctx context.Context, w io.Writer, projectID, databaseID string, dryRun bool) error {
	logger := logging.Default()
	if projectID == "" {
		return goerr.Wrap(config.ErrMissingParameter, "firestore-project-id is required",
			goerr.V(config.ParameterKey, "firestore-project-id"))
	}

	client, err := fireconf.NewClient(ctx, projectID, databaseID)
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client")
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close fireconf client", "error", err.Error())
		}
	}()

	indexConfig := getIndexConfig()

	if !dryRun {
		logger.Info("Applying migrations")
		if err := client.Migrate(ctx, indexConfig); err != nil {
			return goerr.Wrap(err, "failed to apply migrations")
		}
		logger.Info("Migrations applied successfully")
		return nil
	}

	plan, err := client.GetMigrationPlan(ctx, indexConfig)
	if err != nil {
		return goerr.Wrap(err, "failed to create migration plan")
	}
	if len(plan.Steps) == 0 {
		_, _ = color.New(color.FgGreen).Fprintln(w, "No changes required")
		return nil
	}

	for _, step := range plan.Steps {
		c := color.New(color.FgCyan)
		if step.Destructive {
			c = color.New(color.FgRed, color.Bold)
		}
		_, _ = c.Fprintf(w, "[%s] %s: %s\n", step.Collection, step.Operation, step.Description)
	}
	return nil
}

func migrateSQL(ctx context.Context, w io.Writer, repoCfg *config.Repository, dryRun bool) error {
	logger := logging.Default()

	cfg, err := repoCfg.SQLConfig()
	if err != nil {
		return err
	}

	if dryRun {
		files, err := pendingMigrationFiles(cfg.Driver)
		if err != nil {
			return err
		}
		_, _ = color.New(color.FgYellow).Fprintf(w, "%d migration file(s) registered for %s\n", len(files), cfg.Driver)
		for _, name := range files {
			_, _ = color.New(color.FgCyan).Fprintf(w, "  %s\n", name)
		}
		return nil
	}

	client, err := sqlstore.Open(cfg)
	if err != nil {
		return goerr.Wrap(err, "failed to open database")
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close database", "error", err.Error())
		}
	}()

	logger.Info("Applying migrations", "driver", cfg.Driver)
	if err := sqlstore.Migrate(ctx, client); err != nil {
		return err
	}
	logger.Info("Migrations applied successfully")
	return nil
}

func pendingMigrationFiles(driver string) ([]string, error) {
	migrations, err := sqlstore.Migrations(driver)
	if err != nil {
		return nil, err
	}

	var files []string
	err = fs.WalkDir(migrations, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".up.sql") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list migrations", goerr.V("driver", driver))
	}
	return files, nil
}

// getIndexConfig returns the Firestore index configuration
func getIndexConfig() *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: firestore.ConnectionsCollection,
				Indexes: []fireconf.Index{
					// ListByUser: user_id ASC, org_name ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "user_id", Order: fireconf.OrderAscending},
							{Path: "org_name", Order: fireconf.OrderAscending},
						},
					},
					// GetActive and SetActive: user_id ASC, is_active ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "user_id", Order: fireconf.OrderAscending},
							{Path: "is_active", Order: fireconf.OrderAscending},
						},
					},
					// DeactivateByInstallation: installation_id ASC, is_active ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "installation_id", Order: fireconf.OrderAscending},
							{Path: "is_active", Order: fireconf.OrderAscending},
						},
					},
				},
			},
		},
	}
}
