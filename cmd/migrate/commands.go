package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/popeskul/rentverify/internal/config"
	"github.com/popeskul/rentverify/internal/infrastructure/database"
	"github.com/popeskul/rentverify/internal/infrastructure/migrate"
	"github.com/popeskul/rentverify/internal/models"
	"github.com/popeskul/rentverify/internal/repository"
)

const defaultMigrateSteps = 1

type options struct {
	configPath     string
	migrationsPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the RentVerify database",
		Long: `Apply or roll back schema migrations and run one-off data maintenance.

The database is selected the same way the server selects it: DATABASE_DRIVER,
DATABASE_URL and SQLITE_PATH, or the database section of --config.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to an optional YAML config file")
	root.PersistentFlags().StringVar(&opts.migrationsPath, "path", "",
		"read migrations from <path>/<driver> instead of the embedded set")

	root.AddCommand(
		newUpCmd(opts),
		newDownCmd(opts),
		newVersionCmd(opts),
		newRecategorizeCmd(opts),
	)
	return root
}

func newUpCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := opts.runner()
			if err != nil {
				return err
			}
			if err := runner.Up(); err != nil {
				return err
			}
			return printVersion(cmd, runner, "Successfully migrated to version")
		},
	}
}

func newDownCmd(opts *options) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := opts.runner()
			if err != nil {
				return err
			}
			if err := runner.Down(steps); err != nil {
				return err
			}
			return printVersion(cmd, runner, "Successfully rolled back to version")
		},
	}
	cmd.Flags().IntVar(&steps, "steps", defaultMigrateSteps, "number of migrations to roll back")
	return cmd
}

func newVersionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := opts.runner()
			if err != nil {
				return err
			}
			return printVersion(cmd, runner, "Current version:")
		},
	}
}

func newRecategorizeCmd(opts *options) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "recategorize",
		Short: "Move every record of one type to another",
		Long: `Rewrite record_type for all rent records of the --from type.

Use it when replies were stored under the wrong default category, for example
after a batch of landlords replied before DEFAULT_RECORD_TYPE was set.`,
		Example: "  migrate recategorize --from tenant --to landlord",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fromCategory, err := models.ParseCategory(from)
			if err != nil {
				return err
			}
			toCategory, err := models.ParseCategory(to)
			if err != nil {
				return err
			}
			if fromCategory == toCategory {
				return fmt.Errorf("--from and --to are both %q", fromCategory)
			}

			dialect, err := opts.dialect()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			db, err := database.Open(ctx, dialect)
			if err != nil {
				return err
			}
			defer db.Close()

			updated, err := repository.NewRepository(db).Record().Recategorize(ctx, fromCategory, toCategory)
			if err != nil {
				return err
			}
			cmd.Printf("Updated %d records from %s to %s\n", updated, fromCategory, toCategory)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", string(models.CategoryTenant), "current record type")
	cmd.Flags().StringVar(&to, "to", string(models.CategoryLandlord), "new record type")
	return cmd
}

func (o *options) dialect() (database.Dialect, error) {
	dbCfg, err := config.LoadDatabaseConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	return database.NewDialect(dbCfg)
}

func (o *options) runner() (*migrate.Runner, error) {
	dialect, err := o.dialect()
	if err != nil {
		return nil, err
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}

	runnerOpts := []migrate.Option{migrate.WithLogger(logger)}
	if o.migrationsPath != "" {
		runnerOpts = append(runnerOpts, migrate.WithPath(o.migrationsPath))
	}
	return migrate.NewRunner(dialect, runnerOpts...), nil
}

func printVersion(cmd *cobra.Command, runner *migrate.Runner, prefix string) error {
	version, dirty, err := runner.Version()
	if err != nil {
		return err
	}
	if dirty {
		cmd.Printf("%s %d (dirty)\n", prefix, version)
		return nil
	}
	cmd.Printf("%s %d\n", prefix, version)
	return nil
}
