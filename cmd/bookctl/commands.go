package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/book-network/cmd/api/database"
	"github.com/book-network/cmd/api/user"
	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type dbFlags struct {
	url            string
	driver         string
	migrationsPath string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	flags := &dbFlags{}

	root := &cobra.Command{
		Use:           "bookctl",
		Short:         "Operator tasks for the book network database",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			godotenv.Load()
			if flags.url == "" {
				flags.url = os.Getenv("DATABASE_URL")
			}
			if flags.driver == "" {
				flags.driver = envOr("DATABASE_DRIVER", database.DriverPQ)
			}
			if flags.migrationsPath == "" {
				flags.migrationsPath = envOr("DATABASE_MIGRATIONS_PATH", "migrations")
			}
		},
	}
	root.PersistentFlags().StringVar(&flags.url, "database-url", "", "postgres connection string (default $DATABASE_URL)")
	root.PersistentFlags().StringVar(&flags.driver, "driver", "", "sql driver: postgres or pgx (default $DATABASE_DRIVER or postgres)")
	root.PersistentFlags().StringVar(&flags.migrationsPath, "migrations", "", "migrations directory (default $DATABASE_MIGRATIONS_PATH or migrations)")

	root.AddCommand(newMigrateCmd(flags), newSeedRolesCmd(flags))
	return root
}

func newMigrateCmd(flags *dbFlags) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert the schema migrations",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := openStore(flags)
			if err != nil {
				return err
			}
			defer closeDB()

			err = database.MigrationUp(store, flags.migrationsPath)
			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Fprintln(cmd.OutOrStdout(), "no pending migrations")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert every migration, dropping all tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := openStore(flags)
			if err != nil {
				return err
			}
			defer closeDB()

			err = database.MigrationDown(store, flags.migrationsPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations reverted")
			return nil
		},
	})
	return migrateCmd
}

func newSeedRolesCmd(flags *dbFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-roles",
		Short: "Create the default roles that are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := openStore(flags)
			if err != nil {
				return err
			}
			defer closeDB()

			err = user.NewService(store, nil, nil, nil, 0).SeedRoles(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "roles ready: %v\n", user.DefaultRoles)
			return nil
		},
	}
}

func openStore(flags *dbFlags) (*database.Store, func(), error) {
	if flags.url == "" {
		return nil, nil, errors.New("a database url is required, set --database-url or DATABASE_URL")
	}
	db, err := database.ConnectDb(flags.driver, flags.url)
	if err != nil {
		return nil, nil, err
	}
	return database.NewStore(db), func() { db.Close() }, nil
}
