package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stormlightlabs/memoria/internal/config"
	"github.com/stormlightlabs/memoria/internal/db"
)

var initPath string

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [database-name]",
		Short: "Initialize a new memory database",
		Long: `Initialize a new memory database.

If no database name is provided, creates the default database.
The database will be created in the XDG data directory unless an
absolute path is provided with --path. Other commands create the
schema on first use, so init is only needed to pick a location up front.`,
		Example: `  memoria init
  memoria init work
  memoria init -p /tmp/memoria.db`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}

	cmd.Flags().StringVarP(&initPath, "path", "p", "", "Explicit path for database file")
	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	targetPath, err := initTarget(args)
	if err != nil {
		return err
	}

	if _, err := os.Stat(targetPath); err == nil {
		return fmt.Errorf("database already exists: %s", targetPath)
	}

	if err := db.EnsureDir(targetPath); err != nil {
		return err
	}

	store, err := db.Open(targetPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Init(context.WithoutCancel(cmd.Context())); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	p.PrintSuccess(fmt.Sprintf("Initialized %s", p.FormatPath(targetPath)))
	return nil
}

func initTarget(args []string) (string, error) {
	switch {
	case dbPath != "":
		return config.ResolveDatabasePath(dbPath)
	case initPath != "":
		return initPath, nil
	case len(args) > 0:
		return config.ResolveDatabasePath(args[0])
	default:
		return config.GetDefaultDatabase()
	}
}
