package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending store migrations",
		Long: `Apply pending database migrations to the configured store and print the
resulting schema version. serve migrates on startup as well; this command
is for deployments that migrate as a separate step.`,
		Example: `  playground migrate
  playground migrate --db-driver postgres --db postgres://localhost/playground`,
		RunE: runMigrate,
	}

	cmd.Flags().String("db-driver", "", "Store driver (sqlite|postgres)")
	cmd.Flags().String("db", "", "Store DSN: sqlite path or postgres URL")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cmd.Context(), cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	version, err := store.GetMigrationVersion()
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Store %s is at migration version %d\n", store.Dialect(), version)
	return nil
}
