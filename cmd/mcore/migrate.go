package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateWorkspace string

var migrateCmd = &cobra.Command{
	Use:     "migrate",
	GroupID: GroupMaintenance,
	Short:   "Apply any pending schema migrations",
	Long: `Opening the backend already runs pending migrations (spec: forward-only,
gated by memory_schema_version), so this command exists to let an operator
run that step explicitly and confirm it succeeded before starting the agent
process.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateWorkspace, "workspace", "", "Memory Core workspace directory (default: ./.mcore)")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	workspace, err := workspaceDir(migrateWorkspace)
	if err != nil {
		return err
	}
	backend, err := openBackend(ctx, workspace)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer backend.Close()

	fmt.Println("migrations applied")
	return nil
}
