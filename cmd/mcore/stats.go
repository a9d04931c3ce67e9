package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	statsWorkspace string
	statsEntity    string
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	GroupID: GroupMaintenance,
	Short:   "Print event counts and backend health",
	RunE:    runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsWorkspace, "workspace", "", "Memory Core workspace directory (default: ./.mcore)")
	statsCmd.Flags().StringVar(&statsEntity, "entity", "", "Restrict count to one entity_id (default: all entities)")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	workspace, err := workspaceDir(statsWorkspace)
	if err != nil {
		return err
	}
	core, err := openCore(ctx, workspace)
	if err != nil {
		return err
	}
	defer core.Close()

	if err := core.HealthCheck(ctx); err != nil {
		fmt.Printf("backend: unhealthy (%v)\n", err)
	} else {
		fmt.Println("backend: healthy")
	}

	count, err := core.CountEvents(ctx, statsEntity)
	if err != nil {
		return fmt.Errorf("count events: %w", err)
	}
	scope := statsEntity
	if scope == "" {
		scope = "(all entities)"
	}
	fmt.Printf("events[%s]: %d\n", scope, count)
	return nil
}
