package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	inspectWorkspace string
	inspectActor     string
)

var inspectCmd = &cobra.Command{
	Use:     "inspect <entity-id> <slot-key,...>",
	GroupID: GroupGovernance,
	Short:   "Inspect slot metadata without surfacing values (DSAR-safe)",
	Args:    cobra.ExactArgs(2),
	RunE:    runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectWorkspace, "workspace", "", "Memory Core workspace directory (default: ./.mcore)")
	inspectCmd.Flags().StringVar(&inspectActor, "actor", "", "Identity of the operator running this action (required)")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	workspace, err := workspaceDir(inspectWorkspace)
	if err != nil {
		return err
	}
	surface, backend, err := openGovernance(ctx, workspace)
	if err != nil {
		return err
	}
	defer backend.Close()

	slotKeys := strings.Split(args[1], ",")
	results, err := surface.Inspect(ctx, inspectActor, args[0], slotKeys)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
