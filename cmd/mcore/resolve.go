package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var resolveWorkspace string

var resolveCmd = &cobra.Command{
	Use:     "resolve <entity-id> <slot-key>",
	GroupID: GroupRecall,
	Short:   "Print the currently projected belief for one slot",
	Args:    cobra.ExactArgs(2),
	RunE:    runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveWorkspace, "workspace", "", "Memory Core workspace directory (default: ./.mcore)")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	workspace, err := workspaceDir(resolveWorkspace)
	if err != nil {
		return err
	}
	core, err := openCore(ctx, workspace)
	if err != nil {
		return err
	}
	defer core.Close()

	slot, err := core.ResolveSlot(ctx, args[0], args[1])
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	if slot == nil {
		fmt.Println("no active belief for this slot")
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(slot)
}
