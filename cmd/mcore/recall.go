package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aeonmind/mcore/internal/types"
)

var (
	recallWorkspace string
	recallLimit     int
	recallJSON      bool
)

var recallCmd = &cobra.Command{
	Use:     "recall <entity-id> <query>",
	GroupID: GroupRecall,
	Short:   "Run a scoped hybrid-search recall against an entity's memory",
	Args:    cobra.ExactArgs(2),
	RunE:    runRecall,
}

func init() {
	recallCmd.Flags().StringVar(&recallWorkspace, "workspace", "", "Memory Core workspace directory (default: ./.mcore)")
	recallCmd.Flags().IntVar(&recallLimit, "limit", 10, "Maximum number of results")
	recallCmd.Flags().BoolVar(&recallJSON, "json", false, "Output results as JSON")
	rootCmd.AddCommand(recallCmd)
}

func runRecall(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	workspace, err := workspaceDir(recallWorkspace)
	if err != nil {
		return err
	}
	core, err := openCore(ctx, workspace)
	if err != nil {
		return err
	}
	defer core.Close()

	items, err := core.RecallScoped(ctx, types.RecallQuery{
		EntityID: args[0],
		Query:    args[1],
		Limit:    recallLimit,
	})
	if err != nil {
		return fmt.Errorf("recall: %w", err)
	}

	if recallJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	if len(items) == 0 {
		fmt.Println("no results")
		return nil
	}
	for _, item := range items {
		value := item.Value
		if item.Redacted {
			value = "[redacted]"
		}
		fmt.Printf("%-32s score=%.4f  %s\n", item.SlotKey, item.Score, value)
	}
	return nil
}
