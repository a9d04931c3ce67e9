package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aeonmind/mcore/internal/governance"
)

var (
	exportWorkspace               string
	exportActor                   string
	exportIncludeRedactedMetadata bool
)

var exportCmd = &cobra.Command{
	Use:     "export <entity-id> <slot-key,...>",
	GroupID: GroupGovernance,
	Short:   "Export slot values for a DSAR request, redacting private/secret slots",
	Args:    cobra.ExactArgs(2),
	RunE:    runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportWorkspace, "workspace", "", "Memory Core workspace directory (default: ./.mcore)")
	exportCmd.Flags().StringVar(&exportActor, "actor", "", "Identity of the operator running this action (required)")
	exportCmd.Flags().BoolVar(&exportIncludeRedactedMetadata, "include-redacted-metadata", false,
		"Surface the non-sensitive source field for redacted entries; never surfaces the value itself")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	workspace, err := workspaceDir(exportWorkspace)
	if err != nil {
		return err
	}
	surface, backend, err := openGovernance(ctx, workspace)
	if err != nil {
		return err
	}
	defer backend.Close()

	slotKeys := strings.Split(args[1], ",")
	entries, err := surface.Export(ctx, exportActor, args[0], slotKeys, governance.ExportOptions{
		IncludeRedactedMetadata: exportIncludeRedactedMetadata,
	})
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
