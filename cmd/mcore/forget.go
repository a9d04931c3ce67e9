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
	forgetWorkspace string
	forgetActor     string
	forgetMode      string
	forgetReason    string
)

var forgetCmd = &cobra.Command{
	Use:     "forget <entity-id> <slot-key>",
	GroupID: GroupGovernance,
	Short:   "Delete a slot via the soft/hard/tombstone protocol",
	Args:    cobra.ExactArgs(2),
	RunE:    runForget,
}

func init() {
	forgetCmd.Flags().StringVar(&forgetWorkspace, "workspace", "", "Memory Core workspace directory (default: ./.mcore)")
	forgetCmd.Flags().StringVar(&forgetActor, "actor", "", "Identity of the operator running this action (required)")
	forgetCmd.Flags().StringVar(&forgetMode, "mode", "soft", "Delete mode: soft, hard, or tombstone")
	forgetCmd.Flags().StringVar(&forgetReason, "reason", "", "Reason recorded in the deletion ledger")
	rootCmd.AddCommand(forgetCmd)
}

func runForget(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	workspace, err := workspaceDir(forgetWorkspace)
	if err != nil {
		return err
	}
	surface, backend, err := openGovernance(ctx, workspace)
	if err != nil {
		return err
	}
	defer backend.Close()

	outcome, err := surface.Delete(ctx, forgetActor, args[0], args[1], types.ForgetMode(forgetMode), forgetReason)
	if err != nil {
		return fmt.Errorf("forget: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(outcome)
}
