package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aeonmind/mcore/internal/types"
)

var (
	ingestWorkspace  string
	ingestSourceKind string
	ingestSourceRef  string
	ingestSignalTier string
	ingestPrivacy    string
)

var ingestCmd = &cobra.Command{
	Use:     "ingest <entity-id> <content>",
	GroupID: GroupIngest,
	Short:   "Run a raw signal through the ingestion pipeline (normalize, classify, dedup, append)",
	Args:    cobra.ExactArgs(2),
	RunE:    runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestWorkspace, "workspace", "", "Memory Core workspace directory (default: ./.mcore)")
	ingestCmd.Flags().StringVar(&ingestSourceKind, "source-kind", string(types.SourceKindManual), "Ingestion origin: conversation, manual, discord, telegram, slack, api, news, document")
	ingestCmd.Flags().StringVar(&ingestSourceRef, "source-ref", "", "Opaque reference to the originating message/document")
	ingestCmd.Flags().StringVar(&ingestSignalTier, "signal-tier", string(types.TierRaw), "Signal maturity: raw, normalized, summary, belief")
	ingestCmd.Flags().StringVar(&ingestPrivacy, "privacy", string(types.PrivacyPrivate), "Privacy level: public, private, secret")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	workspace, err := workspaceDir(ingestWorkspace)
	if err != nil {
		return err
	}
	core, err := openCore(ctx, workspace)
	if err != nil {
		return err
	}
	defer core.Close()

	env := &types.SignalEnvelope{
		SourceKind:   types.SourceKind(ingestSourceKind),
		SourceRef:    ingestSourceRef,
		Content:      args[1],
		EntityID:     args[0],
		SignalTier:   types.SignalTier(ingestSignalTier),
		PrivacyLevel: types.PrivacyLevel(ingestPrivacy),
		IngestedAt:   time.Now().UTC(),
	}

	event, duplicate, err := core.Ingest(ctx, env, nil)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	if duplicate {
		fmt.Println("duplicate signal, dropped")
		return nil
	}
	fmt.Printf("appended event %s slot=%s\n", event.EventID, event.SlotKey)
	return nil
}
