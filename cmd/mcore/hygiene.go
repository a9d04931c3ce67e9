package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aeonmind/mcore/internal/config"
	"github.com/aeonmind/mcore/internal/hygiene"
	"github.com/aeonmind/mcore/internal/storage/sqlite"
)

var (
	hygieneWorkspace string
	hygieneDaemon    bool
)

var hygieneCmd = &cobra.Command{
	Use:     "hygiene",
	GroupID: GroupMaintenance,
	Short:   "Retention sweep commands",
}

var hygieneRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one archive/purge sweep, or start the watching daemon with --daemon",
	RunE:  runHygieneRun,
}

func init() {
	hygieneRunCmd.Flags().StringVar(&hygieneWorkspace, "workspace", "", "Memory Core workspace directory (default: ./.mcore)")
	hygieneRunCmd.Flags().BoolVar(&hygieneDaemon, "daemon", false, "Run continuously, watching state/ and ticking hourly")
	hygieneCmd.AddCommand(hygieneRunCmd)
	rootCmd.AddCommand(hygieneCmd)
}

func runHygieneRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	workspace, err := workspaceDir(hygieneWorkspace)
	if err != nil {
		return err
	}
	if !config.GetBool("hygiene_enabled") {
		fmt.Println("hygiene_enabled is false; nothing to do")
		return nil
	}

	dbPath := workspace + "/memory/brain.db"
	db, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer db.Close()

	archiveAfterDays := config.GetInt("archive_after_days")
	purgeAfterDays := config.GetInt("purge_after_days")

	if !hygieneDaemon {
		report, err := hygiene.RunSweep(ctx, db, time.Now().UTC(),
			time.Duration(archiveAfterDays)*24*time.Hour, time.Duration(purgeAfterDays)*24*time.Hour)
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		fmt.Printf("archived=%d purged=%d\n", report.Archived, report.Purged)
		return nil
	}

	d, err := hygiene.NewDaemon(workspace, db, archiveAfterDays, purgeAfterDays, time.Hour)
	if err != nil {
		return fmt.Errorf("start hygiene daemon: %w", err)
	}
	return d.Run(ctx)
}
