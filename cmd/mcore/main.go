// Command mcore is the CLI front end for the Memory Core: governance
// actions (inspect/export/forget), operator recall/resolve queries,
// ingestion of external signals, and maintenance (migrate/stats). One
// file per subcommand under GroupID-tagged groups, following the
// teacher's cmd/bd layout.
package main

import (
	"fmt"
	"os"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/spf13/cobra"

	"github.com/aeonmind/mcore/internal/config"
)

// Group IDs mirror the teacher's GroupMaintenance/GroupCore convention,
// grouping subcommands in `mcore --help`'s output.
const (
	GroupRecall      = "recall"
	GroupGovernance  = "governance"
	GroupIngest      = "ingest"
	GroupMaintenance = "maintenance"
)

var rootCmd = &cobra.Command{
	Use:           "mcore",
	Short:         "Memory Core: append-only belief store and hybrid recall for long-running agents",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupRecall, Title: "Recall commands:"},
		&cobra.Group{ID: GroupGovernance, Title: "Governance commands:"},
		&cobra.Group{ID: GroupIngest, Title: "Ingest commands:"},
		&cobra.Group{ID: GroupMaintenance, Title: "Maintenance commands:"},
	)
}

func main() {
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "mcore: config: %v\n", err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mcore: %v\n", err)
		os.Exit(1)
	}
}
