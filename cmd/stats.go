package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fiscal/internal/fiscal"
	"fiscal/internal/ledger"
	"fiscal/internal/logger"
	"fiscal/internal/summary"
	"fiscal/pkg/services"
)

var statsCmd = &cobra.Command{
	Use:   "stats [folder-path]",
	Short: "Show aggregate statistics for the XML documents in a folder",
	Long: `Decode all .xml files below a folder and print counts and totals by family,
status and pending bookkeeping step, plus the current month.

The same criteria flags as the import command restrict which documents are
counted.`,
	Example: `  # Statistics for a folder
  fiscal stats ./xml

  # Only invoices, as JSON
  fiscal stats ./xml --family nfe --json`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	addCriteriaFlags(statsCmd)
	statsCmd.Flags().Bool("json", false, "Print statistics as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("stats")

	c, err := requireConfig()
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	criteria, err := criteriaFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := createSignalContext(30*time.Minute, log)
	defer cancel()

	ledgerSvc := services.NewLedgerService(
		fiscal.NewService(fiscal.Options{MaxSize: c.MaxDocumentSize}),
		ledger.NewCatalog(),
		nil,
	)
	counts, err := importFolder(ctx, args[0], ledgerSvc, c.BatchWorkers, log, func(string) {})
	if err != nil {
		return err
	}

	stats := summary.Aggregate(summary.Filter(ledgerSvc.Summaries(), criteria), time.Now())

	if asJSON {
		return writeJSONOutput(stats, "", log)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Documents:           %d (value %s)\n", stats.Documents, stats.Value)
	fmt.Fprintf(out, "  NF-e:              %d (value %s)\n", stats.Invoices.Count, stats.Invoices.Value)
	fmt.Fprintf(out, "  CT-e:              %d (value %s)\n", stats.Waybills.Count, stats.Waybills.Value)
	fmt.Fprintf(out, "Month %s:        %d (value %s)\n", stats.Month, stats.MonthCount, stats.MonthValue)
	fmt.Fprintf(out, "Active/Canceled:     %d/%d\n", stats.Active, stats.Canceled)
	fmt.Fprintf(out, "Voided/Denied:       %d/%d\n", stats.Voided, stats.Denied)
	fmt.Fprintf(out, "Pending accounting:  %d\n", stats.PendingAccounting)
	fmt.Fprintf(out, "Pending stock:       %d\n", stats.PendingStock)
	fmt.Fprintf(out, "Pending payables:    %d\n", stats.PendingPayables)
	if stats.Unparsable > 0 {
		fmt.Fprintf(out, "Unparsable totals:   %d\n", stats.Unparsable)
	}
	if counts.Error > 0 || counts.Duplicates > 0 {
		fmt.Fprintf(out, "Skipped files:       %d errors, %d duplicates\n", counts.Error, counts.Duplicates)
	}
	return nil
}
