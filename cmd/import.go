package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"fiscal/internal/batch"
	"fiscal/internal/fiscal"
	"fiscal/internal/ledger"
	"fiscal/internal/logger"
	"fiscal/internal/sheets"
	"fiscal/internal/summary"
	"fiscal/pkg/models"
	"fiscal/pkg/services"
)

var importCmd = &cobra.Command{
	Use:   "import [folder-path]",
	Short: "Decode every XML document in a folder and list the result",
	Long: `Decode all .xml files below a folder in parallel, add them to a catalog and
list their summaries. Duplicate documents (same access key or same content)
are reported and skipped.

Criteria flags narrow the listing; every criterion given must match. Dates use
YYYY-MM-DD and bound the issue day inclusively. A date with a time of day
(RFC 3339) bounds the exact instant instead. Values use a dot or a comma as
decimal separator.

Optional environment variables:
  BATCH_WORKERS - Number of parallel workers (default: 8)
  CHECK_TOTALS - Verify declared totals (default: false)
  MAX_DOCUMENT_SIZE - Largest accepted file in bytes (default: 10485760)
  GOOGLE_SHEET_URL - Spreadsheet for --sheet
  GOOGLE_SHEET_WORKSHEET - Worksheet name (default: Documentos)
  GOOGLE_SERVICE_ACCOUNT_KEY - Service account key file or JSON`,
	Example: `  # Import and list everything
  fiscal import ./xml

  # Only canceled invoices from January
  fiscal import ./xml --family nfe --status cancelada --start-date 2024-01-01 --end-date 2024-01-31

  # Waybills above 1000 issued by a carrier, as JSON
  fiscal import ./xml --family cte --min-value 1000 --issuer-tax-id 98.765.432/0001-10 --json

  # Export the listing to Google Sheets
  fiscal import ./xml --sheet`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// criteriaFlags maps command line flags to filter parameters.
var criteriaFlags = []struct {
	flag  string
	param string
	usage string
}{
	{"family", summary.ParamFamily, "Document family: nfe or cte"},
	{"start-date", summary.ParamStartDate, "Issued on or after this day (YYYY-MM-DD)"},
	{"end-date", summary.ParamEndDate, "Issued on or before this day (YYYY-MM-DD)"},
	{"number", summary.ParamNumber, "Document number contains"},
	{"series", summary.ParamSeries, "Series equals"},
	{"access-key", summary.ParamAccessKey, "Access key contains"},
	{"issuer-tax-id", summary.ParamIssuerTaxID, "Issuer CNPJ/CPF contains (punctuation ignored)"},
	{"issuer-name", summary.ParamIssuerName, "Issuer name contains (case and accents ignored)"},
	{"recipient-tax-id", summary.ParamRecipientTaxID, "Recipient CNPJ/CPF contains (punctuation ignored)"},
	{"recipient-name", summary.ParamRecipientName, "Recipient name contains (case and accents ignored)"},
	{"cfop", summary.ParamCFOP, "CFOP contains"},
	{"min-value", summary.ParamMinValue, "Total at least"},
	{"max-value", summary.ParamMaxValue, "Total at most"},
	{"status", summary.ParamStatus, "Status: ativa, cancelada, inutilizada, denegada or todas"},
	{"accounted", summary.ParamAccounted, "Accounted flag: true or false"},
	{"stock-posted", summary.ParamStockPosted, "Stock flag (invoices only): true or false"},
	{"payables-posted", summary.ParamPayablesPosted, "Payables flag: true or false"},
}

func addCriteriaFlags(cmd *cobra.Command) {
	for _, f := range criteriaFlags {
		cmd.Flags().String(f.flag, "", f.usage)
	}
}

// criteriaFromFlags builds filter criteria from the flags that were set.
func criteriaFromFlags(cmd *cobra.Command) (summary.Criteria, error) {
	values := url.Values{}
	for _, f := range criteriaFlags {
		if cmd.Flags().Changed(f.flag) {
			v, _ := cmd.Flags().GetString(f.flag)
			values.Set(f.param, v)
		}
	}
	criteria := summary.CriteriaFromValues(values)
	if criteria.Invalid {
		return criteria, fmt.Errorf("invalid filter criteria: %v", values)
	}
	return criteria, nil
}

func init() {
	rootCmd.AddCommand(importCmd)

	addCriteriaFlags(importCmd)
	importCmd.Flags().Bool("json", false, "Print summaries as JSON")
	importCmd.Flags().Bool("sheet", false, "Export the listed summaries to Google Sheets")
	importCmd.Flags().Bool("dry-run", false, "With --sheet, process files but don't write to the sheet")
	importCmd.Flags().Bool("verbose", false, "Show one line per processed file")
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import")

	c, err := requireConfig()
	if err != nil {
		return err
	}

	folderPath := args[0]
	asJSON, _ := cmd.Flags().GetBool("json")
	toSheet, _ := cmd.Flags().GetBool("sheet")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")

	criteria, err := criteriaFromFlags(cmd)
	if err != nil {
		return err
	}
	if toSheet && !dryRun {
		if err := c.ValidateSheets(); err != nil {
			return err
		}
	}

	ctx, cancel := createSignalContext(30*time.Minute, log)
	defer cancel()

	ledgerSvc := services.NewLedgerService(
		fiscal.NewService(fiscal.Options{CheckTotals: c.CheckTotals, MaxSize: c.MaxDocumentSize}),
		ledger.NewCatalog(),
		nil,
	)

	out := cmd.OutOrStdout()
	if asJSON {
		out = cmd.ErrOrStderr()
	}

	counts, err := importFolder(ctx, folderPath, ledgerSvc, c.BatchWorkers, log, func(line string) {
		if verbose {
			fmt.Fprintln(out, line)
		}
	})
	if err != nil {
		return err
	}

	docs := summary.Filter(ledgerSvc.Summaries(), criteria)

	if asJSON {
		if err := writeJSONOutput(docs, "", log); err != nil {
			return err
		}
	} else {
		printSummaries(cmd, docs)
		fmt.Fprintf(cmd.OutOrStdout(), "\nSuccess: %d  Warnings: %d  Errors: %d  Duplicates: %d  Listed: %d\n",
			counts.Success, counts.Warning, counts.Error, counts.Duplicates, len(docs))
	}

	if toSheet && !dryRun {
		svc, err := sheets.NewSheetsService(ctx, c.GoogleSheetURL, c.GoogleServiceAccountKey)
		if err != nil {
			return fmt.Errorf("failed to create Google Sheets service: %w", err)
		}
		written, err := svc.ExportSummaries(ctx, docs, c.GoogleSheetWorksheet)
		if err != nil {
			return fmt.Errorf("failed to write to Google Sheet: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Sheet %q: %d rows added\n", c.GoogleSheetWorksheet, written)
	}

	log.Info().
		Str("folder", folderPath).
		Int("success", counts.Success).
		Int("warnings", counts.Warning).
		Int("errors", counts.Error).
		Int("duplicates", counts.Duplicates).
		Int("listed", len(docs)).
		Msg("Import completed")

	return nil
}

// importCounts extends the batch counts with duplicates rejected by the catalog.
type importCounts struct {
	batch.Counts
	Duplicates int
}

// importFolder decodes every XML file below folderPath with ledgerSvc's
// decoder and stores the results. progress receives one printable line per file.
func importFolder(
	ctx context.Context,
	folderPath string,
	ledgerSvc *services.LedgerService,
	workers int,
	log zerolog.Logger,
	progress func(string),
) (importCounts, error) {
	var counts importCounts

	files, err := batch.FindXMLFiles(folderPath)
	if err != nil {
		return counts, fmt.Errorf("failed to find XML files: %w", err)
	}
	if len(files) == 0 {
		log.Warn().Str("folder", folderPath).Msg("No XML files found")
		return counts, nil
	}

	log.Info().
		Str("folder", folderPath).
		Int("files", len(files)).
		Int("workers", workers).
		Msg("Decoding documents")

	processor := batch.NewProcessor(ledgerSvc.Decoder(), workers).OnProgress(func(done, total int, r batch.Result) {
		line := fmt.Sprintf("[%d/%d] %s - %s", done, total, r.Filename(), statusLabel(r.Status))
		if r.Err != nil {
			line += fmt.Sprintf(" (%s)", r.Err)
		}
		progress(line)
	})

	results, err := processor.Run(ctx, files)
	if err != nil {
		return counts, err
	}
	counts.Counts = batch.Count(results)

	for _, r := range results {
		if r.Result == nil {
			continue
		}
		if _, err := ledgerSvc.Store(r.Path, r.Raw, r.Result); err != nil {
			if errors.Is(err, ledger.ErrDuplicateDocument) {
				counts.Duplicates++
				log.Warn().Str("file", r.Path).Err(err).Msg("Skipping duplicate document")
				continue
			}
			return counts, err
		}
	}

	return counts, nil
}

// statusLabel returns a short label for the processing status
func statusLabel(status string) string {
	switch status {
	case batch.StatusSuccess:
		return "ok"
	case batch.StatusWarning:
		return "warning: totals differ"
	default:
		return "error"
	}
}

func printSummaries(cmd *cobra.Command, docs []models.Summary) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNUMBER\tSERIES\tISSUED\tISSUER\tRECIPIENT\tCFOP\tTOTAL\tSTATUS")
	for _, d := range docs {
		issued := d.IssuedAt
		if t, ok := summary.ParseIssueDate(d.IssuedAt); ok {
			issued = t.Format(time.DateOnly)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			strings.ToUpper(string(d.Family)), d.Number, d.Series, issued,
			truncate(d.IssuerName, 30), truncate(d.RecipientName, 30),
			d.CFOP, d.Total.String(), d.Status)
	}
	tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
