package cmd

import (
	"github.com/spf13/cobra"

	"fiscal/internal/api"
	"fiscal/internal/fiscal"
	"fiscal/internal/ledger"
	"fiscal/internal/logger"
	"fiscal/internal/metrics"
	"fiscal/pkg/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve the document catalog over HTTP.

Endpoints:
  POST  /documents               import one XML document (raw body or multipart "file")
  GET   /documents               list summaries, filtered by query parameters
  GET   /documents/{id}          decoded document and summary
  PATCH /documents/{id}/ledger   update accounted, stock_posted, payables_posted, notes
  GET   /stats                   aggregate statistics
  GET   /metrics                 Prometheus metrics
  GET   /health                  liveness

Optional environment variables:
  HTTP_ADDR - Listen address (default: :8080)
  CHECK_TOTALS - Verify declared totals on import (default: false)
  ENTRY_USER - Recorded on ledger updates without an X-User header`,
	Example: `  # Serve on the default address
  fiscal serve

  # Preload a folder and listen on another port
  fiscal serve --addr :9090 --load ./xml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: HTTP_ADDR)")
	serveCmd.Flags().String("load", "", "Folder of XML documents to import at startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	c, err := requireConfig()
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = c.HTTPAddr
	}
	loadPath, _ := cmd.Flags().GetString("load")

	ctx, cancel := createSignalContext(0, log)
	defer cancel()

	m := metrics.New()
	ledgerSvc := services.NewLedgerService(
		fiscal.NewService(fiscal.Options{CheckTotals: c.CheckTotals, MaxSize: c.MaxDocumentSize, Observer: m}),
		ledger.NewCatalog(),
		m,
	)

	if loadPath != "" {
		counts, err := importFolder(ctx, loadPath, ledgerSvc, c.BatchWorkers, log, func(string) {})
		if err != nil {
			return err
		}
		log.Info().
			Str("folder", loadPath).
			Int("loaded", counts.Success+counts.Warning-counts.Duplicates).
			Int("errors", counts.Error).
			Msg("Preloaded documents")
	}

	server := api.NewServer(ledgerSvc, m, api.Options{
		MaxDocumentSize: c.MaxDocumentSize,
		EntryUser:       c.EntryUser,
	})
	return server.ListenAndServe(ctx, addr, c.ShutdownTimeout)
}
