package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"fiscal/internal/fiscal"
	"fiscal/internal/logger"
	"fiscal/internal/summary"
	"fiscal/pkg/models"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [xml-file]",
	Short: "Decode one NF-e or CT-e XML document to JSON",
	Long: `Decode a single authorized NF-e (goods invoice) or CT-e (transport waybill)
XML document into its structured record and print it as JSON.

The document family is detected from the XML root. Both the bare document and
the form wrapped with the authorization protocol (nfeProc, cteProc) are
accepted. Monetary values keep the exact text found in the XML.

Optional environment variables:
  MAX_DOCUMENT_SIZE - Largest accepted file in bytes (default: 10485760)`,
	Example: `  # Decode to stdout
  fiscal decode 35240112345678000190550010000012341000012345-nfe.xml

  # Print only the uniform summary
  fiscal decode nfe.xml --summary

  # Check that declared totals match their components
  fiscal decode nfe.xml --check-totals -o nfe.json`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

// DecodeOutput represents the JSON output of the decode command
type DecodeOutput struct {
	Document      *models.Document     `json:"document"`
	Summary       models.Summary       `json:"summary"`
	Discrepancies []fiscal.Discrepancy `json:"discrepancies,omitempty"`
	Metadata      DecodeMetadata       `json:"metadata"`
}

// DecodeMetadata contains information about the decode operation
type DecodeMetadata struct {
	FileName           string        `json:"file_name"`
	FileSize           int64         `json:"file_size_bytes"`
	ProcessedAt        time.Time     `json:"processed_at"`
	ProcessingDuration time.Duration `json:"processing_duration"`
	TotalsChecked      bool          `json:"totals_checked"`
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	decodeCmd.Flags().Bool("summary", false, "Print only the uniform summary")
	decodeCmd.Flags().Bool("check-totals", false, "Verify declared totals against their components")
	decodeCmd.Flags().Int("timeout", 30, "Processing timeout in seconds")
}

func runDecode(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("decode")

	c, err := requireConfig()
	if err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	summaryOnly, _ := cmd.Flags().GetBool("summary")
	checkTotals, _ := cmd.Flags().GetBool("check-totals")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	xmlPath := args[0]

	log.Info().
		Str("file", xmlPath).
		Str("output", outputPath).
		Bool("summary", summaryOnly).
		Bool("check_totals", checkTotals).
		Msg("Starting document decoding")

	fileInfo, err := validateXMLFile(xmlPath, c.MaxDocumentSize, log)
	if err != nil {
		return err
	}

	ctx, cancel := createSignalContext(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	file, err := os.Open(xmlPath)
	if err != nil {
		return fmt.Errorf("failed to open XML file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close XML file")
		}
	}()

	service := fiscal.NewService(fiscal.Options{CheckTotals: checkTotals, MaxSize: c.MaxDocumentSize})

	startTime := time.Now()
	result, err := service.Process(ctx, file)
	if err != nil {
		return handleDecodeError(err, log)
	}
	processingDuration := time.Since(startTime)

	projected := summary.Project(result.Document)

	log.Info().
		Str("family", string(result.Document.Family)).
		Str("access_key", projected.AccessKey).
		Str("total", projected.Total.String()).
		Int("discrepancies", len(result.Discrepancies)).
		Dur("duration", processingDuration).
		Msg("Document decoded successfully")

	for _, d := range result.Discrepancies {
		log.Warn().
			Str("field", d.Field).
			Str("expected", d.Expected).
			Str("declared", d.Declared).
			Msg(d.Message)
	}

	var output any = DecodeOutput{
		Document:      result.Document,
		Summary:       projected,
		Discrepancies: result.Discrepancies,
		Metadata: DecodeMetadata{
			FileName:           filepath.Base(fileInfo.Name()),
			FileSize:           fileInfo.Size(),
			ProcessedAt:        time.Now(),
			ProcessingDuration: processingDuration,
			TotalsChecked:      checkTotals,
		},
	}
	if summaryOnly {
		output = projected
	}

	return writeJSONOutput(output, outputPath, log)
}

// validateXMLFile validates the file before decoding. maxSize is the
// configured document limit in bytes.
func validateXMLFile(xmlPath string, maxSize int64, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(xmlPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("XML file not found: %s", xmlPath)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("permission denied accessing XML file: %s", xmlPath)
		}
		return nil, fmt.Errorf("error accessing XML file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("path is not a regular file: %s", xmlPath)
	}

	if !strings.EqualFold(filepath.Ext(xmlPath), ".xml") {
		log.Warn().
			Str("file", xmlPath).
			Msg("File does not have .xml extension")
	}

	if fileInfo.Size() == 0 {
		return nil, fmt.Errorf("XML file is empty: %s", xmlPath)
	}

	if fileInfo.Size() > maxSize {
		log.Error().
			Str("file", xmlPath).
			Int64("size", fileInfo.Size()).
			Int64("max_size", maxSize).
			Msg("XML file exceeds maximum size limit")
		return nil, fmt.Errorf("XML file too large (%d bytes), maximum is %d bytes",
			fileInfo.Size(), maxSize)
	}

	return fileInfo, nil
}

// createSignalContext creates a context canceled on timeout or interrupt.
// A non-positive timeout means no deadline.
func createSignalContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// handleDecodeError provides user-friendly error messages for decode failures
func handleDecodeError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Str("reason", fiscal.FailureReason(err)).Msg("Document decoding failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("decoding timed out, try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("decoding was canceled")
	case errors.Is(err, fiscal.ErrMalformedDocument):
		return fmt.Errorf("the file is not well-formed XML: %w", err)
	case errors.Is(err, fiscal.ErrUnrecognizedDocumentType):
		return fmt.Errorf("the XML is neither an NF-e nor a CT-e: %w", err)
	case errors.Is(err, fiscal.ErrMissingRequiredSection):
		return fmt.Errorf("the document lacks a required section: %w", err)
	case errors.Is(err, fiscal.ErrDocumentTooLarge):
		return fmt.Errorf("the document exceeds the size limit: %w", err)
	default:
		return fmt.Errorf("decoding failed: %w", err)
	}
}

// writeJSONOutput writes v as indented JSON to outputPath, or stdout when empty
func writeJSONOutput(v any, outputPath string, log zerolog.Logger) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, jsonData, 0o644); err != nil {
			log.Error().
				Err(err).
				Str("output_file", outputPath).
				Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}

		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(jsonData)).
			Msg("Output written to file")
		return nil
	}

	if _, err := os.Stdout.Write(append(jsonData, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
