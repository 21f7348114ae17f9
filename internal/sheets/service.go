package sheets

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"fiscal/internal/logger"
	"fiscal/pkg/models"
)

// lastColumn is the rightmost column written by the export.
const lastColumn = "P"

// accessKeyColumn holds the access key, used to skip rows already exported.
const accessKeyColumn = "D"

var headers = []interface{}{
	"Tipo", "Número", "Série", "Chave de Acesso", "Emissão", "Emitente",
	"CNPJ/CPF Emitente", "Destinatário", "CNPJ/CPF Destinatário", "CFOP",
	"Valor", "Situação", "Contabilizado", "Estoque", "Contas a Pagar", "Entrada",
}

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// Service handles Google Sheets operations
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// NewSheetsService creates a Google Sheets service authenticated with a
// service account. credentials is either a path to the key file or the JSON
// itself; when empty, GOOGLE_APPLICATION_CREDENTIALS is used.
func NewSheetsService(ctx context.Context, sheetURL, credentials string) (*Service, error) {
	const op = "NewSheetsService"

	creds, err := loadCredentials(credentials)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	return NewSheetsServiceWithOptions(ctx, sheetURL, option.WithHTTPClient(config.Client(ctx)))
}

// NewSheetsServiceWithOptions creates a service with explicit client options.
func NewSheetsServiceWithOptions(ctx context.Context, sheetURL string, opts ...option.ClientOption) (*Service, error) {
	const op = "NewSheetsService"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	sheetsService, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           log,
	}, nil
}

func loadCredentials(credentials string) ([]byte, error) {
	if credentials == "" {
		credentials = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	switch {
	case credentials == "":
		return nil, fmt.Errorf("no service account credentials configured")
	case strings.HasPrefix(strings.TrimSpace(credentials), "{"):
		return []byte(credentials), nil
	default:
		creds, err := os.ReadFile(credentials)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return creds, nil
	}
}

// extractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format")
	}
	return matches[1], nil
}

// ExportSummaries appends one row per summary to sheetName. Rows whose access
// key is already present in the sheet are skipped. It returns the number of
// rows written.
func (s *Service) ExportSummaries(ctx context.Context, docs []models.Summary, sheetName string) (int, error) {
	const op = "ExportSummaries"

	s.log.Info().
		Str("sheet", sheetName).
		Int("documents", len(docs)).
		Msg("Exporting documents to Google Sheet")

	if err := s.ensureSheetWithHeaders(ctx, sheetName); err != nil {
		return 0, fmt.Errorf("%s: failed to ensure sheet exists: %w", op, err)
	}

	existing, err := s.exportedKeys(ctx, sheetName)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var values [][]interface{}
	for _, doc := range docs {
		if doc.AccessKey != "" && existing[doc.AccessKey] {
			continue
		}
		values = append(values, SummaryRow(doc))
	}

	if len(values) == 0 {
		s.log.Info().Msg("Nothing new to export")
		return 0, nil
	}

	_, err = s.sheetsService.Spreadsheets.Values.Append(
		s.spreadsheetID,
		fmt.Sprintf("%s!A:%s", sheetName, lastColumn),
		&sheets.ValueRange{Values: values},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}

	s.log.Info().
		Int("rows_written", len(values)).
		Int("skipped", len(docs)-len(values)).
		Msg("Successfully exported documents to Google Sheet")

	return len(values), nil
}

func (s *Service) exportedKeys(ctx context.Context, sheetName string) (map[string]bool, error) {
	rows, err := s.ReadRange(ctx, fmt.Sprintf("%s!%s2:%s", sheetName, accessKeyColumn, accessKeyColumn))
	if err != nil {
		return nil, err
	}
	keys := make(map[string]bool, len(rows))
	for _, row := range rows {
		if len(row) > 0 {
			keys[fmt.Sprint(row[0])] = true
		}
	}
	return keys, nil
}

// SummaryRow converts a summary to sheet cells, columns A to P.
func SummaryRow(doc models.Summary) []interface{} {
	issued := doc.IssuedAt
	if t, err := time.Parse(time.RFC3339, doc.IssuedAt); err == nil {
		issued = t.Format("02/01/2006 15:04")
	}
	entered := ""
	if doc.EnteredAt != nil {
		entered = doc.EnteredAt.Format("02/01/2006 15:04")
	}
	stock := "-"
	if doc.StockPosted != nil {
		stock = yesNo(*doc.StockPosted)
	}

	return []interface{}{
		familyLabel(doc.Family),   // A: Tipo
		doc.Number,                // B: Número
		doc.Series,                // C: Série
		doc.AccessKey,             // D: Chave de Acesso
		issued,                    // E: Emissão
		doc.IssuerName,            // F: Emitente
		doc.IssuerTaxID,           // G: CNPJ/CPF Emitente
		doc.RecipientName,         // H: Destinatário
		doc.RecipientTaxID,        // I: CNPJ/CPF Destinatário
		doc.CFOP,                  // J: CFOP
		doc.Total.String(),        // K: Valor
		doc.Status,                // L: Situação
		yesNo(doc.Accounted),      // M: Contabilizado
		stock,                     // N: Estoque
		yesNo(doc.PayablesPosted), // O: Contas a Pagar
		entered,                   // P: Entrada
	}
}

func familyLabel(f models.Family) string {
	switch f {
	case models.FamilyInvoice:
		return "NF-e"
	case models.FamilyWaybill:
		return "CT-e"
	default:
		return string(f)
	}
}

func yesNo(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}

// ensureSheetWithHeaders ensures the sheet exists and has proper headers
func (s *Service) ensureSheetWithHeaders(ctx context.Context, sheetName string) error {
	const op = "ensureSheetWithHeaders"

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	var sheetExists bool
	var sheetID int64
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == sheetName {
			sheetExists = true
			sheetID = sheet.Properties.SheetId
			break
		}
	}

	if !sheetExists {
		s.log.Info().Str("sheet", sheetName).Msg("Creating new sheet")

		batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: sheetName}}},
			},
		}

		resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sheet: %w", op, err)
		}

		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}

	headerRange := fmt.Sprintf("%s!A1:%s1", sheetName, lastColumn)
	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get headers: %w", op, err)
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		s.log.Info().Str("sheet", sheetName).Msg("Adding headers to sheet")

		_, err = s.sheetsService.Spreadsheets.Values.Update(
			s.spreadsheetID,
			headerRange,
			&sheets.ValueRange{Values: [][]interface{}{headers}},
		).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to add headers: %w", op, err)
		}

		if err := s.formatHeaders(ctx, sheetID); err != nil {
			s.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
		}
	}

	return nil
}

// formatHeaders makes the header row bold and freezes it
func (s *Service) formatHeaders(ctx context.Context, sheetID int64) error {
	const op = "formatHeaders"

	columns := int64(len(headers))
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat:      &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
	}

	batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	if _, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}

	return nil
}

// ReadRange reads values from a specified range in the spreadsheet
func (s *Service) ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error) {
	const op = "ReadRange"

	s.log.Debug().
		Str("range", rangeSpec).
		Msg("Reading range from spreadsheet")

	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, rangeSpec).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read range %s: %w", op, rangeSpec, err)
	}

	s.log.Debug().
		Int("rows", len(resp.Values)).
		Str("range", rangeSpec).
		Msg("Successfully read range from spreadsheet")

	return resp.Values, nil
}
