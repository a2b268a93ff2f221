package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/ponto/internal/model"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// valueInputOption stores cells as sent. Parsed input would read DD/MM dates in the sheet's locale.
const valueInputOption = "RAW"

// Scopes are the OAuth scopes the writer needs.
var Scopes = []string{sheets.SpreadsheetsScope, drive.DriveMetadataReadonlyScope}

// Writer appends identification records as rows of [name, date, time, photo file].
type Writer struct {
	service       *sheets.Service
	drive         *drive.Service
	logger        *slog.Logger
	spreadsheetID string
	config        Config
}

// NewWriter creates a new Google Sheets record writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	httpClient, err := newHTTPClient(ctx, config)
	if err != nil {
		return nil, err
	}

	sheetsSrv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	driveSrv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}

	return &Writer{
		service: sheetsSrv,
		drive:   driveSrv,
		logger:  logger,
		config:  config,
	}, nil
}

// newHTTPClient authenticates with either a service account key or an OAuth2 refresh token.
func newHTTPClient(ctx context.Context, config Config) (*http.Client, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := OAuthConfig(config.ClientID, config.ClientSecret, "")
		tokenSource = client.TokenSource(ctx, &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	return oauth2.NewClient(ctx, tokenSource), nil
}

// Name identifies the writer as a record sink.
func (w *Writer) Name() string {
	return "Google Sheets"
}

// Export appends the run's records.
func (w *Writer) Export(ctx context.Context, run model.RunSummary, records []*model.IdentificationRecord) error {
	w.logger.Info("appending records to spreadsheet", "run_id", run.ID, "records", len(records))
	return w.AppendRecords(ctx, records)
}

// AppendRecords appends one row per record, in batches.
func (w *Writer) AppendRecords(ctx context.Context, records []*model.IdentificationRecord) error {
	spreadsheetID, err := w.resolveSpreadsheet(ctx)
	if err != nil {
		return err
	}

	rows := RecordRows(records)
	for start := 0; start < len(rows); start += w.config.BatchSize {
		end := min(start+w.config.BatchSize, len(rows))
		vr := &sheets.ValueRange{Values: rows[start:end]}

		_, err := w.service.Spreadsheets.Values.Append(spreadsheetID, w.config.appendRange(), vr).
			ValueInputOption(valueInputOption).
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to append rows %d-%d: %w", start+1, end, err)
		}
	}

	w.logger.Info("records appended", "spreadsheet_id", spreadsheetID, "rows", len(rows))
	return nil
}

// RecordRows converts records into spreadsheet rows.
func RecordRows(records []*model.IdentificationRecord) [][]any {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.EmployeeName,
			model.FormatDate(r.Date),
			r.Time.String(),
			filepath.Base(r.SourcePhoto),
		})
	}
	return rows
}

// resolveSpreadsheet finds the target spreadsheet by ID, then by name in Drive, creating it as a last resort.
func (w *Writer) resolveSpreadsheet(ctx context.Context) (string, error) {
	if w.spreadsheetID != "" {
		return w.spreadsheetID, nil
	}

	if w.config.SpreadsheetID != "" {
		if _, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		w.spreadsheetID = w.config.SpreadsheetID
		return w.spreadsheetID, nil
	}

	list, err := w.drive.Files.List().
		Q(nameQuery(w.config.SpreadsheetName)).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("unable to search for spreadsheet %q: %w", w.config.SpreadsheetName, err)
	}
	if len(list.Files) > 0 {
		w.spreadsheetID = list.Files[0].Id
		return w.spreadsheetID, nil
	}

	created, err := w.service.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
			Locale:   "pt_BR",
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	w.spreadsheetID = created.SpreadsheetId
	return w.spreadsheetID, nil
}

// nameQuery builds a Drive search for a spreadsheet with exactly this name.
func nameQuery(name string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(name)
	return fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escaped, spreadsheetMimeType)
}
