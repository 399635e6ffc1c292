package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"clubledger/internal/core"
	"clubledger/internal/report"
)

// GoogleWriter renders year-end reports into a Google Sheets
// spreadsheet, one sheet tab per fiscal year.
type GoogleWriter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

var _ ReportWriter = (*GoogleWriter)(nil)

// NewGoogleWriterFromEnv creates a writer using environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Credentials come from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. Optional: GOOGLE_SHEET_NAME, the base
// tab name (default "決算報告").
func NewGoogleWriterFromEnv(ctx context.Context) (*GoogleWriter, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetBase := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetBase == "" {
		sheetBase = "決算報告"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &GoogleWriter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetBase,
	}, nil
}

// newSheetsService initializes a Sheets Service. Service account
// credentials take priority; a user OAuth token (as minted by
// cmd/oauth-init) is the fallback for personal spreadsheets.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return newSheetsServiceOAuth(ctx)
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// newSheetsServiceOAuth authenticates with an OAuth client plus a
// previously saved user token.
func newSheetsServiceOAuth(ctx context.Context) (*gsheet.Service, error) {
	clientJSON, err := readEnvOrFile("GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE")
	if err != nil {
		return nil, err
	}
	if clientJSON == nil {
		return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_* or GOOGLE_OAUTH_CLIENT_* variables)")
	}
	cfg, err := google.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}

	tokenJSON, err := readEnvOrFile("GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE")
	if err != nil {
		return nil, err
	}
	if tokenJSON == nil {
		return nil, errors.New("missing oauth token (set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE, see cmd/oauth-init)")
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}

	service, err := gsheet.NewService(ctx,
		goption.WithTokenSource(cfg.TokenSource(ctx, &tok)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// readEnvOrFile returns the inline value of jsonVar, the contents of
// the file named by fileVar, or nil when neither is set.
func readEnvOrFile(jsonVar, fileVar string) ([]byte, error) {
	if v := strings.TrimSpace(os.Getenv(jsonVar)); v != "" {
		return []byte(v), nil
	}
	if path := strings.TrimSpace(os.Getenv(fileVar)); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fileVar, err)
		}
		return b, nil
	}
	return nil, nil
}

// WriteYearReport clears the year's tab and rewrites the full report.
// Exports are whole-document rewrites for the same reason collection
// writes are: the sheet always reflects one consistent report.
func (w *GoogleWriter) WriteYearReport(ctx context.Context, rep report.YearReport) (string, error) {
	if w.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheetName := fmt.Sprintf("%s %s", rep.Year.Name, w.sheetBase)
	rows := reportRows(rep)

	clearRange := fmt.Sprintf("%s!A:C", sheetName)
	if _, err := w.svc.Spreadsheets.Values.Clear(w.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear sheet %s: %w", sheetName, err)
	}

	writeRange := fmt.Sprintf("%s!A1:C%d", sheetName, len(rows))
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := w.svc.Spreadsheets.Values.Update(w.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("write report to %s: %w", sheetName, err)
	}

	slog.InfoContext(ctx, "Wrote year report to spreadsheet",
		"sheet", sheetName,
		"rows", len(rows))
	return writeRange, nil
}

// reportRows lays the report out as spreadsheet rows: the totals block
// followed by the income and expense breakdowns in stable name order.
func reportRows(rep report.YearReport) [][]any {
	rows := [][]any{
		{rep.Year.Name, string(rep.Year.StartMonth), string(rep.Year.EndMonth)},
		{"収入合計", rep.TotalIncome.Yen(), ""},
		{"支出合計", rep.TotalExpense.Yen(), ""},
		{"収支", rep.Balance.Yen(), ""},
		{"", "", ""},
	}
	rows = append(rows, breakdownRows("収入内訳", rep.IncomeByCategory)...)
	rows = append(rows, breakdownRows("支出内訳", rep.ExpenseByCategory)...)
	return rows
}

func breakdownRows(title string, byCategory map[string]core.Money) [][]any {
	rows := [][]any{{title, "", ""}}
	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rows = append(rows, []any{"", name, byCategory[name].Yen()})
	}
	return rows
}
