package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"cobrancas/internal/core"
	"cobrancas/internal/ledger"
	"cobrancas/internal/normalize"
)

// Config selects the spreadsheet holding the agreements and how to authenticate.
type Config struct {
	SpreadsheetID string
	SheetName     string

	// Service account credentials: inline JSON wins over a file path.
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Client stores agreements as rows of a sheet. The first row holds the
// record keys; each later row is one agreement.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

var _ ledger.Store = (*Client)(nil)

// New creates a Sheets-backed ledger using service account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Clientes"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when no credentials are configured.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		var err error
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) readAll(ctx context.Context) ([][]any, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:Z", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// ListAgreements reads every agreement row.
func (c *Client) ListAgreements(ctx context.Context) ([]core.RawRecord, error) {
	values, err := c.readAll(ctx)
	if err != nil {
		return nil, err
	}
	_, records := parseRows(values)
	return records, nil
}

// CreateAgreement appends a row laid out after the sheet's header.
func (c *Client) CreateAgreement(ctx context.Context, n core.NewAgreement) (string, error) {
	if err := n.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	values, err := c.readAll(ctx)
	if err != nil {
		return "", err
	}
	headers, _ := parseRows(values)
	if len(headers) == 0 {
		return "", fmt.Errorf("sheet %s has no header row", c.sheet)
	}

	id := uuid.NewString()
	row := buildRow(headers, normalize.Record(id, n))

	rng := fmt.Sprintf("%s!A1", c.sheet)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheet, err)
	}
	return id, nil
}

// MarkPaid increments the paid count cell of agreement id.
func (c *Client) MarkPaid(ctx context.Context, id string) error {
	values, err := c.readAll(ctx)
	if err != nil {
		return err
	}
	headers, records := parseRows(values)
	i := ledger.IndexOf(records, id)
	if i < 0 {
		return ledger.ErrNotFound
	}
	key, paid, err := ledger.IncrementPaid(records[i])
	if err != nil {
		return err
	}
	col := indexOf(headers, key)
	for _, alt := range normalize.KeysFor(normalize.FieldInstallmentsPaid) {
		if col >= 0 {
			break
		}
		col = indexOf(headers, alt)
	}
	if col < 0 {
		return fmt.Errorf("sheet %s has no %s column", c.sheet, key)
	}

	// Data rows start at sheet row 2.
	cell := fmt.Sprintf("%s!%s%d", c.sheet, columnName(col), i+2)
	vr := &gsheet.ValueRange{Values: [][]any{{paid}}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, cell, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", cell, err)
	}
	return nil
}
