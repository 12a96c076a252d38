// Package google mirrors imported transactions into a Google Sheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spaar/internal/core"
	"spaar/internal/log"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Transacties"); the year of each
	// transaction is prefixed.
	sheetBase string
	logger    *log.Logger
}

// Credentials selects the service account used to talk to the Sheets API.
// JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Transacties"),
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, logger *log.Logger) (*Client, error) {
	creds := Credentials{
		JSON: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
		File: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")),
	}
	if creds.JSON == "" && creds.File == "" {
		creds.File = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return New(ctx,
		os.Getenv("GOOGLE_SPREADSHEET_ID"),
		os.Getenv("GOOGLE_SHEET_NAME"),
		creds, logger)
}

func New(ctx context.Context, spreadsheetID, sheetBase string, creds Credentials, logger *log.Logger) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetBase = strings.TrimSpace(sheetBase)
	if sheetBase == "" {
		sheetBase = "Transacties"
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, creds, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetBase,
		logger:        logger,
	}, nil
}

func newSheetsService(ctx context.Context, creds Credentials, logger *log.Logger) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case creds.JSON != "":
		logger.DebugContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(creds.JSON)
	case creds.File != "":
		var err error
		credentialsJSON, err = os.ReadFile(creds.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		logger.DebugContext(ctx, "Read service account file", "path", creds.File)
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// SaveTransactions appends one row per transaction to the sheet of the
// transaction's year. Sheets must already exist.
func (c *Client) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	for _, year := range yearsOf(txs) {
		sheet := yearPrefixedName(c.sheetBase, year)
		rows := transactionRows(txs, year)
		vr := &gsheet.ValueRange{Values: rows}

		resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, sheet+"!A:F", vr).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("append %d rows to sheet %s: %w", len(rows), sheet, err)
		}

		updated := ""
		if resp.Updates != nil {
			updated = resp.Updates.UpdatedRange
		}
		c.logger.InfoContext(ctx, "Appended transactions to sheet",
			log.FieldSheetsRange, updated,
			"rows", len(rows),
			log.FieldOperation, log.OpAppend)
	}
	return nil
}

func yearsOf(txs []core.Transaction) []int {
	seen := map[int]bool{}
	var years []int
	for _, tx := range txs {
		if y := tx.Date.Year(); !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

// transactionRows shapes the transactions of one year into sheet rows, in
// input order: date, description, amount, direction, category, tags. Debits
// are written as negative amounts.
func transactionRows(txs []core.Transaction, year int) [][]any {
	var rows [][]any
	for _, tx := range txs {
		if tx.Date.Year() != year {
			continue
		}
		category := ""
		if tx.CategoryID != nil {
			category = *tx.CategoryID
		}
		rows = append(rows, []any{
			tx.Date.Format("2006-01-02"),
			tx.Description,
			tx.SignedAmount().InexactFloat64(),
			string(tx.Direction),
			category,
			strings.Join(tx.Tags, ", "),
		})
	}
	return rows
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
