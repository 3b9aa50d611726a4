package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"remont/internal/core"
	"remont/internal/ports"
	"remont/internal/sheets"
)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
	ExpensesSheet      string
	BudgetPrefix       string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	expensesSheet string
	budgetPrefix  string

	// mu serializes writes so the duplicate check and the append of an
	// expense row cannot interleave.
	mu       sync.Mutex
	sheetIDs map[string]int64
}

var _ ports.Exporter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, cfg), nil
}

func newClient(svc *gsheet.Service, cfg Config) *Client {
	expenses := strings.TrimSpace(cfg.ExpensesSheet)
	if expenses == "" {
		expenses = sheets.DefaultExpensesSheet
	}
	prefix := strings.TrimSpace(cfg.BudgetPrefix)
	if prefix == "" {
		prefix = sheets.DefaultBudgetPrefix
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		expensesSheet: expenses,
		budgetPrefix:  prefix,
		sheetIDs:      make(map[string]int64),
	}
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
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		raw, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = raw
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// AppendExpense adds one row to the expenses tab. An expense already present
// is not appended twice, so retried outbox items are harmless.
func (c *Client) AppendExpense(ctx context.Context, e core.Expense) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.ensureSheet(ctx, c.expensesSheet, sheets.ExpenseHeader); err != nil {
		return "", err
	}

	values, err := c.readIDs(ctx)
	if err != nil {
		return "", err
	}
	if row := findRow(values, e.ID); row >= 0 {
		slog.InfoContext(ctx, "Expense already in sheet", "expense_id", e.ID, "row", row+1)
		return fmt.Sprintf("%s!A%d:F%d", quote(c.expensesSheet), row+1, row+1), nil
	}

	rng := quote(c.expensesSheet) + "!A:F"
	vr := &gsheet.ValueRange{Values: [][]any{sheets.ExpenseRow(e)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", c.expensesSheet, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// DeleteExpense removes the row holding the expense id. A missing row is
// not an error.
func (c *Client) DeleteExpense(ctx context.Context, expenseID string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	sheetID, ok, err := c.lookupSheet(ctx, c.expensesSheet)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	values, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	row := findRow(values, expenseID)
	if row < 0 {
		slog.InfoContext(ctx, "Expense row not found, nothing to delete", "expense_id", expenseID)
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{
			Range: &gsheet.DimensionRange{
				SheetId:         sheetID,
				Dimension:       "ROWS",
				StartIndex:      int64(row),
				EndIndex:        int64(row + 1),
				ForceSendFields: []string{"SheetId", "StartIndex"},
			},
		},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in %s: %w", row+1, c.expensesSheet, err)
	}
	return nil
}

// WriteBudget overwrites the project's budget tab.
func (c *Client) WriteBudget(ctx context.Context, p core.Project, s core.BudgetSummary) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	title := sheets.BudgetSheetTitle(c.budgetPrefix, p)
	if _, err := c.ensureSheet(ctx, title, nil); err != nil {
		return err
	}
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, quote(title), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", title, err)
	}
	vr := &gsheet.ValueRange{Values: sheets.BudgetRows(p, s)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, quote(title)+"!A1", vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", title, err)
	}
	slog.InfoContext(ctx, "Budget written to sheet", "project_id", p.ID, "sheet", title)
	return nil
}

func (c *Client) readIDs(ctx context.Context) ([][]interface{}, error) {
	rng := quote(c.expensesSheet) + "!A:A"
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// lookupSheet resolves a tab title to its sheet id; caller holds c.mu.
func (c *Client) lookupSheet(ctx context.Context, title string) (int64, bool, error) {
	if id, ok := c.sheetIDs[title]; ok {
		return id, true, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			c.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	id, ok := c.sheetIDs[title]
	return id, ok, nil
}

// ensureSheet creates the tab when missing and writes the header row into
// a new tab; caller holds c.mu.
func (c *Client) ensureSheet(ctx context.Context, title string, header []any) (int64, error) {
	id, ok, err := c.lookupSheet(ctx, title)
	if err != nil {
		return 0, err
	}
	if ok {
		return id, nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("add sheet %s: %w", title, err)
	}
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		id = resp.Replies[0].AddSheet.Properties.SheetId
	}
	c.sheetIDs[title] = id
	slog.InfoContext(ctx, "Sheet created", "sheet", title)

	if len(header) > 0 {
		vr := &gsheet.ValueRange{Values: [][]any{header}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, quote(title)+"!A1", vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return 0, fmt.Errorf("write header of %s: %w", title, err)
		}
	}
	return id, nil
}

// quote wraps a tab title for use in A1 notation.
func quote(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
