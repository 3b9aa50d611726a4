package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"remont/internal/core"
)

// fakeSheets emulates the handful of Sheets endpoints the client uses.
// Only column A of the expenses tab is tracked.
type fakeSheets struct {
	mu       sync.Mutex
	nextID   int64
	sheets   map[string]int64
	ids      []string
	appends  int
	deletes  []*gsheet.DimensionRange
	cleared  []string
	written  map[string][][]interface{}
	getCalls int
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{nextID: 100, sheets: map[string]int64{}, written: map[string][][]interface{}{}}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path
	var resp any = map[string]any{}

	switch {
	case strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		replies := make([]map[string]any, 0, len(req.Requests))
		for _, rq := range req.Requests {
			switch {
			case rq.AddSheet != nil:
				f.nextID++
				f.sheets[rq.AddSheet.Properties.Title] = f.nextID
				replies = append(replies, map[string]any{"addSheet": map[string]any{
					"properties": map[string]any{"sheetId": f.nextID, "title": rq.AddSheet.Properties.Title},
				}})
			case rq.DeleteDimension != nil:
				rg := rq.DeleteDimension.Range
				f.deletes = append(f.deletes, rg)
				f.ids = append(f.ids[:rg.StartIndex], f.ids[rg.EndIndex:]...)
				replies = append(replies, map[string]any{})
			}
		}
		resp = map[string]any{"spreadsheetId": "sid", "replies": replies}

	case strings.HasSuffix(path, ":append"):
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.appends++
		for _, row := range vr.Values {
			f.ids = append(f.ids, fmt.Sprint(row[0]))
		}
		n := len(f.ids)
		resp = map[string]any{"updates": map[string]any{"updatedRange": fmt.Sprintf("'Wydatki'!A%d:F%d", n, n)}}

	case strings.HasSuffix(path, ":clear"):
		rng := strings.TrimSuffix(path[strings.Index(path, "/values/")+len("/values/"):], ":clear")
		f.cleared = append(f.cleared, rng)

	case strings.Contains(path, "/values/"):
		rng := path[strings.Index(path, "/values/")+len("/values/"):]
		if r.Method == http.MethodGet {
			values := make([][]any, 0, len(f.ids))
			for _, id := range f.ids {
				values = append(values, []any{id})
			}
			resp = map[string]any{"range": rng, "values": values}
			break
		}
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.written[rng] = vr.Values
		if rng == "'Wydatki'!A1" && len(f.ids) == 0 {
			f.ids = append(f.ids, fmt.Sprint(vr.Values[0][0]))
		}

	default:
		f.getCalls++
		list := make([]map[string]any, 0, len(f.sheets))
		for title, id := range f.sheets {
			list = append(list, map[string]any{"properties": map[string]any{"sheetId": id, "title": title}})
		}
		resp = map[string]any{"sheets": list}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return newClient(svc, Config{SpreadsheetID: "sid"})
}

func expense(id string) core.Expense {
	return core.Expense{
		ID:          id,
		ProjectID:   "p1",
		SectionID:   "s1",
		Description: "Kabel",
		Amount:      core.PLN(120),
		Date:        core.NewDate(2024, 5, 3),
	}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_InvalidCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sid", ServiceAccountFile: "/nonexistent/sa.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUninitializedClient(t *testing.T) {
	c := &Client{}
	if _, err := c.AppendExpense(context.Background(), expense("e1")); err == nil {
		t.Error("expected error for nil service")
	}
	if err := c.DeleteExpense(context.Background(), "e1"); err == nil {
		t.Error("expected error for nil service")
	}
	if err := c.WriteBudget(context.Background(), core.Project{}, core.BudgetSummary{}); err == nil {
		t.Error("expected error for nil service")
	}
}

func TestAppendExpense_CreatesSheetAndSkipsDuplicates(t *testing.T) {
	fake := newFakeSheets()
	c := newTestClient(t, fake)
	ctx := context.Background()

	ref, err := c.AppendExpense(ctx, expense("e1"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "'Wydatki'!A2:F2" {
		t.Errorf("ref = %q", ref)
	}
	if _, ok := fake.sheets["Wydatki"]; !ok {
		t.Fatalf("expenses sheet not created: %v", fake.sheets)
	}
	if header := fake.written["'Wydatki'!A1"]; len(header) != 1 || header[0][0] != "ID" {
		t.Errorf("header = %v", header)
	}

	ref, err = c.AppendExpense(ctx, expense("e1"))
	if err != nil {
		t.Fatalf("append again: %v", err)
	}
	if fake.appends != 1 {
		t.Errorf("duplicate append: %d appends", fake.appends)
	}
	if ref != "'Wydatki'!A2:F2" {
		t.Errorf("existing ref = %q", ref)
	}
	if fake.getCalls != 1 {
		t.Errorf("sheet ids should be cached, got %d spreadsheet reads", fake.getCalls)
	}
}

func TestDeleteExpense(t *testing.T) {
	fake := newFakeSheets()
	c := newTestClient(t, fake)
	ctx := context.Background()

	if err := c.DeleteExpense(ctx, "e1"); err != nil {
		t.Fatalf("delete without sheet: %v", err)
	}

	for _, id := range []string{"e1", "e2", "e3"} {
		if _, err := c.AppendExpense(ctx, expense(id)); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}
	if err := c.DeleteExpense(ctx, "e2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fake.deletes) != 1 {
		t.Fatalf("deletes = %d", len(fake.deletes))
	}
	rg := fake.deletes[0]
	if rg.SheetId != fake.sheets["Wydatki"] || rg.StartIndex != 2 || rg.EndIndex != 3 || rg.Dimension != "ROWS" {
		t.Errorf("delete range = %+v", rg)
	}
	if strings.Join(fake.ids, ",") != "ID,e1,e3" {
		t.Errorf("remaining ids = %v", fake.ids)
	}

	if err := c.DeleteExpense(ctx, "missing"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if len(fake.deletes) != 1 {
		t.Error("missing row should not trigger a delete")
	}
}

func TestWriteBudget(t *testing.T) {
	fake := newFakeSheets()
	c := newTestClient(t, fake)
	ctx := context.Background()

	p := core.Project{ID: "0123456789abcdef", Name: "Mieszkanie"}
	s := core.BudgetSummary{
		Target:  core.PLN(1000),
		Planned: core.PLN(800),
		Spent:   core.PLN(200),
		Sections: []core.SectionBudget{
			{Type: core.SectionElectrical, Planned: core.PLN(800), Actual: core.PLN(200)},
		},
	}
	if err := c.WriteBudget(ctx, p, s); err != nil {
		t.Fatalf("write budget: %v", err)
	}

	title := "Budżet Mieszkanie (01234567)"
	if _, ok := fake.sheets[title]; !ok {
		t.Fatalf("budget sheet not created: %v", fake.sheets)
	}
	if len(fake.cleared) != 1 || fake.cleared[0] != "'"+title+"'" {
		t.Errorf("cleared = %v", fake.cleared)
	}
	rows := fake.written["'"+title+"'!A1"]
	if len(rows) == 0 || rows[0][1] != "Mieszkanie" {
		t.Fatalf("rows = %v", rows)
	}
	last := rows[len(rows)-1]
	if last[0] != "Razem" {
		t.Errorf("last row = %v", last)
	}

	if err := c.WriteBudget(ctx, p, s); err != nil {
		t.Fatalf("rewrite budget: %v", err)
	}
	if len(fake.sheets) != 1 {
		t.Errorf("budget sheet should be reused, sheets = %v", fake.sheets)
	}
}
