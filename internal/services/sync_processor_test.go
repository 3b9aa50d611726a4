package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"remont/internal/core"
	"remont/internal/memory"
)

type fakeExporter struct {
	mu       sync.Mutex
	appended []string
	deleted  []string
	budgets  map[string]core.BudgetSummary
	fail     error
}

func newFakeExporter() *fakeExporter {
	return &fakeExporter{budgets: make(map[string]core.BudgetSummary)}
}

func (f *fakeExporter) AppendExpense(_ context.Context, e core.Expense) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return "", f.fail
	}
	f.appended = append(f.appended, e.ID)
	return "Wydatki!A2:F2", nil
}

func (f *fakeExporter) DeleteExpense(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeExporter) WriteBudget(_ context.Context, p core.Project, s core.BudgetSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.budgets[p.ID] = s
	return nil
}

func TestNewSyncProcessor(t *testing.T) {
	config := DefaultSyncProcessorConfig()
	processor := NewSyncProcessor(nil, nil, nil, config)

	if processor == nil {
		t.Fatal("NewSyncProcessor should return non-nil processor")
	}
	if processor.queue != nil || processor.source != nil || processor.exporter != nil {
		t.Error("dependencies should be nil when passed nil")
	}
}

func TestDefaultSyncProcessorConfig(t *testing.T) {
	config := DefaultSyncProcessorConfig()

	if config.PollInterval != 10*time.Second {
		t.Errorf("expected PollInterval 10s, got %v", config.PollInterval)
	}
	if config.BatchSize != 10 {
		t.Errorf("expected BatchSize 10, got %d", config.BatchSize)
	}
	if config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", config.MaxRetries)
	}
	if config.CleanupInterval != 1*time.Hour {
		t.Errorf("expected CleanupInterval 1h, got %v", config.CleanupInterval)
	}
	if config.CleanupAge != 24*time.Hour {
		t.Errorf("expected CleanupAge 24h, got %v", config.CleanupAge)
	}
}

func TestSyncProcessor_StartTwice(t *testing.T) {
	processor := NewSyncProcessor(nil, nil, nil, DefaultSyncProcessorConfig())

	processor.mu.Lock()
	processor.running = true
	processor.mu.Unlock()

	if err := processor.Start(context.Background()); err == nil {
		t.Error("expected error when starting already running processor")
	}
}

func TestSyncProcessor_StopNotRunning(t *testing.T) {
	processor := NewSyncProcessor(nil, nil, nil, DefaultSyncProcessorConfig())
	if processor.IsRunning() {
		t.Error("processor should not be running initially")
	}
	if err := processor.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

// syncFixture is a tracker over the memory store with the store as outbox.
func syncFixture(t *testing.T) (*memory.Store, *Tracker, core.Project, core.Section) {
	t.Helper()
	store := memory.New()
	tr := NewTracker(store, WithOutbox(store))
	ctx := context.Background()

	p, err := tr.CreateProject(ctx, core.Project{Name: "Mieszkanie", BudgetPlanned: core.PLN(50000)})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	sections, err := tr.ListSections(ctx, p.ID)
	if err != nil {
		t.Fatalf("list sections: %v", err)
	}
	return store, tr, p, sections[1]
}

func TestSyncProcessor_ProcessBatch(t *testing.T) {
	store, tr, p, sec := syncFixture(t)
	ctx := context.Background()

	e, err := tr.CreateExpense(ctx, core.Expense{
		SectionID:   sec.ID,
		Description: "Gniazdka",
		Amount:      core.PLN(540),
		Date:        core.NewDate(2024, 5, 1),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	exp := newFakeExporter()
	processor := NewSyncProcessor(store, tr, exp, DefaultSyncProcessorConfig())
	processor.processBatch(ctx, nil)

	if len(exp.appended) != 1 || exp.appended[0] != e.ID {
		t.Fatalf("appended = %v", exp.appended)
	}
	if got := exp.budgets[p.ID].Spent; got != core.PLN(540) {
		t.Fatalf("budget spent = %v", got)
	}

	if err := tr.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	processor.processBatch(ctx, nil)
	if len(exp.deleted) != 1 || exp.deleted[0] != e.ID {
		t.Fatalf("deleted = %v", exp.deleted)
	}
	if got := exp.budgets[p.ID].Spent; got.Cents != 0 {
		t.Fatalf("budget spent after delete = %v", got)
	}

	stats, err := processor.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Completed != 2 || stats.Pending != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestSyncProcessor_SkipsExpenseDeletedBeforeSync(t *testing.T) {
	store, tr, _, sec := syncFixture(t)
	ctx := context.Background()

	e, err := tr.CreateExpense(ctx, core.Expense{
		SectionID:   sec.ID,
		Description: "Kabel",
		Amount:      core.PLN(100),
		Date:        core.NewDate(2024, 5, 1),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if err := tr.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}

	exp := newFakeExporter()
	NewSyncProcessor(store, tr, exp, DefaultSyncProcessorConfig()).processBatch(ctx, nil)

	if len(exp.appended) != 0 {
		t.Fatalf("deleted expense should not be appended: %v", exp.appended)
	}
	if len(exp.deleted) != 1 {
		t.Fatalf("delete should still be mirrored: %v", exp.deleted)
	}
}

func TestSyncProcessor_RetryThenFail(t *testing.T) {
	store, tr, p, _ := syncFixture(t)
	ctx := context.Background()

	planned := core.PLN(60000)
	if _, err := tr.UpdateProject(ctx, p.ID, ProjectPatch{BudgetPlanned: &planned}); err != nil {
		t.Fatalf("update project: %v", err)
	}

	exp := newFakeExporter()
	exp.fail = errors.New("quota exceeded")
	config := DefaultSyncProcessorConfig()
	config.MaxRetries = 2
	processor := NewSyncProcessor(store, tr, exp, config)

	processor.processBatch(ctx, nil)
	stats, _ := processor.Stats(ctx)
	if stats.Pending != 1 || stats.Failed != 0 {
		t.Fatalf("after first failure stats = %+v", stats)
	}

	processor.processBatch(ctx, nil)
	stats, _ = processor.Stats(ctx)
	if stats.Failed != 1 || stats.Pending != 0 {
		t.Fatalf("after second failure stats = %+v", stats)
	}

	if err := processor.RetryFailed(ctx); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	exp.fail = nil
	processor.processBatch(ctx, nil)
	stats, _ = processor.Stats(ctx)
	if stats.Completed != 1 {
		t.Fatalf("after retry stats = %+v", stats)
	}
	if exp.budgets[p.ID].Target != planned {
		t.Fatalf("budget target = %v", exp.budgets[p.ID].Target)
	}
}

func TestSyncProcessor_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	store, tr, _, sec := syncFixture(t)
	ctx := context.Background()
	if _, err := tr.CreateExpense(ctx, core.Expense{
		SectionID:   sec.ID,
		Description: "Puszki",
		Amount:      core.PLN(30),
		Date:        core.NewDate(2024, 5, 2),
	}); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	exp := newFakeExporter()
	config := DefaultSyncProcessorConfig()
	config.PollInterval = 10 * time.Millisecond
	processor := NewSyncProcessor(store, tr, exp, config)

	if err := processor.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !processor.IsRunning() {
		t.Fatal("processor should be running")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		exp.mu.Lock()
		n := len(exp.appended)
		exp.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expense was not synced")
		}
		time.Sleep(5 * time.Millisecond)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := processor.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if processor.IsRunning() {
		t.Fatal("processor should be stopped")
	}
}
