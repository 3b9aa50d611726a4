package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"remont/internal/amqp"
	"remont/internal/core"
	"remont/internal/ports"
)

type fakeSource struct {
	projects map[string]core.Project
	spent    core.Money
	err      error
}

func (f *fakeSource) GetExpense(context.Context, string) (core.Expense, error) {
	return core.Expense{}, core.ErrNotFound
}

func (f *fakeSource) GetProject(_ context.Context, id string) (core.Project, error) {
	if f.err != nil {
		return core.Project{}, f.err
	}
	p, ok := f.projects[id]
	if !ok {
		return core.Project{}, core.ErrNotFound
	}
	return p, nil
}

func (f *fakeSource) BudgetSummary(_ context.Context, id string) (core.BudgetSummary, error) {
	return core.BudgetSummary{ProjectID: id, Spent: f.spent}, nil
}

type fakeExporter struct {
	mu     sync.Mutex
	writes []string
}

func (f *fakeExporter) AppendExpense(context.Context, core.Expense) (string, error) { return "", nil }
func (f *fakeExporter) DeleteExpense(context.Context, string) error                { return nil }
func (f *fakeExporter) WriteBudget(_ context.Context, p core.Project, _ core.BudgetSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, p.ID)
	return nil
}

func (f *fakeExporter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

type fakeConsumer struct {
	msgs []*amqp.EventMessage
	errs chan error
}

func (f *fakeConsumer) Consume(ctx context.Context, handler func(context.Context, *amqp.EventMessage) error) error {
	for _, m := range f.msgs {
		f.errs <- handler(ctx, m)
	}
	<-ctx.Done()
	return ctx.Err()
}

type fakeProcessor struct {
	mu      sync.Mutex
	started bool
	stopped bool
}

func (f *fakeProcessor) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}

func (f *fakeProcessor) Stop(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func newSource() *fakeSource {
	return &fakeSource{
		projects: map[string]core.Project{"p1": {ID: "p1", Name: "Mieszkanie"}},
		spent:    core.PLN(540),
	}
}

func TestHandleEvent_WritesBudget(t *testing.T) {
	exp := &fakeExporter{}
	w := NewSyncWorker(newSource(), exp, nil, nil, DefaultConfig())

	err := w.HandleEvent(context.Background(), &amqp.EventMessage{
		Type:      ports.EventExpenseCreated,
		ProjectID: "p1",
		EntityID:  "e1",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, exp.writes)
}

func TestHandleEvent_SkipsStaleEvents(t *testing.T) {
	exp := &fakeExporter{}
	w := NewSyncWorker(newSource(), exp, nil, nil, DefaultConfig())
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return base }
	ctx := context.Background()

	require.NoError(t, w.HandleEvent(ctx, &amqp.EventMessage{Type: ports.EventExpenseCreated, ProjectID: "p1", Timestamp: base.Add(-time.Second)}))
	require.NoError(t, w.HandleEvent(ctx, &amqp.EventMessage{Type: ports.EventExpenseCreated, ProjectID: "p1", Timestamp: base.Add(-500 * time.Millisecond)}))
	assert.Equal(t, 1, exp.count(), "event older than last write should be skipped")

	require.NoError(t, w.HandleEvent(ctx, &amqp.EventMessage{Type: ports.EventBudgetChanged, ProjectID: "p1", Timestamp: base.Add(time.Second)}))
	assert.Equal(t, 2, exp.count())
}

func TestHandleEvent_IgnoresMissingProject(t *testing.T) {
	exp := &fakeExporter{}
	w := NewSyncWorker(newSource(), exp, nil, nil, DefaultConfig())
	ctx := context.Background()

	require.NoError(t, w.HandleEvent(ctx, &amqp.EventMessage{Type: ports.EventExpenseDeleted}))
	require.NoError(t, w.HandleEvent(ctx, &amqp.EventMessage{Type: ports.EventExpenseDeleted, ProjectID: "gone"}))
	assert.Zero(t, exp.count())
}

func TestHandleEvent_PropagatesErrors(t *testing.T) {
	src := newSource()
	src.err = errors.New("database is locked")
	w := NewSyncWorker(src, &fakeExporter{}, nil, nil, DefaultConfig())

	err := w.HandleEvent(context.Background(), &amqp.EventMessage{ProjectID: "p1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	exp := &fakeExporter{}
	proc := &fakeProcessor{}
	consumer := &fakeConsumer{
		msgs: []*amqp.EventMessage{{Type: ports.EventEstimateAccepted, ProjectID: "p1", Timestamp: time.Now()}},
		errs: make(chan error, 1),
	}
	w := NewSyncWorker(newSource(), exp, proc, consumer, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case err := <-consumer.errs:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not handled")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	proc.mu.Lock()
	defer proc.mu.Unlock()
	assert.True(t, proc.started)
	assert.True(t, proc.stopped)
	assert.Equal(t, 1, exp.count())
}
