package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remont/internal/cache"
	"remont/internal/config"
	"remont/internal/core"
	"remont/internal/memory"
)

// A worker reads budgets from a store the server writes to; it must see
// every write even though only the server's cache is invalidated.
func TestNewTracker_UncachedReaderSeesOtherWriters(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{BudgetCacheSize: 100, BudgetCacheTTL: 5 * time.Minute}
	store := memory.New()

	caches := cache.NewManager()
	server := NewTracker(cfg, store, nil, caches)
	worker := NewTracker(cfg, store, nil, nil)

	p, err := server.CreateProject(ctx, core.Project{Name: "Mieszkanie", BudgetPlanned: core.PLN(50000)})
	require.NoError(t, err)
	sections, err := server.ListSections(ctx, p.ID)
	require.NoError(t, err)
	sectionID := sections[1].ID

	for i, amount := range []int64{100, 200} {
		_, err := server.CreateExpense(ctx, core.Expense{
			SectionID:   sectionID,
			Description: "Kabel",
			Amount:      core.PLN(amount),
			Date:        core.NewDate(2024, 5, i+1),
		})
		require.NoError(t, err)

		want := core.PLN(100)
		if i == 1 {
			want = core.PLN(300)
		}
		got, err := worker.BudgetSummary(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.Spent, "worker after expense %d", i+1)

		got, err = server.BudgetSummary(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.Spent, "server after expense %d", i+1)
	}
}
