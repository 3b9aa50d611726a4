package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remont/internal/core"
	"remont/internal/ports"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// seedProject stores a project with all six sections and returns the
// section ids by type.
func seedProject(t *testing.T, repo *SQLiteRepository, id string) map[core.SectionType]string {
	t.Helper()
	p := core.Project{ID: id, Name: "Mieszkanie " + id, BudgetPlanned: core.PLN(100000), CreatedAt: t0, UpdatedAt: t0}
	ids := make(map[core.SectionType]string)
	var sections []core.Section
	for _, st := range core.SectionTypes() {
		sid := id + "-" + string(st)
		ids[st] = sid
		sections = append(sections, core.Section{ID: sid, ProjectID: id, Type: st, Status: core.StatusNotStarted, UpdatedAt: t0})
	}
	require.NoError(t, repo.CreateProject(context.Background(), p, sections))
	return ids
}

func TestProjectsAndSections(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ids := seedProject(t, repo, "p1")

	p, err := repo.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Mieszkanie p1", p.Name)
	assert.Equal(t, core.PLN(100000), p.BudgetPlanned)
	assert.True(t, p.CreatedAt.Equal(t0))

	sections, err := repo.ListSections(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, sections, 6)
	assert.Equal(t, core.SectionPlan, sections[0].Type)
	assert.Equal(t, core.SectionCosts, sections[5].Type)

	s := sections[1]
	s.Status = core.StatusInProgress
	s.Planned = core.PLN(30000)
	require.NoError(t, repo.UpdateSection(ctx, s))
	got, err := repo.GetSection(ctx, ids[core.SectionElectrical])
	require.NoError(t, err)
	assert.Equal(t, core.StatusInProgress, got.Status)
	assert.Equal(t, core.PLN(30000), got.Planned)

	_, err = repo.GetProject(ctx, "missing")
	assert.True(t, errors.Is(err, core.ErrNotFound))
	err = repo.UpdateSection(ctx, core.Section{ID: "missing", Status: core.StatusCompleted})
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestExpensesAndBudgetSpent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ids := seedProject(t, repo, "p1")

	add := func(id string, st core.SectionType, zl int64, day int) {
		require.NoError(t, repo.CreateExpense(ctx, core.Expense{
			ID: id, ProjectID: "p1", SectionID: ids[st], Description: "wydatek " + id,
			Amount: core.PLN(zl), Date: core.NewDate(2024, 3, day), CreatedAt: t0,
		}))
	}
	add("e1", core.SectionElectrical, 1000, 1)
	add("e2", core.SectionElectrical, 500, 5)
	add("e3", core.SectionPlumbing, 250, 3)

	list, err := repo.ListExpenses(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"e2", "e3", "e1"}, []string{list[0].ID, list[1].ID, list[2].ID})

	spent, err := repo.SpentBySection(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, core.PLN(1500), spent[ids[core.SectionElectrical]])
	assert.Equal(t, core.PLN(250), spent[ids[core.SectionPlumbing]])

	p, err := repo.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, core.PLN(1750), p.BudgetSpent)

	require.NoError(t, repo.DeleteExpense(ctx, "e1"))
	assert.True(t, errors.Is(repo.DeleteExpense(ctx, "e1"), core.ErrNotFound))
}

func TestAcceptEstimateClearsOthers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ids := seedProject(t, repo, "p1")
	sec := ids[core.SectionElectrical]

	for i, name := range []string{"ElektroPro", "Iskra"} {
		require.NoError(t, repo.CreateEstimate(ctx, core.Estimate{
			ID: name, ProjectID: "p1", SectionID: sec, ContractorName: name,
			TotalAmount: core.PLN(int64(30000 + i*1000)),
			Items:       []core.EstimateItem{{Name: "Robocizna", Quantity: 1, TotalPrice: core.PLN(100)}},
			CreatedAt:   t0.Add(time.Duration(i) * time.Hour), UpdatedAt: t0,
		}))
	}

	require.NoError(t, repo.AcceptEstimate(ctx, "ElektroPro", t0))
	require.NoError(t, repo.AcceptEstimate(ctx, "Iskra", t0))

	list, err := repo.ListEstimates(ctx, sec)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Iskra", list[0].ID, "newest first")
	assert.True(t, list[0].IsAccepted)
	assert.False(t, list[1].IsAccepted)
	assert.Len(t, list[0].Items, 1)

	accepted, err := repo.AcceptedEstimates(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Iskra", accepted[sec].ContractorName)

	assert.True(t, errors.Is(repo.AcceptEstimate(ctx, "nope", t0), core.ErrNotFound))
}

func TestListNotesFilterAndPaging(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ids := seedProject(t, repo, "p1")
	sec := ids[core.SectionPlumbing]

	for i := 0; i < 25; i++ {
		n := core.Note{
			ID: "n" + string(rune('a'+i)), ProjectID: "p1", SectionID: sec, Content: "notatka",
			Tags:      []string{"ogólne"},
			CreatedAt: t0.Add(time.Duration(i) * time.Minute), UpdatedAt: t0,
		}
		if i%5 == 0 {
			n.Tags = []string{"łazienka", "pilne"}
			n.Media = []core.MediaAttachment{{ID: "m", Kind: core.MediaImage, URL: "https://x/y.jpg"}}
		}
		require.NoError(t, repo.CreateNote(ctx, n))
	}

	page, total, err := repo.ListNotes(ctx, ports.NoteQuery{SectionID: sec})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Len(t, page, 20)
	assert.Equal(t, "ny", page[0].ID, "newest first")

	page, _, err = repo.ListNotes(ctx, ports.NoteQuery{SectionID: sec, Page: 2})
	require.NoError(t, err)
	assert.Len(t, page, 5)

	page, total, err = repo.ListNotes(ctx, ports.NoteQuery{SectionID: sec, Tags: []string{"Pilne"}})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, []string{"łazienka", "pilne"}, page[0].Tags)

	hasMedia := true
	_, total, err = repo.ListNotes(ctx, ports.NoteQuery{SectionID: sec, HasMedia: &hasMedia})
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	from := t0.Add(20 * time.Minute)
	page, total, err = repo.ListNotes(ctx, ports.NoteQuery{SectionID: sec, From: &from, Order: ports.SortAsc})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, "nu", page[0].ID)
}

func TestNoteUpdateReplacesTags(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ids := seedProject(t, repo, "p1")

	n := core.Note{ID: "n1", ProjectID: "p1", SectionID: ids[core.SectionPlan], Content: "a", Tags: []string{"x", "y"}, CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, repo.CreateNote(ctx, n))
	n.Tags = []string{"z"}
	n.Content = "b"
	require.NoError(t, repo.UpdateNote(ctx, n))

	got, err := repo.GetNote(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Content)
	assert.Equal(t, []string{"z"}, got.Tags)

	require.NoError(t, repo.DeleteNote(ctx, "n1"))
	_, err = repo.GetNote(ctx, "n1")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestChecklistRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedProject(t, repo, "p1")

	_, err := repo.GetChecklist(ctx, "p1")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	c := core.NewChecklist([]core.ChecklistItem{
		{ID: "1", Category: core.CategoryPlumbing, Task: "a", Priority: core.PriorityHigh},
		{ID: "2", Category: core.CategoryOther, Task: "b", Priority: core.PriorityLow},
	}, t0)
	require.NoError(t, c.Toggle("2", true, t0))
	require.NoError(t, repo.SaveChecklist(ctx, "p1", c))

	got, err := repo.GetChecklist(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalCount)
	assert.Equal(t, 1, got.CompletedCount)

	p, err := repo.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.ChecklistProgress)
}

func TestPhotosAndSuggestions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedProject(t, repo, "p1")

	require.NoError(t, repo.CreatePhoto(ctx, core.InspectionPhoto{ID: "ph1", ProjectID: "p1", PhotoURL: "u1", CreatedAt: t0}))
	require.NoError(t, repo.CreatePhoto(ctx, core.InspectionPhoto{ID: "ph2", ProjectID: "p1", PhotoURL: "u2", CreatedAt: t0.Add(time.Hour)}))
	photos, err := repo.ListPhotos(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "ph2", photos[0].ID)
	require.NoError(t, repo.DeletePhoto(ctx, "ph1"))

	require.NoError(t, repo.CreateSuggestion(ctx, core.Suggestion{ID: "s1", ProjectID: "p1", Text: "Zamów płytki", ShownAt: t0}))
	require.NoError(t, repo.CreateSuggestion(ctx, core.Suggestion{ID: "s2", ProjectID: "p1", Text: "Sprawdź piony", Context: map[string]string{"section": "plumbing"}, ShownAt: t0.Add(time.Minute)}))
	require.NoError(t, repo.DismissSuggestion(ctx, "s1"))

	active, err := repo.ListSuggestions(ctx, "p1", false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "plumbing", active[0].Context["section"])

	all, err := repo.ListSuggestions(ctx, "p1", true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSyncQueueLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Enqueue(ctx, ports.SyncItem{Entity: ports.EntityExpense, Action: ports.ActionSync, EntityID: "e1", ProjectID: "p1"}))
	require.NoError(t, repo.Enqueue(ctx, ports.SyncItem{Entity: ports.EntityExpense, Action: ports.ActionDelete, EntityID: "e2", ProjectID: "p1", Payload: []byte(`{"id":"e2"}`)}))

	items, err := repo.DequeueSyncBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, ports.ActionDelete, items[1].Action)
	assert.JSONEq(t, `{"id":"e2"}`, string(items[1].Payload))

	require.NoError(t, repo.MarkSyncProcessing(ctx, items[0].ID))
	require.NoError(t, repo.MarkSyncComplete(ctx, items[0].ID))
	require.NoError(t, repo.MarkSyncFailed(ctx, items[1].ID, "boom"))

	stats, err := repo.SyncQueueStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, ports.SyncStats{Completed: 1, Failed: 1}, stats)

	require.NoError(t, repo.RetryFailedSyncs(ctx))
	pending, err := repo.DequeueSyncBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 0, pending[0].Attempts)

	require.NoError(t, repo.MarkSyncProcessing(ctx, pending[0].ID))
	require.NoError(t, repo.ResetStaleProcessing(ctx))
	require.NoError(t, repo.IncrementSyncAttempt(ctx, pending[0].ID, "again"))
	pending, err = repo.DequeueSyncBatch(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, "again", pending[0].LastError)

	require.NoError(t, repo.CleanupCompletedSyncs(ctx, time.Now().Add(time.Minute)))
	stats, err = repo.SyncQueueStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Completed)
}

func TestMigrationVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	require.NoError(t, RunMigrations(path))
	v, dirty, err := MigrationVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)
}
