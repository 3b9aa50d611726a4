package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"remont/internal/core"
	"remont/internal/ports"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *Store) map[core.SectionType]string {
	t.Helper()
	ids := map[core.SectionType]string{}
	var sections []core.Section
	for _, st := range core.SectionTypes() {
		id := "s-" + string(st)
		ids[st] = id
		sections = append(sections, core.Section{ID: id, ProjectID: "p1", Type: st, Status: core.StatusNotStarted})
	}
	if err := s.CreateProject(context.Background(), core.Project{ID: "p1", Name: "M", CreatedAt: t0}, sections); err != nil {
		t.Fatalf("create project: %v", err)
	}
	return ids
}

func TestStoreProjectSpentTracksExpenses(t *testing.T) {
	ctx := context.Background()
	s := New()
	ids := seed(t, s)

	for i, zl := range []int64{100, 250} {
		err := s.CreateExpense(ctx, core.Expense{
			ID: string(rune('a' + i)), ProjectID: "p1", SectionID: ids[core.SectionPlumbing],
			Description: "rury", Amount: core.PLN(zl), Date: core.NewDate(2024, 3, i+1),
		})
		if err != nil {
			t.Fatalf("create expense: %v", err)
		}
	}
	p, _ := s.GetProject(ctx, "p1")
	if p.BudgetSpent != core.PLN(350) {
		t.Fatalf("spent = %v", p.BudgetSpent)
	}
	list, _ := s.ListExpenses(ctx, "p1")
	if len(list) != 2 || list[0].ID != "b" {
		t.Fatalf("expected newest date first: %+v", list)
	}
	if err := s.DeleteExpense(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteExpense(ctx, "a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreSectionsCanonicalOrder(t *testing.T) {
	s := New()
	seed(t, s)
	secs, _ := s.ListSections(context.Background(), "p1")
	if len(secs) != 6 {
		t.Fatalf("got %d sections", len(secs))
	}
	for i, st := range core.SectionTypes() {
		if secs[i].Type != st {
			t.Fatalf("position %d: got %s want %s", i, secs[i].Type, st)
		}
	}
}

func TestStoreAcceptEstimate(t *testing.T) {
	ctx := context.Background()
	s := New()
	ids := seed(t, s)
	sec := ids[core.SectionElectrical]
	_ = s.CreateEstimate(ctx, core.Estimate{ID: "a", ProjectID: "p1", SectionID: sec, ContractorName: "A", CreatedAt: t0})
	_ = s.CreateEstimate(ctx, core.Estimate{ID: "b", ProjectID: "p1", SectionID: sec, ContractorName: "B", CreatedAt: t0.Add(time.Hour)})
	_ = s.CreateEstimate(ctx, core.Estimate{ID: "c", ProjectID: "p1", SectionID: ids[core.SectionPlumbing], ContractorName: "C", IsAccepted: true})

	if err := s.AcceptEstimate(ctx, "a", t0); err != nil {
		t.Fatal(err)
	}
	if err := s.AcceptEstimate(ctx, "b", t0); err != nil {
		t.Fatal(err)
	}
	acc, _ := s.AcceptedEstimates(ctx, "p1")
	if len(acc) != 2 || acc[sec].ID != "b" {
		t.Fatalf("accepted = %+v", acc)
	}
	a, _ := s.GetEstimate(ctx, "a")
	if a.IsAccepted {
		t.Fatalf("a should no longer be accepted")
	}
}

func TestStoreListNotes(t *testing.T) {
	ctx := context.Background()
	s := New()
	ids := seed(t, s)
	for i := 0; i < 22; i++ {
		n := core.Note{ID: string(rune('A' + i)), ProjectID: "p1", SectionID: ids[core.SectionFinishing], Content: "x", CreatedAt: t0.Add(time.Duration(i) * time.Second)}
		if i == 3 {
			n.Tags = []string{"płytki"}
		}
		_ = s.CreateNote(ctx, n)
	}
	page, total, _ := s.ListNotes(ctx, ports.NoteQuery{SectionID: ids[core.SectionFinishing]})
	if total != 22 || len(page) != 20 || page[0].ID != "V" {
		t.Fatalf("page1: total=%d len=%d first=%s", total, len(page), page[0].ID)
	}
	page, _, _ = s.ListNotes(ctx, ports.NoteQuery{SectionID: ids[core.SectionFinishing], Page: 2})
	if len(page) != 2 || page[1].ID != "A" {
		t.Fatalf("page2: %+v", page)
	}
	page, total, _ = s.ListNotes(ctx, ports.NoteQuery{SectionID: ids[core.SectionFinishing], Tags: []string{"PŁYTKI"}})
	if total != 1 || page[0].ID != "D" {
		t.Fatalf("tag filter: total=%d", total)
	}
	page, _, _ = s.ListNotes(ctx, ports.NoteQuery{SectionID: ids[core.SectionFinishing], Page: 9})
	if len(page) != 0 {
		t.Fatalf("page past end should be empty")
	}
}

func TestStoreQueue(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.Enqueue(ctx, ports.SyncItem{Entity: ports.EntityExpense, Action: ports.ActionSync, EntityID: "e1"})
	_ = s.Enqueue(ctx, ports.SyncItem{Entity: ports.EntityBudget, Action: ports.ActionSync, EntityID: "p1"})

	batch, _ := s.DequeueSyncBatch(ctx, 1)
	if len(batch) != 1 || batch[0].ID != 1 {
		t.Fatalf("batch = %+v", batch)
	}
	_ = s.MarkSyncProcessing(ctx, 1)
	_ = s.IncrementSyncAttempt(ctx, 2, "x")
	_ = s.MarkSyncFailed(ctx, 2, "y")

	st, _ := s.SyncQueueStats(ctx)
	if st != (ports.SyncStats{Processing: 1, Failed: 1}) {
		t.Fatalf("stats = %+v", st)
	}
	_ = s.ResetStaleProcessing(ctx)
	_ = s.RetryFailedSyncs(ctx)
	st, _ = s.SyncQueueStats(ctx)
	if st.Pending != 2 {
		t.Fatalf("stats after reset = %+v", st)
	}
	_ = s.MarkSyncComplete(ctx, 1)
	_ = s.CleanupCompletedSyncs(ctx, time.Now().Add(time.Second))
	st, _ = s.SyncQueueStats(ctx)
	if st.Completed != 0 || st.Pending != 1 {
		t.Fatalf("stats after cleanup = %+v", st)
	}
}

func TestStoreChecklistIsolation(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s)
	c := core.NewChecklist([]core.ChecklistItem{{ID: "1", Category: core.CategoryOther, Task: "t", Priority: core.PriorityLow}}, t0)
	if err := s.SaveChecklist(ctx, "p1", c); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetChecklist(ctx, "p1")
	_ = got.Toggle("1", true, t0)
	again, _ := s.GetChecklist(ctx, "p1")
	if again.Items[0].Completed {
		t.Fatalf("stored checklist was mutated through a copy")
	}
	if _, err := s.GetChecklist(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
