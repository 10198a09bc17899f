package outline

import (
	"math"
	"reflect"
	"testing"
	"time"

	"todotree-cli/internal/model"
)

func at(base time.Time, offsetMin int) time.Time {
	return base.Add(time.Duration(offsetMin) * time.Minute)
}

func strptr(s string) *string { return &s }

func rowIDs(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Item.ID)
	}
	return out
}

func rowDepths(rows []Row) []int {
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Depth)
	}
	return out
}

func TestProject_LinearizesParentsBeforeChildren(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := []model.Item{
		{ID: "todo-a", Order: 0, Name: "A", CreatedAt: now},
		{ID: "todo-b", Order: 1, Name: "B", CreatedAt: at(now, 1)},
		{ID: "todo-c", ParentID: strptr("todo-b"), Order: 0, Name: "C", CreatedAt: at(now, 2)},
	}

	p := Project(items, "", nil)

	if got, want := rowIDs(p.Rows), []string{"todo-a", "todo-b", "todo-c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected row ids %v, got %v", want, got)
	}
	if got, want := rowDepths(p.Rows), []int{0, 0, 1}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected depths %v, got %v", want, got)
	}
	if len(p.Filtered) != 3 {
		t.Fatalf("expected 3 filtered items, got %d", len(p.Filtered))
	}
	if !p.Rows[1].HasChildren {
		t.Fatalf("expected todo-b to report children")
	}
	if p.Rows[0].HasChildren {
		t.Fatalf("expected todo-a to report no children")
	}
}

func TestProject_DeterministicAcrossCalls(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := []model.Item{
		{ID: "todo-r1", Order: 0, Name: "groceries", CreatedAt: now},
		{ID: "todo-r2", Order: 1, Name: "trip", CreatedAt: at(now, 1)},
		{ID: "todo-c1", ParentID: strptr("todo-r2"), Order: 2, Name: "book hotel", CreatedAt: at(now, 2)},
		{ID: "todo-c2", ParentID: strptr("todo-r2"), Order: 2, Name: "pack", CreatedAt: at(now, 3)},
		{ID: "todo-g1", ParentID: strptr("todo-c1"), Order: 0, Name: "compare prices", CreatedAt: at(now, 4)},
	}
	collapsed := map[string]bool{}

	first := Project(items, "", collapsed)
	second := Project(items, "", collapsed)

	if !reflect.DeepEqual(rowIDs(first.Rows), rowIDs(second.Rows)) {
		t.Fatalf("row ids differ between projections: %v vs %v", rowIDs(first.Rows), rowIDs(second.Rows))
	}
	if !reflect.DeepEqual(rowDepths(first.Rows), rowDepths(second.Rows)) {
		t.Fatalf("depths differ between projections: %v vs %v", rowDepths(first.Rows), rowDepths(second.Rows))
	}
}

func TestProject_DoesNotMutateInput(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := []model.Item{
		{ID: "todo-b", Order: 1, Name: "B", CreatedAt: at(now, 1)},
		{ID: "todo-a", Order: 0, Name: "A", CreatedAt: now},
		{ID: "todo-c", ParentID: strptr("todo-b"), Order: 0, Name: "C", CreatedAt: at(now, 2)},
	}
	snapshot := make([]model.Item, len(items))
	copy(snapshot, items)

	_ = Project(items, "b", map[string]bool{"todo-b": true})

	if !reflect.DeepEqual(items, snapshot) {
		t.Fatalf("Project mutated its input:\nbefore %+v\nafter  %+v", snapshot, items)
	}
}

func TestProject_CollapsedHidesSubtree(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := []model.Item{
		{ID: "todo-a", Order: 0, Name: "A", CreatedAt: now},
		{ID: "todo-b", Order: 1, Name: "B", CreatedAt: at(now, 1)},
		{ID: "todo-c", ParentID: strptr("todo-b"), Order: 0, Name: "C", CreatedAt: at(now, 2)},
		{ID: "todo-d", ParentID: strptr("todo-c"), Order: 0, Name: "D", CreatedAt: at(now, 3)},
	}

	p := Project(items, "", map[string]bool{"todo-b": true})

	if got, want := rowIDs(p.Rows), []string{"todo-a", "todo-b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected collapsed rows %v, got %v", want, got)
	}
	if !p.Rows[1].Collapsed || !p.Rows[1].HasChildren {
		t.Fatalf("expected todo-b row to be collapsed with children, got %+v", p.Rows[1])
	}
	// The flat filtered collection is a data concern, not a view concern.
	if len(p.Filtered) != 4 {
		t.Fatalf("expected filtered to keep all 4 items, got %d", len(p.Filtered))
	}
}

func TestProject_SearchPromotesMatchingChildToRoot(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := []model.Item{
		{ID: "todo-p", Order: 0, Name: "errands", CreatedAt: now},
		{ID: "todo-c", ParentID: strptr("todo-p"), Order: 0, Name: "renew passport", CreatedAt: at(now, 1)},
	}

	p := Project(items, "passport", nil)

	if got, want := rowIDs(p.Rows), []string{"todo-c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected only the matching child %v, got %v", want, got)
	}
	if p.Rows[0].Depth != 0 {
		t.Fatalf("expected promoted child at depth 0, got %d", p.Rows[0].Depth)
	}
	// Promotion is display-only: the stored parent reference stays.
	if items[1].Parent() != "todo-p" {
		t.Fatalf("expected stored parentId to survive projection, got %q", items[1].Parent())
	}
}

func TestProject_SearchMatchesDescriptionAndTags(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := []model.Item{
		{ID: "todo-a", Order: 0, Name: "call bank", Description: "ask about the mortgage", CreatedAt: now},
		{ID: "todo-b", Order: 1, Name: "dentist", Tags: []string{"health", "urgent"}, CreatedAt: at(now, 1)},
		{ID: "todo-c", Order: 2, Name: "water plants", CreatedAt: at(now, 2)},
	}

	if got := rowIDs(Project(items, "MORTGAGE", nil).Rows); !reflect.DeepEqual(got, []string{"todo-a"}) {
		t.Fatalf("expected description match [todo-a], got %v", got)
	}
	if got := rowIDs(Project(items, " urgent ", nil).Rows); !reflect.DeepEqual(got, []string{"todo-b"}) {
		t.Fatalf("expected tag match [todo-b], got %v", got)
	}
}

func TestProject_MissingParentFallsBackToRoot(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := []model.Item{
		{ID: "todo-a", Order: 0, Name: "A", CreatedAt: now},
		{ID: "todo-orphan", ParentID: strptr("todo-gone"), Order: 0, Name: "orphan", CreatedAt: at(now, 1)},
	}

	p := Project(items, "", nil)

	if got, want := rowIDs(p.Rows), []string{"todo-a", "todo-orphan"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected orphan shown as root, got %v", got)
	}
	if p.Rows[1].Depth != 0 {
		t.Fatalf("expected orphan at depth 0, got %d", p.Rows[1].Depth)
	}
}

func TestProject_ChildrenOrderedByOrderThenCreatedAt(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := []model.Item{
		{ID: "todo-p", Order: 0, Name: "P", CreatedAt: now},
		// Deliberately appended out of display order.
		{ID: "todo-c3", ParentID: strptr("todo-p"), Order: 2, Name: "third", CreatedAt: at(now, 1)},
		{ID: "todo-c1", ParentID: strptr("todo-p"), Order: 0, Name: "first", CreatedAt: at(now, 5)},
		// Equal orders fall back to CreatedAt.
		{ID: "todo-c2b", ParentID: strptr("todo-p"), Order: 1, Name: "second-late", CreatedAt: at(now, 4)},
		{ID: "todo-c2a", ParentID: strptr("todo-p"), Order: 1, Name: "second-early", CreatedAt: at(now, 2)},
	}

	p := Project(items, "", nil)

	want := []string{"todo-p", "todo-c1", "todo-c2a", "todo-c2b", "todo-c3"}
	if got := rowIDs(p.Rows); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected child order %v, got %v", want, got)
	}
}

func TestProject_NaNOrderSortsLastWithoutPanic(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := []model.Item{
		{ID: "todo-p", Order: 0, Name: "P", CreatedAt: now},
		{ID: "todo-bad", ParentID: strptr("todo-p"), Order: math.NaN(), Name: "bad", CreatedAt: at(now, 1)},
		{ID: "todo-ok", ParentID: strptr("todo-p"), Order: 0, Name: "ok", CreatedAt: at(now, 2)},
	}

	p := Project(items, "", nil)

	want := []string{"todo-p", "todo-ok", "todo-bad"}
	if got := rowIDs(p.Rows); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected NaN order to sort last %v, got %v", want, got)
	}
}

func TestProject_SelfParentTreatedAsRoot(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := []model.Item{
		{ID: "todo-loop", ParentID: strptr("todo-loop"), Order: 0, Name: "loop", CreatedAt: now},
	}

	p := Project(items, "", nil)

	if got, want := rowIDs(p.Rows), []string{"todo-loop"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected self-parented item as root, got %v", got)
	}
}

func TestProject_DepthFollowsEffectiveParents(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	// grandparent is filtered out by the query, so parent becomes a visible
	// root and child sits at depth 1 (not 2).
	items := []model.Item{
		{ID: "todo-gp", Order: 0, Name: "house", CreatedAt: now},
		{ID: "todo-p", ParentID: strptr("todo-gp"), Order: 0, Name: "garden fence", CreatedAt: at(now, 1)},
		{ID: "todo-c", ParentID: strptr("todo-p"), Order: 0, Name: "buy fence posts", CreatedAt: at(now, 2)},
	}

	p := Project(items, "fence", nil)

	if got, want := rowIDs(p.Rows), []string{"todo-p", "todo-c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected rows %v, got %v", want, got)
	}
	if got, want := rowDepths(p.Rows), []int{0, 1}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected depths %v, got %v", want, got)
	}
}
