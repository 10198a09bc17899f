package outline

import (
	"reflect"
	"testing"
	"time"

	"todotree-cli/internal/model"
)

func updatesByID(t *testing.T, batch []Update) map[string]Update {
	t.Helper()
	out := map[string]Update{}
	for _, u := range batch {
		if _, dup := out[u.ID]; dup {
			t.Fatalf("batch contains duplicate update for %s", u.ID)
		}
		out[u.ID] = u
	}
	return out
}

func fixtureABC(now time.Time) []model.Item {
	// A and B are roots; C is B's only child.
	return []model.Item{
		{ID: "todo-a", Order: 0, Name: "A", CreatedAt: now},
		{ID: "todo-b", Order: 1, Name: "B", CreatedAt: at(now, 1)},
		{ID: "todo-c", ParentID: strptr("todo-b"), Order: 0, Name: "C", CreatedAt: at(now, 2)},
	}
}

func TestResolve_GuardsReturnNoOp(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := fixtureABC(now)
	rows := Project(items, "", nil).Rows

	cases := []struct {
		name string
		ev   DropEvent
	}{
		{"missing target", DropEvent{SourceID: "todo-a", TargetID: "", Kind: DropReorder}},
		{"missing source", DropEvent{SourceID: "", TargetID: "todo-b", Kind: DropNest}},
		{"self drop", DropEvent{SourceID: "todo-a", TargetID: "todo-a", Kind: DropReorder}},
		{"unknown source", DropEvent{SourceID: "todo-zzz", TargetID: "todo-b", Kind: DropReorder}},
		{"unknown target nest", DropEvent{SourceID: "todo-a", TargetID: "todo-zzz", Kind: DropNest}},
		{"unknown drop kind", DropEvent{SourceID: "todo-a", TargetID: "todo-b", Kind: DropKind("hover")}},
	}
	for _, tc := range cases {
		if batch := Resolve(tc.ev, rows, items); batch != nil {
			t.Fatalf("%s: expected no-op, got %+v", tc.name, batch)
		}
	}
}

func TestResolve_NestAppendsAsLastChild(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := fixtureABC(now)
	rows := Project(items, "", nil).Rows

	batch := Resolve(DropEvent{SourceID: "todo-a", TargetID: "todo-b", Kind: DropNest}, rows, items)

	if len(batch) != 1 {
		t.Fatalf("expected a single update, got %+v", batch)
	}
	u := batch[0]
	if u.ID != "todo-a" {
		t.Fatalf("expected update for todo-a, got %s", u.ID)
	}
	// C already occupies order 0 under B, so A appends at 1 + max(0) = 1.
	if u.Order != 1 {
		t.Fatalf("expected order 1, got %v", u.Order)
	}
	if !u.SetParent || u.ParentID == nil || *u.ParentID != "todo-b" {
		t.Fatalf("expected reparent to todo-b, got %+v", u)
	}
}

func TestResolve_NestUnderChildlessTarget(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := []model.Item{
		{ID: "todo-a", Order: 0, Name: "A", CreatedAt: now},
		{ID: "todo-b", Order: 1, Name: "B", CreatedAt: at(now, 1)},
	}
	rows := Project(items, "", nil).Rows

	batch := Resolve(DropEvent{SourceID: "todo-a", TargetID: "todo-b", Kind: DropNest}, rows, items)

	if len(batch) != 1 || batch[0].Order != 1 {
		t.Fatalf("expected single update with order 1, got %+v", batch)
	}
}

func TestResolve_NestOntoDescendantIsRejected(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := fixtureABC(now)
	rows := Project(items, "", nil).Rows
	snapshot := make([]model.Item, len(items))
	copy(snapshot, items)

	// C's parent is B: nesting B under C would make B its own ancestor.
	if batch := Resolve(DropEvent{SourceID: "todo-b", TargetID: "todo-c", Kind: DropNest}, rows, items); batch != nil {
		t.Fatalf("expected cycle-forming nest to be a no-op, got %+v", batch)
	}
	if !reflect.DeepEqual(items, snapshot) {
		t.Fatalf("resolver mutated the item set")
	}
}

func TestResolve_NestOntoDeepDescendantIsRejected(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := []model.Item{
		{ID: "todo-a", Order: 0, Name: "A", CreatedAt: now},
		{ID: "todo-b", ParentID: strptr("todo-a"), Order: 0, Name: "B", CreatedAt: at(now, 1)},
		{ID: "todo-c", ParentID: strptr("todo-b"), Order: 0, Name: "C", CreatedAt: at(now, 2)},
	}
	rows := Project(items, "", nil).Rows

	if batch := Resolve(DropEvent{SourceID: "todo-a", TargetID: "todo-c", Kind: DropNest}, rows, items); batch != nil {
		t.Fatalf("expected deep cycle-forming nest to be a no-op, got %+v", batch)
	}
}

func TestResolve_SiblingReorderSwapsDenseOrders(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := fixtureABC(now)
	rows := Project(items, "", nil).Rows

	batch := Resolve(DropEvent{SourceID: "todo-a", TargetID: "todo-b", Kind: DropReorder}, rows, items)

	got := updatesByID(t, batch)
	if len(got) != 2 {
		t.Fatalf("expected updates for both roots, got %+v", batch)
	}
	if got["todo-a"].Order != 1 || got["todo-b"].Order != 0 {
		t.Fatalf("expected a=1 b=0, got %+v", got)
	}
	if got["todo-a"].SetParent || got["todo-b"].SetParent {
		t.Fatalf("same-parent reorder must not touch parents: %+v", got)
	}
}

func TestResolve_SiblingReorderCompactsGappyOrders(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := []model.Item{
		{ID: "todo-1", Order: 10, Name: "one", CreatedAt: now},
		{ID: "todo-2", Order: 20, Name: "two", CreatedAt: at(now, 1)},
		{ID: "todo-3", Order: 30, Name: "three", CreatedAt: at(now, 2)},
		{ID: "todo-4", Order: 40, Name: "four", CreatedAt: at(now, 3)},
	}
	rows := Project(items, "", nil).Rows

	// Move the last item onto the second position.
	batch := Resolve(DropEvent{SourceID: "todo-4", TargetID: "todo-2", Kind: DropReorder}, rows, items)

	got := updatesByID(t, batch)
	if len(got) != 4 {
		t.Fatalf("expected the whole group renumbered, got %+v", batch)
	}
	// Exactly the dense values 0..N-1, no gaps or duplicates.
	seen := map[float64]string{}
	for id, u := range got {
		if prev, dup := seen[u.Order]; dup {
			t.Fatalf("duplicate order %v for %s and %s", u.Order, prev, id)
		}
		seen[u.Order] = id
	}
	for want := 0.0; want < 4; want++ {
		if _, ok := seen[want]; !ok {
			t.Fatalf("missing order %v in batch %+v", want, got)
		}
	}
	wantOrder := map[string]float64{"todo-1": 0, "todo-4": 1, "todo-2": 2, "todo-3": 3}
	for id, want := range wantOrder {
		if got[id].Order != want {
			t.Fatalf("expected %s at %v, got %v", id, want, got[id].Order)
		}
	}
}

func TestResolve_CrossParentMoveReparentsAndRenumbersTargetGroup(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := []model.Item{
		{ID: "todo-p", Order: 0, Name: "project", CreatedAt: now},
		{ID: "todo-c1", ParentID: strptr("todo-p"), Order: 0, Name: "c1", CreatedAt: at(now, 1)},
		{ID: "todo-c2", ParentID: strptr("todo-p"), Order: 1, Name: "c2", CreatedAt: at(now, 2)},
		{ID: "todo-x", Order: 1, Name: "loose end", CreatedAt: at(now, 3)},
	}
	rows := Project(items, "", nil).Rows

	// Drop the root item onto c2: it joins p's children at c2's position.
	batch := Resolve(DropEvent{SourceID: "todo-x", TargetID: "todo-c2", Kind: DropReorder}, rows, items)

	got := updatesByID(t, batch)
	if len(got) != 3 {
		t.Fatalf("expected target group of 3 renumbered, got %+v", batch)
	}
	if got["todo-c1"].Order != 0 || got["todo-x"].Order != 1 || got["todo-c2"].Order != 2 {
		t.Fatalf("expected c1=0 x=1 c2=2, got %+v", got)
	}
	x := got["todo-x"]
	if !x.SetParent || x.ParentID == nil || *x.ParentID != "todo-p" {
		t.Fatalf("expected todo-x reparented to todo-p, got %+v", x)
	}
	if got["todo-c1"].SetParent || got["todo-c2"].SetParent {
		t.Fatalf("existing children must not be reparented: %+v", got)
	}
}

func TestResolve_CrossParentMoveToRootClearsParent(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := fixtureABC(now)
	rows := Project(items, "", nil).Rows

	// Drag C (child of B) onto root A: C becomes a root at A's position.
	batch := Resolve(DropEvent{SourceID: "todo-c", TargetID: "todo-a", Kind: DropReorder}, rows, items)

	got := updatesByID(t, batch)
	if len(got) != 3 {
		t.Fatalf("expected root group of 3 renumbered, got %+v", batch)
	}
	c := got["todo-c"]
	if !c.SetParent || c.ParentID != nil {
		t.Fatalf("expected todo-c to become a root, got %+v", c)
	}
	if c.Order != 0 || got["todo-a"].Order != 1 || got["todo-b"].Order != 2 {
		t.Fatalf("expected c=0 a=1 b=2, got %+v", got)
	}
}

func TestResolve_ReorderIntoOwnSubtreeIsRejected(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := []model.Item{
		{ID: "todo-a", Order: 0, Name: "A", CreatedAt: now},
		{ID: "todo-b", ParentID: strptr("todo-a"), Order: 0, Name: "B", CreatedAt: at(now, 1)},
		{ID: "todo-c", ParentID: strptr("todo-b"), Order: 0, Name: "C", CreatedAt: at(now, 2)},
	}
	rows := Project(items, "", nil).Rows

	// Dropping A onto C as a reorder would reparent A under B, inside A's own subtree.
	if batch := Resolve(DropEvent{SourceID: "todo-a", TargetID: "todo-c", Kind: DropReorder}, rows, items); batch != nil {
		t.Fatalf("expected cycle-forming reorder to be a no-op, got %+v", batch)
	}
}

func TestResolve_ReorderNeedsBothEndpointsVisible(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := fixtureABC(now)
	// Search for "A" hides B and C from the projection.
	rows := Project(items, "A", nil).Rows

	if batch := Resolve(DropEvent{SourceID: "todo-a", TargetID: "todo-b", Kind: DropReorder}, rows, items); batch != nil {
		t.Fatalf("expected reorder with hidden target to be a no-op, got %+v", batch)
	}
}

func TestResolve_CollapsedTargetStillResolvesByID(t *testing.T) {
	now := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	items := fixtureABC(now)
	// B collapsed: its row is present, only its subtree is hidden. Ids, not
	// screen positions, drive resolution.
	rows := Project(items, "", map[string]bool{"todo-b": true}).Rows

	batch := Resolve(DropEvent{SourceID: "todo-a", TargetID: "todo-b", Kind: DropReorder}, rows, items)

	got := updatesByID(t, batch)
	if got["todo-a"].Order != 1 || got["todo-b"].Order != 0 {
		t.Fatalf("expected a=1 b=0 regardless of collapse, got %+v", got)
	}
}
