package outline

import (
	"math"
	"sort"
	"strings"

	"todotree-cli/internal/model"
)

// DropKind discriminates the two drop gestures the UI layer can report.
type DropKind string

const (
	// DropNest makes the source a child of the target (appended last).
	DropNest DropKind = "nest"
	// DropReorder repositions the source at the target's list position,
	// adopting the target's parent when they differ.
	DropReorder DropKind = "reorder"
)

// DropEvent is the plain shape a drag layer reports on drop. The resolver
// performs no coordinate math; it only interprets ids against the current
// projection and the full item collection.
type DropEvent struct {
	SourceID string
	TargetID string
	Kind     DropKind
}

// Update is one entry of a resolved batch: the new order for an item, and
// optionally a new parent. SetParent distinguishes "leave the parent alone"
// from "reparent to ParentID" (which may be nil, meaning root).
type Update struct {
	ID        string
	Order     float64
	ParentID  *string
	SetParent bool
}

// Resolve is intentionally data-in/data-out: it turns a drop event into the
// minimal batch of updates to persist, or nil when the drop is a no-op.
//
// A nil result is a first-class outcome, not a failure: self-drops, missing
// ids, cycle-forming nests and same-position drops are all expected user
// interactions and must not surface as errors.
func Resolve(ev DropEvent, rows []Row, items []model.Item) []Update {
	srcID := strings.TrimSpace(ev.SourceID)
	tgtID := strings.TrimSpace(ev.TargetID)
	if srcID == "" || tgtID == "" || srcID == tgtID {
		return nil
	}
	src, ok := findItem(items, srcID)
	if !ok {
		return nil
	}

	switch ev.Kind {
	case DropNest:
		return resolveNest(src, tgtID, items)
	case DropReorder:
		return resolveReorder(src, tgtID, rows, items)
	default:
		return nil
	}
}

func resolveNest(src model.Item, tgtID string, items []model.Item) []Update {
	tgt, ok := findItem(items, tgtID)
	if !ok {
		return nil
	}
	// Cycle guard: never nest an item under its own subtree. This walks the
	// full, unfiltered collection; collapse/search state is irrelevant here.
	if isDescendant(items, src.ID, tgt.ID) {
		return nil
	}

	// Append as the last child of the target.
	next := 1.0
	for _, it := range items {
		if it.Parent() != tgt.ID || math.IsNaN(it.Order) {
			continue
		}
		if 1+it.Order > next {
			next = 1 + it.Order
		}
	}
	pid := tgt.ID
	return []Update{{ID: src.ID, Order: next, ParentID: &pid, SetParent: true}}
}

func resolveReorder(src model.Item, tgtID string, rows []Row, items []model.Item) []Update {
	if rowIndex(rows, src.ID) < 0 || rowIndex(rows, tgtID) < 0 {
		return nil
	}
	tgt, ok := findItem(items, tgtID)
	if !ok {
		return nil
	}

	if model.SameParent(src.ParentID, tgt.ParentID) {
		return reorderWithinGroup(src, tgt, items)
	}
	return reorderAcrossGroups(src, tgt, items)
}

// reorderWithinGroup moves src to tgt's position among their shared siblings
// and rewrites the whole group to dense integer orders 0..N-1.
func reorderWithinGroup(src, tgt model.Item, items []model.Item) []Update {
	group := siblingsOf(items, src.ParentID, "")
	oldIdx := indexOf(group, src.ID)
	newIdx := indexOf(group, tgt.ID)
	if oldIdx < 0 || newIdx < 0 || oldIdx == newIdx {
		// Same index means the drop lands where the item already sits; emit
		// nothing rather than a batch of unchanged values.
		return nil
	}

	reordered := moveItem(group, oldIdx, newIdx)
	return compactGroup(reordered, "", nil)
}

// reorderAcrossGroups reinserts src into the target's sibling group at the
// target's position, reparenting src. The source's former group keeps its
// (now gappy) orders; relative order there is unaffected by the departure.
func reorderAcrossGroups(src, tgt model.Item, items []model.Item) []Update {
	// Refuse reparenting into the source's own subtree.
	if tgt.Parent() == src.ID || isDescendant(items, src.ID, tgt.Parent()) {
		return nil
	}

	group := siblingsOf(items, tgt.ParentID, src.ID)
	at := indexOf(group, tgt.ID)
	if at < 0 {
		return nil
	}

	final := make([]model.Item, 0, len(group)+1)
	final = append(final, group[:at]...)
	final = append(final, src)
	final = append(final, group[at:]...)

	var newParent *string
	if pid := tgt.Parent(); pid != "" {
		newParent = &pid
	}
	return compactGroup(final, src.ID, newParent)
}

// compactGroup emits sequential integer orders 0..N-1 for a sibling group in
// its final arrangement. When reparentID is non-empty, that entry also carries
// the destination parent reference (nil meaning root).
func compactGroup(final []model.Item, reparentID string, parentID *string) []Update {
	out := make([]Update, 0, len(final))
	for i, it := range final {
		u := Update{ID: it.ID, Order: float64(i)}
		if reparentID != "" && it.ID == reparentID {
			u.SetParent = true
			u.ParentID = parentID
		}
		out = append(out, u)
	}
	return out
}

// isDescendant reports whether id sits inside ancestorID's subtree (or is
// ancestorID itself). It walks parent references through the full collection;
// a visited set makes pre-existing cycles in bad data terminate as "not found"
// instead of hanging.
func isDescendant(items []model.Item, ancestorID, id string) bool {
	cur := strings.TrimSpace(id)
	visited := map[string]bool{}
	for cur != "" && !visited[cur] {
		if cur == ancestorID {
			return true
		}
		visited[cur] = true
		it, ok := findItem(items, cur)
		if !ok {
			return false
		}
		cur = it.Parent()
	}
	return false
}

// siblingsOf returns the full unfiltered sibling group for a parent reference,
// in canonical order, optionally leaving out one id.
func siblingsOf(items []model.Item, parentID *string, excludeID string) []model.Item {
	var out []model.Item
	for _, it := range items {
		if it.ID == excludeID {
			continue
		}
		if model.SameParent(it.ParentID, parentID) {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return CompareSiblings(out[i], out[j]) < 0 })
	return out
}

// moveItem removes the element at from and reinserts it at to (array move
// semantics over the group's canonical order).
func moveItem(group []model.Item, from, to int) []model.Item {
	out := make([]model.Item, 0, len(group))
	moved := group[from]
	for i, it := range group {
		if i == from {
			continue
		}
		out = append(out, it)
	}
	if to > len(out) {
		to = len(out)
	}
	out = append(out, model.Item{})
	copy(out[to+1:], out[to:])
	out[to] = moved
	return out
}

func findItem(items []model.Item, id string) (model.Item, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}

func indexOf(xs []model.Item, id string) int {
	for i, x := range xs {
		if x.ID == id {
			return i
		}
	}
	return -1
}

func rowIndex(rows []Row, id string) int {
	for i := range rows {
		if rows[i].Item.ID == id {
			return i
		}
	}
	return -1
}
