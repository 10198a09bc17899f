package outline

import (
	"math"
	"sort"
	"strings"

	"todotree-cli/internal/model"
)

// Row is one line of the linearized outline.
type Row struct {
	Item        model.Item
	Depth       int
	HasChildren bool
	Collapsed   bool
}

// Projection is the result of flattening the item forest for display.
//
// Filtered is the flat post-filter collection (for counts/empty states);
// Rows is the depth-annotated, depth-first linearization used for rendering
// and for index-based drop interpretation.
type Projection struct {
	Filtered []model.Item
	Rows     []Row
}

// Project turns a flat item collection plus view state (search query, collapsed
// set) into a deterministic outline. It never mutates its inputs: two calls
// with identical inputs produce identical output.
//
// Semantics:
//   - query filters case-insensitively on name, description and tags
//   - an item whose parent is filtered out (or missing/cyclic) is shown as a root;
//     its stored ParentID is untouched
//   - roots keep the order of the incoming collection, so whatever ordering the
//     store imposed (canonical sibling order) survives projection
//   - children are ordered by CompareSiblings (Order first, CreatedAt/ID ties)
//   - a collapsed item contributes its own row but hides its subtree
func Project(items []model.Item, query string, collapsed map[string]bool) Projection {
	filtered := filterItems(items, query)

	visible := make(map[string]bool, len(filtered))
	for _, it := range filtered {
		visible[it.ID] = true
	}

	// Group by effective parent: the stored parent counts only when it is
	// itself visible, otherwise the item is promoted to a root for display.
	children := map[string][]model.Item{}
	var roots []model.Item
	for _, it := range filtered {
		pid := it.Parent()
		if pid == "" || !visible[pid] || pid == it.ID {
			roots = append(roots, it)
			continue
		}
		children[pid] = append(children[pid], it)
	}
	for pid := range children {
		sibs := children[pid]
		sortSiblings(sibs)
		children[pid] = sibs
	}

	rows := make([]Row, 0, len(filtered))
	var walk func(it model.Item, depth int)
	walk = func(it model.Item, depth int) {
		rows = append(rows, Row{
			Item:        it,
			Depth:       depth,
			HasChildren: len(children[it.ID]) > 0,
			Collapsed:   collapsed[it.ID],
		})
		if collapsed[it.ID] {
			return
		}
		for _, ch := range children[it.ID] {
			walk(ch, depth+1)
		}
	}
	for _, r := range roots {
		walk(r, 0)
	}

	return Projection{Filtered: filtered, Rows: rows}
}

func filterItems(items []model.Item, query string) []model.Item {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Item, 0, len(items))
	if q == "" {
		out = append(out, items...)
		return out
	}
	for _, it := range items {
		if matchesQuery(it, q) {
			out = append(out, it)
		}
	}
	return out
}

func matchesQuery(it model.Item, q string) bool {
	if strings.Contains(strings.ToLower(it.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(it.Description), q) {
		return true
	}
	for _, tag := range it.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// CompareSiblings is the canonical sibling comparator: ascending Order, then
// CreatedAt, then ID. NaN orders sort last (a bad record must not take over
// the group, see malformed-input handling). The CreatedAt/ID tie-break keeps
// equal orders stable across projections so rows never reshuffle between reads.
func CompareSiblings(a, b model.Item) int {
	an := math.IsNaN(a.Order)
	bn := math.IsNaN(b.Order)
	switch {
	case an && !bn:
		return 1
	case bn && !an:
		return -1
	case !an && !bn:
		if a.Order < b.Order {
			return -1
		}
		if a.Order > b.Order {
			return 1
		}
	}
	if a.CreatedAt.Before(b.CreatedAt) {
		return -1
	}
	if a.CreatedAt.After(b.CreatedAt) {
		return 1
	}
	if a.ID < b.ID {
		return -1
	}
	if a.ID > b.ID {
		return 1
	}
	return 0
}

func sortSiblings(xs []model.Item) {
	sort.SliceStable(xs, func(i, j int) bool { return CompareSiblings(xs[i], xs[j]) < 0 })
}
