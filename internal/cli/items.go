package cli

import (
	"strings"
	"time"

	"todotree-cli/internal/model"
	"todotree-cli/internal/outline"
	"todotree-cli/internal/store"

	"github.com/spf13/cobra"
)

func newAddCmd(app *App) *cobra.Command {
	var parent string
	var description string
	var tags []string

	cmd := &cobra.Command{
		Use:   "add <name...>",
		Short: "Add a todo (optionally under a parent)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}

			var parentID *string
			parent = strings.TrimSpace(parent)
			if parent != "" {
				p, ok := db.FindItem(parent)
				if !ok {
					return writeErr(cmd, errNotFound("item", parent))
				}
				pid := p.ID
				parentID = &pid
			}

			now := time.Now().UTC()
			it := model.Item{
				ID:          s.NextItemID(db),
				ParentID:    parentID,
				Order:       nextSiblingOrder(db.Items, parentID),
				Name:        strings.TrimSpace(strings.Join(args, " ")),
				Description: strings.TrimSpace(description),
				Tags:        cleanTags(tags),
				StatusID:    model.StatusActive,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			db.Items = append(db.Items, it)

			if err := s.Save(db); err != nil {
				return writeErr(cmd, err)
			}
			_ = s.AppendEvent("item.create", it.ID, map[string]any{"name": it.Name, "parent": parent})
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "Parent item id (default: root)")
	cmd.Flags().StringVar(&description, "description", "", "Longer markdown description")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Tag (repeatable)")
	return cmd
}

// nextSiblingOrder appends at the end of a sibling group: 1 + max existing
// order, or 0 for the first entry.
func nextSiblingOrder(items []model.Item, parentID *string) float64 {
	next := 0.0
	for _, it := range items {
		if !model.SameParent(it.ParentID, parentID) {
			continue
		}
		if 1+it.Order > next {
			next = 1 + it.Order
		}
	}
	return next
}

func cleanTags(tags []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

type listRow struct {
	ID          string   `json:"id"`
	ParentID    *string  `json:"parentId,omitempty"`
	Depth       int      `json:"depth"`
	Order       float64  `json:"order"`
	Name        string   `json:"name"`
	StatusID    string   `json:"status,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	HasChildren bool     `json:"hasChildren,omitempty"`
	Collapsed   bool     `json:"collapsed,omitempty"`
}

func newListCmd(app *App) *cobra.Command {
	var query string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos as the projected outline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			collapsed := map[string]bool{}
			if !all {
				if vs, err := s.LoadViewState(); err == nil {
					collapsed = vs.CollapsedSet()
				}
			}

			p := outline.Project(db.Items, query, collapsed)
			rows := make([]listRow, 0, len(p.Rows))
			for _, r := range p.Rows {
				rows = append(rows, listRow{
					ID:          r.Item.ID,
					ParentID:    r.Item.ParentID,
					Depth:       r.Depth,
					Order:       r.Item.Order,
					Name:        r.Item.Name,
					StatusID:    r.Item.StatusID,
					Tags:        r.Item.Tags,
					HasChildren: r.HasChildren,
					Collapsed:   r.Collapsed,
				})
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"count": len(p.Filtered),
				"rows":  rows,
			}})
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Filter by name/description/tag substring")
	cmd.Flags().BoolVar(&all, "all", false, "Ignore the persisted collapsed state")
	return cmd
}

// itemContext mirrors what the detail view needs: the item, its ancestor
// chain, its siblings, and its full subtree.
type itemContext struct {
	Current  model.Item    `json:"current"`
	Parents  []model.Item  `json:"parents"`
	Siblings []model.Item  `json:"siblings"`
	Children []subtreeNode `json:"children"`
}

type subtreeNode struct {
	Item     model.Item    `json:"item"`
	Children []subtreeNode `json:"children,omitempty"`
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <todo-id>",
		Short: "Show a todo with its ancestors, siblings and subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			it, ok := db.FindItem(id)
			if !ok {
				return writeErr(cmd, errNotFound("item", id))
			}
			return writeOut(cmd, app, map[string]any{"data": buildItemContext(db, *it)})
		},
	}
}

func buildItemContext(db *store.DB, it model.Item) itemContext {
	ctx := itemContext{Current: it, Parents: []model.Item{}, Siblings: []model.Item{}}

	// Ancestor chain, nearest first. The visited set terminates cleanly if a
	// bad record introduced a cycle.
	visited := map[string]bool{it.ID: true}
	pid := it.Parent()
	for pid != "" && !visited[pid] {
		visited[pid] = true
		p, ok := db.FindItem(pid)
		if !ok {
			break
		}
		ctx.Parents = append(ctx.Parents, *p)
		pid = p.Parent()
	}

	for _, sib := range db.Items {
		if sib.ID == it.ID {
			continue
		}
		if model.SameParent(sib.ParentID, it.ParentID) {
			ctx.Siblings = append(ctx.Siblings, sib)
		}
	}

	ctx.Children = buildSubtree(db, it.ID)
	return ctx
}

func buildSubtree(db *store.DB, parentID string) []subtreeNode {
	children := db.ChildrenOf(parentID)
	out := make([]subtreeNode, 0, len(children))
	for _, ch := range children {
		out = append(out, subtreeNode{Item: ch, Children: buildSubtree(db, ch.ID)})
	}
	return out
}

func newDoneCmd(app *App) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "done <todo-id>",
		Short: "Mark a todo done (or active again with --undo)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			it, ok := db.FindItem(id)
			if !ok {
				return writeErr(cmd, errNotFound("item", id))
			}
			if undo {
				it.StatusID = model.StatusActive
			} else {
				it.StatusID = model.StatusDone
			}
			it.UpdatedAt = time.Now().UTC()

			if err := s.Save(db); err != nil {
				return writeErr(cmd, err)
			}
			_ = s.AppendEvent("item.status", it.ID, map[string]any{"status": it.StatusID})
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "Mark active instead of done")
	return cmd
}

func newRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <todo-id>",
		Short: "Delete a todo and its whole subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			if _, ok := db.FindItem(id); !ok {
				return writeErr(cmd, errNotFound("item", id))
			}

			doomed := subtreeIDs(db, id)
			kept := make([]model.Item, 0, len(db.Items))
			for _, it := range db.Items {
				if !doomed[it.ID] {
					kept = append(kept, it)
				}
			}
			db.Items = kept

			if err := s.Save(db); err != nil {
				return writeErr(cmd, err)
			}
			_ = s.AppendEvent("item.delete", id, map[string]any{"removed": len(doomed)})
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"removed": len(doomed)}})
		},
	}
}

// subtreeIDs collects an item plus all its descendants.
func subtreeIDs(db *store.DB, rootID string) map[string]bool {
	out := map[string]bool{rootID: true}
	queue := []string{rootID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, ch := range db.ChildrenOf(cur) {
			if out[ch.ID] {
				continue
			}
			out[ch.ID] = true
			queue = append(queue, ch.ID)
		}
	}
	return out
}
