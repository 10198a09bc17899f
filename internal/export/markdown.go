package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"todotree-cli/internal/model"
	"todotree-cli/internal/outline"
	"todotree-cli/internal/store"
)

type RenderOptions struct {
	IncludeDone bool
}

// RenderOutlineMarkdown renders the whole tree as a nested task list, in the
// same order the outline view shows it (collapse state is ignored; an export
// always contains everything).
func RenderOutlineMarkdown(items []model.Item, opt RenderOptions) string {
	var buf bytes.Buffer
	buf.WriteString("# Todos\n\n")

	rows := outline.Project(items, "", nil).Rows
	n := 0
	for _, r := range rows {
		if !opt.IncludeDone && r.Item.StatusID == model.StatusDone {
			continue
		}
		mark := " "
		if r.Item.StatusID == model.StatusDone {
			mark = "x"
		}
		buf.WriteString(strings.Repeat("  ", r.Depth))
		fmt.Fprintf(&buf, "- [%s] %s", mark, strings.TrimSpace(r.Item.Name))
		if len(r.Item.Tags) > 0 {
			fmt.Fprintf(&buf, " (%s)", strings.Join(r.Item.Tags, ", "))
		}
		buf.WriteString("\n")
		n++
	}
	if n == 0 {
		buf.WriteString("_nothing here yet_\n")
	}
	return buf.String()
}

// RenderItemMarkdown renders one todo as a standalone page: metadata, the
// full description, then direct children as a task list.
func RenderItemMarkdown(db *store.DB, itemID string) (string, error) {
	if db == nil {
		return "", fmt.Errorf("missing db")
	}
	item, ok := db.FindItem(strings.TrimSpace(itemID))
	if !ok {
		return "", fmt.Errorf("item not found: %s", itemID)
	}

	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + strings.TrimSpace(item.Name))
	writeLn("")
	writeLn("## Meta")
	writeLn("")
	writeLn("- ID: " + item.ID)
	if pid := item.Parent(); pid != "" {
		if p, ok := db.FindItem(pid); ok {
			writeLn("- Parent: " + strings.TrimSpace(p.Name) + " (" + pid + ")")
		} else {
			writeLn("- Parent: " + pid)
		}
	}
	if strings.TrimSpace(item.StatusID) != "" {
		writeLn("- Status: " + strings.TrimSpace(item.StatusID))
	}
	if len(item.Tags) > 0 {
		writeLn("- Tags: " + strings.Join(item.Tags, ", "))
	}
	writeLn("- Created: " + item.CreatedAt.UTC().Format(time.RFC3339))
	writeLn("- Updated: " + item.UpdatedAt.UTC().Format(time.RFC3339))

	if desc := strings.TrimSpace(item.Description); desc != "" {
		writeLn("")
		writeLn("## Description")
		writeLn("")
		writeLn(desc)
	}

	if children := db.ChildrenOf(item.ID); len(children) > 0 {
		writeLn("")
		writeLn("## Children")
		writeLn("")
		for _, ch := range children {
			mark := " "
			if ch.StatusID == model.StatusDone {
				mark = "x"
			}
			writeLn("- [" + mark + "] " + strings.TrimSpace(ch.Name) + " (" + ch.ID + ")")
		}
	}

	return buf.String(), nil
}
