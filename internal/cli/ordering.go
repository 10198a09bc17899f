package cli

import (
	"context"
	"strings"

	"todotree-cli/internal/outline"

	"github.com/spf13/cobra"
)

func newMoveCmd(app *App) *cobra.Command {
	var onto string
	var nest bool

	cmd := &cobra.Command{
		Use:   "move <todo-id> --onto <todo-id> [--nest]",
		Short: "Move a todo: reorder onto a sibling position, or nest under a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}

			sourceID := strings.TrimSpace(args[0])
			targetID := strings.TrimSpace(onto)
			if _, ok := db.FindItem(sourceID); !ok {
				return writeErr(cmd, errNotFound("item", sourceID))
			}
			if _, ok := db.FindItem(targetID); !ok {
				return writeErr(cmd, errNotFound("item", targetID))
			}

			kind := outline.DropReorder
			if nest {
				kind = outline.DropNest
			}

			// Resolve against the full expanded outline so collapsed rows
			// cannot hide a valid target from the scriptable surface.
			rows := outline.Project(db.Items, "", nil).Rows
			batch := outline.Resolve(outline.DropEvent{
				SourceID: sourceID,
				TargetID: targetID,
				Kind:     kind,
			}, rows, db.Items)
			if batch == nil {
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"moved": false,
					"noop":  true,
				}})
			}

			next, err := s.ApplyBatch(context.Background(), db, batch)
			if err != nil {
				return writeErr(cmd, err)
			}
			_ = s.AppendEvent("item.move", sourceID, map[string]any{
				"target":  targetID,
				"kind":    string(kind),
				"updates": len(batch),
			})
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"moved":   true,
				"updates": batch,
				"count":   len(next.Items),
			}})
		},
	}

	cmd.Flags().StringVar(&onto, "onto", "", "Target item id the drop lands on")
	cmd.Flags().BoolVar(&nest, "nest", false, "Nest under the target instead of reordering next to it")
	_ = cmd.MarkFlagRequired("onto")
	return cmd
}
