package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newCollapseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "collapse <todo-id>",
		Short: "Collapse a todo's subtree in the outline view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setCollapsed(cmd, app, strings.TrimSpace(args[0]), true)
		},
	}
}

func newExpandCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "expand <todo-id>",
		Short: "Expand a previously collapsed todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setCollapsed(cmd, app, strings.TrimSpace(args[0]), false)
		},
	}
}

func setCollapsed(cmd *cobra.Command, app *App, id string, collapsed bool) error {
	db, s, err := loadDB(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	if _, ok := db.FindItem(id); !ok {
		return writeErr(cmd, errNotFound("item", id))
	}

	vs, err := s.LoadViewState()
	if err != nil {
		return writeErr(cmd, err)
	}
	vs.SetCollapsed(id, collapsed)
	if err := s.SaveViewState(vs); err != nil {
		return writeErr(cmd, err)
	}
	return writeOut(cmd, app, map[string]any{"data": map[string]any{
		"id":        id,
		"collapsed": collapsed,
	}})
}
