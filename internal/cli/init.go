package cli

import (
	"os"
	"path/filepath"

	"todotree-cli/internal/store"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a .todotree store in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := app.Dir
			if dir == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return writeErr(cmd, err)
				}
				dir = filepath.Join(cwd, ".todotree")
				app.Dir = dir
			}
			s := store.Store{Dir: dir}
			db, err := s.Load()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.Save(db); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"dir": dir, "items": len(db.Items)}})
		},
	}
}
