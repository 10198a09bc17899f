package cli

import (
	"todotree-cli/internal/export"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var to string
	var includeDone bool
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "export --to <dir>",
		Short: "Export the tree as markdown files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := export.WriteOutline(db, to, export.WriteOptions{
				IncludeDone: includeDone,
				Overwrite:   overwrite,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Directory to write markdown into")
	cmd.Flags().BoolVar(&includeDone, "include-done", false, "Keep done items in the index task list")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing files")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
