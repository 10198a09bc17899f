package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"todotree-cli/internal/store"
)

type WriteOptions struct {
	IncludeDone bool
	Overwrite   bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteOutline writes the whole tree to toDir: an index.md task list plus one
// items/<id>.md page per todo.
func WriteOutline(db *store.DB, toDir string, opt WriteOptions) (WriteResult, error) {
	if db == nil {
		return WriteResult{}, errors.New("missing db")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	itemsDir := filepath.Join(toDir, "items")
	if err := os.MkdirAll(itemsDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	indexPath := filepath.Join(toDir, "index.md")
	index := RenderOutlineMarkdown(db.Items, RenderOptions{IncludeDone: opt.IncludeDone})
	if err := writeFile(indexPath, []byte(index), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}

	written := []string{indexPath}
	for _, it := range db.Items {
		md, err := RenderItemMarkdown(db, it.ID)
		if err != nil {
			return WriteResult{}, err
		}
		p := filepath.Join(itemsDir, it.ID+".md")
		if err := writeFile(p, []byte(md), opt.Overwrite); err != nil {
			return WriteResult{}, err
		}
		written = append(written, p)
	}
	return WriteResult{Written: written}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
