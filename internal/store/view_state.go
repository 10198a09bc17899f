package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const viewStateFileName = "view_state.json"

// ViewState holds the small per-workspace view concerns the projector takes as
// input: which items are collapsed and the last search query. It lives next to
// the database so state is naturally scoped per store directory, and it is
// intentionally best effort: callers tolerate missing/invalid data.
type ViewState struct {
	Version int `json:"version"`

	Query        string   `json:"query,omitempty"`
	CollapsedIDs []string `json:"collapsedIds,omitempty"`

	// OpenItemID restores the detail pane on TUI relaunch.
	OpenItemID string `json:"openItemId,omitempty"`
}

// CollapsedSet returns the collapsed ids as the lookup shape the projector wants.
func (v *ViewState) CollapsedSet() map[string]bool {
	out := map[string]bool{}
	if v == nil {
		return out
	}
	for _, id := range v.CollapsedIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			out[id] = true
		}
	}
	return out
}

// SetCollapsed adds or removes an id, keeping CollapsedIDs sorted and unique so
// the file diffs cleanly.
func (v *ViewState) SetCollapsed(id string, collapsed bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	set := v.CollapsedSet()
	if collapsed {
		set[id] = true
	} else {
		delete(set, id)
	}
	ids := make([]string, 0, len(set))
	for k := range set {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	v.CollapsedIDs = ids
}

func (s Store) viewStatePath() string {
	return filepath.Join(s.Dir, viewStateFileName)
}

func (s Store) LoadViewState() (*ViewState, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return &ViewState{Version: 1}, nil
	}
	b, err := os.ReadFile(s.viewStatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ViewState{Version: 1}, nil
		}
		return nil, err
	}
	var v ViewState
	if err := json.Unmarshal(b, &v); err != nil {
		// Corrupt state file: fall back to defaults rather than blocking the UI.
		return &ViewState{Version: 1}, nil
	}
	if v.Version == 0 {
		v.Version = 1
	}
	return &v, nil
}

func (s Store) SaveViewState(v *ViewState) error {
	if v == nil {
		return errors.New("nil view state")
	}
	if err := s.Ensure(); err != nil {
		return err
	}
	if v.Version == 0 {
		v.Version = 1
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.viewStatePath(), append(b, '\n'), 0o644)
}
