package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"todotree-cli/internal/model"
	"todotree-cli/internal/outline"
	"todotree-cli/internal/store"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// appModel is the whole TUI: a projected outline with a cursor, an optional
// search line, and an optional detail pane for the selected todo.
type appModel struct {
	s  store.Store
	db *store.DB
	vs *store.ViewState

	rows          []outline.Row
	filteredCount int
	cursor        int

	query     string
	searching bool
	search    textinput.Model

	showDetail bool
	detail     viewport.Model

	status string

	width  int
	height int
}

func newAppModel(s store.Store, db *store.DB) *appModel {
	vs, err := s.LoadViewState()
	if err != nil || vs == nil {
		vs = &store.ViewState{Version: 1}
	}

	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search"
	search.CharLimit = 120

	m := &appModel{
		s:      s,
		db:     db,
		vs:     vs,
		query:  vs.Query,
		search: search,
		width:  80,
		height: 24,
	}
	m.search.SetValue(m.query)
	m.reproject()
	return m
}

func (m *appModel) Init() tea.Cmd { return nil }

// reproject rebuilds the visible rows from the current items, query and
// collapsed set, keeping the cursor in range.
func (m *appModel) reproject() {
	p := outline.Project(m.db.Items, m.query, m.vs.CollapsedSet())
	m.rows = p.Rows
	m.filteredCount = len(p.Filtered)
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.Width = msg.Width
		m.detail.Height = msg.Height - 2
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		if m.showDetail {
			return m.updateDetail(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *appModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.query = ""
		m.search.SetValue("")
		m.reproject()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.query = m.search.Value()
	m.reproject()
	return m, cmd
}

func (m *appModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter":
		m.showDetail = false
		m.vs.OpenItemID = ""
		m.saveViewState()
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *appModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "ctrl+c", "q":
		m.vs.Query = m.query
		m.saveViewState()
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.rows) - 1
		if m.cursor < 0 {
			m.cursor = 0
		}

	case "J", "shift+down":
		m.dropOnto(m.cursor+1, outline.DropReorder)
	case "K", "shift+up":
		m.dropOnto(m.cursor-1, outline.DropReorder)
	case ">":
		m.dropOnto(m.cursor-1, outline.DropNest)

	case "tab", " ":
		m.toggleCollapse()
	case "/":
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink
	case "x":
		m.toggleDone()
	case "enter":
		m.openDetail()
	}
	return m, nil
}

// dropOnto treats the row at targetIdx as the landing row of a drag of the
// selected row, then persists whatever batch the resolver produces. A nil
// batch (self-drop, cycle, same position) changes nothing.
func (m *appModel) dropOnto(targetIdx int, kind outline.DropKind) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return
	}
	if targetIdx < 0 || targetIdx >= len(m.rows) {
		return
	}
	srcID := m.rows[m.cursor].Item.ID
	tgtID := m.rows[targetIdx].Item.ID

	batch := outline.Resolve(outline.DropEvent{
		SourceID: srcID,
		TargetID: tgtID,
		Kind:     kind,
	}, m.rows, m.db.Items)
	if batch == nil {
		return
	}

	next, err := m.s.ApplyBatch(context.Background(), m.db, batch)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.db = next
	_ = m.s.AppendEvent("item.move", srcID, map[string]any{
		"target": tgtID,
		"kind":   string(kind),
	})
	m.reproject()
	// Keep the selection on the moved item wherever it landed.
	for i, r := range m.rows {
		if r.Item.ID == srcID {
			m.cursor = i
			break
		}
	}
}

func (m *appModel) toggleCollapse() {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return
	}
	r := m.rows[m.cursor]
	if !r.HasChildren && !r.Collapsed {
		return
	}
	m.vs.SetCollapsed(r.Item.ID, !r.Collapsed)
	m.saveViewState()
	m.reproject()
}

func (m *appModel) toggleDone() {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return
	}
	id := m.rows[m.cursor].Item.ID
	it, ok := m.db.FindItem(id)
	if !ok {
		return
	}
	if it.StatusID == model.StatusDone {
		it.StatusID = model.StatusActive
	} else {
		it.StatusID = model.StatusDone
	}
	it.UpdatedAt = time.Now().UTC()
	if err := m.s.Save(m.db); err != nil {
		m.status = err.Error()
		return
	}
	_ = m.s.AppendEvent("item.status", id, map[string]any{"status": it.StatusID})
	m.reproject()
}

func (m *appModel) openDetail() {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return
	}
	it := m.rows[m.cursor].Item
	m.vs.OpenItemID = it.ID
	m.saveViewState()

	width := m.width
	if width <= 0 {
		width = 80
	}
	m.detail.Width = width
	m.detail.Height = m.height - 2
	if m.detail.Height < 3 {
		m.detail.Height = 3
	}
	m.detail.SetContent(renderMarkdown(m.detailMarkdown(it), width-2))
	m.detail.GotoTop()
	m.showDetail = true
}

func (m *appModel) detailMarkdown(it model.Item) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", it.Name)
	if crumbs := m.breadcrumb(it); crumbs != "" {
		fmt.Fprintf(&sb, "_%s_\n\n", crumbs)
	}
	if strings.TrimSpace(it.Description) != "" {
		sb.WriteString(it.Description)
		sb.WriteString("\n\n")
	}
	if len(it.Tags) > 0 {
		fmt.Fprintf(&sb, "Tags: %s\n\n", strings.Join(it.Tags, ", "))
	}
	if children := m.db.ChildrenOf(it.ID); len(children) > 0 {
		sb.WriteString("## Children\n\n")
		for _, ch := range children {
			mark := " "
			if ch.StatusID == model.StatusDone {
				mark = "x"
			}
			fmt.Fprintf(&sb, "- [%s] %s\n", mark, ch.Name)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "`%s`\n", it.ID)
	return sb.String()
}

// breadcrumb renders the ancestor chain, root first. The visited set keeps a
// corrupted parent cycle from spinning forever.
func (m *appModel) breadcrumb(it model.Item) string {
	var names []string
	visited := map[string]bool{it.ID: true}
	pid := it.Parent()
	for pid != "" && !visited[pid] {
		visited[pid] = true
		p, ok := m.db.FindItem(pid)
		if !ok {
			break
		}
		names = append([]string{p.Name}, names...)
		pid = p.Parent()
	}
	return strings.Join(names, " / ")
}

func (m *appModel) saveViewState() {
	// View state is a convenience, never block the UI on it.
	_ = m.s.SaveViewState(m.vs)
}

func (m *appModel) View() string {
	if m.showDetail {
		header := styleAccent().Bold(true).Render("todotree") + styleMuted().Render("  enter/esc back")
		return header + "\n" + m.detail.View()
	}

	var sb strings.Builder
	sb.WriteString(m.headerLine())
	sb.WriteString("\n")

	visible := m.height - 3
	if visible < 1 {
		visible = len(m.rows)
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := start + visible
	if end > len(m.rows) {
		end = len(m.rows)
	}

	if len(m.rows) == 0 {
		sb.WriteString(styleMuted().Render("  no todos, press a to add via the CLI"))
		sb.WriteString("\n")
	}
	for i := start; i < end; i++ {
		sb.WriteString(m.renderRow(i))
		sb.WriteString("\n")
	}

	sb.WriteString(m.footerLine())
	return sb.String()
}

func (m *appModel) headerLine() string {
	title := styleAccent().Bold(true).Render("todotree")
	count := styleMuted().Render(fmt.Sprintf("  %d shown / %d matched", len(m.rows), m.filteredCount))
	if m.searching {
		return title + "  " + m.search.View()
	}
	if m.query != "" {
		return title + "  " + styleAccent().Render("/"+m.query) + count
	}
	return title + count
}

func (m *appModel) footerLine() string {
	if m.status != "" {
		return styleMuted().Render(m.status)
	}
	return styleMuted().Render("j/k move  J/K drag  > nest  space fold  / search  x done  enter detail  q quit")
}

func (m *appModel) renderRow(i int) string {
	r := m.rows[i]

	twisty := glyphBullet()
	switch {
	case r.Collapsed:
		twisty = glyphTwistyCollapsed()
	case r.HasChildren:
		twisty = glyphTwistyExpanded()
	}

	name := r.Item.Name
	if r.Item.StatusID == model.StatusDone {
		name = styleDone().Render(glyphCheck() + " " + name)
	}

	line := strings.Repeat("  ", r.Depth) + twisty + " " + name
	if len(r.Item.Tags) > 0 {
		line += styleMuted().Render("  #" + strings.Join(r.Item.Tags, " #"))
	}

	width := m.width
	if width <= 0 {
		width = 80
	}
	line = ansi.Truncate(line, width, "…")
	if i == m.cursor {
		return styleSelected().Render(line)
	}
	return line
}
