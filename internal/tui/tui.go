package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cratedig/cratedig/internal/collection"
	"github.com/cratedig/cratedig/internal/ui"
)

type rowKind int

const (
	rowDivider rowKind = iota
	rowContainer
	rowSong
	rowLoading
)

// row is one visible line of the browse tree. path identifies the node
// across refreshes so expansion state survives tree rebuilds.
type row struct {
	kind     rowKind
	depth    int
	text     string
	path     string
	children bool
	expanded bool
}

// Model is the bubbletea browse screen over a collection browser.
type Model struct {
	browser *collection.Browser
	theme   ui.Theme

	rows         []row
	cursor       int
	expanded     map[string]struct{}
	showDividers bool
	search       string
	searching    bool
	width        int
	height       int
	showHelp     bool
	totals       string
}

func New(browser *collection.Browser, theme ui.Theme) Model {
	return Model{
		browser:      browser,
		theme:        theme,
		expanded:     make(map[string]struct{}),
		showDividers: true,
		totals:       "loading…",
	}
}

type tickMsg struct{}

type refreshMsg struct {
	rows   []row
	totals string
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), tickCmd())
}

// refreshCmd snapshots the visible rows on the browser's goroutine. The
// expansion set is copied so the closure does not race with Update.
func (m Model) refreshCmd() tea.Cmd {
	expanded := make(map[string]struct{}, len(m.expanded))
	for k := range m.expanded {
		expanded[k] = struct{}{}
	}
	browser := m.browser
	tokens := strings.Fields(strings.ToLower(m.search))
	return func() tea.Msg {
		var rows []row
		browser.Do(func(cm *collection.Model) {
			if len(tokens) > 0 {
				rows = filteredRows(cm, cm.Root(), 0, "", tokens)
			} else {
				rows = visibleRows(cm, cm.Root(), 0, "", expanded)
			}
		})
		songs, artists, albums := browser.Totals()
		totals := fmt.Sprintf("%d artists · %d albums · %d songs", artists, albums, songs)
		return refreshMsg{rows: rows, totals: totals}
	}
}

func visibleRows(cm *collection.Model, item *collection.Item, depth int, prefix string, expanded map[string]struct{}) []row {
	var rows []row
	for _, child := range cm.SortedChildren(item) {
		r := row{depth: depth, text: child.DisplayText, children: len(child.Children) > 0}
		switch child.Type {
		case collection.ItemTypeDivider:
			r.kind = rowDivider
			r.path = prefix + "/" + child.Key
		case collection.ItemTypeContainer:
			r.kind = rowContainer
			r.path = prefix + "/" + child.Key
		case collection.ItemTypeSong:
			r.kind = rowSong
			r.path = fmt.Sprintf("%s/s%d", prefix, child.Metadata.ID)
		case collection.ItemTypeLoading:
			r.kind = rowLoading
			r.path = prefix + "/loading"
		default:
			continue
		}
		_, r.expanded = expanded[r.path]
		rows = append(rows, r)
		if r.children && r.expanded {
			childDepth := depth
			if child.Type != collection.ItemTypeDivider {
				childDepth = depth + 1
			}
			rows = append(rows, visibleRows(cm, child, childDepth, r.path, expanded)...)
		}
	}
	return rows
}

// filteredRows walks the tree with the search tokens still unmatched at this
// depth. A token matched by a container covers its whole subtree, so
// "bach suites" finds the album under the artist. Dividers are hidden while
// a search is active; matching subtrees come back fully expanded.
func filteredRows(cm *collection.Model, item *collection.Item, depth int, prefix string, tokens []string) []row {
	var rows []row
	for _, child := range cm.SortedChildren(item) {
		switch child.Type {
		case collection.ItemTypeDivider:
			rows = append(rows, filteredRows(cm, child, depth, prefix+"/"+child.Key, tokens)...)
			continue
		case collection.ItemTypeLoading:
			continue
		}

		remaining := pruneTokens(tokens, child.DisplayText)
		if child.Type == collection.ItemTypeSong {
			if len(remaining) == 0 {
				rows = append(rows, row{
					kind:  rowSong,
					depth: depth,
					text:  child.DisplayText,
					path:  fmt.Sprintf("%s/s%d", prefix, child.Metadata.ID),
				})
			}
			continue
		}

		path := prefix + "/" + child.Key
		sub := filteredRows(cm, child, depth+1, path, remaining)
		if len(remaining) == 0 || len(sub) > 0 {
			rows = append(rows, row{
				kind:     rowContainer,
				depth:    depth,
				text:     child.DisplayText,
				path:     path,
				children: len(child.Children) > 0,
				expanded: true,
			})
			rows = append(rows, sub...)
		}
	}
	return rows
}

// pruneTokens drops the tokens that match the given display text,
// case-insensitively. What remains must match deeper in the tree.
func pruneTokens(tokens []string, text string) []string {
	if len(tokens) == 0 {
		return tokens
	}
	folded := strings.ToLower(text)
	var remaining []string
	for _, tok := range tokens {
		if !strings.Contains(folded, tok) {
			remaining = append(remaining, tok)
		}
	}
	return remaining
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refreshCmd(), tickCmd())

	case refreshMsg:
		m.rows = msg.rows
		m.totals = msg.totals
		if m.cursor >= len(m.rows) {
			m.cursor = len(m.rows) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.searching = true
		return m, nil
	case "esc":
		if m.search != "" {
			m.search = ""
			return m, m.refreshCmd()
		}
	case "?":
		m.showHelp = !m.showHelp
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "pgup":
		m.cursor -= m.pageSize()
		if m.cursor < 0 {
			m.cursor = 0
		}
	case "pgdown":
		m.cursor += m.pageSize()
		if m.cursor > len(m.rows)-1 {
			m.cursor = len(m.rows) - 1
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = len(m.rows) - 1
	case "enter", " ", "l", "right":
		if m.cursor < len(m.rows) {
			r := m.rows[m.cursor]
			if r.children {
				if r.expanded {
					delete(m.expanded, r.path)
				} else {
					m.expanded[r.path] = struct{}{}
				}
				return m, m.refreshCmd()
			}
		}
	case "h", "left":
		if m.cursor < len(m.rows) {
			r := m.rows[m.cursor]
			if r.expanded {
				delete(m.expanded, r.path)
				return m, m.refreshCmd()
			}
		}
	case "d":
		m.showDividers = !m.showDividers
		m.browser.SetShowDividers(m.showDividers)
		m.expanded = make(map[string]struct{})
		return m, m.refreshCmd()
	case "R":
		m.browser.Init()
		m.expanded = make(map[string]struct{})
		return m, m.refreshCmd()
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.searching = false
		m.search = ""
		m.cursor = 0
		return m, m.refreshCmd()
	case "enter":
		m.searching = false
		return m, nil
	case "backspace":
		if m.search != "" {
			r := []rune(m.search)
			m.search = string(r[:len(r)-1])
			m.cursor = 0
			return m, m.refreshCmd()
		}
		return m, nil
	}
	if msg.Type == tea.KeyRunes || msg.String() == " " {
		m.search += msg.String()
		m.cursor = 0
		return m, m.refreshCmd()
	}
	return m, nil
}

func (m Model) pageSize() int {
	if m.height > 4 {
		return m.height - 4
	}
	return 10
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("cratedig"))
	b.WriteString("  ")
	b.WriteString(m.theme.Status.Render(m.totals))
	b.WriteString("\n\n")

	visible := m.pageSize()
	top := 0
	if m.cursor >= visible {
		top = m.cursor - visible + 1
	}
	end := top + visible
	if end > len(m.rows) {
		end = len(m.rows)
	}

	if len(m.rows) == 0 {
		b.WriteString(m.theme.Dim.Render("  (empty)"))
		b.WriteString("\n")
	}

	for i := top; i < end; i++ {
		r := m.rows[i]
		line := m.renderRow(r)
		if i == m.cursor {
			line = m.theme.Selected.Render(stripIndent(r) + r.text)
			line = strings.Repeat("  ", r.depth) + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.searching:
		b.WriteString(m.theme.Status.Render("/" + m.search + "▌"))
	case m.search != "":
		b.WriteString(m.theme.Dim.Render("filter: " + m.search + " · esc clears"))
	case m.showHelp:
		b.WriteString(m.theme.Dim.Render("↑/↓ move · enter expand/collapse · / search · d dividers · R reload · q quit"))
	default:
		b.WriteString(m.theme.Dim.Render("? help"))
	}
	return b.String()
}

func stripIndent(r row) string {
	switch r.kind {
	case rowContainer:
		if r.expanded {
			return "▾ "
		}
		return "▸ "
	case rowSong:
		return "  "
	}
	return ""
}

func (m Model) renderRow(r row) string {
	indent := strings.Repeat("  ", r.depth)
	switch r.kind {
	case rowDivider:
		return indent + m.theme.Divider.Render(r.text)
	case rowContainer:
		marker := "▸ "
		if r.expanded {
			marker = "▾ "
		}
		return indent + m.theme.Container.Render(marker+r.text)
	case rowSong:
		return indent + "  " + m.theme.Song.Render(r.text)
	case rowLoading:
		return indent + m.theme.Dim.Render(r.text)
	}
	return indent + r.text
}
