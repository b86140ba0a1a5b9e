// Package tui is the terminal explore client: a result list, an ASCII map,
// removable filter chips and a page control, all driven by one explore
// session.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/fetch"
	"github.com/samirrijal/diadiem/internal/core/filter"
	"github.com/samirrijal/diadiem/internal/core/view"
)

// Session is the part of an explore session the client drives.
type Session interface {
	Send(i view.Intent) bool
}

// Feed delivers render models from the session to the client. Only the
// most recent undelivered snapshot is kept.
type Feed struct {
	ch chan view.Snapshot
}

func NewFeed() *Feed {
	return &Feed{ch: make(chan view.Snapshot, 1)}
}

// Put replaces any pending snapshot with s. It never blocks and must only be
// called from one goroutine.
func (f *Feed) Put(s view.Snapshot) {
	for {
		select {
		case f.ch <- s:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

type snapshotMsg view.Snapshot

func (f *Feed) wait() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-f.ch)
	}
}

var sortCycle = []domain.SortOrder{domain.SortDefault, domain.SortRating, domain.SortNewest, domain.SortName}

// Model is the root bubbletea model.
type Model struct {
	session Session
	feed    *Feed

	snap    view.Snapshot
	loaded  bool
	keyword textinput.Model
	typing  bool
	table   table.Model
	mapv    MapView
	width   int
	height  int
}

func New(session Session, feed *Feed) Model {
	ti := textinput.New()
	ti.Placeholder = "press / to search"
	ti.CharLimit = 100
	ti.Prompt = "Search: "

	m := Model{
		session: session,
		feed:    feed,
		keyword: ti,
		mapv:    NewMapView(40, 16),
		width:   100,
		height:  30,
	}
	m.table = table.New(
		table.WithColumns(m.columns()),
		table.WithFocused(true),
		table.WithHeight(16),
	)
	m.table.SetStyles(tableStyles())
	return m
}

func (m Model) Init() tea.Cmd {
	return m.feed.wait()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil
	case snapshotMsg:
		m.apply(view.Snapshot(msg))
		return m, m.feed.wait()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.typing {
			return m.updateTyping(msg)
		}
		if cmd, handled := m.handleKey(msg.String()); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateTyping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.typing = false
		m.keyword.Blur()
		m.send(view.Intent{Type: view.IntentCommit, Filters: map[string]string{filter.KeyKeyword: m.keyword.Value()}})
		return m, nil
	case "esc":
		m.typing = false
		m.keyword.Blur()
		return m, nil
	}
	before := m.keyword.Value()
	var cmd tea.Cmd
	m.keyword, cmd = m.keyword.Update(msg)
	if v := m.keyword.Value(); v != before {
		m.send(view.Intent{Type: view.IntentTyping, Keyword: v})
	}
	return m, cmd
}

// handleKey maps a key outside the search box to an intent. It reports
// false for keys the list should handle.
func (m *Model) handleKey(key string) (tea.Cmd, bool) {
	st := m.snap.State
	switch key {
	case "q":
		return tea.Quit, true
	case "/":
		m.typing = true
		return m.keyword.Focus(), true
	case "right", "n":
		if m.snap.Pagination.HasNext {
			m.send(view.Intent{Type: view.IntentPage, Page: st.Page + 1})
		}
	case "left", "p":
		if m.snap.Pagination.HasPrev {
			m.send(view.Intent{Type: view.IntentPage, Page: st.Page - 1})
		}
	case "s":
		m.commit(filter.KeySort, string(nextSort(st.Sort)))
	case "d":
		m.commit(filter.KeyDeals, strconv.FormatBool(!st.HasDeals))
	case "v":
		m.commit(filter.KeyVerified, strconv.FormatBool(!st.IsVerified))
	case "o":
		m.commit(filter.KeyOpen, strconv.FormatBool(!st.IsOpenNow))
	case "c":
		if card, ok := m.selected(); ok && len(card.Categories) > 0 {
			m.commit(filter.KeyCategory, card.Categories[0])
		}
	case "l":
		if card, ok := m.selected(); ok && card.City != "" {
			m.send(view.Intent{Type: view.IntentCommit, Filters: map[string]string{
				filter.KeyCity:     card.City,
				filter.KeyDistrict: card.District,
			}})
		}
	case "x", "backspace":
		if n := len(m.snap.Tags); n > 0 {
			m.send(view.Intent{Type: view.IntentRemove, Key: m.snap.Tags[n-1].Key})
		}
	case "f":
		m.sendBounds()
		m.send(view.Intent{Type: view.IntentFollow, Follow: !m.snap.MapFollow})
	case "+", "=":
		m.mapv.Zoom(1.5)
		m.sendBounds()
	case "-":
		m.mapv.Zoom(1 / 1.5)
		m.sendBounds()
	case "K":
		m.mapv.Pan(1, 0)
		m.sendBounds()
	case "J":
		m.mapv.Pan(-1, 0)
		m.sendBounds()
	case "H":
		m.mapv.Pan(0, -1)
		m.sendBounds()
	case "L":
		m.mapv.Pan(0, 1)
		m.sendBounds()
	case "0":
		m.mapv.Reset()
		m.mapv.Fit(m.snap.Markers)
		m.sendBounds()
	case "r":
		m.send(view.Intent{Type: view.IntentRetry})
	case "[":
		m.send(view.Intent{Type: view.IntentBack})
	case "]":
		m.send(view.Intent{Type: view.IntentForward})
	default:
		return nil, false
	}
	return nil, true
}

func (m *Model) send(i view.Intent) {
	m.session.Send(i)
}

func (m *Model) commit(key, value string) {
	m.send(view.Intent{Type: view.IntentCommit, Filters: map[string]string{key: value}})
}

func (m *Model) sendBounds() {
	if b, ok := m.mapv.Bounds(); ok {
		m.send(view.Intent{Type: view.IntentBounds, Bounds: &b})
	}
}

func nextSort(cur domain.SortOrder) domain.SortOrder {
	for i, s := range sortCycle {
		if s == cur {
			return sortCycle[(i+1)%len(sortCycle)]
		}
	}
	return sortCycle[1]
}

func (m Model) selected() (view.Card, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.snap.Items) {
		return view.Card{}, false
	}
	return m.snap.Items[i], true
}

func (m *Model) apply(s view.Snapshot) {
	m.snap = s
	m.loaded = true
	if !m.typing {
		m.keyword.SetValue(s.State.Keyword)
	}
	if !s.MapFollow {
		m.mapv.Fit(s.Markers)
	}
	m.table.SetRows(m.rows())
	if m.table.Cursor() >= len(s.Items) {
		m.table.SetCursor(0)
	}
}

func (m Model) listWidth() int {
	w := m.width * 3 / 5
	if w < 50 {
		w = 50
	}
	return w
}

func (m *Model) layout() {
	bodyH := m.height - 9
	if bodyH < 6 {
		bodyH = 6
	}
	m.table.SetColumns(m.columns())
	m.table.SetHeight(bodyH)
	m.table.SetRows(m.rows())
	mapW := m.width - m.listWidth() - 4
	if mapW < 10 {
		mapW = 10
	}
	m.mapv.SetSize(mapW, bodyH)
}

func (m Model) columns() []table.Column {
	nameW := m.listWidth() - 34
	if nameW < 16 {
		nameW = 16
	}
	return []table.Column{
		{Title: "Name", Width: nameW},
		{Title: "District", Width: 12},
		{Title: "Rating", Width: 6},
		{Title: "Open", Width: 4},
		{Title: "Deals", Width: 5},
	}
}

func (m Model) rows() []table.Row {
	rows := make([]table.Row, len(m.snap.Items))
	for i, c := range m.snap.Items {
		rating := "-"
		if c.ReviewCount > 0 {
			rating = fmt.Sprintf("%.1f", c.Rating)
		}
		open := ""
		if c.OpenNow {
			open = "yes"
		}
		deals := ""
		if c.ActiveDeals > 0 {
			deals = strconv.Itoa(c.ActiveDeals)
		}
		name := c.Name
		if c.Verified {
			name += " ✓"
		}
		rows[i] = table.Row{name, c.District, rating, open, deals}
	}
	return rows
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(colorSecondary)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(colorPrimary).
		Bold(true)
	return s
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Diadiem"))
	if m.snap.Query != "" {
		b.WriteString(queryStyle.Render("  ?" + m.snap.Query))
	}
	b.WriteString("\n")
	b.WriteString(m.keyword.View())
	b.WriteString("\n")
	b.WriteString(m.chips())
	b.WriteString("\n")
	b.WriteString(m.status())
	b.WriteString("\n")

	var selected int64
	if card, ok := m.selected(); ok {
		selected = card.ID
	}
	mapLabel := "map"
	if m.snap.MapFollow {
		mapLabel = "map (follow)"
	}
	right := lipgloss.JoinVertical(lipgloss.Left,
		statusStyle.Render(mapLabel),
		mapBorder.Render(m.mapv.Render(m.snap.Markers, selected)),
	)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.table.View(), "  ", right))
	b.WriteString("\n")
	b.WriteString(m.pager())
	b.WriteString(helpStyle.Render("/ search  s sort  d deals  v verified  o open  c category  l location  x remove tag  ←/→ page  f follow  +/- zoom  HJKL pan  [ ] history  r retry  q quit"))
	return b.String()
}

func (m Model) chips() string {
	if len(m.snap.Tags) == 0 {
		return statusStyle.Render("no filters")
	}
	parts := make([]string, len(m.snap.Tags))
	for i, t := range m.snap.Tags {
		parts[i] = chipStyle.Render(t.Label + " ×")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) status() string {
	if !m.loaded {
		return statusStyle.Render("loading…")
	}
	switch m.snap.Phase {
	case fetch.PhaseError:
		return errorStyle.Render("search failed: " + m.snap.Error + " (r to retry)")
	case fetch.PhaseDebouncing:
		return statusStyle.Render("typing…")
	case fetch.PhaseFetching:
		if m.snap.Stalled {
			return statusStyle.Render("still searching…")
		}
		return statusStyle.Render("searching…")
	}
	if m.snap.TotalCount == 0 {
		return statusStyle.Render("no businesses match")
	}
	return lipgloss.NewStyle().Foreground(colorSuccess).
		Render(fmt.Sprintf("%d results, %d shown", m.snap.TotalCount, len(m.snap.Items)))
}

func (m Model) pager() string {
	p := m.snap.Pagination
	if p.TotalPages <= 1 {
		return ""
	}
	var parts []string
	if p.HasPrev {
		parts = append(parts, "‹")
	}
	for _, n := range p.Pages {
		s := strconv.Itoa(n)
		if n == p.Page {
			s = currentPageStyle.Render("[" + s + "]")
		}
		parts = append(parts, s)
	}
	if p.HasNext {
		parts = append(parts, "›")
	}
	return strings.Join(parts, " ") + statusStyle.Render(fmt.Sprintf("  of %d", p.TotalPages))
}

// Run starts the client on the alternate screen and blocks until it quits.
func Run(session Session, feed *Feed) error {
	p := tea.NewProgram(New(session, feed), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
