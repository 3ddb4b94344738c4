// Package tui is the interactive terminal reader: grouped posts on the
// left, the selected post on the right.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/feedr/internal/gateway"
	"github.com/idilsaglam/feedr/internal/model"
	"github.com/idilsaglam/feedr/internal/store"
	"github.com/idilsaglam/feedr/internal/ui"
	"github.com/idilsaglam/feedr/internal/view"
)

// Options tune the reader.
type Options struct {
	HideRead bool
	Theme    ui.Theme
}

type (
	// snapshotMsg carries a snapshot published by the store.
	snapshotMsg store.Snapshot

	alertMsg struct {
		message string
		err     error
	}

	opDoneMsg struct {
		op  string
		err error
	}

	refreshDoneMsg struct{ started bool }

	articleMsg struct {
		link    string
		article model.Article
		err     error
	}
)

// Model implements tea.Model over a store.
type Model struct {
	ctx    context.Context
	store  *store.Store
	parser gateway.ArticleParser
	theme  ui.Theme
	keys   keyMap

	snap     store.Snapshot
	hideRead bool

	list     list.Model
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	adding     bool
	inputErr   string
	alert      *alertMsg
	status     string
	refreshing bool

	article        *model.Article
	articleLink    string
	loadingArticle bool

	// what the pane last rendered, to keep the scroll offset across snapshots
	shownLink    string
	shownArticle *model.Article

	width, height int
}

// New builds the reader model. parser may be nil, which disables the full
// article key.
func New(ctx context.Context, st *store.Store, parser gateway.ArticleParser, opt Options) Model {
	keys := newKeyMap()

	l := list.New(nil, rowDelegate{theme: opt.Theme}, 0, 0)
	l.Title = "feedr"
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = opt.Theme.Title
	l.Styles.HelpStyle = opt.Theme.Muted
	l.Styles.PaginationStyle = opt.Theme.Muted
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("row", "rows")
	l.AdditionalShortHelpKeys = keys.help
	l.AdditionalFullHelpKeys = keys.help

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "https://example.com/rss [name]"
	ti.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = opt.Theme.Accent

	m := Model{
		ctx:      ctx,
		store:    st,
		parser:   parser,
		theme:    opt.Theme,
		keys:     keys,
		hideRead: opt.HideRead,
		list:     l,
		viewport: viewport.New(0, 0),
		input:    ti,
		spinner:  sp,
	}
	m.setSnapshot(st.Snapshot())
	return m
}

func (m Model) Init() tea.Cmd {
	st, ctx := m.store, m.ctx
	return func() tea.Msg {
		if err := st.Reload(ctx); err != nil {
			return alertMsg{message: "Failed to load feeds", err: err}
		}
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case snapshotMsg:
		// commands publish from their own goroutines, so versions can arrive
		// out of order
		if s := store.Snapshot(msg); s.Version >= m.snap.Version {
			m.setSnapshot(s)
		}
		return m, nil

	case alertMsg:
		m.alert = &msg
		return m, nil

	case opDoneMsg:
		if msg.err != nil {
			m.alert = &alertMsg{message: "Failed to " + msg.op, err: msg.err}
			return m, nil
		}
		m.status = msg.op + ": done"
		return m, nil

	case refreshDoneMsg:
		m.refreshing = false
		if !msg.started {
			m.status = "refresh already running"
		}
		return m, nil

	case articleMsg:
		m.loadingArticle = false
		if msg.err != nil {
			m.alert = &alertMsg{message: "Failed to load article", err: msg.err}
			return m, nil
		}
		a := msg.article
		m.article, m.articleLink = &a, msg.link
		m.renderContent()
		return m, nil

	case spinner.TickMsg:
		if !m.refreshing && !m.snap.Refreshing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.alert != nil {
		if key.Matches(msg, m.keys.Dismiss) {
			m.alert = nil
		}
		return m, nil
	}
	if m.adding {
		return m.updateInput(msg)
	}
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Open):
		p, ok := m.cursorPost()
		if !ok {
			return m, nil
		}
		st := m.store
		return m, func() tea.Msg {
			st.Select(&p)
			st.MarkRead(p.Link)
			return nil
		}

	case key.Matches(msg, m.keys.Toggle):
		p, ok := m.cursorPost()
		if !ok {
			return m, nil
		}
		st, read := m.store, m.snap.IsRead(p.Link)
		return m, func() tea.Msg {
			if read {
				st.MarkUnread(p.Link)
			} else {
				st.MarkRead(p.Link)
			}
			return nil
		}

	case key.Matches(msg, m.keys.HideRead):
		m.hideRead = !m.hideRead
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.refreshing || m.snap.Refreshing {
			m.status = "refresh already running"
			return m, nil
		}
		m.refreshing = true
		m.status = ""
		st, ctx := m.store, m.ctx
		return m, tea.Batch(func() tea.Msg {
			return refreshDoneMsg{started: st.Refresh(ctx)}
		}, m.spinner.Tick)

	case key.Matches(msg, m.keys.Add):
		m.adding = true
		m.inputErr = ""
		m.input.SetValue("")
		m.input.Focus()
		m.resize()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Remove):
		p, ok := m.cursorPost()
		if !ok {
			return m, nil
		}
		url, ok := view.FeedURL(m.snap.Feeds, p)
		if !ok {
			m.status = "no subscribed feed for this post"
			return m, nil
		}
		st, ctx := m.store, m.ctx
		return m, func() tea.Msg {
			return opDoneMsg{op: "remove feed", err: st.RemoveFeed(ctx, url)}
		}

	case key.Matches(msg, m.keys.Parse):
		p, ok := m.cursorPost()
		if !ok {
			return m, nil
		}
		if m.parser == nil {
			m.status = "full articles are not available"
			return m, nil
		}
		m.loadingArticle = true
		st, parser, ctx := m.store, m.parser, m.ctx
		return m, func() tea.Msg {
			// the pane only shows the article of the selected post
			st.Select(&p)
			a, err := parser.ParseArticle(ctx, p.Link)
			return articleMsg{link: p.Link, article: a, err: err}
		}

	case key.Matches(msg, m.keys.ScrollDown, m.keys.ScrollUp):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		fields := strings.Fields(m.input.Value())
		if len(fields) == 0 {
			m.inputErr = "URL cannot be empty"
			return m, nil
		}
		url, name := fields[0], strings.Join(fields[1:], " ")
		m.closeInput()
		st, ctx := m.store, m.ctx
		return m, func() tea.Msg {
			return opDoneMsg{op: "add feed", err: st.AddFeed(ctx, url, name)}
		}
	case "esc":
		m.closeInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closeInput() {
	m.adding = false
	m.inputErr = ""
	m.input.SetValue("")
	m.input.Blur()
	m.resize()
}

// cursorPost is the post under the list cursor, if the cursor is on one.
func (m Model) cursorPost() (model.Post, bool) {
	it, ok := m.list.SelectedItem().(rowItem)
	if !ok {
		return model.Post{}, false
	}
	return it.post()
}

func (m *Model) setSnapshot(s store.Snapshot) {
	m.snap = s
	m.rebuild()
	m.renderContent()
}

// rebuild re-projects the snapshot and keeps the cursor on the same post.
func (m *Model) rebuild() {
	keep := ""
	if p, ok := m.cursorPost(); ok {
		keep = p.Link
	} else if m.snap.Selected != nil {
		keep = m.snap.Selected.Link
	}

	v := view.Project(m.snap.Feeds, m.snap.Posts, m.snap.Read, view.Options{HideRead: m.hideRead})
	items := buildRows(v, m.snap.Read, m.snap.Selected)
	m.list.SetItems(items)
	m.list.Title = m.title(v)

	first := -1
	for i, it := range items {
		r := it.(rowItem)
		if r.Header {
			continue
		}
		if first < 0 {
			first = i
		}
		if keep != "" && r.Post.Link == keep {
			m.list.Select(i)
			return
		}
	}
	if first >= 0 && (m.list.Index() >= len(items) || items[m.list.Index()].(rowItem).Header) {
		m.list.Select(first)
	}
}

func (m Model) title(v view.View) string {
	t := m.theme
	unread := v.Unread(m.snap.Read)
	s := fmt.Sprintf("%s   %s %d  %s %d",
		t.Title.Render("feedr"),
		t.Unread.Render(t.SymUnread), unread,
		t.Accent.Render("Total"), v.Len(),
	)
	if m.hideRead {
		s += "  " + t.Muted.Render("(unread only)")
	}
	return s
}

func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	footer := 1
	if m.adding {
		footer += 4
	}
	listWidth := m.width * 2 / 5
	m.list.SetSize(listWidth, m.height-footer)
	m.viewport.Width = max(m.width-listWidth-4, 10)
	m.viewport.Height = max(m.height-footer-2, 1)
	m.renderContent()
}

// renderContent fills the right pane with the selected post.
func (m *Model) renderContent() {
	p := m.snap.Selected
	if p == nil {
		m.shownLink, m.shownArticle = "", nil
		m.viewport.SetContent(m.theme.Muted.Render("No post selected"))
		return
	}
	t := m.theme
	var article *model.Article

	var b strings.Builder
	b.WriteString(t.Title.Render(p.Title) + "\n")
	meta := []string{view.Label(m.snap.Feeds, p.Source)}
	if at, ok := p.Published(); ok {
		meta = append(meta, at.Local().Format("2006-01-02 15:04"))
	}
	b.WriteString(t.Muted.Render(strings.Join(meta, " · ")) + "\n")
	b.WriteString(t.Accent.Render(p.Link) + "\n\n")

	body := ui.PlainText(p.Body())
	if m.article != nil && m.articleLink == p.Link {
		article = m.article
		if m.article.Byline != "" {
			b.WriteString(t.Muted.Render("by "+m.article.Byline) + "\n\n")
		}
		body = ui.PlainText(m.article.Content)
	}
	if m.viewport.Width > 0 {
		body = lipgloss.NewStyle().Width(m.viewport.Width).Render(body)
	}
	b.WriteString(body)

	if p.Enclosure != nil && p.Enclosure.URL != "" {
		b.WriteString("\n\n" + t.Muted.Render("attachment: "+p.Enclosure.URL))
	}
	m.viewport.SetContent(b.String())
	if p.Link != m.shownLink || article != m.shownArticle {
		m.viewport.GotoTop()
	}
	m.shownLink, m.shownArticle = p.Link, article
}

func (m Model) View() string {
	if m.width == 0 {
		return "loading…"
	}
	t := m.theme

	if m.alert != nil {
		lines := []string{t.Error.Render(m.alert.message)}
		if m.alert.err != nil {
			lines = append(lines, m.alert.err.Error())
		}
		lines = append(lines, "", t.Muted.Render("enter to dismiss"))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, t.Panel(lines))
	}

	pane := lipgloss.NewStyle().
		Border(t.Border).
		BorderForeground(t.BorderColor).
		Padding(0, 1).
		Render(m.viewport.View())
	content := lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), pane)

	if m.adding {
		title := "Add feed"
		if m.inputErr != "" {
			title += "  " + t.Error.Render(m.inputErr)
		}
		content += "\n" + t.Panel([]string{title, m.input.View()})
	}
	return content + "\n" + m.statusLine()
}

func (m Model) statusLine() string {
	t := m.theme
	var parts []string
	if m.refreshing || m.snap.Refreshing {
		parts = append(parts, m.spinner.View()+" refreshing feeds")
	}
	if m.loadingArticle {
		parts = append(parts, "loading article")
	}
	if m.snap.FromCache {
		parts = append(parts, "cached")
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return t.Muted.Render(strings.Join(parts, " · "))
}
