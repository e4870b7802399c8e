package dashboard

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// helpBarHeight is the number of lines reserved for the help bar at the bottom.
const helpBarHeight = 1

// borderChrome is the number of lines consumed by top + bottom borders.
const borderChrome = 2

// listChrome is the number of list view lines outside the intro and the
// post rows: the blank lines around the title and footer, the title, the
// footer and the notice.
const listChrome = 6

// intro is the explanation shown above the post list.
const intro = "As you visit the posts below, you will notice them in a loading state " +
	"the first time you load them. After you return to this list and open a post " +
	"you have already visited, it loads instantly and refreshes in the background."

// Model is the root Bubble Tea model for the posts browser.
type Model struct {
	ctrl    *Controller
	updates <-chan struct{}
	ctx     context.Context

	list        listState
	rows        viewport.Model
	spinner     spinner.Model
	help        help.Model
	width       int
	height      int
	prefetching bool
	notice      string
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithUpdates sets the channel signalled when a watched query changes,
// typically Bridge.Updates.
func WithUpdates(ch <-chan struct{}) ModelOption {
	return func(m *Model) { m.updates = ch }
}

// WithContext sets the context for work the model starts, such as prefetching.
func WithContext(ctx context.Context) ModelOption {
	return func(m *Model) { m.ctx = ctx }
}

// NewModel creates a Model driving ctrl.
func NewModel(ctrl *Controller, opts ...ModelOption) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		ctrl:    ctrl,
		ctx:     context.Background(),
		rows:    viewport.New(0, 0),
		spinner: s,
		help:    help.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts the spinner and begins listening for query updates.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForUpdate(m.updates))
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.rows.Width = ContentWidth(msg.Width)
		m.rows.Height = m.rowsHeight()
		m.follow()
		return m, nil

	case QueryUpdatedMsg:
		m.list = m.list.clamp(len(m.ctrl.PostList()))
		m.follow()
		return m, waitForUpdate(m.updates)

	case PrefetchDoneMsg:
		m.prefetching = false
		if msg.Err != nil {
			m.notice = fmt.Sprintf("Prefetch failed: %s", msg.Err)
		} else {
			m.notice = fmt.Sprintf("Prefetched %d posts", msg.Count)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey routes key presses to the active view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.ctrl.View() == ViewDetail {
		keys := DetailKeyMap()
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Back):
			m.ctrl.SelectList()
			m.list = m.list.clamp(len(m.ctrl.PostList()))
			m.follow()
		case key.Matches(msg, keys.Refresh):
			m.ctrl.Refetch()
		}
		return m, nil
	}

	keys := ListKeyMap()
	posts := m.ctrl.PostList()
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		m.list = m.list.move(-1, len(posts))
		m.follow()
	case key.Matches(msg, keys.Down):
		m.list = m.list.move(1, len(posts))
		m.follow()
	case key.Matches(msg, keys.Open):
		if id := m.list.selected(posts); id.Valid() {
			m.notice = ""
			m.ctrl.SelectDetail(id)
		}
	case key.Matches(msg, keys.Refresh):
		m.ctrl.Refetch()
	case key.Matches(msg, keys.Prefetch):
		if m.prefetching || len(posts) == 0 {
			return m, nil
		}
		m.prefetching = true
		m.notice = "Prefetching..."
		return m, prefetchCmd(m.ctx, m.ctrl)
	}
	return m, nil
}

// prefetchCmd collects the requests on the update loop and runs them off it.
func prefetchCmd(ctx context.Context, ctrl *Controller) tea.Cmd {
	reqs := ctrl.PrefetchRequests()
	return func() tea.Msg {
		err := ctrl.Prefetch(ctx, reqs)
		return PrefetchDoneMsg{Count: len(reqs), Err: err}
	}
}

// contentHeight returns the usable height for view content,
// accounting for border chrome and the help bar.
func (m Model) contentHeight() int {
	h := m.height - borderChrome - helpBarHeight
	if h < 1 {
		return 1
	}
	return h
}

// rowsHeight returns the number of post rows that fit below the intro.
func (m Model) rowsHeight() int {
	h := m.contentHeight() - lipgloss.Height(introView(ContentWidth(m.width))) - listChrome
	if h < 1 {
		return 1
	}
	return h
}

// follow scrolls the post rows so the cursor row stays in view.
func (m *Model) follow() {
	switch c := m.list.cursor; {
	case c < m.rows.YOffset:
		m.rows.YOffset = c
	case c >= m.rows.YOffset+m.rows.Height:
		m.rows.YOffset = c - m.rows.Height + 1
	}
}

// introView wraps the intro to width.
func introView(width int) string {
	return lipgloss.NewStyle().Width(width).Render(mutedText.Render(intro))
}

// View renders the active view inside a frame with the help bar below.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	width := ContentWidth(m.width)
	var body string
	if m.ctrl.View() == ViewDetail {
		body = renderDetail(m.ctrl.Post(), width, m.spinner.View())
	} else {
		posts := m.ctrl.PostList()
		rows := m.rows
		rows.Height = min(rows.Height, max(len(posts), 1))
		rows.SetContent(listRows(posts, m.list, m.ctrl.Visited))
		rows.SetYOffset(rows.YOffset)
		body = introView(width) + "\n\n" +
			renderList(m.ctrl.Posts(), rows.View(), m.spinner.View(), width)
		if m.notice != "" {
			body += "\n" + lipgloss.NewStyle().MaxWidth(width).Render(mutedText.Render(m.notice))
		}
	}
	body = lipgloss.NewStyle().MaxHeight(m.contentHeight()).Render(body)

	frame := FrameBorder().
		Width(m.width - borderChrome).
		Height(m.contentHeight()).
		Render(body)
	helpView := m.help.View(HelpBindings(m.ctrl.View()))

	return lipgloss.JoinVertical(lipgloss.Left, frame, helpView)
}
