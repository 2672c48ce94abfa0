package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// App is the top-level Bubble Tea model that routes between pages and owns
// the widget state.
type App struct {
	pages    []Page
	active   int
	state    *State
	keys     KeyMap
	help     help.Model
	refresh  func()
	interval time.Duration
	source   string
	width    int
	height   int
}

// Option configures an App.
type Option func(*App)

// WithRefresh sets the function bound to the refresh key.
func WithRefresh(fn func()) Option {
	return func(a *App) { a.refresh = fn }
}

// WithSeries seeds the trend charts with historical values.
func WithSeries(series map[string][]float64) Option {
	return func(a *App) {
		for name, values := range series {
			a.state.Seed(name, values)
		}
	}
}

// WithStatus sets the refresh interval and backend shown in the status line.
func WithStatus(interval time.Duration, source string) Option {
	return func(a *App) {
		a.interval = interval
		a.source = source
	}
}

// NewApp creates an App over pages. The first page is the default.
func NewApp(pages []Page, opts ...Option) *App {
	a := &App{
		pages: pages,
		state: NewState(),
		keys:  DefaultKeyMap(),
		help:  help.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetRefresh binds the refresh key after construction, for refreshers that
// need the running program first.
func (a *App) SetRefresh(fn func()) { a.refresh = fn }

// State exposes the widget state for inspection.
func (a *App) State() *State { return a.state }

// ActivePage returns the page currently shown.
func (a *App) ActivePage() Page {
	if len(a.pages) == 0 {
		return nil
	}
	return a.pages[a.active]
}

func (a *App) Init() tea.Cmd {
	return spinnerTick()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case SpinnerTickMsg:
		if a.loading() {
			return a, spinnerTick()
		}
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)
	}

	if a.state.Apply(msg) {
		var cmds []tea.Cmd
		for _, p := range a.pages {
			cmds = append(cmds, p.Update(msg, a.state))
		}
		return a, tea.Batch(cmds...)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.ForceQuit), key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return nil
	case key.Matches(msg, a.keys.Refresh):
		if a.refresh != nil {
			a.refresh()
		}
		return nil
	case key.Matches(msg, a.keys.NextPage):
		a.switchPage(a.active + 1)
		return nil
	case key.Matches(msg, a.keys.PrevPage):
		a.switchPage(a.active - 1)
		return nil
	case key.Matches(msg, a.keys.Page1):
		a.switchPage(0)
		return nil
	case key.Matches(msg, a.keys.Page2):
		a.switchPage(1)
		return nil
	case key.Matches(msg, a.keys.Page3):
		a.switchPage(2)
		return nil
	}
	if p := a.ActivePage(); p != nil {
		return p.Update(msg, a.state)
	}
	return nil
}

// switchPage wraps around when idx runs past either end.
func (a *App) switchPage(idx int) {
	n := len(a.pages)
	if n == 0 {
		return
	}
	a.active = ((idx % n) + n) % n
}

func (a *App) View() string {
	if a.width <= 0 || a.height <= 0 {
		return "Initializing dashboard..."
	}
	if a.width < 60 || a.height < 16 {
		return "Terminal too small. Resize to at least 60x16."
	}

	tabs := a.renderTabs()
	status := a.renderStatusLine()
	helpView := a.help.View(a.keys)

	bodyHeight := a.height - lipgloss.Height(tabs) - lipgloss.Height(status) - lipgloss.Height(helpView)
	var body string
	switch p := a.ActivePage(); {
	case p == nil:
		body = lipgloss.Place(a.width, bodyHeight, lipgloss.Center, lipgloss.Center, "No pages configured")
	case a.loading():
		body = renderLoadingPlaceholder(a.width, bodyHeight)
	default:
		body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(p.View(a.state, a.width, bodyHeight))
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabs, body, status, helpView)
}

func (a *App) renderTabs() string {
	var tabs []string
	for i, p := range a.pages {
		label := fmt.Sprintf("%d %s", i+1, p.ID().Title())
		if i == a.active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	title := cardTitleStyle.Render(" Palladium Dashboard ")
	return lipgloss.JoinHorizontal(lipgloss.Top, append([]string{title}, tabs...)...)
}

func (a *App) renderStatusLine() string {
	var parts []string
	if h := a.state.Health; h != nil {
		if h.Healthy() {
			parts = append(parts, healthyStyle.Render(h.Text))
		} else {
			parts = append(parts, degradedStyle.Render(h.Text))
		}
	}
	updated := a.state.LastUpdated
	if updated == "" {
		updated = "never"
	}
	parts = append(parts, statusLineStyle.Render("Last updated: "+updated))
	if a.interval > 0 {
		parts = append(parts, statusLineStyle.Render("every "+a.interval.String()))
	}
	if a.source != "" {
		parts = append(parts, statusLineStyle.Render(a.source))
	}
	return strings.Join(parts, statusLineStyle.Render(" | "))
}
