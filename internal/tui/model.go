// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/verte-zerg/typeclock/internal/analytics"
	"github.com/verte-zerg/typeclock/internal/logging"
	"github.com/verte-zerg/typeclock/internal/metrics"
	"github.com/verte-zerg/typeclock/internal/model"
	"github.com/verte-zerg/typeclock/internal/session"
	"github.com/verte-zerg/typeclock/internal/stats"
	"github.com/verte-zerg/typeclock/internal/wordsource"
)

// tickMsg carries the id of the session that scheduled it so ticks from a
// restarted session are dropped.
type tickMsg struct {
	session int
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	config model.Config
	dict   []string
	gen    *wordsource.Generator
	store  *analytics.Store
	logger *log.Logger
	now    func() time.Time

	keys keyMap
	help help.Model

	width  int
	height int

	engine    *session.Engine
	sessionID int
	ticking   bool

	result  *model.SessionResult
	stored  analytics.StoredResult
	saveErr error
	isBest  bool

	lastWPM int
	lastAcc int
	hasLast bool
	allWPM  int
	allAcc  int
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	extraStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#A8071A"))
	missedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Underline(true)
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = currentWordStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger for save failures.
func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the clock handed to each session engine.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// NewModel constructs a typing TUI model and prepares the first session.
func NewModel(cfg model.Config, dict []string, gen *wordsource.Generator, store *analytics.Store, opts ...Option) (*Model, error) {
	m := &Model{
		config: cfg,
		dict:   dict,
		gen:    gen,
		store:  store,
		logger: logging.Discard(),
		now:    time.Now,
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.resetSession(); err != nil {
		return nil, err
	}
	m.loadFooterStats()
	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		if msg.session != m.sessionID || m.engine.Phase() != model.PhaseActive {
			return m, nil
		}
		m.engine.Apply(session.Event{Kind: session.EventTick})
		if m.engine.Phase() == model.PhaseCompleted {
			m.finishSession()
			return m, nil
		}
		return m, m.tick()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Restart):
		if err := m.resetSession(); err != nil {
			m.logger.Error("failed to start a new test", "err", err)
		}
		return m, nil
	case key.Matches(msg, m.keys.Retry):
		m.retrySave()
		return m, nil
	}
	if m.engine.Phase() == model.PhaseCompleted {
		return m, nil
	}

	events := m.keyEvents(msg)
	if len(events) == 0 {
		return m, nil
	}
	m.engine.Replay(events)

	if m.engine.Phase() == model.PhaseCompleted {
		m.finishSession()
		return m, nil
	}
	if m.engine.Phase() == model.PhaseActive && !m.ticking {
		m.ticking = true
		m.keys.End.SetEnabled(true)
		return m, m.tick()
	}
	return m, nil
}

// keyEvents translates a key press into engine events.
func (m *Model) keyEvents(msg tea.KeyMsg) []session.Event {
	switch {
	case key.Matches(msg, m.keys.End):
		return []session.Event{{Kind: session.EventEnd}}
	case key.Matches(msg, m.keys.Backspace):
		return []session.Event{{Kind: session.EventBackspace}}
	case msg.Type == tea.KeySpace:
		return []session.Event{{Kind: session.EventChar, Char: ' '}}
	case msg.Type == tea.KeyRunes:
		return session.Keys(string(msg.Runes))
	default:
		return nil
	}
}

func (m *Model) tick() tea.Cmd {
	id := m.sessionID
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{session: id}
	})
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.result != nil {
		return m.place(m.renderResult())
	}
	st := m.engine.Snapshot()
	runes := buildWordRunes(m.engine.Words().Words(), st.Attempts, st.CurrentWordIndex, st.CurrentInput)
	if m.width == 0 || m.height == 0 {
		return renderStyledRunes(runes) + "\n" + m.renderFooter(st)
	}
	contentWidth := max(int(float64(m.width)*0.70), 1)
	wrapped := wrapStyledRunes(runes, contentWidth)
	content := lipgloss.NewStyle().Width(contentWidth).Render(wrapped)
	if m.height < 4 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, content)
	footer := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, m.renderFooter(st))
	helpLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, m.help.View(m.keys))
	return body + "\n" + footer + "\n" + helpLine
}

func (m *Model) place(content string) string {
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderFooter(st model.SessionState) string {
	segments := []string{
		fmt.Sprintf("%ds", st.RemainingSeconds),
		fmt.Sprintf("%d WPM · %d%%", st.WPM, st.Accuracy),
	}
	if words := m.engine.Words(); !words.Extendable() {
		segments = append(segments, fmt.Sprintf("%d/%d words", st.CurrentWordIndex, words.Len()))
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %d WPM · %d%%", m.lastWPM, m.lastAcc))
	}
	segments = append(segments, fmt.Sprintf("All-time %d WPM · %d%%", m.allWPM, m.allAcc))
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) renderResult() string {
	r := m.result
	level := metrics.LevelFor(r.WPM)
	lines := []string{
		titleStyle.Render(fmt.Sprintf("%d WPM", r.WPM)) + "  " + level.Name + " · " + level.Description,
		"",
		fmt.Sprintf("Raw %d · Net %d WPM   Accuracy %d%%   Consistency %d%%", r.RawWPM, metrics.NetWPM(r.CorrectChars, r.IncorrectChars, float64(r.ElapsedSeconds)), r.Accuracy, r.Consistency),
		fmt.Sprintf("Words %d/%d correct   Characters %d/%d   Time %ds", r.CorrectWords, r.TotalWordsAttempted, r.CorrectChars, r.TotalChars(), r.ElapsedSeconds),
	}
	if len(r.WPMHistory) > 1 {
		lines = append(lines, fmt.Sprintf("Peak %d · Avg %d   %s", r.PeakWPM, r.AverageWPM, stats.Sparkline(stats.Floats(r.WPMHistory))))
	}
	lines = append(lines, "")
	switch {
	case m.saveErr != nil:
		lines = append(lines, errorStyle.Render("Result not saved: "+m.saveErr.Error()))
	case m.isBest:
		lines = append(lines, titleStyle.Render("New personal best!"))
	default:
		lines = append(lines, footerStyle.Render("Result saved."))
	}
	lines = append(lines, "", m.help.View(m.keys))
	return strings.Join(lines, "\n")
}

func (m *Model) resetSession() error {
	list, err := wordsource.Generate(m.config, m.dict, m.gen)
	if err != nil {
		return err
	}
	engine, err := session.New(m.config, list, session.WithClock(m.now))
	if err != nil {
		return err
	}
	m.engine = engine
	m.sessionID++
	m.ticking = false
	m.result = nil
	m.stored = analytics.StoredResult{}
	m.saveErr = nil
	m.isBest = false
	m.keys.End.SetEnabled(false)
	m.keys.Retry.SetEnabled(false)
	return nil
}

func (m *Model) loadFooterStats() {
	ctx := context.Background()
	rec := m.store.Query(ctx)
	m.allWPM = rec.Statistics.AverageWPM
	m.allAcc = rec.Statistics.AverageAccuracy
	if recent := m.store.RecentResults(ctx, 1); len(recent) > 0 {
		m.lastWPM = recent[0].WPM
		m.lastAcc = recent[0].Accuracy
		m.hasLast = true
	}
}

func (m *Model) finishSession() {
	res, err := m.engine.Finish()
	if err != nil {
		m.logger.Error("failed to finish test", "err", err)
		return
	}
	m.result = &res
	m.ticking = false
	m.keys.End.SetEnabled(false)

	stored, err := m.store.Save(context.Background(), res)
	m.stored = stored
	m.afterSave(err)
}

func (m *Model) retrySave() {
	if m.result == nil || m.saveErr == nil {
		return
	}
	m.afterSave(m.store.Put(context.Background(), m.stored))
}

func (m *Model) afterSave(err error) {
	m.saveErr = err
	m.keys.Retry.SetEnabled(err != nil)
	if err != nil {
		m.logger.Error("failed to save result", "id", m.stored.ID, "err", err)
		return
	}
	m.loadFooterStats()
	rec := m.store.Query(context.Background())
	m.isBest = rec.PersonalBests.WPM.ResultID == m.stored.ID
}
