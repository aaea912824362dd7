// Package tui is a terminal chat that fills a catalog's fields one question
// at a time and saves the report when the last field is passed.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/firdesk/internal/collector"
)

const (
	saveTimeout = 30 * time.Second
	historyRows = 6
)

// SaveFunc persists the finished document and returns its id.
type SaveFunc func(ctx context.Context, doc any) (string, error)

type exchange struct {
	label   string
	answer  string
	skipped bool
}

type savedMsg struct {
	id  string
	err error
}

// Model is the bubbletea model for one chat session.
type Model struct {
	title   string
	col     *collector.Collector
	save    SaveFunc
	styles  *Styles
	input   textinput.Model
	history []exchange

	err      error
	saving   bool
	savedID  string
	quitting bool
}

// New returns a chat over col. A nil styles uses DefaultStyles.
func New(title string, col *collector.Collector, save SaveFunc, s *Styles) *Model {
	if s == nil {
		s = DefaultStyles()
	}
	ti := textinput.New()
	ti.CharLimit = 2000
	ti.Width = 60
	ti.Focus()

	m := &Model{
		title:  title,
		col:    col,
		save:   save,
		styles: s,
		input:  ti,
	}
	m.prepare()
	return m
}

// SavedID is the id of the stored report, empty until the save succeeds.
func (m *Model) SavedID() string { return m.savedID }

// Err is the last answer or save error shown to the user.
func (m *Model) Err() error { return m.err }

func (m *Model) Init() tea.Cmd {
	if m.col.Done() {
		return m.startSave()
	}
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.input.Width = max(msg.Width-8, 20)
		return m, nil

	case savedMsg:
		m.saving = false
		if msg.err != nil {
			m.err = fmt.Errorf("save failed: %w", msg.err)
			return m, nil
		}
		m.err = nil
		m.savedID = msg.id
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		}
		if m.saving || m.savedID != "" {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyEnter:
			if m.col.Done() {
				return m, m.startSave()
			}
			return m, m.submit()
		case tea.KeyCtrlN:
			return m, m.skip()
		case tea.KeyCtrlB:
			m.back()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submit() tea.Cmd {
	f, _ := m.col.Current()
	answer := m.input.Value()
	if err := m.col.Submit(answer); err != nil {
		m.err = err
		return nil
	}
	m.history = append(m.history, exchange{label: f.Label, answer: strings.TrimSpace(answer)})
	return m.advanced()
}

func (m *Model) skip() tea.Cmd {
	f, ok := m.col.Current()
	if !ok {
		return nil
	}
	if err := m.col.Skip(); err != nil {
		m.err = err
		return nil
	}
	m.history = append(m.history, exchange{label: f.Label, skipped: true})
	return m.advanced()
}

func (m *Model) back() {
	m.col.Back()
	if n := len(m.history); n > 0 {
		m.history = m.history[:n-1]
	}
	m.err = nil
	m.prepare()
}

func (m *Model) advanced() tea.Cmd {
	m.err = nil
	m.prepare()
	if m.col.Done() {
		return m.startSave()
	}
	return nil
}

// prepare resets the input for the current field, showing any value the
// document already holds as the placeholder.
func (m *Model) prepare() {
	m.input.Reset()
	m.input.Placeholder = "type your answer"
	if v, ok := m.col.Value(); ok && v != nil && fmt.Sprint(v) != "" {
		m.input.Placeholder = fmt.Sprint(v)
	}
}

func (m *Model) startSave() tea.Cmd {
	if m.save == nil {
		return tea.Quit
	}
	m.saving = true
	doc := m.col.Tree()
	save := m.save
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		id, err := save(ctx, doc)
		return savedMsg{id: id, err: err}
	}
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	s := m.styles
	var b strings.Builder

	b.WriteString(s.Title.Render(m.title))
	b.WriteString("\n")
	done, total := m.col.Progress()
	b.WriteString(s.Muted.Render(fmt.Sprintf("%d of %d fields", done, total)))
	b.WriteString("\n\n")

	start := max(len(m.history)-historyRows, 0)
	for _, e := range m.history[start:] {
		b.WriteString(s.Question.Render(e.label))
		b.WriteString("\n")
		if e.skipped {
			b.WriteString(s.Answer.Inherit(s.Muted).Render("(skipped)"))
		} else {
			b.WriteString(s.Answer.Render(e.answer))
		}
		b.WriteString("\n")
	}

	switch {
	case m.savedID != "":
		b.WriteString("\n")
		b.WriteString(s.Success.Render("Saved report " + m.savedID))
		b.WriteString("\n")
		return b.String()
	case m.saving:
		b.WriteString("\n")
		b.WriteString(s.Muted.Render("Saving report..."))
		b.WriteString("\n")
		return b.String()
	case m.col.Done():
		b.WriteString("\n")
		b.WriteString(s.Question.Render("All fields collected."))
		b.WriteString("\n")
	default:
		f, _ := m.col.Current()
		b.WriteString("\n")
		b.WriteString(s.Question.Render(f.Label))
		b.WriteString("\n")
		b.WriteString(s.Input.Render(m.input.View()))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(s.Error.Render(m.err.Error()))
		b.WriteString("\n")
	}
	help := "enter submit • ctrl+n skip • ctrl+b back • esc quit"
	if m.col.Done() {
		help = "enter save • ctrl+b back • esc quit"
	}
	b.WriteString(lipgloss.NewStyle().MarginTop(1).Inherit(s.Muted).Render(help))
	return b.String()
}

// Run drives m in the terminal until the report is saved or the user quits.
func Run(ctx context.Context, m *Model) error {
	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
