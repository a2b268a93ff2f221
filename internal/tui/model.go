// Package tui provides a full-screen resolver for unknown photos built on bubbletea.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/ponto/internal/cli"
	"github.com/Veraticus/ponto/internal/model"
	"github.com/Veraticus/ponto/internal/reconcile"
)

const headerHeight = 9

type nameItem string

func (n nameItem) Title() string       { return string(n) }
func (n nameItem) Description() string { return "" }
func (n nameItem) FilterValue() string { return string(n) }

// Model shows one unknown photo and collects a single decision.
type Model struct {
	item     *reconcile.Item
	help     help.Model
	input    textinput.Model
	list     list.Model
	keys     KeyMap
	decision reconcile.Decision
	taken    string
	total    int
	decided  bool
	typing   bool
}

// NewModel creates a model for item among total queued photos.
func NewModel(item *reconcile.Item, total int, candidates []string) Model {
	items := make([]list.Item, len(candidates))
	for i, c := range candidates {
		items[i] = nameItem(c)
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(items, delegate, 40, 12)
	l.Title = "Employees"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = cli.TitleStyle.UnsetMargins()

	input := textinput.New()
	input.Placeholder = "Full name"
	input.CharLimit = 80

	m := Model{
		item:  item,
		total: total,
		list:  l,
		input: input,
		help:  help.New(),
		keys:  DefaultKeyMap(),
	}
	if t, ok := cli.CaptureTime(item.Record.SourcePhoto); ok {
		m.taken = t.Format("02/01/2006 15:04")
	}
	return m
}

// Decision returns the decision taken. A model closed without one means stop.
func (m Model) Decision() reconcile.Decision {
	if !m.decided {
		return reconcile.Decision{Action: reconcile.ActionStop}
	}
	return m.decision
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, max(msg.Height-headerHeight, 3))
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.typing {
			return m.updateInput(msg)
		}

		switch {
		case key.Matches(msg, m.keys.Stop):
			return m.decide(reconcile.Decision{Action: reconcile.ActionStop})
		case key.Matches(msg, m.keys.Ignore):
			return m.decide(reconcile.Decision{Action: reconcile.ActionIgnore})
		case key.Matches(msg, m.keys.NewName):
			m.typing = true
			return m, m.input.Focus()
		case key.Matches(msg, m.keys.Select):
			selected, ok := m.list.SelectedItem().(nameItem)
			if !ok {
				return m, nil
			}
			return m.decide(reconcile.Decision{Action: reconcile.ActionAssign, Name: string(selected)})
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.typing = false
		m.input.Blur()
		m.input.Reset()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		name := model.CanonicalName(m.input.Value())
		if model.IsIgnoreName(name) {
			return m.decide(reconcile.Decision{Action: reconcile.ActionIgnore})
		}
		if name == "" || model.IsReservedName(name) {
			return m, nil
		}
		return m.decide(reconcile.Decision{Action: reconcile.ActionAssign, Name: name})
	case msg.Type == tea.KeyCtrlC:
		return m.decide(reconcile.Decision{Action: reconcile.ActionStop})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) decide(d reconcile.Decision) (tea.Model, tea.Cmd) {
	m.decision = d
	m.decided = true
	return m, tea.Quit
}

// View implements tea.Model.
func (m Model) View() string {
	if m.decided {
		return ""
	}

	rec := m.item.Record
	var header strings.Builder
	fmt.Fprintf(&header, "Photo: %s\n", cli.BoldStyle.Render(filepath.Base(rec.SourcePhoto)))
	fmt.Fprintf(&header, "Sent:  %s at %s", model.FormatDate(rec.Date), rec.Time)
	if m.taken != "" {
		fmt.Fprintf(&header, "\nTaken: %s", m.taken)
	}
	if rec.Embedding == nil {
		header.WriteString("\n" + cli.WarningStyle.Render("No face was found in this photo."))
	}

	title := fmt.Sprintf("%s Unknown photo %d of %d", cli.CameraIcon, m.item.Position+1, m.total)
	sections := []string{cli.RenderBox(title, header.String())}

	if m.typing {
		sections = append(sections, cli.PromptStyle.Render("New employee:"), m.input.View())
	} else {
		sections = append(sections, m.list.View())
	}
	sections = append(sections, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
