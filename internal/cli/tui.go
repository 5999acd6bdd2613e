package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/mftypes/pkg/errors"
	"github.com/matzehuels/mftypes/pkg/specifier"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// RemoteListModel - Interactive remote selection
// =============================================================================

// RemoteListModel is the bubbletea model for choosing which remotes to sync.
type RemoteListModel struct {
	Names     []string
	Specs     map[string]string
	Cursor    int
	Checked   map[int]bool
	Height    int
	Offset    int
	Confirmed bool
}

// NewRemoteListModel creates a model with every remote checked.
func NewRemoteListModel(remotes map[string]string) RemoteListModel {
	names := slices.Sorted(maps.Keys(remotes))
	checked := make(map[int]bool, len(names))
	for i := range names {
		checked[i] = true
	}
	return RemoteListModel{
		Names:   names,
		Specs:   remotes,
		Checked: checked,
		Height:  15,
	}
}

func (m RemoteListModel) Init() tea.Cmd {
	return nil
}

func (m RemoteListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Names)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			m.Checked[m.Cursor] = !m.Checked[m.Cursor]
		case "a":
			all := len(m.Selected()) != len(m.Names)
			for i := range m.Names {
				m.Checked[i] = all
			}
		case "enter":
			m.Confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m RemoteListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Remotes"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ sync  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Names))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		name := m.Names[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		box := "[ ]"
		if m.Checked[i] {
			box = "[x]"
		}
		rows = append(rows, []string{cursor, box, name, specifier.BaseURL(m.Specs[name])})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "Remote", "Base URL").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Names) {
				return lipgloss.NewStyle()
			}
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case m.Checked[idx]:
				return listNormalStyle
			default:
				return listDimStyle
			}
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d selected]", len(m.Selected()), len(m.Names))))

	return b.String()
}

// Selected returns the checked remote names in display order.
func (m RemoteListModel) Selected() []string {
	var out []string
	for i, name := range m.Names {
		if m.Checked[i] {
			out = append(out, name)
		}
	}
	return out
}

// pickRemotes runs the selection UI and returns the chosen names.
func pickRemotes(remotes map[string]string) ([]string, error) {
	if len(remotes) == 0 {
		return nil, errors.New(errors.ErrCodeConfigMissing, "no remotes configured")
	}
	final, err := tea.NewProgram(NewRemoteListModel(remotes)).Run()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "remote selection")
	}
	m := final.(RemoteListModel)
	if !m.Confirmed || len(m.Selected()) == 0 {
		return nil, errors.New(errors.ErrCodeConfigMissing, "no remotes selected")
	}
	return m.Selected(), nil
}
