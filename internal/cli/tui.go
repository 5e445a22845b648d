package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ChoiceModel - Interactive selection of a node, mode or time
// =============================================================================

// Choice is one selectable row.
type Choice struct {
	Value  string // returned on selection
	Label  string // shown in the first column
	Detail string // shown dimmed in the second column
}

// ChoiceModel is the bubbletea model for picking one entry from a list.
// Typing filters the list by value and label.
type ChoiceModel struct {
	Title    string
	Choices  []Choice
	Cursor   int
	Offset   int
	Height   int
	Filter   string
	Selected *Choice
}

// NewChoiceModel creates a picker over choices.
func NewChoiceModel(title string, choices []Choice) ChoiceModel {
	return ChoiceModel{Title: title, Choices: choices, Height: 12}
}

// nodeChoices lists the graph's nodes in id order.
func nodeChoices(g *graph.Graph) []Choice {
	nodes := g.Nodes()
	out := make([]Choice, len(nodes))
	for i, n := range nodes {
		out[i] = Choice{
			Value:  n.ID,
			Label:  n.DisplayName(),
			Detail: fmt.Sprintf("%s · %d roads", n.ID, g.Degree(n.ID)),
		}
	}
	return out
}

// stringChoices turns plain values into choices.
func stringChoices(values []string) []Choice {
	out := make([]Choice, len(values))
	for i, v := range values {
		out[i] = Choice{Value: v, Label: v}
	}
	return out
}

func (m ChoiceModel) visible() []Choice {
	if m.Filter == "" {
		return m.Choices
	}
	f := strings.ToLower(m.Filter)
	var out []Choice
	for _, c := range m.Choices {
		if strings.Contains(strings.ToLower(c.Value), f) || strings.Contains(strings.ToLower(c.Label), f) {
			out = append(out, c)
		}
	}
	return out
}

func (m ChoiceModel) Init() tea.Cmd {
	return nil
}

func (m ChoiceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			m.moveCursor(-1)
		case tea.KeyDown:
			m.moveCursor(1)
		case tea.KeyBackspace:
			if m.Filter != "" {
				m.Filter = m.Filter[:len(m.Filter)-1]
				m.Cursor, m.Offset = 0, 0
			}
		case tea.KeyEnter:
			vis := m.visible()
			if len(vis) == 0 {
				return m, nil
			}
			sel := vis[m.Cursor]
			m.Selected = &sel
			return m, tea.Quit
		case tea.KeyRunes:
			m.Filter += string(msg.Runes)
			m.Cursor, m.Offset = 0, 0
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m *ChoiceModel) moveCursor(delta int) {
	n := len(m.visible())
	if n == 0 {
		return
	}
	m.Cursor = min(max(m.Cursor+delta, 0), n-1)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m ChoiceModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  type to filter  ⏎ select  esc quit"))
	b.WriteString("\n")
	if m.Filter != "" {
		b.WriteString(StyleHighlight.Render("filter: " + m.Filter))
	}
	b.WriteString("\n")

	vis := m.visible()
	end := min(m.Offset+m.Height, len(vis))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, vis[i].Label, vis[i].Detail})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Name", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 2 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(vis)), len(vis))))

	return b.String()
}

// runChoice shows the picker and returns the chosen value. ok is false when
// the user quit without choosing.
func runChoice(title string, choices []Choice) (value string, ok bool, err error) {
	final, err := tea.NewProgram(NewChoiceModel(title, choices)).Run()
	if err != nil {
		return "", false, err
	}
	m, isChoice := final.(ChoiceModel)
	if !isChoice || m.Selected == nil {
		return "", false, nil
	}
	return m.Selected.Value, true, nil
}
