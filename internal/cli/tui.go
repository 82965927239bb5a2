package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ChartListModel - Interactive chart selection
// =============================================================================

// chartSummary is one row of the chart picker.
type chartSummary struct {
	Name        string
	People      int
	Connections int
	SavedAt     time.Time
}

// ChartListModel is the bubbletea model for interactive chart selection.
type ChartListModel struct {
	Charts   []chartSummary
	Cursor   int
	Selected string
	Height   int
	Offset   int
}

// NewChartListModel creates a new chart list model.
func NewChartListModel(charts []chartSummary) ChartListModel {
	return ChartListModel{
		Charts: charts,
		Cursor: 0,
		Height: 15,
		Offset: 0,
	}
}

func (m ChartListModel) Init() tea.Cmd {
	return nil
}

func (m ChartListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Charts)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			m.Selected = m.Charts[m.Cursor].Name
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

func (m ChartListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Chart"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Charts) {
		end = len(m.Charts)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cs := m.Charts[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		rows = append(rows, []string{
			cursor,
			cs.Name,
			fmt.Sprintf("%d", cs.People),
			fmt.Sprintf("%d", cs.Connections),
			formatRelativeTime(cs.SavedAt),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Chart", "People", "Connections", "Saved").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Charts) {
				return lipgloss.NewStyle()
			}

			base := lipgloss.NewStyle()
			if col >= 2 {
				base = base.Foreground(colorDim)
			}
			if actualIdx == m.Cursor {
				return base.Foreground(colorGreen).Bold(true)
			}
			if col >= 2 {
				return base
			}
			return base.Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Charts))))

	return b.String()
}

// runChartPicker runs the interactive picker and returns the selected chart
// name, or "" when the user quit without selecting.
func runChartPicker(charts []chartSummary) (string, error) {
	final, err := tea.NewProgram(NewChartListModel(charts)).Run()
	if err != nil {
		return "", fmt.Errorf("run picker: %w", err)
	}
	model, ok := final.(ChartListModel)
	if !ok {
		return "", nil
	}
	return model.Selected, nil
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
