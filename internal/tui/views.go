package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/foodpin/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	switch m.State {
	case StateHelp:
		return m.renderHelp()
	case StateConfirmDelete:
		return m.renderDeleteConfirmation()
	case StateForm:
		return lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			m.Form.View())
	}

	list := m.Discover
	if m.Tab == TabMine {
		list = m.Mine
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, list.View(), m.Inspector.View())
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), content, m.renderFooter())
}

// renderHeader renders the tab bar
func (m Model) renderHeader() string {
	tabs := []string{"Discover", "My Restaurants"}
	parts := make([]string, len(tabs))
	for i, name := range tabs {
		if Tab(i) == m.Tab {
			parts[i] = styles.ActiveTabStyle.Render(name)
		} else {
			parts[i] = styles.InactiveTabStyle.Render(name)
		}
	}
	title := styles.AccentStyle.Bold(true).Render("FoodPin") + "  "
	return title + strings.Join(parts, " ")
}

func (m Model) renderFooter() string {
	// Left side: spinner while loading, otherwise the status message
	var left string
	switch {
	case m.LoadingMore:
		left = m.Spinner.View() + " " + styles.DimStyle.Render("Loading more...")
	case m.Refreshing:
		left = m.Spinner.View() + " " + styles.DimStyle.Render("Refreshing...")
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.ErrorStyle.Render(m.StatusMsg)
	case m.StatusMsg != "":
		left = styles.DimStyle.Render(m.StatusMsg)
	}

	center := renderHints(m.contextKeys())
	right := styles.HelpKeyStyle.Render("?") + styles.HelpDescStyle.Render(" help")

	leftWidth := lipgloss.Width(left)
	centerWidth := lipgloss.Width(center)
	rightWidth := lipgloss.Width(right)

	if leftWidth+centerWidth+rightWidth >= m.Width {
		// Not enough space - just left + right
		gap := max(m.Width-leftWidth-rightWidth, 0)
		return left + strings.Repeat(" ", gap) + right
	}

	available := m.Width - leftWidth - rightWidth
	leftPad := (available - centerWidth) / 2
	rightPad := available - centerWidth - leftPad

	return left + strings.Repeat(" ", leftPad) + center + strings.Repeat(" ", rightPad) + right
}

// contextKeys lists the bindings relevant to the focused pane
func (m Model) contextKeys() []key.Binding {
	if m.Focus == FocusInspector {
		if m.Inspector.Cloud() != nil {
			return []key.Binding{Keys.OpenPhoto, Keys.Back}
		}
		return []key.Binding{Keys.RateGreat, Keys.RateGood, Keys.RateBad, Keys.OpenMap, Keys.OpenPhoto, Keys.Back}
	}
	if m.Tab == TabMine {
		return []key.Binding{Keys.Enter, Keys.Add, Keys.Delete, Keys.Filter}
	}
	return []key.Binding{Keys.Enter, Keys.Refresh, Keys.LoadMore, Keys.Filter}
}

func renderHints(bindings []key.Binding) string {
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, styles.HelpKeyStyle.Render(h.Key)+styles.HelpDescStyle.Render(" "+h.Desc))
	}
	return strings.Join(hints, "  ")
}

func (m Model) renderHelp() string {
	help := `
DISCOVER                        MY RESTAURANTS
  r          Refresh feed         a      Add restaurant
  m          Load more            x      Delete restaurant
  Enter      Show photo           Enter  Show details
  p          Open cached photo

DETAILS                         OTHER
  g          Love it              Tab    Switch list
  o          Pretty good          /      Filter
  d          Don't like it        j/k    Up/down
  l          Open map             G/End  Last item
  p          Open photo           q      Quit
  Esc        Back                 ?      This help

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

func (m Model) renderDeleteConfirmation() string {
	name := ""
	if m.pendingDelete != nil {
		name = m.pendingDelete.Name
	}

	modal := fmt.Sprintf(`
  Delete %s?

  This removes the restaurant and its photo.

        [Y] Yes      [N] No
`, styles.TitleStyle.Render(styles.Truncate(name, 30)))

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}
