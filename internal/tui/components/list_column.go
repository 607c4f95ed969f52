package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/foodpin/internal/tui/styles"
)

// Layout constants for list columns
const (
	// Border adds 1 char on each side (left+right for width, top+bottom for height)
	BorderWidth  = 2
	BorderHeight = 2

	// Scroll indicators ("↑ more" and "↓ more") each take 1 line
	ScrollIndicatorLines = 2
)

// Row is one entry of a list column
type Row struct {
	Marker  string // leading status character, already styled
	Title   string
	Matched []int  // byte offsets in Title to highlight
	Detail  string // dim text after the title
	Right   string // right-aligned text, already styled
}

// ListColumn is a scrollable list with an optional filter bar.
// Filtering itself is done by the caller, which reads FilterQuery and
// hands back the matching rows.
type ListColumn struct {
	title     string
	emptyText string
	rows      []Row

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width   int
	height  int
	focused bool

	// Loading state
	loading bool
	spinner string

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	total        int // unfiltered row count, for the filter bar
}

// NewListColumn creates a new list column
func NewListColumn(title, emptyText string) *ListColumn {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return &ListColumn{
		title:       title,
		emptyText:   emptyText,
		filterInput: ti,
	}
}

// Update handles navigation and filter typing.
// filterChanged reports that FilterQuery changed and rows should be recomputed.
func (c *ListColumn) Update(msg tea.Msg) (cmd tea.Cmd, filterChanged bool) {
	if c.filterActive && c.filterInput.Focused() {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				c.clearFilter()
				return nil, true
			case "enter":
				// Accept filter, blur input to allow navigation
				c.filterInput.Blur()
				return nil, false
			case "backspace":
				if c.filterInput.Value() == "" {
					c.clearFilter()
					return nil, true
				}
			}
		}

		before := c.filterInput.Value()
		c.filterInput, cmd = c.filterInput.Update(msg)
		if c.filterInput.Value() != before {
			c.cursor = 0
			c.offset = 0
			return cmd, true
		}
		return cmd, false
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, false
	}

	if c.filterActive {
		switch keyMsg.String() {
		case "esc":
			c.clearFilter()
			return nil, true
		case "/":
			c.filterInput.Focus()
			return nil, false
		}
	}

	count := len(c.rows)
	if count == 0 {
		return nil, false
	}

	switch keyMsg.String() {
	case "j", "down":
		if c.cursor < count-1 {
			c.cursor++
		}
	case "k", "up":
		if c.cursor > 0 {
			c.cursor--
		}
	case "home":
		c.cursor = 0
	case "G", "end":
		c.cursor = count - 1
	case "ctrl+d", "pgdown":
		c.cursor = min(c.cursor+max(c.maxVisible/2, 1), count-1)
	case "ctrl+u", "pgup":
		c.cursor = max(c.cursor-max(c.maxVisible/2, 1), 0)
	}
	c.ensureVisible()

	return nil, false
}

// SetRows replaces the visible rows, keeping the cursor in range.
// total is the unfiltered count shown in the filter bar.
func (c *ListColumn) SetRows(rows []Row, total int) {
	c.rows = rows
	c.total = total
	if c.cursor >= len(rows) {
		c.cursor = max(len(rows)-1, 0)
	}
	c.ensureVisible()
}

func (c *ListColumn) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.recalcMaxVisible()
	c.ensureVisible()
}

func (c *ListColumn) SetFocused(focused bool) {
	c.focused = focused
}

func (c *ListColumn) SetTitle(title string) {
	c.title = title
}

// SetLoading shows spinner in place of an empty list
func (c *ListColumn) SetLoading(loading bool, spinner string) {
	c.loading = loading
	c.spinner = spinner
}

func (c *ListColumn) Cursor() int   { return c.cursor }
func (c *ListColumn) RowCount() int { return len(c.rows) }

// SetCursor moves the selection, clamped to the rows
func (c *ListColumn) SetCursor(i int) {
	c.cursor = max(min(i, len(c.rows)-1), 0)
	c.ensureVisible()
}

// ToggleFilter activates the filter input
func (c *ListColumn) ToggleFilter() {
	c.filterActive = true
	c.filterInput.Focus()
	c.recalcMaxVisible()
}

// IsFilterTyping returns true if filter is active AND input is focused
func (c *ListColumn) IsFilterTyping() bool {
	return c.filterActive && c.filterInput.Focused()
}

// FilterQuery returns the current filter text, empty when filtering is off
func (c *ListColumn) FilterQuery() string {
	if !c.filterActive {
		return ""
	}
	return c.filterInput.Value()
}

func (c *ListColumn) recalcMaxVisible() {
	// Reserve space for: title line + scroll indicators
	c.maxVisible = c.height - BorderHeight - ScrollIndicatorLines - 1
	if c.filterActive {
		c.maxVisible--
	}
	if c.maxVisible < 1 {
		c.maxVisible = 1
	}
}

func (c *ListColumn) ensureVisible() {
	if c.maxVisible <= 0 {
		return
	}
	if c.cursor < c.offset {
		c.offset = c.cursor
	}
	if c.cursor >= c.offset+c.maxVisible {
		c.offset = c.cursor - c.maxVisible + 1
	}
	if c.offset > max(len(c.rows)-c.maxVisible, 0) {
		c.offset = max(len(c.rows)-c.maxVisible, 0)
	}
}

func (c *ListColumn) clearFilter() {
	c.filterActive = false
	c.filterInput.SetValue("")
	c.filterInput.Blur()
	c.cursor = 0
	c.offset = 0
	c.recalcMaxVisible()
}

// View renders the column inside its border
func (c *ListColumn) View() string {
	style := styles.InactiveBorder
	if c.focused {
		style = styles.ActiveBorder
	}

	// Subtract frame (border) size so total rendered size equals c.width x c.height
	frameW, frameH := style.GetFrameSize()

	return style.
		Width(max(c.width-frameW, 0)).
		Height(max(c.height-frameH, 0)).
		Render(c.renderContent())
}

func (c *ListColumn) renderContent() string {
	itemWidth := max(c.width-BorderWidth, 10)

	titleLine := styles.AccentStyle.Render(styles.Truncate(c.title, itemWidth))

	if len(c.rows) == 0 {
		msg := c.emptyText
		switch {
		case c.loading:
			msg = c.spinner + " Loading..."
		case c.FilterQuery() != "":
			msg = "No matches"
		}
		content := titleLine + "\n \n" + styles.DimStyle.Render(msg) + "\n "
		if c.filterActive {
			content += "\n" + c.renderFilterBar()
		}
		return content
	}

	end := min(c.offset+c.maxVisible, len(c.rows))
	lines := make([]string, 0, end-c.offset)
	for i := c.offset; i < end; i++ {
		lines = append(lines, c.renderRow(c.rows[i], i == c.cursor, itemWidth))
	}

	// Always reserve the indicator lines to prevent layout shifts
	header := " "
	if c.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	footer := " "
	if end < len(c.rows) {
		footer = styles.DimStyle.Render("↓ more")
	}

	content := titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer
	if c.filterActive {
		content += "\n" + c.renderFilterBar()
	}
	return content
}

func (c *ListColumn) renderRow(row Row, selected bool, width int) string {
	marker := row.Marker
	if marker == "" {
		marker = " "
	}

	rightW := lipgloss.Width(row.Right)
	titleW := max(width-2-rightW-1, 1)

	title := styles.Truncate(row.Title, titleW)
	// Offsets only line up with an untruncated title
	if len(row.Matched) > 0 && title == row.Title {
		title = styles.RenderHighlighted(row.Title, row.Matched)
	}
	if room := titleW - lipgloss.Width(row.Title) - 1; row.Detail != "" && room > 3 {
		title += styles.DimStyle.Render(" " + styles.Truncate(row.Detail, room))
	}

	gap := max(width-2-lipgloss.Width(title)-rightW, 1)
	line := marker + " " + title + strings.Repeat(" ", gap) + row.Right

	if selected && c.focused {
		return styles.TableSelectedStyle.Width(width).Render(line)
	}
	return line
}

func (c *ListColumn) renderFilterBar() string {
	input := c.filterInput.View()
	if c.FilterQuery() != "" {
		input += styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", len(c.rows), c.total))
	}
	return input
}
