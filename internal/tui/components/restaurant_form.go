package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/foodpin/internal/domain"
	"github.com/mmcdole/foodpin/internal/tui/styles"
)

// Form field order
const (
	FieldName = iota
	FieldType
	FieldLocation
	FieldPhone
	FieldImage
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Type", "Location", "Phone", "Photo file"}

var fieldPlaceholders = [fieldCount]string{
	"Cafe Deadend",
	"Coffee & Tea Shop",
	"G/F, 72 Po Hing Fong, Sheung Wan, Hong Kong",
	"232-923423",
	"~/Pictures/cafedeadend.jpg (optional)",
}

// RestaurantForm is the modal for adding a restaurant
type RestaurantForm struct {
	visible bool
	focus   int
	inputs  [fieldCount]textinput.Model
	err     string
}

// NewRestaurantForm creates a new restaurant form
func NewRestaurantForm() RestaurantForm {
	var f RestaurantForm
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = fieldPlaceholders[i]
		ti.CharLimit = 200
		ti.Width = 44
		ti.Prompt = ""
		ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
		ti.PlaceholderStyle = styles.DimStyle
		f.inputs[i] = ti
	}
	return f
}

// Show displays an empty form with the first field focused
func (f *RestaurantForm) Show() {
	f.visible = true
	f.err = ""
	for i := range f.inputs {
		f.inputs[i].SetValue("")
		f.inputs[i].Blur()
	}
	f.focus = FieldName
	f.inputs[f.focus].Focus()
}

// Hide dismisses the form
func (f *RestaurantForm) Hide() {
	f.visible = false
	f.inputs[f.focus].Blur()
}

// IsVisible returns whether the form is shown
func (f RestaurantForm) IsVisible() bool {
	return f.visible
}

// Restaurant builds a restaurant from the entered values
func (f RestaurantForm) Restaurant() *domain.Restaurant {
	return &domain.Restaurant{
		Name:     f.value(FieldName),
		Type:     f.value(FieldType),
		Location: f.value(FieldLocation),
		Phone:    f.value(FieldPhone),
	}
}

// ImagePath returns the photo file entered, or ""
func (f RestaurantForm) ImagePath() string {
	return f.value(FieldImage)
}

func (f RestaurantForm) value(field int) string {
	return strings.TrimSpace(f.inputs[field].Value())
}

// Update handles input events, returns (form, cmd, submitted).
// Enter on the last field submits; a blank name is rejected.
func (f RestaurantForm) Update(msg tea.Msg) (RestaurantForm, tea.Cmd, bool) {
	if !f.visible {
		return f, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			f.Hide()
			return f, nil, false
		case "tab", "down":
			return f.moveFocus(1), nil, false
		case "shift+tab", "up":
			return f.moveFocus(-1), nil, false
		case "enter":
			if f.focus < fieldCount-1 {
				return f.moveFocus(1), nil, false
			}
			if f.value(FieldName) == "" {
				f.err = "Name is required"
				f = f.setFocus(FieldName)
				return f, nil, false
			}
			return f, nil, true
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, false
}

func (f RestaurantForm) moveFocus(delta int) RestaurantForm {
	return f.setFocus((f.focus + delta + fieldCount) % fieldCount)
}

func (f RestaurantForm) setFocus(field int) RestaurantForm {
	f.inputs[f.focus].Blur()
	f.focus = field
	f.inputs[f.focus].Focus()
	return f
}

// View renders the form modal
func (f RestaurantForm) View() string {
	if !f.visible {
		return ""
	}

	const labelWidth = 12

	lines := []string{styles.ModalTitleStyle.Render("New Restaurant")}
	for i := range f.inputs {
		label := styles.DimStyle.Width(labelWidth).Render(fieldLabels[i])
		if i == f.focus {
			label = styles.AccentStyle.Width(labelWidth).Render(fieldLabels[i])
		}
		lines = append(lines, label+f.inputs[i].View())
	}

	lines = append(lines, "")
	if f.err != "" {
		lines = append(lines, styles.ErrorStyle.Render(f.err))
	} else {
		lines = append(lines, styles.DimStyle.Render("tab next field · enter save · esc cancel"))
	}

	return styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
