package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeText(f RestaurantForm, s string) RestaurantForm {
	for _, r := range s {
		f, _, _ = f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return f
}

func press(f RestaurantForm, k tea.KeyType) (RestaurantForm, bool) {
	f, _, submitted := f.Update(tea.KeyMsg{Type: k})
	return f, submitted
}

func TestRestaurantFormSubmit(t *testing.T) {
	f := NewRestaurantForm()
	f.Show()

	f = typeText(f, "Cafe Deadend")
	f, _ = press(f, tea.KeyTab)
	f = typeText(f, "Coffee & Tea Shop")
	f, _ = press(f, tea.KeyEnter)
	f = typeText(f, "Sheung Wan")
	f, _ = press(f, tea.KeyEnter)
	f = typeText(f, " 232-923423 ")
	f, _ = press(f, tea.KeyEnter)

	f, submitted := press(f, tea.KeyEnter)
	if !submitted {
		t.Fatal("enter on the last field should submit")
	}

	r := f.Restaurant()
	if r.Name != "Cafe Deadend" || r.Type != "Coffee & Tea Shop" || r.Location != "Sheung Wan" {
		t.Errorf("Restaurant = %+v", r)
	}
	if r.Phone != "232-923423" {
		t.Errorf("Phone = %q, want trimmed", r.Phone)
	}
	if f.ImagePath() != "" {
		t.Errorf("ImagePath = %q", f.ImagePath())
	}
}

func TestRestaurantFormRequiresName(t *testing.T) {
	f := NewRestaurantForm()
	f.Show()

	f, _ = press(f, tea.KeyShiftTab) // wraps to the photo field
	f, submitted := press(f, tea.KeyEnter)
	if submitted {
		t.Fatal("blank name should not submit")
	}
	if f.focus != FieldName {
		t.Errorf("focus = %d, want name field", f.focus)
	}
	if f.err == "" {
		t.Error("expected a validation message")
	}
}

func TestRestaurantFormEscHides(t *testing.T) {
	f := NewRestaurantForm()
	f.Show()
	f, _ = press(f, tea.KeyEsc)
	if f.IsVisible() {
		t.Error("esc should hide the form")
	}
	if f.View() != "" {
		t.Error("hidden form should render nothing")
	}
}
