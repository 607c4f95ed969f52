package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mmcdole/foodpin/internal/detail"
	"github.com/mmcdole/foodpin/internal/domain"
	"github.com/mmcdole/foodpin/internal/tui/styles"
)

// Inspector displays the detail of one restaurant: a local restaurant with
// its rating and map pin, or a discovery entry with its photo.
type Inspector struct {
	width  int
	height int

	// Local restaurant
	restaurant *domain.Restaurant
	pin        *detail.Pin
	locating   bool

	// Discovery entry
	cloud        *domain.CloudRestaurant
	image        *domain.ImageResult
	imageLoading bool
}

// NewInspector creates a new inspector component
func NewInspector() Inspector {
	return Inspector{}
}

// SetSize updates the component dimensions
func (i *Inspector) SetSize(width, height int) {
	i.width = width
	i.height = height
}

// Clear empties the inspector, keeping its size
func (i *Inspector) Clear() {
	*i = Inspector{width: i.width, height: i.height}
}

// SetRestaurant shows a local restaurant; its pin is being located
func (i *Inspector) SetRestaurant(r *domain.Restaurant) {
	*i = Inspector{width: i.width, height: i.height, restaurant: r, locating: true}
}

// UpdateRestaurant refreshes the shown restaurant, keeping the pin
func (i *Inspector) UpdateRestaurant(r *domain.Restaurant) {
	if i.restaurant != nil && i.restaurant.ID == r.ID {
		i.restaurant = r
	}
}

// SetPin records the geocoding outcome for restaurant id; nil means no location found
func (i *Inspector) SetPin(id int64, pin *detail.Pin) {
	if i.restaurant == nil || i.restaurant.ID != id {
		return
	}
	i.pin = pin
	i.locating = false
}

// SetCloud shows a discovery entry whose photo is loading
func (i *Inspector) SetCloud(c domain.CloudRestaurant) {
	*i = Inspector{width: i.width, height: i.height, cloud: &c, imageLoading: true}
}

// SetImage records the loaded photo if it belongs to the shown entry
func (i *Inspector) SetImage(img domain.ImageResult) {
	if i.cloud == nil || i.cloud.ID != img.ID {
		return
	}
	i.image = &img
	i.imageLoading = false
}

func (i Inspector) Restaurant() *domain.Restaurant { return i.restaurant }
func (i Inspector) Pin() *detail.Pin               { return i.pin }
func (i Inspector) Cloud() *domain.CloudRestaurant { return i.cloud }
func (i Inspector) Image() *domain.ImageResult     { return i.image }

// View renders the component
func (i Inspector) View() string {
	contentWidth := max(i.width-4, 20)

	var body string
	switch {
	case i.restaurant != nil:
		body = i.renderRestaurant(contentWidth)
	case i.cloud != nil:
		body = i.renderCloud(contentWidth)
	default:
		body = styles.DimStyle.Render("Nothing selected")
	}

	return styles.PanelStyle.
		Width(max(i.width-2, 0)).
		Height(max(i.height-2, 0)).
		Render(body)
}

func (i Inspector) renderRestaurant(width int) string {
	r := i.restaurant
	var lines []string

	lines = append(lines, styles.TitleStyle.Render(styles.Truncate(r.Name, width)))
	lines = append(lines, "")

	valueWidth := max(width-styles.DetailLabelStyle.GetWidth(), 10)
	for _, row := range detail.Rows(r) {
		label := styles.DetailLabelStyle.Render(row.Field)
		value := styles.DetailValueStyle.Width(valueWidth).Render(row.Value)
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, label, value))
	}

	lines = append(lines, "")
	if r.HasImage() {
		lines = append(lines, styles.DimStyle.Render("Photo "+humanize.Bytes(uint64(len(r.Image)))))
	} else {
		lines = append(lines, styles.DimStyle.Render("No photo"))
	}

	lines = append(lines, "")
	switch {
	case i.locating:
		lines = append(lines, styles.DimStyle.Render("Locating…"))
	case i.pin == nil:
		lines = append(lines, styles.DimStyle.Render("No location found"))
	default:
		lines = append(lines, renderPin(i.pin, width))
	}

	return strings.Join(lines, "\n")
}

func renderPin(pin *detail.Pin, width int) string {
	c := pin.Placemark.Coordinate
	lines := []string{
		styles.AccentStyle.Render("📍 ") + styles.TitleStyle.Render(styles.Truncate(pin.Title, width-3)),
		styles.SubtitleStyle.Render(styles.Truncate(pin.Subtitle, width)),
		styles.DimStyle.Render(fmt.Sprintf("%.5f, %.5f", c.Latitude, c.Longitude)),
	}
	if pin.Placemark.Source != "" {
		lines = append(lines, styles.DimStyle.Render("© "+pin.Placemark.Source))
	}
	return strings.Join(lines, "\n")
}

func (i Inspector) renderCloud(width int) string {
	lines := []string{
		styles.TitleStyle.Render(styles.Truncate(i.cloud.Name, width)),
		styles.DimStyle.Render(styles.Truncate(string(i.cloud.ID), width)),
		"",
	}

	switch {
	case i.imageLoading:
		lines = append(lines, styles.PhotoLoadingStyle.Render("Loading photo…"))
	case i.image == nil || i.image.Placeholder:
		lines = append(lines, styles.DimStyle.Render("Photo unavailable"))
	default:
		source := "downloaded"
		if i.image.FromCache {
			source = "cached"
		}
		lines = append(lines,
			styles.PhotoCachedStyle.Render("Photo "+source),
			styles.DimStyle.Render(humanize.Bytes(uint64(len(i.image.Data)))),
			styles.DimStyle.Render(styles.Truncate(i.image.Path, width)),
		)
	}

	return strings.Join(lines, "\n")
}
