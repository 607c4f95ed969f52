package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/foodpin/internal/detail"
	"github.com/mmcdole/foodpin/internal/domain"
)

// Command factories for async operations

// RefreshFeedCmd reloads the discovery feed from the first page
func RefreshFeedCmd(feed domain.FeedCommands) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		res, err := feed.Refresh(ctx)
		return FeedLoadedMsg{Result: res, Err: err}
	}
}

// LoadMoreCmd appends the next page of the discovery feed
func LoadMoreCmd(feed domain.FeedCommands) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		res, err := feed.LoadMore(ctx)
		return FeedLoadedMsg{Result: res, More: true, Err: err}
	}
}

// LoadImageCmd fetches the image of a discovery record.
// Failures come back as a placeholder, never as an error.
func LoadImageCmd(feed domain.FeedCommands, id domain.RecordID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		img, err := feed.Image(ctx, id)
		if err != nil {
			img = domain.ImageResult{ID: id, Placeholder: true}
		}
		return ImageLoadedMsg{Image: img}
	}
}

// LoadRestaurantsCmd reads the user's restaurants
func LoadRestaurantsCmd(store domain.RestaurantStore) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		list, err := store.List(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading restaurants"}
		}
		return RestaurantsLoadedMsg{Restaurants: list}
	}
}

// CreateRestaurantCmd stores a new restaurant, reading its photo from imagePath if set
func CreateRestaurantCmd(store domain.RestaurantStore, r *domain.Restaurant, imagePath string) tea.Cmd {
	return func() tea.Msg {
		if imagePath != "" {
			data, err := os.ReadFile(expandHome(imagePath))
			if err != nil {
				return ErrMsg{Err: err, Context: "reading photo"}
			}
			r.Image = data
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := store.Create(ctx, r); err != nil {
			return ErrMsg{Err: err, Context: "saving restaurant"}
		}
		return RestaurantSavedMsg{Restaurant: r}
	}
}

// DeleteRestaurantCmd removes a restaurant
func DeleteRestaurantCmd(store domain.RestaurantStore, id int64, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := store.Delete(ctx, id); err != nil {
			return ErrMsg{Err: err, Context: "deleting restaurant"}
		}
		return RestaurantDeletedMsg{ID: id, Name: name}
	}
}

// RateCmd saves a rating for a restaurant
func RateCmd(svc *detail.Service, id int64, rating domain.Rating) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r, err := svc.Rate(ctx, id, rating)
		if err != nil {
			return ErrMsg{Err: err, Context: "saving rating"}
		}
		return RatedMsg{Restaurant: r}
	}
}

// LocateCmd geocodes a restaurant address for the map pin
func LocateCmd(svc *detail.Service, r *domain.Restaurant) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		pin, _ := svc.Locate(ctx, r)
		return LocatedMsg{RestaurantID: r.ID, Pin: pin}
	}
}

// OpenFileCmd shows a file in the configured viewer
func OpenFileCmd(opener Opener, path, what string) tea.Cmd {
	return func() tea.Msg {
		if err := opener.OpenFile(path); err != nil {
			return ErrMsg{Err: err, Context: "opening " + what}
		}
		return OpenedMsg{What: what}
	}
}

// OpenImageDataCmd writes a restaurant photo to dir and opens it.
// Each restaurant has one file in dir, overwritten on every open.
func OpenImageDataCmd(opener Opener, dir string, r *domain.Restaurant) tea.Cmd {
	return func() tea.Msg {
		if len(r.Image) == 0 {
			return ErrMsg{Err: errors.New("no photo"), Context: "opening photo"}
		}
		if dir == "" {
			dir = filepath.Join(os.TempDir(), "foodpin")
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return ErrMsg{Err: err, Context: "opening photo"}
		}
		path := photoPath(dir, r.ID)
		if err := os.WriteFile(path, r.Image, 0644); err != nil {
			return ErrMsg{Err: err, Context: "opening photo"}
		}
		if err := opener.OpenFile(path); err != nil {
			return ErrMsg{Err: err, Context: "opening photo"}
		}
		return OpenedMsg{What: fmt.Sprintf("photo of %s", r.Name)}
	}
}

func photoPath(dir string, id int64) string {
	return filepath.Join(dir, fmt.Sprintf("restaurant-%d.jpg", id))
}

// OpenMapCmd shows a map region in the browser
func OpenMapCmd(opener Opener, region domain.MapRegion) tea.Cmd {
	return func() tea.Msg {
		if err := opener.OpenMap(region); err != nil {
			return ErrMsg{Err: err, Context: "opening map"}
		}
		return OpenedMsg{What: "map"}
	}
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

func expandHome(path string) string {
	if len(path) > 1 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
