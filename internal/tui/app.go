package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/foodpin/internal/detail"
	"github.com/mmcdole/foodpin/internal/discover"
	"github.com/mmcdole/foodpin/internal/domain"
	"github.com/mmcdole/foodpin/internal/search"
	"github.com/mmcdole/foodpin/internal/tui/components"
	"github.com/mmcdole/foodpin/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateForm
	StateConfirmDelete
	StateHelp
)

// Tab selects which list is shown
type Tab int

const (
	TabDiscover Tab = iota
	TabMine
)

// Focus is the pane receiving keys while browsing
type Focus int

const (
	FocusList Focus = iota
	FocusInspector
)

// Layout proportions
const (
	ListColumnPercent = 45
	MinColumnWidth    = 20

	// Vertical layout: tab header and footer line
	ChromeHeight = 2
)

// StatusTimeout is how long a status message stays in the footer
const StatusTimeout = 3 * time.Second

// Opener shows photos and maps in external programs
type Opener interface {
	OpenFile(path string) error
	OpenMap(region domain.MapRegion) error
}

// Services bundles what the UI talks to
type Services struct {
	Feed        domain.FeedCommands
	FeedQueries domain.FeedQueries
	Restaurants domain.RestaurantStore
	Detail      *detail.Service
	Search      *search.Service
	Opener      Opener

	// PhotoDir holds restaurant photos written out for viewing.
	// Empty uses a directory under the system temp dir.
	PhotoDir string
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Tab   Tab
	Focus Focus
	Ready bool

	svc Services

	// UI Components
	Discover  *components.ListColumn
	Mine      *components.ListColumn
	Inspector components.Inspector
	Form      components.RestaurantForm
	Spinner   spinner.Model

	// Data
	feed          []domain.CloudRestaurant // latest copy from FeedQueries
	feedView      []int                    // feed indices in row order
	restaurants   []*domain.Restaurant
	mineView      []*domain.Restaurant // restaurants in row order
	loadingImages map[domain.RecordID]bool
	pendingDelete *domain.Restaurant

	// Loading state
	Refreshing  bool
	LoadingMore bool

	// Status
	StatusMsg   string
	StatusIsErr bool

	// Dimensions
	Width  int
	Height int
}

// NewModel creates a new application model
func NewModel(svc Services) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	m := Model{
		svc:           svc,
		Discover:      components.NewListColumn("Discover", "No restaurants yet"),
		Mine:          components.NewListColumn("My Restaurants", "Press a to add a restaurant"),
		Inspector:     components.NewInspector(),
		Form:          components.NewRestaurantForm(),
		Spinner:       sp,
		loadingImages: make(map[domain.RecordID]bool),
		Refreshing:    true,
	}
	m.Discover.SetFocused(true)
	m.syncFeed()
	return m
}

// Init starts the spinner and the initial loads
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.Spinner.Tick,
		LoadRestaurantsCmd(m.svc.Restaurants),
		RefreshFeedCmd(m.svc.Feed),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		m.Discover.SetLoading(m.Refreshing, m.Spinner.View())
		return m, cmd

	case FeedLoadedMsg:
		if errors.Is(msg.Err, discover.ErrSuperseded) {
			// A newer refresh owns the feed and the spinner now
			return m, nil
		}
		if msg.More {
			m.LoadingMore = false
		} else {
			m.Refreshing = false
			m.Discover.SetLoading(false, "")
		}

		switch {
		case msg.Err == nil:
		case errors.Is(msg.Err, domain.ErrNoMoreResults):
			return m.withStatus("No more restaurants", false)
		case msg.More:
			return m.withStatus("Loading more failed: "+msg.Err.Error(), true)
		default:
			// A failed refresh leaves the feed empty
			m.syncFeed()
			return m, nil
		}

		m.syncFeed()
		if msg.More && msg.Result.Added > 0 {
			return m.withStatus(fmt.Sprintf("Loaded %d more", msg.Result.Added), false)
		}
		return m, nil

	case ImageLoadedMsg:
		delete(m.loadingImages, msg.Image.ID)
		m.Inspector.SetImage(msg.Image)
		m.syncFeed()
		return m, nil

	case RestaurantsLoadedMsg:
		m.restaurants = msg.Restaurants
		m.syncMine()
		return m, nil

	case RestaurantSavedMsg:
		m.restaurants = append(m.restaurants, msg.Restaurant)
		m.syncMine()
		m.Mine.SetCursor(m.rowOf(msg.Restaurant.ID))
		return m.withStatus("Saved "+msg.Restaurant.Name, false)

	case RestaurantDeletedMsg:
		m.restaurants = removeRestaurant(m.restaurants, msg.ID)
		if r := m.Inspector.Restaurant(); r != nil && r.ID == msg.ID {
			m.Inspector.Clear()
			m.setFocus(FocusList)
		}
		m.syncMine()
		return m.withStatus("Deleted "+msg.Name, false)

	case RatedMsg:
		for i, r := range m.restaurants {
			if r.ID == msg.Restaurant.ID {
				m.restaurants[i] = msg.Restaurant
			}
		}
		m.Inspector.UpdateRestaurant(msg.Restaurant)
		m.syncMine()
		return m.withStatus("Rated "+msg.Restaurant.Name, false)

	case LocatedMsg:
		m.Inspector.SetPin(msg.RestaurantID, msg.Pin)
		return m, nil

	case OpenedMsg:
		return m.withStatus("Opened "+msg.What, false)

	case ErrMsg:
		return m.withStatus(msg.Error(), true)

	case StatusMsg:
		return m.withStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	// Cursor blink and other input messages go to the active text input
	if m.State == StateForm {
		var cmd tea.Cmd
		m.Form, cmd, _ = m.Form.Update(msg)
		return m, cmd
	}
	return m, nil
}

// withStatus shows a footer message and schedules its removal
func (m Model) withStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return m, ClearStatusCmd(StatusTimeout)
}

// clearFeed empties the discovery rows ahead of a refresh
func (m *Model) clearFeed() {
	m.feed = nil
	m.feedView = nil
	m.Discover.SetTitle("Discover · 0")
	m.Discover.SetRows(nil, 0)
}

// syncFeed rebuilds the discovery rows from the feed and the filter
func (m *Model) syncFeed() {
	if m.svc.FeedQueries == nil {
		return
	}
	m.feed = m.svc.FeedQueries.Restaurants()

	query := m.Discover.FilterQuery()
	var rows []components.Row
	m.feedView = make([]int, 0, len(m.feed))

	if query == "" {
		rows = make([]components.Row, 0, len(m.feed))
		for i := range m.feed {
			m.feedView = append(m.feedView, i)
			rows = append(rows, m.feedRow(i, nil))
		}
	} else {
		items := make([]*domain.CloudRestaurant, len(m.feed))
		for i := range m.feed {
			items[i] = &m.feed[i]
		}
		for _, match := range search.FilterTitles(query, items) {
			m.feedView = append(m.feedView, match.Index)
			rows = append(rows, m.feedRow(match.Index, match.MatchedIndexes))
		}
	}

	title := fmt.Sprintf("Discover · %d", len(m.feed))
	if m.svc.FeedQueries.HasMore() {
		title += "+"
	}
	m.Discover.SetTitle(title)
	m.Discover.SetRows(rows, len(m.feed))
}

func (m Model) feedRow(i int, matched []int) components.Row {
	c := m.feed[i]

	var right string
	switch {
	case m.loadingImages[c.ID]:
		right = styles.PhotoLoadingStyle.Render(styles.PhotoLoading)
	case m.cachedPath(c.ID) != "":
		right = styles.PhotoCachedStyle.Render(styles.PhotoCached)
	case c.Image != nil:
		right = styles.PhotoRemoteStyle.Render(styles.PhotoRemote)
	default:
		right = styles.DimStyle.Render(styles.PhotoNone)
	}

	return components.Row{Title: c.Name, Matched: matched, Right: right}
}

func (m Model) cachedPath(id domain.RecordID) string {
	path, ok := m.svc.FeedQueries.CachedImagePath(id)
	if !ok {
		return ""
	}
	return path
}

// syncMine rebuilds the restaurant rows from the store copy and the filter
func (m *Model) syncMine() {
	matches := m.svc.Search.FilterRestaurants(m.Mine.FilterQuery(), m.restaurants)

	m.mineView = make([]*domain.Restaurant, 0, len(matches))
	rows := make([]components.Row, 0, len(matches))
	for _, match := range matches {
		r := match.Restaurant
		m.mineView = append(m.mineView, r)

		marker := styles.DimStyle.Render(styles.UnvisitedChar)
		if r.IsVisited {
			marker = styles.SuccessStyle.Render(styles.VisitedChar)
		}
		sub := r.Type
		if match.ByLocation {
			sub = r.Location
		}
		rows = append(rows, components.Row{
			Marker:  marker,
			Title:   r.Name,
			Matched: match.MatchedIndexes,
			Detail:  sub,
		})
	}

	m.Mine.SetTitle(fmt.Sprintf("My Restaurants · %d", len(m.restaurants)))
	m.Mine.SetRows(rows, len(m.restaurants))
}

// rowOf returns the row showing restaurant id, or 0
func (m Model) rowOf(id int64) int {
	for i, r := range m.mineView {
		if r.ID == id {
			return i
		}
	}
	return 0
}

// selectedCloud returns the discovery entry under the cursor
func (m Model) selectedCloud() (domain.CloudRestaurant, bool) {
	i := m.Discover.Cursor()
	if i < 0 || i >= len(m.feedView) {
		return domain.CloudRestaurant{}, false
	}
	return m.feed[m.feedView[i]], true
}

// selectedRestaurant returns the restaurant under the cursor
func (m Model) selectedRestaurant() *domain.Restaurant {
	i := m.Mine.Cursor()
	if i < 0 || i >= len(m.mineView) {
		return nil
	}
	return m.mineView[i]
}

func (m *Model) activeList() *components.ListColumn {
	if m.Tab == TabMine {
		return m.Mine
	}
	return m.Discover
}

func (m *Model) setFocus(f Focus) {
	m.Focus = f
	m.Discover.SetFocused(f == FocusList && m.Tab == TabDiscover)
	m.Mine.SetFocused(f == FocusList && m.Tab == TabMine)
}

func removeRestaurant(list []*domain.Restaurant, id int64) []*domain.Restaurant {
	out := make([]*domain.Restaurant, 0, len(list))
	for _, r := range list {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
