package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/foodpin/internal/domain"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle state-specific keys
	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil

	case StateConfirmDelete:
		switch {
		case key.Matches(msg, Keys.Confirm):
			r := m.pendingDelete
			m.pendingDelete = nil
			m.State = StateBrowsing
			if r == nil {
				return m, nil
			}
			return m, DeleteRestaurantCmd(m.svc.Restaurants, r.ID, r.Name)
		case key.Matches(msg, Keys.Deny):
			m.pendingDelete = nil
			m.State = StateBrowsing
		}
		return m, nil

	case StateForm:
		var cmd tea.Cmd
		var submitted bool
		m.Form, cmd, submitted = m.Form.Update(msg)
		if submitted {
			m.Form.Hide()
			m.State = StateBrowsing
			return m, CreateRestaurantCmd(m.svc.Restaurants, m.Form.Restaurant(), m.Form.ImagePath())
		}
		if !m.Form.IsVisible() {
			m.State = StateBrowsing
		}
		return m, cmd
	}

	// A typing filter takes every key except ctrl+c
	if m.Focus == FocusList && m.activeList().IsFilterTyping() && msg.String() != "ctrl+c" {
		return m.updateList(msg)
	}

	// Global keys
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Tab):
		if m.Tab == TabDiscover {
			m.Tab = TabMine
		} else {
			m.Tab = TabDiscover
		}
		m.Inspector.Clear()
		m.setFocus(FocusList)
		return m, nil
	}

	if m.Focus == FocusInspector {
		return m.handleInspectorKey(msg)
	}
	if m.Tab == TabMine {
		return m.handleMineKey(msg)
	}
	return m.handleDiscoverKey(msg)
}

// handleDiscoverKey handles keys on the discovery list
func (m Model) handleDiscoverKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Filter):
		m.Discover.ToggleFilter()
		return m, nil

	case key.Matches(msg, Keys.Refresh):
		m.Refreshing = true
		m.clearFeed()
		m.Discover.SetLoading(true, m.Spinner.View())
		return m, RefreshFeedCmd(m.svc.Feed)

	case key.Matches(msg, Keys.LoadMore):
		if m.LoadingMore {
			return m, nil
		}
		m.LoadingMore = true
		return m, LoadMoreCmd(m.svc.Feed)

	case key.Matches(msg, Keys.Enter):
		c, ok := m.selectedCloud()
		if !ok {
			return m, nil
		}
		m.Inspector.SetCloud(c)
		m.setFocus(FocusInspector)
		cmd := m.loadImage(c.ID)
		return m, cmd

	case key.Matches(msg, Keys.OpenPhoto):
		c, ok := m.selectedCloud()
		if !ok {
			return m, nil
		}
		if path := m.cachedPath(c.ID); path != "" {
			return m, OpenFileCmd(m.svc.Opener, path, "photo of "+c.Name)
		}
		return m.withStatus("Photo not downloaded yet, press enter", false)
	}

	return m.updateList(msg)
}

// handleMineKey handles keys on the user's restaurant list
func (m Model) handleMineKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Filter):
		m.Mine.ToggleFilter()
		return m, nil

	case key.Matches(msg, Keys.Refresh):
		return m, LoadRestaurantsCmd(m.svc.Restaurants)

	case key.Matches(msg, Keys.Add):
		m.Form.Show()
		m.State = StateForm
		return m, nil

	case key.Matches(msg, Keys.Delete):
		if r := m.selectedRestaurant(); r != nil {
			m.pendingDelete = r
			m.State = StateConfirmDelete
		}
		return m, nil

	case key.Matches(msg, Keys.Enter):
		r := m.selectedRestaurant()
		if r == nil {
			return m, nil
		}
		m.Inspector.SetRestaurant(r)
		m.setFocus(FocusInspector)
		return m, LocateCmd(m.svc.Detail, r)
	}

	return m.updateList(msg)
}

// handleInspectorKey handles keys on the detail pane
func (m Model) handleInspectorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, Keys.Back) {
		m.setFocus(FocusList)
		return m, nil
	}

	if c := m.Inspector.Cloud(); c != nil {
		if key.Matches(msg, Keys.OpenPhoto) {
			img := m.Inspector.Image()
			if img == nil || img.Placeholder || img.Path == "" {
				return m.withStatus("No photo to open", false)
			}
			return m, OpenFileCmd(m.svc.Opener, img.Path, "photo of "+c.Name)
		}
		return m, nil
	}

	r := m.Inspector.Restaurant()
	if r == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, Keys.RateGreat):
		return m, RateCmd(m.svc.Detail, r.ID, domain.RatingGreat)
	case key.Matches(msg, Keys.RateGood):
		return m, RateCmd(m.svc.Detail, r.ID, domain.RatingGood)
	case key.Matches(msg, Keys.RateBad):
		return m, RateCmd(m.svc.Detail, r.ID, domain.RatingDislike)

	case key.Matches(msg, Keys.OpenPhoto):
		if !r.HasImage() {
			return m.withStatus("No photo", false)
		}
		return m, OpenImageDataCmd(m.svc.Opener, m.svc.PhotoDir, r)

	case key.Matches(msg, Keys.OpenMap):
		pin := m.Inspector.Pin()
		if pin == nil {
			return m.withStatus("No location to show", false)
		}
		return m, OpenMapCmd(m.svc.Opener, pin.Region)
	}

	return m, nil
}

// updateList forwards a key to the active list and refilters when needed
func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.activeList()
	cmd, filterChanged := list.Update(msg)
	if filterChanged {
		if m.Tab == TabMine {
			m.syncMine()
		} else {
			m.syncFeed()
		}
	}
	return m, cmd
}

// loadImage starts an image load unless one is already running
func (m *Model) loadImage(id domain.RecordID) tea.Cmd {
	if m.loadingImages[id] {
		return nil
	}
	m.loadingImages[id] = true
	m.syncFeed()
	return LoadImageCmd(m.svc.Feed, id)
}
