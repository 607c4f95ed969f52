package tui

// columnLayout holds calculated widths for the View
type columnLayout struct {
	listWidth      int
	inspectorWidth int
	height         int
}

// calculateLayout splits the screen between the list and the inspector
func (m Model) calculateLayout() columnLayout {
	height := max(m.Height-ChromeHeight, 3)
	listWidth := max(m.Width*ListColumnPercent/100, MinColumnWidth)
	return columnLayout{
		listWidth:      listWidth,
		inspectorWidth: max(m.Width-listWidth, MinColumnWidth),
		height:         height,
	}
}

// updateLayout pushes the current sizes into the components
func (m *Model) updateLayout() {
	layout := m.calculateLayout()
	m.Discover.SetSize(layout.listWidth, layout.height)
	m.Mine.SetSize(layout.listWidth, layout.height)
	m.Inspector.SetSize(layout.inspectorWidth, layout.height)
}
