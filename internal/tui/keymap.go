package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit         key.Binding
	toggleHelp   key.Binding
	reload       key.Binding
	moveUp       key.Binding
	moveDown     key.Binding
	nextTab      key.Binding
	open         key.Binding
	newOrder     key.Binding
	logout       key.Binding
	cycleStatus  key.Binding
	cycleTeam    key.Binding
	cycleUser    key.Binding
	clearFilters key.Binding
	language     key.Binding
	theme        key.Binding
	start        key.Binding
	complete     key.Binding
	reject       key.Binding
	assign       key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		reload:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		moveUp:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "row up")),
		moveDown:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "row down")),
		nextTab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch tab")),
		open:         key.NewBinding(key.WithKeys("enter", "i"), key.WithHelp("enter", "open order")),
		newOrder:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new order")),
		logout:       key.NewBinding(key.WithKeys("Q"), key.WithHelp("Q", "log out")),
		cycleStatus:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status filter")),
		cycleTeam:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "team filter")),
		cycleUser:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "user filter")),
		clearFilters: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear filters")),
		language:     key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "language")),
		theme:        key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "theme")),
		start:        key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "start")),
		complete:     key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "complete")),
		reject:       key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reject")),
		assign:       key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "assign")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.open, k.newOrder, k.nextTab, k.reload, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.open, k.newOrder, k.nextTab, k.reload, k.logout, k.quit},
		{k.moveUp, k.moveDown, k.cycleStatus, k.cycleTeam, k.cycleUser, k.clearFilters},
		{k.start, k.complete, k.reject, k.assign, k.language, k.theme},
	}
}
