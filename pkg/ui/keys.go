package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists every binding of the task view. It implements help.KeyMap.
type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Expand      key.Binding
	Collapse    key.Binding
	Select      key.Binding
	SelectPage  key.Binding
	ClearSel    key.Binding
	SortTitle   key.Binding
	SortPrio    key.Binding
	SortStatus  key.Binding
	SortDue     key.Binding
	SortCreated key.Binding
	PrevPage    key.Binding
	NextPage    key.Binding
	Group       key.Binding
	Search      key.Binding
	Overdue     key.Binding
	Mine        key.Binding
	BulkDone    key.Binding
	BulkPrio    key.Binding
	AssignMe    key.Binding
	Unassign    key.Binding
	Delete      key.Binding
	Copy        key.Binding
	Refresh     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Expand:      key.NewBinding(key.WithKeys("enter", "right", "l"), key.WithHelp("enter", "expand/collapse")),
		Collapse:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
		Select:      key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "select")),
		SelectPage:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "select page")),
		ClearSel:    key.NewBinding(key.WithKeys("V", "esc"), key.WithHelp("V", "clear selection")),
		SortTitle:   key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "sort title")),
		SortPrio:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "sort priority")),
		SortStatus:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "sort status")),
		SortDue:     key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "sort due")),
		SortCreated: key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "sort created")),
		PrevPage:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev page")),
		NextPage:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next page")),
		Group:       key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "group by project")),
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Overdue:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "overdue only")),
		Mine:        key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mine only")),
		BulkDone:    key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "mark done")),
		BulkPrio:    key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "set priority")),
		AssignMe:    key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "assign to me")),
		Unassign:    key.NewBinding(key.WithKeys("U"), key.WithHelp("U", "unassign")),
		Delete:      key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "delete")),
		Copy:        key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy ids")),
		Refresh:     key.NewBinding(key.WithKeys("r", "ctrl+r", "f5"), key.WithHelp("r", "refresh")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Expand, k.Select, k.Search, k.PrevPage, k.NextPage, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Expand, k.Collapse, k.PrevPage, k.NextPage},
		{k.SortTitle, k.SortPrio, k.SortStatus, k.SortDue, k.SortCreated, k.Group},
		{k.Search, k.Overdue, k.Mine, k.Refresh, k.Help, k.Quit},
		{k.Select, k.SelectPage, k.ClearSel, k.Copy},
		{k.BulkDone, k.BulkPrio, k.AssignMe, k.Unassign, k.Delete},
	}
}
