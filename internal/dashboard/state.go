// Package dashboard holds the UI session state and the client-side rules of
// the dashboard: sort toggling, tab switching, create-form validation and
// display formatting. It is deliberately free of HTTP and template concerns
// so the state transitions are testable on their own.
package dashboard

import "finboard/internal/core"

type Tab string

const (
	TabItems     Tab = "items"
	TabAnalytics Tab = "analytics"
)

// State is the UI session state of one dashboard instance. It is owned by a
// single browser session and mutated only by direct user interaction.
//
// Invariant: either EditingID is empty, or it names the item the edit modal
// was last populated from.
type State struct {
	ActiveTab    Tab
	CurrentSort  string
	CurrentOrder string
	EditingID    string

	// ItemsCache is an advisory copy of the last fetched list, overwritten
	// on every reload. It never substitutes for the read-by-id edit fetch.
	ItemsCache []core.Item
}

func NewState() *State {
	return &State{
		ActiveTab:    TabItems,
		CurrentSort:  core.SortByDate,
		CurrentOrder: core.OrderDesc,
	}
}

// SwitchTab activates the given tab and reports whether the switch calls for
// an analytics reload. Unknown tabs fall back to the items view.
func (s *State) SwitchTab(tab Tab) (reloadAnalytics bool) {
	if tab != TabItems && tab != TabAnalytics {
		tab = TabItems
	}
	s.ActiveTab = tab
	return tab == TabAnalytics
}

// SortBy applies a column-header click: the active column toggles direction,
// any other column becomes active with ascending order. The caller reloads
// the list afterwards; the server remains the sole source of sort order.
func (s *State) SortBy(field string) {
	if s.CurrentSort == field {
		if s.CurrentOrder == core.OrderAsc {
			s.CurrentOrder = core.OrderDesc
		} else {
			s.CurrentOrder = core.OrderAsc
		}
		return
	}
	s.CurrentSort = field
	s.CurrentOrder = core.OrderAsc
}

// ListFilter combines user filter fields with the session sort state.
func (s *State) ListFilter(from, to, category, itemType string) core.ListFilter {
	return core.ListFilter{
		From:     from,
		To:       to,
		Category: category,
		Type:     itemType,
		SortBy:   s.CurrentSort,
		Order:    s.CurrentOrder,
	}
}

// BeginEdit records that the modal is populated from the given item.
func (s *State) BeginEdit(item core.Item) {
	s.EditingID = item.ID
}

// EndEdit closes the edit, discarding the target. Safe to call when no edit
// is in progress.
func (s *State) EndEdit() {
	s.EditingID = ""
}

// Editing reports whether an edit is in progress.
func (s *State) Editing() bool {
	return s.EditingID != ""
}

// CacheItems replaces the advisory items cache.
func (s *State) CacheItems(items []core.Item) {
	s.ItemsCache = items
}
