// Package publications tracks which sales channels a bulk run publishes to.
package publications

import (
	"hydrogen-admin/internal/services/shopify"
)

// Selection is the set of chosen publication ids. It is always a subset of
// the loaded list and starts with everything selected.
type Selection struct {
	list     []shopify.Publication
	selected map[string]bool
	touched  bool
}

func NewSelection(list []shopify.Publication) *Selection {
	s := &Selection{}
	s.Sync(list)
	return s
}

// Sync replaces the loaded list. An untouched selection selects the whole
// new list, otherwise it keeps only ids still present.
func (s *Selection) Sync(list []shopify.Publication) {
	next := make(map[string]bool, len(list))
	for _, p := range list {
		if !s.touched || s.selected[p.ID] {
			next[p.ID] = true
		}
	}
	s.list = append([]shopify.Publication(nil), list...)
	s.selected = next
}

// Toggle flips one id. Unknown ids are ignored.
func (s *Selection) Toggle(id string) {
	if !s.known(id) {
		return
	}
	s.touched = true
	if s.selected[id] {
		delete(s.selected, id)
	} else {
		s.selected[id] = true
	}
}

func (s *Selection) SelectAll() {
	s.touched = true
	for _, p := range s.list {
		s.selected[p.ID] = true
	}
}

func (s *Selection) DeselectAll() {
	s.touched = true
	s.selected = map[string]bool{}
}

// Only selects exactly the given ids that exist in the list.
func (s *Selection) Only(ids []string) {
	s.DeselectAll()
	for _, id := range ids {
		if s.known(id) {
			s.selected[id] = true
		}
	}
}

func (s *Selection) IsSelected(id string) bool {
	return s.selected[id]
}

func (s *Selection) Len() int {
	return len(s.selected)
}

// Selected returns the chosen publications in list order.
func (s *Selection) Selected() []shopify.Publication {
	out := make([]shopify.Publication, 0, len(s.selected))
	for _, p := range s.list {
		if s.selected[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

func (s *Selection) Names() []string {
	return Names(s.Selected())
}

func (s *Selection) known(id string) bool {
	for _, p := range s.list {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Names projects publications to their display names.
func Names(pubs []shopify.Publication) []string {
	names := make([]string, len(pubs))
	for i, p := range pubs {
		names[i] = p.Name
	}
	return names
}

// NameOf looks up a display name, falling back to the id.
func NameOf(pubs []shopify.Publication, id string) string {
	for _, p := range pubs {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}
