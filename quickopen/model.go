package quickopen

import "sort"

// Item is one quick-open entry. Label is what the matcher scores (for files,
// the slash-separated relative path); Detail carries extra display text such
// as the absolute path.
type Item struct {
	Label  string
	Detail string
}

// ScoredItem is an item that survived filtering, with its match score.
type ScoredItem struct {
	Item
	Score int
}

// Model holds the full item set and answers filter queries over it. It is
// pure data, no widget dependency, so the same model backs both the file
// finder and symbol pickers.
type Model struct {
	items []Item
}

// NewModel creates a model over the given items. The slice is retained.
func NewModel(items []Item) *Model {
	return &Model{items: items}
}

// SetItems replaces the item set.
func (m *Model) SetItems(items []Item) {
	m.items = items
}

// Len returns the number of unfiltered items.
func (m *Model) Len() int {
	return len(m.items)
}

// Filter returns the items matching query, best score first. Ties keep the
// original item order, so an empty query yields the full set unchanged.
func (m *Model) Filter(query string) []ScoredItem {
	out := make([]ScoredItem, 0, len(m.items))
	for _, it := range m.items {
		score, ok := MatchPath(query, it.Label)
		if !ok {
			continue
		}
		out = append(out, ScoredItem{Item: it, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
