package lookup

import "context"

// Finder is the subset of the flashcard gateway the coordinator needs
type Finder interface {
	FindNotes(ctx context.Context, deck, word string) []int64
}

// Coordinator searches a fixed, ordered set of decks for a word
type Coordinator struct {
	finder Finder
	decks  []string
}

// NewCoordinator creates a coordinator over the given decks
func NewCoordinator(finder Finder, decks []string) *Coordinator {
	return &Coordinator{finder: finder, decks: decks}
}

// Search queries every configured deck in order and concatenates the
// returned note ids. No de-duplication happens across decks: a note
// matched by two decks appears twice. An empty result means not found.
func (c *Coordinator) Search(ctx context.Context, word string) []int64 {
	var ids []int64
	for _, deck := range c.decks {
		ids = append(ids, c.finder.FindNotes(ctx, deck, word)...)
	}
	return ids
}
