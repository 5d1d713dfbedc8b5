// Package catalog holds the immutable item collection the game is played over.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// Item is one catalog entry. Items are loaded once and never mutated.
type Item struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Type     string `json:"type,omitempty"`
	Gold     bool   `json:"gold,omitempty"`
	Beard    bool   `json:"beard,omitempty"`
	OneOfOne bool   `json:"oneOfOne,omitempty"`
}

// Catalog is an immutable, id-indexed item collection.
type Catalog struct {
	items []Item
	byID  map[int]Item
}

// New builds a catalog from a slice of items. Items are sorted by id and
// duplicate ids are rejected.
func New(items []Item) (*Catalog, error) {
	sorted := append([]Item(nil), items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[int]Item, len(sorted))
	for _, it := range sorted {
		if _, dup := byID[it.ID]; dup {
			return nil, fmt.Errorf("%w: id %d", ErrDuplicateID, it.ID)
		}
		byID[it.ID] = it
	}
	return &Catalog{items: sorted, byID: byID}, nil
}

// LoadFile reads a JSON array of items from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}
	return New(items)
}

// Synthetic generates a deterministic n-item catalog for development and
// tests. Ids run 1..n.
func Synthetic(n int) *Catalog {
	items := make([]Item, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, Item{
			ID:   i,
			Name: "Vibe #" + strconv.Itoa(i),
			URL:  "https://img.goodvibes.club/gvc/" + strconv.Itoa(i) + ".png",
			Gold: i%100 == 0,
		})
	}
	c, _ := New(items)
	return c
}

// Get returns the item with the given id.
func (c *Catalog) Get(id int) (Item, bool) {
	it, ok := c.byID[id]
	return it, ok
}

// All returns every item in ascending id order. Callers must not mutate the
// returned slice.
func (c *Catalog) All() []Item {
	return c.items
}

// Size returns the number of items.
func (c *Catalog) Size() int {
	return len(c.items)
}
