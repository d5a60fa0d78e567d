// Package selection holds the user's currently selected catalog items in
// memory. The store is the only mutable state shared across requests; every
// operation runs under a single exclusive lock and performs no I/O.
package selection

import (
	"sort"
	"sync"
	"time"

	"github.com/salamyar/salamyar/internal/utils"
)

// Candidate is the input to Select. Validation happens upstream; an item id
// of zero is assumed not to occur here.
type Candidate struct {
	ItemID     int64  `json:"product_id"`
	ItemName   string `json:"product_name"`
	VendorID   int64  `json:"vendor_id"`
	VendorName string `json:"vendor_name"`
	StatusID   int64  `json:"status_id"`
	ImageURL   string `json:"image_url,omitempty"`
	// SlotKey correlates selections made from the same search interaction
	// (e.g. a search session id). At most one selection owns a slot.
	SlotKey string `json:"search_session_id,omitempty"`
}

// Selection is an immutable snapshot of one selected item.
type Selection struct {
	ID         int64     `json:"id"`
	ItemID     int64     `json:"product_id"`
	ItemName   string    `json:"product_name"`
	VendorID   int64     `json:"vendor_id"`
	VendorName string    `json:"vendor_name"`
	StatusID   int64     `json:"status_id"`
	ImageURL   string    `json:"image_url,omitempty"`
	SlotKey    string    `json:"search_session_id,omitempty"`
	SelectedAt time.Time `json:"selected_at"`
}

type Store struct {
	mu         sync.Mutex
	selections map[int64]Selection // selection id -> selection
	byItemID   map[int64]int64     // item id -> selection id
	slots      map[string]int64    // slot key -> owning selection id
	nextID     int64

	now func() time.Time // overridable in tests
}

func NewStore() *Store {
	return &Store{
		selections: make(map[int64]Selection),
		byItemID:   make(map[int64]int64),
		slots:      make(map[string]int64),
		nextID:     1,
		now:        time.Now,
	}
}

// Select adds a candidate to the store. Selecting an item that is already
// selected is a no-op returning the existing selection. A non-empty slot key
// currently owned by a different selection replaces that selection
// atomically.
func (s *Store) Select(c Candidate) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byItemID[c.ItemID]; ok {
		existing := s.selections[id]
		utils.Log.Debugf("item %d already selected (selection %d)", c.ItemID, id)
		return existing
	}

	if c.SlotKey != "" {
		// A slot entry may be stale if its owner was removed directly;
		// only a live owner with a different item gets replaced.
		if ownerID, ok := s.slots[c.SlotKey]; ok {
			if owner, live := s.selections[ownerID]; live && owner.ItemID != c.ItemID {
				delete(s.selections, ownerID)
				delete(s.byItemID, owner.ItemID)
				utils.Log.Debugf("slot %q: replaced selection %d (item %d)", c.SlotKey, ownerID, owner.ItemID)
			}
		}
	}

	sel := Selection{
		ID:         s.nextID,
		ItemID:     c.ItemID,
		ItemName:   c.ItemName,
		VendorID:   c.VendorID,
		VendorName: c.VendorName,
		StatusID:   c.StatusID,
		ImageURL:   c.ImageURL,
		SlotKey:    c.SlotKey,
		SelectedAt: s.now(),
	}
	s.nextID++

	s.selections[sel.ID] = sel
	s.byItemID[sel.ItemID] = sel.ID
	if c.SlotKey != "" {
		s.slots[c.SlotKey] = sel.ID
	}
	return sel
}

// List returns all active selections, most recently selected first.
// Timestamp ties break by insertion order, later insertion first.
func (s *Store) List() []Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked(func(Selection) bool { return true })
}

// ListByVendor returns active selections from one vendor, same ordering as
// List. Diagnostics only.
func (s *Store) ListByVendor(vendorID int64) []Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked(func(sel Selection) bool { return sel.VendorID == vendorID })
}

// FindByItemID returns the active selection for an item, if any.
func (s *Store) FindByItemID(itemID int64) (Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byItemID[itemID]
	if !ok {
		return Selection{}, false
	}
	return s.selections[id], true
}

// Remove deletes the selection for the given item id. The item's slot
// mapping, if any, is left behind as stale and ignored on next use.
func (s *Store) Remove(itemID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byItemID[itemID]
	if !ok {
		return false
	}
	delete(s.selections, id)
	delete(s.byItemID, itemID)
	return true
}

// Clear drops every selection and slot mapping, returning how many
// selections were removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.selections)
	s.selections = make(map[int64]Selection)
	s.byItemID = make(map[int64]int64)
	s.slots = make(map[string]int64)
	return count
}

// Count returns the number of active selections.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.selections)
}

func (s *Store) sortedLocked(keep func(Selection) bool) []Selection {
	out := make([]Selection, 0, len(s.selections))
	for _, sel := range s.selections {
		if keep(sel) {
			out = append(out, sel)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SelectedAt.Equal(out[j].SelectedAt) {
			return out[i].SelectedAt.After(out[j].SelectedAt)
		}
		// Ids are monotonic, so descending id = later insertion first.
		return out[i].ID > out[j].ID
	})
	return out
}
