// Package admins keeps the primary and secondary allowlists in memory and
// replicates every change to the durable store.
package admins

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"devscope/internal/models"
	"devscope/internal/store"
)

// ListType selects one of the two allowlist tiers.
type ListType int

const (
	Primary ListType = iota
	Secondary
)

// ErrUnknownList is returned when a list name does not name a tier.
var ErrUnknownList = errors.New("unknown admin list")

// ParseListType maps an API list name onto a tier.
func ParseListType(name string) (ListType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "primary_admins", "primary":
		return Primary, nil
	case "secondary_admins", "secondary":
		return Secondary, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownList, name)
}

// Collection returns the store collection backing the list.
func (l ListType) Collection() string {
	if l == Secondary {
		return store.CollectionSecondaryAdmins
	}
	return store.CollectionPrimaryAdmins
}

func (l ListType) String() string {
	return l.Collection()
}

// NewEntry is the operator input for an allowlist row.
type NewEntry struct {
	Address           string  `json:"address"`
	Username          string  `json:"username"`
	Amount            float64 `json:"amount"`
	Fees              float64 `json:"fees"`
	MevProtection     bool    `json:"mevProtection"`
	SoundNotification string  `json:"soundNotification"`
}

// Stats summarises the directory.
type Stats struct {
	PrimaryAdmins   int  `json:"primaryAdmins"`
	SecondaryAdmins int  `json:"secondaryAdmins"`
	Loaded          bool `json:"isFirebaseLoaded"`
}

// Directory is the in-memory mirror of both allowlists. Entries keep
// insertion order and addresses are not deduplicated.
type Directory struct {
	mu     sync.RWMutex
	lists  [2][]models.AdminEntry
	loaded bool
	lastID int64

	store store.Store
	now   func() time.Time
}

// NewDirectory creates an empty directory replicated to s.
func NewDirectory(s store.Store) *Directory {
	return &Directory{store: s, now: time.Now}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// nextID returns a millisecond timestamp id, bumped past the previous one so
// ids stay strictly increasing.
func (d *Directory) nextID(now time.Time) string {
	id := now.UnixMilli()
	if id <= d.lastID {
		id = d.lastID + 1
	}
	d.lastID = id
	return strconv.FormatInt(id, 10)
}

// Add appends an entry to the list and persists it.
func (d *Directory) Add(ctx context.Context, list ListType, in NewEntry) models.AdminEntry {
	address := strings.TrimSpace(in.Address)
	if address == "" {
		address = in.Username
	}

	d.mu.Lock()
	now := d.now()
	entry := models.AdminEntry{
		ID:                d.nextID(now),
		Address:           strings.TrimSpace(address),
		Amount:            in.Amount,
		Fees:              in.Fees,
		MevProtection:     in.MevProtection,
		SoundNotification: in.SoundNotification,
		CreatedAt:         now.UTC(),
	}
	d.lists[list] = append(d.lists[list], entry)
	d.mu.Unlock()

	d.persist(ctx, list, entry)
	return entry
}

// Remove deletes the entry with the given id. It reports whether an entry
// was removed.
func (d *Directory) Remove(ctx context.Context, list ListType, id string) bool {
	d.mu.Lock()
	entries := d.lists[list]
	idx := -1
	for i, e := range entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		d.mu.Unlock()
		return false
	}
	d.lists[list] = append(entries[:idx:idx], entries[idx+1:]...)
	d.mu.Unlock()

	if err := d.store.Delete(ctx, list.Collection(), id); err != nil {
		log.WithFields(log.Fields{
			"list":  list.String(),
			"id":    id,
			"error": err.Error(),
		}).Error("Failed to delete admin entry from store")
	}
	return true
}

// Lookup returns the first entry whose address equals identifier, ignoring
// case and surrounding whitespace.
func (d *Directory) Lookup(list ListType, identifier string) *models.AdminEntry {
	needle := normalize(identifier)
	if needle == "" {
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, e := range d.lists[list] {
		if normalize(e.Address) == needle {
			found := e
			return &found
		}
	}
	return nil
}

// All returns the entries of a list in insertion order.
func (d *Directory) All(list ListType) []models.AdminEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]models.AdminEntry(nil), d.lists[list]...)
}

// Addresses returns the addresses of a list, used in diagnostics.
func (d *Directory) Addresses(list ListType) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.lists[list]))
	for _, e := range d.lists[list] {
		out = append(out, e.Address)
	}
	return out
}

// Load replaces both lists with the store contents. Lists are read newest
// first, matching how the dashboard presents them.
func (d *Directory) Load(ctx context.Context) error {
	var loaded [2][]models.AdminEntry
	for _, list := range []ListType{Primary, Secondary} {
		docs, err := d.store.Query(ctx, list.Collection(), store.OrderCreatedDesc)
		if err != nil {
			d.mu.Lock()
			d.loaded = false
			d.mu.Unlock()
			return fmt.Errorf("load %s: %w", list, err)
		}
		for _, doc := range docs {
			var entry models.AdminEntry
			if err := doc.Value.Decode(&entry); err != nil {
				log.WithFields(log.Fields{
					"list":  list.String(),
					"id":    doc.Key,
					"error": err.Error(),
				}).Warn("Skipping undecodable admin entry")
				continue
			}
			if entry.ID == "" {
				entry.ID = doc.Key
			}
			if entry.CreatedAt.IsZero() {
				entry.CreatedAt = doc.CreatedAt
			}
			loaded[list] = append(loaded[list], entry)
		}
	}

	d.mu.Lock()
	d.lists = loaded
	d.loaded = true
	for _, entries := range loaded {
		for _, e := range entries {
			if id, err := strconv.ParseInt(e.ID, 10, 64); err == nil && id > d.lastID {
				d.lastID = id
			}
		}
	}
	d.mu.Unlock()

	log.WithFields(log.Fields{
		"primary":   len(loaded[Primary]),
		"secondary": len(loaded[Secondary]),
	}).Info("Admin lists loaded from store")
	return nil
}

// Clear removes every entry of a list locally and in the store.
func (d *Directory) Clear(ctx context.Context, list ListType) (int, error) {
	d.mu.Lock()
	d.lists[list] = nil
	d.mu.Unlock()

	n, err := d.store.DeleteAll(ctx, list.Collection())
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", list, err)
	}
	return n, nil
}

// Clean trims stored addresses and re-persists the ones that changed.
func (d *Directory) Clean(ctx context.Context) int {
	type change struct {
		list  ListType
		entry models.AdminEntry
	}
	var changed []change

	d.mu.Lock()
	for _, list := range []ListType{Primary, Secondary} {
		for i, e := range d.lists[list] {
			trimmed := strings.TrimSpace(e.Address)
			if trimmed != e.Address {
				d.lists[list][i].Address = trimmed
				changed = append(changed, change{list, d.lists[list][i]})
			}
		}
	}
	d.mu.Unlock()

	for _, c := range changed {
		d.persist(ctx, c.list, c.entry)
	}
	return len(changed)
}

// Stats reports list sizes and whether the store was loaded.
func (d *Directory) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Stats{
		PrimaryAdmins:   len(d.lists[Primary]),
		SecondaryAdmins: len(d.lists[Secondary]),
		Loaded:          d.loaded,
	}
}

// Loaded reports whether Load has completed successfully.
func (d *Directory) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

// persist replicates an entry. A failed write leaves the in-memory state as
// it is.
func (d *Directory) persist(ctx context.Context, list ListType, entry models.AdminEntry) {
	value, err := models.ToJSONMap(entry)
	if err == nil {
		err = d.store.Put(ctx, list.Collection(), entry.ID, value)
	}
	if err != nil {
		log.WithFields(log.Fields{
			"list":  list.String(),
			"id":    entry.ID,
			"error": err.Error(),
		}).Error("Failed to save admin entry to store")
	}
}
