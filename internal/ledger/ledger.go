// Package ledger records communities that already triggered a match so the
// same community cannot trigger a second trade.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"devscope/internal/models"
	"devscope/internal/store"
)

// Usage describes the token that consumed a community.
type Usage struct {
	TokenAddress string `json:"tokenAddress"`
	TokenName    string `json:"tokenName"`
	Platform     string `json:"platform"`
}

// Record is a ledger row as returned by List.
type Record struct {
	CommunityID  string    `json:"communityId"`
	TokenAddress string    `json:"tokenAddress"`
	TokenName    string    `json:"tokenName"`
	Platform     string    `json:"platform"`
	FirstUsedAt  time.Time `json:"firstUsedAt"`
	UsedAt       time.Time `json:"usedAt"`
}

// Ledger is the store-backed set of used community ids. A local set answers
// repeat checks without a store round trip.
type Ledger struct {
	mu    sync.RWMutex
	known map[string]struct{}
	store store.Store
	now   func() time.Time
}

// New creates a ledger over s.
func New(s store.Store) *Ledger {
	return &Ledger{
		known: make(map[string]struct{}),
		store: s,
		now:   time.Now,
	}
}

// IsUsed reports whether the community was already used. Store errors count
// as unused.
func (l *Ledger) IsUsed(ctx context.Context, communityID string) bool {
	if communityID == "" {
		return false
	}

	l.mu.RLock()
	_, ok := l.known[communityID]
	l.mu.RUnlock()
	if ok {
		return true
	}

	_, err := l.store.Get(ctx, store.CollectionUsedCommunities, communityID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.WithFields(log.Fields{
				"community_id": communityID,
				"error":        err.Error(),
			}).Warn("Ledger lookup failed, treating community as unused")
		}
		return false
	}

	l.remember(communityID)
	return true
}

// MarkUsed upserts the community. Write failures are logged and not retried.
func (l *Ledger) MarkUsed(ctx context.Context, communityID string, usage Usage) {
	if communityID == "" {
		return
	}
	l.remember(communityID)

	now := l.now().UTC()
	firstUsed := now
	if doc, err := l.store.Get(ctx, store.CollectionUsedCommunities, communityID); err == nil {
		var prev Record
		if doc.Value.Decode(&prev) == nil && !prev.FirstUsedAt.IsZero() {
			firstUsed = prev.FirstUsedAt
		}
	}

	value, err := models.ToJSONMap(Record{
		CommunityID:  communityID,
		TokenAddress: usage.TokenAddress,
		TokenName:    usage.TokenName,
		Platform:     usage.Platform,
		FirstUsedAt:  firstUsed,
		UsedAt:       now,
	})
	if err == nil {
		err = l.store.Put(ctx, store.CollectionUsedCommunities, communityID, value)
	}
	if err != nil {
		log.WithFields(log.Fields{
			"community_id":  communityID,
			"token_address": usage.TokenAddress,
			"error":         err.Error(),
		}).Error("Failed to mark community as used")
		return
	}

	log.WithFields(log.Fields{
		"community_id":  communityID,
		"token_address": usage.TokenAddress,
	}).Info("Community marked as used")
}

// List returns every stored record, newest first.
func (l *Ledger) List(ctx context.Context) ([]Record, error) {
	docs, err := l.store.Query(ctx, store.CollectionUsedCommunities, store.OrderCreatedDesc)
	if err != nil {
		return nil, fmt.Errorf("query used communities: %w", err)
	}

	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		var r Record
		if err := doc.Value.Decode(&r); err != nil {
			continue
		}
		if r.CommunityID == "" {
			r.CommunityID = doc.Key
		}
		records = append(records, r)
	}
	return records, nil
}

// Remove forgets a community so it can match again.
func (l *Ledger) Remove(ctx context.Context, communityID string) error {
	l.mu.Lock()
	delete(l.known, communityID)
	l.mu.Unlock()

	if err := l.store.Delete(ctx, store.CollectionUsedCommunities, communityID); err != nil {
		return fmt.Errorf("delete used community %s: %w", communityID, err)
	}
	return nil
}

// Clear forgets every community.
func (l *Ledger) Clear(ctx context.Context) (int, error) {
	l.mu.Lock()
	l.known = make(map[string]struct{})
	l.mu.Unlock()

	n, err := l.store.DeleteAll(ctx, store.CollectionUsedCommunities)
	if err != nil {
		return 0, fmt.Errorf("clear used communities: %w", err)
	}
	return n, nil
}

// Known returns how many communities this process has seen as used.
func (l *Ledger) Known() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.known)
}

func (l *Ledger) remember(communityID string) {
	l.mu.Lock()
	l.known[communityID] = struct{}{}
	l.mu.Unlock()
}
