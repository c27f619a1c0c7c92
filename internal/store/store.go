package store

import (
	"context"
	"errors"

	"devscope/internal/models"
)

// Collections used by the bot.
const (
	CollectionPrimaryAdmins   = "primary_admins"
	CollectionSecondaryAdmins = "secondary_admins"
	CollectionUsedCommunities = "usedCommunities"
	CollectionTest            = "test"
)

var (
	// ErrNotFound is returned when a requested document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidInput is returned for an empty collection or key.
	ErrInvalidInput = errors.New("invalid input")
)

// Order selects the sort order of Query results by creation time.
type Order int

const (
	OrderCreatedAsc Order = iota
	OrderCreatedDesc
)

// Store is a durable collection/key document store.
type Store interface {
	Get(ctx context.Context, collection, key string) (*models.Document, error)
	// Put inserts or replaces the document stored under key.
	Put(ctx context.Context, collection, key string, value models.JSONMap) error
	Delete(ctx context.Context, collection, key string) error
	Query(ctx context.Context, collection string, order Order) ([]models.Document, error)
	// DeleteAll removes every document of a collection and returns how many were removed.
	DeleteAll(ctx context.Context, collection string) (int, error)
}

func validate(collection, key string) error {
	if collection == "" || key == "" {
		return ErrInvalidInput
	}
	return nil
}
