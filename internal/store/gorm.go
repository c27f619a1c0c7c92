package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"devscope/internal/models"
)

// GormStore keeps documents in the documents table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an opened gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, collection, key string) (*models.Document, error) {
	if err := validate(collection, key); err != nil {
		return nil, err
	}

	var doc models.Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_key = ?", collection, key).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, key, err)
	}
	return &doc, nil
}

func (s *GormStore) Put(ctx context.Context, collection, key string, value models.JSONMap) error {
	if err := validate(collection, key); err != nil {
		return err
	}

	doc := models.Document{Collection: collection, Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, collection, key string) error {
	if err := validate(collection, key); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_key = ?", collection, key).
		Delete(&models.Document{}).Error
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *GormStore) Query(ctx context.Context, collection string, order Order) ([]models.Document, error) {
	direction := "asc"
	if order == OrderCreatedDesc {
		direction = "desc"
	}

	var docs []models.Document
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("created_at " + direction).
		Order("id " + direction).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	return docs, nil
}

func (s *GormStore) DeleteAll(ctx context.Context, collection string) (int, error) {
	res := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Delete(&models.Document{})
	if res.Error != nil {
		return 0, fmt.Errorf("clear %s: %w", collection, res.Error)
	}
	return int(res.RowsAffected), nil
}
