package storage

import (
	"context"
	"errors"
	"fmt"

	"todo-web/internal/models"

	"gorm.io/gorm"
)

// GormStore implements the document store on a relational database with GORM
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed document store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// List retrieves every document in a collection, oldest first
func (s *GormStore) List(ctx context.Context, collection string) ([]models.Document, error) {
	if collection == "" {
		return nil, ErrInvalidCollection
	}

	var docs []models.Document
	if err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("created_at ASC").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}

	return docs, nil
}

// Add inserts a new document; the identifier is assigned by the BeforeCreate hook
func (s *GormStore) Add(ctx context.Context, collection string, doc models.NewDocument) (string, error) {
	if collection == "" {
		return "", ErrInvalidCollection
	}

	stored := &models.Document{
		Collection: collection,
		Text:       doc.Text,
		StartDate:  doc.StartDate,
		EndDate:    doc.EndDate,
	}

	if err := s.db.WithContext(ctx).Create(stored).Error; err != nil {
		return "", fmt.Errorf("failed to add document to %s: %w", collection, err)
	}

	return stored.ID, nil
}

// Update overwrites the named fields of a document
func (s *GormStore) Update(ctx context.Context, collection, id string, update models.DocumentUpdate) error {
	if err := validateRef(collection, id); err != nil {
		return err
	}

	var doc models.Document
	if err := s.db.WithContext(ctx).
		Where("id = ? AND collection = ?", id, collection).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("failed to load document %s: %w", id, err)
	}

	// Build the column map so zero values (empty text, false) are written too
	updates := make(map[string]interface{})
	if update.Text != nil {
		updates["text"] = *update.Text
	}
	if update.Complete != nil {
		updates["complete"] = *update.Complete
	}
	if update.StartDate != nil {
		updates["start_date"] = *update.StartDate
	}
	if update.EndDate != nil {
		updates["end_date"] = *update.EndDate
	}

	if len(updates) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(&doc).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update document %s: %w", id, err)
	}
	return nil
}

// Delete removes a document
func (s *GormStore) Delete(ctx context.Context, collection, id string) error {
	if err := validateRef(collection, id); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("id = ? AND collection = ?", id, collection).
		Delete(&models.Document{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}
