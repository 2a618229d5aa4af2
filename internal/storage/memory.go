package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"todo-web/internal/models"

	"github.com/google/uuid"
)

// MemoryStore provides in-memory document storage
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*models.Document // collection -> id -> document
}

// NewMemoryStore creates a new in-memory document store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]*models.Document),
	}
}

// List returns copies of all documents in a collection, oldest first
func (s *MemoryStore) List(ctx context.Context, collection string) ([]models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if collection == "" {
		return nil, ErrInvalidCollection
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.collections[collection]
	result := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		result = append(result, *doc)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// Add stores a new document under a fresh identifier
func (s *MemoryStore) Add(ctx context.Context, collection string, doc models.NewDocument) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if collection == "" {
		return "", ErrInvalidCollection
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]*models.Document)
		s.collections[collection] = docs
	}

	now := time.Now()
	stored := &models.Document{
		ID:         uuid.NewString(),
		Collection: collection,
		Text:       doc.Text,
		StartDate:  doc.StartDate,
		EndDate:    doc.EndDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	docs[stored.ID] = stored

	return stored.ID, nil
}

// Update overwrites the non-nil fields of an existing document
func (s *MemoryStore) Update(ctx context.Context, collection, id string, update models.DocumentUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateRef(collection, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.collections[collection][id]
	if !exists {
		return ErrDocumentNotFound
	}

	applyUpdate(doc, update)
	doc.UpdatedAt = time.Now()
	return nil
}

// Delete removes a document from a collection
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateRef(collection, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.collections[collection][id]; !exists {
		return ErrDocumentNotFound
	}

	delete(s.collections[collection], id)
	return nil
}

// applyUpdate copies the set fields of an update onto a document
func applyUpdate(doc *models.Document, update models.DocumentUpdate) {
	if update.Text != nil {
		doc.Text = *update.Text
	}
	if update.Complete != nil {
		doc.Complete = *update.Complete
	}
	if update.StartDate != nil {
		doc.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		doc.EndDate = *update.EndDate
	}
}
