package storage

import (
	"context"
	"errors"

	"todo-web/internal/models"
)

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrInvalidCollection = errors.New("collection name is required")
	ErrInvalidDocumentID = errors.New("document id is required")
)

// Store is a collection-level document store. The store assigns document
// identifiers; callers never generate them.
type Store interface {
	// List returns every document in the collection, in no guaranteed order
	List(ctx context.Context, collection string) ([]models.Document, error)
	// Add stores a new document and returns its identifier
	Add(ctx context.Context, collection string, doc models.NewDocument) (string, error)
	// Update overwrites the named fields of a document
	Update(ctx context.Context, collection, id string, update models.DocumentUpdate) error
	// Delete removes a document
	Delete(ctx context.Context, collection, id string) error
}

func validateRef(collection, id string) error {
	if collection == "" {
		return ErrInvalidCollection
	}
	if id == "" {
		return ErrInvalidDocumentID
	}
	return nil
}
