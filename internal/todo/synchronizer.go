package todo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"todo-web/internal/logging"
	"todo-web/internal/models"
	"todo-web/internal/storage"

	"github.com/sirupsen/logrus"
)

var (
	ErrTodoNotFound = errors.New("todo not found in snapshot")
	ErrNotEditing   = errors.New("todo is not being edited")
)

// Draft holds the inputs of the "new to-do" form
type Draft struct {
	Text      string
	StartDate string
	EndDate   string
}

// EditState is the single item currently being edited and its buffered fields
type EditState struct {
	ID        string
	Text      string
	StartDate string
	EndDate   string
}

// Synchronizer owns one snapshot of a remote collection and the list view's input buffers
type Synchronizer struct {
	store      storage.Store
	collection string
	log        *logrus.Entry

	mu       sync.Mutex
	snapshot []models.Todo
	draft    Draft
	edit     *EditState
}

// NewSynchronizer creates a Synchronizer over a collection of the store.
// A nil logger falls back to the global logger.
func NewSynchronizer(store storage.Store, collection string, logger *logrus.Entry) *Synchronizer {
	if logger == nil {
		logger = logging.Logger.WithField("collection", collection)
	}
	return &Synchronizer{
		store:      store,
		collection: collection,
		log:        logger,
		snapshot:   []models.Todo{},
	}
}

// FetchAll replaces the snapshot with the full collection.
// On failure the previous snapshot is kept.
func (s *Synchronizer) FetchAll(ctx context.Context) error {
	docs, err := s.store.List(ctx, s.collection)
	if err != nil {
		s.log.WithError(err).Error("Error fetching todos")
		return fmt.Errorf("fetch %s: %w", s.collection, err)
	}

	items := make([]models.Todo, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toTodo(doc))
	}

	// Whichever fetch resolves last decides the snapshot
	s.mu.Lock()
	s.snapshot = items
	s.mu.Unlock()

	s.log.WithField("count", len(items)).Debug("Fetched todos")
	return nil
}

// Create adds a new item and refetches. Empty text is ignored without contacting the store.
func (s *Synchronizer) Create(ctx context.Context, text, startDate, endDate string) error {
	s.mu.Lock()
	s.draft = Draft{Text: text, StartDate: startDate, EndDate: endDate}
	s.mu.Unlock()

	if text == "" {
		return nil
	}

	id, err := s.store.Add(ctx, s.collection, models.NewDocument{
		Text:      text,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		s.log.WithError(err).Error("Error adding todo")
		return fmt.Errorf("add todo: %w", err)
	}

	s.mu.Lock()
	s.draft.Text = ""
	s.mu.Unlock()

	s.log.WithField("todo_id", id).Info("Todo added")
	return s.FetchAll(ctx)
}

// Remove deletes an item by id and refetches.
// An id already gone from the store counts as removed.
func (s *Synchronizer) Remove(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, s.collection, id)
	switch {
	case errors.Is(err, storage.ErrDocumentNotFound):
		s.log.WithField("todo_id", id).Info("Todo already deleted")
	case err != nil:
		s.log.WithError(err).WithField("todo_id", id).Error("Error deleting todo")
		return fmt.Errorf("delete todo %s: %w", id, err)
	default:
		s.log.WithField("todo_id", id).Info("Todo deleted")
	}

	return s.FetchAll(ctx)
}

// BeginEdit makes id the active edit target and seeds the edit buffers from the snapshot.
// An active edit of another item is replaced. Unknown ids leave the state untouched.
func (s *Synchronizer) BeginEdit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.snapshot {
		if item.ID != id {
			continue
		}
		s.edit = &EditState{
			ID:        item.ID,
			Text:      item.Text,
			StartDate: FormatDate(item.StartDate),
			EndDate:   FormatDate(item.EndDate),
		}
		return nil
	}

	s.log.WithField("todo_id", id).Warn("Cannot edit todo missing from snapshot")
	return ErrTodoNotFound
}

// SetEditFields replaces the buffered values of the active edit.
// It fails with ErrNotEditing unless id is the item being edited.
func (s *Synchronizer) SetEditFields(id, text, startDate, endDate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.edit == nil || s.edit.ID != id {
		return ErrNotEditing
	}
	s.edit.Text = text
	s.edit.StartDate = startDate
	s.edit.EndDate = endDate
	return nil
}

// CancelEdit drops the active edit without contacting the store
func (s *Synchronizer) CancelEdit() {
	s.mu.Lock()
	s.edit = nil
	s.mu.Unlock()
}

// CommitEdit writes the edit buffers of id to the store, ends the edit and refetches.
// If the store call fails the edit stays active.
func (s *Synchronizer) CommitEdit(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.edit == nil || s.edit.ID != id {
		s.mu.Unlock()
		s.log.WithField("todo_id", id).Warn("Cannot update todo that is not being edited")
		return ErrNotEditing
	}
	pending := *s.edit
	s.mu.Unlock()

	err := s.store.Update(ctx, s.collection, id, models.DocumentUpdate{
		Text:      &pending.Text,
		StartDate: &pending.StartDate,
		EndDate:   &pending.EndDate,
	})
	if err != nil {
		s.log.WithError(err).WithField("todo_id", id).Error("Error updating todo")
		return fmt.Errorf("update todo %s: %w", id, err)
	}

	s.mu.Lock()
	if s.edit != nil && s.edit.ID == id {
		s.edit = nil
	}
	s.mu.Unlock()

	s.log.WithField("todo_id", id).Info("Todo updated")
	return s.FetchAll(ctx)
}

// Snapshot returns a copy of the current items
func (s *Synchronizer) Snapshot() []models.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.Todo, len(s.snapshot))
	copy(items, s.snapshot)
	return items
}

// Draft returns the current new-item inputs
func (s *Synchronizer) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Editing returns a copy of the active edit, or nil
func (s *Synchronizer) Editing() *EditState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.edit == nil {
		return nil
	}
	edit := *s.edit
	return &edit
}

// toTodo converts a stored document, parsing its date strings
func toTodo(doc models.Document) models.Todo {
	return models.Todo{
		ID:        doc.ID,
		Text:      doc.Text,
		Complete:  doc.Complete,
		StartDate: ParseDate(doc.StartDate),
		EndDate:   ParseDate(doc.EndDate),
	}
}
