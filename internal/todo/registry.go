package todo

import (
	"sync"

	"todo-web/internal/config"
	"todo-web/internal/logging"
	"todo-web/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Config holds list synchronization configuration
type Config struct {
	Collection string // Name of the document store collection holding to-do items
}

// NewConfigFromEnv creates a Config from environment variables
func NewConfigFromEnv() *Config {
	return &Config{Collection: config.GetEnv("TODO_COLLECTION", "todoList")}
}

// Registry hands out one Synchronizer per signed-in user
type Registry struct {
	store      storage.Store
	collection string

	mu    sync.Mutex
	syncs map[uuid.UUID]*Synchronizer
}

// NewRegistry creates a registry whose synchronizers share the store
func NewRegistry(store storage.Store, config *Config) *Registry {
	return &Registry{
		store:      store,
		collection: config.Collection,
		syncs:      make(map[uuid.UUID]*Synchronizer),
	}
}

// For returns the user's Synchronizer, creating it on first use
func (r *Registry) For(userID uuid.UUID) *Synchronizer {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.syncs[userID]; ok {
		return s
	}

	s := NewSynchronizer(r.store, r.collection, logging.Logger.WithFields(logrus.Fields{
		"user_id":    userID.String(),
		"collection": r.collection,
	}))
	r.syncs[userID] = s
	return s
}

// Forget drops the user's Synchronizer and its buffers
func (r *Registry) Forget(userID uuid.UUID) {
	r.mu.Lock()
	delete(r.syncs, userID)
	r.mu.Unlock()
}

// Len returns the number of live synchronizers
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.syncs)
}
