package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"todo-web/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrFakeStore is the error returned by FakeStore operations set to fail
var ErrFakeStore = errors.New("fake store failure")

// SetupTestDB creates an in-memory SQLite database with the application schema
func SetupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open test database")

	// Every pooled connection to :memory: would otherwise see its own empty database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.User{}, &models.RefreshToken{}, &models.Document{})
	require.NoError(t, err, "Failed to migrate test database")

	return db
}

// CleanupTestDB cleans up the test database
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	sqlDB, err := db.DB()
	require.NoError(t, err)
	err = sqlDB.Close()
	require.NoError(t, err)
}

// FakeStore is a document store double that counts calls and can be told to fail.
// It satisfies storage.Store.
type FakeStore struct {
	mu      sync.Mutex
	docs    map[string]map[string]models.Document
	nextID  int
	failing map[string]bool

	ListCalls   int
	AddCalls    int
	UpdateCalls int
	DeleteCalls int
}

// NewFakeStore creates an empty FakeStore
func NewFakeStore() *FakeStore {
	return &FakeStore{
		docs:    make(map[string]map[string]models.Document),
		failing: make(map[string]bool),
	}
}

// FailOn makes the named operation ("list", "add", "update", "delete") return ErrFakeStore
func (f *FakeStore) FailOn(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[op] = true
}

// Recover clears all injected failures
func (f *FakeStore) Recover() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = make(map[string]bool)
}

// Calls returns the total number of store calls made so far
func (f *FakeStore) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ListCalls + f.AddCalls + f.UpdateCalls + f.DeleteCalls
}

// Seed inserts a document with a fixed id, bypassing call counters
func (f *FakeStore) Seed(collection string, doc models.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs[collection] == nil {
		f.docs[collection] = make(map[string]models.Document)
	}
	doc.Collection = collection
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	f.docs[collection][doc.ID] = doc
}

// List returns all documents of a collection ordered by id
func (f *FakeStore) List(_ context.Context, collection string) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalls++
	if f.failing["list"] {
		return nil, ErrFakeStore
	}

	result := make([]models.Document, 0, len(f.docs[collection]))
	for _, doc := range f.docs[collection] {
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Add stores a document under a sequential id
func (f *FakeStore) Add(_ context.Context, collection string, doc models.NewDocument) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AddCalls++
	if f.failing["add"] {
		return "", ErrFakeStore
	}

	f.nextID++
	id := fmt.Sprintf("doc-%03d", f.nextID)
	if f.docs[collection] == nil {
		f.docs[collection] = make(map[string]models.Document)
	}
	f.docs[collection][id] = models.Document{
		ID:         id,
		Collection: collection,
		Text:       doc.Text,
		StartDate:  doc.StartDate,
		EndDate:    doc.EndDate,
		CreatedAt:  time.Now(),
	}
	return id, nil
}

// Update overwrites the set fields of a document
func (f *FakeStore) Update(_ context.Context, collection, id string, update models.DocumentUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpdateCalls++
	if f.failing["update"] {
		return ErrFakeStore
	}

	doc, ok := f.docs[collection][id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, ErrFakeStore)
	}
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
	f.docs[collection][id] = doc
	return nil
}

// Delete removes a document
func (f *FakeStore) Delete(_ context.Context, collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls++
	if f.failing["delete"] {
		return ErrFakeStore
	}

	if _, ok := f.docs[collection][id]; !ok {
		return fmt.Errorf("document %s: %w", id, ErrFakeStore)
	}
	delete(f.docs[collection], id)
	return nil
}

// MakeJSONRequest creates an HTTP request with JSON body
func MakeJSONRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var bodyReader *bytes.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err, "Failed to marshal request body")
		bodyReader = bytes.NewReader(jsonBody)
	} else {
		bodyReader = bytes.NewReader([]byte{})
	}

	req := httptest.NewRequest(method, url, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// MakeFormRequest creates an HTTP request with a url-encoded form body
func MakeFormRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// ParseJSONResponse parses a JSON response into a target structure
func ParseJSONResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	err := json.Unmarshal(w.Body.Bytes(), target)
	require.NoError(t, err, "Failed to parse JSON response")
}

// Date parses a YYYY-MM-DD date, failing the test on error
func Date(t *testing.T, value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

// TimePtr returns a pointer to a time.Time value
func TimePtr(t time.Time) *time.Time {
	return &t
}

// StringPtr returns a pointer to a string value
func StringPtr(s string) *string {
	return &s
}

// BoolPtr returns a pointer to a bool value
func BoolPtr(b bool) *bool {
	return &b
}
