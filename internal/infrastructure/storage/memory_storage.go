package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	catalogapp "github.com/printshop/personalizer/internal/application/catalog"
	"github.com/printshop/personalizer/internal/domain/shared"
)

var _ catalogapp.ObjectStorageService = (*MemoryObjectStorage)(nil)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryObjectStorage keeps objects in process memory. URLs are built from
// BaseURL and are only meaningful when something serves that prefix.
// Used for local development and tests.
type MemoryObjectStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemoryObjectStorage creates an empty store. An empty baseURL defaults to
// https://storage.example.com.
func NewMemoryObjectStorage(baseURL string) *MemoryObjectStorage {
	if baseURL == "" {
		baseURL = "https://storage.example.com"
	}
	return &MemoryObjectStorage{
		BaseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]memoryObject),
	}
}

// Upload stores a copy of data
func (s *MemoryObjectStorage) Upload(_ context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errKeyRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// GetObject returns a copy of the stored bytes
func (s *MemoryObjectStorage) GetObject(_ context.Context, storageKey string) ([]byte, error) {
	if storageKey == "" {
		return nil, errKeyRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[storageKey]
	if !ok {
		return nil, shared.ErrNotFound.WithMessage("Object not found")
	}
	return append([]byte(nil), obj.data...), nil
}

// GenerateDownloadURL builds BaseURL/key. The link does not expire.
func (s *MemoryObjectStorage) GenerateDownloadURL(_ context.Context, storageKey string, _ time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errKeyRequired
	}
	return s.BaseURL + "/" + storageKey, time.Time{}, nil
}

// DeleteObject removes the key; deleting a missing key succeeds
func (s *MemoryObjectStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return errKeyRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}

// ObjectExists reports whether the key is stored
func (s *MemoryObjectStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errKeyRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

// ContentType returns the content type an object was uploaded with
func (s *MemoryObjectStorage) ContentType(storageKey string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[storageKey].contentType
}
