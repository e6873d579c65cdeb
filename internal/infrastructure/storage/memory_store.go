package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/erp/production/internal/domain/document"
)

// memoryScheme prefixes locators handed out by MemoryDocumentStore
const memoryScheme = "memory://documents/"

// Ensure MemoryDocumentStore implements document.Store
var _ document.Store = (*MemoryDocumentStore)(nil)

// MemoryObject is a document held in memory
type MemoryObject struct {
	Data        []byte
	ContentType string
}

// MemoryDocumentStore keeps documents in process memory.
// It backs local development and tests; content is lost on restart.
type MemoryDocumentStore struct {
	mu      sync.RWMutex
	objects map[string]MemoryObject
}

// NewMemoryDocumentStore creates an empty in-memory store
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{objects: make(map[string]MemoryObject)}
}

// Store keeps a copy of data and returns a memory:// locator
func (s *MemoryDocumentStore) Store(_ context.Context, data []byte, contentType, keyHint string) (string, error) {
	key := strings.TrimLeft(keyHint, "/")
	if key == "" {
		return "", fmt.Errorf("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = MemoryObject{Data: append([]byte(nil), data...), ContentType: contentType}
	return memoryScheme + key, nil
}

// Remove deletes the document; removing an unknown locator is an error
func (s *MemoryDocumentStore) Remove(_ context.Context, locator string) error {
	key, ok := strings.CutPrefix(locator, memoryScheme)
	if !ok {
		return fmt.Errorf("locator %q is not held in memory", locator)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return fmt.Errorf("document %q not found", locator)
	}
	delete(s.objects, key)
	return nil
}

// Get returns the document behind locator
func (s *MemoryDocumentStore) Get(locator string) (MemoryObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[strings.TrimPrefix(locator, memoryScheme)]
	return obj, ok
}

// Len returns the number of stored documents
func (s *MemoryDocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
