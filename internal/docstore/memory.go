package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore is the embedded ephemeral store. It backs guest carts the
// way browser local storage backs them in a client rendition, behind the
// same interface as the durable store so merge logic stays
// storage-agnostic. Documents survive only for the process lifetime.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]json.RawMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: map[string]map[string]json.RawMessage{}}
}

func (s *MemoryStore) Get(_ context.Context, collection string, id string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make(json.RawMessage, len(doc))
	copy(out, doc)
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, collection string, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed marshaling document with error=%w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collections[collection] == nil {
		s.collections[collection] = map[string]json.RawMessage{}
	}
	s.collections[collection][id] = raw
	return nil
}

func (s *MemoryStore) Update(
	_ context.Context,
	collection string,
	id string,
	fields map[string]any,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed unmarshaling document with error=%w", err)
	}
	for k, v := range fields {
		doc[k] = v
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed marshaling document with error=%w", err)
	}
	s.collections[collection][id] = merged
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, collection string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

func (s *MemoryStore) All(_ context.Context, collection string) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]json.RawMessage, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		out := make(json.RawMessage, len(doc))
		copy(out, doc)
		docs = append(docs, out)
	}
	return docs, nil
}
