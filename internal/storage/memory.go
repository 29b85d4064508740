package storage

import (
	"context"
	"sync"
)

// MemoryObjectStore is an in-process ObjectStore used by tests and local
// development. PutCount and FailPut make failure scenarios reproducible.
type MemoryObjectStore struct {
	mu       sync.Mutex
	objects  map[string]*Object
	PutCount int
	FailPut  error
}

func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{objects: make(map[string]*Object)}
}

func (m *MemoryObjectStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PutCount++
	if m.FailPut != nil {
		return m.FailPut
	}

	buf := make([]byte, len(body))
	copy(buf, body)
	m.objects[key] = &Object{Body: buf, ContentType: contentType}

	return nil
}

func (m *MemoryObjectStore) Get(ctx context.Context, key string) (*Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}

	return obj, nil
}

func (m *MemoryObjectStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)
	return nil
}

func (m *MemoryObjectStore) PublicURL(key string) string {
	return "http://localhost:9000/avatars/" + key
}

// Len reports how many distinct keys the store currently holds.
func (m *MemoryObjectStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.objects)
}
