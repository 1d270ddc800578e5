package docstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store for development and tests.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]Doc
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]Doc)}
}

func (m *Memory) table(collection string) map[string]Doc {
	t, ok := m.collections[collection]
	if !ok {
		t = make(map[string]Doc)
		m.collections[collection] = t
	}
	return t
}

// Get returns a copy of the document.
func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Data: data.clone()}, nil
}

// Query returns matching documents ordered by id.
func (m *Memory) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if emptyIn(filters) {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Document
	for id, data := range m.collections[collection] {
		if matches(id, data, filters) {
			out = append(out, Document{ID: id, Data: data.clone()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Add stores data under a new uuid.
func (m *Memory) Add(ctx context.Context, collection string, data Doc) (string, error) {
	id := uuid.NewString()
	if err := m.Create(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// Create stores data under id unless it already exists.
func (m *Memory) Create(ctx context.Context, collection, id string, data Doc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(collection)
	if _, ok := t[id]; ok {
		return ErrConflict
	}
	t[id] = data.clone()
	return nil
}

// Update merges fields into an existing document.
func (m *Memory) Update(ctx context.Context, collection, id string, fields Doc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		data[k] = v
	}
	return nil
}

// Delete removes a document.
func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(m.collections[collection], id)
	return nil
}

// Close is a no-op.
func (m *Memory) Close(context.Context) error { return nil }
