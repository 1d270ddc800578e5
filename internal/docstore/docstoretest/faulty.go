// Package docstoretest provides a Store wrapper that injects backend failures.
package docstoretest

import (
	"context"
	"errors"
	"sync"

	"studentattendance/internal/docstore"
)

// ErrBackend is the injected failure.
var ErrBackend = errors.New("backend unavailable")

// Faulty delegates to an inner store and fails the operations armed with Fail.
type Faulty struct {
	docstore.Store

	mu    sync.Mutex
	fails map[string]bool
}

// NewFaulty wraps inner.
func NewFaulty(inner docstore.Store) *Faulty {
	return &Faulty{Store: inner, fails: map[string]bool{}}
}

// Fail arms failures for op ("get", "query", "add", "create", "update", "delete") on collection.
func (f *Faulty) Fail(op, collection string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails[op+"/"+collection] = true
}

func (f *Faulty) failing(op, collection string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fails[op+"/"+collection]
}

func (f *Faulty) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	if f.failing("get", collection) {
		return docstore.Document{}, ErrBackend
	}
	return f.Store.Get(ctx, collection, id)
}

func (f *Faulty) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	if f.failing("query", collection) {
		return nil, ErrBackend
	}
	return f.Store.Query(ctx, collection, filters...)
}

func (f *Faulty) Add(ctx context.Context, collection string, data docstore.Doc) (string, error) {
	if f.failing("add", collection) {
		return "", ErrBackend
	}
	return f.Store.Add(ctx, collection, data)
}

func (f *Faulty) Create(ctx context.Context, collection, id string, data docstore.Doc) error {
	if f.failing("create", collection) {
		return ErrBackend
	}
	return f.Store.Create(ctx, collection, id, data)
}

func (f *Faulty) Update(ctx context.Context, collection, id string, fields docstore.Doc) error {
	if f.failing("update", collection) {
		return ErrBackend
	}
	return f.Store.Update(ctx, collection, id, fields)
}

func (f *Faulty) Delete(ctx context.Context, collection, id string) error {
	if f.failing("delete", collection) {
		return ErrBackend
	}
	return f.Store.Delete(ctx, collection, id)
}
