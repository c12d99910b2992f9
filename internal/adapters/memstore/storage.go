// Package memstore provides an in-process storage backend. It is used for
// single-instance deployments, development, and tests.
package memstore

import (
	"context"
	"sync"

	"github.com/evalquiz/quiz-portal/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.StorageBackend = (*Backend)(nil)
	_ ports.StorageArea    = (*Area)(nil)
	_ ports.AtomicWriter   = (*Area)(nil)
)

// Backend keeps every origin's entries in memory behind a single lock.
type Backend struct {
	mu    sync.RWMutex
	items map[string]map[string]string
}

// NewBackend creates an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{items: make(map[string]map[string]string)}
}

// Area returns the storage area for origin.
//
//nolint:ireturn // callers depend on the port, not the concrete area.
func (b *Backend) Area(origin string) ports.StorageArea {
	return &Area{backend: b, origin: origin}
}

// Origins returns the number of origins currently holding entries.
func (b *Backend) Origins() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

// Area is one origin's view of a Backend.
type Area struct {
	backend *Backend
	origin  string
}

func (a *Area) GetItem(_ context.Context, key string) (string, bool, error) {
	if a.origin == "" {
		return "", false, ports.ErrInvalidOrigin
	}
	a.backend.mu.RLock()
	defer a.backend.mu.RUnlock()
	v, ok := a.backend.items[a.origin][key]
	return v, ok, nil
}

func (a *Area) SetItem(ctx context.Context, key, value string) error {
	return a.SetItems(ctx, map[string]string{key: value})
}

// SetItems writes all entries under one lock, so readers see all or none.
func (a *Area) SetItems(_ context.Context, items map[string]string) error {
	if a.origin == "" {
		return ports.ErrInvalidOrigin
	}
	a.backend.mu.Lock()
	defer a.backend.mu.Unlock()
	m, ok := a.backend.items[a.origin]
	if !ok {
		m = make(map[string]string, len(items))
		a.backend.items[a.origin] = m
	}
	for k, v := range items {
		m[k] = v
	}
	return nil
}

func (a *Area) RemoveItem(_ context.Context, keys ...string) error {
	if a.origin == "" {
		return ports.ErrInvalidOrigin
	}
	a.backend.mu.Lock()
	defer a.backend.mu.Unlock()
	m, ok := a.backend.items[a.origin]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(m, k)
	}
	if len(m) == 0 {
		delete(a.backend.items, a.origin)
	}
	return nil
}
