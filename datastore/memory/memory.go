/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides a map-backed DataStore for tests, demos and
// short-lived sessions.
package memory

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/suparena/entityview/datastore"
	"github.com/suparena/entityview/errors"
	"github.com/suparena/entityview/query"
)

// DataStore is an in-memory implementation of datastore.DataStore[T].
// Queries see a snapshot of the records taken when enumeration starts, in
// key order, and run through query.Evaluate.
type DataStore[T any] struct {
	mu          sync.RWMutex
	data        map[string]T
	getKeyFunc  func(entity T) string
	putError    error
	deleteError error
	queryError  error
}

// New creates an empty DataStore
func New[T any]() *DataStore[T] {
	return &DataStore[T]{
		data: make(map[string]T),
	}
}

// WithGetKeyFunc sets a custom function to extract keys from entities
func (m *DataStore[T]) WithGetKeyFunc(f func(T) string) *DataStore[T] {
	m.getKeyFunc = f
	return m
}

// WithPutError makes Put operations return an error
func (m *DataStore[T]) WithPutError(err error) *DataStore[T] {
	m.putError = err
	return m
}

// WithDeleteError makes Delete operations return an error
func (m *DataStore[T]) WithDeleteError(err error) *DataStore[T] {
	m.deleteError = err
	return m
}

// WithQueryError makes Query and Rows fail with err
func (m *DataStore[T]) WithQueryError(err error) *DataStore[T] {
	m.queryError = err
	return m
}

// GetOne retrieves an entity by key
func (m *DataStore[T]) GetOne(ctx context.Context, key string) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if entity, exists := m.data[key]; exists {
		return &entity, nil
	}
	return nil, errors.NewNotFoundError(typeName[T](), key)
}

// Put stores an entity, replacing any entity with the same key
func (m *DataStore[T]) Put(ctx context.Context, entity T) error {
	if m.putError != nil {
		return m.putError
	}

	key, err := m.Key(entity)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = entity
	return nil
}

// Delete removes an entity by key
func (m *DataStore[T]) Delete(ctx context.Context, key string) error {
	if m.deleteError != nil {
		return m.deleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.data[key]; !exists {
		return errors.NewNotFoundError(typeName[T](), key)
	}
	delete(m.data, key)
	return nil
}

// Key extracts the key of entity
func (m *DataStore[T]) Key(entity T) (string, error) {
	if m.getKeyFunc != nil {
		if key := m.getKeyFunc(entity); key != "" {
			return key, nil
		}
		return "", errors.NewValidationError("key", "unable to extract key from entity")
	}
	return datastore.KeyOf(&entity)
}

// Query evaluates expr over the stored entities
func (m *DataStore[T]) Query(ctx context.Context, expr query.Expression) iter.Seq2[T, error] {
	if err := datastore.CheckQuery[T](expr, false); err != nil {
		return query.Failed[T](err)
	}
	return func(yield func(T, error) bool) {
		for v, err := range query.Evaluate(expr, m.snapshot(ctx)) {
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(*v.(*T), nil) {
				return
			}
		}
	}
}

// Rows evaluates a projecting expr over the stored entities
func (m *DataStore[T]) Rows(ctx context.Context, expr query.Expression) iter.Seq2[query.Row, error] {
	if err := datastore.CheckQuery[T](expr, true); err != nil {
		return query.Failed[query.Row](err)
	}
	return func(yield func(query.Row, error) bool) {
		for v, err := range query.Evaluate(expr, m.snapshot(ctx)) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(v.(query.Row), nil) {
				return
			}
		}
	}
}

// snapshot yields pointers to copies of the stored entities in key order.
func (m *DataStore[T]) snapshot(ctx context.Context) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		if m.queryError != nil {
			yield(nil, m.queryError)
			return
		}
		m.mu.RLock()
		keys := slices.Sorted(maps.Keys(m.data))
		items := make([]*T, len(keys))
		for i, k := range keys {
			v := m.data[k]
			items[i] = &v
		}
		m.mu.RUnlock()

		for _, item := range items {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Helper methods for testing

// SetData directly sets the internal data map (for testing)
func (m *DataStore[T]) SetData(data map[string]T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = maps.Clone(data)
	if m.data == nil {
		m.data = make(map[string]T)
	}
}

// GetData returns a copy of the internal data map (for testing)
func (m *DataStore[T]) GetData() map[string]T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.data)
}

// Count returns the number of stored entities
func (m *DataStore[T]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Clear removes all data
func (m *DataStore[T]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]T)
}

func typeName[T any]() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}
