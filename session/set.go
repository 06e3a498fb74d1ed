/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"reflect"
	"slices"
	"sync"

	"github.com/suparena/entityview/datastore"
	"github.com/suparena/entityview/errors"
	"github.com/suparena/entityview/query"
	"github.com/suparena/entityview/registry"
)

type entry[T any] struct {
	entity   *T
	key      string
	state    EntityState
	snapshot []byte
}

// set tracks the entities of one concrete type and executes its queries.
type set[T any] struct {
	mu      sync.Mutex
	session *Session
	store   datastore.DataStore[T]
	name    string
	byPtr   map[*T]*entry[T]
	byKey   map[string]*entry[T]
	order   []*entry[T]
}

func newSet[T any](s *Session, ds datastore.DataStore[T]) *set[T] {
	return &set[T]{
		session: s,
		store:   ds,
		name:    registry.NameOf(reflect.TypeFor[T]()),
		byPtr:   make(map[*T]*entry[T]),
		byKey:   make(map[string]*entry[T]),
	}
}

func (s *set[T]) ElementType() reflect.Type { return reflect.TypeFor[*T]() }

func (s *set[T]) source() query.Source {
	return query.Source{Name: s.name, Type: s.ElementType()}
}

func (s *set[T]) entity(op string, v any) (*T, error) {
	e, ok := v.(*T)
	if !ok {
		return nil, errors.NewTypeMismatchError(op, s.ElementType().String(), fmt.Sprintf("%T", v))
	}
	if e == nil {
		return nil, errors.NewValidationError("entity", "must not be nil")
	}
	return e, nil
}

// Add tracks v as new. Adding an entity marked for deletion revives it.
// Saving fails with errors.ErrAlreadyExists when the key is already stored.
func (s *set[T]) Add(v any) (any, error) {
	e, err := s.entity("add", v)
	if err != nil {
		return nil, err
	}
	key, err := s.store.Key(*e)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if en, ok := s.byPtr[e]; ok {
		if en.state == Deleted {
			en.state = Modified
			return e, nil
		}
		return nil, errors.NewAlreadyExistsError(s.name, en.key)
	}
	if _, ok := s.byKey[key]; ok {
		return nil, errors.NewAlreadyExistsError(s.name, key)
	}
	s.track(&entry[T]{entity: e, key: key, state: Added})
	return e, nil
}

// Attach tracks v as already stored and unchanged.
func (s *set[T]) Attach(v any) (any, error) {
	e, err := s.entity("attach", v)
	if err != nil {
		return nil, err
	}
	key, err := s.store.Key(*e)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byPtr[e]; ok {
		return e, nil
	}
	if _, ok := s.byKey[key]; ok {
		return nil, errors.NewAlreadyExistsError(s.name, key)
	}
	snap, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s %q: %w", s.name, key, err)
	}
	s.track(&entry[T]{entity: e, key: key, state: Unchanged, snapshot: snap})
	return e, nil
}

// Create returns a new, untracked T.
func (s *set[T]) Create() (any, error) {
	return new(T), nil
}

// Remove marks v for deletion. An entity that was only added is detached.
func (s *set[T]) Remove(v any) (any, error) {
	e, err := s.entity("remove", v)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if en, ok := s.byPtr[e]; ok {
		if en.state == Added {
			s.untrack(en)
		} else {
			en.state = Deleted
		}
		return e, nil
	}

	key, err := s.store.Key(*e)
	if err != nil {
		return nil, err
	}
	if _, ok := s.byKey[key]; ok {
		return nil, errors.NewAlreadyExistsError(s.name, key)
	}
	s.track(&entry[T]{entity: e, key: key, state: Deleted})
	return e, nil
}

func (s *set[T]) track(en *entry[T]) {
	s.byPtr[en.entity] = en
	s.byKey[en.key] = en
	s.order = append(s.order, en)
}

func (s *set[T]) untrack(en *entry[T]) {
	delete(s.byPtr, en.entity)
	delete(s.byKey, en.key)
	s.order = slices.DeleteFunc(s.order, func(o *entry[T]) bool { return o == en })
}

// detectChanges compares Unchanged and Modified entities with their
// snapshots. Callers hold s.mu.
func (s *set[T]) detectChanges() {
	for _, en := range s.order {
		if en.state != Unchanged && en.state != Modified {
			continue
		}
		cur, err := json.Marshal(en.entity)
		if err != nil || !bytes.Equal(cur, en.snapshot) {
			en.state = Modified
		} else {
			en.state = Unchanged
		}
	}
}

func (s *set[T]) hasChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detectChanges()
	for _, en := range s.order {
		if en.state != Unchanged {
			return true
		}
	}
	return false
}

// flush writes pending changes in tracking order and stops at the first
// store error. It returns the number of records written or deleted.
func (s *set[T]) flush(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detectChanges()

	var n, saved, deleted int
	for _, en := range slices.Clone(s.order) {
		switch en.state {
		case Added, Modified:
			if err := s.save(ctx, en); err != nil {
				return n, err
			}
			saved++
		case Deleted:
			if err := s.store.Delete(ctx, en.key); err != nil && !errors.IsNotFound(err) {
				return n, fmt.Errorf("delete %s %q: %w", s.name, en.key, err)
			}
			s.untrack(en)
			deleted++
		default:
			continue
		}
		n++
	}
	if n > 0 {
		s.session.logger.Debug("session flushed", "type", s.name, "saved", saved, "deleted", deleted)
	}
	return n, nil
}

func (s *set[T]) save(ctx context.Context, en *entry[T]) error {
	key, err := s.store.Key(*en.entity)
	if err != nil {
		return err
	}
	if other, ok := s.byKey[key]; ok && other != en {
		return errors.NewAlreadyExistsError(s.name, key)
	}
	// a new record, or one moved to a new key, must not replace a stored one
	if en.state == Added || key != en.key {
		if err := s.ensureAbsent(ctx, key); err != nil {
			return err
		}
	}
	if err := s.store.Put(ctx, *en.entity); err != nil {
		return fmt.Errorf("save %s %q: %w", s.name, key, err)
	}
	if key != en.key {
		// the key member changed while tracked; drop the record stored under the old key
		if err := s.store.Delete(ctx, en.key); err != nil && !errors.IsNotFound(err) {
			return fmt.Errorf("delete %s %q: %w", s.name, en.key, err)
		}
		delete(s.byKey, en.key)
		en.key = key
		s.byKey[key] = en
	}
	snap, err := json.Marshal(en.entity)
	if err != nil {
		return fmt.Errorf("snapshot %s %q: %w", s.name, key, err)
	}
	en.state = Unchanged
	en.snapshot = snap
	return nil
}

func (s *set[T]) ensureAbsent(ctx context.Context, key string) error {
	_, err := s.store.GetOne(ctx, key)
	switch {
	case err == nil:
		return errors.NewAlreadyExistsError(s.name, key)
	case errors.IsNotFound(err):
		return nil
	default:
		return fmt.Errorf("check %s %q: %w", s.name, key, err)
	}
}

// materialise returns the tracked instance for v's key, tracking a copy of v
// as Unchanged when there is none.
func (s *set[T]) materialise(v T) (*T, error) {
	key, err := s.store.Key(v)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if en, ok := s.byKey[key]; ok {
		return en.entity, nil
	}
	e := new(T)
	*e = v
	snap, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s %q: %w", s.name, key, err)
	}
	s.track(&entry[T]{entity: e, key: key, state: Unchanged, snapshot: snap})
	return e, nil
}

func (s *set[T]) CreateQuery(expr query.Expression) query.Sequence {
	return query.NewQuery(s, expr)
}

// Execute runs expr against the data store. Records come back as tracked *T
// instances, projections as query.Row.
func (s *set[T]) Execute(ctx context.Context, expr query.Expression) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		if err := s.session.autoFlush(ctx); err != nil {
			yield(nil, err)
			return
		}

		if query.Projects(expr) {
			for row, err := range s.store.Rows(ctx, expr) {
				if err != nil {
					yield(nil, err)
					return
				}
				if !yield(row, nil) {
					return
				}
			}
			return
		}

		for v, err := range s.store.Query(ctx, expr) {
			if err != nil {
				yield(nil, err)
				return
			}
			e, err := s.materialise(v)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (s *set[T]) entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detectChanges()
	out := make([]Entry, 0, len(s.order))
	for _, en := range s.order {
		out = append(out, Entry{Type: s.ElementType(), Key: en.key, State: en.state, Entity: en.entity})
	}
	return out
}

func (s *set[T]) stateOf(v any) (EntityState, bool) {
	e, ok := v.(*T)
	if !ok {
		return Detached, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detectChanges()
	if en, ok := s.byPtr[e]; ok {
		return en.state, true
	}
	return Detached, true
}

func (s *set[T]) discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.byPtr)
	clear(s.byKey)
	s.order = nil
}
