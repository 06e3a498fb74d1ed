/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package session

import (
	"context"
	"iter"
	"log/slog"
	"reflect"
	"sync"

	"github.com/suparena/entityview"
	"github.com/suparena/entityview/datastore"
	"github.com/suparena/entityview/errors"
	"github.com/suparena/entityview/query"
)

// entitySet is the untyped face of set[T].
type entitySet interface {
	entityview.Collection
	query.Provider

	source() query.Source
	flush(ctx context.Context) (int, error)
	hasChanges() bool
	entries() []Entry
	stateOf(v any) (EntityState, bool)
	discard()
}

// Session is a unit of work over one data store per concrete type. It
// implements entityview.Registry.
//
// A Session tracks the entities it hands out or is given and writes their
// changes on SaveChanges, or before each query in FlushAuto mode.
type Session struct {
	mu     sync.RWMutex
	sets   map[reflect.Type]entitySet
	order  []entitySet
	mode   FlushMode
	logger *slog.Logger
}

var _ entityview.Registry = (*Session)(nil)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger for flush diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithFlushMode sets when pending changes are written. The default is
// FlushAuto.
func WithFlushMode(mode FlushMode) Option {
	return func(s *Session) { s.mode = mode }
}

// New creates an empty Session.
func New(opts ...Option) *Session {
	s := &Session{
		sets:   make(map[reflect.Type]entitySet),
		mode:   FlushAuto,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds the data store for T. The session's concrete element type
// for T is *T.
func Register[T any](s *Session, ds datastore.DataStore[T]) error {
	if ds == nil {
		return errors.NewValidationError("datastore", "must not be nil")
	}
	t := reflect.TypeFor[*T]()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sets[t]; exists {
		return errors.NewAlreadyExistsError("datastore", t.String())
	}
	set := newSet(s, ds)
	s.sets[t] = set
	s.order = append(s.order, set)
	return nil
}

func (s *Session) set(t reflect.Type) (entitySet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[t]
	if !ok {
		return nil, errors.NewNotFoundError("datastore", typeString(t))
	}
	return set, nil
}

func (s *Session) all() []entitySet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entitySet(nil), s.order...)
}

// Queryable returns the deferred query over every record of t.
func (s *Session) Queryable(t reflect.Type) (query.Sequence, error) {
	set, err := s.set(t)
	if err != nil {
		return nil, err
	}
	return set.CreateQuery(set.source()), nil
}

// Collection returns the mutable collection of t.
func (s *Session) Collection(t reflect.Type) (entityview.Collection, error) {
	return s.set(t)
}

// Types lists the registered concrete types in registration order.
func (s *Session) Types() []reflect.Type {
	sets := s.all()
	out := make([]reflect.Type, len(sets))
	for i, set := range sets {
		out[i] = set.ElementType()
	}
	return out
}

// SaveChanges writes every pending change, type by type in registration
// order, and returns the number of records written or deleted. It stops at
// the first store error; changes already written stay written.
func (s *Session) SaveChanges(ctx context.Context) (int, error) {
	total := 0
	for _, set := range s.all() {
		n, err := set.flush(ctx)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *Session) autoFlush(ctx context.Context) error {
	if s.mode != FlushAuto {
		return nil
	}
	_, err := s.SaveChanges(ctx)
	return err
}

// HasChanges reports whether SaveChanges has anything to write.
func (s *Session) HasChanges() bool {
	for _, set := range s.all() {
		if set.hasChanges() {
			return true
		}
	}
	return false
}

// Entries lists every tracked entity.
func (s *Session) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, set := range s.all() {
			for _, e := range set.entries() {
				if !yield(e) {
					return
				}
			}
		}
	}
}

// State returns the tracking state of entity, Detached when untracked.
func (s *Session) State(entity any) EntityState {
	set, err := s.set(reflect.TypeOf(entity))
	if err != nil {
		return Detached
	}
	state, _ := set.stateOf(entity)
	return state
}

// Discard forgets every tracked entity and its pending changes.
func (s *Session) Discard() {
	for _, set := range s.all() {
		set.discard()
	}
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
