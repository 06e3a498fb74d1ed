/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityview

import (
	"fmt"

	"github.com/suparena/entityview/errors"
)

// ManagedView is a View that also routes mutations to the collection of its
// concrete type. Arguments must have exactly the bound concrete type; any
// other type fails with errors.ErrTypeMismatch before the collection is
// touched.
//
// Views derived with Where, OrderBy and the like are read-only.
type ManagedView[A any] interface {
	View[A]

	Add(entity A) (A, error)
	Attach(entity A) (A, error)
	// Create returns a new, empty instance of the concrete type.
	Create() (A, error)
	Remove(entity A) (A, error)
}

type managedView[A any] struct {
	*abstractionView[A]
	coll Collection
}

func (m *managedView[A]) Add(entity A) (A, error) {
	return m.route("add", entity, m.coll.Add)
}

func (m *managedView[A]) Attach(entity A) (A, error) {
	return m.route("attach", entity, m.coll.Attach)
}

func (m *managedView[A]) Remove(entity A) (A, error) {
	return m.route("remove", entity, m.coll.Remove)
}

func (m *managedView[A]) Create() (A, error) {
	out, err := m.coll.Create()
	if err != nil {
		var zero A
		return zero, err
	}
	return narrow[A](out)
}

func (m *managedView[A]) route(op string, entity A, f func(any) (any, error)) (A, error) {
	var zero A
	v := any(entity)
	if !m.token.Matches(v) {
		return zero, errors.NewTypeMismatchError(op, m.token.String(), fmt.Sprintf("%T", v))
	}
	out, err := f(v)
	if err != nil {
		return zero, err
	}
	return narrow[A](out)
}

func narrow[A any](v any) (A, error) {
	a, ok := v.(A)
	if !ok {
		return a, errors.NewNarrowingError(abstractionName[A](), fmt.Sprintf("%T", v), -1)
	}
	return a, nil
}
