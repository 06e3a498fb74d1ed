/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityview

import (
	"reflect"

	"github.com/suparena/entityview/errors"
	"github.com/suparena/entityview/query"
)

// Registry is the storage collaborator views bind to, typically a
// session.Session.
type Registry interface {
	// Queryable returns the deferred query over every stored record of the
	// concrete type t.
	Queryable(t reflect.Type) (query.Sequence, error)
	// Collection returns the mutable collection of t.
	Collection(t reflect.Type) (Collection, error)
}

// Collection is the untyped mutation surface of one concrete type. Pending
// changes are committed by the collaborator, never by views.
type Collection interface {
	ElementType() reflect.Type
	Add(entity any) (any, error)
	Attach(entity any) (any, error)
	Create() (any, error)
	Remove(entity any) (any, error)
}

// BindView binds a view of A over the records of the concrete type named by
// token. With wantMutation the result also implements ManagedView[A].
//
// Every failure is an errors.BindingError raised here, before any query
// runs: the concrete type does not implement A, or reg cannot serve it.
func BindView[A any](reg Registry, token Token, wantMutation bool) (View[A], error) {
	abstraction := abstractionName[A]()
	if token.IsZero() {
		return nil, errors.NewBindingError(abstraction, token.String(), "no concrete type", nil)
	}
	if reg == nil {
		return nil, errors.NewBindingError(abstraction, token.String(), "no registry", nil)
	}
	if !token.Type().AssignableTo(reflect.TypeFor[A]()) {
		return nil, errors.NewBindingError(abstraction, token.String(), "concrete type does not implement the abstraction", nil)
	}

	seq, err := reg.Queryable(token.Type())
	if err != nil {
		return nil, errors.NewBindingError(abstraction, token.String(), "", err)
	}
	if seq == nil || seq.ElementType() != token.Type() {
		return nil, errors.NewBindingError(abstraction, token.String(), "registry cannot view its rows as the concrete type", nil)
	}
	view := newView[A](Decorate(seq), token)
	if !wantMutation {
		return view, nil
	}

	coll, err := reg.Collection(token.Type())
	if err != nil {
		return nil, errors.NewBindingError(abstraction, token.String(), "", err)
	}
	if coll == nil || coll.ElementType() != token.Type() {
		return nil, errors.NewBindingError(abstraction, token.String(), "registry has no collection of the concrete type", nil)
	}
	return &managedView[A]{abstractionView: view, coll: coll}, nil
}

// Bind binds a read-only view of A over the concrete type C.
func Bind[A, C any](reg Registry) (View[A], error) {
	return BindView[A](reg, TypeOf[C](), false)
}

// BindManaged binds a mutable view of A over the concrete type C.
func BindManaged[A, C any](reg Registry) (ManagedView[A], error) {
	v, err := BindView[A](reg, TypeOf[C](), true)
	if err != nil {
		return nil, err
	}
	return v.(ManagedView[A]), nil
}
