/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityview

import (
	"context"
	"fmt"
	"iter"
	"reflect"

	"github.com/suparena/entityview/errors"
	"github.com/suparena/entityview/query"
)

// View is a lazy, composable query whose elements are seen as A.
//
// Composition appends to the native expression and asks the native provider
// for the new query, so the storage collaborator still executes it. Member
// names are passed through untouched and must resolve on the concrete type.
type View[A any] interface {
	query.Sequence

	// Token is the concrete type the view is bound to.
	Token() Token

	// All enumerates the view. A failure is yielded once, after which the
	// sequence stops.
	All(ctx context.Context) iter.Seq2[A, error]
	ToSlice(ctx context.Context) ([]A, error)
	// First returns the first element, or errors.ErrNotFound.
	First(ctx context.Context) (A, error)
	Count(ctx context.Context) (int, error)

	Where(p query.Predicate) View[A]
	OrderBy(member string) View[A]
	OrderByDesc(member string) View[A]
	Skip(n int) View[A]
	Take(n int) View[A]
	Select(members ...string) *Projection
}

type abstractionView[A any] struct {
	*Decorator
	token Token
}

// ViewOf presents seq as a sequence of A without binding through a registry.
// Elements that are not A fail enumeration with errors.ErrNarrowing.
func ViewOf[A any](seq query.Sequence) View[A] {
	return newView[A](Decorate(seq), TokenFor(seq.ElementType()))
}

func newView[A any](d *Decorator, token Token) *abstractionView[A] {
	return &abstractionView[A]{Decorator: d, token: token}
}

// ElementType is A.
func (v *abstractionView[A]) ElementType() reflect.Type { return reflect.TypeFor[A]() }

func (v *abstractionView[A]) Token() Token { return v.token }

func (v *abstractionView[A]) All(ctx context.Context) iter.Seq2[A, error] {
	return func(yield func(A, error) bool) {
		var zero A
		i := 0
		for e, err := range v.Decorator.Enumerate(ctx) {
			if err != nil {
				yield(zero, err)
				return
			}
			a, ok := e.(A)
			if !ok {
				yield(zero, errors.NewNarrowingError(abstractionName[A](), fmt.Sprintf("%T", e), i))
				return
			}
			if !yield(a, nil) {
				return
			}
			i++
		}
	}
}

// Enumerate yields the same elements as All.
func (v *abstractionView[A]) Enumerate(ctx context.Context) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for a, err := range v.All(ctx) {
			if !yield(a, err) {
				return
			}
		}
	}
}

func (v *abstractionView[A]) ToSlice(ctx context.Context) ([]A, error) {
	var out []A
	for a, err := range v.All(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (v *abstractionView[A]) First(ctx context.Context) (A, error) {
	for a, err := range v.Take(1).All(ctx) {
		return a, err
	}
	var zero A
	return zero, errors.NewNotFoundError(abstractionName[A](), v.Expression().String())
}

func (v *abstractionView[A]) Count(ctx context.Context) (int, error) {
	n := 0
	for _, err := range v.All(ctx) {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

func (v *abstractionView[A]) compose(expr query.Expression) View[A] {
	return newView[A](Decorate(v.Provider().CreateQuery(expr)), v.token)
}

func (v *abstractionView[A]) Where(p query.Predicate) View[A] {
	return v.compose(query.Where(v.Expression(), p))
}

func (v *abstractionView[A]) OrderBy(member string) View[A] {
	return v.compose(query.OrderBy(v.Expression(), query.Asc(member)))
}

func (v *abstractionView[A]) OrderByDesc(member string) View[A] {
	return v.compose(query.OrderBy(v.Expression(), query.Desc(member)))
}

func (v *abstractionView[A]) Skip(n int) View[A] {
	return v.compose(query.Skip(v.Expression(), n))
}

func (v *abstractionView[A]) Take(n int) View[A] {
	return v.compose(query.Take(v.Expression(), n))
}

func (v *abstractionView[A]) Select(members ...string) *Projection {
	return &Projection{Decorator: Decorate(v.Provider().CreateQuery(query.Select(v.Expression(), members...)))}
}

// Projection is a query of rows produced by Select.
type Projection struct {
	*Decorator
}

// All enumerates the rows.
func (p *Projection) All(ctx context.Context) iter.Seq2[query.Row, error] {
	return func(yield func(query.Row, error) bool) {
		i := 0
		for e, err := range p.Enumerate(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			row, ok := e.(query.Row)
			if !ok {
				yield(nil, errors.NewNarrowingError("query.Row", fmt.Sprintf("%T", e), i))
				return
			}
			if !yield(row, nil) {
				return
			}
			i++
		}
	}
}

// ToSlice collects the rows.
func (p *Projection) ToSlice(ctx context.Context) ([]query.Row, error) {
	var out []query.Row
	for row, err := range p.All(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func abstractionName[A any]() string {
	return reflect.TypeFor[A]().String()
}
