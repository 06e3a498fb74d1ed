/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityview

import (
	"context"
	"iter"
	"reflect"

	"github.com/suparena/entityview/errors"
	"github.com/suparena/entityview/query"
)

type shape interface {
	Area() int
}

type square struct {
	Label string `json:"label"`
	Side  int    `json:"side"`
}

func (s *square) Area() int { return s.Side * s.Side }

type triangle struct {
	Base, Height int
}

func (t *triangle) Area() int { return t.Base * t.Height / 2 }

// blob implements nothing.
type blob struct{}

var squareType = reflect.TypeFor[*square]()

// listProvider evaluates expressions over a fixed list of elements and counts
// how often it runs.
type listProvider struct {
	name  string
	elem  reflect.Type
	items []any
	err   error
	runs  int
}

func newListProvider(items ...any) *listProvider {
	return &listProvider{name: "Square", elem: squareType, items: items}
}

func (p *listProvider) CreateQuery(expr query.Expression) query.Sequence {
	return query.NewQuery(p, expr)
}

func (p *listProvider) Execute(ctx context.Context, expr query.Expression) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		p.runs++
		if p.err != nil {
			yield(nil, p.err)
			return
		}
		source := func(yield func(any, error) bool) {
			for _, it := range p.items {
				if !yield(it, nil) {
					return
				}
			}
		}
		for v, err := range query.Evaluate(expr, source) {
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

func (p *listProvider) source() query.Expression {
	return query.Source{Name: p.name, Type: p.elem}
}

func (p *listProvider) all() query.Sequence {
	return p.CreateQuery(p.source())
}

// listCollection records the mutations routed to it.
type listCollection struct {
	elem    reflect.Type
	calls   []string
	items   []any
	err     error
	created any
}

func (c *listCollection) ElementType() reflect.Type { return c.elem }

func (c *listCollection) record(op string, v any) (any, error) {
	c.calls = append(c.calls, op)
	if c.err != nil {
		return nil, c.err
	}
	if op == "add" {
		c.items = append(c.items, v)
	}
	return v, nil
}

func (c *listCollection) Add(v any) (any, error)    { return c.record("add", v) }
func (c *listCollection) Attach(v any) (any, error) { return c.record("attach", v) }
func (c *listCollection) Remove(v any) (any, error) { return c.record("remove", v) }

func (c *listCollection) Create() (any, error) {
	c.calls = append(c.calls, "create")
	if c.err != nil {
		return nil, c.err
	}
	if c.created != nil {
		return c.created, nil
	}
	return reflect.New(c.elem.Elem()).Interface(), nil
}

// mapRegistry serves fixed sequences and collections by type.
type mapRegistry struct {
	seqs  map[reflect.Type]query.Sequence
	colls map[reflect.Type]Collection
}

func (r *mapRegistry) Queryable(t reflect.Type) (query.Sequence, error) {
	seq, ok := r.seqs[t]
	if !ok {
		return nil, errors.NewNotFoundError("datastore", t.String())
	}
	return seq, nil
}

func (r *mapRegistry) Collection(t reflect.Type) (Collection, error) {
	coll, ok := r.colls[t]
	if !ok {
		return nil, errors.NewNotFoundError("datastore", t.String())
	}
	return coll, nil
}
