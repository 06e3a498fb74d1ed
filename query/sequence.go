/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"context"
	"iter"
	"reflect"
)

// Row is the element type of projected queries: member name to value.
type Row map[string]any

// RowType is the reflect.Type of Row.
var RowType = reflect.TypeFor[Row]()

// Sequence is a lazily evaluated, composable query.
//
// Nothing executes until Enumerate's sequence is ranged over. Whether a
// Sequence can be enumerated more than once is up to its Provider.
type Sequence interface {
	// ElementType is the type of the values Enumerate yields.
	ElementType() reflect.Type
	// Expression is the deferred query this sequence stands for.
	Expression() Expression
	// Provider executes Expression and builds derived queries from it.
	Provider() Provider
	// Enumerate executes the query. A failure is yielded once as a non-nil
	// error, after which the sequence stops.
	Enumerate(ctx context.Context) iter.Seq2[any, error]
}

// Provider translates expressions into storage operations.
type Provider interface {
	// CreateQuery returns a Sequence for expr without executing anything.
	CreateQuery(expr Expression) Sequence
	// Execute runs expr and yields its elements.
	Execute(ctx context.Context, expr Expression) iter.Seq2[any, error]
}

// Query is a plain Sequence that defers everything to its provider.
// Providers return it from CreateQuery.
type Query struct {
	provider Provider
	expr     Expression
	elemType reflect.Type
}

// NewQuery builds the Sequence for expr executed by p.
func NewQuery(p Provider, expr Expression) *Query {
	return &Query{
		provider: p,
		expr:     expr,
		elemType: ElementTypeOf(expr),
	}
}

func (q *Query) ElementType() reflect.Type { return q.elemType }

func (q *Query) Expression() Expression { return q.expr }

func (q *Query) Provider() Provider { return q.provider }

func (q *Query) Enumerate(ctx context.Context) iter.Seq2[any, error] {
	return q.provider.Execute(ctx, q.expr)
}

func (q *Query) String() string { return q.expr.String() }

// Failed returns a sequence that yields err once.
func Failed[T any](err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}
