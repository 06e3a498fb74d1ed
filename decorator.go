/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityview

import (
	"context"
	"iter"
	"reflect"

	"github.com/suparena/entityview/query"
)

// Decorator wraps a query.Sequence and forwards every call to it unchanged.
// It is the base the views build on.
type Decorator struct {
	inner query.Sequence
}

var _ query.Sequence = (*Decorator)(nil)

// Decorate wraps seq.
func Decorate(seq query.Sequence) *Decorator {
	return &Decorator{inner: seq}
}

// ElementType returns the wrapped sequence's native element type.
func (d *Decorator) ElementType() reflect.Type { return d.inner.ElementType() }

// Expression returns the wrapped sequence's expression as is.
func (d *Decorator) Expression() query.Expression { return d.inner.Expression() }

// Provider returns the wrapped sequence's provider as is.
func (d *Decorator) Provider() query.Provider { return d.inner.Provider() }

// Enumerate runs the wrapped sequence.
func (d *Decorator) Enumerate(ctx context.Context) iter.Seq2[any, error] {
	return d.inner.Enumerate(ctx)
}

// Unwrap returns the wrapped sequence.
func (d *Decorator) Unwrap() query.Sequence { return d.inner }

func (d *Decorator) String() string { return d.inner.Expression().String() }
