/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityview

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entityview/errors"
)

func newManaged(t *testing.T, coll *listCollection) ManagedView[shape] {
	t.Helper()
	m, err := BindManaged[shape, *square](newRegistry(newListProvider(), coll))
	require.NoError(t, err)
	return m
}

func TestManagedViewRoutesMutations(t *testing.T) {
	coll := &listCollection{elem: squareType}
	m := newManaged(t, coll)
	sq := &square{Label: "a", Side: 2}

	out, err := m.Add(sq)
	require.NoError(t, err)
	assert.Same(t, sq, out)

	out, err = m.Attach(sq)
	require.NoError(t, err)
	assert.Same(t, sq, out)

	out, err = m.Remove(sq)
	require.NoError(t, err)
	assert.Same(t, sq, out)

	created, err := m.Create()
	require.NoError(t, err)
	assert.IsType(t, &square{}, created)

	assert.Equal(t, []string{"add", "attach", "remove", "create"}, coll.calls)
}

func TestManagedViewRejectsOtherConcreteTypes(t *testing.T) {
	coll := &listCollection{elem: squareType}
	m := newManaged(t, coll)

	ops := map[string]func(shape) (shape, error){
		"add":    m.Add,
		"attach": m.Attach,
		"remove": m.Remove,
	}
	for op, f := range ops {
		t.Run(op, func(t *testing.T) {
			out, err := f(&triangle{Base: 2, Height: 2})
			assert.Nil(t, out)
			assert.True(t, errors.IsTypeMismatch(err))

			var tm *errors.TypeMismatchError
			require.True(t, stderrors.As(err, &tm))
			assert.Equal(t, op, tm.Operation)
			assert.Equal(t, "*entityview.square", tm.Expected)
			assert.Equal(t, "*entityview.triangle", tm.Actual)

			_, err = f(nil)
			assert.True(t, errors.IsTypeMismatch(err))
		})
	}
	assert.Empty(t, coll.calls, "the collection is never reached")
	assert.Empty(t, coll.items)
}

func TestManagedViewPassesCollectionErrorsThrough(t *testing.T) {
	boom := stderrors.New("tracking failed")
	coll := &listCollection{elem: squareType, err: boom}
	m := newManaged(t, coll)

	_, err := m.Add(&square{})
	assert.Same(t, boom, err)
	_, err = m.Create()
	assert.Same(t, boom, err)
}

func TestManagedViewNarrowsResults(t *testing.T) {
	coll := &listCollection{elem: squareType, created: &blob{}}
	m := newManaged(t, coll)

	_, err := m.Create()
	assert.True(t, errors.IsNarrowingError(err))

	var ne *errors.NarrowingError
	require.True(t, stderrors.As(err, &ne))
	assert.Equal(t, -1, ne.Index)
}

func TestManagedViewDerivedViewsAreReadOnly(t *testing.T) {
	m := newManaged(t, &listCollection{elem: squareType})
	_, ok := m.Take(1).(ManagedView[shape])
	assert.False(t, ok)
}
