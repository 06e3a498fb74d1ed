/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"iter"
	"reflect"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entityview/errors"
)

type note struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Rank    int         `json:"rank"`
	Pinned  bool        `json:"pinned"`
	Created strfmt.Date `json:"created"`
	Secret  string      `json:"-"`
}

func (n *note) Label() string { return n.Title + "#" + n.ID }

func (n note) Upper() int { return n.Rank * 10 }

var noteSource = Source{Name: "note", Type: reflect.TypeFor[*note]()}

func date(s string) strfmt.Date {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return strfmt.Date(t)
}

func notes() []*note {
	return []*note{
		{ID: "a", Title: "Alpha", Rank: 3, Created: date("2024-03-01")},
		{ID: "b", Title: "beta", Rank: 1, Pinned: true, Created: date("2024-01-15")},
		{ID: "c", Title: "Gamma", Rank: 2, Created: date("2024-02-10")},
		{ID: "d", Title: "delta", Rank: 2, Pinned: true, Created: date("2023-12-31")},
	}
}

func seqOf[T any](items []T) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for _, it := range items {
			if !yield(it, nil) {
				return
			}
		}
	}
}

func collect(t *testing.T, seq iter.Seq2[any, error]) []any {
	t.Helper()
	var out []any
	for v, err := range seq {
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func ids(items []any) []string {
	out := make([]string, len(items))
	for i, v := range items {
		out[i] = v.(*note).ID
	}
	return out
}

func TestEvaluateFilter(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
		want []string
	}{
		{"eq int", Field("Rank").Eq(2), []string{"c", "d"}},
		{"ne", Field("Rank").Ne(2), []string{"a", "b"}},
		{"lt", Field("Rank").Lt(2), []string{"b"}},
		{"ge", Field("Rank").Ge(2), []string{"a", "c", "d"}},
		{"json name", Field("rank").Gt(2), []string{"a"}},
		{"bool", Field("Pinned").Eq(true), []string{"b", "d"}},
		{"contains", Field("Title").Contains("eta"), []string{"b"}},
		{"has prefix", Field("Title").HasPrefix("G"), []string{"c"}},
		{"contains fold", Field("Title").ContainsFold("ALP"), []string{"a"}},
		{"date against string", Field("Created").Lt("2024-01-31"), []string{"b", "d"}},
		{"date against date", Field("Created").Eq(date("2024-02-10")), []string{"c"}},
		{"and", AllOf(Field("Pinned").Eq(true), Field("Rank").Eq(2)), []string{"d"}},
		{"or", AnyOf(Field("ID").Eq("a"), Field("ID").Eq("c")), []string{"a", "c"}},
		{"not", Negate(Field("Pinned").Eq(true)), []string{"a", "c"}},
		{"empty and", AllOf(), []string{"a", "b", "c", "d"}},
		{"empty or", AnyOf(), nil},
		{"pointer method", Field("Label").Eq("beta#b"), []string{"b"}},
		{"value method", Field("Upper").Eq(30), []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(t, Evaluate(Where(noteSource, tt.pred), seqOf(notes())))
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestEvaluateOrderIsStable(t *testing.T) {
	expr := OrderBy(noteSource, Asc("Rank"))
	assert.Equal(t, []string{"b", "c", "d", "a"}, ids(collect(t, Evaluate(expr, seqOf(notes())))))

	expr = OrderBy(noteSource, Desc("Created"))
	assert.Equal(t, []string{"a", "c", "b", "d"}, ids(collect(t, Evaluate(expr, seqOf(notes())))))

	// A later order wins; the earlier one breaks ties.
	expr = OrderBy(OrderBy(noteSource, Desc("ID")), Asc("Rank"))
	assert.Equal(t, []string{"b", "d", "c", "a"}, ids(collect(t, Evaluate(expr, seqOf(notes())))))
}

func TestEvaluateSlice(t *testing.T) {
	ordered := OrderBy(noteSource, Asc("ID"))

	assert.Equal(t, []string{"b", "c"}, ids(collect(t, Evaluate(Take(Skip(ordered, 1), 2), seqOf(notes())))))
	assert.Equal(t, []string{"c", "d"}, ids(collect(t, Evaluate(Skip(ordered, 2), seqOf(notes())))))
	assert.Empty(t, collect(t, Evaluate(Take(ordered, 0), seqOf(notes()))))
	assert.Empty(t, collect(t, Evaluate(Take(ordered, -1), seqOf(notes()))))
	assert.Equal(t, Slice{Input: ordered, Take: 0}, Take(ordered, -5))
	assert.Empty(t, collect(t, Evaluate(Skip(ordered, 10), seqOf(notes()))))
}

func TestEvaluateTakeStopsPulling(t *testing.T) {
	pulled := 0
	source := func(yield func(any, error) bool) {
		for _, n := range notes() {
			pulled++
			if !yield(n, nil) {
				return
			}
		}
	}

	got := collect(t, Evaluate(Take(noteSource, 2), source))
	assert.Len(t, got, 2)
	assert.Equal(t, 2, pulled)
}

func TestEvaluateProject(t *testing.T) {
	expr := Select(Where(noteSource, Field("Pinned").Eq(true)), "ID", "title")

	got := collect(t, Evaluate(expr, seqOf(notes())))
	require.Len(t, got, 2)
	assert.Equal(t, Row{"ID": "b", "title": "beta"}, got[0])
	assert.Equal(t, Row{"ID": "d", "title": "delta"}, got[1])
	assert.Equal(t, RowType, ElementTypeOf(expr))
}

func TestEvaluateErrors(t *testing.T) {
	t.Run("unknown member", func(t *testing.T) {
		var errs []error
		for _, err := range Evaluate(Where(noteSource, Field("Missing").Eq(1)), seqOf(notes())) {
			errs = append(errs, err)
		}
		require.Len(t, errs, 1)
		assert.True(t, errors.IsUnknownMember(errs[0]))
	})

	t.Run("hidden field", func(t *testing.T) {
		_, err := ResolveField(reflect.TypeFor[*note](), "Secret")
		assert.True(t, errors.IsUnsupportedExpression(err))
	})

	t.Run("source error passes through", func(t *testing.T) {
		boom := errors.NewNotFoundError("note", "x")
		var got error
		for _, err := range Evaluate(noteSource, Failed[any](boom)) {
			got = err
		}
		assert.Same(t, boom, got)
	})

	t.Run("incomparable values", func(t *testing.T) {
		mixed := []any{&note{ID: "a"}, &note{ID: "b"}}
		expr := Where(noteSource, Field("Title").Lt(3))
		var got error
		for _, err := range Evaluate(expr, seqOf(mixed)) {
			got = err
		}
		assert.True(t, errors.IsUnsupportedExpression(got))
	})

	t.Run("invalid expression fails before pulling", func(t *testing.T) {
		pulled := false
		source := func(yield func(any, error) bool) { pulled = true }
		var got error
		for _, err := range Evaluate(Skip(noteSource, -1), source) {
			got = err
		}
		assert.True(t, errors.IsValidationError(got))
		assert.False(t, pulled)
	})
}

func TestResolveMember(t *testing.T) {
	typ := reflect.TypeFor[*note]()

	m, err := ResolveMember(typ, "title")
	require.NoError(t, err)
	assert.True(t, m.IsField())
	assert.Equal(t, "title", m.JSONName)

	m, err = ResolveMember(typ, "Label")
	require.NoError(t, err)
	assert.False(t, m.IsField())

	// Pointer-receiver methods are readable from values too.
	v, err := m.Get(note{ID: "z", Title: "Zeta"})
	require.NoError(t, err)
	assert.Equal(t, "Zeta#z", v)

	// Nil elements read as nil.
	v, err = m.Get((*note)(nil))
	require.NoError(t, err)
	assert.Nil(t, v)

	type labeler interface{ Label() string }
	m, err = ResolveMember(reflect.TypeFor[labeler](), "Label")
	require.NoError(t, err)
	v, err = m.Get(&note{ID: "1", Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x#1", v)
}
