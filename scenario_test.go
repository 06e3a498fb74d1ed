/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityview_test

import (
	"context"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entityview"
	"github.com/suparena/entityview/datastore"
	"github.com/suparena/entityview/datastore/memory"
	"github.com/suparena/entityview/datastore/sqlite"
	"github.com/suparena/entityview/datastore/testmodels"
	"github.com/suparena/entityview/errors"
	"github.com/suparena/entityview/query"
	"github.com/suparena/entityview/session"
)

type Doc = testmodels.Doc

type stores struct {
	texts    datastore.DataStore[testmodels.TextDoc]
	contents datastore.DataStore[testmodels.ContentDoc]
}

type backend struct {
	name string
	open func(t *testing.T) stores
}

var backends = []backend{
	{
		name: "memory",
		open: func(t *testing.T) stores {
			return stores{
				texts:    memory.New[testmodels.TextDoc](),
				contents: memory.New[testmodels.ContentDoc](),
			}
		},
	},
	{
		name: "sqlite",
		open: func(t *testing.T) stores {
			ctx := context.Background()
			db, err := sqlite.Open(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })

			texts, err := sqlite.New[testmodels.TextDoc](ctx, db)
			require.NoError(t, err)
			contents, err := sqlite.New[testmodels.ContentDoc](ctx, db)
			require.NoError(t, err)
			return stores{texts: texts, contents: contents}
		},
	},
}

func date(s string) strfmt.Date {
	d, _ := time.Parse(time.DateOnly, s)
	return strfmt.Date(d)
}

// seeded opens b, stores one TextDoc "765490" and one ContentDoc "78906" and
// returns a session over both.
func seeded(t *testing.T, b backend) (*session.Session, stores) {
	t.Helper()
	ctx := context.Background()
	st := b.open(t)
	require.NoError(t, st.texts.Put(ctx, testmodels.TextDoc{ID: uuid.New(), Number: "765490", Date: date("2024-05-01"), Text: "invoice"}))
	require.NoError(t, st.contents.Put(ctx, testmodels.ContentDoc{ID: uuid.New(), Number: "78906", Date: date("2024-06-01"), MediaType: "application/pdf"}))

	s := session.New()
	require.NoError(t, session.Register(s, st.texts))
	require.NoError(t, session.Register(s, st.contents))
	return s, st
}

func numbers(t *testing.T, docs []Doc) []string {
	t.Helper()
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.GetNumber()
	}
	slices.Sort(out)
	return out
}

func TestFilterThroughAbstraction(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s, _ := seeded(t, b)

			view, err := entityview.Bind[Doc, *testmodels.TextDoc](s)
			require.NoError(t, err)

			docs, err := view.Where(query.Field("Number").Contains("9")).ToSlice(context.Background())
			require.NoError(t, err)
			require.Len(t, docs, 1)
			assert.Equal(t, "765490", docs[0].GetNumber())
			assert.IsType(t, &testmodels.TextDoc{}, docs[0])
		})
	}
}

func TestRetypingIsLossless(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s, st := seeded(t, b)
			ctx := context.Background()

			view, err := entityview.Bind[Doc, *testmodels.ContentDoc](s)
			require.NoError(t, err)
			doc, err := view.First(ctx)
			require.NoError(t, err)

			var stored testmodels.ContentDoc
			for v, err := range st.contents.Query(ctx, query.Source{Name: "ContentDoc", Type: reflect.TypeFor[testmodels.ContentDoc]()}) {
				require.NoError(t, err)
				stored = v
			}
			assert.Equal(t, stored.GetNumber(), doc.GetNumber())
			assert.Equal(t, stored.GetDate().String(), doc.GetDate().String())
			assert.Equal(t, &stored, doc.(*testmodels.ContentDoc), "no field is dropped")

			again, err := view.First(ctx)
			require.NoError(t, err)
			assert.Same(t, doc, again, "the session hands out its tracked instance")
		})
	}
}

func TestFilterMatchesNativeQuery(t *testing.T) {
	preds := []query.Predicate{
		query.Field("Number").Contains("9"),
		query.Field("Number").HasPrefix("7"),
		query.Field("Date").Ge(date("2024-05-15")),
		query.AnyOf(query.Field("Number").Eq("78906"), query.Field("Number").Eq("765490")),
		query.Negate(query.Field("Number").Contains("0")),
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s, st := seeded(t, b)
			ctx := context.Background()
			src := query.Source{Name: "ContentDoc", Type: reflect.TypeFor[*testmodels.ContentDoc]()}

			view, err := entityview.Bind[Doc, *testmodels.ContentDoc](s)
			require.NoError(t, err)

			for _, p := range preds {
				docs, err := view.Where(p).ToSlice(ctx)
				require.NoError(t, err, p.String())

				native := []string{}
				for v, err := range st.contents.Query(ctx, query.Where(src, p)) {
					require.NoError(t, err)
					native = append(native, v.Number)
				}
				slices.Sort(native)
				assert.Equal(t, native, numbers(t, docs), p.String())
			}
		})
	}
}

func TestManagedAddIsVisible(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s, st := seeded(t, b)
			ctx := context.Background()

			view, err := entityview.BindManaged[Doc, *testmodels.ContentDoc](s)
			require.NoError(t, err)

			added := &testmodels.ContentDoc{ID: uuid.New(), Number: "11223", Date: date("2024-07-01")}
			out, err := view.Add(added)
			require.NoError(t, err)
			assert.Same(t, added, out)

			docs, err := view.ToSlice(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"11223", "78906"}, numbers(t, docs))

			found, err := view.Where(query.Field("Number").Eq("11223")).First(ctx)
			require.NoError(t, err)
			assert.Same(t, added, found)

			_, err = st.contents.GetOne(ctx, added.ID.String())
			assert.NoError(t, err, "auto flush wrote the record")
		})
	}
}

func TestManagedAddRejectsOtherType(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s, _ := seeded(t, b)
			ctx := context.Background()

			view, err := entityview.BindManaged[Doc, *testmodels.ContentDoc](s)
			require.NoError(t, err)

			_, err = view.Add(&testmodels.ContentDoc{ID: uuid.New(), Number: "11223"})
			require.NoError(t, err)

			wrong := &testmodels.TextDoc{ID: uuid.New(), Number: "99999"}
			_, err = view.Add(wrong)
			assert.True(t, errors.IsTypeMismatch(err))
			_, err = view.Attach(wrong)
			assert.True(t, errors.IsTypeMismatch(err))
			_, err = view.Remove(wrong)
			assert.True(t, errors.IsTypeMismatch(err))

			assert.Equal(t, session.Detached, s.State(wrong))
			pending := 0
			for e := range s.Entries() {
				if e.State == session.Added {
					pending++
					assert.Equal(t, reflect.TypeFor[*testmodels.ContentDoc](), e.Type)
				}
			}
			assert.Equal(t, 1, pending, "only the first add is pending")

			docs, err := view.ToSlice(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"11223", "78906"}, numbers(t, docs))
		})
	}
}

func TestManagedAddKeepsStoredRecord(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s, st := seeded(t, b)
			ctx := context.Background()

			var stored testmodels.ContentDoc
			for v, err := range st.contents.Query(ctx, query.Source{Name: "ContentDoc", Type: reflect.TypeFor[testmodels.ContentDoc]()}) {
				require.NoError(t, err)
				stored = v
			}

			view, err := entityview.BindManaged[Doc, *testmodels.ContentDoc](s)
			require.NoError(t, err)
			dup := &testmodels.ContentDoc{ID: stored.ID, Number: "NEW"}
			_, err = view.Add(dup)
			require.NoError(t, err, "the insert is pending until the next flush")

			_, err = view.ToSlice(ctx)
			assert.True(t, errors.IsAlreadyExists(err))

			_, err = view.Remove(dup)
			require.NoError(t, err)
			docs, err := view.ToSlice(ctx)
			require.NoError(t, err)
			require.Len(t, docs, 1)
			assert.Equal(t, "78906", docs[0].GetNumber())
			assert.Equal(t, "application/pdf", docs[0].(*testmodels.ContentDoc).MediaType)
		})
	}
}

func TestManagedCreateAndRemove(t *testing.T) {
	s, st := seeded(t, backends[0])
	ctx := context.Background()

	view, err := entityview.BindManaged[Doc, *testmodels.TextDoc](s)
	require.NoError(t, err)

	doc, err := view.Create()
	require.NoError(t, err)
	created := doc.(*testmodels.TextDoc)
	assert.Equal(t, session.Detached, s.State(created))

	created.ID = uuid.New()
	created.Number = "400"
	_, err = view.Add(created)
	require.NoError(t, err)

	existing, err := view.Where(query.Field("Number").Eq("765490")).First(ctx)
	require.NoError(t, err)
	_, err = view.Remove(existing)
	require.NoError(t, err)
	assert.Equal(t, session.Deleted, s.State(existing))

	_, err = s.SaveChanges(ctx)
	require.NoError(t, err)

	docs, err := view.ToSlice(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"400"}, numbers(t, docs))
	assert.Equal(t, 1, st.texts.(*memory.DataStore[testmodels.TextDoc]).Count())
}

func TestAttachTracksWithoutInsert(t *testing.T) {
	s, st := seeded(t, backends[0])
	ctx := context.Background()

	view, err := entityview.BindManaged[Doc, *testmodels.TextDoc](s)
	require.NoError(t, err)

	detached := &testmodels.TextDoc{ID: uuid.New(), Number: "500"}
	_, err = view.Attach(detached)
	require.NoError(t, err)
	assert.Equal(t, session.Unchanged, s.State(detached))

	n, err := s.SaveChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, st.texts.(*memory.DataStore[testmodels.TextDoc]).Count())
}

func TestBindFailsBeforeQuerying(t *testing.T) {
	texts := memory.New[testmodels.TextDoc]().WithQueryError(assert.AnError)
	s := session.New()
	require.NoError(t, session.Register(s, texts))

	_, err := entityview.Bind[Doc, *testmodels.ContentDoc](s)
	assert.True(t, errors.IsBindingError(err))
	assert.True(t, errors.IsNotFound(err))

	_, err = entityview.BindManaged[Doc, *testmodels.ContentDoc](s)
	assert.True(t, errors.IsBindingError(err))

	_, err = entityview.Bind[Doc, testmodels.TextDoc](s)
	assert.True(t, errors.IsBindingError(err), "only *TextDoc implements Doc")

	view, err := entityview.Bind[Doc, *testmodels.TextDoc](s)
	require.NoError(t, err, "binding does not touch the store")
	_, err = view.ToSlice(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestMethodMembers(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s, _ := seeded(t, b)

			view, err := entityview.Bind[Doc, *testmodels.TextDoc](s)
			require.NoError(t, err)

			docs, err := view.Where(query.Field("GetNumber").Eq("765490")).ToSlice(context.Background())
			if b.name == "sqlite" {
				// the SQL provider only addresses stored fields
				assert.True(t, errors.IsUnsupportedExpression(err))
				return
			}
			require.NoError(t, err)
			assert.Len(t, docs, 1)
		})
	}
}

func TestProjectionThroughView(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s, _ := seeded(t, b)

			view, err := entityview.Bind[Doc, *testmodels.TextDoc](s)
			require.NoError(t, err)

			rows, err := view.Select("Number", "Text").ToSlice(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []query.Row{{"Number": "765490", "Text": "invoice"}}, rows)
		})
	}
}
