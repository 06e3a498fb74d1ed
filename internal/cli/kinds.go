/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"github.com/suparena/entityview"
	"github.com/suparena/entityview/datastore/testmodels"
	"github.com/suparena/entityview/query"
)

type Doc = testmodels.Doc

// kind is one concrete document type the CLI can address.
type kind struct {
	name    string
	view    func(entityview.Registry) (entityview.View[Doc], error)
	managed func(entityview.Registry) (entityview.ManagedView[Doc], error)
	// fill sets the type specific field of a created document.
	fill func(d Doc, extra string)
}

var kinds = []kind{
	{
		name:    "text",
		view:    entityview.Bind[Doc, *testmodels.TextDoc],
		managed: entityview.BindManaged[Doc, *testmodels.TextDoc],
		fill:    func(d Doc, extra string) { d.(*testmodels.TextDoc).Text = extra },
	},
	{
		name:    "content",
		view:    entityview.Bind[Doc, *testmodels.ContentDoc],
		managed: entityview.BindManaged[Doc, *testmodels.ContentDoc],
		fill:    func(d Doc, extra string) { d.(*testmodels.ContentDoc).MediaType = extra },
	},
}

func kindNames() []string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.name
	}
	return names
}

// selectKinds resolves a --kind flag; "all" selects every kind.
func selectKinds(name string) ([]kind, error) {
	if name == "" || name == "all" {
		return kinds, nil
	}
	for _, k := range kinds {
		if k.name == name {
			return []kind{k}, nil
		}
	}
	return nil, fmt.Errorf("unknown kind %q, want one of %s", name, strings.Join(append(kindNames(), "all"), ", "))
}

func kindOf(d Doc) string {
	switch d.(type) {
	case *testmodels.TextDoc:
		return "text"
	case *testmodels.ContentDoc:
		return "content"
	default:
		return fmt.Sprintf("%T", d)
	}
}

func idOf(d Doc) uuid.UUID {
	switch v := d.(type) {
	case *testmodels.TextDoc:
		return v.ID
	case *testmodels.ContentDoc:
		return v.ID
	default:
		return uuid.Nil
	}
}

// newDoc creates an unsaved document of kind k.
func newDoc(view entityview.ManagedView[Doc], k kind, number string, date strfmt.Date, extra string) (Doc, error) {
	d, err := view.Create()
	if err != nil {
		return nil, err
	}
	switch v := d.(type) {
	case *testmodels.TextDoc:
		v.ID, v.Number, v.Date = uuid.New(), number, date
	case *testmodels.ContentDoc:
		v.ID, v.Number, v.Date = uuid.New(), number, date
	}
	if extra != "" {
		k.fill(d, extra)
	}
	return d, nil
}

func parseDate(s string) (strfmt.Date, error) {
	if s == "" {
		return strfmt.Date(time.Now().UTC().Truncate(24 * time.Hour)), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return strfmt.Date{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return strfmt.Date(t), nil
}

type sample struct {
	kind   string
	number string
	date   string
	extra  string
}

var samples = []sample{
	{kind: "text", number: "765490", date: "2024-05-01", extra: "Quarterly invoice"},
	{kind: "text", number: "120034", date: "2024-02-12", extra: "Delivery note"},
	{kind: "content", number: "78906", date: "2024-06-01", extra: "application/pdf"},
	{kind: "content", number: "55120", date: "2023-11-20", extra: "image/png"},
}

// seedSamples adds the sample documents whose number is not stored yet and
// saves them. It returns the number added.
func seedSamples(ctx context.Context, reg interface {
	entityview.Registry
	SaveChanges(context.Context) (int, error)
}) (int, error) {
	added := 0
	for _, k := range kinds {
		view, err := k.managed(reg)
		if err != nil {
			return added, err
		}
		for _, s := range samples {
			if s.kind != k.name {
				continue
			}
			n, err := view.Where(query.Field("Number").Eq(s.number)).Count(ctx)
			if err != nil {
				return added, err
			}
			if n > 0 {
				continue
			}
			date, err := parseDate(s.date)
			if err != nil {
				return added, err
			}
			d, err := newDoc(view, k, s.number, date, s.extra)
			if err != nil {
				return added, err
			}
			if _, err := view.Add(d); err != nil {
				return added, err
			}
			added++
		}
	}
	if _, err := reg.SaveChanges(ctx); err != nil {
		return added, err
	}
	return added, nil
}

// sortDocs orders docs by number or date, ties broken by kind.
func sortDocs(docs []Doc, by string) {
	slices.SortStableFunc(docs, func(a, b Doc) int {
		var c int
		if by == "date" {
			c = time.Time(a.GetDate()).Compare(time.Time(b.GetDate()))
		} else {
			c = strings.Compare(a.GetNumber(), b.GetNumber())
		}
		if c != 0 {
			return c
		}
		return strings.Compare(kindOf(a), kindOf(b))
	})
}
