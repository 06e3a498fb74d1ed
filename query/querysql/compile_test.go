/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package querysql

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entityview/errors"
	"github.com/suparena/entityview/query"
)

type record struct {
	Key    string      `json:"key"`
	Number string      `json:"number"`
	Rank   int         `json:"rank"`
	Done   bool        `json:"done"`
	Day    strfmt.Date `json:"day"`
	Note   string      `json:"note-text"`
}

func (r *record) Label() string { return r.Key + ":" + r.Number }

var src = query.Source{Name: "records", Type: reflect.TypeFor[*record]()}

func day(s string) strfmt.Date {
	t, _ := time.Parse(time.DateOnly, s)
	return strfmt.Date(t)
}

func render(p Plan) []byte {
	var b strings.Builder
	b.WriteString(p.SQL)
	b.WriteString("\n")
	for _, a := range p.Args {
		fmt.Fprintf(&b, "%T %v\n", a, a)
	}
	if len(p.Project) > 0 {
		fmt.Fprintf(&b, "project: %s\n", strings.Join(p.Project, ", "))
	}
	return []byte(b.String())
}

func TestCompile_Golden(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))

	tests := []struct {
		name string
		expr query.Expression
	}{
		{"source", src},
		{"filter_contains", query.Where(src, query.Field("Number").Contains("9"))},
		{"filter_compound", query.Where(src, query.AllOf(
			query.Field("Rank").Ge(2),
			query.AnyOf(query.Field("Done").Eq(true), query.Negate(query.Field("Number").HasPrefix("1"))),
		))},
		{"order_page", query.Take(query.Skip(query.OrderBy(query.Where(src, query.Field("Day").Lt(day("2024-02-01"))), query.Desc("Day")), 1), 2)},
		{"filter_after_take", query.Where(query.Take(query.OrderBy(src, query.Asc("Rank")), 3), query.Field("Number").Eq("7"))},
		{"order_after_take", query.OrderBy(query.Take(query.OrderBy(src, query.Asc("Rank")), 2), query.Desc("Number"))},
		{"nested_slices", query.Take(query.Skip(query.Take(src, 5), 2), 10)},
		{"select", query.Select(query.Where(src, query.Field("Done").Eq(false)), "Key", "Label")},
		{"null", query.Where(src, query.Field("number").Eq(nil))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Compile("records", tt.expr)
			require.NoError(t, err)
			g.Assert(t, tt.name, render(plan))
		})
	}
}

func TestCompile_ValuesNeverInterpolated(t *testing.T) {
	plan, err := Compile("records", query.Where(src, query.Field("Number").Eq("x'; DROP TABLE records; --")))
	require.NoError(t, err)
	assert.NotContains(t, plan.SQL, "DROP")
	assert.Equal(t, []any{"x'; DROP TABLE records; --"}, plan.Args)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		table string
		expr  query.Expression
		check func(error) bool
	}{
		{"bad table", "records; --", src, errors.IsValidationError},
		{"invalid expression", "records", query.Skip(src, -1), errors.IsValidationError},
		{"unknown member", "records", query.Where(src, query.Field("Missing").Eq(1)), errors.IsUnknownMember},
		{"method member", "records", query.Where(src, query.Field("Label").Eq("a")), errors.IsUnsupportedExpression},
		{"unsafe json name", "records", query.OrderBy(src, query.Asc("Note")), errors.IsUnsupportedExpression},
		{"unknown projected member", "records", query.Select(src, "Missing"), errors.IsUnknownMember},
		{"ordered null", "records", query.Where(src, query.Field("Rank").Lt(nil)), errors.IsUnsupportedExpression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.table, tt.expr)
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}
}

func TestParam(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{"a", "a"},
		{7, int64(7)},
		{uint8(3), int64(3)},
		{2.5, 2.5},
		{true, 1},
		{false, 0},
		{day("2024-01-15"), "2024-01-15"},
		{(*int)(nil), nil},
	}
	for _, tt := range tests {
		got, err := Param(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "Param(%#v)", tt.in)
	}
}
