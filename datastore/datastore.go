/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"fmt"
	"iter"
	"reflect"
	"regexp"
	"strings"

	"github.com/suparena/entityview/errors"
	"github.com/suparena/entityview/query"
	"github.com/suparena/entityview/registry"
)

// DataStore persists the records of one concrete type T.
//
// Query and Rows take an expression rooted at a query.Source whose Type is T
// or *T. Query rejects expressions ending in a Select; Rows requires one.
type DataStore[T any] interface {
	GetOne(ctx context.Context, key string) (*T, error)

	Put(ctx context.Context, entity T) error

	Delete(ctx context.Context, key string) error

	Key(entity T) (string, error)

	Query(ctx context.Context, expr query.Expression) iter.Seq2[T, error]

	Rows(ctx context.Context, expr query.Expression) iter.Seq2[query.Row, error]
}

// Keyed lets a record name its own key.
type Keyed interface {
	EntityKey() string
}

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// KeyOf extracts the key of entity. In order it uses EntityKey, the first
// macro of the PK template in the registered index map, and finally an ID
// member.
func KeyOf(entity any) (string, error) {
	if entity == nil {
		return "", errors.NewValidationError("entity", "must not be nil")
	}
	if k, ok := entity.(Keyed); ok {
		return nonEmpty(k.EntityKey(), entity)
	}

	member := "ID"
	if idx, ok := registry.IndexMapFor(reflect.TypeOf(entity)); ok {
		if m := macroPattern.FindStringSubmatch(idx["PK"]); m != nil {
			member = m[1]
		}
	}
	v, err := query.MemberValue(entity, member)
	if err != nil {
		return "", errors.NewValidationError("key", fmt.Sprintf("unable to extract key from %T: %v", entity, err))
	}
	if v == nil {
		return nonEmpty("", entity)
	}
	return nonEmpty(fmt.Sprint(v), entity)
}

func nonEmpty(key string, entity any) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.NewValidationError("key", fmt.Sprintf("empty key on %T", entity))
	}
	return key, nil
}

// SplitProject separates a trailing Select from expr. Stores that run the
// rest of the expression natively project decoded records themselves.
func SplitProject(expr query.Expression) (query.Expression, []string) {
	if p, ok := expr.(query.Project); ok {
		return p.Input, p.Members
	}
	return expr, nil
}

// ProjectRows maps each record of in onto a Row holding members.
func ProjectRows[T any](in iter.Seq2[T, error], members []string) iter.Seq2[query.Row, error] {
	return func(yield func(query.Row, error) bool) {
		for v, err := range in {
			if err != nil {
				yield(nil, err)
				return
			}
			row, err := query.ProjectRow(&v, members)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// CheckQuery validates expr for Query (wantRows false) or Rows (wantRows
// true) on a store of T.
func CheckQuery[T any](expr query.Expression, wantRows bool) error {
	if err := query.Validate(expr); err != nil {
		return err
	}
	src, _ := query.SourceOf(expr)
	want := reflect.TypeFor[T]()
	if src.Type != want && src.Type != reflect.PointerTo(want) {
		return errors.NewTypeMismatchError("query", want.String(), src.Type.String())
	}
	switch {
	case wantRows && !query.Projects(expr):
		return errors.NewValidationError("expression", "Rows needs an expression ending in Select")
	case !wantRows && query.Projects(expr):
		return errors.NewValidationError("expression", "use Rows for expressions ending in Select")
	}
	return nil
}
