/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"cmp"
	"fmt"
	"iter"
	"reflect"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/suparena/entityview/errors"
)

// Evaluate runs expr in process over the elements yielded by source, which
// stands for expr's Source. Filters and slices stream; ordering buffers.
// Stores without a query engine of their own, and stores that push part of an
// expression down and evaluate the remainder locally, use it.
func Evaluate(expr Expression, source iter.Seq2[any, error]) iter.Seq2[any, error] {
	if err := Validate(expr); err != nil {
		return Failed[any](err)
	}
	return evaluate(expr, source)
}

func evaluate(expr Expression, source iter.Seq2[any, error]) iter.Seq2[any, error] {
	switch e := expr.(type) {
	case Source:
		return source
	case Filter:
		return filterSeq(evaluate(e.Input, source), e.Predicate)
	case Order:
		return orderSeq(evaluate(e.Input, source), e.Keys)
	case Slice:
		return sliceSeq(evaluate(e.Input, source), e.Skip, e.Take)
	case Project:
		return projectSeq(evaluate(e.Input, source), e.Members)
	default:
		return Failed[any](errors.NewUnsupportedExpressionError("evaluate", fmt.Sprintf("%T", expr)))
	}
}

func filterSeq(in iter.Seq2[any, error], p Predicate) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for v, err := range in {
			if err != nil {
				yield(nil, err)
				return
			}
			ok, err := Match(p, v)
			if err != nil {
				yield(nil, err)
				return
			}
			if ok && !yield(v, nil) {
				return
			}
		}
	}
}

func orderSeq(in iter.Seq2[any, error], keys []SortKey) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		var items []any
		for v, err := range in {
			if err != nil {
				yield(nil, err)
				return
			}
			items = append(items, v)
		}
		if err := SortStable(items, keys); err != nil {
			yield(nil, err)
			return
		}
		for _, v := range items {
			if !yield(v, nil) {
				return
			}
		}
	}
}

// SortStable sorts items by keys, keeping the existing order of ties.
func SortStable(items []any, keys []SortKey) error {
	var sortErr error
	slices.SortStableFunc(items, func(a, b any) int {
		if sortErr != nil {
			return 0
		}
		for _, k := range keys {
			av, err := MemberValue(a, k.Member)
			if err != nil {
				sortErr = err
				return 0
			}
			bv, err := MemberValue(b, k.Member)
			if err != nil {
				sortErr = err
				return 0
			}
			c, err := compareValues(av, bv)
			if err != nil {
				sortErr = fmt.Errorf("order by %s: %w", k.Member, err)
				return 0
			}
			if c != 0 {
				if k.Descending {
					return -c
				}
				return c
			}
		}
		return 0
	})
	return sortErr
}

func sliceSeq(in iter.Seq2[any, error], skip, take int) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		if take == 0 {
			return
		}
		seen, taken := 0, 0
		for v, err := range in {
			if err != nil {
				yield(nil, err)
				return
			}
			if seen < skip {
				seen++
				continue
			}
			if !yield(v, nil) {
				return
			}
			taken++
			if take > 0 && taken >= take {
				return
			}
		}
	}
}

func projectSeq(in iter.Seq2[any, error], members []string) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for v, err := range in {
			if err != nil {
				yield(nil, err)
				return
			}
			row, err := ProjectRow(v, members)
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

// ProjectRow reads members from elem into a Row.
func ProjectRow(elem any, members []string) (Row, error) {
	row := make(Row, len(members))
	for _, name := range members {
		val, err := MemberValue(elem, name)
		if err != nil {
			return nil, err
		}
		row[name] = val
	}
	return row, nil
}

// Match evaluates p against elem.
func Match(p Predicate, elem any) (bool, error) {
	switch pr := p.(type) {
	case Compare:
		got, err := MemberValue(elem, pr.Member)
		if err != nil {
			return false, err
		}
		return compareOp(pr.Op, got, pr.Value)
	case And:
		for _, sub := range pr.Predicates {
			ok, err := Match(sub, elem)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case Or:
		for _, sub := range pr.Predicates {
			ok, err := Match(sub, elem)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case Not:
		ok, err := Match(pr.Predicate, elem)
		return !ok, err
	default:
		return false, errors.NewUnsupportedExpressionError("evaluate", fmt.Sprintf("predicate %T", p))
	}
}

func compareOp(op Op, got, want any) (bool, error) {
	if op.IsStringOp() {
		g, gok := normalize(got).(string)
		w, wok := normalize(want).(string)
		if !gok || !wok {
			return false, errors.NewUnsupportedExpressionError("evaluate", fmt.Sprintf("%s needs string operands, got %T and %T", op, got, want))
		}
		switch op {
		case Contains:
			return strings.Contains(g, w), nil
		case HasPrefix:
			return strings.HasPrefix(g, w), nil
		default:
			return strings.Contains(cases.Fold().String(g), cases.Fold().String(w)), nil
		}
	}

	c, err := compareValues(got, want)
	if err != nil {
		if op == Eq || op == Ne {
			// Incomparable kinds are simply unequal.
			eq := reflect.DeepEqual(got, want)
			return eq == (op == Eq), nil
		}
		return false, err
	}
	switch op {
	case Eq:
		return c == 0, nil
	case Ne:
		return c != 0, nil
	case Lt:
		return c < 0, nil
	case Le:
		return c <= 0, nil
	case Gt:
		return c > 0, nil
	case Ge:
		return c >= 0, nil
	default:
		return false, errors.NewUnsupportedExpressionError("evaluate", "operator "+op.String())
	}
}

var timeType = reflect.TypeFor[time.Time]()

// normalize folds values onto a small set of comparable kinds: nil, string,
// float64, bool and time.Time. Anything else is returned unchanged.
func normalize(x any) any {
	if x == nil {
		return nil
	}
	v := reflect.ValueOf(x)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Type() == timeType {
		return v.Interface().(time.Time)
	}
	// strfmt.Date, strfmt.DateTime and similar named time types
	if v.Kind() == reflect.Struct && v.Type().ConvertibleTo(timeType) {
		return v.Convert(timeType).Interface().(time.Time)
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return v.Interface()
}

var timeLayouts = []string{time.RFC3339Nano, time.DateTime, time.DateOnly}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// compareValues orders a and b. nil sorts before everything else.
func compareValues(a, b any) (int, error) {
	na, nb := normalize(a), normalize(b)
	switch {
	case na == nil && nb == nil:
		return 0, nil
	case na == nil:
		return -1, nil
	case nb == nil:
		return 1, nil
	}

	switch x := na.(type) {
	case string:
		if y, ok := nb.(string); ok {
			return strings.Compare(x, y), nil
		}
		if y, ok := nb.(time.Time); ok {
			if t, ok := parseTime(x); ok {
				return t.Compare(y), nil
			}
		}
	case float64:
		if y, ok := nb.(float64); ok {
			return cmp.Compare(x, y), nil
		}
	case bool:
		if y, ok := nb.(bool); ok {
			switch {
			case x == y:
				return 0, nil
			case !x:
				return -1, nil
			default:
				return 1, nil
			}
		}
	case time.Time:
		if y, ok := nb.(time.Time); ok {
			return x.Compare(y), nil
		}
		if y, ok := nb.(string); ok {
			if t, ok := parseTime(y); ok {
				return x.Compare(t), nil
			}
		}
	}
	return 0, errors.NewUnsupportedExpressionError("evaluate", fmt.Sprintf("cannot compare %T with %T", a, b))
}
