/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"
	"reflect"
	"strings"
)

// Expression is a node of a deferred query.
//
// This is a sealed interface; only types in this package implement it, so
// providers can switch over it exhaustively. A query is a chain of operators
// rooted at a Source:
//
//	Source -> Filter -> Order -> Slice -> Project
//
// Each operator holds its Input, and appending an operator never mutates the
// nodes beneath it.
type Expression interface {
	expressionNode()
	fmt.Stringer
}

// Source is the root of every query: all stored records of one concrete type.
type Source struct {
	Name string       // collection name, e.g. "TextDoc"
	Type reflect.Type // element type produced by the collection
}

func (Source) expressionNode() {}

func (s Source) String() string {
	return fmt.Sprintf("Source(%s)", s.Name)
}

// Filter keeps the elements of Input for which Predicate holds.
type Filter struct {
	Input     Expression
	Predicate Predicate
}

func (Filter) expressionNode() {}

func (f Filter) String() string {
	return fmt.Sprintf("%s.Where(%s)", str(f.Input), str(f.Predicate))
}

// SortKey orders by one member.
type SortKey struct {
	Member     string
	Descending bool
}

func (k SortKey) String() string {
	if k.Descending {
		return k.Member + " desc"
	}
	return k.Member
}

// Asc sorts by member in ascending order.
func Asc(member string) SortKey { return SortKey{Member: member} }

// Desc sorts by member in descending order.
func Desc(member string) SortKey { return SortKey{Member: member, Descending: true} }

// Order sorts Input by Keys. A later Order takes precedence over an earlier
// one; the earlier ordering survives only as a tiebreaker (stable sort).
type Order struct {
	Input Expression
	Keys  []SortKey
}

func (Order) expressionNode() {}

func (o Order) String() string {
	keys := make([]string, len(o.Keys))
	for i, k := range o.Keys {
		keys[i] = k.String()
	}
	return fmt.Sprintf("%s.OrderBy(%s)", str(o.Input), strings.Join(keys, ", "))
}

// Slice skips Skip elements of Input and yields at most Take of the rest.
// A negative Take means unbounded.
type Slice struct {
	Input Expression
	Skip  int
	Take  int
}

func (Slice) expressionNode() {}

func (s Slice) String() string {
	out := str(s.Input)
	if s.Skip > 0 {
		out += fmt.Sprintf(".Skip(%d)", s.Skip)
	}
	if s.Take >= 0 {
		out += fmt.Sprintf(".Take(%d)", s.Take)
	}
	return out
}

// Project maps each element of Input to a Row holding the named members.
// Project is terminal: no operator may be applied on top of it.
type Project struct {
	Input   Expression
	Members []string
}

func (Project) expressionNode() {}

func (p Project) String() string {
	return fmt.Sprintf("%s.Select(%s)", str(p.Input), strings.Join(p.Members, ", "))
}

// Where appends a Filter to input.
func Where(input Expression, p Predicate) Expression {
	return Filter{Input: input, Predicate: p}
}

// OrderBy appends an Order to input.
func OrderBy(input Expression, keys ...SortKey) Expression {
	return Order{Input: input, Keys: keys}
}

// Skip appends a Slice that drops the first n elements.
func Skip(input Expression, n int) Expression {
	return Slice{Input: input, Skip: n, Take: -1}
}

// Take appends a Slice that keeps at most n elements. A negative n keeps
// none.
func Take(input Expression, n int) Expression {
	return Slice{Input: input, Take: max(n, 0)}
}

// Select appends a Project over members.
func Select(input Expression, members ...string) Expression {
	return Project{Input: input, Members: members}
}

// InputOf returns the operand of an operator node, or nil for a Source.
func InputOf(expr Expression) Expression {
	switch e := expr.(type) {
	case Filter:
		return e.Input
	case Order:
		return e.Input
	case Slice:
		return e.Input
	case Project:
		return e.Input
	default:
		return nil
	}
}

// SourceOf walks down to the root Source of expr.
func SourceOf(expr Expression) (Source, bool) {
	for expr != nil {
		if s, ok := expr.(Source); ok {
			return s, true
		}
		expr = InputOf(expr)
	}
	return Source{}, false
}

// Projects reports whether expr yields Rows rather than source elements.
func Projects(expr Expression) bool {
	_, ok := expr.(Project)
	return ok
}

// ElementTypeOf returns the type of the elements expr produces.
func ElementTypeOf(expr Expression) reflect.Type {
	if Projects(expr) {
		return RowType
	}
	if s, ok := SourceOf(expr); ok {
		return s.Type
	}
	return nil
}

func str(s fmt.Stringer) string {
	if s == nil || (reflect.ValueOf(s).Kind() == reflect.Ptr && reflect.ValueOf(s).IsNil()) {
		return "<nil>"
	}
	return s.String()
}
