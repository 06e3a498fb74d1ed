/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"
	"strings"
)

// Predicate is a boolean condition over the members of one element.
//
// This is a sealed interface; only types in this package implement it.
type Predicate interface {
	predicateNode()
	fmt.Stringer
}

// Op is a comparison operator.
type Op int

const (
	Eq Op = iota + 1
	Ne
	Lt
	Le
	Gt
	Ge
	Contains     // substring match, string members only
	HasPrefix    // prefix match, string members only
	ContainsFold // case-insensitive substring match, string members only
)

var opNames = map[Op]string{
	Eq:           "=",
	Ne:           "!=",
	Lt:           "<",
	Le:           "<=",
	Gt:           ">",
	Ge:           ">=",
	Contains:     "contains",
	HasPrefix:    "has prefix",
	ContainsFold: "contains (fold)",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Valid reports whether o is a known operator.
func (o Op) Valid() bool {
	_, ok := opNames[o]
	return ok
}

// IsStringOp reports whether o only applies to string members.
func (o Op) IsStringOp() bool {
	return o == Contains || o == HasPrefix || o == ContainsFold
}

// Compare tests one member against a literal value.
type Compare struct {
	Member string
	Op     Op
	Value  any
}

func (Compare) predicateNode() {}

func (c Compare) String() string {
	return fmt.Sprintf("%s %s %#v", c.Member, c.Op, c.Value)
}

// And holds when every predicate holds. An empty And always holds.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

func (a And) String() string {
	return join(a.Predicates, " AND ", "true")
}

// Or holds when any predicate holds. An empty Or never holds.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

func (o Or) String() string {
	return join(o.Predicates, " OR ", "false")
}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

func (n Not) String() string {
	return fmt.Sprintf("NOT (%s)", str(n.Predicate))
}

func join(ps []Predicate, sep, empty string) string {
	if len(ps) == 0 {
		return empty
	}
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = "(" + str(p) + ")"
	}
	return strings.Join(parts, sep)
}

// FieldRef names a member for building comparisons:
//
//	query.Field("Number").Contains("9")
type FieldRef string

// Field starts a comparison on the named member.
func Field(member string) FieldRef { return FieldRef(member) }

func (f FieldRef) cmp(op Op, v any) Predicate {
	return Compare{Member: string(f), Op: op, Value: v}
}

func (f FieldRef) Eq(v any) Predicate { return f.cmp(Eq, v) }
func (f FieldRef) Ne(v any) Predicate { return f.cmp(Ne, v) }
func (f FieldRef) Lt(v any) Predicate { return f.cmp(Lt, v) }
func (f FieldRef) Le(v any) Predicate { return f.cmp(Le, v) }
func (f FieldRef) Gt(v any) Predicate { return f.cmp(Gt, v) }
func (f FieldRef) Ge(v any) Predicate { return f.cmp(Ge, v) }
func (f FieldRef) Contains(s string) Predicate { return f.cmp(Contains, s) }
func (f FieldRef) HasPrefix(s string) Predicate { return f.cmp(HasPrefix, s) }
func (f FieldRef) ContainsFold(s string) Predicate { return f.cmp(ContainsFold, s) }

// AllOf joins predicates with AND.
func AllOf(ps ...Predicate) Predicate { return And{Predicates: ps} }

// AnyOf joins predicates with OR.
func AnyOf(ps ...Predicate) Predicate { return Or{Predicates: ps} }

// Negate wraps p in NOT.
func Negate(p Predicate) Predicate { return Not{Predicate: p} }

// Conjuncts flattens nested Ands into their leaf predicates.
func Conjuncts(p Predicate) []Predicate {
	and, ok := p.(And)
	if !ok {
		return []Predicate{p}
	}
	var out []Predicate
	for _, sub := range and.Predicates {
		out = append(out, Conjuncts(sub)...)
	}
	return out
}
