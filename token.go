/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityview

import "reflect"

// Token names the concrete element type a view is bound to. For sessions
// that is the pointer type, e.g. TypeOf[*testmodels.TextDoc]().
type Token struct {
	typ reflect.Type
}

// TypeOf returns the token for C.
func TypeOf[C any]() Token {
	return Token{typ: reflect.TypeFor[C]()}
}

// TokenFor returns the token for t.
func TokenFor(t reflect.Type) Token {
	return Token{typ: t}
}

// Type returns the concrete type, or nil for the zero Token.
func (k Token) Type() reflect.Type { return k.typ }

// IsZero reports whether k names no type.
func (k Token) IsZero() bool { return k.typ == nil }

// Matches reports whether v's dynamic type is exactly the token's type.
func (k Token) Matches(v any) bool {
	return v != nil && k.typ != nil && reflect.TypeOf(v) == k.typ
}

func (k Token) String() string {
	if k.typ == nil {
		return "<nil>"
	}
	return k.typ.String()
}
