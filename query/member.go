/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/suparena/entityview/errors"
)

// Member is a named, readable part of an element: an exported struct field or
// a zero-argument method with one result.
type Member struct {
	Name     string
	Type     reflect.Type // type of the member's value
	JSONName string       // name under which the field is encoded; empty for methods and `json:"-"`
	index    []int
	method   string
	ptrRecv  bool // method is only in the pointer method set
}

// IsField reports whether the member is a struct field.
func (m Member) IsField() bool { return m.method == "" }

type memberKey struct {
	t    reflect.Type
	name string
}

var memberCache sync.Map // memberKey -> Member

// ResolveMember looks name up on t (a struct or pointer to struct). Fields
// are matched by Go name first and then by json tag name; methods by Go name.
func ResolveMember(t reflect.Type, name string) (Member, error) {
	if t == nil {
		return Member{}, errors.NewMemberError("<nil>", name)
	}
	key := memberKey{t, name}
	if m, ok := memberCache.Load(key); ok {
		return m.(Member), nil
	}
	m, err := resolve(t, name)
	if err != nil {
		return Member{}, err
	}
	memberCache.Store(key, m)
	return m, nil
}

// ResolveField is ResolveMember restricted to struct fields. Providers that
// push members down into a storage engine can only address fields.
func ResolveField(t reflect.Type, name string) (Member, error) {
	m, err := ResolveMember(t, name)
	if err != nil {
		return Member{}, err
	}
	if !m.IsField() {
		return Member{}, errors.NewUnsupportedExpressionError("field resolution", fmt.Sprintf("member %s of %s is a method", name, t))
	}
	if m.JSONName == "" {
		return Member{}, errors.NewUnsupportedExpressionError("field resolution", fmt.Sprintf("member %s of %s is not encoded", name, t))
	}
	return m, nil
}

func resolve(t reflect.Type, name string) (Member, error) {
	st := t
	for st.Kind() == reflect.Ptr {
		st = st.Elem()
	}

	if st.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(st) {
			if !f.IsExported() || f.Anonymous {
				continue
			}
			jsonName := jsonNameOf(f)
			if f.Name == name || (jsonName != "" && jsonName == name) {
				return Member{
					Name:     name,
					Type:     f.Type,
					JSONName: jsonName,
					index:    f.Index,
				}, nil
			}
		}
	}

	if m, ok := st.MethodByName(name); ok && isGetter(m.Type, 1) {
		return Member{Name: name, Type: m.Type.Out(0), method: name}, nil
	}
	if m, ok := reflect.PointerTo(st).MethodByName(name); ok && isGetter(m.Type, 1) {
		return Member{Name: name, Type: m.Type.Out(0), method: name, ptrRecv: true}, nil
	}
	// Interface types carry their methods without a receiver argument.
	if st.Kind() == reflect.Interface {
		if m, ok := st.MethodByName(name); ok && isGetter(m.Type, 0) {
			return Member{Name: name, Type: m.Type.Out(0), method: name}, nil
		}
	}

	return Member{}, errors.NewMemberError(t.String(), name)
}

func isGetter(ft reflect.Type, in int) bool {
	return ft.NumIn() == in && ft.NumOut() == 1
}

func jsonNameOf(f reflect.StructField) string {
	tag, ok := f.Tag.Lookup("json")
	if !ok {
		return f.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	default:
		return name
	}
}

// Get reads the member from elem. A nil pointer anywhere on the path reads
// as nil.
func (m Member) Get(elem any) (any, error) {
	v := reflect.ValueOf(elem)
	if !v.IsValid() {
		return nil, nil
	}

	if !m.IsField() {
		if v.Kind() != reflect.Ptr && m.ptrRecv {
			p := reflect.New(v.Type())
			p.Elem().Set(v)
			v = p
		}
		if v.Kind() == reflect.Ptr && v.IsNil() {
			return nil, nil
		}
		fn := v.MethodByName(m.method)
		if !fn.IsValid() {
			return nil, errors.NewMemberError(v.Type().String(), m.Name)
		}
		return fn.Call(nil)[0].Interface(), nil
	}

	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, errors.NewMemberError(v.Type().String(), m.Name)
	}
	f, err := v.FieldByIndexErr(m.index)
	if err != nil {
		// nil embedded pointer
		return nil, nil
	}
	return f.Interface(), nil
}

// MemberValue resolves name on elem's dynamic type and reads it.
func MemberValue(elem any, name string) (any, error) {
	m, err := ResolveMember(reflect.TypeOf(elem), name)
	if err != nil {
		return nil, err
	}
	return m.Get(elem)
}
