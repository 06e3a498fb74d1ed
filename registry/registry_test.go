/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID string
}

type gadget struct {
	ID string
}

func TestTypeRegistry(t *testing.T) {
	RegisterType[widget]("Widget")

	assert.Equal(t, "Widget", NameOf(reflect.TypeFor[widget]()))
	assert.Equal(t, "Widget", NameOf(reflect.TypeFor[*widget]()))
	assert.Equal(t, "gadget", NameOf(reflect.TypeFor[gadget]()), "unregistered types fall back to the Go name")
	assert.Equal(t, "", NameOf(nil))

	typ, ok := LookupType("Widget")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[widget](), typ)

	_, ok = LookupType("Nope")
	assert.False(t, ok)

	assert.Contains(t, Names(), "Widget")

	assert.Panics(t, func() { RegisterType[gadget]("Widget") }, "duplicate name")
	assert.Panics(t, func() { RegisterType[*widget]("Other") }, "duplicate type")
}

func TestIndexMapRegistry(t *testing.T) {
	idx := map[string]string{"PK": "GADGET#{ID}", "SK": "GADGET#{ID}"}
	RegisterIndexMap[gadget](idx)
	idx["PK"] = "mutated"

	got, ok := GetIndexMap[gadget]()
	require.True(t, ok)
	assert.Equal(t, "GADGET#{ID}", got["PK"], "registered maps are copied")

	got, ok = IndexMapFor(reflect.TypeFor[*gadget]())
	require.True(t, ok)
	assert.Equal(t, "GADGET#{ID}", got["SK"])

	_, ok = GetIndexMap[widget]()
	assert.False(t, ok)
	_, ok = IndexMapFor(nil)
	assert.False(t, ok)
}
