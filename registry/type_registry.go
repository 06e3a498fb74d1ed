/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// typeRegistry maps entity type names (the EntityType attribute stored with
// every record) to Go types and back.
var (
	typeMu      sync.RWMutex
	typesByName = make(map[string]reflect.Type)
	namesByType = make(map[reflect.Type]string)
)

// RegisterType registers T under name.
// If the name or the type is already registered, it panics to prevent accidental overrides.
func RegisterType[T any](name string) {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	typeMu.Lock()
	defer typeMu.Unlock()
	if prev, exists := typesByName[name]; exists {
		panic(fmt.Sprintf("type registry: name %q already registered for %s", name, prev))
	}
	if prev, exists := namesByType[t]; exists {
		panic(fmt.Sprintf("type registry: %s already registered as %q", t, prev))
	}
	typesByName[name] = t
	namesByType[t] = name
}

// NameOf returns the registered name of t. Pointer types resolve to their
// element type. Unregistered types fall back to the Go type name.
func NameOf(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	typeMu.RLock()
	name, ok := namesByType[t]
	typeMu.RUnlock()
	if ok {
		return name
	}
	return t.Name()
}

// LookupType returns the type registered under name.
func LookupType(name string) (reflect.Type, bool) {
	typeMu.RLock()
	defer typeMu.RUnlock()
	t, ok := typesByName[name]
	return t, ok
}

// Names returns every registered name, sorted.
func Names() []string {
	typeMu.RLock()
	defer typeMu.RUnlock()
	names := make([]string, 0, len(typesByName))
	for name := range typesByName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
