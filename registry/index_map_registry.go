/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"maps"
	"reflect"
	"sync"
)

// IndexMapRegistry is a registry for Go types and their DynamoDB index maps.

var (
	indexMapRegistry = make(map[reflect.Type]map[string]string)
	mu               sync.RWMutex
)

// RegisterIndexMap associates a Go type T with a given DynamoDB index map (PK, SK, etc.).
func RegisterIndexMap[T any](idxMap map[string]string) {
	t := base(reflect.TypeFor[T]())

	mu.Lock()
	defer mu.Unlock()
	indexMapRegistry[t] = maps.Clone(idxMap)
}

// GetIndexMap retrieves the indexMap for type T, if any.
func GetIndexMap[T any]() (map[string]string, bool) {
	return IndexMapFor(reflect.TypeFor[T]())
}

// IndexMapFor retrieves the indexMap for t, if any. T and *T share one map.
func IndexMapFor(t reflect.Type) (map[string]string, bool) {
	if t == nil {
		return nil, false
	}
	mu.RLock()
	defer mu.RUnlock()
	m, ok := indexMapRegistry[base(t)]
	return m, ok
}

func base(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
