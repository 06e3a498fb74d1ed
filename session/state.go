/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package session

import "reflect"

// EntityState is the change-tracking state of an entity.
type EntityState int

const (
	Detached EntityState = iota
	Unchanged
	Added
	Modified
	Deleted
)

func (s EntityState) String() string {
	switch s {
	case Unchanged:
		return "Unchanged"
	case Added:
		return "Added"
	case Modified:
		return "Modified"
	case Deleted:
		return "Deleted"
	default:
		return "Detached"
	}
}

// FlushMode controls when pending changes reach the data stores.
type FlushMode int

const (
	// FlushAuto saves pending changes before every query executes.
	FlushAuto FlushMode = iota
	// FlushCommit saves only on SaveChanges.
	FlushCommit
)

// Entry describes one tracked entity.
type Entry struct {
	Type   reflect.Type
	Key    string
	State  EntityState
	Entity any
}
