/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memory_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/suparena/entityview/datastore"
	"github.com/suparena/entityview/datastore/memory"
	"github.com/suparena/entityview/errors"
	"github.com/suparena/entityview/query"
)

type TestEntity struct {
	ID   string
	Name string
	Rank int
}

var _ datastore.DataStore[TestEntity] = (*memory.DataStore[TestEntity])(nil)

var entitySource = query.Source{Name: "TestEntity", Type: reflect.TypeFor[TestEntity]()}

func seed(t *testing.T, store *memory.DataStore[TestEntity]) {
	t.Helper()
	for _, e := range []TestEntity{
		{ID: "3", Name: "Three", Rank: 1},
		{ID: "1", Name: "One", Rank: 2},
		{ID: "2", Name: "Two", Rank: 2},
	} {
		if err := store.Put(context.Background(), e); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
}

func TestMemoryDataStore(t *testing.T) {
	ctx := context.Background()

	t.Run("BasicOperations", func(t *testing.T) {
		store := memory.New[TestEntity]()

		entity := TestEntity{ID: "123", Name: "Test"}
		if err := store.Put(ctx, entity); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		retrieved, err := store.GetOne(ctx, "123")
		if err != nil {
			t.Fatalf("GetOne failed: %v", err)
		}
		if retrieved.ID != "123" || retrieved.Name != "Test" {
			t.Fatalf("Retrieved entity mismatch: %+v", retrieved)
		}

		if err := store.Delete(ctx, "123"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.GetOne(ctx, "123"); !errors.IsNotFound(err) {
			t.Fatalf("Expected not found error, got: %v", err)
		}
		if err := store.Delete(ctx, "123"); !errors.IsNotFound(err) {
			t.Fatalf("Expected not found error on second delete, got: %v", err)
		}
	})

	t.Run("KeyExtraction", func(t *testing.T) {
		store := memory.New[TestEntity]()
		if err := store.Put(ctx, TestEntity{Name: "no id"}); !errors.IsValidationError(err) {
			t.Fatalf("Expected validation error for empty key, got: %v", err)
		}

		custom := memory.New[TestEntity]().
			WithGetKeyFunc(func(e TestEntity) string { return "custom-" + e.Name })
		key, err := custom.Key(TestEntity{ID: "1", Name: "x"})
		if err != nil || key != "custom-x" {
			t.Fatalf("Expected custom key, got %q (%v)", key, err)
		}
	})

	t.Run("ErrorSimulation", func(t *testing.T) {
		store := memory.New[TestEntity]()

		putErr := errors.NewValidationError("name", "required")
		store.WithPutError(putErr)
		if err := store.Put(ctx, TestEntity{ID: "123"}); err != putErr {
			t.Fatalf("Expected put error, got: %v", err)
		}

		deleteErr := errors.NewConditionFailedError("delete", "version mismatch")
		store.WithDeleteError(deleteErr)
		if err := store.Delete(ctx, "123"); err != deleteErr {
			t.Fatalf("Expected delete error, got: %v", err)
		}

		queryErr := errors.NewConditionFailedError("query", "offline")
		store.WithQueryError(queryErr)
		for _, err := range store.Query(ctx, entitySource) {
			if err != queryErr {
				t.Fatalf("Expected query error, got: %v", err)
			}
		}
	})

	t.Run("Query", func(t *testing.T) {
		store := memory.New[TestEntity]()
		seed(t, store)

		var ids []string
		for e, err := range store.Query(ctx, entitySource) {
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			ids = append(ids, e.ID)
		}
		if len(ids) != 3 || ids[0] != "1" || ids[1] != "2" || ids[2] != "3" {
			t.Fatalf("Expected key order [1 2 3], got %v", ids)
		}

		expr := query.OrderBy(query.Where(entitySource, query.Field("Rank").Eq(2)), query.Desc("Name"))
		ids = nil
		for e, err := range store.Query(ctx, expr) {
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			ids = append(ids, e.ID)
		}
		if len(ids) != 2 || ids[0] != "2" || ids[1] != "1" {
			t.Fatalf("Expected [2 1], got %v", ids)
		}
	})

	t.Run("Rows", func(t *testing.T) {
		store := memory.New[TestEntity]()
		seed(t, store)

		var rows []query.Row
		for row, err := range store.Rows(ctx, query.Select(query.Take(entitySource, 1), "Name")) {
			if err != nil {
				t.Fatalf("Rows failed: %v", err)
			}
			rows = append(rows, row)
		}
		if len(rows) != 1 || rows[0]["Name"] != "One" {
			t.Fatalf("Expected one row with Name One, got %v", rows)
		}

		for _, err := range store.Rows(ctx, entitySource) {
			if !errors.IsValidationError(err) {
				t.Fatalf("Expected validation error for non-projecting Rows, got: %v", err)
			}
		}
		for _, err := range store.Query(ctx, query.Select(entitySource, "Name")) {
			if !errors.IsValidationError(err) {
				t.Fatalf("Expected validation error for projecting Query, got: %v", err)
			}
		}
	})

	t.Run("ForeignSource", func(t *testing.T) {
		store := memory.New[TestEntity]()
		other := query.Source{Name: "Other", Type: reflect.TypeFor[string]()}
		for _, err := range store.Query(ctx, other) {
			if !errors.IsTypeMismatch(err) {
				t.Fatalf("Expected type mismatch, got: %v", err)
			}
		}
	})

	t.Run("Cancellation", func(t *testing.T) {
		store := memory.New[TestEntity]()
		seed(t, store)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		for _, err := range store.Query(cctx, entitySource) {
			if err != context.Canceled {
				t.Fatalf("Expected context.Canceled, got: %v", err)
			}
		}
	})

	t.Run("HelperMethods", func(t *testing.T) {
		store := memory.New[TestEntity]()

		store.SetData(map[string]TestEntity{
			"1": {ID: "1", Name: "One"},
			"2": {ID: "2", Name: "Two"},
		})
		if store.Count() != 2 {
			t.Fatalf("Expected count 2, got %d", store.Count())
		}
		if data := store.GetData(); len(data) != 2 {
			t.Fatalf("Expected 2 items in data, got %d", len(data))
		}
		store.Clear()
		if store.Count() != 0 {
			t.Fatalf("Expected count 0 after clear, got %d", store.Count())
		}
	})
}
