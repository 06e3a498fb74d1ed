//go:build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entityview/errors"
	"github.com/suparena/entityview/query"
)

// Runs against DynamoDB Local or a real table, configured through .env:
// AWS_DDB_TABLE, AWS_REGION, AWS_DDB_ENDPOINT and optionally AWS_ACCESS_KEY /
// AWS_SECRET_KEY.
func integrationStore(t *testing.T) *DynamodbDataStore[track] {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		t.Log("No .env file found, proceeding with environment variables")
	}
	table := os.Getenv("AWS_DDB_TABLE")
	if table == "" {
		t.Skip("AWS_DDB_TABLE not set")
	}

	ctx := context.Background()
	client, err := NewDynamoDBClient(ctx, ClientConfig{
		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
		SecretKey: os.Getenv("AWS_SECRET_KEY"),
		Region:    os.Getenv("AWS_REGION"),
		Endpoint:  os.Getenv("AWS_DDB_ENDPOINT"),
	})
	require.NoError(t, err)
	require.NoError(t, EnsureTable(ctx, client, table, 2*time.Minute))

	store, err := NewDynamodbDataStore[track](client, table)
	require.NoError(t, err)
	return store
}

func TestIntegrationRoundTrip(t *testing.T) {
	store := integrationStore(t)
	ctx := context.Background()
	artist := fmt.Sprintf("it-%d", time.Now().UnixNano())

	for i := range 5 {
		require.NoError(t, store.Put(ctx, track{
			ID:     fmt.Sprintf("%s-%d", artist, i),
			Artist: artist,
			Title:  fmt.Sprintf("Song %d", i),
			Plays:  i * 10,
		}))
	}
	t.Cleanup(func() {
		for i := range 5 {
			_ = store.Delete(ctx, fmt.Sprintf("%s-%d", artist, i))
		}
	})

	expr := query.Take(query.OrderBy(
		query.Where(trackSource, query.AllOf(query.Field("Artist").Eq(artist), query.Field("Plays").Ge(20))),
		query.Desc("Plays")), 2)

	var plays []int
	for tr, err := range store.Query(ctx, expr) {
		require.NoError(t, err)
		plays = append(plays, tr.Plays)
	}
	assert.Equal(t, []int{40, 30}, plays)

	require.NoError(t, store.Delete(ctx, artist+"-0"))
	_, err := store.GetOne(ctx, artist+"-0")
	assert.True(t, errors.IsNotFound(err))
}
