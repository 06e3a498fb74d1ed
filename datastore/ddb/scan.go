/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"iter"
	"time"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entityview/storagemodels"
)

type page struct {
	items   []map[string]types.AttributeValue
	lastKey map[string]types.AttributeValue
}

// pager abstracts the SDK's Scan and Query paginators.
type pager struct {
	hasMore func() bool
	next    func(ctx context.Context) (page, error)
}

func (d *DynamodbDataStore[T]) pager(params *storagemodels.QueryParams) pager {
	if params.IsScan() {
		p := sdk.NewScanPaginator(d.client, &sdk.ScanInput{
			TableName:                 &params.TableName,
			IndexName:                 params.IndexName,
			FilterExpression:          params.FilterExpression,
			ExpressionAttributeNames:  params.ExpressionAttributeNames,
			ExpressionAttributeValues: params.ExpressionAttributeValues,
			ExclusiveStartKey:         params.ExclusiveStartKey,
		}, func(o *sdk.ScanPaginatorOptions) {
			o.Limit = d.scanOpts.PageSize
		})
		return pager{
			hasMore: p.HasMorePages,
			next: func(ctx context.Context) (page, error) {
				out, err := p.NextPage(ctx)
				if err != nil {
					return page{}, err
				}
				return page{items: out.Items, lastKey: out.LastEvaluatedKey}, nil
			},
		}
	}

	p := sdk.NewQueryPaginator(d.client, &sdk.QueryInput{
		TableName:                 &params.TableName,
		IndexName:                 params.IndexName,
		KeyConditionExpression:    &params.KeyConditionExpression,
		FilterExpression:          params.FilterExpression,
		ExpressionAttributeNames:  params.ExpressionAttributeNames,
		ExpressionAttributeValues: params.ExpressionAttributeValues,
		ExclusiveStartKey:         params.ExclusiveStartKey,
	}, func(o *sdk.QueryPaginatorOptions) {
		o.Limit = d.scanOpts.PageSize
	})
	return pager{
		hasMore: p.HasMorePages,
		next: func(ctx context.Context) (page, error) {
			out, err := p.NextPage(ctx)
			if err != nil {
				return page{}, err
			}
			return page{items: out.Items, lastKey: out.LastEvaluatedKey}, nil
		},
	}
}

// items reads params page by page. A page is requested only when the
// consumer has taken every item of the previous one.
func (d *DynamodbDataStore[T]) items(ctx context.Context, params *storagemodels.QueryParams) iter.Seq2[map[string]types.AttributeValue, error] {
	return func(yield func(map[string]types.AttributeValue, error) bool) {
		p := d.pager(params)
		progress := storagemodels.ScanProgress{StartTime: time.Now()}

		for p.hasMore() {
			pg, err := d.nextWithRetry(ctx, p)
			if err != nil {
				yield(nil, err)
				return
			}
			progress.PagesProcessed++
			d.logger.Debug("dynamodb page read",
				"table", params.TableName,
				"page", progress.PagesProcessed,
				"items", len(pg.items))

			for _, item := range pg.items {
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return
				}
				progress.ItemsProcessed++
				if !yield(item, nil) {
					return
				}
			}

			progress.LastKey = pg.lastKey
			d.reportProgress(progress)
		}
	}
}

func (d *DynamodbDataStore[T]) reportProgress(progress storagemodels.ScanProgress) {
	if d.scanOpts.ProgressHandler == nil {
		return
	}
	if elapsed := time.Since(progress.StartTime).Seconds(); elapsed > 0 {
		progress.CurrentRate = float64(progress.ItemsProcessed) / elapsed
	}
	d.scanOpts.ProgressHandler(progress)
}

// nextWithRetry fetches the next page, retrying throttling and server
// errors with a linearly growing backoff.
func (d *DynamodbDataStore[T]) nextWithRetry(ctx context.Context, p pager) (page, error) {
	var lastErr error

	for attempt := 0; attempt <= d.scanOpts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return page{}, err
		}

		pg, err := p.next(ctx)
		if err == nil {
			return pg, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return page{}, fmt.Errorf("dynamodb read failed: %w", err)
		}

		if attempt < d.scanOpts.MaxRetries {
			backoff := time.Duration(attempt+1) * d.scanOpts.RetryBackoff
			d.logger.Warn("dynamodb read throttled, retrying",
				"attempt", attempt+1,
				"backoff", backoff,
				"error", err)
			select {
			case <-ctx.Done():
				return page{}, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return page{}, fmt.Errorf("dynamodb read failed after %d retries: %w", d.scanOpts.MaxRetries, lastErr)
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	var (
		throughput *types.ProvisionedThroughputExceededException
		limit      *types.RequestLimitExceeded
		internal   *types.InternalServerError
	)
	switch {
	case stderrors.As(err, &throughput), stderrors.As(err, &limit), stderrors.As(err, &internal):
		return true
	}

	var retryable interface{ IsRetryable() bool }
	if stderrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}
