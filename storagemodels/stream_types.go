/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ScanOptions configures paged reads
type ScanOptions struct {
	PageSize        int32              // Items per DynamoDB page (default: 100)
	MaxRetries      int                // Retry attempts for transient errors (default: 3)
	RetryBackoff    time.Duration      // Backoff between retries, grows linearly (default: 1s)
	ProgressHandler func(ScanProgress) // Optional progress callback, called after each page
}

// ScanProgress tracks paging progress
type ScanProgress struct {
	ItemsProcessed int64                           // Total items read
	PagesProcessed int                             // Total pages read
	LastKey        map[string]types.AttributeValue // Last evaluated key, nil when done
	StartTime      time.Time                       // When reading started
	CurrentRate    float64                         // Items per second
}

// ScanOption is a functional option for configuring paged reads
type ScanOption func(*ScanOptions)

// DefaultScanOptions returns default paging options
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		PageSize:     100,
		MaxRetries:   3,
		RetryBackoff: time.Second,
	}
}

// Apply returns the defaults with opts applied.
func Apply(opts ...ScanOption) ScanOptions {
	options := DefaultScanOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// WithMaxRetries sets the maximum retry attempts
func WithMaxRetries(retries int) ScanOption {
	return func(opts *ScanOptions) {
		opts.MaxRetries = retries
	}
}

// WithRetryBackoff sets the retry backoff duration
func WithRetryBackoff(backoff time.Duration) ScanOption {
	return func(opts *ScanOptions) {
		opts.RetryBackoff = backoff
	}
}

// WithPageSize sets the DynamoDB page size
func WithPageSize(size int32) ScanOption {
	return func(opts *ScanOptions) {
		opts.PageSize = size
	}
}

// WithProgressHandler sets a progress callback
func WithProgressHandler(handler func(ScanProgress)) ScanOption {
	return func(opts *ScanOptions) {
		opts.ProgressHandler = handler
	}
}
