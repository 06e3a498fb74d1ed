/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package instrument records Prometheus metrics around a DataStore.
package instrument

import (
	"context"
	"iter"
	"reflect"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/suparena/entityview/datastore"
	"github.com/suparena/entityview/query"
	"github.com/suparena/entityview/registry"
)

// Metrics holds the collectors shared by every wrapped store. Series are
// labelled by store name and operation.
type Metrics struct {
	operations *prometheus.CounterVec
	errors     *prometheus.CounterVec
	rows       *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "entityview_store_operations_total",
			Help: "Data store operations started",
		}, []string{"store", "op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "entityview_store_errors_total",
			Help: "Data store operations that returned an error",
		}, []string{"store", "op"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "entityview_store_rows_total",
			Help: "Records and rows yielded by queries",
		}, []string{"store", "op"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "entityview_store_operation_seconds",
			Help:    "Data store operation latency; for queries, until enumeration ends",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"store", "op"}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.errors, m.rows, m.duration)
	}
	return m
}

// DataStore wraps a datastore.DataStore[T] and records every call.
type DataStore[T any] struct {
	inner   datastore.DataStore[T]
	metrics *Metrics
	name    string
}

var _ datastore.DataStore[struct{}] = (*DataStore[struct{}])(nil)

// Wrap instruments ds. An empty name defaults to the registered type name of
// T.
func Wrap[T any](ds datastore.DataStore[T], m *Metrics, name string) *DataStore[T] {
	if name == "" {
		name = registry.NameOf(reflect.TypeFor[T]())
	}
	return &DataStore[T]{inner: ds, metrics: m, name: name}
}

// Unwrap returns the instrumented store.
func (d *DataStore[T]) Unwrap() datastore.DataStore[T] { return d.inner }

func (d *DataStore[T]) observe(op string) func(error) {
	d.metrics.operations.WithLabelValues(d.name, op).Inc()
	timer := prometheus.NewTimer(d.metrics.duration.WithLabelValues(d.name, op))
	return func(err error) {
		timer.ObserveDuration()
		if err != nil {
			d.metrics.errors.WithLabelValues(d.name, op).Inc()
		}
	}
}

func (d *DataStore[T]) GetOne(ctx context.Context, key string) (*T, error) {
	done := d.observe("get")
	v, err := d.inner.GetOne(ctx, key)
	done(err)
	return v, err
}

func (d *DataStore[T]) Put(ctx context.Context, entity T) error {
	done := d.observe("put")
	err := d.inner.Put(ctx, entity)
	done(err)
	return err
}

func (d *DataStore[T]) Delete(ctx context.Context, key string) error {
	done := d.observe("delete")
	err := d.inner.Delete(ctx, key)
	done(err)
	return err
}

func (d *DataStore[T]) Key(entity T) (string, error) {
	return d.inner.Key(entity)
}

func (d *DataStore[T]) Query(ctx context.Context, expr query.Expression) iter.Seq2[T, error] {
	return instrumentSeq(d, "query", d.inner.Query(ctx, expr))
}

func (d *DataStore[T]) Rows(ctx context.Context, expr query.Expression) iter.Seq2[query.Row, error] {
	return instrumentSeq(d, "rows", d.inner.Rows(ctx, expr))
}

// instrumentSeq starts the clock when enumeration starts and stops it when
// the sequence ends or the consumer stops early.
func instrumentSeq[T, V any](d *DataStore[T], op string, seq iter.Seq2[V, error]) iter.Seq2[V, error] {
	rows := d.metrics.rows.WithLabelValues(d.name, op)
	return func(yield func(V, error) bool) {
		done := d.observe(op)
		var failed error
		defer func() { done(failed) }()

		for v, err := range seq {
			if err != nil {
				failed = err
			} else {
				rows.Inc()
			}
			if !yield(v, err) {
				return
			}
		}
	}
}
