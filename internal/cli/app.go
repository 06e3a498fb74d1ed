/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/suparena/entityview/datastore"
	"github.com/suparena/entityview/datastore/ddb"
	"github.com/suparena/entityview/datastore/instrument"
	"github.com/suparena/entityview/datastore/memory"
	"github.com/suparena/entityview/datastore/sqlite"
	"github.com/suparena/entityview/datastore/testmodels"
	"github.com/suparena/entityview/internal/config"
	"github.com/suparena/entityview/session"
)

// app is what a command runs against: the loaded config and a session over
// instrumented stores of both document types.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	session  *session.Session
	registry *prometheus.Registry
	closers  []func() error
}

// runWithApp adapts f into a cobra RunE that opens the app first and closes
// it afterwards.
func runWithApp(opts *RootOptions, f func(ctx context.Context, cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := openApp(ctx, opts, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.close()

		if err := f(ctx, cmd, args, a); err != nil {
			return err
		}
		if opts.Metrics {
			return a.dumpMetrics(cmd.OutOrStdout())
		}
		return nil
	}
}

func loadConfig(opts *RootOptions) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if opts.ConfigPath != "" {
		cfg, path, err = config.LoadFromPath(opts.ConfigPath, opts.EnvFile)
	} else {
		cfg, path, err = config.Load(opts.EnvFile)
	}
	if err != nil {
		return nil, path, err
	}
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
		if err := cfg.Validate(); err != nil {
			return nil, path, err
		}
	}
	return cfg, path, nil
}

func openApp(ctx context.Context, opts *RootOptions, logOut io.Writer) (*app, error) {
	cfg, path, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	level := cfg.Level()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))
	logger.Debug("config loaded", "path", path, "backend", cfg.Backend)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		session:  session.New(session.WithLogger(logger), session.WithFlushMode(cfg.Mode())),
		registry: prometheus.NewRegistry(),
	}
	texts, contents, err := a.openStores(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	metrics := instrument.NewMetrics(a.registry)
	if err := session.Register[testmodels.TextDoc](a.session, instrument.Wrap(texts, metrics, "")); err != nil {
		a.close()
		return nil, err
	}
	if err := session.Register[testmodels.ContentDoc](a.session, instrument.Wrap(contents, metrics, "")); err != nil {
		a.close()
		return nil, err
	}

	if cfg.Backend == "memory" {
		if _, err := seedSamples(ctx, a.session); err != nil {
			a.close()
			return nil, fmt.Errorf("seed memory backend: %w", err)
		}
	}
	return a, nil
}

func (a *app) openStores(ctx context.Context) (datastore.DataStore[testmodels.TextDoc], datastore.DataStore[testmodels.ContentDoc], error) {
	switch a.cfg.Backend {
	case "memory":
		return memory.New[testmodels.TextDoc](), memory.New[testmodels.ContentDoc](), nil

	case "sqlite":
		db, err := sqlite.Open(a.cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		texts, err := sqlite.New[testmodels.TextDoc](ctx, db)
		if err != nil {
			return nil, nil, err
		}
		contents, err := sqlite.New[testmodels.ContentDoc](ctx, db)
		if err != nil {
			return nil, nil, err
		}
		a.logger.Debug("sqlite ready", "path", a.cfg.SQLite.Path)
		return texts, contents, nil

	case "dynamodb":
		client, err := ddb.NewDynamoDBClient(ctx, a.cfg.ClientConfig())
		if err != nil {
			return nil, nil, err
		}
		table := a.cfg.DynamoDB.Table
		if a.cfg.DynamoDB.CreateTable {
			if err := ddb.EnsureTable(ctx, client, table, 2*time.Minute); err != nil {
				return nil, nil, err
			}
		}
		opts := []ddb.Option{ddb.WithLogger(a.logger), ddb.WithScanOptions(a.cfg.ScanOptions()...)}
		texts, err := ddb.NewDynamodbDataStore[testmodels.TextDoc](client, table, opts...)
		if err != nil {
			return nil, nil, err
		}
		contents, err := ddb.NewDynamodbDataStore[testmodels.ContentDoc](client, table, opts...)
		if err != nil {
			return nil, nil, err
		}
		a.logger.Debug("dynamodb ready", "table", table, "region", a.cfg.DynamoDB.Region)
		return texts, contents, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", a.cfg.Backend)
	}
}

// save commits pending changes and reports how many records were written.
func (a *app) save(ctx context.Context) (int, error) {
	n, err := a.session.SaveChanges(ctx)
	if err != nil {
		return n, fmt.Errorf("save changes: %w", err)
	}
	return n, nil
}

func (a *app) dumpMetrics(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
