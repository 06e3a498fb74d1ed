/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package cli implements the entityview command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/suparena/entityview/internal/ui"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	EnvFile    string
	Backend    string
	Verbose    bool
	NoColor    bool
	Metrics    bool
}

// NewRootCommand creates the root command of the entityview CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "entityview",
		Short: "Query and edit documents of several types through one view",
		Long: `entityview stores text and content documents in separate collections
and reads or edits them through a single document view.

Storage is chosen by the config file (entityview.yaml), the environment
(ENTITYVIEW_BACKEND) or --backend: memory, sqlite or dynamodb. The memory
backend starts with the sample documents.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ui.InitColors(opts.NoColor)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to the config file (default: search $ENTITYVIEW_CONFIG, ./entityview.yaml, ~/.config/entityview)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file to load before reading the environment")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "storage backend (memory|sqlite|dynamodb), overrides the config")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().BoolVar(&opts.Metrics, "metrics", false, "print store metrics after the command")

	cmd.AddCommand(NewVersionCommand())
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))

	return cmd
}
