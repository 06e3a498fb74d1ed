/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/suparena/entityview/internal/ui"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Store the sample documents",
		Long: `Store the sample text and content documents.

Samples whose number is already stored for their kind are skipped, so seeding
twice is harmless.`,
		Args: cobra.NoArgs,
		RunE: runWithApp(rootOpts, func(ctx context.Context, cmd *cobra.Command, args []string, a *app) error {
			n, err := seedSamples(ctx, a.session)
			if err != nil {
				return err
			}
			if n == 0 {
				ui.Infof(cmd.OutOrStdout(), "samples already stored")
				return nil
			}
			ui.Successf(cmd.OutOrStdout(), "seeded %d documents into %s", n, a.cfg.Backend)
			return nil
		}),
	}
}
