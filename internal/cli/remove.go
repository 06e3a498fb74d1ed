/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/suparena/entityview/errors"
	"github.com/suparena/entityview/internal/ui"
	"github.com/suparena/entityview/query"
)

// RemoveOptions holds flags for the remove command.
type RemoveOptions struct {
	*RootOptions
	Kind   string
	Number string
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RemoveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove documents by number",
		Long: `Remove every document with the given number.

Without --kind, documents of every kind with that number are removed.`,
		Args: cobra.NoArgs,
		RunE: runWithApp(rootOpts, func(ctx context.Context, cmd *cobra.Command, args []string, a *app) error {
			return removeDocs(ctx, cmd, opts, a)
		}),
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "all", "document kind (text|content|all)")
	cmd.Flags().StringVar(&opts.Number, "number", "", "document number")
	_ = cmd.MarkFlagRequired("number")

	return cmd
}

func removeDocs(ctx context.Context, cmd *cobra.Command, opts *RemoveOptions, a *app) error {
	selected, err := selectKinds(opts.Kind)
	if err != nil {
		return err
	}

	removed := 0
	for _, k := range selected {
		view, err := k.managed(a.session)
		if err != nil {
			return err
		}
		docs, err := view.Where(query.Field("Number").Eq(opts.Number)).ToSlice(ctx)
		if err != nil {
			return err
		}
		for _, d := range docs {
			if _, err := view.Remove(d); err != nil {
				return err
			}
			removed++
		}
	}
	if removed == 0 {
		return errors.NewNotFoundError("document", opts.Number)
	}
	if _, err := a.save(ctx); err != nil {
		return err
	}
	ui.Successf(cmd.OutOrStdout(), "removed %d documents numbered %s", removed, opts.Number)
	return nil
}
