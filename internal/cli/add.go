/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/entityview/internal/ui"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Kind   string
	Number string
	Date   string
	Extra  string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a document",
		Long: `Add a text or content document.

--extra sets the body of a text document or the media type of a content
document.

Example:
  entityview add --kind content --number 11223 --date 2024-07-01 --extra application/pdf`,
		Args: cobra.NoArgs,
		RunE: runWithApp(rootOpts, func(ctx context.Context, cmd *cobra.Command, args []string, a *app) error {
			return addDoc(ctx, cmd, opts, a)
		}),
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "document kind (text|content)")
	cmd.Flags().StringVar(&opts.Number, "number", "", "document number")
	cmd.Flags().StringVar(&opts.Date, "date", "", "issue date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.Extra, "extra", "", "text body or media type")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("number")

	return cmd
}

func addDoc(ctx context.Context, cmd *cobra.Command, opts *AddOptions, a *app) error {
	if opts.Kind == "all" {
		return fmt.Errorf("add needs a single kind")
	}
	selected, err := selectKinds(opts.Kind)
	if err != nil {
		return err
	}
	k := selected[0]
	date, err := parseDate(opts.Date)
	if err != nil {
		return err
	}

	view, err := k.managed(a.session)
	if err != nil {
		return err
	}
	d, err := newDoc(view, k, opts.Number, date, opts.Extra)
	if err != nil {
		return err
	}
	if _, err := view.Add(d); err != nil {
		return err
	}
	if _, err := a.save(ctx); err != nil {
		return err
	}
	ui.Successf(cmd.OutOrStdout(), "added %s document %s (%s)", k.name, d.GetNumber(), idOf(d))
	return nil
}
