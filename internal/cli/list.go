/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/suparena/entityview/internal/ui"
	"github.com/suparena/entityview/query"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Kind     string
	Contains string
	Order    string
	Limit    int
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		Long: `List documents of one kind or of every kind.

Each kind is read through the same document view; filters, ordering and the
limit run in the store of that kind.

Examples:
  entityview list
  entityview list --kind text --contains 9
  entityview list --order date --limit 3`,
		Args: cobra.NoArgs,
		RunE: runWithApp(rootOpts, func(ctx context.Context, cmd *cobra.Command, args []string, a *app) error {
			return listDocs(ctx, cmd, opts, a)
		}),
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "all", "document kind (text|content|all)")
	cmd.Flags().StringVar(&opts.Contains, "contains", "", "only numbers containing this text")
	cmd.Flags().StringVar(&opts.Order, "order", "number", "sort by number or date")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of documents (0 for all)")

	return cmd
}

func listDocs(ctx context.Context, cmd *cobra.Command, opts *ListOptions, a *app) error {
	selected, err := selectKinds(opts.Kind)
	if err != nil {
		return err
	}
	if opts.Order != "number" && opts.Order != "date" {
		return fmt.Errorf("invalid order %q: must be number or date", opts.Order)
	}
	if opts.Limit < 0 {
		return fmt.Errorf("invalid limit %d", opts.Limit)
	}
	member := "Number"
	if opts.Order == "date" {
		member = "Date"
	}

	var docs []Doc
	for _, k := range selected {
		view, err := k.view(a.session)
		if err != nil {
			return err
		}
		if opts.Contains != "" {
			view = view.Where(query.Field("Number").Contains(opts.Contains))
		}
		view = view.OrderBy(member)
		if opts.Limit > 0 {
			view = view.Take(opts.Limit)
		}
		found, err := view.ToSlice(ctx)
		if err != nil {
			return fmt.Errorf("list %s documents: %w", k.name, err)
		}
		a.logger.Debug("listed", "kind", k.name, "count", len(found))
		docs = append(docs, found...)
	}
	sortDocs(docs, opts.Order)
	if opts.Limit > 0 && len(docs) > opts.Limit {
		docs = docs[:opts.Limit]
	}

	out := cmd.OutOrStdout()
	if len(docs) == 0 {
		ui.Infof(out, "no documents")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNUMBER\tDATE\tID")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", kindOf(d), d.GetNumber(), d.GetDate(), ui.DimText(idOf(d).String()))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s documents\n", ui.CountText(len(docs)))
	return nil
}
