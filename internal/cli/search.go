package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gravsearch/internal/engine"
	"github.com/roach88/gravsearch/internal/render"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	User string // requester IRI; empty is anonymous
	Page int    // page override; negative keeps the query's OFFSET
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <query-file>",
		Short: "Run a Gravsearch query",
		Long: `Run a Gravsearch query against the configured triplestore.

The requester's permissions are resolved from the metadata store; without
--user the request is anonymous. With --format json the page is printed
as canonical JSON, main resources in prequery order.

Exit codes:
  0 - Success
  1 - The query is invalid
  2 - Command error (configuration, store or triplestore failure)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.User, "user", "", "requester IRI (default anonymous)")
	cmd.Flags().IntVar(&opts.Page, "page", -1, "page number (zero-based); default keeps the query's OFFSET")

	return cmd
}

func runSearch(ctx context.Context, opts *SearchOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	text, err := readQuery(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	sess, err := newSession(ctx, opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.Close()

	id, err := sess.store.Identity(ctx, opts.User)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolving requester", err)
	}

	var compileOpts []engine.CompileOption
	if opts.Page >= 0 {
		compileOpts = append(compileOpts, engine.AtPage(opts.Page))
	}
	page, err := sess.engine.Search(ctx, text, id, compileOpts...)
	if err != nil {
		return reportQueryError(formatter, err)
	}

	doc, err := render.Page(page.Resources, page.MayHaveMoreResults)
	if err != nil {
		return WrapExitError(ExitCommandError, "rendering page", err)
	}
	return formatter.Document(doc, pageText(page))
}

func pageText(page *engine.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Page %d: %d main resource(s)", page.Number, len(page.Resources))
	if page.Filtered > 0 {
		fmt.Fprintf(&b, ", %d hidden by permissions", page.Filtered)
	}
	b.WriteString("\n")
	for _, r := range page.Resources {
		values := 0
		for _, vs := range r.Values {
			values += len(vs)
		}
		fmt.Fprintf(&b, "  %s (%s) %s, %d value(s)\n", r.IRI, r.Class, r.Permission, values)
	}
	if page.MayHaveMoreResults {
		b.WriteString("More results may be available.\n")
	}
	return b.String()
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count <query-file>",
		Short: "Count the main resources a Gravsearch query matches",
		Long: `Count the main resources a Gravsearch query matches.

The count is taken before permission filtering, so it may exceed the
number of resources a requester can see.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(cmd.Context(), rootOpts, args[0], cmd)
		},
	}
}

func runCount(ctx context.Context, opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	text, err := readQuery(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	sess, err := newSession(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.Close()

	n, err := sess.engine.Count(ctx, text)
	if err != nil {
		return reportQueryError(formatter, err)
	}

	doc, err := render.Count(n)
	if err != nil {
		return WrapExitError(ExitCommandError, "rendering count", err)
	}
	return formatter.Document(doc, fmt.Sprintf("%d\n", n))
}
