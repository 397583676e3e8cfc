package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gravsearch/internal/engine"
	"github.com/roach88/gravsearch/internal/rewrite"
	"github.com/roach88/gravsearch/internal/sparql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Fetch []string // main resource IRIs to build a fetch query for
	Page  int      // page override; negative keeps the query's OFFSET
}

// CompilationResult is the SPARQL generated for a query.
type CompilationResult struct {
	MainResource string       `json:"main_resource"`
	Types        []EntityType `json:"types"`
	Prequery     string       `json:"prequery"`
	CountQuery   string `json:"count_query"`
	FetchQuery   string `json:"fetch_query,omitempty"`
}

// EntityType is the inferred type of one query entity.
type EntityType struct {
	Entity string `json:"entity"`
	Type   string `json:"type"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query-file>",
		Short: "Compile a Gravsearch query to SPARQL",
		Long: `Parse, type-check and rewrite a Gravsearch query without running it.

Prints the page prequery and the count query. With --fetch, also prints
the fetch query for the given main resource IRIs. Only the ontology is
needed; the triplestore is not contacted. Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Fetch, "fetch", nil, "main resource IRIs for the fetch query (comma-separated)")
	cmd.Flags().IntVar(&opts.Page, "page", -1, "page number (zero-based); default keeps the query's OFFSET")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, path string, cmd *cobra.Command) error {
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

	var compileOpts []engine.CompileOption
	if opts.Page >= 0 {
		compileOpts = append(compileOpts, engine.AtPage(opts.Page))
	}
	compiled, err := sess.engine.Compile(text, compileOpts...)
	if err != nil {
		return reportQueryError(formatter, err)
	}

	result, err := renderCompiled(compiled, opts.Fetch)
	if err != nil {
		return reportQueryError(formatter, err)
	}
	formatter.VerboseLog("main resource: %s", result.MainResource)

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "# types\n")
	for _, et := range result.Types {
		fmt.Fprintf(w, "%s\t%s\n", et.Entity, et.Type)
	}
	fmt.Fprintf(w, "# prequery\n%s\n", result.Prequery)
	fmt.Fprintf(w, "# count\n%s\n", result.CountQuery)
	if result.FetchQuery != "" {
		fmt.Fprintf(w, "# fetch\n%s\n", result.FetchQuery)
	}
	return nil
}

func renderCompiled(c *engine.Compiled, fetch []string) (*CompilationResult, error) {
	prequery, err := sparql.Render(c.Prequery)
	if err != nil {
		return nil, err
	}
	count, err := sparql.Render(c.CountQuery)
	if err != nil {
		return nil, err
	}

	result := &CompilationResult{
		MainResource: c.Parsed.MainResource.String(),
		Prequery:     prequery,
		CountQuery:   count,
	}
	for _, e := range c.Types.Entities() {
		t, _ := c.Types.TypeOf(e)
		result.Types = append(result.Types, EntityType{Entity: fmt.Sprint(e), Type: t.String()})
	}
	if len(fetch) > 0 {
		if result.FetchQuery, err = sparql.Render(rewrite.FetchQuery(fetch)); err != nil {
			return nil, err
		}
	}
	return result, nil
}
