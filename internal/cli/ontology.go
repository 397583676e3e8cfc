package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gravsearch/internal/ontology"
)

// OntologySummary describes one stored ontology.
type OntologySummary struct {
	IRI        string `json:"iri"`
	Classes    int    `json:"classes"`
	Properties int    `json:"properties"`
}

// NewOntologyCommand creates the ontology command group.
func NewOntologyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ontology",
		Short: "Manage the ontologies queries are checked against",
	}
	cmd.AddCommand(newOntologyImportCommand(rootOpts))
	cmd.AddCommand(newOntologyListCommand(rootOpts))
	return cmd
}

func newOntologyImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Import the CUE ontologies declared in a directory",
		Long: `Import the CUE ontologies declared in a directory into the metadata store.

Re-importing an ontology replaces everything previously stored for its IRI.
Import is all or nothing per ontology.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOntologyImport(cmd.Context(), rootOpts, args[0], cmd)
		},
	}
}

func runOntologyImport(ctx context.Context, opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		formatter.Error(ErrCodeNotFound, fmt.Sprintf("ontology directory not found: %s", dir), nil)
		return &ExitError{Code: ExitCommandError, Message: "ontology directory not found", Err: err, Reported: true}
	}

	defs, err := ontology.LoadDir(dir)
	if err != nil {
		formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: "loading ontology", Err: err, Reported: true}
	}
	// Fail on conflicts before anything is written.
	if _, err := ontology.NewCache(defs...); err != nil {
		formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: "loading ontology", Err: err, Reported: true}
	}

	st, err := openConfiguredStore(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer st.Close()

	imported := make([]OntologySummary, 0, len(defs))
	for _, d := range defs {
		if err := st.SaveOntology(ctx, d); err != nil {
			formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return &ExitError{Code: ExitCommandError, Message: "saving ontology", Err: err, Reported: true}
		}
		formatter.VerboseLog("imported %s", d.IRI)
		imported = append(imported, summarize(d))
	}

	if opts.Format == "json" {
		return formatter.Success(imported)
	}
	return formatter.Success(fmt.Sprintf("Imported %d ontolog%s from %s\n%s",
		len(imported), plural(len(imported), "y", "ies"), dir, ontologyTable(imported)))
}

func newOntologyListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the ontologies in the metadata store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOntologyList(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runOntologyList(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := openConfiguredStore(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer st.Close()

	defs, err := st.LoadOntologies(ctx)
	if err != nil {
		formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: "listing ontologies", Err: err, Reported: true}
	}

	summaries := make([]OntologySummary, len(defs))
	for i, d := range defs {
		summaries[i] = summarize(d)
	}

	if opts.Format == "json" {
		return formatter.Success(summaries)
	}
	if len(summaries) == 0 {
		return formatter.Success("No ontologies imported.")
	}
	return formatter.Success(strings.TrimSuffix(ontologyTable(summaries), "\n"))
}

func summarize(d ontology.Definitions) OntologySummary {
	return OntologySummary{IRI: d.IRI, Classes: len(d.Classes), Properties: len(d.Properties)}
}

func ontologyTable(summaries []OntologySummary) string {
	var b strings.Builder
	for _, s := range summaries {
		fmt.Fprintf(&b, "  %s (%d classes, %d properties)\n", s.IRI, s.Classes, s.Properties)
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
