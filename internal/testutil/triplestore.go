package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/gravsearch/internal/rdf"
)

// SelectResponse is a canned SELECT answer. It is returned for the first
// query containing Match; an empty Match matches every query.
type SelectResponse struct {
	Match  string
	Result *rdf.SelectResult
	Err    error
}

// FakeTriplestore is a scripted triplestore for tests. It records every
// query it receives. Safe for concurrent use.
type FakeTriplestore struct {
	mu sync.Mutex

	Selects      []SelectResponse
	Triples      []rdf.Triple
	ConstructErr error

	// Block makes every call wait for its context to end.
	Block bool

	SelectQueries    []string
	ConstructQueries []string
}

// Select implements triplestore.Triplestore.
func (f *FakeTriplestore) Select(ctx context.Context, query string) (*rdf.SelectResult, error) {
	f.mu.Lock()
	f.SelectQueries = append(f.SelectQueries, query)
	block := f.Block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.Selects {
		if r.Match == "" || strings.Contains(query, r.Match) {
			if r.Err != nil {
				return nil, r.Err
			}
			return r.Result, nil
		}
	}
	return nil, fmt.Errorf("fake triplestore: no response scripted for query:\n%s", query)
}

// Construct implements triplestore.Triplestore.
func (f *FakeTriplestore) Construct(ctx context.Context, query string) ([]rdf.Triple, error) {
	f.mu.Lock()
	f.ConstructQueries = append(f.ConstructQueries, query)
	block := f.Block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ConstructErr != nil {
		return nil, f.ConstructErr
	}
	return append([]rdf.Triple(nil), f.Triples...), nil
}

// Calls returns the number of SELECT and CONSTRUCT queries received.
func (f *FakeTriplestore) Calls() (selects, constructs int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.SelectQueries), len(f.ConstructQueries)
}

// IRIBindings builds a SELECT result binding variable to each IRI.
func IRIBindings(variable string, iris ...string) *rdf.SelectResult {
	res := &rdf.SelectResult{Vars: []string{variable}}
	for _, iri := range iris {
		res.Bindings = append(res.Bindings, rdf.Binding{variable: rdf.NewIRI(iri)})
	}
	return res
}

// CountBinding builds the result of a count query.
func CountBinding(n int) *rdf.SelectResult {
	return &rdf.SelectResult{
		Vars:     []string{"count"},
		Bindings: []rdf.Binding{{"count": rdf.NewLiteral(fmt.Sprint(n), "http://www.w3.org/2001/XMLSchema#integer")}},
	}
}
