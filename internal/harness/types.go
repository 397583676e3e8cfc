package harness

import (
	"github.com/roach88/gravsearch/internal/engine"
)

// Queries holds the SPARQL the engine sent to the triplestore, by kind.
type Queries struct {
	Prequery []string
	Count    []string
	Fetch    []string
}

func (q Queries) byKind(kind string) []string {
	switch kind {
	case QueryPrequery:
		return q.Prequery
	case QueryCount:
		return q.Count
	case QueryFetch:
		return q.Fetch
	}
	return nil
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool

	// Errors contains one message per failed check. Empty if Pass is true.
	Errors []string

	// Page is the search answer; nil if the search failed.
	Page *engine.Page

	// Count is the count answer; nil if not requested or failed.
	Count *int

	// ErrorCode is the queryerr code of a failed search, if any.
	ErrorCode string

	Queries Queries
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
