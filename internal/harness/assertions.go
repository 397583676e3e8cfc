package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/gravsearch/internal/assemble"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("Assertion failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions runs every assertion against r and returns one
// message per failure.
func EvaluateAssertions(r *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(r, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertQueryContains:
		return assertQueryContains(r.Queries, a)
	case AssertQueryAbsent:
		return assertQueryAbsent(r.Queries, a)
	}

	// The remaining assertions inspect the page.
	if r.Page == nil {
		return &AssertionError{Type: a.Type, Expected: "a search result", Actual: "the search failed"}
	}
	idx := index(r.Page.Resources)

	switch a.Type {
	case AssertPermission:
		return assertPermission(idx, a)
	case AssertHidden:
		if _, ok := idx[a.IRI]; ok {
			return &AssertionError{Type: a.Type, Expected: a.IRI + " not on the page", Actual: "present"}
		}
		return nil
	case AssertTargetNested, AssertTargetOmitted:
		return assertTarget(idx, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertQueryContains(q Queries, a Assertion) error {
	texts := q.byKind(a.Query)
	if len(texts) == 0 {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("a %s query containing %q", a.Query, a.Text), Actual: "no " + a.Query + " query was sent"}
	}
	for _, text := range texts {
		if strings.Contains(text, a.Text) {
			return nil
		}
	}
	return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s query containing %q", a.Query, a.Text), Actual: texts[len(texts)-1]}
}

func assertQueryAbsent(q Queries, a Assertion) error {
	for _, text := range q.byKind(a.Query) {
		if strings.Contains(text, a.Text) {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s query without %q", a.Query, a.Text), Actual: text}
		}
	}
	return nil
}

func assertPermission(idx map[string]entry, a Assertion) error {
	e, ok := idx[a.IRI]
	if !ok {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s visible with %s", a.IRI, a.Permission), Actual: "not on the page"}
	}
	if got := e.permission(); got != a.Permission {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s visible with %s", a.IRI, a.Permission), Actual: got}
	}
	return nil
}

func assertTarget(idx map[string]entry, a Assertion) error {
	e, ok := idx[a.IRI]
	if !ok || e.value == nil || !e.value.IsLink() {
		return &AssertionError{Type: a.Type, Expected: "link value " + a.IRI, Actual: "no such link value on the page"}
	}
	v := e.value
	if a.Target != "" && v.TargetIRI != a.Target {
		return &AssertionError{Type: a.Type, Expected: "link to " + a.Target, Actual: "link to " + v.TargetIRI}
	}

	nested := v.Target != nil
	if a.Type == AssertTargetNested && !nested {
		return &AssertionError{Type: a.Type, Expected: v.TargetIRI + " nested under " + a.IRI, Actual: "target omitted"}
	}
	if a.Type == AssertTargetOmitted && nested {
		return &AssertionError{Type: a.Type, Expected: "target of " + a.IRI + " omitted", Actual: v.TargetIRI + " nested"}
	}
	return nil
}

// entry is a resource or value found somewhere on the page.
type entry struct {
	resource *assemble.Resource
	value    *assemble.Value
}

func (e entry) permission() string {
	if e.value != nil {
		return e.value.Permission.String()
	}
	return e.resource.Permission.String()
}

// index collects every resource and value on the page, including nested
// link targets. The first occurrence of an IRI wins.
func index(resources []*assemble.Resource) map[string]entry {
	idx := make(map[string]entry)
	var walk func(r *assemble.Resource)
	walk = func(r *assemble.Resource) {
		if _, ok := idx[r.IRI]; !ok {
			idx[r.IRI] = entry{resource: r}
		}
		for _, vals := range r.Values {
			for _, v := range vals {
				if _, ok := idx[v.IRI]; !ok {
					idx[v.IRI] = entry{value: v}
				}
				if v.Target != nil {
					walk(v.Target)
				}
			}
		}
	}
	for _, r := range resources {
		walk(r)
	}
	return idx
}
