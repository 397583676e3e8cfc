package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gravsearch/internal/queryerr"
)

// Scenario is one Gravsearch request run against a scripted triplestore.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Ontology lists CUE ontology directories, relative to the scenario
	// file. They are imported into the scenario's store.
	Ontology []string `yaml:"ontology"`

	// Prefixes expand "prefix:local" names in IRIs throughout the scenario.
	Prefixes map[string]string `yaml:"prefixes,omitempty"`

	// Users are registered before the request runs.
	Users []User `yaml:"users,omitempty"`

	// User is the requester. Empty means anonymous.
	User string `yaml:"user,omitempty"`

	Query string `yaml:"query"`

	// Page overrides the query's OFFSET when set.
	Page *int `yaml:"page,omitempty"`

	// PageSize overrides the default of 25 main resources per page.
	PageSize int `yaml:"page_size,omitempty"`

	Store StoreScript `yaml:"store"`

	Expect Expect `yaml:"expect"`

	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RequestID is fixed for deterministic output. Defaults to
	// "test-request".
	RequestID string `yaml:"request_id,omitempty"`
}

// User registers a requester in the scenario's store.
type User struct {
	IRI         string `yaml:"iri"`
	SystemAdmin bool   `yaml:"system_admin,omitempty"`

	// Groups maps project IRI to group names. knora-admin: abbreviations
	// are accepted.
	Groups map[string][]string `yaml:"groups,omitempty"`

	AdminAll []string `yaml:"admin_all,omitempty"`
}

// StoreScript scripts the triplestore's answers.
type StoreScript struct {
	// Prequery lists the main resource IRIs the page prequery returns.
	Prequery []string `yaml:"prequery"`

	// Count is the answer to the count query. Nil skips the count request.
	Count *int `yaml:"count,omitempty"`

	// Resources make up the answer to the fetch query.
	Resources []ResourceFixture `yaml:"resources,omitempty"`

	// Fail makes every triplestore call fail with this message.
	Fail string `yaml:"fail,omitempty"`
}

// ResourceFixture is a resource with its values as the fetch query
// returns it.
type ResourceFixture struct {
	IRI         string `yaml:"iri"`
	Class       string `yaml:"class"`
	Owner       string `yaml:"owner"`
	Project     string `yaml:"project,omitempty"`
	Permissions string `yaml:"permissions"`
	Main        bool   `yaml:"main,omitempty"`

	Values []ValueFixture `yaml:"values,omitempty"`
	Links  []LinkFixture  `yaml:"links,omitempty"`
}

// ValueFixture is a text value.
type ValueFixture struct {
	Property    string `yaml:"property"`
	IRI         string `yaml:"iri"`
	Text        string `yaml:"text"`
	Owner       string `yaml:"owner"`
	Permissions string `yaml:"permissions"`
}

// LinkFixture is a link to another resource, stored as the direct
// statement plus a link value.
type LinkFixture struct {
	Property    string `yaml:"property"`
	IRI         string `yaml:"iri"`
	Target      string `yaml:"target"`
	Owner       string `yaml:"owner"`
	Permissions string `yaml:"permissions"`
}

// Expect is checked against the engine's answer.
type Expect struct {
	// Error is the expected queryerr code. When set, the search must fail.
	Error string `yaml:"error,omitempty"`

	// MainResources lists the visible main resources in page order.
	MainResources []string `yaml:"main_resources,omitempty"`

	Filtered *int `yaml:"filtered,omitempty"`

	MayHaveMore *bool `yaml:"may_have_more,omitempty"`

	// Count is the expected number of matching resources. Requires
	// store.count.
	Count *int `yaml:"count,omitempty"`
}

// Assertion checks one detail of the outcome.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Query selects the generated query for query_contains and
	// query_absent: "prequery", "count" or "fetch".
	Query string `yaml:"query,omitempty"`

	// Text must (or must not) appear in the query.
	Text string `yaml:"text,omitempty"`

	// IRI names a resource or value on the page.
	IRI string `yaml:"iri,omitempty"`

	// Permission is the expected level abbreviation (RV, V, M, D, CR).
	Permission string `yaml:"permission,omitempty"`

	// Target is the resource a link value must nest (target_nested).
	Target string `yaml:"target,omitempty"`
}

// Assertion type constants.
const (
	AssertQueryContains = "query_contains"
	AssertQueryAbsent   = "query_absent"
	AssertPermission    = "permission"
	AssertHidden        = "hidden"
	AssertTargetNested  = "target_nested"
	AssertTargetOmitted = "target_omitted"
)

// Query selectors for query assertions.
const (
	QueryPrequery = "prequery"
	QueryCount    = "count"
	QueryFetch    = "fetch"
)

// LoadScenario reads a scenario file. Unknown fields are rejected, and
// ontology paths are resolved relative to the file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// KnownFields catches typos like "assertion:" for "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, dir := range scenario.Ontology {
		if !filepath.IsAbs(dir) {
			scenario.Ontology[i] = filepath.Join(base, dir)
		}
	}

	scenario.expandPrefixes()

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// expand resolves a "prefix:local" name. Anything else, including full
// IRIs, is returned unchanged.
func (s *Scenario) expand(name string) string {
	prefix, local, ok := strings.Cut(name, ":")
	if !ok || strings.HasPrefix(local, "//") {
		return name
	}
	if ns, ok := s.Prefixes[prefix]; ok {
		return ns + local
	}
	return name
}

func (s *Scenario) expandPrefixes() {
	if len(s.Prefixes) == 0 {
		return
	}
	expandAll := func(names []string) {
		for i, n := range names {
			names[i] = s.expand(n)
		}
	}

	s.User = s.expand(s.User)
	for i := range s.Users {
		s.Users[i].IRI = s.expand(s.Users[i].IRI)
	}
	expandAll(s.Store.Prequery)
	expandAll(s.Expect.MainResources)
	for i := range s.Store.Resources {
		r := &s.Store.Resources[i]
		r.IRI, r.Class, r.Owner = s.expand(r.IRI), s.expand(r.Class), s.expand(r.Owner)
		for j := range r.Values {
			v := &r.Values[j]
			v.Property, v.IRI, v.Owner = s.expand(v.Property), s.expand(v.IRI), s.expand(v.Owner)
		}
		for j := range r.Links {
			l := &r.Links[j]
			l.Property, l.IRI, l.Target, l.Owner = s.expand(l.Property), s.expand(l.IRI), s.expand(l.Target), s.expand(l.Owner)
		}
	}
	for i := range s.Assertions {
		a := &s.Assertions[i]
		a.IRI, a.Target = s.expand(a.IRI), s.expand(a.Target)
	}
}

var knownErrorCodes = map[queryerr.Code]bool{
	queryerr.CodeParse:        true,
	queryerr.CodeSchema:       true,
	queryerr.CodeBadRequest:   true,
	queryerr.CodeInternal:     true,
	queryerr.CodeStoreTimeout: true,
	queryerr.CodeStoreFailure: true,
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if strings.TrimSpace(s.Query) == "" {
		return fmt.Errorf("query is required")
	}
	for _, dir := range s.Ontology {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("ontology directory not found: %s", dir)
		}
	}
	if s.Page != nil && *s.Page < 0 && s.Expect.Error == "" {
		return fmt.Errorf("page must not be negative")
	}
	if s.PageSize < 0 {
		return fmt.Errorf("page_size must not be negative")
	}
	if s.Expect.Error != "" && !knownErrorCodes[queryerr.Code(s.Expect.Error)] {
		return fmt.Errorf("expect.error: unknown error code %q", s.Expect.Error)
	}
	if s.Expect.Count != nil && s.Store.Count == nil {
		return fmt.Errorf("expect.count requires store.count")
	}

	for i, u := range s.Users {
		if u.IRI == "" {
			return fmt.Errorf("users[%d]: iri is required", i)
		}
	}
	for i, r := range s.Store.Resources {
		if r.IRI == "" || r.Class == "" {
			return fmt.Errorf("store.resources[%d]: iri and class are required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertQueryContains, AssertQueryAbsent:
		switch a.Query {
		case QueryPrequery, QueryCount, QueryFetch:
		default:
			return fmt.Errorf("assertions[%d]: query must be prequery, count or fetch, got %q", index, a.Query)
		}
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertPermission:
		if a.IRI == "" || a.Permission == "" {
			return fmt.Errorf("assertions[%d]: iri and permission are required for permission", index)
		}
	case AssertHidden:
		if a.IRI == "" {
			return fmt.Errorf("assertions[%d]: iri is required for hidden", index)
		}
	case AssertTargetNested, AssertTargetOmitted:
		if a.IRI == "" {
			return fmt.Errorf("assertions[%d]: iri is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
