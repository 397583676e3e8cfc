// Package assemble turns the statements returned by a fetch query into
// permission-filtered resource trees.
//
// A resource the requester cannot see is dropped together with its values.
// A value is kept only if the requester can see it, and a link value only
// if the requester can also see its target. Standoff link values are the
// exception: they are always kept, because the text they belong to already
// shows that the link exists.
//
// Link targets are nested under the link value that points to them. Each
// path from a main resource carries its own visited set, so a cycle ends at
// the first repeated resource and sibling branches still nest shared
// targets.
package assemble

import (
	"fmt"
	"sort"

	"github.com/roach88/gravsearch/internal/permission"
	"github.com/roach88/gravsearch/internal/rdf"
	"github.com/roach88/gravsearch/internal/vocab"
)

// Assemble groups triples into resources, removes what id may not see and
// returns the visible main resources keyed by IRI.
//
// An unknown permission abbreviation in any literal fails the whole call
// with an INTERNAL_INCONSISTENCY error.
func Assemble(triples []rdf.Triple, id permission.Identity) (map[string]*Resource, error) {
	a := &assembler{
		graph:     group(triples),
		id:        id,
		resources: make(map[string]bool),
		visible:   make(map[string]*node),
	}

	if err := a.evaluateResources(); err != nil {
		return nil, err
	}
	for _, iri := range a.graph.order {
		n, ok := a.visible[iri]
		if !ok {
			continue
		}
		if err := a.collectValues(n); err != nil {
			return nil, err
		}
	}

	out := make(map[string]*Resource)
	for _, iri := range a.graph.order {
		if n, ok := a.visible[iri]; ok && n.isMain {
			out[iri] = a.build(iri, make(map[string]bool))
		}
	}
	return out, nil
}

// MainResources returns the IRIs of every main resource in triples, in store
// order, regardless of permissions.
func MainResources(triples []rdf.Triple) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range triples {
		if t.Predicate != vocab.IsMainResource || seen[t.Subject] {
			continue
		}
		if b, ok := t.Object.Bool(); ok && b {
			seen[t.Subject] = true
			out = append(out, t.Subject)
		}
	}
	return out
}

type graph struct {
	subjects map[string][]Assertion
	order    []string
}

func group(triples []rdf.Triple) *graph {
	g := &graph{subjects: make(map[string][]Assertion)}
	for _, t := range triples {
		if _, ok := g.subjects[t.Subject]; !ok {
			g.order = append(g.order, t.Subject)
		}
		g.subjects[t.Subject] = append(g.subjects[t.Subject], Assertion{Predicate: t.Predicate, Object: t.Object})
	}
	return g
}

// node is a visible resource before nesting. Its link values carry
// TargetIRI but no Target.
type node struct {
	iri        string
	class      string
	isMain     bool
	project    string
	assertions []Assertion
	values     map[string][]*Value
	permission permission.Code
}

type assembler struct {
	graph *graph
	id    permission.Identity

	// resources holds every resource subject, visible or not.
	resources map[string]bool
	visible   map[string]*node
}

func (a *assembler) evaluateResources() error {
	for _, iri := range a.graph.order {
		assertions := a.graph.subjects[iri]
		if !hasType(assertions, vocab.Resource) {
			continue
		}
		a.resources[iri] = true

		project := iriOf(assertions, vocab.AttachedToProject)
		code, ok, err := a.granted(assertions, project)
		if err != nil {
			return fmt.Errorf("resource <%s>: %w", iri, err)
		}
		if !ok {
			continue
		}

		a.visible[iri] = &node{
			iri:        iri,
			class:      resourceClass(assertions),
			isMain:     isMain(assertions),
			project:    project,
			permission: code,
		}
	}
	return nil
}

// collectValues splits the statements of n into plain assertions and
// visible values.
func (a *assembler) collectValues(n *node) error {
	n.values = make(map[string][]*Value)
	for _, as := range a.graph.subjects[n.iri] {
		if as.Predicate == vocab.IsMainResource {
			continue
		}
		if as.Predicate == vocab.RDFType && as.Object.IsIRI() && as.Object.Value == vocab.Resource {
			continue
		}

		if a.isHiddenResource(as.Object) {
			continue
		}
		if !a.isValueObject(as.Object) {
			n.assertions = append(n.assertions, as)
			continue
		}

		v, ok, err := a.value(n, as.Predicate, as.Object.Value)
		if err != nil {
			return fmt.Errorf("value <%s> of <%s>: %w", as.Object.Value, n.iri, err)
		}
		if ok {
			n.values[as.Predicate] = append(n.values[as.Predicate], v)
		}
	}

	for _, vals := range n.values {
		sort.SliceStable(vals, func(i, j int) bool {
			oi, iok := order(vals[i])
			oj, jok := order(vals[j])
			if iok && jok {
				return oi < oj
			}
			return iok && !jok
		})
	}
	return nil
}

// isHiddenResource reports whether t is a resource the requester cannot
// see. Direct links to it are dropped along with the link value.
func (a *assembler) isHiddenResource(t rdf.Term) bool {
	if !t.IsIRI() || !a.resources[t.Value] {
		return false
	}
	_, ok := a.visible[t.Value]
	return !ok
}

// isValueObject reports whether t names a fetched subject that is not a
// resource, which in a fetch result can only be a value.
func (a *assembler) isValueObject(t rdf.Term) bool {
	if !t.IsIRI() || a.resources[t.Value] {
		return false
	}
	_, ok := a.graph.subjects[t.Value]
	return ok
}

func (a *assembler) value(res *node, property, iri string) (*Value, bool, error) {
	assertions := a.graph.subjects[iri]
	v := &Value{IRI: iri, Property: property}

	for _, as := range assertions {
		switch as.Predicate {
		case vocab.RDFType:
			if v.Class == "" && as.Object.IsIRI() {
				v.Class = as.Object.Value
			}
			continue
		case vocab.RDFObject:
			if as.Object.IsIRI() {
				v.TargetIRI = as.Object.Value
			}
		case vocab.ValueHasStandoff:
			if as.Object.IsIRI() {
				if v.Standoff == nil {
					v.Standoff = make(map[string][]Assertion)
				}
				v.Standoff[as.Object.Value] = a.graph.subjects[as.Object.Value]
			}
		}
		v.Assertions = append(v.Assertions, as)
	}

	// Values belong to the project of their resource.
	code, ok, err := a.granted(assertions, res.project)
	if err != nil {
		return nil, false, err
	}
	v.Permission = code

	if property == vocab.HasStandoffLinkToValue {
		return v, true, nil
	}
	if !ok {
		return nil, false, nil
	}
	if v.IsLink() {
		if _, visible := a.visible[v.TargetIRI]; !visible {
			return nil, false, nil
		}
	}
	return v, true, nil
}

// granted evaluates the permission literal of a subject. A subject without
// a literal grants nothing.
func (a *assembler) granted(assertions []Assertion, project string) (permission.Code, bool, error) {
	literal, ok := First(assertions, vocab.HasPermissions)
	if !ok || !literal.IsLiteral() {
		return 0, false, nil
	}
	owner := iriOf(assertions, vocab.AttachedToUser)
	return permission.GrantedLevel(owner, project, literal.Value, a.id)
}

// build copies the visible resource iri and nests its link targets. path
// holds the resources between the main resource and iri.
func (a *assembler) build(iri string, path map[string]bool) *Resource {
	n := a.visible[iri]
	path[iri] = true
	defer delete(path, iri)

	r := &Resource{
		IRI:        n.iri,
		Class:      n.class,
		IsMain:     n.isMain,
		Assertions: n.assertions,
		Values:     make(map[string][]*Value, len(n.values)),
		Permission: n.permission,
	}
	for property, vals := range n.values {
		out := make([]*Value, len(vals))
		for i, v := range vals {
			c := *v
			if c.IsLink() && !path[c.TargetIRI] {
				if _, ok := a.visible[c.TargetIRI]; ok {
					c.Target = a.build(c.TargetIRI, path)
				}
			}
			out[i] = &c
		}
		r.Values[property] = out
	}
	return r
}

func hasType(assertions []Assertion, class string) bool {
	for _, t := range Objects(assertions, vocab.RDFType) {
		if t.IsIRI() && t.Value == class {
			return true
		}
	}
	return false
}

func resourceClass(assertions []Assertion) string {
	for _, t := range Objects(assertions, vocab.RDFType) {
		if t.IsIRI() && t.Value != vocab.Resource {
			return t.Value
		}
	}
	return vocab.Resource
}

func isMain(assertions []Assertion) bool {
	t, ok := First(assertions, vocab.IsMainResource)
	if !ok {
		return false
	}
	b, ok := t.Bool()
	return ok && b
}

func iriOf(assertions []Assertion, predicate string) string {
	t, ok := First(assertions, predicate)
	if !ok {
		return ""
	}
	return t.Value
}

func order(v *Value) (int64, bool) {
	t, ok := First(v.Assertions, vocab.ValueHasOrder)
	if !ok {
		return 0, false
	}
	return t.Int()
}
