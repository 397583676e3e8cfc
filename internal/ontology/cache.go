package ontology

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/gravsearch/internal/vocab"
)

// Cache is an immutable in-memory ontology. It is built once at startup
// and shared by concurrent requests without locking.
type Cache struct {
	properties map[string]PropertyInfo
	classes    map[string]ClassInfo
	ontologies []string
}

// NewCache builds a cache from the knora-base definitions plus defs.
// Every link property (a sub-property of knora-base:hasLinkTo) gets a
// companion link value property "<iri>Value" unless one is declared.
func NewCache(defs ...Definitions) (*Cache, error) {
	c := &Cache{
		properties: make(map[string]PropertyInfo),
		classes:    make(map[string]ClassInfo),
	}

	all := append([]Definitions{KnoraBase()}, defs...)
	for _, d := range all {
		if err := c.add(d); err != nil {
			return nil, err
		}
	}
	c.deriveLinkValueProperties()

	return c, nil
}

// MustNewCache is NewCache for static definitions; it panics on error.
func MustNewCache(defs ...Definitions) *Cache {
	c, err := NewCache(defs...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Cache) add(d Definitions) error {
	for _, cl := range d.Classes {
		if _, dup := c.classes[cl.IRI]; dup {
			return fmt.Errorf("class %s defined twice (ontology %s)", cl.IRI, d.IRI)
		}
		c.classes[cl.IRI] = cl
	}
	for _, p := range d.Properties {
		if _, dup := c.properties[p.IRI]; dup {
			return fmt.Errorf("property %s defined twice (ontology %s)", p.IRI, d.IRI)
		}
		c.properties[p.IRI] = p
	}
	c.ontologies = append(c.ontologies, d.IRI)
	return nil
}

func (c *Cache) deriveLinkValueProperties() {
	// Sorted for deterministic derivation order.
	iris := make([]string, 0, len(c.properties))
	for iri := range c.properties {
		iris = append(iris, iri)
	}
	sort.Strings(iris)

	for _, iri := range iris {
		p := c.properties[iri]
		if iri == vocab.HasLinkTo || !c.IsSubPropertyOf(iri, vocab.HasLinkTo) {
			continue
		}
		valueIRI := iri + "Value"
		if _, exists := c.properties[valueIRI]; exists {
			continue
		}
		c.properties[valueIRI] = PropertyInfo{
			IRI:           valueIRI,
			Domain:        p.Domain,
			Range:         vocab.LinkValue,
			SubPropertyOf: []string{vocab.HasLinkToValue},
		}
	}
}

// Property implements Reader.
func (c *Cache) Property(iri string) (PropertyInfo, bool) {
	p, ok := c.properties[iri]
	return p, ok
}

// Class implements Reader.
func (c *Cache) Class(iri string) (ClassInfo, bool) {
	cl, ok := c.classes[iri]
	return cl, ok
}

// Ontologies lists the IRIs of the loaded ontologies in load order.
func (c *Cache) Ontologies() []string {
	return append([]string(nil), c.ontologies...)
}

// IsSubClassOf implements Reader.
func (c *Cache) IsSubClassOf(class, ancestor string) bool {
	return c.reaches(class, ancestor, func(iri string) []string {
		return c.classes[iri].SubClassOf
	})
}

// IsSubPropertyOf reports whether prop equals ancestor or descends from it.
func (c *Cache) IsSubPropertyOf(prop, ancestor string) bool {
	return c.reaches(prop, ancestor, func(iri string) []string {
		return c.properties[iri].SubPropertyOf
	})
}

func (c *Cache) reaches(from, to string, parents func(string) []string) bool {
	visited := make(map[string]bool)
	stack := []string{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == to {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		stack = append(stack, parents(cur)...)
	}
	return false
}

// specificValueClasses is checked before the generic knora-base:Value.
var specificValueClasses = []string{
	vocab.TextValue, vocab.IntValue, vocab.DecimalValue, vocab.BooleanValue,
	vocab.DateValue, vocab.UriValue, vocab.GeonameValue, vocab.ListValue,
	vocab.LinkValue, vocab.ColorValue, vocab.IntervalVal,
}

// ValueKindOf classifies class by the built-in value class it descends
// from. Non-value classes yield vocab.KindNone.
func ValueKindOf(r Reader, class string) vocab.ValueKind {
	for _, vc := range specificValueClasses {
		if r.IsSubClassOf(class, vc) {
			kind, _ := vocab.KindOfValueClass(vc)
			return kind
		}
	}
	if r.IsSubClassOf(class, vocab.Value) {
		return vocab.KindOther
	}
	return vocab.KindNone
}

// IsResourceClass reports whether class descends from knora-base:Resource.
func IsResourceClass(r Reader, class string) bool {
	return r.IsSubClassOf(class, vocab.Resource)
}

// ResolveName expands a name used in ontology definitions: full IRIs are
// kept, well-known prefixes expanded, bare names resolved against the
// ontology IRI.
func ResolveName(ontologyIRI, name string) string {
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name
	}
	if iri, ok := vocab.ExpandPrefixed(name); ok {
		return iri
	}
	return ontologyIRI + "#" + name
}
