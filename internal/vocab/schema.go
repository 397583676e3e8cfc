package vocab

import (
	"fmt"
	"strings"
)

// Schema identifies which surface vocabulary a query was written in.
// The tag is checked once by the parser and erased afterwards.
type Schema int

const (
	// SchemaNone means the IRI belongs to no Knora API ontology.
	SchemaNone Schema = iota
	// SchemaSimple is the simplified vocabulary where values are literals.
	SchemaSimple
	// SchemaComplex is the fully-qualified vocabulary with value objects.
	SchemaComplex
)

func (s Schema) String() string {
	switch s {
	case SchemaSimple:
		return "simple"
	case SchemaComplex:
		return "complex"
	default:
		return "none"
	}
}

// apiOntologyMarker separates the host from the ontology path in API IRIs.
const apiOntologyMarker = "/ontology/"

// complexAccessors renames the complex schema's value accessor properties
// to the internal literal fields they are stored under.
var complexAccessors = map[string]string{
	"valueAsString":             "valueHasString",
	"intValueAsInt":             "valueHasInteger",
	"decimalValueAsDecimal":     "valueHasDecimal",
	"booleanValueAsBoolean":     "valueHasBoolean",
	"uriValueAsUri":             "valueHasUri",
	"geonameValueAsGeonameCode": "valueHasGeonameCode",
	"listValueAsListNode":       "valueHasListNode",
	"colorValueAsColor":         "valueHasColor",
}

// complexToRDF maps complex accessors that resolve to RDF vocabulary.
var complexToRDF = map[string]string{
	"linkValueHasTarget":    RDFObject,
	"linkValueHasTargetIri": RDFObject,
}

// ToInternal converts an IRI from client query text to its internal form.
//
// API ontology IRIs (http://<host>/ontology/[<shortcode>/]<name>[/simple]/v2#X)
// map to http://www.knora.org/ontology/[<shortcode>/]<name>#X, with the
// knora-api ontology mapping to knora-base. The schema the IRI belongs to is
// returned alongside. IRIs outside any API ontology are returned unchanged
// with SchemaNone. Internal ontology IRIs are rejected: clients must never
// address the internal vocabulary directly.
func ToInternal(iri string) (string, Schema, error) {
	if strings.HasPrefix(iri, InternalOntologyPrefix) {
		return "", SchemaNone, fmt.Errorf("internal ontology IRI not allowed in query: <%s>", iri)
	}

	if !strings.HasPrefix(iri, "http://") && !strings.HasPrefix(iri, "https://") {
		return iri, SchemaNone, nil
	}

	markerAt := strings.Index(iri, apiOntologyMarker)
	hashAt := strings.LastIndexByte(iri, '#')
	if markerAt < 0 || hashAt < markerAt {
		return iri, SchemaNone, nil
	}

	path := iri[markerAt+len(apiOntologyMarker) : hashAt]
	local := iri[hashAt+1:]

	if !strings.HasSuffix(path, "/v2") {
		return iri, SchemaNone, nil
	}
	path = strings.TrimSuffix(path, "/v2")

	schema := SchemaComplex
	if strings.HasSuffix(path, "/simple") {
		schema = SchemaSimple
		path = strings.TrimSuffix(path, "/simple")
	}
	if path == "" {
		return iri, SchemaNone, nil
	}

	if path == "knora-api" {
		if schema == SchemaComplex {
			if rdf, ok := complexToRDF[local]; ok {
				return rdf, schema, nil
			}
			if renamed, ok := complexAccessors[local]; ok {
				local = renamed
			}
		}
		return KnoraBaseNamespace + local, schema, nil
	}

	return InternalOntologyPrefix + path + "#" + local, schema, nil
}

// IsLiteralDatatype reports whether iri names a datatype rather than a
// class: every XSD type plus the simple schema's Date, Geoname, Color and
// Interval, and ListNode when used as a datatype.
func IsLiteralDatatype(iri string) bool {
	if strings.HasPrefix(iri, XSDNamespace) {
		return true
	}
	switch iri {
	case DateDatatype, GeonameDatatype, ColorDatatype, IntervalType, ListNode, RDFLangString:
		return true
	}
	return false
}
