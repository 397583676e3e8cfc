package ontology

// PropertyInfo describes a property as declared in an ontology.
type PropertyInfo struct {
	IRI           string   `json:"iri"`
	Domain        string   `json:"domain,omitempty"`
	Range         string   `json:"range,omitempty"`
	SubPropertyOf []string `json:"sub_property_of,omitempty"`
}

// ClassInfo describes a class as declared in an ontology.
type ClassInfo struct {
	IRI        string   `json:"iri"`
	SubClassOf []string `json:"sub_class_of,omitempty"`
}

// Definitions is the content of one ontology.
type Definitions struct {
	IRI        string         `json:"iri"`
	Classes    []ClassInfo    `json:"classes"`
	Properties []PropertyInfo `json:"properties"`
}

// Reader looks up ontology entities. Implementations must be safe for
// concurrent use.
type Reader interface {
	Property(iri string) (PropertyInfo, bool)
	Class(iri string) (ClassInfo, bool)

	// IsSubClassOf reports whether class equals ancestor or descends from it.
	IsSubClassOf(class, ancestor string) bool
}
