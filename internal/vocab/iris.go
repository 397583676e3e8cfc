package vocab

// Namespaces used by the engine. Internal IRIs always use the knora-base
// namespace; the API namespaces only appear in client query text.
const (
	RDFNamespace        = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace       = "http://www.w3.org/2000/01/rdf-schema#"
	XSDNamespace        = "http://www.w3.org/2001/XMLSchema#"
	OWLNamespace        = "http://www.w3.org/2002/07/owl#"
	KnoraBaseNamespace  = "http://www.knora.org/ontology/knora-base#"
	KnoraAdminNamespace = "http://www.knora.org/ontology/knora-admin#"

	// InternalOntologyPrefix starts every internal ontology IRI.
	InternalOntologyPrefix = "http://www.knora.org/ontology/"

	KnoraAPIComplexNamespace = "http://api.knora.org/ontology/knora-api/v2#"
	KnoraAPISimpleNamespace  = "http://api.knora.org/ontology/knora-api/simple/v2#"

	// ExplicitGraph restricts a pattern to asserted, non-inferred statements.
	ExplicitGraph = "http://www.ontotext.com/explicit"
)

// RDF, RDFS and XSD terms.
const (
	RDFType         = RDFNamespace + "type"
	RDFObject       = RDFNamespace + "object"
	RDFLangString   = RDFNamespace + "langString"
	RDFSLabel       = RDFSNamespace + "label"
	RDFSSubClassOf  = RDFSNamespace + "subClassOf"
	XSDString       = XSDNamespace + "string"
	XSDInteger      = XSDNamespace + "integer"
	XSDDecimal      = XSDNamespace + "decimal"
	XSDBoolean      = XSDNamespace + "boolean"
	XSDAnyURI       = XSDNamespace + "anyURI"
	XSDDateTime     = XSDNamespace + "dateTime"
	XSDDateTimeStmp = XSDNamespace + "dateTimeStamp"
)

// knora-base classes.
const (
	Resource     = KnoraBaseNamespace + "Resource"
	Value        = KnoraBaseNamespace + "Value"
	TextValue    = KnoraBaseNamespace + "TextValue"
	IntValue     = KnoraBaseNamespace + "IntValue"
	DecimalValue = KnoraBaseNamespace + "DecimalValue"
	BooleanValue = KnoraBaseNamespace + "BooleanValue"
	DateValue    = KnoraBaseNamespace + "DateValue"
	UriValue     = KnoraBaseNamespace + "UriValue"
	GeonameValue = KnoraBaseNamespace + "GeonameValue"
	ListValue    = KnoraBaseNamespace + "ListValue"
	LinkValue    = KnoraBaseNamespace + "LinkValue"
	ColorValue   = KnoraBaseNamespace + "ColorValue"
	IntervalVal  = KnoraBaseNamespace + "IntervalValue"
	StandoffTag  = KnoraBaseNamespace + "StandoffTag"
	ListNode     = KnoraBaseNamespace + "ListNode"

	// Datatypes of the simple schema, kept in the knora-base namespace after
	// conversion so they stay distinguishable from the value classes.
	DateDatatype    = KnoraBaseNamespace + "Date"
	GeonameDatatype = KnoraBaseNamespace + "Geoname"
	ColorDatatype   = KnoraBaseNamespace + "Color"
	IntervalType    = KnoraBaseNamespace + "Interval"
)

// knora-base properties.
const (
	HasValue               = KnoraBaseNamespace + "hasValue"
	HasLinkTo              = KnoraBaseNamespace + "hasLinkTo"
	HasLinkToValue         = KnoraBaseNamespace + "hasLinkToValue"
	HasStandoffLinkTo      = KnoraBaseNamespace + "hasStandoffLinkTo"
	HasStandoffLinkToValue = KnoraBaseNamespace + "hasStandoffLinkToValue"
	IsMainResource         = KnoraBaseNamespace + "isMainResource"
	IsDeleted              = KnoraBaseNamespace + "isDeleted"
	AttachedToUser         = KnoraBaseNamespace + "attachedToUser"
	AttachedToProject      = KnoraBaseNamespace + "attachedToProject"
	HasPermissions         = KnoraBaseNamespace + "hasPermissions"
	CreationDate           = KnoraBaseNamespace + "creationDate"
	LastModificationDate   = KnoraBaseNamespace + "lastModificationDate"
	ValueCreationDate      = KnoraBaseNamespace + "valueCreationDate"
	ValueHasString         = KnoraBaseNamespace + "valueHasString"
	ValueHasInteger        = KnoraBaseNamespace + "valueHasInteger"
	ValueHasDecimal        = KnoraBaseNamespace + "valueHasDecimal"
	ValueHasBoolean        = KnoraBaseNamespace + "valueHasBoolean"
	ValueHasUri            = KnoraBaseNamespace + "valueHasUri"
	ValueHasStartJDN       = KnoraBaseNamespace + "valueHasStartJDN"
	ValueHasEndJDN         = KnoraBaseNamespace + "valueHasEndJDN"
	ValueHasCalendar       = KnoraBaseNamespace + "valueHasCalendar"
	ValueHasGeonameCode    = KnoraBaseNamespace + "valueHasGeonameCode"
	ValueHasListNode       = KnoraBaseNamespace + "valueHasListNode"
	ValueHasColor          = KnoraBaseNamespace + "valueHasColor"
	ValueHasStandoff       = KnoraBaseNamespace + "valueHasStandoff"
	ValueHasOrder          = KnoraBaseNamespace + "valueHasOrder"
	ValueHasRefCount       = KnoraBaseNamespace + "valueHasRefCount"
)

// Built-in groups. Permission literals abbreviate these with the
// "knora-admin:" prefix.
const (
	UnknownUser   = KnoraAdminNamespace + "UnknownUser"
	KnownUser     = KnoraAdminNamespace + "KnownUser"
	ProjectMember = KnoraAdminNamespace + "ProjectMember"
	ProjectAdmin  = KnoraAdminNamespace + "ProjectAdmin"
	Creator       = KnoraAdminNamespace + "Creator"
	SystemAdmin   = KnoraAdminNamespace + "SystemAdmin"
)

// Prefixes are the well-known namespace abbreviations, in the order they
// are declared at the top of generated queries.
var Prefixes = []Prefix{
	{Name: "rdf", Namespace: RDFNamespace},
	{Name: "rdfs", Namespace: RDFSNamespace},
	{Name: "xsd", Namespace: XSDNamespace},
	{Name: "knora-base", Namespace: KnoraBaseNamespace},
}

// Prefix pairs an abbreviation with its namespace.
type Prefix struct {
	Name      string
	Namespace string
}

// ExpandPrefixed expands "rdf:type" style names using the well-known
// prefixes plus knora-admin and owl. Unprefixed or unknown names are
// returned unchanged with ok=false.
func ExpandPrefixed(name string) (string, bool) {
	for i := 0; i < len(name); i++ {
		if name[i] != ':' {
			continue
		}
		prefix, local := name[:i], name[i+1:]
		switch prefix {
		case "rdf":
			return RDFNamespace + local, true
		case "rdfs":
			return RDFSNamespace + local, true
		case "xsd":
			return XSDNamespace + local, true
		case "owl":
			return OWLNamespace + local, true
		case "knora-base":
			return KnoraBaseNamespace + local, true
		case "knora-admin":
			return KnoraAdminNamespace + local, true
		}
		return name, false
	}
	return name, false
}
