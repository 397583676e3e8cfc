package vocab

// ValueKind classifies value classes by how their literal content is
// stored and compared.
type ValueKind int

const (
	// KindNone marks classes that are not value classes.
	KindNone ValueKind = iota
	KindText
	KindInteger
	KindDecimal
	KindBoolean
	KindDate
	KindURI
	KindGeoname
	KindList
	KindLink
	// KindOther covers value classes with no comparable literal field
	// (colors, intervals, files).
	KindOther
)

var kindNames = map[ValueKind]string{
	KindNone:    "none",
	KindText:    "text",
	KindInteger: "integer",
	KindDecimal: "decimal",
	KindBoolean: "boolean",
	KindDate:    "date",
	KindURI:     "uri",
	KindGeoname: "geoname",
	KindList:    "list",
	KindLink:    "link",
	KindOther:   "other",
}

func (k ValueKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

var valueClassKinds = map[string]ValueKind{
	TextValue:    KindText,
	IntValue:     KindInteger,
	DecimalValue: KindDecimal,
	BooleanValue: KindBoolean,
	DateValue:    KindDate,
	UriValue:     KindURI,
	GeonameValue: KindGeoname,
	ListValue:    KindList,
	LinkValue:    KindLink,
	ColorValue:   KindOther,
	IntervalVal:  KindOther,
	Value:        KindOther,
}

// KindOfValueClass returns the kind of a built-in value class.
func KindOfValueClass(class string) (ValueKind, bool) {
	kind, ok := valueClassKinds[class]
	return kind, ok
}

// ValueClassForDatatype maps a simple-schema datatype to the value class
// that stores it internally. XSD types have no single value class.
func ValueClassForDatatype(datatype string) (string, bool) {
	switch datatype {
	case DateDatatype:
		return DateValue, true
	case GeonameDatatype:
		return GeonameValue, true
	case ListNode:
		return ListValue, true
	case ColorDatatype:
		return ColorValue, true
	case IntervalType:
		return IntervalVal, true
	}
	return "", false
}

// LiteralFields lists the predicates holding the comparable literal of a
// value kind. Dates have two: start and end Julian day numbers.
func LiteralFields(kind ValueKind) []string {
	switch kind {
	case KindText:
		return []string{ValueHasString}
	case KindInteger:
		return []string{ValueHasInteger}
	case KindDecimal:
		return []string{ValueHasDecimal}
	case KindBoolean:
		return []string{ValueHasBoolean}
	case KindDate:
		return []string{ValueHasStartJDN, ValueHasEndJDN}
	case KindURI:
		return []string{ValueHasUri}
	case KindGeoname:
		return []string{ValueHasGeonameCode}
	case KindList:
		return []string{ValueHasListNode}
	}
	return nil
}

// SortField is the single field a kind sorts by, or "" if the kind has no
// single-valued literal representation.
func SortField(kind ValueKind) string {
	switch kind {
	case KindText:
		return ValueHasString
	case KindInteger:
		return ValueHasInteger
	case KindDecimal:
		return ValueHasDecimal
	case KindBoolean:
		return ValueHasBoolean
	case KindDate:
		return ValueHasStartJDN
	case KindURI:
		return ValueHasUri
	case KindGeoname:
		return ValueHasGeonameCode
	}
	return ""
}
