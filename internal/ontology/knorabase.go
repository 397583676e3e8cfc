package ontology

import "github.com/roach88/gravsearch/internal/vocab"

// KnoraBase returns the built-in knora-base definitions every cache starts
// with: the resource and value class hierarchy, resource metadata and the
// literal fields of each value class.
func KnoraBase() Definitions {
	valueClasses := []string{
		vocab.TextValue, vocab.IntValue, vocab.DecimalValue, vocab.BooleanValue,
		vocab.DateValue, vocab.UriValue, vocab.GeonameValue, vocab.ListValue,
		vocab.LinkValue, vocab.ColorValue, vocab.IntervalVal,
	}

	classes := []ClassInfo{
		{IRI: vocab.Resource},
		{IRI: vocab.Value},
		{IRI: vocab.StandoffTag},
	}
	for _, c := range valueClasses {
		classes = append(classes, ClassInfo{IRI: c, SubClassOf: []string{vocab.Value}})
	}

	props := []PropertyInfo{
		{IRI: vocab.HasValue, Domain: vocab.Resource, Range: vocab.Value},
		{IRI: vocab.HasLinkTo, Domain: vocab.Resource, Range: vocab.Resource},
		{IRI: vocab.HasLinkToValue, Domain: vocab.Resource, Range: vocab.LinkValue, SubPropertyOf: []string{vocab.HasValue}},
		{IRI: vocab.HasStandoffLinkTo, Domain: vocab.Resource, Range: vocab.Resource, SubPropertyOf: []string{vocab.HasLinkTo}},
		{IRI: vocab.HasStandoffLinkToValue, Domain: vocab.Resource, Range: vocab.LinkValue, SubPropertyOf: []string{vocab.HasLinkToValue}},
		{IRI: vocab.RDFSLabel, Domain: vocab.Resource, Range: vocab.XSDString},
		{IRI: vocab.CreationDate, Domain: vocab.Resource, Range: vocab.XSDDateTime},
		{IRI: vocab.LastModificationDate, Domain: vocab.Resource, Range: vocab.XSDDateTime},
		{IRI: vocab.AttachedToUser, Range: vocab.XSDAnyURI},
		{IRI: vocab.AttachedToProject, Range: vocab.XSDAnyURI},
		{IRI: vocab.HasPermissions, Range: vocab.XSDString},
		{IRI: vocab.IsDeleted, Range: vocab.XSDBoolean},
		{IRI: vocab.ValueHasString, Domain: vocab.Value, Range: vocab.XSDString},
		{IRI: vocab.ValueHasInteger, Domain: vocab.IntValue, Range: vocab.XSDInteger},
		{IRI: vocab.ValueHasDecimal, Domain: vocab.DecimalValue, Range: vocab.XSDDecimal},
		{IRI: vocab.ValueHasBoolean, Domain: vocab.BooleanValue, Range: vocab.XSDBoolean},
		{IRI: vocab.ValueHasUri, Domain: vocab.UriValue, Range: vocab.XSDAnyURI},
		{IRI: vocab.ValueHasStartJDN, Domain: vocab.DateValue, Range: vocab.XSDInteger},
		{IRI: vocab.ValueHasEndJDN, Domain: vocab.DateValue, Range: vocab.XSDInteger},
		{IRI: vocab.ValueHasCalendar, Domain: vocab.DateValue, Range: vocab.XSDString},
		{IRI: vocab.ValueHasGeonameCode, Domain: vocab.GeonameValue, Range: vocab.XSDString},
		{IRI: vocab.ValueHasListNode, Domain: vocab.ListValue, Range: vocab.ListNode},
		{IRI: vocab.ValueHasColor, Domain: vocab.ColorValue, Range: vocab.XSDString},
		{IRI: vocab.ValueHasOrder, Domain: vocab.TextValue, Range: vocab.XSDInteger},
		{IRI: vocab.ValueHasStandoff, Domain: vocab.TextValue, Range: vocab.StandoffTag},
		{IRI: vocab.RDFObject, Domain: vocab.LinkValue, Range: vocab.Resource},
	}

	return Definitions{
		IRI:        "http://www.knora.org/ontology/knora-base",
		Classes:    classes,
		Properties: props,
	}
}
