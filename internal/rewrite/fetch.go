package rewrite

import (
	"github.com/roach88/gravsearch/internal/sparql"
	"github.com/roach88/gravsearch/internal/vocab"
)

// Variables of the fetch query.
var (
	MainResourceVariable = sparql.NewVariable("mainResource")

	mainResourcePred = sparql.NewVariable("mainResourcePred")
	mainResourceObj  = sparql.NewVariable("mainResourceObj")
	valueProp        = sparql.NewVariable("valueProp")
	valueObject      = sparql.NewVariable("valueObject")
	valuePermissions = sparql.NewVariable("valuePermissions")
	valueObjectPred  = sparql.NewVariable("valueObjectPred")
	valueObjectObj   = sparql.NewVariable("valueObjectObj")
	standoffNode     = sparql.NewVariable("standoffNode")
	standoffPred     = sparql.NewVariable("standoffPred")
	standoffObj      = sparql.NewVariable("standoffObj")
	linkValueProp    = sparql.NewVariable("linkValueProp")
	linkValue        = sparql.NewVariable("linkValue")
	targetResource   = sparql.NewVariable("targetResource")
	targetPred       = sparql.NewVariable("targetPred")
	targetObj        = sparql.NewVariable("targetObj")
	targetValueProp  = sparql.NewVariable("targetValueProp")
	targetValue      = sparql.NewVariable("targetValue")
	targetValuePerms = sparql.NewVariable("targetValuePermissions")
	targetValuePred  = sparql.NewVariable("targetValuePred")
	targetValueObj   = sparql.NewVariable("targetValueObj")
)

// FetchQuery builds the CONSTRUCT query returning everything the assembler
// needs for the given main resources: their own statements, their values
// with standoff nodes, and the resources their link values point to
// together with those resources' values.
//
// The result asserts "?r rdf:type knora-base:Resource" for every main
// resource and link target, and "?r knora-base:isMainResource true" for
// the main resources only. The filter of the original query is not
// repeated: the IRIs already are the page.
func FetchQuery(iris []string) *sparql.ConstructQuery {
	values := sparql.ValuesPattern{Variable: MainResourceVariable}
	for _, iri := range iris {
		values.Values = append(values.Values, sparql.NewIRI(iri))
	}

	rdfType := sparql.NewIRI(vocab.RDFType)
	resource := sparql.NewIRI(vocab.Resource)
	hasPermissions := sparql.NewIRI(vocab.HasPermissions)

	linkTarget := []sparql.Pattern{
		sparql.NewStatement(MainResourceVariable, linkValueProp, linkValue),
		sparql.NewStatement(linkValue, rdfType, sparql.NewIRI(vocab.LinkValue)),
		notDeleted(linkValue),
		sparql.NewStatement(linkValue, sparql.NewIRI(vocab.RDFObject), targetResource),
		notDeleted(targetResource),
	}

	return &sparql.ConstructQuery{
		Template: []sparql.StatementPattern{
			sparql.NewStatement(MainResourceVariable, sparql.NewIRI(vocab.IsMainResource), sparql.BooleanLiteral(true)),
			sparql.NewStatement(MainResourceVariable, rdfType, resource),
			sparql.NewStatement(MainResourceVariable, mainResourcePred, mainResourceObj),
			sparql.NewStatement(valueObject, valueObjectPred, valueObjectObj),
			sparql.NewStatement(standoffNode, standoffPred, standoffObj),
			sparql.NewStatement(targetResource, rdfType, resource),
			sparql.NewStatement(targetResource, targetPred, targetObj),
			sparql.NewStatement(targetValue, targetValuePred, targetValueObj),
		},
		Where: []sparql.Pattern{
			values,
			notDeleted(MainResourceVariable),
			sparql.UnionPattern{Blocks: [][]sparql.Pattern{
				{
					sparql.NewStatement(MainResourceVariable, mainResourcePred, mainResourceObj),
				},
				{
					sparql.NewStatement(MainResourceVariable, valueProp, valueObject),
					sparql.NewStatement(valueObject, hasPermissions, valuePermissions),
					notDeleted(valueObject),
					sparql.NewStatement(valueObject, valueObjectPred, valueObjectObj),
				},
				{
					sparql.NewStatement(MainResourceVariable, valueProp, valueObject),
					notDeleted(valueObject),
					sparql.NewStatement(valueObject, sparql.NewIRI(vocab.ValueHasStandoff), standoffNode),
					sparql.NewStatement(standoffNode, standoffPred, standoffObj),
				},
				append(append([]sparql.Pattern{}, linkTarget...),
					sparql.NewStatement(targetResource, targetPred, targetObj),
				),
				append(append([]sparql.Pattern{}, linkTarget...),
					sparql.NewStatement(targetResource, targetValueProp, targetValue),
					sparql.NewStatement(targetValue, hasPermissions, targetValuePerms),
					notDeleted(targetValue),
					sparql.NewStatement(targetValue, targetValuePred, targetValueObj),
				),
			}},
		},
	}
}

func notDeleted(e sparql.Entity) sparql.StatementPattern {
	return sparql.StatementPattern{
		Subject:   e,
		Predicate: sparql.NewIRI(vocab.IsDeleted),
		Object:    sparql.BooleanLiteral(false),
		Graph:     vocab.ExplicitGraph,
	}
}
