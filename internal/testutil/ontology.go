package testutil

import (
	"github.com/roach88/gravsearch/internal/ontology"
	"github.com/roach88/gravsearch/internal/vocab"
)

// Incunabula is the internal namespace of the incunabula test ontology.
const Incunabula = "http://www.knora.org/ontology/0803/incunabula#"

// IncunabulaProject is the project owning incunabula data.
const IncunabulaProject = "http://rdfh.ch/projects/0803"

// IncunabulaDefinitions returns a small incunabula ontology: books with
// text, date, decimal, boolean, geoname, list and URI values, pages
// linked to their book, and books linked to each other.
func IncunabulaDefinitions() ontology.Definitions {
	book, page := Incunabula+"book", Incunabula+"page"

	value := func(name, domain, rng string) ontology.PropertyInfo {
		return ontology.PropertyInfo{
			IRI:           Incunabula + name,
			Domain:        domain,
			Range:         rng,
			SubPropertyOf: []string{vocab.HasValue},
		}
	}
	link := func(name, domain, rng string) ontology.PropertyInfo {
		return ontology.PropertyInfo{
			IRI:           Incunabula + name,
			Domain:        domain,
			Range:         rng,
			SubPropertyOf: []string{vocab.HasLinkTo},
		}
	}

	return ontology.Definitions{
		IRI: "http://www.knora.org/ontology/0803/incunabula",
		Classes: []ontology.ClassInfo{
			{IRI: book, SubClassOf: []string{vocab.Resource}},
			{IRI: page, SubClassOf: []string{vocab.Resource}},
		},
		Properties: []ontology.PropertyInfo{
			value("title", book, vocab.TextValue),
			value("pubdate", book, vocab.DateValue),
			value("publisher", book, vocab.TextValue),
			value("price", book, vocab.DecimalValue),
			value("printed", book, vocab.BooleanValue),
			value("origin", book, vocab.GeonameValue),
			value("genre", book, vocab.ListValue),
			value("url", book, vocab.UriValue),
			link("seeAlso", book, book),
			value("pagenum", page, vocab.TextValue),
			value("seqnum", page, vocab.IntValue),
			link("partOf", page, book),
		},
	}
}

// IncunabulaCache returns an ontology cache holding knora-base and the
// incunabula ontology.
func IncunabulaCache() *ontology.Cache {
	return ontology.MustNewCache(IncunabulaDefinitions())
}
