package rewrite

import (
	"strings"

	"github.com/roach88/gravsearch/internal/sparql"
)

const linkValueSuffix = "__LinkValue"

// fieldVariable names the variable bound to a literal field of v, e.g.
// ?date__valueHasStartJDN.
func fieldVariable(v sparql.Variable, field string) sparql.Variable {
	return sparql.NewVariable(v.Name + "__" + localName(field))
}

// linkValueVariable names the link value reifying "subj prop obj". The
// name is derived from all three parts so that two links never share it.
func linkValueVariable(subj sparql.Entity, propIRI string, obj sparql.Entity) sparql.Variable {
	return sparql.NewVariable(entityName(subj) + "__" + sanitize(localName(propIRI)) + "__" + entityName(obj) + linkValueSuffix)
}

func isLinkValueVariable(v sparql.Variable) bool {
	return strings.HasSuffix(v.Name, linkValueSuffix)
}

func localName(iri string) string {
	if i := strings.LastIndexAny(iri, "#/"); i >= 0 {
		return iri[i+1:]
	}
	return iri
}

func entityName(e sparql.Entity) string {
	switch x := e.(type) {
	case sparql.Variable:
		return x.Name
	case sparql.IRI:
		return sanitize(x.Value)
	case sparql.Literal:
		return sanitize(x.Value)
	}
	return "entity"
}

// sanitize keeps the characters allowed in variable names.
func sanitize(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
