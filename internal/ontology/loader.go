package ontology

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// Ontologies are declared in CUE under the top-level "ontology" struct:
//
//	ontology: incunabula: {
//		iri: "http://www.knora.org/ontology/0803/incunabula"
//		classes: book: subClassOf: ["knora-base:Resource"]
//		properties: title: {
//			domain:        "book"
//			range:         "knora-base:TextValue"
//			subPropertyOf: ["knora-base:hasValue"]
//		}
//	}
//
// Names are resolved with ResolveName against the ontology IRI.

// LoadError is an ontology loading failure with its CUE position, if known.
type LoadError struct {
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

type cueClass struct {
	SubClassOf []string `json:"subClassOf"`
}

type cueProperty struct {
	Domain        string   `json:"domain"`
	Range         string   `json:"range"`
	SubPropertyOf []string `json:"subPropertyOf"`
}

type cueOntology struct {
	IRI        string                 `json:"iri"`
	Classes    map[string]cueClass    `json:"classes"`
	Properties map[string]cueProperty `json:"properties"`
}

// LoadDir loads every ontology declared in the CUE package in dir.
func LoadDir(dir string) ([]Definitions, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("ontology directory not accessible: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("scanning %s: %v", dir, err)}
	}
	if len(matches) == 0 {
		return nil, &LoadError{Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, cueError(inst.Err)
	}

	return decode(ctx.BuildInstance(inst))
}

// LoadSource loads ontologies from CUE source text.
func LoadSource(filename, src string) ([]Definitions, error) {
	ctx := cuecontext.New()
	return decode(ctx.CompileString(src, cue.Filename(filename)))
}

func decode(v cue.Value) ([]Definitions, error) {
	if err := v.Err(); err != nil {
		return nil, cueError(err)
	}

	root := v.LookupPath(cue.ParsePath("ontology"))
	if !root.Exists() {
		return nil, &LoadError{Message: "no ontology declared", Pos: v.Pos()}
	}

	var raw map[string]cueOntology
	if err := root.Decode(&raw); err != nil {
		return nil, cueError(err)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]Definitions, 0, len(names))
	for _, name := range names {
		o := raw[name]
		if o.IRI == "" {
			pos := root.LookupPath(cue.MakePath(cue.Str(name))).Pos()
			return nil, &LoadError{Message: fmt.Sprintf("ontology %s: iri is required", name), Pos: pos}
		}
		defs = append(defs, convert(o))
	}
	return defs, nil
}

func convert(o cueOntology) Definitions {
	d := Definitions{IRI: o.IRI}

	classNames := make([]string, 0, len(o.Classes))
	for name := range o.Classes {
		classNames = append(classNames, name)
	}
	sort.Strings(classNames)
	for _, name := range classNames {
		c := o.Classes[name]
		d.Classes = append(d.Classes, ClassInfo{
			IRI:        ResolveName(o.IRI, name),
			SubClassOf: resolveAll(o.IRI, c.SubClassOf),
		})
	}

	propNames := make([]string, 0, len(o.Properties))
	for name := range o.Properties {
		propNames = append(propNames, name)
	}
	sort.Strings(propNames)
	for _, name := range propNames {
		p := o.Properties[name]
		info := PropertyInfo{
			IRI:           ResolveName(o.IRI, name),
			SubPropertyOf: resolveAll(o.IRI, p.SubPropertyOf),
		}
		if p.Domain != "" {
			info.Domain = ResolveName(o.IRI, p.Domain)
		}
		if p.Range != "" {
			info.Range = ResolveName(o.IRI, p.Range)
		}
		d.Properties = append(d.Properties, info)
	}
	return d
}

func resolveAll(ontologyIRI string, names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = ResolveName(ontologyIRI, n)
	}
	return out
}

// cueError keeps the position of the first CUE error.
func cueError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
