// Package rewrite turns a typed Gravsearch query into the SPARQL the
// triplestore runs.
//
// A CONSTRUCT query cannot page over resources whose properties are
// multi-valued, so search runs in two steps. ToSelectPrequery produces a
// SELECT that picks one page of main resource IRIs (or counts them), with
// every value comparison expanded into comparisons of the literal fields
// stored on value objects and every resource and value guarded against
// deletion. FetchQuery then produces the CONSTRUCT that loads exactly those
// resources.
package rewrite
