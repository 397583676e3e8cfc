// Package engine runs Gravsearch requests end to end.
//
// A search request flows through five stages:
//
//  1. parser: query text to a CONSTRUCT query in internal vocabulary
//  2. typeinspect: a type for every entity, from the ontology
//  3. rewrite: the SELECT prequery for one page of main resources
//  4. executor: the prequery, then the fetch query for exactly that page
//  5. assemble: permission-filtered resource trees for the requester
//
// A count request stops after running the count variant of the prequery.
// Nothing is cached between requests and the engine holds no mutable
// state, so one Engine serves concurrent requests.
//
// The two round trips are the only blocking points. Both honour the
// request context; a context that ends after the fetch still fails the
// request before assembly starts.
package engine
