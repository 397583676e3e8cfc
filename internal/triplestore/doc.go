// Package triplestore runs generated SPARQL against a triplestore over the
// SPARQL 1.1 protocol.
//
// Queries are POSTed as application/sparql-query. SELECT results are read
// as SPARQL JSON, CONSTRUCT results as N-Triples. Failures are returned as
// *queryerr.Error values: STORE_TIMEOUT when the store did not answer in
// time (deadline, network timeout, HTTP 503 or 504) and STORE_FAILURE
// otherwise. The client never retries.
package triplestore
