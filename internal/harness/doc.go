// Package harness runs Gravsearch scenarios end to end.
//
// A scenario is a YAML file holding a query, the ontologies and users it
// needs, the answers the triplestore should give, and the expected
// outcome. The harness runs the real engine against a scripted
// triplestore, so parsing, type inspection, rewriting, assembly and
// permission filtering are all exercised.
//
// # Scenario Format
//
//	name: permission_cascade
//	description: "A hidden link target removes the link"
//	ontology:
//	  - ../../ontology/testdata/incunabula
//	prefixes:
//	  data: "http://rdfh.ch/0803/"
//	users:
//	  - iri: "http://rdfh.ch/users/member"
//	    groups:
//	      "http://rdfh.ch/projects/0803": ["knora-admin:ProjectMember"]
//	user: "http://rdfh.ch/users/member"
//	query: |
//	  PREFIX incunabula: <http://0.0.0.0:3333/ontology/0803/incunabula/simple/v2#>
//	  ...
//	store:
//	  prequery: ["data:page1"]
//	  count: 1
//	  resources:
//	    - iri: "data:page1"
//	      class: "http://www.knora.org/ontology/0803/incunabula#page"
//	      owner: "http://rdfh.ch/users/creator"
//	      permissions: "V knora-admin:UnknownUser"
//	      main: true
//	expect:
//	  main_resources: ["data:page1"]
//	  filtered: 0
//	  count: 1
//	assertions:
//	  - type: permission
//	    iri: "data:page1"
//	    permission: V
//
// # Assertion Types
//
//   - query_contains / query_absent: a generated prequery, count or fetch
//     query does (not) contain a text fragment
//   - permission: a resource or value is on the page with the given level
//   - hidden: an IRI appears nowhere on the page
//   - target_nested / target_omitted: whether a link value nests its target
//
// # Deterministic Testing
//
// Every scenario runs with a fresh in-memory SQLite store, a fixed request
// ID and a step clock. Results are summarized with Snapshot and compared
// to golden files with goldie.
package harness
