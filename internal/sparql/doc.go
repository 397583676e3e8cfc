// Package sparql defines the typed query AST shared by every stage of the
// engine and its deterministic text serialization.
//
// The AST is vocabulary-free: IRIs are always internal (knora-base and
// project ontologies in the www.knora.org namespace). The parser produces
// a ConstructQuery from client text; the rewriter produces SelectQuery
// prequeries and ConstructQuery fetch queries; Render turns either into
// text for the triplestore.
//
// # Sealed Interfaces
//
// Entity, Pattern, Expression, Projection and Query are sealed with
// marker methods so type switches over them stay exhaustive.
//
// # Determinism
//
// Render never iterates maps. Two equal ASTs render to byte-identical
// text, which the rewriter relies on for stable prequeries.
package sparql
