// Package parser turns Gravsearch query text into the sparql AST.
//
// Gravsearch is a CONSTRUCT query restricted to what the engine can serve:
// statements, FILTER, OPTIONAL and UNION in the WHERE clause, ORDER BY on
// variables and OFFSET as a page number. LIMIT is rejected because the
// page size belongs to the server.
//
// Queries are written against one of two API vocabularies, the simple
// and the complex schema. Every API IRI is classified while parsing; a
// query mixing both is a SCHEMA_ERROR. The returned AST uses internal
// IRIs only and the schema survives as a tag on ParseResult.
package parser
