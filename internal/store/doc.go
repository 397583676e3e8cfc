// Package store persists the engine's metadata in SQLite: imported
// ontology definitions and requester identities.
//
// Instance data never lives here; it stays in the triplestore. The store
// only feeds the in-memory ontology cache at startup and resolves user
// IRIs to permission identities per request.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Every read orders its rows explicitly, so loading the same database
// always yields the same definitions in the same order.
package store
