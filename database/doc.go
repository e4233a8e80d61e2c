// Package database manages the bun connection (sqlite, postgres or mysql),
// versioned schema migrations with rollback, SQL seed files, query hooks,
// health checks and driver error classification.
package database
