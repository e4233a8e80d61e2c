// Package repository provides a generic repository abstraction built on Bun
// for lookups, counting and pagination with relations.
package repository
