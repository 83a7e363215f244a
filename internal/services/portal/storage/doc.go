// Package storage defines persistence contracts for the portal.
//
// Records here are plain data. Domain packages map them to their own types
// and own all validation, so both backends (SQLite and in-memory) stay
// interchangeable.
package storage
