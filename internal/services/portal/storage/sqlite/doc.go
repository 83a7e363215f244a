// Package sqlite provides SQLite-backed portal persistence.
//
// Timestamps are stored as Unix milliseconds so list filters can compare
// them numerically. Exercise tasks are kept as one JSON document per row.
package sqlite
