// Package storage provides the durable SQLite backend for audit records.
//
// Records are stored with indexed columns for the fields retention and
// forensic queries filter on (timestamp, trace ID, action) plus the full
// JSON payload, so the externally visible record shape survives storage
// round trips byte for byte.
package storage
