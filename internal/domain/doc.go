// Package domain contains the core entities and value objects for chronicler.
//
// This package is the innermost layer. It has no dependencies on HTTP,
// the file system or logging and holds only the record model and the
// rules that apply to it.
//
// # Entities
//
//   - [Severity]: ordinal level of a log event (info, warning, error, fatal)
//   - [InboundRecord]: a record as produced by the facade
//   - [Message]: the unit crossing the facade/engine boundary
//   - [LogRecord]: a record as buffered and sent to the collector
//   - [Buffer]: ordered, append-only sequence of pending records
//   - [UserErrorForm]: a free-form problem report filed by an end user
package domain
