// Package ports defines the interfaces that connect the batching engine
// to infrastructure adapters.
//
//   - [RecordSender]: posts one log record to the collector
//   - [ReportSender]: posts one user error form to the collector
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// The engine (internal/app) depends only on these interfaces; the HTTP
// adapter in internal/adapters/http implements them.
package ports
