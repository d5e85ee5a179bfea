// Package log provides the logging abstraction used across chronicler.
//
// Components depend on the [Logger] interface only. A zerolog-backed
// implementation is provided for the CLI and for embedders that already
// use zerolog, and a no-op implementation is the library default so that
// embedding chronicler stays silent unless asked otherwise.
//
//	logger, err := log.NewConsoleLogger("debug")
//	client, err := chronicler.New(cfg, chronicler.WithLogger(logger))
package log
