// Package log provides a logging abstraction for eventship components.
//
// This package defines a Logger interface that can be implemented by any
// logging library. A zerolog adapter and a no-op logger (the default for
// embedded clients) are provided.
//
// # Usage
//
// Use the provided zerolog adapter:
//
//	logger := log.NewZerologAdapter()
//
// Or wrap an existing zerolog.Logger:
//
//	logger := log.NewZerologAdapterWithLogger(zl)
//
// Implement the Logger interface to integrate with other logging
// infrastructure.
package log
