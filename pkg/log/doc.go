// Package log provides the logging abstraction shared by lagoship packages.
//
// Library code (the Lago client, the spool watcher, the resource-hours job)
// depends only on the Logger interface so that callers can plug in their
// own logging. A zerolog adapter is provided for the CLI and a no-op logger
// is the default everywhere else.
//
// # Usage
//
//	logger := log.NewZerologAdapter(zerolog.InfoLevel)
//	client := lago.New(url, token, lago.WithLogger(logger))
//
// Tests typically pass log.NewNoopLogger().
package log
