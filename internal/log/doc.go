// Package log builds the application's slog loggers.
//
// Every logger returned by this package is wrapped in a SecureHandler, which
// masks sensitive values before they reach the output:
//   - attributes whose key names a credential (cookie, authorization, token)
//   - values that look like bearer, basic or JWT credentials
//   - sensitive query parameters inside logged URLs
//
// # Usage
//
//	logger, closeLog := log.New(log.Options{Verbose: true, File: "/var/log/sitesearch.log"})
//	defer closeLog()
//	slog.SetDefault(logger)
//
// When Options.File is set, output is duplicated into a size-rotated file.
package log
