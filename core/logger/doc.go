// Package logger is a standardized event logging framework for the shell's
// process pool. Events are stored as newline delimited JSON objects.
package logger
