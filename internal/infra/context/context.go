// Package context holds request-scoped values shared by the transports and loggers.
package context

type contextKey string
