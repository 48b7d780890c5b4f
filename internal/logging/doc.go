// Package logging wraps log/slog with the attribute helpers and standardized
// field keys used across the codebase.
package logging
