// Package logging constructs the shared slog logger and attribute helpers.
package logging
