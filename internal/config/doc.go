// Package config loads and validates the nucliasync TOML configuration.
//
// Configuration flows into every component through explicit constructor
// injection; nothing in the repository reads ambient global state.
package config
