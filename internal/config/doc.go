// Package config loads, normalizes, and validates photoreport configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours PHOTOREPORT_* environment
// fallbacks (optionally sourced from a .env file in the working directory).
// The Config type centralizes every knob the CLI, the local workbench server,
// and the drop-folder watcher need.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical backend names, and clear validation errors.
package config
