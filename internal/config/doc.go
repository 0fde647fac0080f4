// Package config loads, normalizes, and validates vodflow configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VODFLOW_CLIENT_SECRET. The Config type centralizes every knob the CLI and
// pipeline need: service endpoints and credentials, policy and locator
// naming, upload concurrency, and job polling bounds.
//
// Always obtain settings through this package so downstream code receives
// sanitized endpoints, canonical log formats, and clear validation errors.
package config
