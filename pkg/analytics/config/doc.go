// Package config provides map-backed configuration for the analytics
// provider with type-safe accessors and YAML/JSON file loading.
//
// Accessors never fail: a missing key or a value of the wrong type yields
// the caller-supplied default. This keeps provider wiring free of config
// error plumbing while still allowing settings files to be partial.
package config
