// Package config implements the configuration store for the Racetag Backend.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then RACETAG_* environment variables. Command line flags are applied by
// the caller after Load and re-validated with Validate.
package config
