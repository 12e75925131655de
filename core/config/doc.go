// Package config resolves provider connection settings from explicit
// arguments, a YAML configuration file, environment variables, and
// name-derived defaults, in that order.
package config
