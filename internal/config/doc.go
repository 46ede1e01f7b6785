// Package config loads zest's project configuration from zest.toml, with
// ZEST_* environment variables taking precedence over the file.
package config
