// Package types defines the configuration, record types and standard errors
// shared by the toodle store, its native engine and the CLI.
package types
