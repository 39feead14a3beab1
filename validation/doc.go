// Package validation wraps struct tag validation (via the validator library)
// for the adapter's configuration types. Validation failures are reported as
// CONFIG_INVALID application errors with per-field detail.
package validation
