// Package validate provides assertion helpers for the configuration
// object the host page passes into each embed frame: allow-list and
// required-field checks, exactly-one-of checks, and frame location
// checks.
package validate
