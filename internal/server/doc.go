// Package server exposes the embed runtime over HTTP: frame bootstrap
// rendering, the embed type listing, health, and Prometheus metrics.
package server
