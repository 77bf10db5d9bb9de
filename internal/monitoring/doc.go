/*
Package monitoring provides Prometheus metrics collection for the embed
runtime.

# Overview

Tracks the cross-frame coordinator (task starts, joins, fan-out size,
late deliveries, callback panics), the embed registry, script injection,
the frame sandbox, and the HTTP host surface.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
*/
package monitoring
