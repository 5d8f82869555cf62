/*
Package observability turns engine lifecycle hooks into Prometheus metrics and
debug logs.

Hooks from several sources are fanned out with Combine:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Combine(metrics.Hooks(), observability.LogHooks(logger))
*/
package observability
