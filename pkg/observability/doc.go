/*
Package observability turns engine lifecycle hooks into logs and Prometheus
metrics.

	metrics, _ := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Combine(observability.LogHooks(logger), metrics.Hooks())
	engine := scriptor.New(scriptor.WithLifecycleHooks(hooks))
*/
package observability
