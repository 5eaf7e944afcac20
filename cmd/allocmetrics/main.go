// allocmetrics serves the metrics of a simulated multi-tenant resource
// allocator.
//
// An in-memory allocator runs allocation cycles and framework, role and
// quota churn on cron schedules. Its metrics are exported in Prometheus
// format and as a JSON snapshot keyed by metric path.
//
// Usage:
//
//	# Serve with the default configuration
//	allocmetrics serve
//
//	# Serve with a configuration file
//	allocmetrics serve --config allocmetrics.yaml
//
//	# Print the metric paths for a role and framework
//	allocmetrics paths --role eng/frontend --framework-name web
//
//	# Print the effective configuration
//	allocmetrics config --config allocmetrics.yaml
package main

func main() {
	Execute()
}
