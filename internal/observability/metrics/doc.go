// Package metrics registers the Prometheus collectors of the recipe service
// with promauto and offers small recorders for them.
//
// Collectors fall into HTTP traffic, the local recipe store, searches and
// TheMealDB calls, the image proxy, rate limiters, and the store backend
// including circuit breakers. cmd/api and cmd/worker expose them on
// /metrics.
//
//	start := time.Now()
//	meals, err := fetch(ctx, q)
//	metrics.RecordRemoteFetch("search", result(err), time.Since(start))
package metrics
