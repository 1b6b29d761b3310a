// Package metrics provides Prometheus metrics for all bulwark components.
//
// # Overview
//
// The Collector owns a Prometheus registry and one metric family per
// component:
//
//   - cache: hits, misses, evictions, current entries
//   - breaker: state gauge, transitions, rejected calls
//   - ratelimit: allowed and rejected checks
//   - quota: usage gauges and rejections by ceiling
//
// Components do not record metrics themselves; the layer assembling them
// (typically guard.Guard) observes outcomes and records through the
// Collector. Handler exposes the registry for scraping.
//
//	collector := metrics.NewCollector(cfg.Metrics, nil)
//	http.Handle("/metrics", collector.Handler())
package metrics
