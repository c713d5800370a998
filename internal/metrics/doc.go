// Package metrics provides build metrics for the site builder.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default and does nothing. PrometheusRecorder registers collectors on a
// registry that the preview server and the daemon expose at /metrics.
//
//	reg := prometheus.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	builder := build.New(cfg, st).WithRecorder(recorder)
package metrics
