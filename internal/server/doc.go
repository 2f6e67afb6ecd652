// Package server exposes indexing control, statistics and search over HTTP.
//
// Every /api endpoint answers with a JSON object carrying "result": true on
// success, or "result": false with an "error" message and a non-2xx status.
// Prometheus metrics are served on /metrics and a liveness probe on /healthz.
package server
