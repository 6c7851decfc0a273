// Package api implements the HTTP API gateway for the Racetag Backend.
//
// The gateway accepts reader batches, serves the classification, race
// summary and stored events as JSON envelopes, exports the classification as
// XLSX, and streams live updates over Server-Sent Events.
//
// References:
//   - Server-Sent Events, WHATWG HTML Living Standard §9.2
//   - Prometheus exposition format for /metrics
package api
