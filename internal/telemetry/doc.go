// Package telemetry implements the live update hub for the Racetag Backend.
//
// The hub fans out race notifications to every registered subscription. Each
// subscription owns an unbounded FIFO queue, so publishing never blocks on a
// slow observer. A Session drains one subscription onto an SSE response and
// emits keepalive comments while the queue is idle.
//
// References:
//   - Server-Sent Events, WHATWG HTML Living Standard §9.2
//   - Common Expression Language (CEL) for per-session filters
package telemetry
