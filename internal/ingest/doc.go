// Package ingest implements the ingestion service for the Racetag Backend.
//
// The service validates each item of a reader batch, applies arrivals to the
// race engine, keeps every accepted item in the event store, journals the
// outcome and publishes a lap notification followed by a standings snapshot
// for every applied arrival.
//
// References:
//   - Update hub: internal/telemetry
//   - Race rules: internal/race
package ingest
