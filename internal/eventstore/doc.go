// Package eventstore keeps every accepted tag event for inspection.
//
// Events are msgpack encoded in badger under EVENT/<sequence>, so a prefix
// scan returns them in arrival order. Each event carries a KSUID. The store
// is in-memory only and starts empty with every process.
package eventstore
