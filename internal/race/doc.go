// Package race implements the race engine and participant ledger for the Racetag Backend.
//
// A Race owns the authoritative per-tag lap and finish state. Arrivals are
// applied through RecordArrival; Standings projects the ledger into a ranked
// classification with gap and laps-behind metrics relative to the leader.
//
// Participant lifecycle: UNSEEN -> ACTIVE (first arrival) -> FINISHED (first
// arrival reaching the configured lap count). Finished participants keep
// accepting arrivals, but ranking caps their laps at the race total.
package race
