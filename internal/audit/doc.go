// Package audit implements the ingestion journal for the Racetag Backend.
//
// Every item of every ingestion batch is written as one JSON line with its
// batch id, position, outcome and error code, so a race can be reconstructed
// or a reader misconfiguration diagnosed after the fact. The journal file is
// rotated by size and age.
//
// References:
//   - JSON Lines, https://jsonlines.org
package audit
