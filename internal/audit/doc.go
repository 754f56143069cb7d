// Package audit records the before and after images of every UPDATE and DELETE on
// watched tables into the append-only audit.logged_actions ledger, and reads that
// ledger back for reporting.
//
// Capture runs inside the caller's transaction but never fails it: any problem
// building or inserting the ledger row is rolled back to a savepoint, logged as a
// warning and absorbed.
package audit
