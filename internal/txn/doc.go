// Package txn implements the optimistic transaction manager.
//
// A workflow function runs against a buffered transaction context: reads
// go through to the store and are stamped with the version they observed
// (including "observed absent" stamps at version 0), writes are buffered
// until commit. At commit the store validates every stamp; if any read
// document changed since it was taken, the buffered writes are discarded
// and the function is re-invoked from scratch against fresh state, up to
// a bounded number of attempts with jittered backoff. Exhausting the
// budget surfaces as an ABORTED workflow error, never silently.
//
// Workflow functions may run more than once and must be free of
// externally visible side effects other than through the transaction.
//
// Two transactions over disjoint documents commit independently; two
// over overlapping documents are serialized by conflict-and-retry. The
// loser re-executes, it does not blindly overwrite fields.
package txn
