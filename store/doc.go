// Package store compiles validated records into conditional DynamoDB
// writes and commits them with optimistic concurrency.
//
// The engine has three entry points:
//
//   - [Compile] turns records into [WriteIntent] values after validating
//     them against a [schema.Schema]. It never touches the store.
//   - [Store.Commit] resolves intents into conditional put/update/delete
//     operations, chunks them to the transaction ceiling, and submits each
//     chunk atomically.
//   - [Store.NextID] issues the next integer identifier for a partition
//     via a compare-and-swap sequence record.
//
// # Concurrency
//
// Every shared resource is protected by single-operation optimistic
// concurrency: creates condition on key absence, versioned updates on
// version match, and the sequence counter on a compare-and-swap of the
// value just read. Nothing holds a lock across operations.
//
// Conflicts surface as typed errors, never as hangs or silent retries.
// [Retry] wraps one logical attempt and re-runs it only for identifier
// allocation conflicts ([ErrAllocationConflict]); version conflicts
// ([ErrVersionConflict]) always reach the caller, who holds the stale
// state and must re-fetch before deciding.
//
// # Atomicity
//
// A commit larger than one chunk is atomic per chunk only. Callers
// submitting more intents than Config.ChunkSize must tolerate a prefix of
// chunks being committed when a later chunk fails; [CommitResult] reports
// how far the commit got.
package store
