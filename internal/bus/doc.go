// Package bus implements the append-only topic bus every pipeline stage
// communicates through.
//
// A topic is an ordered log of canonical-JSON records. Publish appends
// exactly one record; ReadAll returns every record published so far in
// insertion order. The bus never interprets payloads - topic schemas are the
// producers' responsibility.
//
// Three backends share the same contract:
//
//   - FileBus: one newline-delimited JSON file per topic. The production
//     layout; a run's output can be diffed byte-for-byte against a replay.
//   - MemoryBus: insertion-ordered in-memory logs. Used by tests and the
//     scenario harness.
//   - SQLiteBus: a single append-only table ordered by rowid, for
//     deployments that want one durable artifact instead of a directory.
//
// The design is single-writer-per-topic. Concurrent reads during a publish
// see either the old or the new log, never a torn record.
package bus
