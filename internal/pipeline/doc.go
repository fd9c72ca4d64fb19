// Package pipeline wires the stages together: ticks in, candidates out.
//
// Two modes exist. Loop is the streaming mode: a single writer goroutine
// drains a thread-safe tick queue into the aggregator, so bar state is
// never touched concurrently. Runner is the batch mode: it replays the
// tick topic through every stage in a fixed order and is the basis of the
// determinism check (two batch runs over the same input must produce
// byte-identical topic logs).
package pipeline
