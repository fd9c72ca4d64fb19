// Package harness runs scripted tick scenarios through the full batch
// pipeline on an in-memory store with a pinned clock, and compares selected
// topic logs against golden files.
//
// Because every stage is deterministic under a pinned clock, the golden
// files capture exact bytes, not shapes. Regenerate with:
//
//	go test ./internal/harness -update
package harness
