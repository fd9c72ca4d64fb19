// Package wire defines the serialization contract for every record that
// crosses the topic bus.
//
// Two things live here and nowhere else:
//
//  1. Canonical JSON: the single encoding used at publish time. Object keys
//     are sorted, separators are compact, strings are NFC normalized. Two
//     publishes of the same logical record always produce the same bytes,
//     which is what makes topic-level replay comparison byte-exact.
//
//  2. Stable content IDs: SignalID and FusionID are pure functions of their
//     semantic inputs. Replaying the same input stream reproduces the same
//     IDs, so downstream consumers can dedupe across pipeline reruns without
//     a transactional store.
package wire
