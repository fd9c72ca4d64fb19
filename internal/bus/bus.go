package bus

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/marketloom/marketloom/internal/wire"
)

// Envelope is a decoded bus record. Numbers are json.Number so integer
// fields survive a read/re-publish cycle without float rounding.
type Envelope = map[string]any

// Bus is the contract every pipeline stage publishes and reads through.
//
// Publish appends one canonical-JSON record to the topic; the append is
// atomic and never reorders with prior publishes from the same writer.
// ReadAll returns a snapshot of all records published before the call, in
// insertion order. An empty or unknown topic reads as an empty slice.
type Bus interface {
	Publish(topic string, record any) error
	ReadAll(topic string) ([]Envelope, error)
}

// Store is a Bus whose raw log can be inspected: Dump returns a topic's
// NDJSON bytes and Topics lists every topic with at least one record,
// sorted. Every backend in this package is a Store.
type Store interface {
	Bus
	Dump(topic string) ([]byte, error)
	Topics() ([]string, error)
}

// encodeRecord renders a record as a single canonical-JSON line.
func encodeRecord(record any) ([]byte, error) {
	b, err := wire.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return append(b, '\n'), nil
}

// decodeLine parses one log line into an Envelope. Blank lines are the
// caller's concern; this expects a JSON object.
func decodeLine(line []byte) (Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var env Envelope
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return env, nil
}
