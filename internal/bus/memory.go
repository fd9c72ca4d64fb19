package bus

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryBus keeps every topic as an in-memory vector of canonical-JSON
// lines. It preserves insertion order and serves snapshot reads, which is
// all the replay semantics require, so tests and the scenario harness use it
// in place of the file backend.
type MemoryBus struct {
	mu     sync.Mutex
	topics map[string][][]byte
}

// NewMemoryBus returns an empty in-memory bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{topics: make(map[string][][]byte)}
}

// Publish appends one record to the topic vector.
func (b *MemoryBus) Publish(topic string, record any) error {
	line, err := encodeRecord(record)
	if err != nil {
		return fmt.Errorf("bus: publish %s: %w", topic, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics[topic] = append(b.topics[topic], line)
	return nil
}

// ReadAll decodes a snapshot of the topic in insertion order.
func (b *MemoryBus) ReadAll(topic string) ([]Envelope, error) {
	b.mu.Lock()
	lines := make([][]byte, len(b.topics[topic]))
	copy(lines, b.topics[topic])
	b.mu.Unlock()

	records := make([]Envelope, 0, len(lines))
	for _, line := range lines {
		env, err := decodeLine(line)
		if err != nil {
			return nil, fmt.Errorf("bus: topic %s: %w", topic, err)
		}
		records = append(records, env)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records, nil
}

// Dump returns the concatenated raw lines of a topic, exactly as a FileBus
// log file would contain them.
func (b *MemoryBus) Dump(topic string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []byte
	for _, line := range b.topics[topic] {
		out = append(out, line...)
	}
	return out, nil
}

// Topics lists every published topic, sorted.
func (b *MemoryBus) Topics() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	topics := make([]string, 0, len(b.topics))
	for t := range b.topics {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics, nil
}

// Len returns the number of records on a topic. Test convenience.
func (b *MemoryBus) Len(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}
