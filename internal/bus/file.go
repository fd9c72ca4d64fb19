package bus

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileBus persists one append-only NDJSON log per topic under a base
// directory. Files are created on first publish and never truncated.
//
// Thread-safety: Publish and ReadAll are safe for concurrent use. The
// append itself is a single write syscall on an O_APPEND descriptor, so a
// reader never observes a torn record.
type FileBus struct {
	dir string

	mu    sync.Mutex
	files map[string]*os.File // open append handles, one per topic
}

// NewFileBus creates (or reuses) the base directory and returns a bus over it.
func NewFileBus(dir string) (*FileBus, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("bus: create dir %s: %w", dir, err)
	}
	return &FileBus{
		dir:   dir,
		files: make(map[string]*os.File),
	}, nil
}

// Dir returns the base directory of the bus.
func (b *FileBus) Dir() string {
	return b.dir
}

func (b *FileBus) topicPath(topic string) string {
	return filepath.Join(b.dir, topic+".ndjson")
}

// Publish appends one canonical-JSON record to the topic log.
// A failed append is fatal to the calling worker; no partial line is ever
// left behind on an error returned from here before the write.
func (b *FileBus) Publish(topic string, record any) error {
	line, err := encodeRecord(record)
	if err != nil {
		return fmt.Errorf("bus: publish %s: %w", topic, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.files[topic]
	if !ok {
		f, err = os.OpenFile(b.topicPath(topic), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("bus: open topic %s: %w", topic, err)
		}
		b.files[topic] = f
	}

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("bus: append to %s: %w", topic, err)
	}
	return nil
}

// ReadAll returns every record on the topic in insertion order.
// A topic that has never been published reads as empty, not as an error.
func (b *FileBus) ReadAll(topic string) ([]Envelope, error) {
	f, err := os.Open(b.topicPath(topic))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("bus: read %s: %w", topic, err)
	}
	defer f.Close()

	var records []Envelope
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		env, err := decodeLine([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("bus: topic %s: %w", topic, err)
		}
		records = append(records, env)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("bus: scan %s: %w", topic, err)
	}
	return records, nil
}

// Dump returns the raw bytes of a topic log. Used for byte-exact replay
// comparison; an absent topic dumps as empty.
func (b *FileBus) Dump(topic string) ([]byte, error) {
	data, err := os.ReadFile(b.topicPath(topic))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("bus: dump %s: %w", topic, err)
	}
	return data, nil
}

// Topics lists every topic with at least one published record, sorted.
func (b *FileBus) Topics() ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("bus: list topics: %w", err)
	}
	var topics []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".ndjson") {
			continue
		}
		topics = append(topics, strings.TrimSuffix(name, ".ndjson"))
	}
	sort.Strings(topics)
	return topics, nil
}

// Close releases all open topic handles.
func (b *FileBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	for topic, f := range b.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("bus: close %s: %w", topic, err)
		}
		delete(b.files, topic)
	}
	return firstErr
}
