package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/marketloom/marketloom/internal/bus"
	"github.com/marketloom/marketloom/internal/pipeline"
	"github.com/marketloom/marketloom/internal/schema"
)

// Scenario is one scripted pipeline run.
type Scenario struct {
	// Name identifies the scenario and its golden file.
	Name string

	// Ticks are published to the tick topic before the run, in order.
	Ticks []schema.Tick

	// Cfg is the pipeline configuration for the run.
	Cfg pipeline.Config

	// EpochMS pins the pipeline clock.
	EpochMS int64
}

// Result is the completed run.
type Result struct {
	Store *bus.MemoryBus
}

// Run executes the scenario on a fresh in-memory store.
func Run(s *Scenario) (*Result, error) {
	mb := bus.NewMemoryBus()
	for i, tick := range s.Ticks {
		if err := mb.Publish(schema.TopicTick, tick); err != nil {
			return nil, fmt.Errorf("scenario %s: seed tick %d: %w", s.Name, i, err)
		}
	}

	r := pipeline.NewRunner(mb, s.Cfg)
	r.Clock = func() int64 { return s.EpochMS }
	n := 0
	r.IDs = func() string {
		n++
		return fmt.Sprintf("audit-%08d", n)
	}
	r.Log = slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := r.Run(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return &Result{Store: mb}, nil
}

// TopicLog renders the named topics as one byte stream, each topic
// prefixed by a "== <topic>" header line.
func (r *Result) TopicLog(topics ...string) ([]byte, error) {
	var out []byte
	for _, topic := range topics {
		dump, err := r.Store.Dump(topic)
		if err != nil {
			return nil, fmt.Errorf("dump %s: %w", topic, err)
		}
		out = append(out, []byte("== "+topic+"\n")...)
		out = append(out, dump...)
	}
	return out, nil
}
