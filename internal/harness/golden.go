package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes the scenario and compares the listed topics
// against testdata/golden/{scenario.Name}.golden.
func RunWithGolden(t *testing.T, scenario *Scenario, topics ...string) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("run scenario: %v", err)
	}
	log, err := result.TopicLog(topics...)
	if err != nil {
		t.Fatalf("render topics: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, log)
}
