package fusion

import (
	"fmt"
	"sort"

	"github.com/marketloom/marketloom/internal/bus"
	"github.com/marketloom/marketloom/internal/schema"
	"github.com/marketloom/marketloom/internal/wire"
)

// Fuse reads every display signal for symbol and publishes one fusion trace
// and one candidate under plan. No signals means no output at all.
//
// Signals are folded in ascending ID order, so the contribution list and
// the dominant-horizon tiebreak (first strictly greater weighted score
// wins) never depend on topic arrival order.
func Fuse(b bus.Bus, symbol string, plan schema.FusionPlan) error {
	envs, err := b.ReadAll(schema.TopicSignal)
	if err != nil {
		return fmt.Errorf("read signals: %w", err)
	}

	type sigView struct {
		id          string
		horizon     string
		confidence  int64
		generatedTS int64
		explanation string
	}
	var signals []sigView
	for _, env := range envs {
		if bus.String(env, "symbol") != symbol {
			continue
		}
		signals = append(signals, sigView{
			id:          bus.String(env, "id"),
			horizon:     bus.String(env, "signal_type"),
			confidence:  bus.Int(env, "confidence_pct"),
			generatedTS: bus.Int(env, "generated_ts_ms"),
			explanation: bus.String(env, "explanation_short"),
		})
	}
	if len(signals) == 0 {
		return nil
	}

	sort.Slice(signals, func(i, j int) bool { return signals[i].id < signals[j].id })

	var (
		contributions   []schema.Contribution
		totalWeighted   float64
		totalWeight     float64
		dominantHorizon string
		dominantScore   float64
		haveDominant    bool
		signalIDs       []string
		createdTS       int64
	)
	for _, s := range signals {
		weight, ok := plan.Weights[s.horizon]
		if !ok {
			weight = defaultWeight
		}
		weighted := float64(s.confidence) * weight

		contributions = append(contributions, schema.Contribution{
			Horizon:       s.horizon,
			SignalID:      s.id,
			ConfidencePct: s.confidence,
			Weight:        weight,
			WeightedScore: weighted,
			Rationale:     []string{truncate(s.explanation, 200)},
		})
		totalWeighted += weighted
		totalWeight += weight
		if !haveDominant || weighted > dominantScore {
			dominantHorizon = s.horizon
			dominantScore = weighted
			haveDominant = true
		}
		signalIDs = append(signalIDs, s.id)
		createdTS = max(createdTS, s.generatedTS)
	}

	var composite float64
	if totalWeight > 0 {
		composite = totalWeighted / totalWeight
	}
	resolution := schema.ResolutionConflict
	if composite >= plan.AcceptThreshold {
		resolution = schema.ResolutionAccepted
	}

	fusionID := wire.FusionID(symbol, signalIDs, plan.Version)
	sort.Strings(signalIDs)

	trace := schema.FusionTrace{
		FusionID:          fusionID,
		Symbol:            symbol,
		CreatedTSMS:       createdTS,
		Contributions:     contributions,
		CompositeScore:    composite,
		Resolution:        resolution,
		DominantHorizon:   dominantHorizon,
		FusionPlanVersion: plan.Version,
		DebugJSON:         "",
	}
	if err := b.Publish(schema.TopicFusionTrace, trace); err != nil {
		return fmt.Errorf("publish trace %s: %w", fusionID, err)
	}

	candidate := schema.Candidate{
		ID:              fusionID,
		Symbol:          symbol,
		CompositeScore:  composite,
		Resolution:      resolution,
		CreatedTSMS:     createdTS,
		DominantHorizon: dominantHorizon,
		Signals:         signalIDs,
	}
	if err := b.Publish(schema.TopicCandidate, candidate); err != nil {
		return fmt.Errorf("publish candidate %s: %w", fusionID, err)
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
