package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSignal() Signal {
	return Signal{
		ID:               "82ff9c47ae103735f6aed8ea",
		Symbol:           "CBA.ASX",
		Side:             SideLong,
		GeneratedTSMS:    1700000060000,
		EntryPriceTicks:  113420,
		StopPriceTicks:   113410,
		TargetPriceTicks: []int64{113460, 113500},
		ConfidencePct:    62,
		ExplanationShort: "day breakout with volume expansion",
		SignalType:       HorizonDay,
		ModelVersion:     "day_v1",
		Source:           "day_engine",
	}
}

func TestValidateSignal_AcceptsValidPayload(t *testing.T) {
	s := validSignal()
	assert.Nil(t, ValidateSignal(&s))
}

func TestValidateSignal_NormalizesCollections(t *testing.T) {
	s := validSignal()
	s.TargetPriceTicks = nil
	s.Debug = nil

	require.Nil(t, ValidateSignal(&s))
	assert.NotNil(t, s.TargetPriceTicks)
	assert.NotNil(t, s.Debug)
}

func TestValidateSignal_RejectsConfidenceOutOfRange(t *testing.T) {
	s := validSignal()
	s.ConfidencePct = 120

	errs := ValidateSignal(&s)
	require.Len(t, errs, 1)
	assert.Equal(t, "confidence_pct", errs[0].Field)
	assert.Equal(t, "lte", errs[0].Rule)
}

func TestValidateSignal_RejectsShortID(t *testing.T) {
	s := validSignal()
	s.ID = "short"

	errs := ValidateSignal(&s)
	require.NotEmpty(t, errs)
	assert.Equal(t, "id", errs[0].Field)
}

func TestValidateSignal_RejectsBadSide(t *testing.T) {
	s := validSignal()
	s.Side = "SIDEWAYS"

	errs := ValidateSignal(&s)
	require.NotEmpty(t, errs)
	assert.Equal(t, "side", errs[0].Field)
	assert.Equal(t, "oneof", errs[0].Rule)
}

func TestValidateSignal_RejectsNonPositivePrices(t *testing.T) {
	s := validSignal()
	s.EntryPriceTicks = 0

	errs := ValidateSignal(&s)
	require.NotEmpty(t, errs)
	assert.Equal(t, "entry_price_ticks", errs[0].Field)
}

func TestValidateSignal_RejectsOverlongExplanation(t *testing.T) {
	s := validSignal()
	long := make([]byte, 241)
	for i := range long {
		long[i] = 'x'
	}
	s.ExplanationShort = string(long)

	errs := ValidateSignal(&s)
	require.NotEmpty(t, errs)
	assert.Equal(t, "explanation_short", errs[0].Field)
}

func TestValidateNews_RangesAndDefaults(t *testing.T) {
	n := NewsAnalysis{
		ArticleID:      "art-20260101-0001",
		AnalysisTSMS:   1700001000000,
		SentimentScore: -0.65,
		RelevanceScore: 0.87,
		Summary:        "Company X announced an unexpected profit warning.",
	}
	require.Nil(t, ValidateNews(&n))
	assert.Equal(t, "none", n.ImpactClass)
	assert.NotNil(t, n.Entities)
	assert.NotNil(t, n.Tags)

	n.SentimentScore = -1.5
	errs := ValidateNews(&n)
	require.NotEmpty(t, errs)
	assert.Equal(t, "sentiment_score", errs[0].Field)
}

func TestValidatePlan_RequiresWeights(t *testing.T) {
	p := FusionPlan{
		Version:         "fusion_plan_v1",
		AcceptThreshold: 55,
	}
	errs := ValidatePlan(&p)
	require.NotEmpty(t, errs)
	assert.Equal(t, "weights", errs[0].Field)

	p.Weights = map[string]float64{"SCALP": 0.5, "DAY": 1.0, "SWING": 1.5}
	require.Nil(t, ValidatePlan(&p))
	assert.Equal(t, int64(1), p.MinContributions)
}

func TestDecodeSignal_RawJSONRoundTrip(t *testing.T) {
	raw := `{"id":"82ff9c47ae103735f6aed8ea","symbol":"CBA.ASX","side":"LONG",` +
		`"generated_ts_ms":1700000060000,"entry_price_ticks":113420,` +
		`"stop_price_ticks":113410,"confidence_pct":62,"signal_type":"DAY"}`

	s, err := DecodeSignal([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "CBA.ASX", s.Symbol)
	assert.Equal(t, int64(62), s.ConfidencePct)
	assert.Nil(t, ValidateSignal(&s))
}
