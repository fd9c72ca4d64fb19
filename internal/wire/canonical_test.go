package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_SortsKeysCompact(t *testing.T) {
	b, err := Marshal(map[string]any{
		"zulu":  1,
		"alpha": 2,
		"mike":  3,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mike":3,"zulu":1}`, string(b))
}

func TestMarshal_NestedObjectsSorted(t *testing.T) {
	b, err := Marshal(map[string]any{
		"outer": map[string]any{"b": 2, "a": 1},
		"arr":   []any{map[string]any{"y": 0, "x": 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"arr":[{"x":0,"y":0}],"outer":{"a":1,"b":2}}`, string(b))
}

func TestMarshal_TypedRecord(t *testing.T) {
	type rec struct {
		Symbol string `json:"symbol"`
		Close  int64  `json:"close"`
		ATR    *float64
		Flag   bool `json:"flag"`
	}
	b, err := Marshal(rec{Symbol: "SYM", Close: 1005, Flag: true})
	require.NoError(t, err)
	assert.Equal(t, `{"ATR":null,"close":1005,"flag":true,"symbol":"SYM"}`, string(b))
}

func TestMarshal_NullAndFloatAllowed(t *testing.T) {
	b, err := Marshal(map[string]any{"atr": nil, "score": 73.33333333333333})
	require.NoError(t, err)
	assert.Equal(t, `{"atr":null,"score":73.33333333333333}`, string(b))
}

func TestMarshal_IntegersStayIntegers(t *testing.T) {
	b, err := Marshal(map[string]any{"ts_ms": int64(1700000000000), "volume": 3})
	require.NoError(t, err)
	assert.Equal(t, `{"ts_ms":1700000000000,"volume":3}`, string(b))
}

func TestMarshal_NoHTMLEscaping(t *testing.T) {
	b, err := Marshal(map[string]any{"note": "a<b & c>d"})
	require.NoError(t, err)
	assert.Equal(t, `{"note":"a<b & c>d"}`, string(b))
}

func TestMarshal_NFCNormalization(t *testing.T) {
	// e + combining acute (NFD) must normalize to the precomposed form (NFC).
	decomposed := "Café"
	composed := "Café"

	b1, err := Marshal(map[string]any{"v": decomposed})
	require.NoError(t, err)
	b2, err := Marshal(map[string]any{"v": composed})
	require.NoError(t, err)
	assert.Equal(t, b1, b2, "NFD and NFC inputs must serialize identically")
}

func TestMarshal_DeterministicAcrossRuns(t *testing.T) {
	payload := map[string]any{
		"symbol": "SYM", "open": 1000, "high": 1010, "low": 1000,
		"close": 1005, "volume": 3, "trade_count": 3, "version": 1,
	}
	first := MustMarshal(payload)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, MustMarshal(payload), "iteration %d", i)
	}
}

func TestMarshalString_MatchesMarshal(t *testing.T) {
	payload := map[string]any{"event": "tick_duplicate", "ts_ms": 42}
	s, err := MarshalString(payload)
	require.NoError(t, err)
	assert.Equal(t, string(MustMarshal(payload)), s)
}

func TestMarshal_UnsupportedType(t *testing.T) {
	_, err := Marshal(map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}
