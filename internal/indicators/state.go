package indicators

import (
	"math"

	"github.com/marketloom/marketloom/internal/schema"
)

// Default window lengths.
const (
	EMAShortPeriod = 9
	EMALongPeriod  = 21
	ATRPeriod      = 14
)

// Values is one indicator snapshot. Nil means the window has not seen
// enough bars yet; the nulls are published as-is.
type Values struct {
	EMAShort *float64 `json:"ema_short"`
	EMALong  *float64 `json:"ema_long"`
	ATR      *float64 `json:"atr"`
}

// State holds the rolling windows for one symbol.
//
// EMA seeding: the first value is the simple mean of the last `period`
// closes, produced the moment the window fills; after that the usual
// recurrence applies with alpha = 2/(period+1). ATR seeds with the mean of
// the first `atrPeriod` true ranges, then follows Wilder smoothing.
type State struct {
	short     int
	long      int
	atrPeriod int

	prices []float64
	maxLen int

	emaShort     *float64
	emaLong      *float64
	prevEMAShort *float64
	prevEMALong  *float64

	trs       []float64
	atr       *float64
	lastClose *float64
}

// NewState creates a state with the default windows.
func NewState() *State {
	return NewStateWithPeriods(EMAShortPeriod, EMALongPeriod, ATRPeriod)
}

// NewStateWithPeriods creates a state with explicit window lengths.
func NewStateWithPeriods(short, long, atrPeriod int) *State {
	return &State{
		short:     short,
		long:      long,
		atrPeriod: atrPeriod,
		maxLen:    max(long, atrPeriod) + 10,
	}
}

// Update folds one bar into the windows and returns the new snapshot.
func (s *State) Update(bar schema.Bar) Values {
	closePx := float64(bar.Close)
	high := float64(bar.High)
	low := float64(bar.Low)

	if s.lastClose == nil {
		s.lastClose = ptr(closePx)
	}

	s.prices = append(s.prices, closePx)
	if len(s.prices) > s.maxLen {
		s.prices = s.prices[len(s.prices)-s.maxLen:]
	}

	s.prevEMAShort = s.emaShort
	s.prevEMALong = s.emaLong

	s.emaShort = nextEMA(s.emaShort, s.prices, s.short, closePx)
	s.emaLong = nextEMA(s.emaLong, s.prices, s.long, closePx)

	tr := math.Max(high-low, math.Max(math.Abs(high-*s.lastClose), math.Abs(low-*s.lastClose)))
	s.trs = append(s.trs, tr)
	if len(s.trs) > s.atrPeriod {
		s.trs = s.trs[len(s.trs)-s.atrPeriod:]
	}
	if s.atr == nil {
		if len(s.trs) >= s.atrPeriod {
			s.atr = ptr(mean(s.trs))
		}
	} else {
		s.atr = ptr((*s.atr*float64(s.atrPeriod-1) + tr) / float64(s.atrPeriod))
	}

	s.lastClose = ptr(closePx)
	return Values{EMAShort: s.emaShort, EMALong: s.emaLong, ATR: s.atr}
}

// crossedUp reports a short-over-long crossover between the previous and
// current update, with a small epsilon so float noise on equal series never
// registers as a cross.
func (s *State) crossedUp() bool {
	if s.prevEMAShort == nil || s.prevEMALong == nil || s.emaShort == nil || s.emaLong == nil {
		return false
	}
	return *s.prevEMAShort-*s.prevEMALong <= 1e-9 && *s.emaShort-*s.emaLong > 1e-9
}

func nextEMA(current *float64, prices []float64, period int, closePx float64) *float64 {
	if current == nil {
		if len(prices) >= period {
			return ptr(mean(prices[len(prices)-period:]))
		}
		return nil
	}
	alpha := 2.0 / float64(period+1)
	return ptr(alpha*closePx + (1-alpha)**current)
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func ptr(v float64) *float64 { return &v }
