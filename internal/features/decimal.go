package features

import "github.com/shopspring/decimal"

// featureScale is the number of decimal places every feature value carries.
const featureScale = 8

// DecimalFromTicks converts an integer tick price to a decimal with
// tickDecimals implied places, quantized to the feature scale.
func DecimalFromTicks(ticks int64, tickDecimals int32) decimal.Decimal {
	return decimal.NewFromInt(ticks).Shift(-tickDecimals).Round(featureScale)
}

// ToTicks converts a decimal price back to integer ticks, rounding half up.
func ToTicks(value decimal.Decimal, tickDecimals int32) int64 {
	return value.Shift(tickDecimals).Round(0).IntPart()
}

// EMA is an exponential moving average over decimal prices. The first
// price seeds the value directly.
type EMA struct {
	alpha        decimal.Decimal
	value        *decimal.Decimal
	tickDecimals int32
}

// NewEMA creates an EMA with alpha = 2/(period+1).
func NewEMA(period int64, tickDecimals int32) *EMA {
	return &EMA{
		alpha:        decimal.NewFromInt(2).Div(decimal.NewFromInt(period + 1)),
		tickDecimals: tickDecimals,
	}
}

// Update folds one close price in and returns the current value.
func (e *EMA) Update(priceTicks int64) decimal.Decimal {
	price := DecimalFromTicks(priceTicks, e.tickDecimals)
	if e.value == nil {
		e.value = &price
	} else {
		one := decimal.NewFromInt(1)
		next := e.alpha.Mul(price).Add(one.Sub(e.alpha).Mul(*e.value))
		e.value = &next
	}
	return *e.value
}

// ATR is a Wilder-smoothed average true range over decimal prices.
// It returns nil until the true-range window has filled.
type ATR struct {
	period       int64
	tickDecimals int32
	trs          []decimal.Decimal
	prevClose    *decimal.Decimal
	value        *decimal.Decimal
}

// NewATR creates an ATR over the given period.
func NewATR(period int64, tickDecimals int32) *ATR {
	return &ATR{period: period, tickDecimals: tickDecimals}
}

// Update folds one bar in and returns the current value, nil during warm-up.
func (a *ATR) Update(highTicks, lowTicks, closeTicks int64) *decimal.Decimal {
	high := DecimalFromTicks(highTicks, a.tickDecimals)
	low := DecimalFromTicks(lowTicks, a.tickDecimals)
	closePx := DecimalFromTicks(closeTicks, a.tickDecimals)

	tr := high.Sub(low)
	if a.prevClose != nil {
		tr = decimal.Max(tr, high.Sub(*a.prevClose), a.prevClose.Sub(low))
	}

	switch {
	case a.prevClose == nil:
		a.trs = append(a.trs, tr)
	case int64(len(a.trs)) < a.period:
		a.trs = append(a.trs, tr)
	default:
		if a.value == nil {
			seed := decimal.Sum(a.trs[0], a.trs[1:]...).Div(decimal.NewFromInt(int64(len(a.trs))))
			a.value = &seed
		}
		next := a.value.Mul(decimal.NewFromInt(a.period - 1)).Add(tr).Div(decimal.NewFromInt(a.period))
		a.value = &next
	}

	a.prevClose = &closePx
	return a.value
}

// VWAP is the cumulative volume-weighted average price.
// It returns nil until any volume has been seen.
type VWAP struct {
	tickDecimals int32
	cumPV        decimal.Decimal
	cumVol       decimal.Decimal
}

// NewVWAP creates an empty VWAP accumulator.
func NewVWAP(tickDecimals int32) *VWAP {
	return &VWAP{tickDecimals: tickDecimals}
}

// Update folds one (price, size) observation in.
func (v *VWAP) Update(priceTicks, size int64) *decimal.Decimal {
	price := DecimalFromTicks(priceTicks, v.tickDecimals)
	v.cumPV = v.cumPV.Add(price.Mul(decimal.NewFromInt(size)))
	v.cumVol = v.cumVol.Add(decimal.NewFromInt(size))
	if v.cumVol.IsZero() {
		return nil
	}
	val := v.cumPV.Div(v.cumVol)
	return &val
}
