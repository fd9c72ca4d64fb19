package ohlcv

import (
	"fmt"

	"github.com/marketloom/marketloom/internal/schema"
)

// dedupeIndex tracks per-symbol tick identities in insertion order so the
// oldest entries can be pruned first when a symbol exceeds the limit.
type dedupeIndex struct {
	limit      int
	pruneBatch int
	perSymbol  map[string]*seenSet
}

type seenSet struct {
	order []string
	at    map[string]int64
}

func newDedupeIndex(limit, pruneBatch int) *dedupeIndex {
	return &dedupeIndex{
		limit:      limit,
		pruneBatch: pruneBatch,
		perSymbol:  make(map[string]*seenSet),
	}
}

// dedupeKey derives the identity of a tick: trade_id when present, else the
// (seq, ts, price, size) tuple. Empty means the tick is not dedupable.
func dedupeKey(t schema.Tick) string {
	if t.TradeID != "" {
		return t.TradeID
	}
	if t.Seq != nil {
		return fmt.Sprintf("%d:%d:%d:%d", *t.Seq, t.TSMS, t.PriceTicks, t.Size)
	}
	return ""
}

// seen records the tick identity and reports whether it was already present.
// Ticks without an identity are never duplicates.
func (d *dedupeIndex) seen(symbol string, t schema.Tick, nowMS int64) bool {
	key := dedupeKey(t)
	if key == "" {
		return false
	}

	set := d.perSymbol[symbol]
	if set == nil {
		set = &seenSet{at: make(map[string]int64)}
		d.perSymbol[symbol] = set
	}

	if _, ok := set.at[key]; ok {
		return true
	}

	set.at[key] = nowMS
	set.order = append(set.order, key)
	if len(set.at) > d.limit {
		set.prune(min(d.pruneBatch, len(set.at)))
	}
	return false
}

// size reports how many identities are tracked for symbol.
func (d *dedupeIndex) size(symbol string) int {
	set := d.perSymbol[symbol]
	if set == nil {
		return 0
	}
	return len(set.at)
}

func (s *seenSet) prune(n int) {
	for _, key := range s.order[:n] {
		delete(s.at, key)
	}
	rest := make([]string, len(s.order)-n)
	copy(rest, s.order[n:])
	s.order = rest
}
