package rules

import (
	"github.com/marketloom/marketloom/internal/bus"
	"github.com/marketloom/marketloom/internal/gate"
)

// Engine is one rule evaluated over a symbol's topic state.
type Engine interface {
	Name() string
	Evaluate(b bus.Bus, g *gate.Gate, symbol string) error
}

type dayEngine struct{}

func (dayEngine) Name() string { return "day_breakout" }
func (dayEngine) Evaluate(b bus.Bus, g *gate.Gate, symbol string) error {
	return RunDay(b, g, symbol)
}

type scalpEngine struct{}

func (scalpEngine) Name() string { return "scalp_spread" }
func (scalpEngine) Evaluate(b bus.Bus, g *gate.Gate, symbol string) error {
	return RunScalp(b, g, symbol)
}

type swingEngine struct{}

func (swingEngine) Name() string { return "swing_structure" }
func (swingEngine) Evaluate(b bus.Bus, g *gate.Gate, symbol string) error {
	return RunSwing(b, g, symbol)
}

// All returns the stock engines in their fixed evaluation order.
func All() []Engine {
	return []Engine{dayEngine{}, scalpEngine{}, swingEngine{}}
}
