package fusion

import "github.com/marketloom/marketloom/internal/schema"

// defaultWeight applies to horizons the plan does not name.
const defaultWeight = 1.0

// DefaultPlan is the built-in fusion plan: longer horizons carry more
// weight, and a weighted confidence of 55 or better is accepted.
func DefaultPlan() schema.FusionPlan {
	return schema.FusionPlan{
		Version: "fusion_plan_v1",
		Weights: map[string]float64{
			schema.HorizonScalp: 0.5,
			schema.HorizonDay:   1.0,
			schema.HorizonSwing: 1.5,
		},
		AcceptThreshold:     55,
		ConflictRRThreshold: 0.3,
		MinContributions:    1,
		Debug:               map[string]any{},
	}
}
