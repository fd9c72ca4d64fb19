package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. Field rules live on the record
// types' validate tags; error messages report wire field names via the json
// tag, not Go identifiers.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FieldError describes one rejected field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Value any    `json:"value,omitempty"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: failed %q", e.Field, e.Rule)
}

// checkStruct runs the validator and converts its output to FieldErrors.
func checkStruct(v any) []FieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Rule: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field: fe.Field(),
			Rule:  fe.Tag(),
			Value: fe.Value(),
		})
	}
	return out
}

// ValidateSignal checks a display signal against the gate acceptance rules.
// A nil return means the signal may be published.
func ValidateSignal(s *Signal) []FieldError {
	normalizeSignal(s)
	return checkStruct(s)
}

// ValidateNews checks a news analysis record.
func ValidateNews(n *NewsAnalysis) []FieldError {
	normalizeNews(n)
	return checkStruct(n)
}

// ValidatePlan checks a fusion plan.
func ValidatePlan(p *FusionPlan) []FieldError {
	normalizePlan(p)
	return checkStruct(p)
}

// Normalization fills the defaults the original envelopes carry, so the
// canonical wire form always has the collection fields present.

func normalizeSignal(s *Signal) {
	if s.TargetPriceTicks == nil {
		s.TargetPriceTicks = []int64{}
	}
	if s.Debug == nil {
		s.Debug = map[string]any{}
	}
}

func normalizeNews(n *NewsAnalysis) {
	if n.Entities == nil {
		n.Entities = []string{}
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if n.ImpactClass == "" {
		n.ImpactClass = "none"
	}
}

func normalizePlan(p *FusionPlan) {
	if p.MinContributions == 0 {
		p.MinContributions = 1
	}
	if p.Debug == nil {
		p.Debug = map[string]any{}
	}
}

// DecodeSignal parses a raw JSON payload into a Signal without validating.
// Unknown fields are ignored; validation is the gate's job.
func DecodeSignal(raw []byte) (Signal, error) {
	var s Signal
	if err := json.Unmarshal(raw, &s); err != nil {
		return Signal{}, fmt.Errorf("decode signal: %w", err)
	}
	return s, nil
}
