package gate

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marketloom/marketloom/internal/bus"
	"github.com/marketloom/marketloom/internal/schema"
	"github.com/marketloom/marketloom/internal/wire"
)

// Audit event types emitted by the gate.
const (
	EventValidatedSignal = "codex_validated_signal"
	EventSignalFailed    = "codex_validation_failed"
	EventValidatedNews   = "codex_validated_news"
	EventNewsFailed      = "codex_news_validate_failed"
	EventValidatedPlan   = "codex_validated_fusion_plan"
	EventPlanFailed      = "codex_fusion_plan_failed"
)

// Result statuses.
const (
	StatusOK     = "OK"
	StatusReject = "REJECT"
)

// Result reports the outcome of one publish attempt.
type Result struct {
	Status string
	Errors []schema.FieldError

	// Identity of the accepted record, set only on OK.
	SignalID    string
	ArticleID   string
	PlanVersion string
}

func (r Result) OK() bool { return r.Status == StatusOK }

// Gate validates records and publishes them with audit trail entries.
//
// Now and NewID default to wall-clock time and random UUIDs; deterministic
// runs (replay, tests) inject fixed sources so the audit topic is
// byte-reproducible.
type Gate struct {
	Bus   bus.Bus
	Now   func() int64
	NewID func() string
}

// New returns a Gate with wall-clock audit timestamps and UUID audit IDs.
func New(b bus.Bus) *Gate {
	return &Gate{
		Bus:   b,
		Now:   func() int64 { return time.Now().UnixMilli() },
		NewID: uuid.NewString,
	}
}

// PublishSignal validates s and publishes it to signal.display.v1.
// On rejection nothing reaches the signal topic; the failure is audited
// and the returned Result carries the field errors.
func (g *Gate) PublishSignal(s schema.Signal) (Result, error) {
	if errs := schema.ValidateSignal(&s); len(errs) > 0 {
		if err := g.audit(EventSignalFailed, map[string]any{
			"signal_id": s.ID,
			"symbol":    s.Symbol,
			"errors":    errs,
		}); err != nil {
			return Result{}, err
		}
		return Result{Status: StatusReject, Errors: errs}, nil
	}

	if err := g.Bus.Publish(schema.TopicSignal, s); err != nil {
		return Result{}, fmt.Errorf("publish signal %s: %w", s.ID, err)
	}
	if err := g.audit(EventValidatedSignal, map[string]any{
		"signal_id": s.ID,
		"symbol":    s.Symbol,
	}); err != nil {
		return Result{}, err
	}
	return Result{Status: StatusOK, SignalID: s.ID}, nil
}

// PublishNews validates n and publishes it to article.analysis.v1.
func (g *Gate) PublishNews(n schema.NewsAnalysis) (Result, error) {
	if errs := schema.ValidateNews(&n); len(errs) > 0 {
		if err := g.audit(EventNewsFailed, map[string]any{
			"article_id": n.ArticleID,
			"errors":     errs,
		}); err != nil {
			return Result{}, err
		}
		return Result{Status: StatusReject, Errors: errs}, nil
	}

	if err := g.Bus.Publish(schema.TopicNews, n); err != nil {
		return Result{}, fmt.Errorf("publish news %s: %w", n.ArticleID, err)
	}
	if err := g.audit(EventValidatedNews, map[string]any{
		"article_id": n.ArticleID,
	}); err != nil {
		return Result{}, err
	}
	return Result{Status: StatusOK, ArticleID: n.ArticleID}, nil
}

// PublishPlan validates p and publishes it to fusion.plan.v1.
func (g *Gate) PublishPlan(p schema.FusionPlan) (Result, error) {
	if errs := schema.ValidatePlan(&p); len(errs) > 0 {
		if err := g.audit(EventPlanFailed, map[string]any{
			"version": p.Version,
			"errors":  errs,
		}); err != nil {
			return Result{}, err
		}
		return Result{Status: StatusReject, Errors: errs}, nil
	}

	if err := g.Bus.Publish(schema.TopicFusionPlan, p); err != nil {
		return Result{}, fmt.Errorf("publish plan %s: %w", p.Version, err)
	}
	if err := g.audit(EventValidatedPlan, map[string]any{
		"version": p.Version,
	}); err != nil {
		return Result{}, err
	}
	return Result{Status: StatusOK, PlanVersion: p.Version}, nil
}

func (g *Gate) audit(eventType string, payload map[string]any) error {
	body, err := wire.MarshalString(payload)
	if err != nil {
		return fmt.Errorf("encode audit payload for %s: %w", eventType, err)
	}
	rec := schema.AuditRecord{
		ID:          g.NewID(),
		EventType:   eventType,
		TSMS:        g.Now(),
		PayloadJSON: body,
	}
	if err := g.Bus.Publish(schema.TopicAudit, rec); err != nil {
		return fmt.Errorf("publish audit %s: %w", eventType, err)
	}
	return nil
}
