package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/transitlabs/wayplan/internal/core/domain"
	"github.com/transitlabs/wayplan/internal/core/ports"
	"github.com/transitlabs/wayplan/internal/monitor"
)

const fallbackWarning = "map backend unavailable; schedule built from flat travel estimates"

// PlanService is the application entry point for itinerary planning. It
// validates the request, runs the greedy planner under the request deadline,
// falls back to the estimated schedule on provider outage, renders the
// result, and records the trace.
type PlanService struct {
	provider ports.MapProvider
	planner  *Planner
	fallback *FallbackPlanner
	builder  *ScheduleBuilder
	monitor  *monitor.Monitor
	events   ports.EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewPlanService wires the planning pipeline. The provider should already
// carry caching; the retry layer is added here. events may be nil when no
// broker is configured.
func NewPlanService(provider ports.MapProvider, mon *monitor.Monitor, events ports.EventPublisher, logger *slog.Logger) *PlanService {
	wrapped := newRetryProvider(provider, mon)
	return &PlanService{
		provider: wrapped,
		planner:  NewPlanner(wrapped),
		fallback: NewFallbackPlanner(),
		builder:  NewScheduleBuilder(wrapped),
		monitor:  mon,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock pins the clock and time zone across the planner, the fallback
// planner, and the schedule renderer.
func (s *PlanService) WithClock(now func() time.Time, loc *time.Location) *PlanService {
	s.now = now
	s.planner.WithClock(now, loc)
	s.fallback.WithClock(now, loc)
	s.builder.WithLocation(loc)
	return s
}

// Plan executes one planning request end to end.
func (s *PlanService) Plan(ctx context.Context, req *domain.PlanRequest) (*domain.PlanResponse, error) {
	started := s.now()

	req.Normalize()
	if err := req.Validate(); err != nil {
		s.record(req, started, nil, time.Time{}, false, err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(req.DeadlineMs)*time.Millisecond)
	defer cancel()

	tracer := otel.Tracer("wayplan/usecases")
	ctx, span := tracer.Start(ctx, "plan")
	span.SetAttributes(
		attribute.Int("plan.spots", len(req.Spots)),
		attribute.String("plan.mode", string(req.Mode)),
	)
	defer span.End()

	out, err := s.planner.Plan(ctx, req)
	fallbackUsed := false
	if err != nil {
		if !domain.TriggersFallback(err) && !errors.Is(err, errNothingScheduled) {
			s.logger.Warn("planning failed", "err", err, "kind", string(domain.KindOf(err)))
			s.record(req, started, out, time.Time{}, false, err)
			s.publish(req, nil, err)
			return nil, err
		}
		s.logger.Warn("planner unavailable, building estimated schedule",
			"err", err, "kind", string(domain.KindOf(err)))
		out = s.fallback.Plan(req)
		out.Warnings = append(out.Warnings, fallbackWarning)
		fallbackUsed = true
	}

	buildStart := s.now()
	itinerary := s.builder.Build(req, out)
	itinerary.FallbackUsed = fallbackUsed

	resp := &domain.PlanResponse{
		SessionID:    req.SessionID,
		Itinerary:    itinerary,
		FallbackUsed: fallbackUsed,
		Warnings:     out.Warnings,
	}

	s.record(req, started, out, buildStart, fallbackUsed, nil)
	s.publish(req, resp, nil)

	s.logger.Info("plan completed",
		"sessionId", req.SessionID,
		"days", len(itinerary.Days),
		"fallback", fallbackUsed,
		"durationMs", s.now().Sub(started).Milliseconds(),
	)
	return resp, nil
}

// record files the request trace with the monitor.
func (s *PlanService) record(req *domain.PlanRequest, started time.Time, out *Outcome, buildStart time.Time, fallbackUsed bool, err error) {
	if s.monitor == nil {
		return
	}
	t := monitor.Trace{
		SessionID:    req.SessionID,
		StartedAt:    started,
		DurationMs:   s.now().Sub(started).Milliseconds(),
		FallbackUsed: fallbackUsed,
	}
	if out != nil {
		t.Phases = monitor.PhaseTimings{
			GeocodeMs:  out.GeocodeDur.Milliseconds(),
			PairwiseMs: out.PairwiseDur.Milliseconds(),
			PlanningMs: out.PlanningDur.Milliseconds(),
		}
		t.Warnings = len(out.Warnings)
	}
	if !buildStart.IsZero() {
		t.Phases.BuildMs = s.now().Sub(buildStart).Milliseconds()
	}
	if err != nil {
		t.ErrKind = string(domain.KindOf(err))
		t.Err = err.Error()
	}
	s.monitor.RecordRequest(t)
}

// planEvent is the broker payload for plan lifecycle events.
type planEvent struct {
	SessionID    string `json:"sessionId,omitempty"`
	Hotel        string `json:"hotel"`
	Spots        int    `json:"spots"`
	Days         int    `json:"days,omitempty"`
	FallbackUsed bool   `json:"fallbackUsed"`
	Warnings     int    `json:"warnings,omitempty"`
	ErrKind      string `json:"errKind,omitempty"`
	Error        string `json:"error,omitempty"`
}

// publish emits the lifecycle event. Publishing is best effort and never
// fails the request; it runs on a detached context so a hit deadline does
// not suppress the event.
func (s *PlanService) publish(req *domain.PlanRequest, resp *domain.PlanResponse, planErr error) {
	if s.events == nil {
		return
	}
	ev := planEvent{
		SessionID: req.SessionID,
		Hotel:     req.Hotel,
		Spots:     len(req.Spots),
	}
	if resp != nil {
		ev.Days = len(resp.Itinerary.Days)
		ev.FallbackUsed = resp.FallbackUsed
		ev.Warnings = len(resp.Warnings)
	}
	if planErr != nil {
		ev.ErrKind = string(domain.KindOf(planErr))
		ev.Error = planErr.Error()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch {
	case planErr != nil:
		err = s.events.PublishPlanFailed(ctx, payload)
	case resp.FallbackUsed:
		err = s.events.PublishPlanFallback(ctx, payload)
	default:
		err = s.events.PublishPlanCompleted(ctx, payload)
	}
	if err != nil {
		s.logger.Warn("plan event publish failed", "err", err)
	}
}
