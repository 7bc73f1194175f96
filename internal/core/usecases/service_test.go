package usecases_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/transitlabs/wayplan/internal/core/domain"
	"github.com/transitlabs/wayplan/internal/core/usecases"
	"github.com/transitlabs/wayplan/internal/monitor"
)

// --- Mock EventPublisher ---

type mockPublisher struct {
	completed, fallback, failed int
	lastPayload                 []byte
}

func (m *mockPublisher) PublishPlanCompleted(ctx context.Context, payload []byte) error {
	m.completed++
	m.lastPayload = payload
	return nil
}

func (m *mockPublisher) PublishPlanFallback(ctx context.Context, payload []byte) error {
	m.fallback++
	m.lastPayload = payload
	return nil
}

func (m *mockPublisher) PublishPlanFailed(ctx context.Context, payload []byte) error {
	m.failed++
	m.lastPayload = payload
	return nil
}

func newService(p *mockMapProvider, mon *monitor.Monitor, events *mockPublisher) *usecases.PlanService {
	svc := usecases.NewPlanService(p, mon, nil, slog.Default())
	if events != nil {
		svc = usecases.NewPlanService(p, mon, events, slog.Default())
	}
	return svc.WithClock(func() time.Time { return testDay }, time.UTC)
}

// --- Tests ---

func TestPlanService_Success(t *testing.T) {
	p := lineProvider(map[string]float64{"Grand Hotel": 0, "A": 1, "B": 2})
	mon := monitor.New(10)
	pub := &mockPublisher{}
	svc := newService(p, mon, pub)

	req := &domain.PlanRequest{Hotel: "Grand Hotel", Spots: []domain.Spot{spot("a", "A"), spot("b", "B")}}
	resp, err := svc.Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.FallbackUsed {
		t.Error("fallback should not be used on a healthy provider")
	}
	if len(resp.Itinerary.Days) == 0 {
		t.Fatal("expected at least one day")
	}
	if pub.completed != 1 || pub.fallback != 0 || pub.failed != 0 {
		t.Errorf("expected one completed event, got %+v", pub)
	}
	if st := mon.Stats(); st.Requests != 1 || st.Successes != 1 {
		t.Errorf("monitor did not record the success: %+v", st)
	}
}

func TestPlanService_FallbackOnQuota(t *testing.T) {
	p := lineProvider(map[string]float64{"Grand Hotel": 0, "A": 1, "B": 2})
	p.geocodeFn = func(_ context.Context, _ string) (domain.Coordinates, error) {
		return domain.Coordinates{}, domain.E(domain.KindProviderQuota, "daily quota exhausted")
	}
	mon := monitor.New(10)
	pub := &mockPublisher{}
	svc := newService(p, mon, pub)

	req := &domain.PlanRequest{Hotel: "Grand Hotel", Spots: []domain.Spot{spot("a", "A"), spot("b", "B")}}
	resp, err := svc.Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("fallback should absorb the outage, got error: %v", err)
	}
	if !resp.FallbackUsed || !resp.Itinerary.FallbackUsed {
		t.Error("fallbackUsed must be set")
	}

	// Every input spot appears in input order, no meal breaks.
	var names []string
	for _, day := range resp.Itinerary.Days {
		for _, stop := range day.Stops {
			if stop.Kind == domain.ItemMealBreak {
				t.Error("fallback schedules must not contain meal breaks")
			}
			if stop.Kind == domain.ItemVisit {
				names = append(names, stop.SpotID)
			}
		}
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("fallback must keep input order, got %v", names)
	}

	found := false
	for _, w := range resp.Warnings {
		if strings.Contains(w, "map backend unavailable") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an estimate warning, got %v", resp.Warnings)
	}
	if pub.fallback != 1 {
		t.Errorf("expected one fallback event, got %+v", pub)
	}
	if st := mon.Stats(); st.Fallbacks != 1 {
		t.Errorf("monitor did not record the fallback: %+v", st)
	}
}

func TestPlanService_ValidationError(t *testing.T) {
	p := lineProvider(map[string]float64{"Grand Hotel": 0})
	mon := monitor.New(10)
	svc := newService(p, mon, nil)

	_, err := svc.Plan(context.Background(), &domain.PlanRequest{Hotel: "Grand Hotel"})
	if err == nil {
		t.Fatal("expected a validation error for zero spots")
	}
	if domain.KindOf(err) != domain.KindValidation {
		t.Errorf("expected validation kind, got %s", domain.KindOf(err))
	}
	if st := mon.Stats(); st.Failures[string(domain.KindValidation)] != 1 {
		t.Errorf("monitor did not record the failure: %+v", st.Failures)
	}
}

func TestPlanService_NotFoundSurfaces(t *testing.T) {
	p := lineProvider(map[string]float64{"A": 1})
	mon := monitor.New(10)
	pub := &mockPublisher{}
	svc := newService(p, mon, pub)

	req := &domain.PlanRequest{Hotel: "No Such Hotel", Spots: []domain.Spot{spot("a", "A")}}
	_, err := svc.Plan(context.Background(), req)
	if err == nil {
		t.Fatal("an unresolvable hotel must fail, not fall back")
	}
	if domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("expected not_found, got %s", domain.KindOf(err))
	}
	if pub.failed != 1 {
		t.Errorf("expected one failed event, got %+v", pub)
	}
}
