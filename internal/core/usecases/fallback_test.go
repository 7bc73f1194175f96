package usecases_test

import (
	"testing"
	"time"

	"github.com/transitlabs/wayplan/internal/core/domain"
	"github.com/transitlabs/wayplan/internal/core/usecases"
)

func fallbackPlanner() *usecases.FallbackPlanner {
	return usecases.NewFallbackPlanner().WithClock(func() time.Time { return testDay }, time.UTC)
}

func TestFallbackPlanner_InputOrderAndEstimates(t *testing.T) {
	req := baseRequest(spot("b", "B"), spot("a", "A"), spot("c", "C"))
	req.Mode = domain.ModeTransit // 20 minute flat estimate

	out := fallbackPlanner().Plan(req)
	if len(out.Days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(out.Days))
	}

	got := visitIDs(out.Days)
	want := []string{"b", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fallback must keep input order, got %v", got)
		}
	}

	items := out.Days[0].Items
	if items[0].Kind != domain.ItemVisit {
		t.Error("day 1 must open with a visit")
	}
	if arr, dep := clock(items, 0); arr != "09:20" || dep != "10:20" {
		t.Errorf("expected first visit 09:20-10:20, got %s-%s", arr, dep)
	}
	if arr, _ := clock(items, 1); arr != "10:40" {
		t.Errorf("expected 20 minute estimates between stops, second visit at %s", arr)
	}
	for _, item := range items {
		if item.Kind == domain.ItemMealBreak {
			t.Fatal("fallback schedules contain no meal breaks")
		}
	}
	last := items[len(items)-1]
	if last.Kind != domain.ItemAnchor {
		t.Error("fallback days still close at the hotel")
	}
}

func TestFallbackPlanner_ModeWeights(t *testing.T) {
	for mode, wantArrival := range map[domain.TravelMode]string{
		domain.ModeWalking: "09:15",
		domain.ModeDriving: "09:10",
		domain.ModeTransit: "09:20",
	} {
		req := baseRequest(spot("a", "A"))
		req.Mode = mode
		out := fallbackPlanner().Plan(req)
		if arr, _ := clock(out.Days[0].Items, 0); arr != wantArrival {
			t.Errorf("mode %s: expected arrival %s, got %s", mode, wantArrival, arr)
		}
	}
}

func TestFallbackPlanner_MultiDayRollover(t *testing.T) {
	req := baseRequest(spot("a", "A"), spot("b", "B"), spot("c", "C"), spot("d", "D"))
	end := 12
	req.DailyEndHour = &end

	out := fallbackPlanner().Plan(req)
	if len(out.Days) < 2 {
		t.Fatalf("expected rollover, got %d day(s)", len(out.Days))
	}
	if got := visitIDs(out.Days); len(got) != 4 {
		t.Errorf("every spot must be scheduled, got %v", got)
	}
	for _, d := range out.Days[1:] {
		if d.Items[0].Kind != domain.ItemAnchor {
			t.Errorf("day %d must open at the hotel", d.DayIndex)
		}
	}
}

func TestFallbackPlanner_SingleDayKeepsEverything(t *testing.T) {
	var spots []domain.Spot
	for _, id := range []string{"a", "b", "c"} {
		spots = append(spots, spot(id, id))
	}
	req := baseRequest(spots...)
	single := false
	req.MultiDay = &single

	out := fallbackPlanner().Plan(req)
	if len(out.Days) != 1 {
		t.Fatalf("expected a single day, got %d", len(out.Days))
	}
}
