package usecases_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/transitlabs/wayplan/internal/core/domain"
	"github.com/transitlabs/wayplan/internal/core/usecases"
)

// --- Mock MapProvider ---

// mockMapProvider places every known address on a one-dimensional line
// (encoded in Lng) and charges 10 minutes of travel per unit of distance,
// so greedy selection is easy to predict by hand.
type mockMapProvider struct {
	places    map[string]float64 // address -> position on the line
	geocodeFn func(ctx context.Context, address string) (domain.Coordinates, error)
	transitFn func(origin, dest domain.Coordinates, departUnix int64, mode domain.TravelMode) (int64, int64, error)
}

func (m *mockMapProvider) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, address)
	}
	pos, ok := m.places[address]
	if !ok {
		return domain.Coordinates{}, domain.E(domain.KindNotFound, "no match for %q", address)
	}
	return domain.Coordinates{Lat: 1, Lng: pos}, nil
}

func (m *mockMapProvider) TransitTime(ctx context.Context, origin, dest domain.Coordinates, departUnix int64, mode domain.TravelMode) (int64, int64, error) {
	if m.transitFn != nil {
		return m.transitFn(origin, dest, departUnix, mode)
	}
	diff := origin.Lng - dest.Lng
	if diff < 0 {
		diff = -diff
	}
	return int64(diff * 600), int64(diff * 1000), nil
}

func (m *mockMapProvider) NavigationLink(origin, dest domain.Coordinates, departUnix int64, mode domain.TravelMode) string {
	return fmt.Sprintf("nav://%.0f-%.0f", origin.Lng, dest.Lng)
}

// --- Helpers ---

var testDay = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func testPlanner(p *mockMapProvider) *usecases.Planner {
	return usecases.NewPlanner(p).WithClock(func() time.Time { return testDay }, time.UTC)
}

func lineProvider(positions map[string]float64) *mockMapProvider {
	return &mockMapProvider{places: positions}
}

func spot(id, name string) domain.Spot {
	return domain.Spot{ID: id, Name: name}
}

func visitIDs(days []domain.DayPlan) []string {
	var out []string
	for _, d := range days {
		for _, v := range d.Visits() {
			out = append(out, v.SpotID)
		}
	}
	return out
}

func clock(items []domain.RouteItem, i int) (string, string) {
	arr := time.Unix(items[i].ArrivalUnix, 0).UTC().Format("15:04")
	dep := time.Unix(items[i].DepartureUnix, 0).UTC().Format("15:04")
	return arr, dep
}

func baseRequest(spots ...domain.Spot) *domain.PlanRequest {
	req := &domain.PlanRequest{Hotel: "Grand Hotel", Spots: spots}
	req.Normalize()
	return req
}

// --- Tests ---

func TestPlanner_SingleSpot_DayOneStartsWithVisit(t *testing.T) {
	p := lineProvider(map[string]float64{"Grand Hotel": 0, "Museum": 1})
	req := baseRequest(spot("a", "Museum"))

	out, err := testPlanner(p).Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(out.Days))
	}

	items := out.Days[0].Items
	if len(items) != 2 {
		t.Fatalf("expected [visit, anchor], got %d items", len(items))
	}
	if items[0].Kind != domain.ItemVisit || items[0].SpotID != "a" {
		t.Errorf("day 1 must open with the visit, got %+v", items[0])
	}
	if items[1].Kind != domain.ItemAnchor || items[1].SpotID != domain.HotelID {
		t.Errorf("day must close at the hotel, got %+v", items[1])
	}

	if arr, dep := clock(items, 0); arr != "09:10" || dep != "10:10" {
		t.Errorf("expected visit 09:10-10:10, got %s-%s", arr, dep)
	}
	if arr, _ := clock(items, 1); arr != "10:20" {
		t.Errorf("expected hotel return at 10:20, got %s", arr)
	}
}

func TestPlanner_GreedyPicksNearestFirst(t *testing.T) {
	p := lineProvider(map[string]float64{"Grand Hotel": 0, "Far": 3, "Near": 1, "Mid": 2})
	req := baseRequest(spot("far", "Far"), spot("near", "Near"), spot("mid", "Mid"))

	out, err := testPlanner(p).Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := visitIDs(out.Days)
	want := []string{"near", "mid", "far"}
	if len(got) != len(want) {
		t.Fatalf("expected %d visits, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected visit order %v, got %v", want, got)
		}
	}
}

func TestPlanner_TieBreaks(t *testing.T) {
	// Both spots are one unit from the hotel. The shorter visit wins the
	// first tie-break; with equal visits the smaller id wins.
	p := lineProvider(map[string]float64{"Grand Hotel": 0, "East": 1, "West": -1})

	long := spot("a", "East")
	long.RecommendedDurationMin = 120
	short := spot("b", "West")
	short.RecommendedDurationMin = 60

	out, err := testPlanner(p).Plan(context.Background(), baseRequest(long, short))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := visitIDs(out.Days); got[0] != "b" {
		t.Errorf("shorter visit should win the tie, got order %v", got)
	}

	out, err = testPlanner(p).Plan(context.Background(), baseRequest(spot("b", "West"), spot("a", "East")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := visitIDs(out.Days); got[0] != "a" {
		t.Errorf("lexicographic id should settle a full tie, got order %v", got)
	}
}

func TestPlanner_LunchBreakInserted(t *testing.T) {
	p := lineProvider(map[string]float64{"Grand Hotel": 0, "A": 1, "B": 2, "C": 3, "D": 4})
	req := baseRequest(spot("a", "A"), spot("b", "B"), spot("c", "C"), spot("d", "D"))

	out, err := testPlanner(p).Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items := out.Days[0].Items
	var lunch *domain.RouteItem
	for i := range items {
		if items[i].Kind == domain.ItemMealBreak && items[i].Meal == domain.MealLunch {
			lunch = &items[i]
		}
	}
	if lunch == nil {
		t.Fatal("expected a lunch break in the first day")
	}

	h := time.Unix(lunch.ArrivalUnix, 0).UTC().Hour()
	if h < 12 || h >= 14 {
		t.Errorf("lunch must start in [12,14), started at hour %d", h)
	}
	if got := lunch.DepartureUnix - lunch.ArrivalUnix; got != 3600 {
		t.Errorf("lunch must last 60 minutes, got %d seconds", got)
	}
	if items[0].Kind == domain.ItemMealBreak {
		t.Error("a meal break must never open the day")
	}
}

func TestPlanner_NoBreaksWhenDisabled(t *testing.T) {
	p := lineProvider(map[string]float64{"Grand Hotel": 0, "A": 1, "B": 2, "C": 3, "D": 4})
	req := baseRequest(spot("a", "A"), spot("b", "B"), spot("c", "C"), spot("d", "D"))
	off := false
	req.IncludeBreaks = &off

	out, err := testPlanner(p).Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, d := range out.Days {
		for _, item := range d.Items {
			if item.Kind == domain.ItemMealBreak {
				t.Fatal("meal break scheduled although breaks are disabled")
			}
		}
	}
}

func TestPlanner_MultiDayRollover(t *testing.T) {
	p := lineProvider(map[string]float64{"Grand Hotel": 0, "A": 1, "B": 2, "C": 3, "D": 4})
	req := baseRequest(spot("a", "A"), spot("b", "B"), spot("c", "C"), spot("d", "D"))
	end := 12
	req.DailyEndHour = &end

	out, err := testPlanner(p).Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Days) < 2 {
		t.Fatalf("expected the schedule to roll over, got %d day(s)", len(out.Days))
	}
	if len(out.Warnings) != 0 {
		t.Errorf("every spot fits across days, unexpected warnings %v", out.Warnings)
	}

	// Later days open at the hotel.
	for _, d := range out.Days[1:] {
		if d.Items[0].Kind != domain.ItemAnchor {
			t.Errorf("day %d must open at the hotel, got %+v", d.DayIndex, d.Items[0])
		}
	}
	// Every day ends at the hotel within the window.
	endOfDay := func(d domain.DayPlan) int64 {
		return d.Date.Add(12 * time.Hour).Unix()
	}
	for _, d := range out.Days {
		last := d.Items[len(d.Items)-1]
		if last.Kind != domain.ItemAnchor {
			t.Errorf("day %d must close at the hotel", d.DayIndex)
		}
		if last.ArrivalUnix > endOfDay(d) {
			t.Errorf("day %d returns after the daily end", d.DayIndex)
		}
	}
	if got := visitIDs(out.Days); len(got) != 4 {
		t.Errorf("all four spots should be scheduled, got %v", got)
	}
	// Consecutive calendar dates.
	for i := 1; i < len(out.Days); i++ {
		if !out.Days[i].Date.Equal(out.Days[i-1].Date.AddDate(0, 0, 1)) {
			t.Errorf("day %d is not the calendar day after day %d", i+1, i)
		}
	}
}

func TestPlanner_SingleDayOmitsLeftovers(t *testing.T) {
	p := lineProvider(map[string]float64{"Grand Hotel": 0, "A": 1, "B": 2, "C": 3, "D": 4})
	req := baseRequest(spot("a", "A"), spot("b", "B"), spot("c", "C"), spot("d", "D"))
	single := false
	req.MultiDay = &single
	end := 12
	req.DailyEndHour = &end

	out, err := testPlanner(p).Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Days) != 1 {
		t.Fatalf("single-day plan produced %d days", len(out.Days))
	}
	if len(out.Warnings) == 0 {
		t.Error("expected omission warnings for spots that did not fit")
	}
}

func TestPlanner_PermutationInvariant(t *testing.T) {
	p := lineProvider(map[string]float64{"Grand Hotel": 0, "A": 1, "B": 2, "C": 3})
	a, b, c := spot("a", "A"), spot("b", "B"), spot("c", "C")

	first, err := testPlanner(p).Plan(context.Background(), baseRequest(a, b, c))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := testPlanner(p).Plan(context.Background(), baseRequest(c, a, b))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, want := visitIDs(second.Days), visitIDs(first.Days)
	if len(got) != len(want) {
		t.Fatalf("different visit counts: %v vs %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("input order changed the schedule: %v vs %v", got, want)
		}
	}
}

func TestPlanner_SpotNotFoundIsSkipped(t *testing.T) {
	p := lineProvider(map[string]float64{"Grand Hotel": 0, "A": 1})
	req := baseRequest(spot("a", "A"), spot("x", "Nowhere Land"))

	out, err := testPlanner(p).Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := visitIDs(out.Days); len(got) != 1 || got[0] != "a" {
		t.Errorf("expected only spot a scheduled, got %v", got)
	}
	if len(out.Warnings) != 1 {
		t.Fatalf("expected one skip warning, got %v", out.Warnings)
	}
}

func TestPlanner_HotelNotFoundFails(t *testing.T) {
	p := lineProvider(map[string]float64{"A": 1})
	_, err := testPlanner(p).Plan(context.Background(), baseRequest(spot("a", "A")))
	if err == nil {
		t.Fatal("expected an error for an unresolvable hotel")
	}
	if domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("expected not_found, got %s", domain.KindOf(err))
	}
}

func TestPlanner_QuotaErrorPropagates(t *testing.T) {
	p := lineProvider(map[string]float64{"Grand Hotel": 0, "A": 1})
	p.transitFn = func(_, _ domain.Coordinates, _ int64, _ domain.TravelMode) (int64, int64, error) {
		return 0, 0, domain.E(domain.KindProviderQuota, "daily quota exhausted")
	}

	_, err := testPlanner(p).Plan(context.Background(), baseRequest(spot("a", "A")))
	if err == nil {
		t.Fatal("expected quota error")
	}
	if !domain.TriggersFallback(err) {
		t.Errorf("quota errors must route to the fallback path, kind %s", domain.KindOf(err))
	}
}

func TestPlanner_UnreachableSpotOmitted(t *testing.T) {
	p := lineProvider(map[string]float64{"Grand Hotel": 0, "A": 1, "Island": 9})
	p.transitFn = func(origin, dest domain.Coordinates, _ int64, _ domain.TravelMode) (int64, int64, error) {
		if dest.Lng == 9 || origin.Lng == 9 {
			return domain.NoRoute, 0, nil
		}
		diff := origin.Lng - dest.Lng
		if diff < 0 {
			diff = -diff
		}
		return int64(diff * 600), int64(diff * 1000), nil
	}

	req := baseRequest(spot("a", "A"), spot("isl", "Island"))
	out, err := testPlanner(p).Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := visitIDs(out.Days); len(got) != 1 || got[0] != "a" {
		t.Errorf("only the reachable spot should be scheduled, got %v", got)
	}
	if len(out.Warnings) != 1 {
		t.Errorf("expected one omission warning, got %v", out.Warnings)
	}
}

func TestPlanner_CanceledContext(t *testing.T) {
	p := lineProvider(map[string]float64{"Grand Hotel": 0, "A": 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testPlanner(p).Plan(ctx, baseRequest(spot("a", "A")))
	if err == nil {
		t.Fatal("expected an error from a canceled context")
	}
	if domain.KindOf(err) != domain.KindDeadline {
		t.Errorf("expected deadline kind, got %s", domain.KindOf(err))
	}
}

func TestPlanner_RecommendedDurationHonored(t *testing.T) {
	p := lineProvider(map[string]float64{"Grand Hotel": 0, "A": 1})
	s := spot("a", "A")
	s.RecommendedDurationMin = 90

	out, err := testPlanner(p).Plan(context.Background(), baseRequest(s))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	visit := out.Days[0].Items[0]
	if got := visit.DepartureUnix - visit.ArrivalUnix; got != 90*60 {
		t.Errorf("expected a 90 minute visit, got %d seconds", got)
	}
}
