package usecases_test

import (
	"strings"
	"testing"
	"time"

	"github.com/transitlabs/wayplan/internal/core/domain"
	"github.com/transitlabs/wayplan/internal/core/usecases"
)

func unixAt(hour, min int) int64 {
	return time.Date(2026, 3, 2, hour, min, 0, 0, time.UTC).Unix()
}

// handOutcome builds a one-day outcome by hand: visit 09:00-10:00, 65
// minutes of travel, visit 11:05-12:05, 10 minutes back to the hotel.
func handOutcome() *usecases.Outcome {
	hotel := domain.ResolvedSpot{
		Spot:   domain.Spot{ID: domain.HotelID, Name: "Grand Hotel"},
		Coords: domain.Coordinates{Lat: 1, Lng: 0},
	}
	s1 := domain.ResolvedSpot{
		Spot:   domain.Spot{ID: "s1", Name: "City Museum"},
		Coords: domain.Coordinates{Lat: 1, Lng: 1},
	}
	s2 := domain.ResolvedSpot{
		Spot:   domain.Spot{ID: "s2", Name: "Harbour Market"},
		Coords: domain.Coordinates{Lat: 1, Lng: 2},
	}

	return &usecases.Outcome{
		Hotel: hotel,
		Resolved: map[string]domain.ResolvedSpot{
			domain.HotelID: hotel, "s1": s1, "s2": s2,
		},
		Days: []domain.DayPlan{{
			DayIndex: 1,
			Date:     time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			Items: []domain.RouteItem{
				domain.VisitItem("s1", unixAt(9, 0), unixAt(10, 0)),
				domain.VisitItem("s2", unixAt(11, 5), unixAt(12, 5)),
				domain.AnchorItem(domain.HotelID, unixAt(12, 15)),
			},
		}},
		Legs: []domain.TransitLeg{
			{FromID: domain.HotelID, ToID: "s1", DurationSec: 600, DistanceMeters: 1500, Mode: domain.ModeWalking},
			{FromID: "s1", ToID: "s2", DurationSec: 3900, DistanceMeters: 500, Mode: domain.ModeWalking},
		},
	}
}

func TestScheduleBuilder_Build(t *testing.T) {
	req := &domain.PlanRequest{Hotel: "Grand Hotel", Mode: domain.ModeWalking}
	p := lineProvider(nil)
	b := usecases.NewScheduleBuilder(p).WithLocation(time.UTC)

	it := b.Build(req, handOutcome())

	if it.Title != "1-day walking itinerary" {
		t.Errorf("unexpected title %q", it.Title)
	}
	if len(it.Days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(it.Days))
	}

	day := it.Days[0]
	if day.Date != "2026-03-02" {
		t.Errorf("unexpected date %q", day.Date)
	}
	if len(day.Stops) != 3 {
		t.Fatalf("expected 3 stops, got %d", len(day.Stops))
	}

	first := day.Stops[0]
	if !strings.HasPrefix(first.Name, "**Day 1** ") {
		t.Errorf("first stop must carry the day header, got %q", first.Name)
	}
	if first.Arrival != "09:00" || first.Departure != "10:00" || first.DurationMin != 60 {
		t.Errorf("unexpected first stop times: %+v", first)
	}
	if first.TravelToNext != "1h 5m" {
		t.Errorf("expected travel '1h 5m', got %q", first.TravelToNext)
	}
	if first.NavigationURL == "" {
		t.Error("expected a navigation link between distinct stops")
	}

	second := day.Stops[1]
	if second.TravelToNext != "10m" {
		t.Errorf("expected travel '10m', got %q", second.TravelToNext)
	}

	last := day.Stops[2]
	if last.Name != "Grand Hotel" || last.Kind != domain.ItemAnchor {
		t.Errorf("day must close at the hotel, got %+v", last)
	}
	if last.TravelToNext != "" || last.NavigationURL != "" {
		t.Error("the final stop has no onward travel")
	}

	if it.TotalTravelTimeMin != 75 {
		t.Errorf("expected 75 travel minutes, got %d", it.TotalTravelTimeMin)
	}
	// 09:00 to 12:15 wall clock.
	if it.TotalDurationMin != 195 {
		t.Errorf("expected 195 total minutes, got %d", it.TotalDurationMin)
	}
	if it.TotalDistanceMeters != 2000 {
		t.Errorf("expected 2000 meters, got %d", it.TotalDistanceMeters)
	}
}

func TestScheduleBuilder_MealBreakRendering(t *testing.T) {
	req := &domain.PlanRequest{Hotel: "Grand Hotel", Mode: domain.ModeWalking}
	out := handOutcome()
	out.Days[0].Items = []domain.RouteItem{
		domain.VisitItem("s1", unixAt(11, 0), unixAt(12, 0)),
		domain.MealItem(domain.MealLunch, unixAt(12, 0), unixAt(13, 0)),
		domain.VisitItem("s2", unixAt(13, 10), unixAt(14, 10)),
		domain.AnchorItem(domain.HotelID, unixAt(14, 30)),
	}

	b := usecases.NewScheduleBuilder(lineProvider(nil)).WithLocation(time.UTC)
	it := b.Build(req, out)

	stops := it.Days[0].Stops
	lunch := stops[1]
	if lunch.Name != "Lunch break" || lunch.DurationMin != 60 {
		t.Errorf("unexpected lunch rendering: %+v", lunch)
	}
	if lunch.NavigationURL != "" {
		t.Error("meal breaks have no location and no navigation link")
	}
	// The visit before the lunch links through to the next located stop.
	if stops[0].NavigationURL == "" {
		t.Error("expected the pre-lunch visit to link to the next spot")
	}
}
