package usecases

import (
	"fmt"
	"time"

	"github.com/transitlabs/wayplan/internal/core/domain"
)

// Flat transit estimates used when the map backend is unavailable.
var fallbackTransitEstimate = map[domain.TravelMode]time.Duration{
	domain.ModeWalking: 15 * time.Minute,
	domain.ModeDriving: 10 * time.Minute,
	domain.ModeTransit: 20 * time.Minute,
}

// FallbackPlanner produces a valid, unoptimized schedule from the input
// order: no geocoding, no meal breaks, flat mode-weighted travel estimates,
// and the request's default visit duration for every spot. It succeeds for
// any non-empty spot list.
type FallbackPlanner struct {
	now func() time.Time
	loc *time.Location
}

// NewFallbackPlanner creates the fallback planner.
func NewFallbackPlanner() *FallbackPlanner {
	return &FallbackPlanner{now: time.Now, loc: time.Local}
}

// WithClock overrides the clock and time zone, mirroring Planner.WithClock.
func (f *FallbackPlanner) WithClock(now func() time.Time, loc *time.Location) *FallbackPlanner {
	f.now = now
	f.loc = loc
	return f
}

// Plan builds the estimated schedule. The returned outcome has no
// coordinates; navigation links are omitted downstream.
func (f *FallbackPlanner) Plan(req *domain.PlanRequest) *Outcome {
	est := int64(fallbackTransitEstimate[req.Mode].Seconds())
	if est == 0 {
		est = int64(fallbackTransitEstimate[domain.ModeWalking].Seconds())
	}
	visit := int64(req.VisitDurationDefault) * 60

	startHour, startMin := req.StartHourMinute()
	endHour := req.EndHour()
	maxDays := req.MaxDays
	if !req.IsMultiDay() {
		maxDays = 1
	}

	today := f.now().In(f.loc)
	date := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, f.loc)

	resolved := map[string]domain.ResolvedSpot{
		domain.HotelID: {Spot: domain.Spot{ID: domain.HotelID, Name: req.Hotel}},
	}

	out := &Outcome{Resolved: resolved}
	remaining := req.Spots

	for dayIndex := 1; len(remaining) > 0 && dayIndex <= maxDays; dayIndex++ {
		dayStart := date.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute)
		endOfDay := date.Add(time.Duration(endHour) * time.Hour).Unix()
		cursor := dayStart.Unix()

		var items []domain.RouteItem
		committed := 0
		if dayIndex > 1 {
			items = append(items, domain.AnchorItem(domain.HotelID, cursor))
		}

		for len(remaining) > 0 {
			s := remaining[0]
			arrival := cursor + est
			depart := arrival + visit
			// Keep the return leg inside the window; an oversized spot
			// still gets committed alone rather than dropped.
			if committed > 0 && depart+est > endOfDay {
				break
			}
			resolved[s.ID] = domain.ResolvedSpot{Spot: s, VisitDurationSec: visit}
			items = append(items, domain.VisitItem(s.ID, arrival, depart))
			out.Legs = append(out.Legs, domain.TransitLeg{
				FromID:      prevID(items, domain.HotelID),
				ToID:        s.ID,
				DepartUnix:  cursor,
				DurationSec: est,
				Mode:        req.Mode,
			})
			cursor = depart
			remaining = remaining[1:]
			committed++
		}

		arrivalBack := cursor + est
		items = append(items, domain.AnchorItem(domain.HotelID, arrivalBack))
		out.Days = append(out.Days, domain.DayPlan{DayIndex: dayIndex, Date: date, Items: items})
		date = date.AddDate(0, 0, 1)
	}

	for _, s := range remaining {
		out.Warnings = append(out.Warnings, fmt.Sprintf("spot %q did not fit into the schedule and was omitted", s.Name))
	}
	return out
}

// prevID returns the spot id of the second-to-last located item, used to
// label the estimated leg's origin.
func prevID(items []domain.RouteItem, fallback string) string {
	if len(items) >= 2 {
		return items[len(items)-2].SpotID
	}
	return fallback
}
