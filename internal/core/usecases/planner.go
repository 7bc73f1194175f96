// Package usecases contains the itinerary planning engine: resolution,
// greedy scheduling, schedule rendering, and the fallback path.
package usecases

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/transitlabs/wayplan/internal/core/domain"
	"github.com/transitlabs/wayplan/internal/core/ports"
)

// Meal-break windows and durations. Lunch may start in [12,14), dinner in
// [17,19).
const (
	lunchStartHour  = 12
	lunchEndHour    = 14
	lunchDuration   = 60 * time.Minute
	dinnerStartHour = 17
	dinnerEndHour   = 19
	dinnerDuration  = 90 * time.Minute
)

// errNothingScheduled signals that no visit fits the first day's window at
// all; the service answers with the fallback schedule.
var errNothingScheduled = domain.E(domain.KindInternal, "no visit fits within the daily window")

// Planner runs the greedy time-dependent nearest-neighbor schedule.
//
// Each step picks the unvisited spot with the smallest travel time from the
// current location at the current cursor time, among those that still allow
// a return to the hotel before the end of the day. Tie-breaks are
// deterministic (smaller travel+visit, then lexicographic id), so identical
// inputs yield identical schedules when the provider is deterministic.
type Planner struct {
	provider ports.MapProvider
	now      func() time.Time
	loc      *time.Location

	pairwiseNanos atomic.Int64 // accumulated time spent in travel lookups
}

// NewPlanner creates a planner over the given provider. The provider should
// already be wrapped with caching and retries.
func NewPlanner(provider ports.MapProvider) *Planner {
	return &Planner{provider: provider, now: time.Now, loc: time.Local}
}

// WithClock overrides the planner's clock and time zone. Used by tests and
// the CLI to pin the planning date.
func (p *Planner) WithClock(now func() time.Time, loc *time.Location) *Planner {
	p.now = now
	p.loc = loc
	return p
}

// Outcome is the planner's committed result before rendering.
type Outcome struct {
	Hotel    domain.ResolvedSpot
	Resolved map[string]domain.ResolvedSpot
	Days     []domain.DayPlan
	Legs     []domain.TransitLeg
	Warnings []string

	GeocodeDur  time.Duration
	PairwiseDur time.Duration
	PlanningDur time.Duration
}

// Plan resolves the request's addresses and builds the day-by-day route.
func (p *Planner) Plan(ctx context.Context, req *domain.PlanRequest) (*Outcome, error) {
	geocodeStart := p.now()
	hotel, spots, warnings, err := p.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	geocodeDur := p.now().Sub(geocodeStart)

	p.pairwiseNanos.Store(0)
	planningStart := p.now()
	days, legs, dayWarnings, err := p.buildDays(ctx, req, hotel, spots)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, dayWarnings...)

	resolved := make(map[string]domain.ResolvedSpot, len(spots)+1)
	resolved[domain.HotelID] = hotel
	for _, s := range spots {
		resolved[s.ID] = s
	}

	return &Outcome{
		Hotel:       hotel,
		Resolved:    resolved,
		Days:        days,
		Legs:        legs,
		Warnings:    warnings,
		GeocodeDur:  geocodeDur,
		PairwiseDur: time.Duration(p.pairwiseNanos.Load()),
		PlanningDur: p.now().Sub(planningStart),
	}, nil
}

// resolve geocodes the hotel and every spot concurrently. A spot that
// cannot be geocoded is dropped with a warning; a hotel that cannot be
// geocoded fails the request.
func (p *Planner) resolve(ctx context.Context, req *domain.PlanRequest) (domain.ResolvedSpot, []domain.ResolvedSpot, []string, error) {
	hotelCoords, err := p.provider.Geocode(ctx, req.Hotel)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return domain.ResolvedSpot{}, nil, nil, domain.WrapErr(domain.KindNotFound, err, "hotel %q could not be geocoded", req.Hotel)
		}
		return domain.ResolvedSpot{}, nil, nil, err
	}
	hotel := domain.ResolvedSpot{
		Spot:   domain.Spot{ID: domain.HotelID, Name: req.Hotel},
		Coords: hotelCoords,
	}

	type result struct {
		coords domain.Coordinates
		err    error
	}
	results := make([]result, len(req.Spots))
	var wg sync.WaitGroup
	for i, s := range req.Spots {
		wg.Add(1)
		go func(i int, s domain.Spot) {
			defer wg.Done()
			coords, err := p.provider.Geocode(ctx, s.GeocodeQuery())
			results[i] = result{coords: coords, err: err}
		}(i, s)
	}
	wg.Wait()

	var warnings []string
	resolved := make([]domain.ResolvedSpot, 0, len(req.Spots))
	for i, s := range req.Spots {
		r := results[i]
		if r.err != nil {
			if domain.KindOf(r.err) == domain.KindNotFound {
				warnings = append(warnings, fmt.Sprintf("spot %q could not be located and was skipped", s.Name))
				continue
			}
			return domain.ResolvedSpot{}, nil, nil, r.err
		}
		resolved = append(resolved, domain.ResolvedSpot{
			Spot:             s,
			Coords:           r.coords,
			VisitDurationSec: req.VisitSeconds(s),
		})
	}
	if len(resolved) == 0 {
		return domain.ResolvedSpot{}, nil, nil, domain.E(domain.KindNotFound, "none of the spots could be geocoded")
	}
	return hotel, resolved, warnings, nil
}

// travel is one provider lookup with pairwise-time accounting.
func (p *Planner) travel(ctx context.Context, from, to domain.Coordinates, departUnix int64, mode domain.TravelMode) (int64, int64, error) {
	start := time.Now()
	dur, dist, err := p.provider.TransitTime(ctx, from, to, departUnix, mode)
	p.pairwiseNanos.Add(int64(time.Since(start)))
	return dur, dist, err
}

// candidate is one probed next-visit option at the current cursor.
type candidate struct {
	spot     domain.ResolvedSpot
	t1       int64 // travel current -> spot
	dist1    int64
	arrival  int64
	depart   int64
	t2       int64 // travel spot -> hotel at depart
	feasible bool
	err      error
}

// probe evaluates every unvisited spot concurrently at the current cursor.
// Results come back indexed by the (id-sorted) candidate order so that
// parallelism cannot leak into selection.
func (p *Planner) probe(ctx context.Context, current, hotel domain.ResolvedSpot, unvisited []domain.ResolvedSpot, cursor, endOfDay int64, mode domain.TravelMode) ([]candidate, error) {
	cands := make([]candidate, len(unvisited))
	var wg sync.WaitGroup
	for i, u := range unvisited {
		wg.Add(1)
		go func(i int, u domain.ResolvedSpot) {
			defer wg.Done()
			c := candidate{spot: u}
			defer func() { cands[i] = c }()

			t1, dist1, err := p.travel(ctx, current.Coords, u.Coords, cursor, mode)
			if err != nil {
				c.err = err
				return
			}
			if t1 == domain.NoRoute {
				return
			}
			c.t1, c.dist1 = t1, dist1
			c.arrival = cursor + t1
			c.depart = c.arrival + u.VisitDurationSec

			t2, _, err := p.travel(ctx, u.Coords, hotel.Coords, c.depart, mode)
			if err != nil {
				c.err = err
				return
			}
			if t2 == domain.NoRoute {
				return
			}
			c.t2 = t2
			c.feasible = c.depart+t2 <= endOfDay
		}(i, u)
	}
	wg.Wait()

	for _, c := range cands {
		if c.err != nil {
			return nil, c.err
		}
	}
	return cands, nil
}

// pickBest applies the deterministic greedy rule: minimal travel from the
// current location, ties broken by travel+visit, then by id. The candidate
// slice is id-sorted, so keeping the first strict winner settles the final
// tie-break.
func pickBest(cands []candidate) (candidate, bool) {
	var best candidate
	found := false
	for _, c := range cands {
		if !c.feasible {
			continue
		}
		if !found {
			best, found = c, true
			continue
		}
		if c.t1 < best.t1 ||
			(c.t1 == best.t1 && c.t1+c.spot.VisitDurationSec < best.t1+best.spot.VisitDurationSec) {
			best = c
		}
	}
	return best, found
}

// buildDays runs the day loop until every spot is placed or maxDays is
// reached.
func (p *Planner) buildDays(ctx context.Context, req *domain.PlanRequest, hotel domain.ResolvedSpot, spots []domain.ResolvedSpot) ([]domain.DayPlan, []domain.TransitLeg, []string, error) {
	unvisited := make([]domain.ResolvedSpot, len(spots))
	copy(unvisited, spots)
	sort.Slice(unvisited, func(i, j int) bool { return unvisited[i].ID < unvisited[j].ID })

	startHour, startMin := req.StartHourMinute()
	endHour := req.EndHour()
	maxDays := req.MaxDays
	if !req.IsMultiDay() {
		maxDays = 1
	}

	today := p.now().In(p.loc)
	date := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, p.loc)

	var days []domain.DayPlan
	var legs []domain.TransitLeg

	for dayIndex := 1; len(unvisited) > 0 && dayIndex <= maxDays; dayIndex++ {
		dayStart := date.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute)
		endOfDay := date.Add(time.Duration(endHour) * time.Hour).Unix()
		cursor := dayStart.Unix()

		var items []domain.RouteItem
		current := hotel
		lunchDone, dinnerDone := false, false
		committed := 0

		if dayIndex > 1 {
			// Days after the first open at the hotel. Day 1 opens at its
			// first visit; the asymmetry is deliberate.
			items = append(items, domain.AnchorItem(domain.HotelID, cursor))
		}

		var lastReturn int64 // t2 of the most recent commit, reused if the closing lookup finds no route

		for len(unvisited) > 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, nil, domain.WrapErr(domain.KindDeadline, err, "planning interrupted")
			}

			// Meal breaks precede selection, but never before the day's
			// first entry: day 1 opens with a visit, later days with the
			// anchor.
			if req.Breaks() && len(items) > 0 {
				hour := time.Unix(cursor, 0).In(p.loc).Hour()
				if !lunchDone && hour >= lunchStartHour && hour < lunchEndHour && cursor+int64(lunchDuration.Seconds()) <= endOfDay {
					items = append(items, domain.MealItem(domain.MealLunch, cursor, cursor+int64(lunchDuration.Seconds())))
					cursor += int64(lunchDuration.Seconds())
					lunchDone = true
					continue
				}
				if !dinnerDone && hour >= dinnerStartHour && hour < dinnerEndHour && cursor+int64(dinnerDuration.Seconds()) <= endOfDay {
					items = append(items, domain.MealItem(domain.MealDinner, cursor, cursor+int64(dinnerDuration.Seconds())))
					cursor += int64(dinnerDuration.Seconds())
					dinnerDone = true
					continue
				}
			}

			cands, err := p.probe(ctx, current, hotel, unvisited, cursor, endOfDay, req.Mode)
			if err != nil {
				return nil, nil, nil, err
			}
			best, ok := pickBest(cands)
			if !ok {
				break
			}

			items = append(items, domain.VisitItem(best.spot.ID, best.arrival, best.depart))
			legs = append(legs, domain.TransitLeg{
				FromID:         current.ID,
				ToID:           best.spot.ID,
				DepartUnix:     cursor,
				DurationSec:    best.t1,
				DistanceMeters: best.dist1,
				Mode:           req.Mode,
			})
			unvisited = removeSpot(unvisited, best.spot.ID)
			cursor = best.depart
			current = best.spot
			lastReturn = best.t2
			committed++
		}

		if committed == 0 {
			if dayIndex == 1 {
				return nil, nil, nil, errNothingScheduled
			}
			// No progress is possible on any later day either; stop and
			// report the leftovers.
			break
		}

		back, backDist, err := p.travel(ctx, current.Coords, hotel.Coords, cursor, req.Mode)
		if err != nil {
			return nil, nil, nil, err
		}
		if back == domain.NoRoute {
			back = lastReturn
		}
		arrivalBack := cursor + back
		items = append(items, domain.AnchorItem(domain.HotelID, arrivalBack))
		legs = append(legs, domain.TransitLeg{
			FromID:         current.ID,
			ToID:           domain.HotelID,
			DepartUnix:     cursor,
			DurationSec:    back,
			DistanceMeters: backDist,
			Mode:           req.Mode,
		})

		days = append(days, domain.DayPlan{DayIndex: dayIndex, Date: date, Items: items})
		date = date.AddDate(0, 0, 1)
	}

	var warnings []string
	for _, u := range unvisited {
		warnings = append(warnings, fmt.Sprintf("spot %q did not fit into the schedule and was omitted", u.Name))
	}
	return days, legs, warnings, nil
}

func removeSpot(spots []domain.ResolvedSpot, id string) []domain.ResolvedSpot {
	out := spots[:0]
	for _, s := range spots {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}
