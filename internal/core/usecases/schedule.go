package usecases

import (
	"fmt"
	"time"

	"github.com/transitlabs/wayplan/internal/core/domain"
	"github.com/transitlabs/wayplan/internal/core/ports"
)

// ScheduleBuilder converts the planner's committed route into the external
// itinerary model: durations in minutes, travel legs as "1h 5m" strings,
// navigation links, day headers, and totals.
type ScheduleBuilder struct {
	provider ports.MapProvider
	loc      *time.Location
}

// NewScheduleBuilder creates a builder. The provider is only used for its
// pure NavigationLink operation.
func NewScheduleBuilder(provider ports.MapProvider) *ScheduleBuilder {
	return &ScheduleBuilder{provider: provider, loc: time.Local}
}

// WithLocation pins the rendering time zone.
func (b *ScheduleBuilder) WithLocation(loc *time.Location) *ScheduleBuilder {
	b.loc = loc
	return b
}

// Build renders the outcome of planning into an Itinerary.
func (b *ScheduleBuilder) Build(req *domain.PlanRequest, out *Outcome) domain.Itinerary {
	it := domain.Itinerary{
		Title: fmt.Sprintf("%d-day %s itinerary", len(out.Days), req.Mode),
		Days:  make([]domain.DaySchedule, 0, len(out.Days)),
	}

	var travelSec int64
	var durationSec int64
	for _, leg := range out.Legs {
		it.TotalDistanceMeters += leg.DistanceMeters
	}

	for _, day := range out.Days {
		ds := domain.DaySchedule{
			Day:   day.DayIndex,
			Date:  day.Date.Format("2006-01-02"),
			Stops: make([]domain.ScheduleStop, 0, len(day.Items)),
		}

		for i, item := range day.Items {
			stop := domain.ScheduleStop{
				SpotID:      item.SpotID,
				Name:        b.itemName(req, out, item),
				Kind:        item.Kind,
				Meal:        item.Meal,
				Arrival:     time.Unix(item.ArrivalUnix, 0).In(b.loc).Format("15:04"),
				Departure:   time.Unix(item.DepartureUnix, 0).In(b.loc).Format("15:04"),
				DurationMin: minutesHalfUp(item.DepartureUnix - item.ArrivalUnix),
			}
			if i == 0 {
				stop.Name = fmt.Sprintf("**Day %d** %s", day.DayIndex, stop.Name)
			}
			if i < len(day.Items)-1 {
				gap := day.Items[i+1].ArrivalUnix - item.DepartureUnix
				if gap > 0 {
					stop.TravelToNext = formatTravel(gap)
					travelSec += gap
				}
				stop.NavigationURL = b.navLink(req, out, day.Items, i)
			}
			ds.Stops = append(ds.Stops, stop)
		}

		if n := len(day.Items); n > 0 {
			durationSec += day.Items[n-1].ArrivalUnix - day.Items[0].ArrivalUnix
		}
		it.Days = append(it.Days, ds)
	}

	it.TotalTravelTimeMin = minutesHalfUp(travelSec)
	it.TotalDurationMin = minutesHalfUp(durationSec)
	return it
}

// itemName resolves the display name of a route item.
func (b *ScheduleBuilder) itemName(req *domain.PlanRequest, out *Outcome, item domain.RouteItem) string {
	switch item.Kind {
	case domain.ItemMealBreak:
		if item.Meal == domain.MealDinner {
			return "Dinner break"
		}
		return "Lunch break"
	case domain.ItemAnchor:
		return req.Hotel
	default:
		if s, ok := out.Resolved[item.SpotID]; ok {
			return s.Name
		}
		return item.SpotID
	}
}

// navLink builds the navigation URL from item i to the next located item.
// Meal breaks have no location and same-location hops carry no link.
func (b *ScheduleBuilder) navLink(req *domain.PlanRequest, out *Outcome, items []domain.RouteItem, i int) string {
	from, ok := out.Resolved[items[i].SpotID]
	if !ok {
		return ""
	}
	for j := i + 1; j < len(items); j++ {
		next := items[j]
		if next.Kind == domain.ItemMealBreak {
			continue
		}
		if next.SpotID == items[i].SpotID {
			return ""
		}
		to, ok := out.Resolved[next.SpotID]
		if !ok {
			return ""
		}
		// Fallback schedules carry no coordinates, so there is no link to build.
		if (from.Coords == domain.Coordinates{}) || (to.Coords == domain.Coordinates{}) {
			return ""
		}
		return b.provider.NavigationLink(from.Coords, to.Coords, items[i].DepartureUnix, req.Mode)
	}
	return ""
}

// minutesHalfUp converts seconds to whole minutes, rounding half up.
func minutesHalfUp(sec int64) int {
	if sec <= 0 {
		return 0
	}
	return int((sec + 30) / 60)
}

// formatTravel renders a travel gap as "1h 5m" or "12m".
func formatTravel(sec int64) string {
	min := minutesHalfUp(sec)
	if min >= 60 {
		return fmt.Sprintf("%dh %dm", min/60, min%60)
	}
	return fmt.Sprintf("%dm", min)
}
