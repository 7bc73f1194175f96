package domain

import (
	"math"
	"time"
)

// TravelMode selects the travel-time function used between stops.
type TravelMode string

const (
	ModeWalking TravelMode = "walking"
	ModeDriving TravelMode = "driving"
	ModeTransit TravelMode = "transit"
)

// Valid reports whether the mode is one of the supported travel modes.
func (m TravelMode) Valid() bool {
	switch m {
	case ModeWalking, ModeDriving, ModeTransit:
		return true
	}
	return false
}

// NoRoute is the duration sentinel for "no route found" between two points.
// Legs carrying it must never appear in a committed schedule.
const NoRoute int64 = math.MaxInt64

// HotelID is the reserved spot identifier of the daily anchor.
const HotelID = "hotel"

// Spot is a visitable point of interest as submitted by the caller.
type Spot struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	Category               string `json:"category,omitempty"`
	LocationHint           string `json:"locationHint,omitempty"`
	RecommendedDurationMin int    `json:"recommendedDurationMin,omitempty"` // 0 = unset
}

// GeocodeQuery is the textual address submitted to the geocoder: the spot
// name plus the free-text location hint, when present.
func (s Spot) GeocodeQuery() string {
	if s.LocationHint == "" {
		return s.Name
	}
	return s.Name + ", " + s.LocationHint
}

// ResolvedSpot is a Spot with coordinates attached and its visit duration
// settled (recommended duration if set, else the request default).
type ResolvedSpot struct {
	Spot
	Coords           Coordinates
	VisitDurationSec int64
}

// TransitLeg is one provider-reported travel segment between two stops.
type TransitLeg struct {
	FromID         string     `json:"fromId"`
	ToID           string     `json:"toId"`
	DepartUnix     int64      `json:"departUnixSec"`
	DurationSec    int64      `json:"durationSec"`
	DistanceMeters int64      `json:"distanceMeters,omitempty"`
	Mode           TravelMode `json:"mode"`
}

// ItemKind tags the variants of a route item.
type ItemKind string

const (
	ItemVisit     ItemKind = "visit"
	ItemMealBreak ItemKind = "meal_break"
	ItemAnchor    ItemKind = "anchor"
)

// MealKind distinguishes the two meal-break windows.
type MealKind string

const (
	MealLunch  MealKind = "lunch"
	MealDinner MealKind = "dinner"
)

// RouteItem is a tagged entry in a day's route: a visit, a meal break, or
// the hotel anchor. All three variants share the arrival/departure pair.
type RouteItem struct {
	Kind          ItemKind `json:"kind"`
	SpotID        string   `json:"spotId,omitempty"` // visit and anchor
	Meal          MealKind `json:"meal,omitempty"`   // meal_break only
	ArrivalUnix   int64    `json:"arrivalUnixSec"`
	DepartureUnix int64    `json:"departureUnixSec"`
}

// VisitItem builds a committed visit entry.
func VisitItem(spotID string, arrival, departure int64) RouteItem {
	return RouteItem{Kind: ItemVisit, SpotID: spotID, ArrivalUnix: arrival, DepartureUnix: departure}
}

// MealItem builds a meal-break entry.
func MealItem(kind MealKind, arrival, departure int64) RouteItem {
	return RouteItem{Kind: ItemMealBreak, Meal: kind, ArrivalUnix: arrival, DepartureUnix: departure}
}

// AnchorItem builds a zero-duration hotel anchor at the given instant.
func AnchorItem(spotID string, at int64) RouteItem {
	return RouteItem{Kind: ItemAnchor, SpotID: spotID, ArrivalUnix: at, DepartureUnix: at}
}

// DayPlan is one day's committed route.
type DayPlan struct {
	DayIndex int         `json:"dayIndex"`
	Date     time.Time   `json:"date"`
	Items    []RouteItem `json:"items"`
}

// Visits returns the visit entries of the day in committed order.
func (d DayPlan) Visits() []RouteItem {
	var out []RouteItem
	for _, it := range d.Items {
		if it.Kind == ItemVisit {
			out = append(out, it)
		}
	}
	return out
}

// ScheduleStop is the rendered form of a route item in the external model.
type ScheduleStop struct {
	SpotID        string   `json:"spotId,omitempty"`
	Name          string   `json:"name"`
	Kind          ItemKind `json:"kind"`
	Meal          MealKind `json:"meal,omitempty"`
	Arrival       string   `json:"arrival"`   // "HH:MM" local
	Departure     string   `json:"departure"` // "HH:MM" local
	DurationMin   int      `json:"durationMin"`
	TravelToNext  string   `json:"travelToNext,omitempty"` // "1h 5m" / "12m"
	NavigationURL string   `json:"navigationUrl,omitempty"`
}

// DaySchedule is one rendered day of the itinerary.
type DaySchedule struct {
	Day   int            `json:"day"`
	Date  string         `json:"date"` // YYYY-MM-DD
	Stops []ScheduleStop `json:"stops"`
}

// Itinerary is the external result of planning.
type Itinerary struct {
	Title               string        `json:"title"`
	TotalDurationMin    int           `json:"totalDurationMin"`
	TotalTravelTimeMin  int           `json:"totalTravelTimeMin"`
	TotalDistanceMeters int64         `json:"totalDistanceMeters,omitempty"`
	Days                []DaySchedule `json:"days"`
	FallbackUsed        bool          `json:"fallbackUsed"`
}
