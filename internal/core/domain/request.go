package domain

import (
	"fmt"
	"strings"
	"time"
)

// Limits and defaults for plan requests.
const (
	MaxSpots = 20

	DefaultVisitDurationMin = 60
	MinVisitDurationMin     = 15
	MaxVisitDurationMin     = 480

	DefaultDailyStartHour      = 9
	DefaultDailyEndHour        = 22
	DefaultSingleDayEndHour    = 20 // the bounded single-day variant closes earlier
	DefaultMaxDays             = 7
	MaxMaxDays                 = 14
	DefaultDeadlineMillis      = 45000
	DefaultFallbackTimeoutMill = 30000
)

// PlanRequest is the external contract of PlanItinerary.
//
// IncludeBreaks and MultiDay are pointers so that an absent field takes its
// documented default (true) rather than the zero value.
type PlanRequest struct {
	SessionID            string     `json:"sessionId,omitempty"`
	Hotel                string     `json:"hotel"`
	Spots                []Spot     `json:"spots"`
	Mode                 TravelMode `json:"mode,omitempty"`
	StartTime            string     `json:"startTime,omitempty"` // "HH:MM", 24h
	VisitDurationDefault int        `json:"visitDurationDefault,omitempty"`
	IncludeBreaks        *bool      `json:"includeBreaks,omitempty"`
	MultiDay             *bool      `json:"multiDay,omitempty"`
	DailyStartHour       *int       `json:"dailyStartHour,omitempty"`
	DailyEndHour         *int       `json:"dailyEndHour,omitempty"`
	MaxDays              int        `json:"maxDays,omitempty"`
	DeadlineMs           int        `json:"deadlineMs,omitempty"`
}

// Breaks reports whether meal breaks are requested (default true).
func (r *PlanRequest) Breaks() bool {
	return r.IncludeBreaks == nil || *r.IncludeBreaks
}

// IsMultiDay reports whether multi-day rollover is requested (default true).
func (r *PlanRequest) IsMultiDay() bool {
	return r.MultiDay == nil || *r.MultiDay
}

// StartHourMinute returns the daily start as (hour, minute). An explicit
// dailyStartHour wins over startTime's hour.
func (r *PlanRequest) StartHourMinute() (int, int) {
	h, m := DefaultDailyStartHour, 0
	if r.StartTime != "" {
		if t, err := time.Parse("15:04", r.StartTime); err == nil {
			h, m = t.Hour(), t.Minute()
		}
	}
	if r.DailyStartHour != nil {
		h = *r.DailyStartHour
	}
	return h, m
}

// EndHour returns the daily end hour, defaulting to 22 for the multi-day
// engine and 20 for the single-day variant.
func (r *PlanRequest) EndHour() int {
	if r.DailyEndHour != nil {
		return *r.DailyEndHour
	}
	if !r.IsMultiDay() {
		return DefaultSingleDayEndHour
	}
	return DefaultDailyEndHour
}

// Normalize fills absent fields with their documented defaults. Call before
// Validate.
func (r *PlanRequest) Normalize() {
	r.Hotel = strings.TrimSpace(r.Hotel)
	if r.Mode == "" {
		r.Mode = ModeWalking
	}
	if r.StartTime == "" {
		r.StartTime = "09:00"
	}
	if r.VisitDurationDefault == 0 {
		r.VisitDurationDefault = DefaultVisitDurationMin
	}
	if r.MaxDays == 0 {
		r.MaxDays = DefaultMaxDays
	}
	if r.DeadlineMs == 0 {
		r.DeadlineMs = DefaultDeadlineMillis
	}
}

// Validate checks the request shape and ranges. Errors carry KindValidation.
func (r *PlanRequest) Validate() error {
	if r.Hotel == "" {
		return E(KindValidation, "hotel is required")
	}
	if len(r.Spots) == 0 {
		return E(KindValidation, "at least one spot is required")
	}
	if len(r.Spots) > MaxSpots {
		return E(KindValidation, "too many spots: %d (max %d)", len(r.Spots), MaxSpots)
	}
	seen := make(map[string]bool, len(r.Spots))
	for i, s := range r.Spots {
		if s.ID == "" {
			return E(KindValidation, "spots[%d]: id is required", i)
		}
		if s.ID == HotelID {
			return E(KindValidation, "spots[%d]: id %q is reserved for the anchor", i, HotelID)
		}
		if seen[s.ID] {
			return E(KindValidation, "spots[%d]: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
		if strings.TrimSpace(s.Name) == "" {
			return E(KindValidation, "spots[%d]: name is required", i)
		}
		if s.RecommendedDurationMin != 0 &&
			(s.RecommendedDurationMin < MinVisitDurationMin || s.RecommendedDurationMin > MaxVisitDurationMin) {
			return E(KindValidation, "spots[%d]: recommendedDurationMin must be %d-%d, got %d",
				i, MinVisitDurationMin, MaxVisitDurationMin, s.RecommendedDurationMin)
		}
	}
	if !r.Mode.Valid() {
		return E(KindValidation, "unknown travel mode %q", r.Mode)
	}
	if _, err := time.Parse("15:04", r.StartTime); err != nil {
		return E(KindValidation, "startTime must be HH:MM, got %q", r.StartTime)
	}
	if r.VisitDurationDefault < MinVisitDurationMin || r.VisitDurationDefault > MaxVisitDurationMin {
		return E(KindValidation, "visitDurationDefault must be %d-%d, got %d",
			MinVisitDurationMin, MaxVisitDurationMin, r.VisitDurationDefault)
	}
	start, _ := r.StartHourMinute()
	end := r.EndHour()
	if start < 0 || start > 23 {
		return E(KindValidation, "dailyStartHour must be 0-23, got %d", start)
	}
	if end < 1 || end > 24 {
		return E(KindValidation, "dailyEndHour must be 1-24, got %d", end)
	}
	if end <= start {
		return E(KindValidation, "dailyEndHour (%d) must be after dailyStartHour (%d)", end, start)
	}
	if r.MaxDays < 1 || r.MaxDays > MaxMaxDays {
		return E(KindValidation, "maxDays must be 1-%d, got %d", MaxMaxDays, r.MaxDays)
	}
	if r.DeadlineMs < 0 {
		return E(KindValidation, "deadlineMs must be positive, got %d", r.DeadlineMs)
	}
	return nil
}

// VisitSeconds resolves a spot's visit duration in seconds against the
// request default.
func (r *PlanRequest) VisitSeconds(s Spot) int64 {
	if s.RecommendedDurationMin > 0 {
		return int64(s.RecommendedDurationMin) * 60
	}
	return int64(r.VisitDurationDefault) * 60
}

// PlanResponse is the external result envelope.
type PlanResponse struct {
	SessionID    string    `json:"sessionId,omitempty"`
	Itinerary    Itinerary `json:"itinerary"`
	FallbackUsed bool      `json:"fallbackUsed"`
	Warnings     []string  `json:"warnings,omitempty"`
}

// String is used for event payload logging.
func (r *PlanRequest) String() string {
	return fmt.Sprintf("hotel=%q spots=%d mode=%s multiDay=%t", r.Hotel, len(r.Spots), r.Mode, r.IsMultiDay())
}
