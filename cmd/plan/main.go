package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/transitlabs/wayplan/internal/adapters/estimate"
	"github.com/transitlabs/wayplan/internal/cache"
	"github.com/transitlabs/wayplan/internal/core/domain"
	"github.com/transitlabs/wayplan/internal/core/usecases"
	"github.com/transitlabs/wayplan/internal/monitor"
	"github.com/transitlabs/wayplan/internal/pkg/logging"
)

var (
	flagHotel    string
	flagSpots    []string
	flagMode     string
	flagStart    string
	flagNoBreaks bool
	flagOneDay   bool
	flagMaxDays  int
	flagJSON     bool
)

// parseSpot reads "Name" or "Name@minutes" into a Spot.
func parseSpot(id int, raw string) (domain.Spot, error) {
	name := raw
	duration := 0
	if at := strings.LastIndex(raw, "@"); at > 0 {
		mins, err := strconv.Atoi(raw[at+1:])
		if err != nil {
			return domain.Spot{}, fmt.Errorf("spot %q: duration after @ must be minutes", raw)
		}
		name = raw[:at]
		duration = mins
	}
	return domain.Spot{
		ID:                     fmt.Sprintf("s%d", id),
		Name:                   strings.TrimSpace(name),
		RecommendedDurationMin: duration,
	}, nil
}

func run(cmd *cobra.Command, args []string) error {
	spots := make([]domain.Spot, 0, len(flagSpots))
	for i, raw := range flagSpots {
		s, err := parseSpot(i+1, raw)
		if err != nil {
			return err
		}
		spots = append(spots, s)
	}

	req := &domain.PlanRequest{
		Hotel:     flagHotel,
		Spots:     spots,
		Mode:      domain.TravelMode(flagMode),
		StartTime: flagStart,
		MaxDays:   flagMaxDays,
	}
	if flagNoBreaks {
		f := false
		req.IncludeBreaks = &f
	}
	if flagOneDay {
		f := false
		req.MultiDay = &f
	}

	mon := monitor.New(0)
	geoCache := cache.NewGeocodingCache(cache.DefaultGeocodeTTL, cache.DefaultMaxEntries, cache.DefaultCleanupEvery)
	defer geoCache.Stop()
	transitCache := cache.NewTransitCache(cache.DefaultTransitTTL, cache.DefaultMaxEntries, cache.DefaultCleanupEvery)
	defer transitCache.Stop()

	provider := cache.NewProvider(estimate.New(), geoCache, transitCache, nil, mon)
	svc := usecases.NewPlanService(provider, mon, nil, slog.Default())

	resp, err := svc.Plan(context.Background(), req)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	printItinerary(cmd, resp)
	return nil
}

func printItinerary(cmd *cobra.Command, resp *domain.PlanResponse) {
	it := resp.Itinerary
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d min total, %d min travelling)\n\n",
		it.Title, it.TotalDurationMin, it.TotalTravelTimeMin)
	for _, day := range it.Days {
		fmt.Fprintf(cmd.OutOrStdout(), "Day %d  %s\n", day.Day, day.Date)
		for _, stop := range day.Stops {
			line := fmt.Sprintf("  %s-%s  %s", stop.Arrival, stop.Departure, stop.Name)
			if stop.TravelToNext != "" {
				line += fmt.Sprintf("  (then %s travel)", stop.TravelToNext)
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}
	for _, w := range resp.Warnings {
		fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
	}
}

func main() {
	logging.Setup("warn", "text")

	root := &cobra.Command{
		Use:   "plan",
		Short: "Plan a multi-stop itinerary from the command line",
		Long: `Plan builds a day-by-day itinerary around a hotel using the built-in
deterministic travel estimates. Spots are given as repeated --spot flags,
optionally with a visit duration: --spot "City Museum@90".`,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.Flags().StringVar(&flagHotel, "hotel", "", "hotel address (required)")
	root.Flags().StringArrayVar(&flagSpots, "spot", nil, "spot to visit, Name or Name@minutes (repeatable)")
	root.Flags().StringVar(&flagMode, "mode", "walking", "travel mode: walking, driving, transit")
	root.Flags().StringVar(&flagStart, "start", "09:00", "daily start time, HH:MM")
	root.Flags().BoolVar(&flagNoBreaks, "no-breaks", false, "skip lunch and dinner breaks")
	root.Flags().BoolVar(&flagOneDay, "one-day", false, "fit everything into a single day")
	root.Flags().IntVar(&flagMaxDays, "max-days", 0, "day limit for multi-day plans")
	root.Flags().BoolVar(&flagJSON, "json", false, "print the raw JSON response")
	_ = root.MarkFlagRequired("hotel")
	_ = root.MarkFlagRequired("spot")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
