package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/transitlabs/wayplan/internal/core/domain"
)

// PlanItineraryHandler runs one planning request end to end.
func PlanItineraryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.PlanRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}
		if req.SessionID == "" {
			if rid, ok := c.Locals("requestid").(string); ok {
				req.SessionID = rid
			}
		}

		resp, err := deps.Plans.Plan(c.UserContext(), &req)
		if err != nil {
			return planError(c, err)
		}
		return c.JSON(resp)
	}
}

// MonitorStatsHandler returns the process-wide planning counters.
func MonitorStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Monitor == nil {
			return errInternal(c, "monitor not available")
		}
		return c.JSON(deps.Monitor.Stats())
	}
}

// MonitorLogsHandler returns recent request traces, newest first.
// Query params: limit (default 50), errors=true filters to failures.
func MonitorLogsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Monitor == nil {
			return errInternal(c, "monitor not available")
		}
		limit := c.QueryInt("limit", 50)
		errorsOnly := c.QueryBool("errors_only", false)
		return c.JSON(fiber.Map{
			"traces": deps.Monitor.RecentLogs(limit, errorsOnly),
		})
	}
}

// MonitorReportHandler returns the aggregated summary with recommendations.
func MonitorReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Monitor == nil {
			return errInternal(c, "monitor not available")
		}
		return c.JSON(deps.Monitor.Report())
	}
}

// MonitorResetHandler zeroes the counters and the trace ring.
func MonitorResetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Monitor == nil {
			return errInternal(c, "monitor not available")
		}
		deps.Monitor.Reset()
		return c.JSON(fiber.Map{"status": "reset"})
	}
}

// CacheStatsHandler reports both in-memory cache layers and the remaining
// daily provider quota.
func CacheStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out := fiber.Map{}
		if deps.GeoCache != nil {
			out["geocode"] = deps.GeoCache.Stats()
		}
		if deps.TransitCache != nil {
			out["transit"] = deps.TransitCache.Stats()
		}
		if deps.Limiter != nil {
			out["dailyQuotaRemaining"] = deps.Limiter.Remaining()
		}
		return c.JSON(out)
	}
}

// CacheClearHandler empties both in-memory cache layers.
func CacheClearHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.GeoCache != nil {
			deps.GeoCache.Reset()
		}
		if deps.TransitCache != nil {
			deps.TransitCache.Reset()
		}
		return c.JSON(fiber.Map{"status": "cleared"})
	}
}
