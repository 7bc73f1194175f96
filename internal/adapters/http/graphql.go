package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to the monitor and caches.
// The query surface is read-only observability: counters, traces, the
// aggregated report, and cache statistics.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	countEntryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CountEntry",
		Fields: graphql.Fields{
			"key":   &graphql.Field{Type: graphql.String},
			"count": &graphql.Field{Type: graphql.Int},
		},
	})

	toEntries := func(m map[string]int64) []map[string]interface{} {
		out := make([]map[string]interface{}, 0, len(m))
		for k, v := range m {
			out = append(out, map[string]interface{}{"key": k, "count": int(v)})
		}
		return out
	}

	statsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PlanStats",
		Fields: graphql.Fields{
			"requests":  &graphql.Field{Type: graphql.Int},
			"successes": &graphql.Field{Type: graphql.Int},
			"fallbacks": &graphql.Field{Type: graphql.Int},
			"retries":   &graphql.Field{Type: graphql.Int},
			"failures": &graphql.Field{
				Type: graphql.NewList(countEntryType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return toEntries(deps.Monitor.Stats().Failures), nil
				},
			},
			"providerCalls": &graphql.Field{
				Type: graphql.NewList(countEntryType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return toEntries(deps.Monitor.Stats().ProviderCalls), nil
				},
			},
		},
	})

	traceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PlanTrace",
		Fields: graphql.Fields{
			"sessionId":    &graphql.Field{Type: graphql.String},
			"durationMs":   &graphql.Field{Type: graphql.Int},
			"fallbackUsed": &graphql.Field{Type: graphql.Boolean},
			"errKind":      &graphql.Field{Type: graphql.String},
			"err":          &graphql.Field{Type: graphql.String},
			"warnings":     &graphql.Field{Type: graphql.Int},
		},
	})

	cacheStatsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CacheStats",
		Fields: graphql.Fields{
			"size":    &graphql.Field{Type: graphql.Int},
			"hits":    &graphql.Field{Type: graphql.Int},
			"misses":  &graphql.Field{Type: graphql.Int},
			"hitRate": &graphql.Field{Type: graphql.Float},
		},
	})

	reportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PlanReport",
		Fields: graphql.Fields{
			"successRate":     &graphql.Field{Type: graphql.Float},
			"fallbackRate":    &graphql.Field{Type: graphql.Float},
			"cacheHitRate":    &graphql.Field{Type: graphql.Float},
			"recommendations": &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"stats": &graphql.Field{
				Type:        statsType,
				Description: "Process-wide planning counters",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					st := deps.Monitor.Stats()
					return map[string]interface{}{
						"requests":  int(st.Requests),
						"successes": int(st.Successes),
						"fallbacks": int(st.Fallbacks),
						"retries":   int(st.Retries),
					}, nil
				},
			},
			"recentTraces": &graphql.Field{
				Type:        graphql.NewList(traceType),
				Description: "Recent request traces, newest first",
				Args: graphql.FieldConfigArgument{
					"limit":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
					"errorsOnly": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit := p.Args["limit"].(int)
					errorsOnly := p.Args["errorsOnly"].(bool)
					traces := deps.Monitor.RecentLogs(limit, errorsOnly)
					var result []map[string]interface{}
					for _, t := range traces {
						result = append(result, map[string]interface{}{
							"sessionId":    t.SessionID,
							"durationMs":   int(t.DurationMs),
							"fallbackUsed": t.FallbackUsed,
							"errKind":      t.ErrKind,
							"err":          t.Err,
							"warnings":     t.Warnings,
						})
					}
					return result, nil
				},
			},
			"report": &graphql.Field{
				Type:        reportType,
				Description: "Aggregated summary with operational recommendations",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					r := deps.Monitor.Report()
					return map[string]interface{}{
						"successRate":     r.SuccessRate,
						"fallbackRate":    r.FallbackRate,
						"cacheHitRate":    r.CacheHitRate,
						"recommendations": r.Recommendations,
					}, nil
				},
			},
			"geocodeCache": &graphql.Field{
				Type:        cacheStatsType,
				Description: "Geocoding cache statistics",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					st := deps.GeoCache.Stats()
					return map[string]interface{}{
						"size": st.Size, "hits": int(st.Hits), "misses": int(st.Misses), "hitRate": st.HitRate,
					}, nil
				},
			},
			"transitCache": &graphql.Field{
				Type:        cacheStatsType,
				Description: "Transit-time cache statistics",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					st := deps.TransitCache.Stats()
					return map[string]interface{}{
						"size": st.Size, "hits": int(st.Hits), "misses": int(st.Misses), "hitRate": st.HitRate,
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
