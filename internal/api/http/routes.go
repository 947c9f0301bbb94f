package httpapi

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/dkravets/weather-consensus/internal/coordinator"
	"github.com/dkravets/weather-consensus/internal/ratelimit"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, coord *coordinator.Coordinator, limiter *ratelimit.Limiter, defaultCity string) {
	api := app.Group("/api")

	api.Get("/weather", rateLimited(limiter, ratelimit.ScopeAPI), func(c *fiber.Ctx) error {
		city, err := parseCityQuery(c, defaultCity)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshot, err := coord.Snapshot(c.Context(), city, false)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to collect weather data")
		}
		return c.JSON(snapshot)
	})

	api.Post("/refresh", rateLimited(limiter, ratelimit.ScopeRefresh), func(c *fiber.Ctx) error {
		city, err := parseCityQuery(c, defaultCity)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshot, err := coord.Snapshot(c.Context(), city, true)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to refresh weather data")
		}
		return c.JSON(snapshot)
	})

	api.Get("/stream", rateLimited(limiter, ratelimit.ScopeStream), func(c *fiber.Ctx) error {
		city, err := parseCityQuery(c, defaultCity)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return openEventStream(c, coord, city)
	})

	api.All("/*", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusMethodNotAllowed, "Method not allowed")
	})
}

// rateLimited enforces the scope's fixed-window limit per client IP.
func rateLimited(limiter *ratelimit.Limiter, scope ratelimit.Scope) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ok, retryAfter := limiter.Allow(scope, clientIP(c))
		if !ok {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":         "Too many requests",
				"retryAfterSec": retryAfter,
			})
		}
		return c.Next()
	}
}

// clientIP prefers the first X-Forwarded-For hop over the socket address.
func clientIP(c *fiber.Ctx) string {
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
			return ip
		}
	}
	return c.IP()
}

// cityQuery holds the query parameters shared by all weather endpoints.
type cityQuery struct {
	City string `validate:"omitempty,max=80"`
}

func parseCityQuery(c *fiber.Ctx, defaultCity string) (string, error) {
	q := cityQuery{City: strings.TrimSpace(c.Query("city"))}
	if err := validate.Struct(q); err != nil {
		return "", err
	}
	if q.City == "" {
		return defaultCity, nil
	}
	return q.City, nil
}
