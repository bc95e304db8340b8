package handlers

import (
	"time"

	"outfitter/internal/apperr"
	"outfitter/internal/middleware"
	"outfitter/internal/models"
	"outfitter/internal/services"

	"github.com/gofiber/fiber/v2"
)

const dateOnly = "2006-01-02"

// AnalyticsHandler serves the admin dashboard.
type AnalyticsHandler struct {
	service *services.AnalyticsService
	loc     *time.Location
}

// NewAnalyticsHandler creates a new AnalyticsHandler. Date-only query values are read in loc.
func NewAnalyticsHandler(service *services.AnalyticsService, loc *time.Location) *AnalyticsHandler {
	if loc == nil {
		loc = time.Local
	}
	return &AnalyticsHandler{service: service, loc: loc}
}

// RegisterRoutes registers the analytics routes; both require an admin identity.
func (h *AnalyticsHandler) RegisterRoutes(router fiber.Router, required fiber.Handler) {
	analyticsRoutes := router.Group("/admin/analytics", required, middleware.RequireRole(models.RoleAdmin))
	analyticsRoutes.Get("/overview", h.HandleOverview)
	analyticsRoutes.Get("/", h.HandleDetailed)
}

func (h *AnalyticsHandler) HandleOverview(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	overview, err := h.service.DashboardOverview(c.UserContext())
	if err != nil {
		return fail(c, "dashboard overview", identity.UserID, err)
	}
	return c.JSON(overview)
}

// HandleDetailed reads startDate, endDate (RFC 3339 or YYYY-MM-DD) and an optional period.
// A date-only endDate covers that whole day.
func (h *AnalyticsHandler) HandleDetailed(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	start, err := h.parseDate(c.Query("startDate"), false)
	if err != nil {
		return fail(c, "detailed analytics", identity.UserID, err)
	}
	end, err := h.parseDate(c.Query("endDate"), true)
	if err != nil {
		return fail(c, "detailed analytics", identity.UserID, err)
	}

	res, err := h.service.DetailedAnalytics(c.UserContext(), services.AnalyticsFilter{
		StartDate: start,
		EndDate:   end,
		Period:    c.Query("period"),
	})
	if err != nil {
		return fail(c, "detailed analytics", identity.UserID, err)
	}
	return c.JSON(res)
}

func (h *AnalyticsHandler) parseDate(value string, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, apperr.New(apperr.InvalidInput, "startDate and endDate are required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateOnly, value, h.loc)
	if err != nil {
		return time.Time{}, apperr.Newf(apperr.InvalidInput, "invalid date %q: use RFC 3339 or YYYY-MM-DD", value)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}
