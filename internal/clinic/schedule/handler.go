package schedule

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Handler exposes the availability engine over HTTP. The encounter screen
// re-queries these endpoints whenever the follow-up date or provider changes.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the availability routes on the given Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/availability/slots", h.Slots)
	g.GET("/availability/days", h.DisabledDays)
}

// Slots handles GET /availability/slots?provider_id&date&interval&exclude.
func (h *Handler) Slots(c echo.Context) error {
	providerID, err := uuid.Parse(c.QueryParam("provider_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "provider_id is required")
	}

	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	interval := 0
	if v := c.QueryParam("interval"); v != "" {
		interval, err = strconv.Atoi(v)
		if err != nil || interval <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "interval must be a positive number of minutes")
		}
	}

	exclude := uuid.Nil
	if v := c.QueryParam("exclude"); v != "" {
		exclude, err = uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "exclude must be an appointment id")
		}
	}

	avail, err := h.svc.AvailableSlots(c.Request().Context(), providerID, date, interval, exclude, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, avail)
}

// DisabledDays handles GET /availability/days?provider_id&from&days.
func (h *Handler) DisabledDays(c echo.Context) error {
	providerID, err := uuid.Parse(c.QueryParam("provider_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "provider_id is required")
	}

	from := time.Now()
	if v := c.QueryParam("from"); v != "" {
		from, err = time.Parse("2006-01-02", v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "from must be YYYY-MM-DD")
		}
	}

	days := 60
	if v := c.QueryParam("days"); v != "" {
		days, err = strconv.Atoi(v)
		if err != nil || days <= 0 || days > 366 {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be between 1 and 366")
		}
	}

	disabled, err := h.svc.DisabledDays(c.Request().Context(), providerID, from, days)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"provider_id": providerID,
		"from":        from.Format("2006-01-02"),
		"days":        days,
		"disabled":    disabled,
	})
}
