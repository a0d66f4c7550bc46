package treatment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinhq/clinic-api/internal/platform/middleware"
)

// Handler exposes the encounter save saga over HTTP.
type Handler struct {
	orch *Orchestrator
	repo Repository
}

func NewHandler(orch *Orchestrator, repo Repository) *Handler {
	return &Handler{orch: orch, repo: repo}
}

// RegisterRoutes registers the treatment routes on the given Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/treatments", h.Create)
	g.PUT("/treatments/:id", h.Update)
	g.GET("/treatments/:id", h.Get)
	g.GET("/patients/:id/treatments", h.ListByPatient)
}

// Create handles POST /treatments: one save action runs the whole saga.
func (h *Handler) Create(c echo.Context) error {
	form := &Form{}
	if err := c.Bind(form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if form.PatientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	if form.TreatmentDate.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "treatment_date is required")
	}

	actor := middleware.ActorFromContext(c.Request().Context())
	res, err := h.orch.Create(c.Request().Context(), actor, form)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, res)
}

// Update handles PUT /treatments/:id.
func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid treatment id")
	}

	form := &Form{}
	if err := c.Bind(form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	actor := middleware.ActorFromContext(c.Request().Context())
	res, err := h.orch.Update(c.Request().Context(), actor, id, form)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "treatment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

// Get handles GET /treatments/:id, returning the treatment with its files.
func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid treatment id")
	}

	t, err := h.repo.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "treatment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	files, err := h.repo.ListFiles(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"treatment": t,
		"files":     files,
	})
}

// ListByPatient handles GET /patients/:id/treatments.
func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 || limit > 200 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 200")
		}
	}
	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "offset must be non-negative")
		}
	}

	items, err := h.repo.ListByPatient(c.Request().Context(), patientID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}
