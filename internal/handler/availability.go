package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/school-admissions/internal/model"
	"github.com/iliyamo/school-admissions/internal/repository"
	"github.com/iliyamo/school-admissions/internal/service"
)

// AvailabilityHandler serves the public availability query.  The endpoint
// is read-only and advisory: a seat reported free may be gone by the time
// an admission is attempted, and the response says so via cache headers
// rather than pretending to be authoritative.
type AvailabilityHandler struct {
	Availability *service.AvailabilityService
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(av *service.AvailabilityService) *AvailabilityHandler {
	if av == nil {
		panic("nil dependency passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Availability: av}
}

// Check handles GET /v1/availability?level=&shift=&specialty=&academic_year=.
// Seats are summed across every parallel matching the selection.
func (h *AvailabilityHandler) Check(c echo.Context) error {
	sel := model.Selection{
		Level:        c.QueryParam("level"),
		Shift:        c.QueryParam("shift"),
		Specialty:    c.QueryParam("specialty"),
		AcademicYear: c.QueryParam("academic_year"),
	}
	if sel.Level == "" || sel.Shift == "" || sel.AcademicYear == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "level, shift and academic_year are required"})
	}
	res, err := h.Availability.Check(c.Request().Context(), sel)
	if err != nil {
		if errors.Is(err, repository.ErrNoMatchingQuota) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no quota configured for the selection"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability check failed"})
	}
	return c.JSON(http.StatusOK, res)
}
