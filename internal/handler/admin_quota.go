package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/school-admissions/internal/model"
	"github.com/iliyamo/school-admissions/internal/repository"
	"github.com/iliyamo/school-admissions/internal/service"
)

// AdminQuotaHandler exposes quota administration: creating buckets before
// the admission cycle opens, listing them with occupancy, editing capacity
// and deleting.  Occupancy itself is never writable here; it only moves
// through application transitions.
type AdminQuotaHandler struct {
	Quotas service.QuotaStore
	Apps   service.ApplicationStore
	Admin  *service.QuotaAdminService
}

// NewAdminQuotaHandler constructs the handler.  All dependencies must be
// non-nil.
func NewAdminQuotaHandler(quotas service.QuotaStore, apps service.ApplicationStore, admin *service.QuotaAdminService) *AdminQuotaHandler {
	if quotas == nil || apps == nil || admin == nil {
		panic("nil dependency passed to NewAdminQuotaHandler")
	}
	return &AdminQuotaHandler{Quotas: quotas, Apps: apps, Admin: admin}
}

type createQuotaReq struct {
	Level         string `json:"level"`
	Parallel      string `json:"parallel"`
	Shift         string `json:"shift"`
	Specialty     string `json:"specialty"`
	AcademicYear  string `json:"academic_year"`
	TotalCapacity uint32 `json:"total_capacity"`
}

// quotaView decorates a quota with its derived occupancy figures for
// dashboard display.
type quotaView struct {
	model.Quota
	Available           uint32  `json:"available"`
	OccupancyPercentage float64 `json:"occupancy_percentage"`
}

func viewOf(q *model.Quota) quotaView {
	return quotaView{Quota: *q, Available: q.Available(), OccupancyPercentage: q.OccupancyPercentage()}
}

// Create handles POST /v1/admin/quotas.
func (h *AdminQuotaHandler) Create(c echo.Context) error {
	var req createQuotaReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Level == "" || req.Parallel == "" || req.Shift == "" || req.AcademicYear == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "level, parallel, shift and academic_year are required"})
	}
	q, err := h.Quotas.Create(c.Request().Context(), &model.Quota{
		Level:         req.Level,
		Parallel:      req.Parallel,
		Shift:         req.Shift,
		Specialty:     req.Specialty,
		AcademicYear:  req.AcademicYear,
		TotalCapacity: req.TotalCapacity,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "quota already exists for this bucket"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create quota"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": viewOf(q)})
}

// List handles GET /v1/admin/quotas with optional level/parallel/shift/
// specialty/academic_year query filters.
func (h *AdminQuotaHandler) List(c echo.Context) error {
	f := model.QuotaFilter{
		Level:        c.QueryParam("level"),
		Parallel:     c.QueryParam("parallel"),
		Shift:        c.QueryParam("shift"),
		AcademicYear: c.QueryParam("academic_year"),
	}
	if sp := c.QueryParam("specialty"); sp != "" {
		f.Specialty = &sp
	}
	quotas, err := h.Quotas.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list quotas"})
	}
	views := make([]quotaView, 0, len(quotas))
	for i := range quotas {
		views = append(views, viewOf(&quotas[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": views})
}

type updateCapacityReq struct {
	TotalCapacity uint32 `json:"total_capacity"`
}

// UpdateCapacity handles PUT /v1/admin/quotas/:id/capacity.  Shrinking a
// bucket below its occupied seats is rejected outright.
func (h *AdminQuotaHandler) UpdateCapacity(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid quota id"})
	}
	var req updateCapacityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	q, err := h.Admin.UpdateCapacity(c.Request().Context(), id, req.TotalCapacity)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrQuotaNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "quota not found"})
		case errors.Is(err, repository.ErrCapacityBelowOccupancy):
			return c.JSON(http.StatusConflict, echo.Map{"error": "capacity cannot drop below occupied seats"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update capacity"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"item": viewOf(q)})
}

// Delete handles DELETE /v1/admin/quotas/:id.  A bucket with occupied
// seats is only removed with ?force=true, which withdraws its admitted
// applications first.
func (h *AdminQuotaHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid quota id"})
	}
	force := strings.EqualFold(c.QueryParam("force"), "true")
	if err := h.Admin.Delete(c.Request().Context(), id, force); err != nil {
		switch {
		case errors.Is(err, repository.ErrQuotaNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "quota not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "quota has occupied seats; use force=true to withdraw them"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete quota"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// ListAdmitted handles GET /v1/admin/quotas/:id/admitted, returning the
// applications currently holding seats in the bucket.
func (h *AdminQuotaHandler) ListAdmitted(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid quota id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Quotas.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrQuotaNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "quota not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch quota"})
	}
	apps, err := h.Apps.ListAdmittedByQuota(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list admitted applications"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": apps})
}
