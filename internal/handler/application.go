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

// ApplicationHandler exposes the application lifecycle over HTTP.  All
// status changes funnel through the transition service; the handler only
// translates requests, enforces ownership for applicants and maps errors
// to status codes.  Role membership was already checked by middleware.
type ApplicationHandler struct {
	Apps        service.ApplicationStore
	Transitions *service.TransitionService
}

// NewApplicationHandler constructs the handler.  All dependencies must be
// non-nil.
func NewApplicationHandler(apps service.ApplicationStore, transitions *service.TransitionService) *ApplicationHandler {
	if apps == nil || transitions == nil {
		panic("nil dependency passed to NewApplicationHandler")
	}
	return &ApplicationHandler{Apps: apps, Transitions: transitions}
}

// applicantEdges are the target statuses an applicant may request on their
// own application.  Review decisions (UNDER_REVIEW, CORRECTION_REQUIRED,
// ADMITTED, REJECTED) belong to reviewers and admins.
var applicantEdges = map[model.Status]bool{
	model.StatusSubmitted: true,
	model.StatusWithdrawn: true,
}

type createApplicationReq struct {
	StudentName  string `json:"student_name"`
	Level        string `json:"level"`
	Shift        string `json:"shift"`
	Specialty    string `json:"specialty"`
	AcademicYear string `json:"academic_year"`
}

// Create handles POST /v1/applications.  New applications start in DRAFT
// and hold no seat.
func (h *ApplicationHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createApplicationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.StudentName = strings.TrimSpace(req.StudentName)
	if req.StudentName == "" || req.Level == "" || req.Shift == "" || req.AcademicYear == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student_name, level, shift and academic_year are required"})
	}
	app, err := h.Apps.Create(c.Request().Context(), &model.Application{
		ApplicantID:  userID,
		StudentName:  req.StudentName,
		Level:        req.Level,
		Shift:        req.Shift,
		Specialty:    req.Specialty,
		AcademicYear: req.AcademicYear,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create application"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": app})
}

// Get handles GET /v1/applications/:id.  Applicants may only read their
// own; reviewers and admins may read any.
func (h *ApplicationHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid application id"})
	}
	app, err := h.Apps.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "application not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch application"})
	}
	if getRole(c) == "APPLICANT" && app.ApplicantID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": app})
}

// ListMine handles GET /v1/my-applications.
func (h *ApplicationHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	apps, err := h.Apps.ListByApplicant(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load applications"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": apps})
}

type transitionReq struct {
	TargetStatus string `json:"target_status"`
	Parallel     string `json:"parallel"`
}

// Transition handles POST /v1/applications/:id/transition.  Admissions
// require a parallel in the body; the engine refuses to pick one itself.
// Capacity exhaustion and illegal edges come back with distinct messages
// so the UI can refresh availability in one case and block the action in
// the other.
func (h *ApplicationHandler) Transition(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid application id"})
	}
	var req transitionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	target := model.Status(strings.ToUpper(strings.TrimSpace(req.TargetStatus)))
	if !target.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown target_status"})
	}

	ctx := c.Request().Context()
	if getRole(c) == "APPLICANT" {
		app, err := h.Apps.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrApplicationNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "application not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch application"})
		}
		if app.ApplicantID != userID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		if !applicantEdges[target] {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}

	updated, err := h.Transitions.RequestTransition(ctx, id, target, strings.TrimSpace(req.Parallel))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrApplicationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "application not found"})
		case errors.Is(err, repository.ErrInvalidTransition):
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrCapacityExceeded):
			return c.JSON(http.StatusConflict, echo.Map{"error": "no seats available in the selected parallel"})
		case errors.Is(err, repository.ErrAmbiguousParallel):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "a parallel must be assigned before admission"})
		case errors.Is(err, repository.ErrNoMatchingQuota):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no quota configured for the selection"})
		case errors.Is(err, repository.ErrConsistencyFatal):
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "quota state inconsistent; operation aborted"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transition failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"item": updated})
}
