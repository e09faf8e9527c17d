package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/school-admissions/internal/model"
	"github.com/iliyamo/school-admissions/internal/repository"
	"github.com/iliyamo/school-admissions/internal/service"
)

type handlerFixture struct {
	quotas *repository.MemoryQuotaStore
	apps   *repository.MemoryApplicationStore
	h      *ApplicationHandler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	quotas := repository.NewMemoryQuotaStore()
	apps := repository.NewMemoryApplicationStore()
	alloc := service.NewAllocationCoordinator(quotas)
	resolver := service.NewQuotaResolver(quotas)
	transitions := service.NewTransitionService(nil, apps, quotas, resolver, alloc, nil)
	return &handlerFixture{
		quotas: quotas,
		apps:   apps,
		h:      NewApplicationHandler(apps, transitions),
	}
}

func (f *handlerFixture) seedQuota(t *testing.T, parallel string, capacity uint32) *model.Quota {
	t.Helper()
	q, err := f.quotas.Create(context.Background(), &model.Quota{
		Level:         "1ro_basico",
		Parallel:      parallel,
		Shift:         "AM",
		AcademicYear:  "2026",
		TotalCapacity: capacity,
	})
	require.NoError(t, err)
	return q
}

// call runs a handler with the identity the JWT middleware would have set.
func call(method, path, body string, userID uint64, role string, params map[string]string, h echo.HandlerFunc) *httptest.ResponseRecorder {
	e := echo.New()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("role", role)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	_ = h(c)
	return rec
}

func TestCreateApplication(t *testing.T) {
	f := newHandlerFixture(t)

	rec := call(http.MethodPost, "/v1/applications",
		`{"student_name":"Ana","level":"1ro_basico","shift":"AM","academic_year":"2026"}`,
		1, "APPLICANT", nil, f.h.Create)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Item model.Application `json:"item"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.StatusDraft, resp.Item.Status)
	assert.Equal(t, uint64(1), resp.Item.ApplicantID)
}

func TestCreateApplicationMissingFields(t *testing.T) {
	f := newHandlerFixture(t)
	rec := call(http.MethodPost, "/v1/applications",
		`{"student_name":"Ana"}`, 1, "APPLICANT", nil, f.h.Create)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetApplicationOwnership(t *testing.T) {
	f := newHandlerFixture(t)
	a, err := f.apps.Create(context.Background(), &model.Application{
		ApplicantID: 1, StudentName: "Ana", Level: "1ro_basico", Shift: "AM", AcademicYear: "2026",
	})
	require.NoError(t, err)
	params := map[string]string{"id": fmt.Sprint(a.ID)}

	rec := call(http.MethodGet, "/v1/applications/1", "", 1, "APPLICANT", params, f.h.Get)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Another applicant is refused; a reviewer is not.
	rec = call(http.MethodGet, "/v1/applications/1", "", 2, "APPLICANT", params, f.h.Get)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(http.MethodGet, "/v1/applications/1", "", 2, "REVIEWER", params, f.h.Get)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTransitionRoleRestrictions(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedQuota(t, "A", 2)
	a, err := f.apps.Create(context.Background(), &model.Application{
		ApplicantID: 1, StudentName: "Ana", Level: "1ro_basico", Shift: "AM", AcademicYear: "2026",
	})
	require.NoError(t, err)
	params := map[string]string{"id": fmt.Sprint(a.ID)}

	// Applicants may submit their own application.
	rec := call(http.MethodPost, "/v1/applications/1/transition",
		`{"target_status":"SUBMITTED"}`, 1, "APPLICANT", params, f.h.Transition)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// But not move it into review; that edge belongs to staff.
	rec = call(http.MethodPost, "/v1/applications/1/transition",
		`{"target_status":"UNDER_REVIEW"}`, 1, "APPLICANT", params, f.h.Transition)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(http.MethodPost, "/v1/applications/1/transition",
		`{"target_status":"UNDER_REVIEW"}`, 9, "REVIEWER", params, f.h.Transition)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTransitionErrorMapping(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedQuota(t, "A", 1)
	ctx := context.Background()

	review := func(t *testing.T, applicant uint64) string {
		a, err := f.apps.Create(ctx, &model.Application{
			ApplicantID: applicant, StudentName: "S", Level: "1ro_basico", Shift: "AM", AcademicYear: "2026",
		})
		require.NoError(t, err)
		id := fmt.Sprint(a.ID)
		for _, target := range []string{"SUBMITTED", "UNDER_REVIEW"} {
			rec := call(http.MethodPost, "/x", `{"target_status":"`+target+`"}`, 9, "REVIEWER",
				map[string]string{"id": id}, f.h.Transition)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		}
		return id
	}

	first := review(t, 1)
	second := review(t, 2)

	// Admission without a parallel is a bad request.
	rec := call(http.MethodPost, "/x", `{"target_status":"ADMITTED"}`, 9, "REVIEWER",
		map[string]string{"id": first}, f.h.Transition)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown bucket.
	rec = call(http.MethodPost, "/x", `{"target_status":"ADMITTED","parallel":"Z"}`, 9, "REVIEWER",
		map[string]string{"id": first}, f.h.Transition)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// First admission fills the bucket; the second hits 409.
	rec = call(http.MethodPost, "/x", `{"target_status":"ADMITTED","parallel":"A"}`, 9, "REVIEWER",
		map[string]string{"id": first}, f.h.Transition)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(http.MethodPost, "/x", `{"target_status":"ADMITTED","parallel":"A"}`, 9, "REVIEWER",
		map[string]string{"id": second}, f.h.Transition)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Illegal edge maps to 422.
	rec = call(http.MethodPost, "/x", `{"target_status":"DRAFT"}`, 9, "REVIEWER",
		map[string]string{"id": first}, f.h.Transition)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Unknown application maps to 404.
	rec = call(http.MethodPost, "/x", `{"target_status":"SUBMITTED"}`, 9, "REVIEWER",
		map[string]string{"id": "999"}, f.h.Transition)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListMine(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := f.apps.Create(ctx, &model.Application{
			ApplicantID: 1, StudentName: "Ana", Level: "1ro_basico", Shift: "AM", AcademicYear: "2026",
		})
		require.NoError(t, err)
	}
	_, err := f.apps.Create(ctx, &model.Application{
		ApplicantID: 2, StudentName: "Beto", Level: "1ro_basico", Shift: "AM", AcademicYear: "2026",
	})
	require.NoError(t, err)

	rec := call(http.MethodGet, "/v1/my-applications", "", 1, "APPLICANT", nil, f.h.ListMine)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Items []model.Application `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 2)
}
