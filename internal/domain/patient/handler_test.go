package patient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func selfContext(t *testing.T, method, target, body string, pid uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("auth_patient_id", pid)
	return c, rec
}

func TestSelfProfile_ScopedToGuardID(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())
	h := NewHandler(svc)

	mine := &Patient{FirstName: "Mine", LastName: "Doe", BirthDate: PlaceholderBirthDate}
	other := &Patient{FirstName: "Other", LastName: "Doe", BirthDate: PlaceholderBirthDate}
	repo.Create(context.Background(), mine)
	repo.Create(context.Background(), other)

	// The request tries to name someone else's id; only the guard id counts.
	c, rec := selfContext(t, http.MethodGet, "/api/patient/profile?id="+other.ID.String(), "", mine.ID)
	if err := h.SelfProfile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Mine") || strings.Contains(rec.Body.String(), "Other") {
		t.Errorf("profile leaked another patient: %s", rec.Body.String())
	}
}

func TestUpdateSelfProfile_BodyIDDiscarded(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())
	h := NewHandler(svc)

	mine := &Patient{FirstName: "Mine", LastName: "Doe", BirthDate: PlaceholderBirthDate}
	other := &Patient{FirstName: "Other", LastName: "Doe", BirthDate: PlaceholderBirthDate}
	repo.Create(context.Background(), mine)
	repo.Create(context.Background(), other)

	body := `{"id":"` + other.ID.String() + `","first_name":"Changed","last_name":"Doe"}`
	c, rec := selfContext(t, http.MethodPut, "/api/patient/profile", body, mine.ID)
	if err := h.UpdateSelfProfile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if repo.data[other.ID].FirstName != "Other" {
		t.Error("another patient's record was modified")
	}
	if repo.data[mine.ID].FirstName != "Changed" {
		t.Errorf("own record not updated: %+v", repo.data[mine.ID])
	}
}

func TestSelfProfile_NoGuardID(t *testing.T) {
	h := NewHandler(NewService(newMockRepo(), zerolog.Nop()))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/patient/profile", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.SelfProfile(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without guard-injected id, got %v", err)
	}
}

func TestGetPatient_InvalidID(t *testing.T) {
	h := NewHandler(NewService(newMockRepo(), zerolog.Nop()))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/patients/abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.Get(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid uuid, got %v", err)
	}
}
