package insurance

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smilecare/smilecare/internal/platform/apperr"
)

func TestHandler_CreateProvider(t *testing.T) {
	env := newTestService()
	h := NewHandler(env.svc)
	e := echo.New()

	body := `{"name":"Delta Dental","contact_person":"June Park","phone":"555-0134"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateProvider(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestHandler_UpdateClaimStatus(t *testing.T) {
	env := newTestService()
	h := NewHandler(env.svc)
	e := echo.New()

	claim := env.seedClaim(t, ClaimSubmitted)

	body := `{"status":"paid","amount_approved":"200.00"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(claim.ID.String())

	if err := h.UpdateClaimStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out["status"] != ClaimPaid {
		t.Errorf("expected status paid, got %v", out["status"])
	}
	if out["amount_approved"] != "200.00" {
		t.Errorf("expected amount_approved 200.00, got %v", out["amount_approved"])
	}
	if len(env.payments.recorded) != 1 {
		t.Fatalf("recorded %d payments, want 1", len(env.payments.recorded))
	}
}

func TestHandler_UpdateClaimStatus_BadTransition(t *testing.T) {
	env := newTestService()
	h := NewHandler(env.svc)
	e := echo.New()

	claim := env.seedClaim(t, ClaimDraft)

	body := `{"status":"paid"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(claim.ID.String())

	err := h.UpdateClaimStatus(c)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if apperr.Status(err) != http.StatusBadRequest {
		t.Errorf("expected 400 mapping, got %d", apperr.Status(err))
	}
}

func TestHandler_GetClaim_NotFound(t *testing.T) {
	env := newTestService()
	h := NewHandler(env.svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GetClaim(c)
	if err == nil {
		t.Fatal("expected not found error")
	}
	if apperr.Status(err) != http.StatusNotFound {
		t.Errorf("expected 404 mapping, got %d", apperr.Status(err))
	}
}
