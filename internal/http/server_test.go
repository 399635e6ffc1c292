package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clubledger/internal/core"
	"clubledger/internal/ledger"
	"clubledger/internal/report"
	"clubledger/internal/services"
	"clubledger/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st := store.NewMemory()
	svc := services.NewClubService(st, nil)
	led := ledger.New(st, time.Hour)
	s := NewServer(":0", svc, led, Options{})
	t.Cleanup(func() {
		if err := s.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	})
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func createYear(t *testing.T, s *Server) core.FiscalYear {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/fiscal-years", core.FiscalYear{
		Name: "2024年度", StartMonth: "2024-04", EndMonth: "2025-03",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create year status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decode[core.FiscalYear](t, rec)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}

func TestFiscalYearLifecycle(t *testing.T) {
	s := newTestServer(t)
	y := createYear(t, s)
	if y.ID == "" {
		t.Fatal("created year has no id")
	}

	rec := doJSON(t, s, http.MethodGet, "/api/fiscal-years", nil)
	if years := decode[[]core.FiscalYear](t, rec); len(years) != 1 {
		t.Fatalf("listed years = %d, want 1", len(years))
	}

	y.Name = "2024年度(改)"
	rec = doJSON(t, s, http.MethodPut, "/api/fiscal-years/"+y.ID, y)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/fiscal-years/"+y.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/fiscal-years/"+y.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted year status = %d, want 404", rec.Code)
	}
}

func TestValidationErrorsReturn422(t *testing.T) {
	s := newTestServer(t)
	y := createYear(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/members", core.Member{
		FiscalYearID: y.ID, Name: "", Fee: 5000,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty name status = %d, want 422", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/fiscal-years", core.FiscalYear{
		Name: "逆転", StartMonth: "2025-03", EndMonth: "2024-04",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("reversed months status = %d, want 422", rec.Code)
	}
}

func TestDependencyBlockedDeleteReturns409(t *testing.T) {
	s := newTestServer(t)
	y := createYear(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/members", core.Member{
		FiscalYearID: y.ID, Name: "山田", Fee: 5000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create member status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/fiscal-years/"+y.ID, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("delete year with member status = %d, want 409", rec.Code)
	}
}

func TestMalformedBodyReturns400(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/venues", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodDelete, "/api/fiscal-years", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, POST" {
		t.Errorf("Allow header = %q", allow)
	}
}

func TestPaymentToggleFlow(t *testing.T) {
	s := newTestServer(t)
	y := createYear(t, s)

	toggle := toggleRequest{FiscalYearID: y.ID, MemberID: "m1", Month: "2024-04"}
	rec := doJSON(t, s, http.MethodPost, "/api/payments/toggle", toggle)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d, body %s", rec.Code, rec.Body.String())
	}
	if resp := decode[toggleResponse](t, rec); !resp.Paid {
		t.Error("first toggle should mark paid")
	}

	rec = doJSON(t, s, http.MethodPost, "/api/payments/toggle", toggle)
	if resp := decode[toggleResponse](t, rec); resp.Paid {
		t.Error("second toggle should mark unpaid")
	}

	rec = doJSON(t, s, http.MethodGet, "/api/payments?year="+y.ID, nil)
	payments := decode[[]core.MembershipPayment](t, rec)
	if len(payments) != 1 || payments[0].Paid {
		t.Errorf("payments = %+v", payments)
	}
}

func TestPaymentToggleValidation(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/payments/toggle", toggleRequest{
		FiscalYearID: "y1", MemberID: "m1", Month: "April 2024",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad month status = %d, want 422", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/payments/toggle", toggleRequest{Month: "2024-04"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing ids status = %d, want 400", rec.Code)
	}
}

func TestMembershipReport(t *testing.T) {
	s := newTestServer(t)
	y := createYear(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/members", core.Member{
		FiscalYearID: y.ID, Name: "山田", Fee: 5000,
	})
	m := decode[core.Member](t, rec)

	for _, month := range []core.Month{"2024-04", "2024-05", "2024-06"} {
		doJSON(t, s, http.MethodPost, "/api/payments/toggle", toggleRequest{
			FiscalYearID: y.ID, MemberID: m.ID, Month: month,
		})
	}

	rec = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/reports/membership?year=%s&month=2024-08", y.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("report status = %d", rec.Code)
	}
	sum := decode[report.MembershipSummary](t, rec)
	if sum.TotalPaidFees != 15000 {
		t.Errorf("TotalPaidFees = %d, want 15000", sum.TotalPaidFees)
	}
	if sum.UnpaidMembers != 1 {
		t.Errorf("UnpaidMembers = %d, want 1", sum.UnpaidMembers)
	}
}

func TestCompensationReport(t *testing.T) {
	s := newTestServer(t)
	y := createYear(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/users", core.UserAccount{
		Name: "指導花子", Role: core.RoleCoach,
		PracticeFee: 3000, MatchFee: 5000, TransportRatePerKm: 20,
	})
	u := decode[core.UserAccount](t, rec)

	rec = doJSON(t, s, http.MethodPost, "/api/staff", core.StaffAssignment{
		FiscalYearID: y.ID, UserID: u.ID, Name: "指導花子",
	})
	staff := decode[core.StaffAssignment](t, rec)

	rec = doJSON(t, s, http.MethodPost, "/api/activities", core.Activity{
		FiscalYearID: y.ID, StaffID: staff.ID, Date: "2024-04-10",
		Type: core.Practice, DistanceKm: 15, EtcFee: 500,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create activity status = %d, body %s", rec.Code, rec.Body.String())
	}
	a := decode[core.Activity](t, rec)
	if a.TotalFee != 3800 {
		t.Errorf("derived total = %d, want 3800", a.TotalFee)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/reports/compensation?year="+y.ID, nil)
	summaries := decode[[]report.StaffSummary](t, rec)
	if len(summaries) != 1 || summaries[0].TotalFee != 3800 || summaries[0].ActivityCount != 1 {
		t.Errorf("summaries = %+v", summaries)
	}
}

func TestYearReportCachedAndInvalidated(t *testing.T) {
	s := newTestServer(t)
	y := createYear(t, s)

	doJSON(t, s, http.MethodPost, "/api/incomes", core.FinanceRecord{
		FiscalYearID: y.ID, Date: "2024-04-01", Amount: 60000,
	})

	rec := doJSON(t, s, http.MethodGet, "/api/reports/year?year="+y.ID, nil)
	if rep := decode[report.YearReport](t, rec); rep.TotalIncome != 60000 {
		t.Fatalf("TotalIncome = %d, want 60000", rep.TotalIncome)
	}

	// A mutation clears the cache; the next read sees the new record.
	doJSON(t, s, http.MethodPost, "/api/expenses", core.FinanceRecord{
		FiscalYearID: y.ID, Date: "2024-05-01", Amount: 12000,
	})
	rec = doJSON(t, s, http.MethodGet, "/api/reports/year?year="+y.ID, nil)
	if rep := decode[report.YearReport](t, rec); rep.Balance != 48000 {
		t.Errorf("Balance after mutation = %d, want 48000", rep.Balance)
	}
}

func TestYearExportWithoutPublisher(t *testing.T) {
	s := newTestServer(t)
	y := createYear(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/reports/year/export", map[string]string{"fiscalYearId": y.ID})
	if rec.Code != http.StatusAccepted {
		t.Errorf("export status = %d, want 202", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/reports/year/export", map[string]string{"fiscalYearId": "ghost"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("export of missing year status = %d, want 404", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/fiscal-years", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response missing X-Request-ID")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("response missing security headers")
	}
}

func TestDeleteMemberBlockedByUnflushedToggle(t *testing.T) {
	s := newTestServer(t)
	y := createYear(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/members", core.Member{
		FiscalYearID: y.ID, Name: "山田", Fee: 5000,
	})
	m := decode[core.Member](t, rec)

	// The test ledger's debounce window is an hour, so the toggle lives
	// only in memory. The delete must still see it.
	rec = doJSON(t, s, http.MethodPost, "/api/payments/toggle", toggleRequest{
		FiscalYearID: y.ID, MemberID: m.ID, Month: "2024-04",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/members/"+m.ID, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("delete member with unflushed payment status = %d, want 409", rec.Code)
	}
	rec = doJSON(t, s, http.MethodDelete, "/api/fiscal-years/"+y.ID, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("delete year with unflushed payment status = %d, want 409", rec.Code)
	}
}
