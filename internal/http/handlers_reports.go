package http

import (
	"log/slog"
	"net/http"
	"time"

	"clubledger/internal/core"
	"clubledger/internal/report"
)

// handleMembershipReport rolls up the dues ledger for one fiscal year.
// The optional month parameter sets the reference for the unpaid count;
// it defaults to the current month. Always computed from the live
// ledger, never cached.
func (s *Server) handleMembershipReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	q := r.URL.Query()
	year, err := s.svc.GetFiscalYear(r.Context(), q.Get("year"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	ref := core.MonthOf(time.Now())
	if v := q.Get("month"); v != "" {
		ref = core.Month(v)
		if !ref.Valid() {
			writeError(w, r, core.ErrInvalidMonth)
			return
		}
	}

	members, err := s.svc.ListMembers(r.Context(), year.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary := report.Membership(year, members, s.ledger.Snapshot(), ref)
	writeJSON(w, http.StatusOK, summary)
}

// handleCompensationReport summarizes activity counts and fee totals
// per staff member, with optional month and staff filters.
func (s *Server) handleCompensationReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	q := r.URL.Query()
	year, err := s.svc.GetFiscalYear(r.Context(), q.Get("year"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	month := core.Month(q.Get("month"))
	if month != "" && !month.Valid() {
		writeError(w, r, core.ErrInvalidMonth)
		return
	}

	staff, err := s.svc.ListStaff(r.Context(), year.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	users, err := s.svc.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	activities, err := s.svc.ListActivities(r.Context(), year.ID, "", "")
	if err != nil {
		writeError(w, r, err)
		return
	}

	summaries := report.StaffPayments(year.ID, staff, users, activities, month, q.Get("staff"))
	writeJSON(w, http.StatusOK, summaries)
}

// handleYearReport returns the year-end settlement, cached briefly
// since it is recomputed from whole collections.
func (s *Server) handleYearReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	yearID := r.URL.Query().Get("year")
	if rep, ok := s.reportCache.Get(yearID); ok {
		slog.DebugContext(r.Context(), "Year report cache hit", "fiscal_year_id", yearID)
		writeJSON(w, http.StatusOK, rep)
		return
	}

	rep, err := s.svc.YearReport(r.Context(), yearID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.reportCache.Set(yearID, rep)
	writeJSON(w, http.StatusOK, rep)
}

// handleYearExport queues an asynchronous export of the year-end
// report.
func (s *Server) handleYearExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	var req struct {
		FiscalYearID string `json:"fiscalYearId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.svc.RequestYearExport(r.Context(), req.FiscalYearID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
