package http

import (
	"net/http"

	"clubledger/internal/core"
)

// handlePayments returns the ledger cells, optionally one fiscal
// year's. The response reflects in-memory state, including toggles not
// yet flushed.
func (s *Server) handlePayments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	yearID := r.URL.Query().Get("year")
	payments := s.ledger.Snapshot()
	if yearID != "" {
		filtered := payments[:0]
		for _, p := range payments {
			if p.FiscalYearID == yearID {
				filtered = append(filtered, p)
			}
		}
		payments = filtered
	}
	writeJSON(w, http.StatusOK, payments)
}

type toggleRequest struct {
	FiscalYearID string     `json:"fiscalYearId"`
	MemberID     string     `json:"memberId"`
	Month        core.Month `json:"month"`
}

type toggleResponse struct {
	FiscalYearID string     `json:"fiscalYearId"`
	MemberID     string     `json:"memberId"`
	Month        core.Month `json:"month"`
	Paid         bool       `json:"paid"`
}

// handlePaymentToggle flips one ledger cell and returns its new state.
// The response is immediate; persistence happens after the debounce
// window.
func (s *Server) handlePaymentToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	var req toggleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FiscalYearID == "" || req.MemberID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "fiscalYearId and memberId are required"})
		return
	}
	if !req.Month.Valid() {
		writeError(w, r, core.ErrInvalidMonth)
		return
	}

	paid := s.ledger.Toggle(req.FiscalYearID, req.MemberID, req.Month)
	writeJSON(w, http.StatusOK, toggleResponse{
		FiscalYearID: req.FiscalYearID,
		MemberID:     req.MemberID,
		Month:        req.Month,
		Paid:         paid,
	})
}
