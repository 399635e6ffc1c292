package http

import (
	"net/http"
	"strings"

	"clubledger/internal/core"
)

// pathID extracts the trailing record id from a /api/<resource>/<id>
// path.
func pathID(r *http.Request, prefix string) (string, bool) {
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// ---- fiscal years ----

func (s *Server) handleFiscalYears(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		years, err := s.svc.ListFiscalYears(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, years)
	case http.MethodPost:
		var y core.FiscalYear
		if !decodeBody(w, r, &y) {
			return
		}
		created, err := s.svc.AddFiscalYear(r.Context(), y)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleFiscalYearByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "/api/fiscal-years/")
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	switch r.Method {
	case http.MethodGet:
		y, err := s.svc.GetFiscalYear(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, y)
	case http.MethodPut:
		var y core.FiscalYear
		if !decodeBody(w, r, &y) {
			return
		}
		y.ID = id
		updated, err := s.svc.UpdateFiscalYear(r.Context(), y)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := s.svc.DeleteFiscalYear(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	default:
		methodNotAllowed(w, "GET, PUT, DELETE")
	}
}

// ---- members ----

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		members, err := s.svc.ListMembers(r.Context(), r.URL.Query().Get("year"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, members)
	case http.MethodPost:
		var m core.Member
		if !decodeBody(w, r, &m) {
			return
		}
		created, err := s.svc.AddMember(r.Context(), m)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleMemberByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "/api/members/")
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	switch r.Method {
	case http.MethodPut:
		var m core.Member
		if !decodeBody(w, r, &m) {
			return
		}
		m.ID = id
		updated, err := s.svc.UpdateMember(r.Context(), m)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := s.svc.DeleteMember(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	default:
		methodNotAllowed(w, "PUT, DELETE")
	}
}

// ---- staff ----

func (s *Server) handleStaff(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		staff, err := s.svc.ListStaff(r.Context(), r.URL.Query().Get("year"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, staff)
	case http.MethodPost:
		var c core.StaffAssignment
		if !decodeBody(w, r, &c) {
			return
		}
		created, err := s.svc.AddStaff(r.Context(), c)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleStaffByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "/api/staff/")
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	switch r.Method {
	case http.MethodPut:
		var c core.StaffAssignment
		if !decodeBody(w, r, &c) {
			return
		}
		c.ID = id
		updated, err := s.svc.UpdateStaff(r.Context(), c)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := s.svc.DeleteStaff(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	default:
		methodNotAllowed(w, "PUT, DELETE")
	}
}

// ---- venues ----

func (s *Server) handleVenues(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		venues, err := s.svc.ListVenues(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, venues)
	case http.MethodPost:
		var v core.Venue
		if !decodeBody(w, r, &v) {
			return
		}
		created, err := s.svc.AddVenue(r.Context(), v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleVenueByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "/api/venues/")
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	switch r.Method {
	case http.MethodPut:
		var v core.Venue
		if !decodeBody(w, r, &v) {
			return
		}
		v.ID = id
		updated, err := s.svc.UpdateVenue(r.Context(), v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := s.svc.DeleteVenue(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	default:
		methodNotAllowed(w, "PUT, DELETE")
	}
}

// ---- categories ----

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		typ := core.EntryType(r.URL.Query().Get("type"))
		categories, err := s.svc.ListCategories(r.Context(), typ)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, categories)
	case http.MethodPost:
		var c core.Category
		if !decodeBody(w, r, &c) {
			return
		}
		created, err := s.svc.AddCategory(r.Context(), c)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleCategoryByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "/api/categories/")
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	switch r.Method {
	case http.MethodPut:
		var c core.Category
		if !decodeBody(w, r, &c) {
			return
		}
		c.ID = id
		updated, err := s.svc.UpdateCategory(r.Context(), c)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := s.svc.DeleteCategory(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	default:
		methodNotAllowed(w, "PUT, DELETE")
	}
}

// ---- incomes and expenses ----

func (s *Server) handleIncomes(w http.ResponseWriter, r *http.Request) {
	s.handleFinance(w, r, core.Income)
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	s.handleFinance(w, r, core.Expense)
}

func (s *Server) handleFinance(w http.ResponseWriter, r *http.Request, typ core.EntryType) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		records, err := s.svc.ListFinance(r.Context(), typ, q.Get("year"), core.Month(q.Get("month")))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	case http.MethodPost:
		var rec core.FinanceRecord
		if !decodeBody(w, r, &rec) {
			return
		}
		created, err := s.svc.AddFinance(r.Context(), typ, rec)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleIncomeByID(w http.ResponseWriter, r *http.Request) {
	s.handleFinanceByID(w, r, core.Income, "/api/incomes/")
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	s.handleFinanceByID(w, r, core.Expense, "/api/expenses/")
}

func (s *Server) handleFinanceByID(w http.ResponseWriter, r *http.Request, typ core.EntryType, prefix string) {
	id, ok := pathID(r, prefix)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	switch r.Method {
	case http.MethodPut:
		var rec core.FinanceRecord
		if !decodeBody(w, r, &rec) {
			return
		}
		rec.ID = id
		updated, err := s.svc.UpdateFinance(r.Context(), typ, rec)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := s.svc.DeleteFinance(r.Context(), typ, id); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	default:
		methodNotAllowed(w, "PUT, DELETE")
	}
}

// ---- activities ----

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		activities, err := s.svc.ListActivities(r.Context(), q.Get("year"), core.Month(q.Get("month")), q.Get("staff"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, activities)
	case http.MethodPost:
		var a core.Activity
		if !decodeBody(w, r, &a) {
			return
		}
		created, err := s.svc.AddActivity(r.Context(), a)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleActivityByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "/api/activities/")
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	switch r.Method {
	case http.MethodPut:
		var a core.Activity
		if !decodeBody(w, r, &a) {
			return
		}
		a.ID = id
		updated, err := s.svc.UpdateActivity(r.Context(), a)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := s.svc.DeleteActivity(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	default:
		methodNotAllowed(w, "PUT, DELETE")
	}
}

// ---- users ----

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		users, err := s.svc.ListUsers(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	case http.MethodPost:
		var u core.UserAccount
		if !decodeBody(w, r, &u) {
			return
		}
		created, err := s.svc.AddUser(r.Context(), u)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "/api/users/")
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	switch r.Method {
	case http.MethodPut:
		var u core.UserAccount
		if !decodeBody(w, r, &u) {
			return
		}
		u.ID = id
		updated, err := s.svc.UpdateUser(r.Context(), u)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := s.svc.DeleteUser(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	default:
		methodNotAllowed(w, "PUT, DELETE")
	}
}
