package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/civitrack/apiserver/internal/services"
	"github.com/civitrack/apiserver/internal/store"
	"github.com/civitrack/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// AdminHandler provides officer/admin endpoints: cross-user complaint
// listings, assignment, reporting, and user management.
type AdminHandler struct {
	complaintService *services.ComplaintService
	userService      *services.UserService
	reportService    *services.ReportService
}

// NewAdminHandler constructs a handler with the provided services.
func NewAdminHandler(
	complaintService *services.ComplaintService,
	userService *services.UserService,
	reportService *services.ReportService,
) *AdminHandler {
	return &AdminHandler{
		complaintService: complaintService,
		userService:      userService,
		reportService:    reportService,
	}
}

// AdminRouter registers admin routes on the given router.
func AdminRouter(
	r chi.Router,
	complaintService *services.ComplaintService,
	userService *services.UserService,
	reportService *services.ReportService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewAdminHandler(complaintService, userService, reportService)

	r.Use(authMiddleware)
	r.With(requireRoles(userService, types.RoleOfficer, types.RoleAdmin)).
		Get("/complaints", handler.ListComplaints)
	r.With(requireRoles(userService, types.RoleAdmin)).
		Put("/complaints/{complaintID}/assign", handler.AssignComplaint)
	r.With(requireRoles(userService, types.RoleAdmin)).
		Get("/reports/summary", handler.ReportSummary)
	r.With(requireRoles(userService, types.RoleAdmin)).
		Get("/users", handler.ListUsers)
}

// ListComplaints lists complaints visible to the caller: everything for
// admins, only assigned ones for officers. Optional status and
// department equality filters are ANDed in.
func (h *AdminHandler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter := services.ListFilter{}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := types.Status(raw)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("department")); raw != "" {
		departmentID, err := strconv.Atoi(raw)
		if err != nil || departmentID < 1 {
			writeError(w, http.StatusBadRequest, "invalid department filter")
			return
		}
		filter.DepartmentID = departmentID
	}

	complaints, err := h.complaintService.ListForRole(r.Context(), user, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list complaints")
		return
	}

	writeJSON(w, http.StatusOK, complaints)
}

type AssignRequest struct {
	OfficerID int `json:"officer_id"`
}

// AssignComplaint assigns a complaint to an officer and moves it to
// InProgress.
func (h *AdminHandler) AssignComplaint(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "complaintID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OfficerID < 1 {
		writeError(w, http.StatusBadRequest, "invalid officer id")
		return
	}

	if err := h.complaintService.Assign(r.Context(), user.ID, id, req.OfficerID); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidOfficer):
			writeError(w, http.StatusBadRequest, "invalid officer id")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "complaint not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to assign complaint")
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "complaint assigned"})
}

// ReportSummary returns aggregate statistics over all complaints.
func (h *AdminHandler) ReportSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reportService.Summary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate report")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// ListUsers lists accounts, optionally filtered by role. Password hashes
// never serialize.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var role types.Role
	if raw := strings.TrimSpace(r.URL.Query().Get("role")); raw != "" {
		role = types.Role(raw)
		if !role.Valid() {
			writeError(w, http.StatusBadRequest, "invalid role filter")
			return
		}
	}

	users, err := h.userService.List(r.Context(), role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, users)
}
