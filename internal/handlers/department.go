package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/civitrack/apiserver/internal/services"
	"github.com/civitrack/apiserver/internal/store"
	"github.com/civitrack/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// DepartmentHandler provides CRUD handlers for departments.
type DepartmentHandler struct {
	departmentService *services.DepartmentService
}

// NewDepartmentHandler constructs a handler with the provided service.
func NewDepartmentHandler(departmentService *services.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departmentService: departmentService}
}

// DepartmentRouter registers department routes: reads for any
// authenticated role, writes for admins only.
func DepartmentRouter(
	r chi.Router,
	departmentService *services.DepartmentService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewDepartmentHandler(departmentService)

	anyRole := requireRoles(userService, types.RoleUser, types.RoleOfficer, types.RoleAdmin)
	adminOnly := requireRoles(userService, types.RoleAdmin)

	r.Use(authMiddleware)
	r.With(anyRole).Get("/", handler.List)
	r.With(adminOnly).Post("/", handler.Create)
	r.Route("/{departmentID}", func(r chi.Router) {
		r.With(anyRole).Get("/", handler.Get)
		r.With(adminOnly).Put("/", handler.Update)
		r.With(adminOnly).Delete("/", handler.Delete)
	})
}

type DepartmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// List returns all departments sorted by name.
func (h *DepartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	depts, err := h.departmentService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list departments")
		return
	}
	writeJSON(w, http.StatusOK, depts)
}

// Get returns one department by id.
func (h *DepartmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "departmentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dept, err := h.departmentService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "department not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch department")
		return
	}
	writeJSON(w, http.StatusOK, dept)
}

// Create adds a new department with a unique name.
func (h *DepartmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req DepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	dept, err := h.departmentService.Create(r.Context(), req.Name, strings.TrimSpace(req.Description))
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "department already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create department")
		return
	}
	writeJSON(w, http.StatusCreated, dept)
}

// Update applies a partial update; omitted fields keep their value.
func (h *DepartmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "departmentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req DepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	dept, err := h.departmentService.Update(r.Context(), id, strings.TrimSpace(req.Name), strings.TrimSpace(req.Description))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "department not found")
		case errors.Is(err, store.ErrDuplicate):
			writeError(w, http.StatusBadRequest, "department name already in use")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update department")
		}
		return
	}
	writeJSON(w, http.StatusOK, dept)
}

// Delete removes a department unless complaints still reference it.
func (h *DepartmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "departmentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.departmentService.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "department not found")
		case errors.Is(err, store.ErrInUse):
			writeError(w, http.StatusBadRequest, "department is linked to existing complaints")
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete department")
		}
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "department removed"})
}
