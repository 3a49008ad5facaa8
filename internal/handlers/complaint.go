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

const (
	maxMultipartMemory = 32 << 20
	maxAttachmentBytes = 16 << 20

	formFieldTitle       = "title"
	formFieldDescription = "description"
	formFieldDepartment  = "department_id"
	formFieldCategory    = "category"
	formFieldPriority    = "priority"
	formFieldAttachment  = "attachment"
)

// ComplaintHandler provides HTTP handlers for the complaint lifecycle.
type ComplaintHandler struct {
	complaintService *services.ComplaintService
	userService      *services.UserService
}

// NewComplaintHandler constructs a handler with the provided services.
func NewComplaintHandler(complaintService *services.ComplaintService, userService *services.UserService) *ComplaintHandler {
	return &ComplaintHandler{
		complaintService: complaintService,
		userService:      userService,
	}
}

// ComplaintRouter registers complaint routes on the given router. Every
// route names its allowed-roles set explicitly.
func ComplaintRouter(
	r chi.Router,
	complaintService *services.ComplaintService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewComplaintHandler(complaintService, userService)

	r.Use(authMiddleware)
	r.With(requireRoles(userService, types.RoleUser)).Post("/", handler.Lodge)
	r.With(requireRoles(userService, types.RoleUser)).Get("/my-complaints", handler.MyComplaints)
	r.With(requireRoles(userService, types.RoleUser, types.RoleOfficer, types.RoleAdmin)).
		Get("/{complaintID}", handler.GetComplaint)
	r.With(requireRoles(userService, types.RoleOfficer, types.RoleAdmin)).
		Put("/{complaintID}/update", handler.RecordUpdate)
}

// Lodge files a new complaint from a multipart form, optionally carrying
// an attachment.
func (h *ComplaintHandler) Lodge(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	input, cleanup, err := parseLodgeForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	complaint, err := h.complaintService.Lodge(r.Context(), user.ID, input)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusBadRequest, "department does not exist")
		case errors.Is(err, store.ErrInvalidValue):
			writeError(w, http.StatusBadRequest, "invalid priority or status")
		default:
			writeError(w, http.StatusInternalServerError, "failed to lodge complaint")
		}
		return
	}

	writeJSON(w, http.StatusCreated, complaint)
}

// MyComplaints lists the caller's own complaints, newest first.
func (h *ComplaintHandler) MyComplaints(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	complaints, err := h.complaintService.ListMine(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list complaints")
		return
	}

	writeJSON(w, http.StatusOK, complaints)
}

// GetComplaint returns one complaint with references resolved. Plain
// users get 403 for complaints they do not own.
func (h *ComplaintHandler) GetComplaint(w http.ResponseWriter, r *http.Request) {
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

	complaint, err := h.complaintService.Get(r.Context(), user, id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "complaint not found")
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "not authorized to view this complaint")
		default:
			writeError(w, http.StatusInternalServerError, "failed to fetch complaint")
		}
		return
	}

	writeJSON(w, http.StatusOK, complaint)
}

type RecordUpdateRequest struct {
	Status  types.Status `json:"status"`
	Comment string       `json:"comment"`
}

// RecordUpdate appends a status update to a complaint.
func (h *ComplaintHandler) RecordUpdate(w http.ResponseWriter, r *http.Request) {
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

	var req RecordUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Status == "" || strings.TrimSpace(req.Comment) == "" {
		writeError(w, http.StatusBadRequest, "status and comment are required")
		return
	}

	complaint, err := h.complaintService.RecordUpdate(r.Context(), user, id, req.Status, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "complaint not found")
		case errors.Is(err, store.ErrInvalidValue):
			writeError(w, http.StatusBadRequest, "invalid status")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update complaint")
		}
		return
	}

	writeJSON(w, http.StatusOK, complaint)
}

func parseLodgeForm(r *http.Request) (services.LodgeInput, func(), error) {
	noop := func() {}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return services.LodgeInput{}, noop, errors.New("invalid multipart form")
	}

	title := strings.TrimSpace(r.FormValue(formFieldTitle))
	if title == "" {
		return services.LodgeInput{}, noop, errors.New("title is required")
	}
	description := strings.TrimSpace(r.FormValue(formFieldDescription))
	if description == "" {
		return services.LodgeInput{}, noop, errors.New("description is required")
	}
	departmentID, err := strconv.Atoi(strings.TrimSpace(r.FormValue(formFieldDepartment)))
	if err != nil || departmentID < 1 {
		return services.LodgeInput{}, noop, errors.New("invalid department id")
	}

	priority := types.Priority(strings.TrimSpace(r.FormValue(formFieldPriority)))
	if priority != "" && !priority.Valid() {
		return services.LodgeInput{}, noop, errors.New("invalid priority")
	}

	input := services.LodgeInput{
		Title:        title,
		Description:  description,
		DepartmentID: departmentID,
		Category:     strings.TrimSpace(r.FormValue(formFieldCategory)),
		Priority:     priority,
	}

	cleanup := noop
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File[formFieldAttachment]; len(files) > 0 {
			if len(files) > 1 {
				return services.LodgeInput{}, noop, errors.New("only one attachment is allowed")
			}
			fileHeader := files[0]
			if fileHeader.Size > maxAttachmentBytes {
				return services.LodgeInput{}, noop, errors.New("attachment too large")
			}
			file, err := fileHeader.Open()
			if err != nil {
				return services.LodgeInput{}, noop, errors.New("failed to read attachment")
			}
			cleanup = func() { _ = file.Close() }
			input.Attachment = &services.Attachment{
				Reader:      file,
				Size:        fileHeader.Size,
				Filename:    fileHeader.Filename,
				ContentType: fileHeader.Header.Get("Content-Type"),
			}
		}
	}

	return input, cleanup, nil
}
