package staffhandler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"academy/internal/domain/audit"
	"academy/internal/domain/auth"
	"academy/internal/domain/staff"
	"academy/internal/transport/http/api"
	"academy/internal/transport/http/middleware"
	"academy/internal/transport/http/shared"
)

type Handler struct {
	Store *staff.Store
	Audit *audit.Service
	Perms middleware.PermissionStore
}

func NewHandler(store *staff.Store, auditSvc *audit.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Store: store, Audit: auditSvc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/teachers", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTeachersRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermTeachersRead, h.Perms)).Get("/{teacherID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermTeachersWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermTeachersWrite, h.Perms)).Put("/{teacherID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermTeachersWrite, h.Perms)).Post("/{teacherID}/deactivate", h.handleDeactivate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("includeInactive") == "true"
	teachers, err := h.Store.List(r.Context(), includeInactive)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "teachers_list_failed", "failed to list teachers", middleware.GetRequestID(r.Context()))
		return
	}
	if teachers == nil {
		teachers = []staff.Teacher{}
	}
	api.Success(w, teachers, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	teacher, err := h.Store.Get(r.Context(), chi.URLParam(r, "teacherID"))
	if errors.Is(err, staff.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "teacher not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "teacher_get_failed", "failed to load teacher", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, teacher, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload staff.Teacher
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	v.Required("email", payload.Email, "email is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	created, err := h.Store.Create(r.Context(), payload)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "teacher_create_failed", "failed to create teacher", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "staff.teacher.create", "teacher", created.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, created); err != nil {
		log.Printf("audit staff.teacher.create failed: %v", err)
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	teacherID := chi.URLParam(r, "teacherID")

	before, err := h.Store.Get(r.Context(), teacherID)
	if errors.Is(err, staff.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "teacher not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "teacher_update_failed", "failed to load teacher", middleware.GetRequestID(r.Context()))
		return
	}

	var payload staff.Teacher
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.ID = teacherID
	if strings.TrimSpace(payload.FirstName) == "" || strings.TrimSpace(payload.LastName) == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "first and last name are required", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Store.Update(r.Context(), payload); err != nil {
		api.Fail(w, http.StatusInternalServerError, "teacher_update_failed", "failed to update teacher", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "staff.teacher.update", "teacher", teacherID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, payload); err != nil {
		log.Printf("audit staff.teacher.update failed: %v", err)
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	teacherID := chi.URLParam(r, "teacherID")

	if err := h.Store.SetStatus(r.Context(), teacherID, staff.TeacherStatusInactive); err != nil {
		if errors.Is(err, staff.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "teacher not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "teacher_deactivate_failed", "failed to deactivate teacher", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "staff.teacher.deactivate", "teacher", teacherID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		log.Printf("audit staff.teacher.deactivate failed: %v", err)
	}
	api.Success(w, map[string]string{"status": "deactivated"}, middleware.GetRequestID(r.Context()))
}
