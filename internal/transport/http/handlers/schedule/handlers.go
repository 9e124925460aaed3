package schedulehandler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"academy/internal/domain/audit"
	"academy/internal/domain/auth"
	"academy/internal/domain/schedule"
	"academy/internal/transport/http/api"
	"academy/internal/transport/http/middleware"
	"academy/internal/transport/http/shared"
)

type Handler struct {
	Schedule *schedule.Service
	Audit    *audit.Service
	Perms    middleware.PermissionStore
}

func NewHandler(scheduleSvc *schedule.Service, auditSvc *audit.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Schedule: scheduleSvc, Audit: auditSvc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/schedule", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermScheduleRead, h.Perms)).Get("/slots", h.handleListSlots)
		r.With(middleware.RequirePermission(auth.PermScheduleWrite, h.Perms)).Post("/slots", h.handleCreateSlot)
		r.With(middleware.RequirePermission(auth.PermScheduleWrite, h.Perms)).Post("/slots/{slotID}/cancel", h.handleCancelSlot)
		r.With(middleware.RequirePermission(auth.PermScheduleWrite, h.Perms)).Post("/substitutions", h.handleCreateSubstitution)
		r.With(middleware.RequirePermission(auth.PermScheduleWrite, h.Perms)).Delete("/substitutions/{substitutionID}", h.handleDeleteSubstitution)
	})
}

type slotPayload struct {
	TeacherID  string `json:"teacherId"`
	Subject    string `json:"subject"`
	ClassGroup string `json:"classGroup"`
	StartsAt   string `json:"startsAt"`
	EndsAt     string `json:"endsAt"`
}

func (h *Handler) handleListSlots(w http.ResponseWriter, r *http.Request) {
	teacherID := r.URL.Query().Get("teacherId")
	if teacherID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "teacherId query parameter required", middleware.GetRequestID(r.Context()))
		return
	}
	month, year, err := shared.ParsePeriod(r, time.Now())
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	slots, err := h.Schedule.ListSlots(r.Context(), teacherID, time.Month(month), year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "schedule_list_failed", "failed to list slots", middleware.GetRequestID(r.Context()))
		return
	}
	if slots == nil {
		slots = []schedule.Slot{}
	}
	api.Success(w, slots, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateSlot(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload slotPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	startsAt, err := time.Parse(time.RFC3339, payload.StartsAt)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "startsAt must be RFC3339", middleware.GetRequestID(r.Context()))
		return
	}
	endsAt, err := time.Parse(time.RFC3339, payload.EndsAt)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "endsAt must be RFC3339", middleware.GetRequestID(r.Context()))
		return
	}

	created, err := h.Schedule.CreateSlot(r.Context(), schedule.Slot{
		TeacherID:  payload.TeacherID,
		Subject:    payload.Subject,
		ClassGroup: payload.ClassGroup,
		StartsAt:   startsAt,
		EndsAt:     endsAt,
	})
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "slot_create_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "schedule.slot.create", "lesson_slot", created.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, created); err != nil {
		log.Printf("audit schedule.slot.create failed: %v", err)
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancelSlot(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	slotID := chi.URLParam(r, "slotID")

	if err := h.Schedule.CancelSlot(r.Context(), slotID); err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "slot not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "slot_cancel_failed", "failed to cancel slot", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "schedule.slot.cancel", "lesson_slot", slotID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		log.Printf("audit schedule.slot.cancel failed: %v", err)
	}
	api.Success(w, map[string]string{"status": "cancelled"}, middleware.GetRequestID(r.Context()))
}

type substitutionPayload struct {
	SlotID              string `json:"slotId"`
	SubstituteTeacherID string `json:"substituteTeacherId"`
	Reason              string `json:"reason"`
}

func (h *Handler) handleCreateSubstitution(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload substitutionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("slotId", payload.SlotID, "slot id is required")
	v.Required("substituteTeacherId", payload.SubstituteTeacherID, "substitute teacher id is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	created, err := h.Schedule.CreateSubstitution(r.Context(), payload.SlotID, payload.SubstituteTeacherID, payload.Reason)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "slot not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "substitution_create_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "schedule.substitution.create", "substitution", created.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, created); err != nil {
		log.Printf("audit schedule.substitution.create failed: %v", err)
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteSubstitution(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	substitutionID := chi.URLParam(r, "substitutionID")

	if err := h.Schedule.DeleteSubstitution(r.Context(), substitutionID); err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "substitution not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "substitution_delete_failed", "failed to delete substitution", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "schedule.substitution.delete", "substitution", substitutionID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		log.Printf("audit schedule.substitution.delete failed: %v", err)
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}
