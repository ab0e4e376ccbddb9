package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/srgjo27/eventpass/internal/core/domain"
	"github.com/srgjo27/eventpass/internal/core/services"
)

type registerRequest struct {
	EventID        string `json:"eventId" validate:"required,uuid"`
	UserID         string `json:"userId" validate:"required,max=128"`
	AttendeeName   string `json:"attendeeName" validate:"max=200"`
	InvitationCode string `json:"invitationCode" validate:"max=32"`
}

type RegistrationHandler struct {
	admission *services.AdmissionService
	log       *slog.Logger
}

func NewRegistrationHandler(admission *services.AdmissionService, log *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{admission: admission, log: log}
}

// Register handles POST /registrations.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	reg, err := h.admission.Register(r.Context(), services.RegisterInput{
		EventID:        uuid.MustParse(req.EventID),
		UserID:         req.UserID,
		AttendeeName:   req.AttendeeName,
		InvitationCode: req.InvitationCode,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// GetRegistration hides the check-in code from anyone but the holder.
func (h *RegistrationHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	reg, err := h.admission.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if r.Header.Get(UserHeader) != reg.HolderID {
		reg.CheckinCode = nil
	}
	writeJSON(w, http.StatusOK, reg)
}

// Cancel handles POST /registrations/{id}/cancel.
func (h *RegistrationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if _, err := h.admission.Cancel(r.Context(), id, userFrom(r.Context())); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RegistrationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.admission.Approve)
}

func (h *RegistrationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.admission.Reject)
}

func (h *RegistrationHandler) decide(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID) (*domain.Registration, error)) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	reg, err := op(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}
