package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/eventpass/internal/core/domain"
	"github.com/srgjo27/eventpass/internal/core/services"
)

type createEventRequest struct {
	Name             string `json:"name" validate:"required,max=200"`
	CapacityTotal    *int   `json:"capacityTotal" validate:"omitempty,min=0"`
	RequiresApproval bool   `json:"requiresApproval"`
	WaitlistEnabled  *bool  `json:"waitlistEnabled"`
}

type checkinRequest struct {
	Code string `json:"code" validate:"required,max=32"`
}

type checkinResponse struct {
	AttendeeName   string    `json:"attendeeName"`
	RegistrationID uuid.UUID `json:"registrationId"`
	CheckedInAt    time.Time `json:"checkedInAt"`
}

type createInvitationRequest struct {
	Channel string `json:"channel" validate:"required,max=64"`
}

type EventHandler struct {
	events    *services.EventService
	admission *services.AdmissionService
	checkin   *services.CheckinService
	invites   *services.InvitationService
	log       *slog.Logger
}

func NewEventHandler(events *services.EventService, admission *services.AdmissionService, checkin *services.CheckinService, invites *services.InvitationService, log *slog.Logger) *EventHandler {
	return &EventHandler{events: events, admission: admission, checkin: checkin, invites: invites, log: log}
}

// CreateEvent handles POST /events. The waitlist is on unless disabled.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	waitlist := true
	if req.WaitlistEnabled != nil {
		waitlist = *req.WaitlistEnabled
	}
	event, err := h.events.Create(r.Context(), services.CreateEventInput{
		Name:             req.Name,
		CapacityTotal:    req.CapacityTotal,
		RequiresApproval: req.RequiresApproval,
		WaitlistEnabled:  waitlist,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	event, err := h.events.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Capacity handles GET /events/{id}/capacity.
func (h *EventHandler) Capacity(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	c, err := h.admission.Capacity(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *EventHandler) Waitlist(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	list, err := h.admission.Waitlist(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if list == nil {
		list = []domain.Registration{}
	}
	writeJSON(w, http.StatusOK, list)
}

// CheckIn handles POST /events/{id}/checkin.
func (h *EventHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var req checkinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	reg, err := h.checkin.CheckIn(r.Context(), id, req.Code)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, checkinResponse{
		AttendeeName:   reg.DisplayName(),
		RegistrationID: reg.ID,
		CheckedInAt:    *reg.CheckedInAt,
	})
}

func (h *EventHandler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var req createInvitationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	inv, created, err := h.invites.Create(r.Context(), id, req.Channel, userFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, inv)
}

func (h *EventHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	list, err := h.invites.List(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if list == nil {
		list = []domain.InvitationCode{}
	}
	writeJSON(w, http.StatusOK, list)
}
