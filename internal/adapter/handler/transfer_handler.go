package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/srgjo27/eventpass/internal/core/domain"
	"github.com/srgjo27/eventpass/internal/core/services"
	"github.com/yeqown/go-qrcode"
)

type createOfferRequest struct {
	RegistrationID string `json:"registrationId" validate:"required,uuid"`
}

type acceptOfferRequest struct {
	ToUserID     string `json:"toUserId" validate:"required,max=128"`
	AttendeeName string `json:"attendeeName" validate:"max=200"`
}

type claimOfferRequest struct {
	Code         string `json:"code" validate:"required,max=32"`
	ToUserID     string `json:"toUserId" validate:"required,max=128"`
	AttendeeName string `json:"attendeeName" validate:"max=200"`
}

type TransferHandler struct {
	transfer      *services.TransferService
	publicBaseURL string
	log           *slog.Logger
}

func NewTransferHandler(transfer *services.TransferService, publicBaseURL string, log *slog.Logger) *TransferHandler {
	return &TransferHandler{transfer: transfer, publicBaseURL: publicBaseURL, log: log}
}

// CreateOffer handles POST /transfer-offers on behalf of the X-User-ID holder.
func (h *TransferHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var req createOfferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	offer, err := h.transfer.CreateOffer(r.Context(), uuid.MustParse(req.RegistrationID), userFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, offer)
}

// GetOffer shows the claim code to the offering holder only.
func (h *TransferHandler) GetOffer(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	offer, err := h.transfer.GetOffer(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if r.Header.Get(UserHeader) != offer.FromUserID {
		offer.Code = ""
	}
	writeJSON(w, http.StatusOK, offer)
}

// AcceptOffer handles POST /transfer-offers/{id}/accept.
func (h *TransferHandler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var req acceptOfferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	reg, err := h.transfer.AcceptOffer(r.Context(), id, req.ToUserID, req.AttendeeName)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// ResolveClaim handles GET /transfer-offers/claim?code=..., the target of
// the claim link and its QR code. The code itself is not echoed back.
func (h *TransferHandler) ResolveClaim(w http.ResponseWriter, r *http.Request) {
	offer, err := h.transfer.GetOfferByCode(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	offer.Code = ""
	writeJSON(w, http.StatusOK, offer)
}

func (h *TransferHandler) ClaimOffer(w http.ResponseWriter, r *http.Request) {
	var req claimOfferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	reg, err := h.transfer.ClaimByCode(r.Context(), req.Code, req.ToUserID, req.AttendeeName)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

func (h *TransferHandler) CancelOffer(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	offer, err := h.transfer.CancelOffer(r.Context(), id, userFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

// QRCode renders the claim link of a pending offer as a JPEG for the holder
// to show on screen.
func (h *TransferHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	offer, err := h.transfer.GetOffer(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	switch {
	case offer.FromUserID != userFrom(r.Context()):
		writeError(w, r, h.log, domain.ErrNotOwner)
		return
	case offer.Status == domain.OfferExpired:
		writeError(w, r, h.log, domain.ErrExpired)
		return
	case offer.Status != domain.OfferPending:
		writeError(w, r, h.log, domain.ErrNotPending)
		return
	}

	qrc, err := qrcode.New(h.ClaimLink(offer.Code))
	if err != nil {
		writeError(w, r, h.log, fmt.Errorf("render qr: %w", err))
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	if err := qrc.SaveTo(w); err != nil {
		h.log.WarnContext(r.Context(), "qr write failed", "offer_id", offer.ID, "error", err)
	}
}

func (h *TransferHandler) ClaimLink(code string) string {
	return h.publicBaseURL + "/transfer-offers/claim?code=" + url.QueryEscape(code)
}
