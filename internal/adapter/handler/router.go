package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(events *EventHandler, registrations *RegistrationHandler, transfers *TransferHandler, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/events", func(r chi.Router) {
		r.Post("/", events.CreateEvent)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", events.GetEvent)
			r.Get("/capacity", events.Capacity)
			r.Get("/waitlist", events.Waitlist)
			r.Post("/checkin", events.CheckIn)
			r.Get("/invitations", events.ListInvitations)
			r.With(requireUser).Post("/invitations", events.CreateInvitation)
		})
	})

	r.Route("/registrations", func(r chi.Router) {
		r.Post("/", registrations.Register)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", registrations.GetRegistration)
			r.With(requireUser).Post("/cancel", registrations.Cancel)
			r.With(requireUser).Post("/approve", registrations.Approve)
			r.With(requireUser).Post("/reject", registrations.Reject)
		})
	})

	r.Route("/transfer-offers", func(r chi.Router) {
		r.With(requireUser).Post("/", transfers.CreateOffer)
		r.Get("/claim", transfers.ResolveClaim)
		r.Post("/claim", transfers.ClaimOffer)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", transfers.GetOffer)
			r.Post("/accept", transfers.AcceptOffer)
			r.With(requireUser).Post("/cancel", transfers.CancelOffer)
			r.With(requireUser).Get("/qr", transfers.QRCode)
		})
	})

	return r
}
