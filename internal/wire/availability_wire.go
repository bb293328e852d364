package wire

import (
	"fitness-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireAvailability(r chi.Router, availabilityHandler *adaptor.AvailabilityHandler) {
	r.Route("/coaches/{coachID}", func(r chi.Router) {
		r.Get("/slots", availabilityHandler.GetSlots)                  // ?date=2024-06-01
		r.Get("/next-available", availabilityHandler.GetNextAvailable) // first date with a free slot
	})
}
