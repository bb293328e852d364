package wire

import (
	"fitness-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(r chi.Router, bookingHandler *adaptor.BookingHandler, chatHandler *adaptor.ChatHandler) {
	r.Get("/classes/{classID}/participants", bookingHandler.GetClassParticipants)

	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", bookingHandler.CreateBooking)
		r.Get("/", bookingHandler.ListBookings) // ?status=pending&page=1&per_page=20

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", bookingHandler.GetBooking)
			r.Put("/status", bookingHandler.UpdateStatus)
			r.Post("/cancel", bookingHandler.CancelBooking)

			// Change proposals
			r.Post("/proposals", bookingHandler.SubmitProposal)
			r.Post("/proposals/{proposalID}/respond", bookingHandler.RespondToProposal)

			r.Post("/complete", bookingHandler.CompleteSession)
			r.Post("/ratings", bookingHandler.SubmitRating)

			// Payment status only, no money moves here
			r.Post("/payment/confirm", bookingHandler.ConfirmPayment)
			r.Post("/payment/release", bookingHandler.ReleasePayment)
			r.Post("/payment/refund", bookingHandler.RefundPayment)

			wireChat(r, chatHandler)
		})
	})
}
