package wire

import (
	"fitness-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// wireChat mounts the message thread under /api/bookings/{id}
func wireChat(r chi.Router, chatHandler *adaptor.ChatHandler) {
	r.Get("/messages", chatHandler.GetMessages)
	r.Post("/messages", chatHandler.SendMessage)
	r.Put("/messages/read", chatHandler.MarkAsRead)
	r.Put("/messaging", chatHandler.ToggleMessaging)
}
