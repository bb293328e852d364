package wire

import (
	"fitness-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireNotification(r chi.Router, notificationHandler *adaptor.NotificationHandler) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", notificationHandler.List)
		r.Delete("/", notificationHandler.ClearAll)
		r.Get("/unread-count", notificationHandler.UnreadCount)
		r.Put("/read-all", notificationHandler.MarkAllAsRead)
		r.Post("/payment", notificationHandler.AddPaymentNotification)
		r.Put("/system-permission", notificationHandler.SetSystemPermission)
		r.Put("/{id}/read", notificationHandler.MarkAsRead)
		r.Delete("/{id}", notificationHandler.Delete)
	})
}
