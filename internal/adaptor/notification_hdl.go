package adaptor

import (
	"net/http"

	"fitness-booking/internal/dto/request"
	"fitness-booking/internal/dto/response"
	"fitness-booking/internal/usecase"
	"fitness-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	service usecase.NotificationService
	log     *zap.Logger
}

func NewNotificationHandler(service usecase.NotificationService, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		log:     log.With(zap.String("handler", "notification")),
	}
}

// List handles GET /api/notifications?page=1&per_page=20, newest first
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	page := paginationFrom(r)
	if errs := utils.ValidateStruct(page); len(errs) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", errs)
		return
	}

	list, err := h.service.List(r.Context(), caller)
	if err != nil {
		handleServiceError(w, h.log, err, "list notifications")
		return
	}

	utils.ResponseSuccess(w, "success", paginate(response.NotificationsToResponse(list), page))
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	count, err := h.service.UnreadCount(r.Context(), caller)
	if err != nil {
		handleServiceError(w, h.log, err, "count unread notifications")
		return
	}

	utils.ResponseSuccess(w, "success", response.UnreadCountResponse{Unread: count})
}

// MarkAsRead handles PUT /api/notifications/{id}/read
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	err := h.service.MarkAsRead(r.Context(), caller, chi.URLParam(r, "id"))
	respond(w, h.log, "mark notification read", http.StatusOK, nil, err)
}

// MarkAllAsRead handles PUT /api/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	err := h.service.MarkAllAsRead(r.Context(), caller)
	respond(w, h.log, "mark all notifications read", http.StatusOK, nil, err)
}

// Delete handles DELETE /api/notifications/{id}
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	err := h.service.DeleteNotification(r.Context(), caller, chi.URLParam(r, "id"))
	respond(w, h.log, "delete notification", http.StatusOK, nil, err)
}

// ClearAll handles DELETE /api/notifications
func (h *NotificationHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	err := h.service.ClearAll(r.Context(), caller)
	respond(w, h.log, "clear notifications", http.StatusOK, nil, err)
}

// AddPaymentNotification handles POST /api/notifications/payment. The
// notification goes to the caller's own feed.
func (h *NotificationHandler) AddPaymentNotification(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.PaymentNotificationRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	n, _, err := h.service.AddPaymentNotification(r.Context(), caller.ID, &req)
	if failed(err) {
		handleServiceError(w, h.log, err, "add payment notification")
		return
	}

	respond(w, h.log, "add payment notification", http.StatusCreated, response.NotificationToResponse(n), err)
}

// SetSystemPermission handles PUT /api/notifications/system-permission
func (h *NotificationHandler) SetSystemPermission(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.SystemPermissionRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", errs)
		return
	}

	if err := h.service.SetSystemPermission(r.Context(), caller, *req.Granted); err != nil {
		handleServiceError(w, h.log, err, "set system permission")
		return
	}

	utils.ResponseSuccess(w, "success", map[string]bool{"granted": *req.Granted})
}
