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

type ChatHandler struct {
	service usecase.ChatService
	log     *zap.Logger
}

func NewChatHandler(service usecase.ChatService, log *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		log:     log.With(zap.String("handler", "chat")),
	}
}

// GetMessages handles GET /api/bookings/{id}/messages
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	messages, err := h.service.GetMessages(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get messages")
		return
	}

	utils.ResponseSuccess(w, "success", response.MessagesToResponse(messages))
}

// SendMessage handles POST /api/bookings/{id}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	message, err := h.service.SendMessage(r.Context(), caller, chi.URLParam(r, "id"), &req)
	if failed(err) {
		handleServiceError(w, h.log, err, "send message")
		return
	}

	respond(w, h.log, "send message", http.StatusCreated, response.MessageToResponse(message), err)
}

// MarkAsRead handles PUT /api/bookings/{id}/messages/read
func (h *ChatHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	updated, err := h.service.MarkMessagesAsRead(r.Context(), caller, chi.URLParam(r, "id"))
	if failed(err) {
		handleServiceError(w, h.log, err, "mark messages read")
		return
	}

	respond(w, h.log, "mark messages read", http.StatusOK, response.MarkReadResponse{Updated: updated}, err)
}

// ToggleMessaging handles PUT /api/bookings/{id}/messaging
func (h *ChatHandler) ToggleMessaging(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.ToggleMessagingRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", errs)
		return
	}

	booking, err := h.service.ToggleMessaging(r.Context(), caller, chi.URLParam(r, "id"), *req.Enabled)
	if failed(err) {
		handleServiceError(w, h.log, err, "toggle messaging")
		return
	}

	respond(w, h.log, "toggle messaging", http.StatusOK, response.BookingToResponse(booking), err)
}
