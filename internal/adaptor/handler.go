package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"fitness-booking/internal/dto/request"
	"fitness-booking/internal/dto/response"
	"fitness-booking/internal/usecase"
	"fitness-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Availability *AvailabilityHandler
	Booking      *BookingHandler
	Chat         *ChatHandler
	Notification *NotificationHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Availability: NewAvailabilityHandler(service.Availability, log),
		Booking:      NewBookingHandler(service.Booking, log),
		Chat:         NewChatHandler(service.Chat, log),
		Notification: NewNotificationHandler(service.Notification, log),
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// failed reports whether err should stop the handler. A change that was
// applied but not persisted still has a result to return.
func failed(err error) bool {
	return err != nil && !errors.Is(err, usecase.ErrNotDurable)
}

// respond writes data with code, or 202 when the change is not durable yet.
func respond(w http.ResponseWriter, log *zap.Logger, operation string, code int, data any, err error) {
	if err != nil {
		if errors.Is(err, usecase.ErrNotDurable) {
			log.Warn(operation+" applied but not persisted",
				zap.Error(err),
				zap.String("operation", operation))
			utils.ResponseAccepted(w, "Change applied, persistence pending", data)
			return
		}
		handleServiceError(w, log, err, operation)
		return
	}
	utils.ResponseJSON(w, code, true, "success", data, nil)
}

// paginationFrom reads page and per_page from the query string.
func paginationFrom(r *http.Request) request.PaginatedRequest {
	query := r.URL.Query()
	return request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 20),
	}
}

func paginate[T any](items []T, req request.PaginatedRequest) *response.PaginatedResponse[T] {
	total := len(items)
	start := req.Offset()
	if start > total {
		start = total
	}
	end := start + req.Limit()
	if end > total {
		end = total
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	return response.NewPaginatedResponse(items[start:end], page, req.Limit(), int64(total))
}

// handleServiceError maps usecase errors to HTTP responses
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var validationErr *usecase.ValidationError
	var conflictErr *usecase.SlotConflictError

	switch {
	case errors.As(err, &validationErr):
		log.Warn(operation+" validation failed",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, "Validation failed", validationErr.Fields)

	case errors.As(err, &conflictErr):
		log.Warn(operation+" failed - slot taken",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseConflict(w, err.Error(), response.SlotConflictResponse{
			CoachID:   conflictErr.CoachID,
			Date:      conflictErr.Date,
			Time:      conflictErr.Time,
			Available: conflictErr.Available,
		})

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrUnauthenticated):
		utils.ResponseUnauthorized(w, "Authentication required")

	case errors.Is(err, usecase.ErrForbidden):
		log.Warn(operation+" failed - forbidden",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, usecase.ErrInvalidTransition), errors.Is(err, usecase.ErrSlotConflict):
		log.Warn(operation+" failed - invalid state",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseConflict(w, err.Error(), nil)

	default:
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
