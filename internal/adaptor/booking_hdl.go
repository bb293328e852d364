package adaptor

import (
	"context"
	"net/http"

	"fitness-booking/internal/data/entity"
	"fitness-booking/internal/dto/request"
	"fitness-booking/internal/dto/response"
	"fitness-booking/internal/usecase"
	"fitness-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), caller, &req)
	if failed(err) {
		handleServiceError(w, h.log, err, "create booking")
		return
	}

	respond(w, h.log, "create booking", http.StatusCreated, response.BookingToResponse(booking), err)
}

// ListBookings handles GET /api/bookings?status=pending&page=1&per_page=20
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
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

	status := entity.BookingStatus(r.URL.Query().Get("status"))
	bookings, err := h.service.GetBookingsByStatus(r.Context(), caller, status)
	if err != nil {
		handleServiceError(w, h.log, err, "list bookings")
		return
	}

	utils.ResponseSuccess(w, "success", paginate(response.BookingsToResponse(bookings), page))
}

// GetBooking handles GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	booking, err := h.service.GetBookingByID(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", response.BookingToResponse(booking))
}

// UpdateStatus handles PUT /api/bookings/{id}/status
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", errs)
		return
	}

	booking, err := h.service.UpdateBookingStatus(r.Context(), caller, chi.URLParam(r, "id"), entity.BookingStatus(req.Status))
	h.writeBooking(w, "update booking status", booking, err)
}

// CancelBooking handles POST /api/bookings/{id}/cancel. The body is optional.
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CancelBookingRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			utils.ResponseBadRequest(w, "Invalid request body", nil)
			return
		}
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", errs)
		return
	}

	booking, err := h.service.CancelBooking(r.Context(), caller, chi.URLParam(r, "id"), req.Reason)
	h.writeBooking(w, "cancel booking", booking, err)
}

// SubmitProposal handles POST /api/bookings/{id}/proposals
func (h *BookingHandler) SubmitProposal(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.ProposalRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.SubmitProposal(r.Context(), caller, chi.URLParam(r, "id"), &req)
	h.writeBooking(w, "submit proposal", booking, err)
}

// RespondToProposal handles POST /api/bookings/{id}/proposals/{proposalID}/respond
func (h *BookingHandler) RespondToProposal(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.RespondProposalRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", errs)
		return
	}

	booking, err := h.service.RespondToProposal(r.Context(), caller,
		chi.URLParam(r, "id"), chi.URLParam(r, "proposalID"), *req.Accept, req.Message)
	h.writeBooking(w, "respond to proposal", booking, err)
}

// CompleteSession handles POST /api/bookings/{id}/complete
func (h *BookingHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	h.simpleAction(w, r, "complete session", h.service.MarkSessionAsCompleted)
}

// ConfirmPayment handles POST /api/bookings/{id}/payment/confirm
func (h *BookingHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	h.simpleAction(w, r, "confirm payment", h.service.ConfirmPayment)
}

// ReleasePayment handles POST /api/bookings/{id}/payment/release
func (h *BookingHandler) ReleasePayment(w http.ResponseWriter, r *http.Request) {
	h.simpleAction(w, r, "release payment", h.service.ReleasePayment)
}

// RefundPayment handles POST /api/bookings/{id}/payment/refund
func (h *BookingHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	h.simpleAction(w, r, "refund payment", h.service.RefundPayment)
}

// SubmitRating handles POST /api/bookings/{id}/ratings
func (h *BookingHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.RatingRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.SubmitRating(r.Context(), caller, chi.URLParam(r, "id"), &req)
	h.writeBooking(w, "submit rating", booking, err)
}

// GetClassParticipants handles GET /api/classes/{classID}/participants
func (h *BookingHandler) GetClassParticipants(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classID")

	current, capacity, err := h.service.ClassParticipants(r.Context(), classID)
	if err != nil {
		handleServiceError(w, h.log, err, "get class participants")
		return
	}

	utils.ResponseSuccess(w, "success", response.ParticipantsResponse{
		ClassID: classID,
		Current: current,
		Max:     capacity,
		IsFull:  current >= capacity,
	})
}

type bookingAction func(ctx context.Context, caller entity.Caller, id string) (*entity.Booking, error)

// simpleAction runs a body-less booking operation on {id}.
func (h *BookingHandler) simpleAction(w http.ResponseWriter, r *http.Request, operation string, action bookingAction) {
	caller, ok := utils.GetCallerFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	booking, err := action(r.Context(), caller, chi.URLParam(r, "id"))
	h.writeBooking(w, operation, booking, err)
}

func (h *BookingHandler) writeBooking(w http.ResponseWriter, operation string, booking *entity.Booking, err error) {
	if failed(err) {
		handleServiceError(w, h.log, err, operation)
		return
	}
	respond(w, h.log, operation, http.StatusOK, response.BookingToResponse(booking), err)
}
