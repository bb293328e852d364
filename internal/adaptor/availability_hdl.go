package adaptor

import (
	"net/http"

	"fitness-booking/internal/dto/response"
	"fitness-booking/internal/usecase"
	"fitness-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AvailabilityHandler struct {
	service usecase.AvailabilityService
	log     *zap.Logger
}

func NewAvailabilityHandler(service usecase.AvailabilityService, log *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log.With(zap.String("handler", "availability")),
	}
}

// GetSlots handles GET /api/coaches/{coachID}/slots?date=2024-06-01
func (h *AvailabilityHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	coachID := chi.URLParam(r, "coachID")
	date := r.URL.Query().Get("date")
	if date == "" {
		utils.ResponseBadRequest(w, "Query parameter date is required", map[string]string{"date": "This field is required"})
		return
	}

	slots, err := h.service.AvailableSlots(r.Context(), coachID, date)
	if err != nil {
		handleServiceError(w, h.log, err, "get available slots")
		return
	}

	utils.ResponseSuccess(w, "success", response.SlotsResponse{
		CoachID:  coachID,
		Date:     date,
		DateOpen: h.service.IsDateAvailable(r.Context(), coachID, date),
		Slots:    slots,
	})
}

// GetNextAvailable handles GET /api/coaches/{coachID}/next-available
func (h *AvailabilityHandler) GetNextAvailable(w http.ResponseWriter, r *http.Request) {
	coachID := chi.URLParam(r, "coachID")

	date, err := h.service.NextAvailableDate(r.Context(), coachID)
	if err != nil {
		handleServiceError(w, h.log, err, "get next available date")
		return
	}

	utils.ResponseSuccess(w, "success", response.NextAvailableResponse{CoachID: coachID, Date: date})
}
