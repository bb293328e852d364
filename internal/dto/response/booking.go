package response

import (
	"time"

	"fitness-booking/internal/data/entity"
	"fitness-booking/pkg/utils"
)

type ProposalResponse struct {
	ID           string    `json:"id"`
	ProposedBy   string    `json:"proposed_by"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	Duration     int       `json:"duration"`
	LocationType string    `json:"location_type,omitempty"`
	GymID        string    `json:"gym_id,omitempty"`
	GymName      string    `json:"gym_name,omitempty"`
	Message      string    `json:"message"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type RatingResponse struct {
	UserRating    *int   `json:"user_rating,omitempty"`
	UserFeedback  string `json:"user_feedback,omitempty"`
	CoachRating   *int   `json:"coach_rating,omitempty"`
	CoachFeedback string `json:"coach_feedback,omitempty"`
	RatingGiven   bool   `json:"rating_given"`
}

type BookingResponse struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`

	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	UserAvatar string `json:"user_avatar,omitempty"`
	ProviderID string `json:"provider_id"`
	CoachID    string `json:"coach_id,omitempty"`
	CoachName  string `json:"coach_name,omitempty"`
	ClassID    string `json:"class_id,omitempty"`
	ClassName  string `json:"class_name,omitempty"`
	GymID      string `json:"gym_id"`
	GymName    string `json:"gym_name"`

	LocationType string `json:"location_type"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	EndTime      string `json:"end_time"`
	Duration     int    `json:"duration"`
	// DisplayDate is the long form shown in notifications, e.g. "Saturday, June 1, 2024".
	DisplayDate string `json:"display_date"`
	DisplayTime string `json:"display_time"`

	Price           float64    `json:"price"`
	PaymentMethod   string     `json:"payment_method"`
	PaymentStatus   string     `json:"payment_status"`
	PaymentDeadline *time.Time `json:"payment_deadline,omitempty"`

	Status           string            `json:"status"`
	Proposal         *ProposalResponse `json:"proposal,omitempty"`
	CancelReason     string            `json:"cancel_reason,omitempty"`
	MessagingEnabled bool              `json:"messaging_enabled"`
	Rating           RatingResponse    `json:"rating"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ProposalToResponse(p *entity.Proposal) *ProposalResponse {
	if p == nil {
		return nil
	}
	return &ProposalResponse{
		ID:           p.ID.String(),
		ProposedBy:   string(p.ProposedBy),
		Date:         p.Date,
		Time:         p.Time,
		Duration:     p.Duration,
		LocationType: string(p.LocationType),
		GymID:        p.GymID,
		GymName:      p.GymName,
		Message:      p.Message,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
	}
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:               b.ID.String(),
		Kind:             string(b.Kind),
		UserID:           b.UserID,
		UserName:         b.UserName,
		UserAvatar:       b.UserAvatar,
		ProviderID:       b.ProviderID(),
		CoachID:          b.CoachID,
		CoachName:        b.CoachName,
		ClassID:          b.ClassID,
		ClassName:        b.ClassName,
		GymID:            b.GymID,
		GymName:          b.GymName,
		LocationType:     string(b.LocationType),
		Date:             b.Date,
		Time:             b.Time,
		EndTime:          b.EndTime,
		Duration:         b.Duration,
		DisplayDate:      utils.HumanDate(b.Date),
		DisplayTime:      utils.HumanTime(b.Time),
		Price:            b.Price,
		PaymentMethod:    string(b.PaymentMethod),
		PaymentStatus:    string(b.PaymentStatus),
		PaymentDeadline:  b.PaymentDeadline,
		Status:           string(b.Status),
		Proposal:         ProposalToResponse(b.Proposal),
		CancelReason:     b.CancelReason,
		MessagingEnabled: b.MessagingEnabled,
		Rating: RatingResponse{
			UserRating:    b.UserRating,
			UserFeedback:  b.UserFeedback,
			CoachRating:   b.CoachRating,
			CoachFeedback: b.CoachFeedback,
			RatingGiven:   b.RatingGiven,
		},
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func BookingsToResponse(bookings []*entity.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, BookingToResponse(b))
	}
	return out
}

type ParticipantsResponse struct {
	ClassID string `json:"class_id"`
	Current int    `json:"current"`
	Max     int    `json:"max"`
	IsFull  bool   `json:"is_full"`
}
