package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingKind string

const (
	BookingKindPrivateSession BookingKind = "private_session"
	BookingKindClass          BookingKind = "class"
	BookingKindProgram        BookingKind = "program"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusModified  BookingStatus = "modified"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusRejected  BookingStatus = "rejected"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusHeld      PaymentStatus = "held"
	PaymentStatusReleased  PaymentStatus = "released"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodPayAtGym PaymentMethod = "pay_at_gym"
)

type LocationType string

const (
	LocationInPerson LocationType = "in_person"
	LocationOnline   LocationType = "online"
	LocationHybrid   LocationType = "hybrid"
)

type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusAccepted ProposalStatus = "accepted"
	ProposalStatusRejected ProposalStatus = "rejected"
)

// Proposal is a requested change to a booking's schedule or location.
// It lives inside its booking; PriorStatus is what a rejection reverts to.
type Proposal struct {
	ID           uuid.UUID      `json:"id"`
	ProposedBy   Party          `json:"proposed_by"`
	Date         string         `json:"date"`
	Time         string         `json:"time"`
	Duration     int            `json:"duration"`
	LocationType LocationType   `json:"location_type,omitempty"`
	GymID        string         `json:"gym_id,omitempty"`
	GymName      string         `json:"gym_name,omitempty"`
	Message      string         `json:"message"`
	Status       ProposalStatus `json:"status"`
	PriorStatus  BookingStatus  `json:"prior_status"`
	CreatedAt    time.Time      `json:"created_at"`
}

type Booking struct {
	Base
	Kind BookingKind `json:"kind"`

	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	UserAvatar string `json:"user_avatar,omitempty"`

	CoachID   string `json:"coach_id,omitempty"`
	CoachName string `json:"coach_name,omitempty"`
	ClassID   string `json:"class_id,omitempty"`
	ClassName string `json:"class_name,omitempty"`

	GymID        string       `json:"gym_id"`
	GymName      string       `json:"gym_name"`
	LocationType LocationType `json:"location_type"`

	Date     string `json:"date"` // 2006-01-02
	Time     string `json:"time"` // 15:04
	Duration int    `json:"duration"`
	EndTime  string `json:"end_time"`

	Price           float64       `json:"price"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	PaymentDeadline *time.Time    `json:"payment_deadline,omitempty"`

	Status       BookingStatus `json:"status"`
	Proposal     *Proposal     `json:"proposal,omitempty"`
	CancelReason string        `json:"cancel_reason,omitempty"`
	// AutoConfirm records whether the requester allowed skipping approval.
	AutoConfirm bool `json:"auto_confirm"`

	MessagingEnabled bool   `json:"messaging_enabled"`
	UserRating       *int   `json:"user_rating,omitempty"`
	UserFeedback     string `json:"user_feedback,omitempty"`
	CoachRating      *int   `json:"coach_rating,omitempty"`
	CoachFeedback    string `json:"coach_feedback,omitempty"`
	RatingGiven      bool   `json:"rating_given"`
}

// ProviderID is the coach for private sessions and the gym otherwise.
func (b *Booking) ProviderID() string {
	if b.Kind == BookingKindPrivateSession {
		return b.CoachID
	}
	return b.GymID
}

func (b *Booking) ProviderName() string {
	if b.Kind == BookingKindPrivateSession {
		return b.CoachName
	}
	return b.GymName
}

// HoldsSlot reports whether the booking still occupies its time range.
func (b *Booking) HoldsSlot() bool {
	return b.Status != BookingStatusCancelled && b.Status != BookingStatusRejected
}

func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusRejected:
		return true
	}
	return false
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	if b.PaymentDeadline != nil {
		d := *b.PaymentDeadline
		c.PaymentDeadline = &d
	}
	if b.Proposal != nil {
		p := *b.Proposal
		c.Proposal = &p
	}
	if b.UserRating != nil {
		r := *b.UserRating
		c.UserRating = &r
	}
	if b.CoachRating != nil {
		r := *b.CoachRating
		c.CoachRating = &r
	}
	return &c
}
