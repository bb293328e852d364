package entity

import "github.com/google/uuid"

// BookingMessage is an append-only chat entry scoped to one booking.
type BookingMessage struct {
	BaseSimple
	BookingID    uuid.UUID `json:"booking_id"`
	SenderID     string    `json:"sender_id"`
	SenderName   string    `json:"sender_name"`
	SenderAvatar string    `json:"sender_avatar,omitempty"`
	Content      string    `json:"content"`
	IsRead       bool      `json:"is_read"`
}
