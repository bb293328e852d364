package response

import (
	"time"

	"fitness-booking/internal/data/entity"
)

type MessageResponse struct {
	ID           string    `json:"id"`
	BookingID    string    `json:"booking_id"`
	SenderID     string    `json:"sender_id"`
	SenderName   string    `json:"sender_name"`
	SenderAvatar string    `json:"sender_avatar,omitempty"`
	Content      string    `json:"content"`
	IsRead       bool      `json:"is_read"`
	CreatedAt    time.Time `json:"created_at"`
}

type MarkReadResponse struct {
	Updated int `json:"updated"`
}

func MessageToResponse(m *entity.BookingMessage) MessageResponse {
	return MessageResponse{
		ID:           m.ID.String(),
		BookingID:    m.BookingID.String(),
		SenderID:     m.SenderID,
		SenderName:   m.SenderName,
		SenderAvatar: m.SenderAvatar,
		Content:      m.Content,
		IsRead:       m.IsRead,
		CreatedAt:    m.CreatedAt,
	}
}

func MessagesToResponse(messages []*entity.BookingMessage) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, MessageToResponse(m))
	}
	return out
}
