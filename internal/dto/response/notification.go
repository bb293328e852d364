package response

import (
	"time"

	"fitness-booking/internal/data/entity"
)

type ReminderResponse struct {
	HoursBefore int        `json:"hours_before"`
	Message     string     `json:"message"`
	IsSent      bool       `json:"is_sent"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
}

type PaymentDetailsResponse struct {
	Amount    float64            `json:"amount"`
	ItemName  string             `json:"item_name"`
	ItemType  string             `json:"item_type"`
	GymName   string             `json:"gym_name,omitempty"`
	Deadline  time.Time          `json:"deadline"`
	Settled   bool               `json:"settled"`
	Reminders []ReminderResponse `json:"reminders"`
}

type NotificationResponse struct {
	ID         string                  `json:"id"`
	Title      string                  `json:"title"`
	Message    string                  `json:"message"`
	Type       string                  `json:"type"`
	IsRead     bool                    `json:"is_read"`
	ActionType string                  `json:"action_type"`
	ActionData *entity.ActionData      `json:"action_data,omitempty"`
	Payment    *PaymentDetailsResponse `json:"payment,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}

type UnreadCountResponse struct {
	Unread int `json:"unread"`
}

func NotificationToResponse(n *entity.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:         n.ID.String(),
		Title:      n.Title,
		Message:    n.Message,
		Type:       string(n.Type),
		IsRead:     n.IsRead,
		ActionType: string(n.ActionType),
		ActionData: n.ActionData,
		CreatedAt:  n.CreatedAt,
	}

	if p := n.Payment; p != nil {
		reminders := make([]ReminderResponse, 0, len(p.Reminders))
		for _, r := range p.Reminders {
			reminders = append(reminders, ReminderResponse{
				HoursBefore: r.HoursBefore,
				Message:     r.Message,
				IsSent:      r.IsSent,
				SentAt:      r.SentAt,
			})
		}
		resp.Payment = &PaymentDetailsResponse{
			Amount:    p.Amount,
			ItemName:  p.ItemName,
			ItemType:  p.ItemType,
			GymName:   p.GymName,
			Deadline:  p.Deadline,
			Settled:   p.Settled,
			Reminders: reminders,
		}
	}
	return resp
}

func NotificationsToResponse(list []*entity.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, NotificationToResponse(n))
	}
	return out
}
