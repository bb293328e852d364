package entity

import "time"

type NotificationType string

const (
	NotificationSystem   NotificationType = "system"
	NotificationClass    NotificationType = "class"
	NotificationProgram  NotificationType = "program"
	NotificationBooking  NotificationType = "booking"
	NotificationOrder    NotificationType = "order"
	NotificationPayment  NotificationType = "payment"
	NotificationMessage  NotificationType = "message"
	NotificationReminder NotificationType = "reminder"
)

type ActionType string

const (
	ActionNavigate ActionType = "navigate"
	ActionModal    ActionType = "modal"
	ActionNone     ActionType = "none"
)

type ActionData struct {
	Route    string            `json:"route,omitempty"`
	Modal    string            `json:"modal,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type Reminder struct {
	HoursBefore int        `json:"hours_before"`
	Message     string     `json:"message"`
	IsSent      bool       `json:"is_sent"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
}

// FireAt is the wall-clock moment the reminder is due.
func (r Reminder) FireAt(deadline time.Time) time.Time {
	return deadline.Add(-time.Duration(r.HoursBefore) * time.Hour)
}

type PaymentDetails struct {
	Amount    float64    `json:"amount"`
	ItemName  string     `json:"item_name"`
	ItemType  string     `json:"item_type"`
	GymName   string     `json:"gym_name,omitempty"`
	Deadline  time.Time  `json:"deadline"`
	Reminders []Reminder `json:"reminders"`
	// Settled is set once the payment is resolved; unsent reminders are dropped.
	Settled bool `json:"settled"`
}

type Notification struct {
	BaseSimple
	UserID     string           `json:"user_id"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Type       NotificationType `json:"type"`
	IsRead     bool             `json:"is_read"`
	ActionType ActionType       `json:"action_type,omitempty"`
	ActionData *ActionData      `json:"action_data,omitempty"`
	Payment    *PaymentDetails  `json:"payment,omitempty"`
}

func (n *Notification) Clone() *Notification {
	if n == nil {
		return nil
	}
	c := *n
	if n.ActionData != nil {
		ad := *n.ActionData
		if n.ActionData.Metadata != nil {
			ad.Metadata = make(map[string]string, len(n.ActionData.Metadata))
			for k, v := range n.ActionData.Metadata {
				ad.Metadata[k] = v
			}
		}
		c.ActionData = &ad
	}
	if n.Payment != nil {
		p := *n.Payment
		p.Reminders = make([]Reminder, len(n.Payment.Reminders))
		for i, r := range n.Payment.Reminders {
			if r.SentAt != nil {
				at := *r.SentAt
				r.SentAt = &at
			}
			p.Reminders[i] = r
		}
		c.Payment = &p
	}
	return &c
}
