package request

import "time"

type NotificationRequest struct {
	Title      string            `json:"title" validate:"required,max=200"`
	Message    string            `json:"message" validate:"required,max=2000"`
	Type       string            `json:"type" validate:"required,oneof=system class program booking order payment message reminder"`
	ActionType string            `json:"action_type" validate:"omitempty,oneof=navigate modal none"`
	Route      string            `json:"route"`
	Modal      string            `json:"modal"`
	Metadata   map[string]string `json:"metadata"`
}

// PaymentNotificationRequest describes an upfront payment the user still
// owes. Deadline defaults by item type when omitted.
type PaymentNotificationRequest struct {
	Amount   float64           `json:"amount" validate:"gte=0"`
	ItemName string            `json:"item_name" validate:"required,max=200"`
	ItemType string            `json:"item_type" validate:"required,oneof=class program private_session product subscription"`
	GymName  string            `json:"gym_name"`
	Deadline *time.Time        `json:"deadline,omitempty"`
	Route    string            `json:"route"`
	Metadata map[string]string `json:"metadata"`
}

type SystemPermissionRequest struct {
	Granted *bool `json:"granted" validate:"required"`
}
