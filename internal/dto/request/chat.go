package request

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type ToggleMessagingRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}
