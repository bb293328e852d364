package request

type CreateBookingRequest struct {
	Kind          string `json:"kind" validate:"required,oneof=private_session class program"`
	CoachID       string `json:"coach_id" validate:"required_if=Kind private_session"`
	ClassID       string `json:"class_id"`
	GymID         string `json:"gym_id" validate:"required"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	Time          string `json:"time" validate:"required,datetime=15:04"`
	Duration      int    `json:"duration" validate:"required,gte=15,lte=480"`
	LocationType  string `json:"location_type" validate:"omitempty,oneof=in_person online hybrid"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=card pay_at_gym"`
	// AutoConfirm=false forces the request through provider approval.
	AutoConfirm *bool `json:"auto_confirm,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed rejected cancelled"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ProposalRequest carries only the fields being changed.
type ProposalRequest struct {
	Date         string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time         string `json:"time" validate:"omitempty,datetime=15:04"`
	Duration     int    `json:"duration" validate:"omitempty,gte=15,lte=480"`
	LocationType string `json:"location_type" validate:"omitempty,oneof=in_person online hybrid"`
	GymID        string `json:"gym_id"`
	Message      string `json:"message" validate:"required,max=1000"`
}

func (r ProposalRequest) HasChanges() bool {
	return r.Date != "" || r.Time != "" || r.Duration != 0 || r.LocationType != "" || r.GymID != ""
}

type RespondProposalRequest struct {
	Accept  *bool  `json:"accept" validate:"required"`
	Message string `json:"message" validate:"max=1000"`
}

type RatingRequest struct {
	Rating   int    `json:"rating" validate:"required,gte=1,lte=5"`
	Feedback string `json:"feedback" validate:"max=2000"`
}
