package response

type SlotsResponse struct {
	CoachID  string   `json:"coach_id"`
	Date     string   `json:"date"`
	DateOpen bool     `json:"date_open"`
	Slots    []string `json:"slots"`
}

type NextAvailableResponse struct {
	CoachID string `json:"coach_id"`
	Date    string `json:"date"`
}

// SlotConflictResponse is returned with 409 so the client can offer the
// remaining slots.
type SlotConflictResponse struct {
	CoachID   string   `json:"coach_id"`
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	Available []string `json:"available"`
}
