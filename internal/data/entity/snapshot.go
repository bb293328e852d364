package entity

// Snapshot is everything persisted for one owner: the bookings they are a
// party to, the chat threads of those bookings and their notification feed.
type Snapshot struct {
	OwnerID       string            `json:"owner_id"`
	Bookings      []*Booking        `json:"bookings"`
	Messages      []*BookingMessage `json:"messages"`
	Notifications []*Notification   `json:"notifications"`
}
