package entity

type UserRole string

const (
	RoleClient UserRole = "client"
	RoleCoach  UserRole = "coach"
	RoleGym    UserRole = "gym"
	RoleBrand  UserRole = "brand"
	RoleAdmin  UserRole = "admin"
)

// Caller is the identity supplied by the auth/session layer for every
// mutating operation. Role is informational only; booking permissions are
// derived from the caller's relation to the booking.
type Caller struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Avatar string   `json:"avatar,omitempty"`
	Role   UserRole `json:"role,omitempty"`
}

func (c Caller) IsAnonymous() bool {
	return c.ID == ""
}

// Party is a caller's side of a booking.
type Party string

const (
	PartyRequester Party = "user"
	PartyProvider  Party = "coach"
)

func (p Party) Other() Party {
	if p == PartyRequester {
		return PartyProvider
	}
	return PartyRequester
}
