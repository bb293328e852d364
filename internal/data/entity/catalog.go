package entity

type Gym struct {
	ID      string `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Address string `db:"address" json:"address"`
}

type Coach struct {
	ID         string  `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	Avatar     string  `db:"avatar" json:"avatar,omitempty"`
	GymID      string  `db:"gym_id" json:"gym_id"`
	HourlyRate float64 `db:"hourly_rate" json:"hourly_rate"`
}

// Class covers both classes and programs; capacity drives auto-confirm.
type Class struct {
	ID                  string      `db:"id" json:"id"`
	GymID               string      `db:"gym_id" json:"gym_id"`
	Name                string      `db:"name" json:"name"`
	Kind                BookingKind `db:"kind" json:"kind"`
	Price               float64     `db:"price" json:"price"`
	MaxParticipants     int         `db:"max_participants" json:"max_participants"`
	CurrentParticipants int         `db:"current_participants" json:"current_participants"`
}
