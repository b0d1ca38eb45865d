package appointment

import "fmt"

// DisplayPrefix is prepended to the zero-padded appointment id.
const DisplayPrefix = "APT"

// Known status values. The backend may send others.
const (
	StatusBooked    = "Booked"
	StatusCancelled = "Cancelled"
)

// Appointment mirrors one entry of the backend's /appointments collection.
type Appointment struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"user_id"`
	Purpose         string `json:"purpose"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	Status          string `json:"status"`
}

// DisplayID renders the id as APT followed by at least three digits.
func (a Appointment) DisplayID() string {
	return fmt.Sprintf("%s%03d", DisplayPrefix, a.ID)
}

// Badge maps the status onto a badge style.
func (a Appointment) Badge() string {
	switch a.Status {
	case StatusBooked:
		return "success"
	case StatusCancelled:
		return "danger"
	default:
		return "neutral"
	}
}

// Counts holds the dashboard aggregates.
type Counts struct {
	Total     int `json:"total"`
	Booked    int `json:"booked"`
	Cancelled int `json:"cancelled"`
}

// Tally counts appointments by exact status match; other statuses only add to Total.
func Tally(items []Appointment) Counts {
	counts := Counts{Total: len(items)}
	for _, item := range items {
		switch item.Status {
		case StatusBooked:
			counts.Booked++
		case StatusCancelled:
			counts.Cancelled++
		}
	}
	return counts
}
