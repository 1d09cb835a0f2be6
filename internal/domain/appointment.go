package domain

import (
	"context"
	"time"
)

// Appointment is a booked time range between a doctor and a client.
// Appointments are never removed; deletion clears Active.
type Appointment struct {
	BaseModel
	Start    time.Time `gorm:"column:start_at;not null;index" json:"start"`
	End      time.Time `gorm:"column:end_at;not null;index" json:"end"`
	DoctorID uint      `gorm:"not null;index" json:"doctor_id"`
	ClientID uint      `gorm:"not null;index" json:"client_id"`
	Active   bool      `gorm:"not null;default:true;index" json:"active"`

	Doctor *User `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Client *User `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

// HasParticipant reports whether userID is the doctor or the client.
func (a *Appointment) HasParticipant(userID uint) bool {
	return a.DoctorID == userID || a.ClientID == userID
}

// AppointmentInput is the payload for booking an appointment.
// All fields are required; pointers distinguish absent from zero.
type AppointmentInput struct {
	Start    *time.Time
	End      *time.Time
	DoctorID *uint
	ClientID *uint
}

// Validate returns ErrMissingData when a required field is absent.
func (in AppointmentInput) Validate() error {
	if in.Start == nil || in.Start.IsZero() ||
		in.End == nil || in.End.IsZero() ||
		in.DoctorID == nil || *in.DoctorID == 0 ||
		in.ClientID == nil || *in.ClientID == 0 {
		return ErrMissingData
	}
	return nil
}

// AppointmentPatch carries the mutable fields of an appointment.
// Nil fields keep their current value.
type AppointmentPatch struct {
	Start    *time.Time
	End      *time.Time
	DoctorID *uint
}

// AppointmentFilter narrows a participant's listing to a time range.
//
// Only Start set: appointments ending at or after Start.
// Only End set: appointments starting at or before End.
// Both set: appointments intersecting [Start, End], bounds inclusive.
type AppointmentFilter struct {
	Start *time.Time
	End   *time.Time
}

// AppointmentRepository defines the data access interface for appointments.
//
// CreateNoOverlap and UpdateNoOverlap run the overlap check and the write in
// a single transaction, serialized per doctor.
type AppointmentRepository interface {
	CreateNoOverlap(ctx context.Context, a *Appointment) error
	UpdateNoOverlap(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uint) (*Appointment, error)
	ListAll(ctx context.Context) ([]Appointment, error)
	ListForParticipant(ctx context.Context, userID uint, f AppointmentFilter) ([]Appointment, error)
	Deactivate(ctx context.Context, id uint) error
}

// AppointmentService defines the business logic interface for appointments.
type AppointmentService interface {
	CreateAppointment(ctx context.Context, in AppointmentInput, p Principal) (*Appointment, error)
	ListAppointments(ctx context.Context, f AppointmentFilter, p Principal) ([]Appointment, error)
	GetAppointment(ctx context.Context, id uint, p Principal) (*Appointment, error)
	UpdateAppointment(ctx context.Context, id uint, patch AppointmentPatch, p Principal) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id uint, p Principal) (*Appointment, error)
}
