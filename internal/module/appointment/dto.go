package appointment

import (
	"time"

	"github.com/simp-lee/medibook/internal/domain"
)

// CreateAppointmentRequest is the body of POST /api/v1/appointments.
// Times are RFC 3339. Presence is checked by the service so that a missing
// field reports missing data rather than a binding error.
type CreateAppointmentRequest struct {
	Start    *time.Time `json:"start"`
	End      *time.Time `json:"end"`
	DoctorID *uint      `json:"doctor_id"`
	ClientID *uint      `json:"client_id"`
}

// UpdateAppointmentRequest is the body of PUT /api/v1/appointments/:id.
// Omitted fields keep their current value.
type UpdateAppointmentRequest struct {
	Start    *time.Time `json:"start"`
	End      *time.Time `json:"end"`
	DoctorID *uint      `json:"doctor_id" binding:"omitempty,min=1"`
}

// ListAppointmentsQuery holds the optional interval of GET /api/v1/appointments.
type ListAppointmentsQuery struct {
	Start *time.Time `form:"start" time_format:"2006-01-02T15:04:05Z07:00"`
	End   *time.Time `form:"end" time_format:"2006-01-02T15:04:05Z07:00"`
}

func (r CreateAppointmentRequest) toInput() domain.AppointmentInput {
	return domain.AppointmentInput{
		Start:    r.Start,
		End:      r.End,
		DoctorID: r.DoctorID,
		ClientID: r.ClientID,
	}
}

func (r UpdateAppointmentRequest) toPatch() domain.AppointmentPatch {
	return domain.AppointmentPatch{
		Start:    r.Start,
		End:      r.End,
		DoctorID: r.DoctorID,
	}
}

// toFilter treats an empty parameter (?end=), which gin binds as the zero
// time, as not provided.
func (q ListAppointmentsQuery) toFilter() domain.AppointmentFilter {
	return domain.AppointmentFilter{Start: setTime(q.Start), End: setTime(q.End)}
}

func setTime(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	return t
}
