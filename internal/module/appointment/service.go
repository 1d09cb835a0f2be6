package appointment

import (
	"context"
	"log/slog"
	"time"

	"github.com/simp-lee/medibook/internal/domain"
)

var errEndBeforeStart = domain.NewAppError(domain.CodeValidation, "end must be after start", nil)

// appointmentService implements domain.AppointmentService.
type appointmentService struct {
	repo domain.AppointmentRepository
}

// NewAppointmentService creates a new AppointmentService with the given repository.
func NewAppointmentService(repo domain.AppointmentRepository) domain.AppointmentService {
	return &appointmentService{repo: repo}
}

// CreateAppointment books a slot. The caller must be the doctor, the client
// or an admin.
func (s *appointmentService) CreateAppointment(ctx context.Context, in domain.AppointmentInput, p domain.Principal) (*domain.Appointment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	a := &domain.Appointment{
		Start:    in.Start.UTC(),
		End:      in.End.UTC(),
		DoctorID: *in.DoctorID,
		ClientID: *in.ClientID,
		Active:   true,
	}
	if !p.IsAdmin() && !a.HasParticipant(p.UserID) {
		return nil, domain.ErrNotAuthorized
	}
	if !a.Start.Before(a.End) {
		return nil, errEndBeforeStart
	}

	if err := s.repo.CreateNoOverlap(ctx, a); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "appointment created",
		slog.Uint64("appointment_id", uint64(a.ID)),
		slog.Uint64("doctor_id", uint64(a.DoctorID)),
		slog.Uint64("client_id", uint64(a.ClientID)),
	)
	return s.repo.GetByID(ctx, a.ID)
}

// ListAppointments returns everything to admins and the caller's active
// appointments, narrowed by f, to everyone else.
func (s *appointmentService) ListAppointments(ctx context.Context, f domain.AppointmentFilter, p domain.Principal) ([]domain.Appointment, error) {
	if p.IsAdmin() {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListForParticipant(ctx, p.UserID, domain.AppointmentFilter{
		Start: utc(f.Start),
		End:   utc(f.End),
	})
}

// GetAppointment returns one appointment to its participants and admins.
func (s *appointmentService) GetAppointment(ctx context.Context, id uint, p domain.Principal) (*domain.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !a.HasParticipant(p.UserID) {
		return nil, domain.ErrNotAuthorized
	}
	return a, nil
}

// UpdateAppointment moves an active appointment to a new slot or doctor.
// Only start, end and doctor change.
func (s *appointmentService) UpdateAppointment(ctx context.Context, id uint, patch domain.AppointmentPatch, p domain.Principal) (*domain.Appointment, error) {
	a, err := s.GetAppointment(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if !a.Active {
		return nil, errNotActive
	}

	next := &domain.Appointment{
		BaseModel: domain.BaseModel{ID: a.ID},
		Start:     a.Start.UTC(),
		End:       a.End.UTC(),
		DoctorID:  a.DoctorID,
		ClientID:  a.ClientID,
		Active:    true,
	}
	if patch.Start != nil {
		next.Start = patch.Start.UTC()
	}
	if patch.End != nil {
		next.End = patch.End.UTC()
	}
	if patch.DoctorID != nil {
		if *patch.DoctorID == 0 {
			return nil, domain.NewAppError(domain.CodeValidation, "doctor_id must be positive", nil)
		}
		next.DoctorID = *patch.DoctorID
	}
	if !next.Start.Before(next.End) {
		return nil, errEndBeforeStart
	}

	if err := s.repo.UpdateNoOverlap(ctx, next); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "appointment updated",
		slog.Uint64("appointment_id", uint64(a.ID)),
		slog.Uint64("doctor_id", uint64(next.DoctorID)),
	)
	return s.repo.GetByID(ctx, a.ID)
}

// DeleteAppointment deactivates an appointment. Only the client and admins
// may delete; the doctor may not.
func (s *appointmentService) DeleteAppointment(ctx context.Context, id uint, p domain.Principal) (*domain.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && a.ClientID != p.UserID {
		return nil, domain.ErrNotAuthorized
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "appointment deactivated", slog.Uint64("appointment_id", uint64(id)))
	return s.repo.GetByID(ctx, id)
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
