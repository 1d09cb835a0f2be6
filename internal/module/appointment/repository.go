package appointment

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/simp-lee/medibook/internal/domain"
	"github.com/simp-lee/medibook/internal/pkg"
)

var (
	errDoctorNotFound      = domain.NewAppError(domain.CodeNotFound, "doctor not found", nil)
	errAppointmentNotFound = domain.NewAppError(domain.CodeNotFound, "appointment not found", nil)
	errNotDoctor           = domain.NewAppError(domain.CodeValidation, "user is not a doctor", nil)
	errNotActive           = domain.NewAppError(domain.CodeValidation, "appointment is not active", nil)
)

// appointmentRepository implements domain.AppointmentRepository using GORM.
type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new AppointmentRepository backed by the given GORM database.
func NewAppointmentRepository(db *gorm.DB) domain.AppointmentRepository {
	return &appointmentRepository{db: db}
}

// CreateNoOverlap inserts a unless it overlaps an active appointment of the
// same doctor.
func (r *appointmentRepository) CreateNoOverlap(ctx context.Context, a *domain.Appointment) error {
	return pkg.MapDBError(pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := lockDoctor(tx, a.DoctorID); err != nil {
			return err
		}
		if err := checkOverlap(tx, a); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(a).Error
	}))
}

// UpdateNoOverlap writes the start, end and doctor of a unless the new slot
// overlaps another active appointment of that doctor.
func (r *appointmentRepository) UpdateNoOverlap(ctx context.Context, a *domain.Appointment) error {
	return pkg.MapDBError(pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := lockDoctor(tx, a.DoctorID); err != nil {
			return err
		}
		if err := checkOverlap(tx, a); err != nil {
			return err
		}

		res := tx.Model(&domain.Appointment{}).
			Where("id = ? AND active = ?", a.ID, true).
			Updates(map[string]any{
				"start_at":  a.Start,
				"end_at":    a.End,
				"doctor_id": a.DoctorID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotActive
		}
		return nil
	}))
}

// lockDoctor takes a row lock on the doctor so that concurrent bookings for
// the same doctor run one at a time. SQLite ignores the locking clause; there
// the IMMEDIATE transactions opened by config.SQLiteDSN take the write lock up
// front.
func lockDoctor(tx *gorm.DB, doctorID uint) error {
	var doctor domain.User
	err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Select("id", "role").
		Where("id = ?", doctorID).
		First(&doctor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errDoctorNotFound
		}
		return err
	}
	if doctor.Role != domain.RoleDoctor {
		return errNotDoctor
	}
	return nil
}

// checkOverlap fails with ErrDuplicatedDate when an active appointment of
// a.DoctorID other than a itself intersects [a.Start, a.End). Touching
// intervals do not overlap.
func checkOverlap(tx *gorm.DB, a *domain.Appointment) error {
	q := tx.Model(&domain.Appointment{}).
		Where("doctor_id = ? AND active = ?", a.DoctorID, true).
		Where("start_at < ? AND end_at > ?", a.End, a.Start)
	if a.ID != 0 {
		q = q.Where("id <> ?", a.ID)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrDuplicatedDate
	}
	return nil
}

// GetByID retrieves an appointment with its doctor and client populated.
func (r *appointmentRepository) GetByID(ctx context.Context, id uint) (*domain.Appointment, error) {
	var a domain.Appointment
	err := r.db.WithContext(ctx).
		Preload("Doctor").
		Preload("Client").
		First(&a, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errAppointmentNotFound
		}
		return nil, pkg.MapDBError(err)
	}
	return &a, nil
}

// ListAll returns every appointment, inactive ones included. The client is
// populated with its id and name only.
func (r *appointmentRepository) ListAll(ctx context.Context) ([]domain.Appointment, error) {
	items := make([]domain.Appointment, 0)
	err := r.db.WithContext(ctx).
		Preload("Doctor").
		Preload("Client", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Order("start_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, pkg.MapDBError(err)
	}
	return items, nil
}

// ListForParticipant returns the active appointments where userID is the
// doctor or the client, narrowed by f.
func (r *appointmentRepository) ListForParticipant(ctx context.Context, userID uint, f domain.AppointmentFilter) ([]domain.Appointment, error) {
	q := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("doctor_id = ? OR client_id = ?", userID, userID)
	if f.Start != nil {
		q = q.Where("end_at >= ?", *f.Start)
	}
	if f.End != nil {
		q = q.Where("start_at <= ?", *f.End)
	}

	items := make([]domain.Appointment, 0)
	if err := q.Preload("Doctor").Order("start_at ASC, id ASC").Find(&items).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}
	return items, nil
}

// Deactivate clears the active flag. The row is kept.
func (r *appointmentRepository) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&domain.Appointment{}).
		Where("id = ?", id).
		Update("active", false)
	if res.Error != nil {
		return pkg.MapDBError(res.Error)
	}
	if res.RowsAffected == 0 {
		return errAppointmentNotFound
	}
	return nil
}
