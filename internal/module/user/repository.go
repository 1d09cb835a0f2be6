package user

import (
	"context"

	"gorm.io/gorm"

	"github.com/simp-lee/medibook/internal/domain"
	"github.com/simp-lee/medibook/internal/pkg"
)

// Allowed fields for sorting and filtering in List queries.
var (
	allowedSortFields   = []string{"id", "dni", "name", "email", "role", "created_at"}
	allowedFilterFields = []string{"dni", "name", "email", "role"}
)

// userRepository implements domain.UserRepository using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository backed by the given GORM database.
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user. Duplicate dni or email yields AlreadyExists.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return pkg.MapDBError(r.db.WithContext(ctx).Create(user).Error)
}

// GetByDNI retrieves a user by national id.
func (r *userRepository) GetByDNI(ctx context.Context, dni string) (*domain.User, error) {
	return r.first(ctx, "dni = ?", dni)
}

// GetByEmail retrieves a user by email address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}
	return &user, nil
}

// List returns a paginated, sorted, and filtered list of users.
func (r *userRepository) List(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.User], error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&domain.User{}).
		Scopes(pkg.Filter(req, allowedFilterFields))

	if err := base.Count(&total).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}

	var users []domain.User
	if err := base.Scopes(
		pkg.Paginate(req),
		pkg.Sort(req, allowedSortFields),
	).Find(&users).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}

	return pkg.NewPageResult(users, total, req), nil
}
