package user

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/simp-lee/medibook/internal/domain"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt input limit
	maxDNILen      = 32
)

// dummyHash is compared against when the email is unknown so both login
// failures cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("medibook-login-timing"), bcrypt.DefaultCost)

// userService implements domain.UserService.
type userService struct {
	repo   domain.UserRepository
	tokens domain.TokenService
	cost   int
}

// NewUserService creates a new UserService. Tokens are issued on login.
func NewUserService(repo domain.UserRepository, tokens domain.TokenService) domain.UserService {
	return &userService{repo: repo, tokens: tokens, cost: bcrypt.DefaultCost}
}

// CreateUser registers a CLIENT or DOCTOR. An empty role means CLIENT; ADMIN
// cannot be requested.
func (s *userService) CreateUser(ctx context.Context, in domain.NewUser) (*domain.User, error) {
	if in.Role == "" {
		in.Role = domain.RoleClient
	}
	if in.Role != domain.RoleClient && in.Role != domain.RoleDoctor {
		return nil, domain.NewAppError(domain.CodeValidation, "role must be CLIENT or DOCTOR", nil)
	}
	return s.create(ctx, in)
}

// EnsureAdmin creates the bootstrap administrator unless its DNI is taken.
// A DNI held by a non-admin is reported as a validation error.
func (s *userService) EnsureAdmin(ctx context.Context, in domain.NewUser) (*domain.User, bool, error) {
	existing, err := s.repo.GetByDNI(ctx, strings.TrimSpace(in.DNI))
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			return nil, false, domain.NewAppError(domain.CodeValidation, "bootstrap admin dni belongs to a non-admin user", nil)
		}
		return existing, false, nil
	case !domain.IsNotFound(err):
		return nil, false, err
	}

	in.Role = domain.RoleAdmin
	user, err := s.create(ctx, in)
	if err != nil {
		return nil, false, err
	}
	slog.InfoContext(ctx, "bootstrap admin created", slog.Uint64("user_id", uint64(user.ID)))
	return user, true, nil
}

func (s *userService) create(ctx context.Context, in domain.NewUser) (*domain.User, error) {
	in.DNI = strings.TrimSpace(in.DNI)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateNewUser(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to hash password", err)
	}

	user := &domain.User{
		DNI:          in.DNI,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if domain.IsAlreadyExists(err) {
			return nil, domain.NewAppError(domain.CodeAlreadyExists, "dni or email already registered", err)
		}
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials and issues a bearer token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *userService) Login(ctx context.Context, email, password string) (*domain.AccessToken, error) {
	invalid := domain.NewAppError(domain.CodeUnauthorized, "invalid email or password", nil)

	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if domain.IsNotFound(err) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, invalid
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, invalid
	}

	return s.tokens.Issue(domain.Principal{UserID: user.ID, Role: user.Role})
}

// FindUser looks a user up by DNI.
func (s *userService) FindUser(ctx context.Context, dni string) (*domain.User, error) {
	dni = strings.TrimSpace(dni)
	if dni == "" {
		return nil, domain.ErrMissingData
	}
	return s.repo.GetByDNI(ctx, dni)
}

// ListUsers returns a paginated list of users.
func (s *userService) ListUsers(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.User], error) {
	return s.repo.List(ctx, req)
}

// validateNewUser expects trimmed input.
func validateNewUser(in domain.NewUser) error {
	if in.DNI == "" || in.Name == "" || in.Email == "" || in.Password == "" {
		return domain.ErrMissingData
	}
	if len(in.DNI) > maxDNILen {
		return domain.NewAppError(domain.CodeValidation, "dni must not exceed 32 characters", nil)
	}
	if n := utf8.RuneCountInString(in.Name); n < 2 || n > 100 {
		return domain.NewAppError(domain.CodeValidation, "name must be between 2 and 100 characters", nil)
	}
	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Name != "" || addr.Address != in.Email {
		return domain.NewAppError(domain.CodeValidation, "email must be a valid email address", nil)
	}
	if len(in.Password) < minPasswordLen || len(in.Password) > maxPasswordLen {
		return domain.NewAppError(domain.CodeValidation, "password must be between 8 and 72 bytes", nil)
	}
	if !in.Role.Valid() {
		return domain.NewAppError(domain.CodeValidation, "unknown role", nil)
	}
	return nil
}
