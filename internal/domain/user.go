package domain

import "context"

// Role is the authorization role carried by a user and its tokens.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleDoctor Role = "DOCTOR"
	RoleClient Role = "CLIENT"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleClient:
		return true
	default:
		return false
	}
}

// User represents a user in the system.
type User struct {
	BaseModel
	DNI          string `gorm:"size:32;uniqueIndex;not null" json:"dni"`
	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255" json:"-"`
	Role         Role   `gorm:"size:16;not null;default:CLIENT;index" json:"role"`
}

// NewUser holds the fields required to register a user.
type NewUser struct {
	DNI      string
	Name     string
	Email    string
	Password string
	Role     Role
}

// UserRepository defines the data access interface for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByDNI(ctx context.Context, dni string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, req PageRequest) (*PageResult[User], error)
}

// UserService defines the business logic interface for users.
type UserService interface {
	CreateUser(ctx context.Context, in NewUser) (*User, error)
	Login(ctx context.Context, email, password string) (*AccessToken, error)
	FindUser(ctx context.Context, dni string) (*User, error)
	ListUsers(ctx context.Context, req PageRequest) (*PageResult[User], error)
	// EnsureAdmin creates in as an ADMIN unless a user with its DNI exists.
	// It reports whether a user was created.
	EnsureAdmin(ctx context.Context, in NewUser) (*User, bool, error)
}
