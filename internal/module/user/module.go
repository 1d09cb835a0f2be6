package user

import (
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/medibook/internal/domain"
	"github.com/simp-lee/medibook/internal/middleware"
)

// UserModule implements the app.Module interface for the user domain.
type UserModule struct {
	handler     *UserHandler
	loginGuards []gin.HandlerFunc
}

// NewModule creates a new UserModule. loginGuards run before the login and
// registration handlers, typically a rate limiter.
// Panics if h is nil.
func NewModule(h *UserHandler, loginGuards ...gin.HandlerFunc) *UserModule {
	if h == nil {
		panic("user.NewModule: handler must not be nil")
	}
	return &UserModule{handler: h, loginGuards: slices.Clip(loginGuards)}
}

// RegisterRoutes registers the user routes. Registration and login are
// public; lookups need a token and listing needs ADMIN.
func (m *UserModule) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/users", append(m.loginGuards, m.handler.Create)...)
	public.POST("/users/login", append(m.loginGuards, m.handler.Login)...)

	protected.GET("/users", middleware.RequireRole(domain.RoleAdmin), m.handler.List)
	protected.GET("/users/:dni", m.handler.Get)
}
