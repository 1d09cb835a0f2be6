package auth

import "github.com/gin-gonic/gin"

// AuthModule implements the app.Module interface for session endpoints.
type AuthModule struct {
	handler *AuthHandler
}

// NewModule creates a new AuthModule with the given handler.
// Panics if h is nil.
func NewModule(h *AuthHandler) *AuthModule {
	if h == nil {
		panic("auth.NewModule: handler must not be nil")
	}
	return &AuthModule{handler: h}
}

// RegisterRoutes registers the session routes; both require a bearer token.
func (m *AuthModule) RegisterRoutes(_, protected *gin.RouterGroup) {
	auth := protected.Group("/auth")
	auth.POST("/logout", m.handler.Logout)
	auth.GET("/me", m.handler.Me)
}
