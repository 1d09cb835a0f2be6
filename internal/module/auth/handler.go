package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/medibook/internal/domain"
	"github.com/simp-lee/medibook/internal/middleware"
	"github.com/simp-lee/medibook/internal/pkg"
)

// AuthHandler serves the session endpoints of authenticated callers.
type AuthHandler struct {
	tokens domain.TokenService
}

// NewHandler creates a new AuthHandler.
func NewHandler(tokens domain.TokenService) *AuthHandler {
	return &AuthHandler{tokens: tokens}
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.tokens.Revoke(c.Request.Context(), middleware.CurrentToken(c)); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, nil)
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		pkg.Error(c, domain.ErrUnauthorized)
		return
	}
	pkg.Success(c, p)
}
