package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/medibook/internal/domain"
	"github.com/simp-lee/medibook/internal/pkg"
)

const (
	principalContextKey = "principal"
	tokenContextKey     = "access_token"
)

// Auth rejects requests without a valid bearer token with 401 and stores the
// token's principal in the gin context for CurrentPrincipal.
func Auth(tokens domain.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWith(c, domain.NewAppError(domain.CodeUnauthorized, "missing bearer token", nil))
			return
		}

		p, err := tokens.Parse(c.Request.Context(), raw)
		if err != nil {
			abortWith(c, err)
			return
		}

		c.Set(principalContextKey, *p)
		c.Set(tokenContextKey, raw)
		c.Next()
	}
}

// RequireRole allows the request through only when the authenticated
// principal has one of roles. It must run after Auth.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			abortWith(c, domain.ErrUnauthorized)
			return
		}
		if _, ok := allowed[p.Role]; !ok {
			abortWith(c, domain.ErrNotAuthorized)
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the principal stored by Auth.
func CurrentPrincipal(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(principalContextKey)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

// CurrentToken returns the raw bearer token accepted by Auth.
func CurrentToken(c *gin.Context) string {
	return c.GetString(tokenContextKey)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortWith(c *gin.Context, err error) {
	pkg.Error(c, err)
	c.Abort()
}
