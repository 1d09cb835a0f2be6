package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/medibook/internal/pkg"
)

// Timeout bounds each request's context by d. Store calls observe the
// deadline; a handler that ran out of time without writing gets a 408
// envelope. A non-positive d disables the middleware.
func Timeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusRequestTimeout, pkg.Response{
				Code:    http.StatusRequestTimeout,
				Message: "request timeout",
			})
		}
	}
}
