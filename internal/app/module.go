package app

import "github.com/gin-gonic/gin"

// Module defines the contract for a self-registering business module.
// public is the /api/v1 group; protected is the same prefix behind bearer
// authentication.
type Module interface {
	RegisterRoutes(public, protected *gin.RouterGroup)
}
