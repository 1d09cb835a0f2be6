package user

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/medibook/internal/domain"
	"github.com/simp-lee/medibook/internal/pkg"
)

// UserHandler handles REST API requests for the user resource.
type UserHandler struct {
	svc domain.UserService
}

// NewUserHandler creates a new UserHandler with the given service.
func NewUserHandler(svc domain.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Create handles POST /api/v1/users.
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), req.toNewUser())
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Created(c, "user created", user)
}

// Login handles POST /api/v1/users/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, token)
}

// Get handles GET /api/v1/users/:dni.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.FindUser(c.Request.Context(), c.Param("dni"))
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, user)
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(c *gin.Context) {
	result, err := h.svc.ListUsers(c.Request.Context(), pkg.ParsePageRequest(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, result)
}
