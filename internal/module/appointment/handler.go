package appointment

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/medibook/internal/domain"
	"github.com/simp-lee/medibook/internal/middleware"
	"github.com/simp-lee/medibook/internal/pkg"
)

// AppointmentHandler handles REST API requests for the appointment resource.
// Every route runs behind middleware.Auth.
type AppointmentHandler struct {
	svc domain.AppointmentService
}

// NewAppointmentHandler creates a new AppointmentHandler with the given service.
func NewAppointmentHandler(svc domain.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

// Create handles POST /api/v1/appointments.
func (h *AppointmentHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req CreateAppointmentRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	a, err := h.svc.CreateAppointment(c.Request.Context(), req.toInput(), p)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Created(c, "appointment created", a)
}

// List handles GET /api/v1/appointments.
func (h *AppointmentHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var q ListAppointmentsQuery
	if !pkg.BindAndValidate(c, &q) {
		return
	}

	items, err := h.svc.ListAppointments(c.Request.Context(), q.toFilter(), p)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, items)
}

// Get handles GET /api/v1/appointments/:id.
func (h *AppointmentHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	a, err := h.svc.GetAppointment(c.Request.Context(), id, p)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, a)
}

// Update handles PUT /api/v1/appointments/:id.
func (h *AppointmentHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	var req UpdateAppointmentRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	a, err := h.svc.UpdateAppointment(c.Request.Context(), id, req.toPatch(), p)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, a)
}

// Delete handles DELETE /api/v1/appointments/:id.
func (h *AppointmentHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	a, err := h.svc.DeleteAppointment(c.Request.Context(), id, p)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, a)
}

// principal writes a 401 and reports false when Auth did not run.
func principal(c *gin.Context) (domain.Principal, bool) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		pkg.Error(c, domain.ErrUnauthorized)
	}
	return p, ok
}

// parseID extracts and validates the "id" URL parameter.
func parseID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 || id > uint64(^uint(0)) {
		return 0, fmt.Errorf("invalid id: %s", idStr)
	}
	return uint(id), nil
}
