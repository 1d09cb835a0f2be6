package appointment

import "github.com/gin-gonic/gin"

// AppointmentModule implements the app.Module interface for appointments.
type AppointmentModule struct {
	handler *AppointmentHandler
}

// NewModule creates a new AppointmentModule.
// Panics if h is nil.
func NewModule(h *AppointmentHandler) *AppointmentModule {
	if h == nil {
		panic("appointment.NewModule: handler must not be nil")
	}
	return &AppointmentModule{handler: h}
}

// RegisterRoutes registers the appointment routes. All of them need a token.
func (m *AppointmentModule) RegisterRoutes(_, protected *gin.RouterGroup) {
	g := protected.Group("/appointments")
	g.POST("", m.handler.Create)
	g.GET("", m.handler.List)
	g.GET("/:id", m.handler.Get)
	g.PUT("/:id", m.handler.Update)
	g.DELETE("/:id", m.handler.Delete)
}
