package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/attendance-ledger/internal/interface/http"
)

// LedgerModule wires the device-facing ledger operations.
// Writes: POST /create-user, /enroll-user, /mark-attendance
// Queries: GET|POST /get-users-by-tags, /get-attendance, /get-template; GET /users
// Every route runs the envelope decoder first, then the per-device limiter.
type LedgerModule struct {
	Handler  *handlers.LedgerHandler
	Envelope gin.HandlerFunc
	Limiter  gin.HandlerFunc
}

func NewLedgerModule(h *handlers.LedgerHandler, envelope, limiter gin.HandlerFunc) *LedgerModule {
	return &LedgerModule{Handler: h, Envelope: envelope, Limiter: limiter}
}

func (m *LedgerModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("")
	g.Use(m.Envelope)
	if m.Limiter != nil {
		g.Use(m.Limiter)
	}

	g.POST("/create-user", m.Handler.CreateUser)
	g.POST("/enroll-user", m.Handler.EnrollUser)
	g.POST("/mark-attendance", m.Handler.MarkAttendance)
	g.GET("/users", m.Handler.ListUsers)

	for _, route := range []struct {
		path string
		h    gin.HandlerFunc
	}{
		{"/get-users-by-tags", m.Handler.UsersByTags},
		{"/get-attendance", m.Handler.Attendance},
		{"/get-template", m.Handler.Templates},
	} {
		g.GET(route.path, route.h)
		g.POST(route.path, route.h)
	}
}
