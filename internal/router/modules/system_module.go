package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/attendance-ledger/internal/interface/http"
)

// SystemModule serves the banner and the store health check.
type SystemModule struct {
	Handler *handlers.SystemHandler
}

func NewSystemModule(h *handlers.SystemHandler) *SystemModule { return &SystemModule{Handler: h} }

func (m *SystemModule) Register(rg *gin.RouterGroup) {
	rg.GET("/", m.Handler.Index)
	rg.GET("/healthz", m.Handler.Health)
}
