package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/attendance-ledger/pkg/response"
)

// Pinger reports store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type SystemHandler struct {
	AppName string
	Store   Pinger
}

func NewSystemHandler(appName string, store Pinger) *SystemHandler {
	return &SystemHandler{AppName: appName, Store: store}
}

func (h *SystemHandler) Index(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"message": "Welcome to " + h.AppName})
}

func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		response.Error(c, http.StatusServiceUnavailable, "Unavailable", "store unreachable", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}
