package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/attendance-ledger/pkg/response"
)

type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
}

// NewRegistry mounts modules under prefix; an empty prefix serves them from the root.
func NewRegistry(engine *gin.Engine, prefix string) *Registry {
	api := engine.Group(prefix)
	return &Registry{Engine: engine, API: api}
}

func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}
	r.Engine.NoRoute(notFound)
}

// notFound keeps unmatched routes inside the response envelope.
func notFound(c *gin.Context) {
	response.Error(c, http.StatusNotFound, "NotFound", "route "+c.Request.Method+" "+c.Request.URL.Path+" not found", nil)
}
