package router

import "github.com/gin-gonic/gin"

// Module owns a set of routes. Register is called once by Registry.RegisterAll
// with the prefixed group; modules add their own group-level middleware there.
type Module interface {
	Register(rg *gin.RouterGroup)
}
