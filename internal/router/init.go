package router

import (
	"time"

	"github.com/oksasatya/attendance-ledger/internal/application"
	"github.com/oksasatya/attendance-ledger/internal/container"
	handlers "github.com/oksasatya/attendance-ledger/internal/interface/http"
	"github.com/oksasatya/attendance-ledger/internal/interface/middleware"
	"github.com/oksasatya/attendance-ledger/internal/router/modules"
	"github.com/oksasatya/attendance-ledger/pkg/envelope"
)

// Query keys that GET requests always decode as arrays.
var queryListKeys = []string{"tags", "user_ids", "timestamps"}

type LedgerModuleDeps struct {
	Service *application.Service
	Handler *handlers.LedgerHandler
	System  *handlers.SystemHandler
}

func buildLedgerDeps(c *container.Container) LedgerModuleDeps {
	service := application.NewService(c.Ledger, c.Events(), c.Logger)
	return LedgerModuleDeps{
		Service: service,
		Handler: handlers.NewLedgerHandler(service, c.Logger),
		System:  handlers.NewSystemHandler(c.Config.AppName, service),
	}
}

// InitModules builds every module from c and adds it to the registry.
// Call once during startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) error {
	mode, err := envelope.ParseMode(c.Config.EnvelopeMode)
	if err != nil {
		return err
	}
	deps := buildLedgerDeps(c)

	var allow []middleware.AllowFunc
	if c.Config.RateLimitBypassPrivate {
		allow = append(allow, middleware.AllowPrivateIP())
	}
	if paths := c.Config.RateLimitExempt(); len(paths) > 0 {
		allow = append(allow, middleware.AllowPaths(paths...))
	}
	limiter := middleware.RateLimit(c.Redis, c.Config.RateLimitPerMinute, time.Minute, middleware.KeyByDevice(), middleware.AnyAllow(allow...))

	r.Add(modules.NewSystemModule(deps.System))
	r.Add(modules.NewLedgerModule(
		deps.Handler,
		middleware.Envelope(mode, c.EnvelopeSigner(), queryListKeys...),
		limiter,
	))
	if c.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(middleware.RateLimit(c.Redis, 120, time.Minute, middleware.KeyByIP(), nil)))
	}
	return nil
}
