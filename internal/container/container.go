// Package container holds the components built at startup and shared by the
// router modules. It is constructed once in main and passed down explicitly.
package container

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/attendance-ledger/config"
	"github.com/oksasatya/attendance-ledger/internal/application"
	"github.com/oksasatya/attendance-ledger/internal/domain/repository"
	"github.com/oksasatya/attendance-ledger/pkg/envelope"
	"github.com/oksasatya/attendance-ledger/pkg/helpers"
)

type Container struct {
	Config    *config.Config
	Logger    *logrus.Logger
	Ledger    repository.Ledger
	Redis     *redis.Client            // nil disables rate limiting
	Publisher *helpers.RabbitPublisher // nil disables ledger events
	Signer    envelope.Signer
}

// Events returns the publisher as an application.EventPublisher, or a nil
// interface when publishing is disabled.
func (c *Container) Events() application.EventPublisher {
	if c.Publisher == nil || (c.Config != nil && !c.Config.EventsEnabled) {
		return nil
	}
	return c.Publisher
}

// EnvelopeSigner returns the configured signer, defaulting to envelope.NoopSigner.
func (c *Container) EnvelopeSigner() envelope.Signer {
	if c.Signer == nil {
		return envelope.NoopSigner{}
	}
	return c.Signer
}
