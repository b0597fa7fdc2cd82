package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/attendance-ledger/config"
	"github.com/oksasatya/attendance-ledger/internal/infrastructure/sink"
	"github.com/oksasatya/attendance-ledger/pkg/helpers"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName+"-worker", cfg.Env)
	if !cfg.EventsEnabled {
		logger.Info("EVENTS_ENABLED=false; ledger worker disabled")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQLedgerQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &sink.Sink{
		UsersIndex:      cfg.ESUsersIndex,
		AttendanceIndex: cfg.ESAttendanceIndex,
		Logger:          logger,
	}
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		var es *elasticsearch.Client
		es, err = helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.Fatalf("elasticsearch: %v", err)
		}
		s.ES = es
	}
	if cfg.GCSBucket != "" {
		gcs, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.Fatalf("gcs: %v", err)
		}
		defer func() { _ = gcs.Close() }()
		s.Objects = &helpers.GCSObjectStore{Client: gcs, Bucket: cfg.GCSBucket}
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQLedgerQueue, 16)
	if err != nil {
		logger.Fatalf("amqp: %v", err)
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries()
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			c, cancelMsg := context.WithTimeout(ctx, 15*time.Second)
			err := s.HandleMessage(c, msg.Body)
			cancelMsg()

			switch {
			case err == nil:
				_ = msg.Ack(false)
			case errors.Is(err, sink.ErrBadMessage):
				logger.WithError(err).WithField("message_id", msg.MessageId).Warn("dropping ledger event")
				_ = msg.Nack(false, false)
			default:
				helpers.LogError(logger, "ledger event failed, requeueing", err, logrus.Fields{"message_id": msg.MessageId})
				_ = msg.Nack(false, true)
			}
		}
	}()

	logger.Infof("ledger worker listening on queue=%s", cfg.RabbitMQLedgerQueue)
	<-stop
	logger.Info("shutting down...")
	cancel()
	consumer.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
