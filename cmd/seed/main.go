package main

import (
	"context"
	"errors"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/attendance-ledger/config"
	"github.com/oksasatya/attendance-ledger/internal/application"
	"github.com/oksasatya/attendance-ledger/internal/domain/entity"
	"github.com/oksasatya/attendance-ledger/internal/domain/ledgererr"
	"github.com/oksasatya/attendance-ledger/internal/domain/repository"
	pginfra "github.com/oksasatya/attendance-ledger/internal/infrastructure/postgres"
	"github.com/oksasatya/attendance-ledger/pkg/helpers"
)

// Demo rows for a local database. Re-running is safe.
var demoUsers = []application.CreateUserInput{
	{UserID: "demo-001", Name: "Demo Operator", Tags: []string{"ops", "day-shift"}},
	{UserID: "demo-002", Name: "Demo Engineer", Tags: []string{"eng", "day-shift"}},
	{UserID: "demo-003", Name: entity.DefaultUserName, Tags: []string{"contractor"}},
}

const (
	demoDeviceID  = "terminal-lobby"
	demoDeviceKey = "lobby-secret"
	demoTemplate  = "RGVtb1RlbXBsYXRlMDAx"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	if err := pginfra.RunMigrations(cfg.PostgresDSN(), logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	ledger := pginfra.NewLedger(pool)
	svc := application.NewService(ledger, nil, logger)

	for _, in := range demoUsers {
		u, err := svc.CreateUser(ctx, in)
		var lerr *ledgererr.Error
		switch {
		case errors.As(err, &lerr) && lerr.Kind == ledgererr.DuplicateUser:
			log.Printf("user %s already seeded", in.UserID)
			continue
		case err != nil:
			log.Fatalf("failed to seed user %s: %v", in.UserID, err)
		}
		log.Printf("seeded user: user_id=%s name=%s tags=%v", u.UserID, u.Name, u.Tags)

		// demo-003 stays unenrolled so template lookups report it as missing
		if in.Name == entity.DefaultUserName {
			continue
		}
		t, err := svc.EnrollUser(ctx, u.UserID, demoTemplate)
		if err != nil {
			log.Fatalf("failed to enroll %s: %v", u.UserID, err)
		}
		log.Printf("enrolled template_id=%d for %s", t.TemplateID, u.UserID)
	}

	hash, err := helpers.HashDeviceKey(demoDeviceKey)
	if err != nil {
		log.Fatalf("failed to hash device key: %v", err)
	}
	err = ledger.Devices().Register(ctx, &entity.Device{DeviceID: demoDeviceID, Key: hash})
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		d, err := ledger.Devices().GetByID(ctx, demoDeviceID)
		if err != nil {
			log.Fatalf("failed to load device: %v", err)
		}
		if helpers.CompareDeviceKey(d.Key, demoDeviceKey) {
			log.Printf("device %s already registered", demoDeviceID)
		} else {
			log.Printf("device %s already registered with a different key; left unchanged", demoDeviceID)
		}
	case err != nil:
		log.Fatalf("failed to register device: %v", err)
	default:
		log.Printf("registered device: device_id=%s key=%s", demoDeviceID, demoDeviceKey)
	}
}
