package main

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/unoroom/server/internal/cache"
	"github.com/unoroom/server/internal/config"
	"github.com/unoroom/server/internal/database"
	"github.com/unoroom/server/internal/game"
	"github.com/unoroom/server/internal/rooms"
	"github.com/unoroom/server/internal/server"
	"github.com/unoroom/server/internal/tokens"
)

// sweepInterval is how often stale rooms are purged.
const sweepInterval = time.Hour

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(log)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx := context.Background()

	store, err := database.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer store.Close()

	var recorder game.Recorder
	if cfg.RedisAddr != "" {
		rec, err := cache.Connect(ctx, cfg.RedisAddr, log)
		if err != nil {
			log.WithError(err).Fatal("redis connection failed")
		}
		defer rec.Close()
		recorder = rec
	}

	tokenSvc, err := tokens.New(cfg.Secret)
	if err != nil {
		log.WithError(err).Fatal("token service init failed")
	}

	manager := game.NewManager(store, recorder)
	manager.TurnTimeout = cfg.TurnTimeout

	roomSvc := rooms.New(store, tokenSvc, log)
	srv := server.New(roomSvc, tokenSvc, manager, log)

	go sweepLoop(ctx, store, manager, cfg.RoomTTL, log)

	addr := ":" + cfg.Port
	log.WithField("addr", addr).Info("listening")
	if err := http.ListenAndServe(addr, srv); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

// sweepLoop periodically deletes rooms past their retention window and
// drops their in-memory sessions.
func sweepLoop(ctx context.Context, store *database.Store, manager *game.Manager, ttl time.Duration, log *logrus.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			codes, err := store.SweepStale(ctx, ttl)
			if err != nil {
				log.WithError(err).Error("room sweep failed")
				continue
			}
			for _, code := range codes {
				manager.Forget(code)
			}
		}
	}
}
