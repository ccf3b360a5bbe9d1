package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wilcolinadev/naturalize/internal/bank"
	"github.com/wilcolinadev/naturalize/internal/config"
	"github.com/wilcolinadev/naturalize/internal/db"
	httpserver "github.com/wilcolinadev/naturalize/internal/http"
	"github.com/wilcolinadev/naturalize/internal/jobs"
	"github.com/wilcolinadev/naturalize/internal/logger"
	"github.com/wilcolinadev/naturalize/internal/quiz"
	"github.com/wilcolinadev/naturalize/internal/repository"
	"github.com/wilcolinadev/naturalize/internal/sessionstore"
)

func main() {
	cfg := config.Load()

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	questionBank, err := bank.Load()
	if err != nil {
		logg.Fatal("question bank load failed", "err", err)
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logg.Fatal("database connect failed", "err", err)
	}
	defer pool.Close()
	if err := db.InitSchema(ctx, pool); err != nil {
		logg.Fatal("schema init failed", "err", err)
	}

	var sessions sessionstore.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logg.Fatal("redis connect failed", "addr", cfg.RedisAddr, "err", err)
		}
		sessions = sessionstore.NewRedisStore(client, cfg.QuizSessionTTL, cfg.RecentSentenceTTL)
		logg.Info("session store: redis", "addr", cfg.RedisAddr)
	} else {
		sessions = sessionstore.NewMemoryStore(cfg.QuizSessionTTL)
		logg.Info("session store: in-memory")
	}

	store := repository.NewStore(pool, logg)

	policy := quiz.FreeBlocked
	if cfg.FreeCivicsPolicy == config.FreeCivicsCapped {
		policy = quiz.FreeCapped
	}
	selector := quiz.NewSelector(questionBank, policy, rand.New(rand.NewSource(time.Now().UnixNano())))

	server := httpserver.NewServer(cfg, store, sessions, questionBank, selector, logg)

	if cfg.SessionSweepEnabled {
		sweeper := jobs.NewSweeper(store, cfg.SessionSweepCutoff, logg)
		if err := sweeper.Start(); err != nil {
			logg.Fatal("sweeper start failed", "err", err)
		}
		defer sweeper.Stop()
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Router(),
	}

	go func() {
		logg.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("http server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error("http shutdown failed", "err", err)
	}
}
