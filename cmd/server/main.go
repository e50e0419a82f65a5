package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/avicena/wellness-marketplace/internal/auth"
	"github.com/avicena/wellness-marketplace/internal/config"
	"github.com/avicena/wellness-marketplace/internal/handler"
	"github.com/avicena/wellness-marketplace/internal/middleware"
	"github.com/avicena/wellness-marketplace/internal/obs"
	"github.com/avicena/wellness-marketplace/internal/queue"
	"github.com/avicena/wellness-marketplace/internal/repository"
	"github.com/avicena/wellness-marketplace/internal/router"
	"github.com/avicena/wellness-marketplace/internal/store"
)

func main() {
	// Absent .env is fine in deployed environments; variables come from the
	// process environment there.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := obs.NewLogger(cfg.LogLevel, cfg.Env)
	obs.InitMetrics()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis is required: it backs the record store")
	}
	kv := store.NewRedisKV(rdb)

	issuer := auth.NewIssuer(cfg.JWTSecret)
	issuer.AccessTTL = cfg.AccessTTL
	issuer.RefreshTTL = cfg.RefreshTTL
	issuer.PasswordResetTTL = cfg.PasswordResetTTL
	issuer.EmailVerifyTTL = cfg.EmailVerifyTTL
	hasher := auth.Hasher{Iterations: cfg.PBKDF2Iterations}

	users := repository.NewUserRepo(kv)
	tokens := repository.NewTokenRepo(kv)
	services := repository.NewServiceRepo(kv)
	appointments := repository.NewAppointmentRepo(kv)
	messages := repository.NewMessageRepo(kv)
	reviews := repository.NewReviewRepo(kv)
	products := repository.NewProductRepo(kv)

	h := router.Handlers{
		Auth:         handler.NewAuthHandler(issuer, hasher, users, tokens, logger),
		Profile:      handler.NewProfileHandler(users),
		Public:       handler.NewPublicHandler(users, services, reviews),
		Services:     handler.NewServiceHandler(services),
		Appointments: handler.NewAppointmentHandler(appointments, services, users, logger),
		Messages:     handler.NewMessageHandler(messages, users),
		Reviews:      handler.NewReviewHandler(reviews, users),
		Products:     handler.NewProductHandler(products),
		Admin:        handler.NewAdminHandler(users, tokens, appointments, reviews),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(obs.Instrument())
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))

	router.Register(e, h, router.Deps{
		Issuer: issuer,
		Users:  users,
		Cache:  middleware.ResponseCache(config.LoadCacheConfig(), rdb),
	})

	// Background consumer for confirmation events; reconnects on its own.
	go queue.StartConfirmationConsumer()

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
