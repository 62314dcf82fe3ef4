package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"order_of_ash/internal/bot"
	"order_of_ash/internal/config"
	"order_of_ash/internal/db"
	"order_of_ash/internal/domain"
	httpServer "order_of_ash/internal/http"
	"order_of_ash/internal/http/handlers"
	"order_of_ash/internal/http/middleware"
	"order_of_ash/internal/logger"
	"order_of_ash/internal/payment"
	"order_of_ash/internal/repository"
	"order_of_ash/internal/service"
	"order_of_ash/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Version устанавливается при сборке
var Version = "dev"

func main() {
	cfg := config.Load()

	// Инициализация структурированного логгера
	jsonLogs := os.Getenv("LOG_FORMAT") == "json"
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Init(logLevel, jsonLogs)
	log := logger.Get()

	service.InitJWT(cfg.JWTSecret)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	ctx := context.Background()
	if err := db.EnsureSchema(ctx, dbPool); err != nil {
		logger.Fatal("schema init failed", "error", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	middleware.InitRateLimiterWithClient(rdb)

	players := repository.NewPlayerRepository(dbPool)
	invoices := repository.NewInvoiceRepository(dbPool)
	daily := repository.NewDailyClaimRepository(dbPool)

	payClient := payment.NewClient(cfg.PaymentAPIURL, cfg.PaymentAPIKey)

	h := &handlers.Handler{
		DB:       dbPool,
		Cfg:      cfg,
		Players:  players,
		Daily:    daily,
		Sessions: service.NewSessionService(rdb),
		Profiles: service.NewProfileCache(rdb, players, 5*time.Second),
		Burns:    service.NewBurnService(players, invoices, payClient, cfg.BurnAmountNano, cfg.CurseDuration),
		Final:    service.NewFinalService(players, cfg.FinalPhrase),
	}

	if cfg.PlatformWallet != "" {
		if err := h.Burns.SetPlatformWallet(cfg.PlatformWallet); err != nil {
			logger.Fatal("PLATFORM_WALLET невалиден", "wallet", cfg.PlatformWallet, "error", err)
		}
	}

	hub := ws.NewHub(h.Profiles)

	r := gin.Default()

	// CORS для прода и связи фронта с бэкендом(разные домены)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer.RegisterRoutes(r, h, Version, ws.HandleWS(hub))

	// Запуск админ бота ПЕРЕД HTTP сервером чтобы callbacks были установлены
	var adminBot *bot.AdminBot
	if cfg.AdminBotEnabled && len(cfg.AdminTelegramIDs) > 0 {
		var err error
		adminBot, err = bot.NewAdminBot(cfg.BotToken, players, invoices, cfg.AdminTelegramIDs)
		if err != nil {
			log.Error("failed to start admin bot", "error", err)
		} else {
			go adminBot.Start()
			log.Info("admin bot started", "admin_ids", cfg.AdminTelegramIDs)
		}
	}

	// итог сжигания: сброс кэша профиля, пуш в ws, уведомление админов
	h.Burns.SetSettledCallback(func(inv *domain.BurnInvoice) {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.Profiles.Invalidate(cctx, inv.TgID)
		hub.NotifyInvoice(inv)
		hub.NotifyProfile(cctx, inv.TgID)
		if adminBot != nil && inv.Status == domain.InvoiceStatusPaid {
			adminBot.NotifyBurnPaid(inv)
		}
	})
	// ошибка авторизации платежного бэкенда отзывает сессию игрока
	h.Burns.SetAuthFailCallback(func(tgID int64) {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Sessions.Revoke(cctx, tgID); err != nil {
			log.Error("session revoke failed", "tg_id", tgID, "error", err)
		}
	})
	if adminBot != nil {
		h.Final.SetSolvedCallback(adminBot.NotifyFinalSolved)
	}

	// возобновляем опрос инвойсов, зависших в pending после рестарта
	if err := h.Burns.ResumePending(ctx); err != nil {
		log.Error("resume pending invoices failed", "error", err)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Плавная остановка бота
	if adminBot != nil {
		adminBot.Stop()
	}

	// Останавливаем опрос платежей
	h.Burns.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
