package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"order_of_ash/internal/logger"

	"github.com/joho/godotenv"
)

// Config содержит всю конфигурацию приложения из окружения
type Config struct {
	AppPort     string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	BotToken        string
	BotUsername     string
	WebAppShortName string

	JWTSecret string

	// внешний платежный бэкенд для burn-инвойсов
	PaymentAPIURL  string
	PaymentAPIKey  string
	PlatformWallet string

	// экономика сжиганий
	BurnAmountNano int64
	CurseDuration  time.Duration

	// финальная фраза и глобальное открытие окна
	FinalPhrase        string
	FinalWindowOpensAt time.Time

	ReferralThreshold int

	AdminBotEnabled  bool
	AdminTelegramIDs []int64

	DevMode bool
}

// Load читает конфигурацию из .env и переменных окружения.
// Падает только на значениях, без которых сервер бессмысленен.
func Load() *Config {
	// .env опционален: в проде всё приходит из окружения
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:     getEnv("APP_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		BotToken:        os.Getenv("BOT_TOKEN"),
		BotUsername:     os.Getenv("BOT_USERNAME"),
		WebAppShortName: getEnv("WEBAPP_SHORT_NAME", "orderofash"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		PaymentAPIURL:  os.Getenv("PAYMENT_API_URL"),
		PaymentAPIKey:  os.Getenv("PAYMENT_API_KEY"),
		PlatformWallet: os.Getenv("PLATFORM_WALLET"),

		BurnAmountNano: getEnvInt64("BURN_AMOUNT_NANO", 500_000_000), // 0.5 TON
		CurseDuration:  getEnvDuration("CURSE_DURATION", time.Hour),

		FinalPhrase: os.Getenv("FINAL_PHRASE"),

		ReferralThreshold: getEnvInt("REFERRAL_THRESHOLD", 3),

		AdminBotEnabled: os.Getenv("ADMIN_BOT_ENABLED") == "true",

		DevMode: os.Getenv("DEV_MODE") == "true",
	}

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL не задан")
	}
	if cfg.JWTSecret == "" {
		if !cfg.DevMode {
			logger.Fatal("JWT_SECRET не задан")
		}
		cfg.JWTSecret = "dev-secret"
	}

	// окно финала: RFC3339 либо открыто сразу
	if raw := os.Getenv("FINAL_WINDOW_OPENS_AT"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			logger.Fatal("неверный формат FINAL_WINDOW_OPENS_AT", "value", raw, "error", err)
		}
		cfg.FinalWindowOpensAt = t
	}

	for _, part := range strings.Split(os.Getenv("ADMIN_TELEGRAM_IDS"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			logger.Warn("пропущен некорректный admin id", "value", part)
			continue
		}
		cfg.AdminTelegramIDs = append(cfg.AdminTelegramIDs, id)
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
