package db

import (
	"context"
	"time"

	"order_of_ash/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect открывает пул соединений и проверяет доступность базы
func Connect(databaseURL string) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Fatal("не удалось создать пул соединений", "error", err)
	}

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("база данных недоступна", "error", err)
	}

	logger.Info("database connected")
	return pool
}

// схема создается идемпотентно при старте
var schema = []string{
	`CREATE TABLE IF NOT EXISTS players (
		tg_id                  BIGINT PRIMARY KEY,
		name                   TEXT NOT NULL DEFAULT '',
		fragments              INT[] NOT NULL DEFAULT '{}',
		next_final_window      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_final_submit      TIMESTAMPTZ,
		completed              BOOLEAN NOT NULL DEFAULT FALSE,
		curse_expires          TIMESTAMPTZ,
		referral_code          TEXT UNIQUE NOT NULL,
		referred_by            BIGINT,
		invited_count          INT NOT NULL DEFAULT 0,
		referral_reward_issued BOOLEAN NOT NULL DEFAULT FALSE,
		created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS burn_invoices (
		id               TEXT PRIMARY KEY,
		tg_id            BIGINT NOT NULL REFERENCES players(tg_id) ON DELETE CASCADE,
		amount_nano      BIGINT NOT NULL,
		payment_url      TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL DEFAULT 'pending',
		error_kind       TEXT,
		fragment_granted INT,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		settled_at       TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_burn_invoices_tg_id ON burn_invoices(tg_id)`,
	`CREATE INDEX IF NOT EXISTS idx_burn_invoices_pending ON burn_invoices(status) WHERE status = 'pending'`,
	`CREATE TABLE IF NOT EXISTS daily_claims (
		tg_id        BIGINT NOT NULL REFERENCES players(tg_id) ON DELETE CASCADE,
		period_start DATE NOT NULL,
		coupon       TEXT NOT NULL,
		claimed_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (tg_id, period_start)
	)`,
}

// EnsureSchema накатывает таблицы, если их еще нет
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
