package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DailyClaimRepository struct {
	db *pgxpool.Pool
}

func NewDailyClaimRepository(db *pgxpool.Pool) *DailyClaimRepository {
	return &DailyClaimRepository{db: db}
}

// PeriodStart возвращает начало текущих суток (UTC) — ключ ежедневного квеста
func PeriodStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// GetCoupon возвращает купон за сегодня, если он уже получен
func (r *DailyClaimRepository) GetCoupon(ctx context.Context, tgID int64, now time.Time) (string, error) {
	var coupon string
	err := r.db.QueryRow(ctx,
		`SELECT coupon FROM daily_claims WHERE tg_id = $1 AND period_start = $2`,
		tgID, PeriodStart(now),
	).Scan(&coupon)
	if err != nil {
		return "", err
	}
	return coupon, nil
}

// Claim атомарно выдает купон за сегодня.
// Возвращает false, если за этот день уже получали.
func (r *DailyClaimRepository) Claim(ctx context.Context, tgID int64, coupon string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO daily_claims (tg_id, period_start, coupon)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (tg_id, period_start) DO NOTHING`,
		tgID, PeriodStart(now), coupon)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
