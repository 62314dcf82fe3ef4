package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"order_of_ash/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const playerColumns = `tg_id, name, fragments, next_final_window, last_final_submit, completed,
	curse_expires, referral_code, referred_by, invited_count, referral_reward_issued, created_at`

type PlayerRepository struct {
	db *pgxpool.Pool
}

func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// GenerateReferralCode генерирует уникальный реферальный код
func GenerateReferralCode() string {
	bytes := make([]byte, 6)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func scanPlayer(row pgx.Row) (*domain.Player, error) {
	var p domain.Player
	var fragments []int32
	err := row.Scan(&p.TgID, &p.Name, &fragments, &p.NextFinalWindow, &p.LastFinalSubmit,
		&p.Completed, &p.CurseExpires, &p.ReferralCode, &p.ReferredBy,
		&p.InvitedCount, &p.ReferralRewardIssued, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError(domain.KindNotFound, "player not found")
		}
		return nil, err
	}
	p.Fragments = make([]int, 0, len(fragments))
	for _, f := range fragments {
		p.Fragments = append(p.Fragments, int(f))
	}
	return &p, nil
}

// GetByTgID возвращает игрока по telegram id
func (r *PlayerRepository) GetByTgID(ctx context.Context, tgID int64) (*domain.Player, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE tg_id = $1`, tgID)
	return scanPlayer(row)
}

// Upsert создает игрока при первом входе или обновляет имя.
// nextFinalWindow задается только при создании.
func (r *PlayerRepository) Upsert(ctx context.Context, tgID int64, name string, nextFinalWindow time.Time) (*domain.Player, error) {
	// до 5 попыток на случай коллизии реферального кода
	var lastErr error
	for i := 0; i < 5; i++ {
		row := r.db.QueryRow(ctx,
			`INSERT INTO players (tg_id, name, next_final_window, referral_code)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (tg_id) DO UPDATE SET name = EXCLUDED.name
			 RETURNING `+playerColumns,
			tgID, name, nextFinalWindow, GenerateReferralCode())
		p, err := scanPlayer(row)
		if err == nil {
			return p, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// GrantFragment добавляет фрагмент; дубликаты отбрасываются на уровне SQL
func (r *PlayerRepository) GrantFragment(ctx context.Context, tgID int64, fragment int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE players SET fragments = array_append(fragments, $2)
		 WHERE tg_id = $1 AND NOT fragments @> ARRAY[$2::int]`,
		tgID, fragment)
	return err
}

// SetCurse устанавливает момент истечения проклятия
func (r *PlayerRepository) SetCurse(ctx context.Context, tgID int64, until time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE players SET curse_expires = $2 WHERE tg_id = $1`, tgID, until)
	return err
}

// RecordFinalSubmit фиксирует попытку отправки финальной фразы.
// Пишется на каждую попытку, успешную и нет: так работает суточный троттлинг.
func (r *PlayerRepository) RecordFinalSubmit(ctx context.Context, tgID int64, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE players SET last_final_submit = $2 WHERE tg_id = $1`, tgID, at)
	return err
}

// MarkCompleted отмечает игрока, разгадавшего финальную фразу
func (r *PlayerRepository) MarkCompleted(ctx context.Context, tgID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE players SET completed = TRUE WHERE tg_id = $1`, tgID)
	return err
}

// Delete удаляет игрока и все его данные (каскадно)
func (r *PlayerRepository) Delete(ctx context.Context, tgID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM players WHERE tg_id = $1`, tgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError(domain.KindNotFound, "player not found")
	}
	return nil
}

// Top возвращает топ игроков по числу собранных фрагментов
func (r *PlayerRepository) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT tg_id, name, COALESCE(array_length(fragments, 1), 0) AS cnt
		 FROM players
		 ORDER BY cnt DESC, created_at ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var top []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.TgID, &e.Name, &e.FragmentsCount); err != nil {
			continue
		}
		top = append(top, e)
	}
	return top, rows.Err()
}

// CountPlayers возвращает общее число игроков (для админ бота)
func (r *PlayerRepository) CountPlayers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM players`).Scan(&n)
	return n, err
}

// GetByReferralCode находит игрока по реферальному коду
func (r *PlayerRepository) GetByReferralCode(ctx context.Context, code string) (*domain.Player, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE referral_code = $1`, code)
	return scanPlayer(row)
}

// ApplyReferral привязывает приглашенного и увеличивает счетчик пригласившего.
// Повторная привязка не проходит: referred_by пишется только если он NULL.
func (r *PlayerRepository) ApplyReferral(ctx context.Context, referrerID, referredID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE players SET referred_by = $1
		 WHERE tg_id = $2 AND referred_by IS NULL`,
		referrerID, referredID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError(domain.KindValidation, "already referred")
	}

	_, err = tx.Exec(ctx,
		`UPDATE players SET invited_count = invited_count + 1 WHERE tg_id = $1`,
		referrerID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// IssueReferralReward атомарно помечает награду выданной.
// Возвращает false, если награда уже была выдана.
func (r *PlayerRepository) IssueReferralReward(ctx context.Context, tgID int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE players SET referral_reward_issued = TRUE
		 WHERE tg_id = $1 AND referral_reward_issued = FALSE`,
		tgID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
