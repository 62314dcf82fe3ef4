package service

import (
	"context"
	"strings"
	"time"

	"order_of_ash/internal/domain"
	"order_of_ash/internal/logger"
	"order_of_ash/internal/metrics"
)

var (
	ErrEmptyPhrase  = domain.NewError(domain.KindValidation, "phrase is required")
	ErrWindowClosed = domain.NewError(domain.KindValidation, "final window is closed")
)

// FinalPlayerStore — то, что нужно финальному сервису от хранилища
type FinalPlayerStore interface {
	GetByTgID(ctx context.Context, tgID int64) (*domain.Player, error)
	RecordFinalSubmit(ctx context.Context, tgID int64, at time.Time) error
	MarkCompleted(ctx context.Context, tgID int64) error
}

// FinalService отвечает за окно финала и проверку секретной фразы
type FinalService struct {
	players FinalPlayerStore
	phrase  string

	// подменяется в тестах
	now func() time.Time

	// уведомление о разгаданной фразе (админ бот)
	onSolved func(tgID int64, name string)
}

// NewFinalService создает сервис финала
func NewFinalService(players FinalPlayerStore, phrase string) *FinalService {
	return &FinalService{
		players: players,
		phrase:  normalizePhrase(phrase),
		now:     time.Now,
	}
}

// SetSolvedCallback устанавливает уведомление о победителе
func (s *FinalService) SetSolvedCallback(fn func(tgID int64, name string)) {
	s.onSolved = fn
}

// Window возвращает доступность финальной отправки для игрока.
// Игрок указывается явно: никакого «последнего созданного» игрока.
// Неизвестный игрок — закрытое окно, а не ошибка.
func (s *FinalService) Window(ctx context.Context, tgID int64) Eligibility {
	player, err := s.players.GetByTgID(ctx, tgID)
	if err != nil {
		return EvaluatePlayer(s.now(), nil)
	}
	return EvaluatePlayer(s.now(), player)
}

// Validate проверяет финальную фразу. Момент попытки записывается
// до сравнения и независимо от его исхода: суточный троттлинг держит
// и неправильные ответы.
func (s *FinalService) Validate(ctx context.Context, tgID int64, phrase string) (bool, error) {
	if strings.TrimSpace(phrase) == "" {
		return false, ErrEmptyPhrase
	}

	player, err := s.players.GetByTgID(ctx, tgID)
	if err != nil {
		return false, err
	}

	now := s.now()
	if elig := EvaluatePlayer(now, player); !elig.CanSubmit {
		return false, ErrWindowClosed
	}

	if err := s.players.RecordFinalSubmit(ctx, tgID, now); err != nil {
		return false, domain.WrapError(domain.KindTransient, "не удалось записать попытку", err)
	}

	ok := normalizePhrase(phrase) == s.phrase && s.phrase != ""
	metrics.FinalSubmissions.WithLabelValues(boolLabel(ok)).Inc()

	if !ok {
		return false, nil
	}

	if err := s.players.MarkCompleted(ctx, tgID); err != nil {
		return false, domain.WrapError(domain.KindTransient, "не удалось отметить победителя", err)
	}

	logger.Info("финальная фраза разгадана", "tg_id", tgID)
	if s.onSolved != nil {
		go s.onSolved(tgID, player.Name)
	}
	return true, nil
}

// normalizePhrase: регистр и лишние пробелы не считаются ошибкой
func normalizePhrase(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
