package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"order_of_ash/internal/domain"
	"order_of_ash/internal/logger"
	"order_of_ash/internal/metrics"
	"order_of_ash/internal/payment"
	"order_of_ash/internal/ton"

	"github.com/google/uuid"
)

// ошибки предусловий; наружу уходят без обращения к платежному бэкенду
var (
	ErrMissingFragments = domain.NewError(domain.KindValidation, "Collect fragments #1–#3 first")
	ErrCursed           = domain.NewError(domain.KindValidation, "you are cursed, wait for it to expire")
)

// BurnPlayerStore — то, что burn-сервису нужно от хранилища игроков
type BurnPlayerStore interface {
	GetByTgID(ctx context.Context, tgID int64) (*domain.Player, error)
	GrantFragment(ctx context.Context, tgID int64, fragment int) error
	SetCurse(ctx context.Context, tgID int64, until time.Time) error
}

// BurnInvoiceStore — персистентность инвойсов
type BurnInvoiceStore interface {
	Create(ctx context.Context, inv *domain.BurnInvoice) error
	GetByID(ctx context.Context, id string) (*domain.BurnInvoice, error)
	MarkPaid(ctx context.Context, id string, fragment *int, at time.Time) (bool, error)
	MarkError(ctx context.Context, id string, kind domain.ErrorKind, at time.Time) error
	ListPending(ctx context.Context) ([]*domain.BurnInvoice, error)
}

// PaymentBackend — внешний платежный процессор
type PaymentBackend interface {
	CreateInvoice(ctx context.Context, tgID, amountNano int64, comment string) (*payment.Invoice, error)
	GetInvoiceStatus(ctx context.Context, invoiceID string) (*payment.InvoiceStatus, error)
}

// BurnService ведет burn-флоу: предусловия, создание инвойса и серверный
// поллинг статуса. На каждый pending инвойс — свой watcher с 3с тиком,
// по образцу фонового депозит-вотчера: ticker + stop канал + callbacks.
type BurnService struct {
	players  BurnPlayerStore
	invoices BurnInvoiceStore
	pay      PaymentBackend

	amountNano    int64
	curseDuration time.Duration
	pollInterval  time.Duration

	// кошелек платформы для ton://transfer ссылки, если бэкенд своей не дал
	platformWallet string

	// уведомления: оплаченный инвойс и ошибка авторизации платежного API
	onSettled  func(inv *domain.BurnInvoice)
	onAuthFail func(tgID int64)

	mu       sync.Mutex
	watchers map[string]chan struct{}
	wg       sync.WaitGroup
}

// NewBurnService создает сервис сжиганий
func NewBurnService(players BurnPlayerStore, invoices BurnInvoiceStore, pay PaymentBackend, amountNano int64, curseDuration time.Duration) *BurnService {
	return &BurnService{
		players:       players,
		invoices:      invoices,
		pay:           pay,
		amountNano:    amountNano,
		curseDuration: curseDuration,
		pollInterval:  3 * time.Second,
		watchers:      make(map[string]chan struct{}),
	}
}

// SetPlatformWallet задает кошелек для fallback-ссылки оплаты.
// Некорректный адрес отвергается сразу, на старте
func (s *BurnService) SetPlatformWallet(addr string) error {
	if !ton.ValidateAddress(addr) {
		return domain.NewError(domain.KindValidation, "некорректный TON адрес платформы")
	}
	s.platformWallet = addr
	return nil
}

// SetPollInterval меняет период опроса (тесты)
func (s *BurnService) SetPollInterval(d time.Duration) {
	s.pollInterval = d
}

// SetSettledCallback устанавливает уведомление о завершенном инвойсе
func (s *BurnService) SetSettledCallback(fn func(inv *domain.BurnInvoice)) {
	s.onSettled = fn
}

// SetAuthFailCallback устанавливает реакцию на ошибку авторизации:
// сессия игрока гасится, фронт уводится на повторный логин
func (s *BurnService) SetAuthFailCallback(fn func(tgID int64)) {
	s.onAuthFail = fn
}

// StartBurn проверяет предусловия, создает инвойс и запускает поллинг.
// При нарушении предусловий платежный бэкенд не вызывается вовсе.
func (s *BurnService) StartBurn(ctx context.Context, tgID int64) (*domain.BurnInvoice, error) {
	player, err := s.players.GetByTgID(ctx, tgID)
	if err != nil {
		return nil, err
	}

	if !player.HasMandatoryFragments() {
		return nil, ErrMissingFragments
	}
	if player.IsCursed(time.Now()) {
		return nil, ErrCursed
	}

	// новый инвойс — переход idle -> pending; статус задается машиной
	started, err := NextBurnState(BurnIdle, EventStart)
	if err != nil {
		return nil, domain.WrapError(domain.KindTransient, "недопустимый старт сжигания", err)
	}

	comment := "burn_" + uuid.NewString()
	ext, err := s.pay.CreateInvoice(ctx, tgID, s.amountNano, comment)
	if err != nil {
		return nil, err
	}

	payURL := ext.PaymentURL
	if payURL == "" && s.platformWallet != "" {
		payURL = ton.TransferLink(s.platformWallet, s.amountNano, comment)
	}

	inv := &domain.BurnInvoice{
		ID:         ext.ID,
		TgID:       tgID,
		AmountNano: s.amountNano,
		PaymentURL: payURL,
		Status:     InvoiceStatusOf(started),
	}
	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, domain.WrapError(domain.KindTransient, "не удалось сохранить инвойс", err)
	}

	metrics.BurnsStarted.Inc()
	s.watch(inv.ID, tgID)
	return inv, nil
}

// Status возвращает инвойс; чужой инвойс не отдается
func (s *BurnService) Status(ctx context.Context, invoiceID string, tgID int64) (*domain.BurnInvoice, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.TgID != tgID {
		return nil, domain.NewError(domain.KindNotFound, "invoice not found")
	}
	return inv, nil
}

// ResumePending возобновляет поллинг незавершенных инвойсов после рестарта
func (s *BurnService) ResumePending(ctx context.Context) error {
	pending, err := s.invoices.ListPending(ctx)
	if err != nil {
		return err
	}
	for _, inv := range pending {
		s.watch(inv.ID, inv.TgID)
	}
	if len(pending) > 0 {
		logger.Info("возобновлен поллинг инвойсов", "count", len(pending))
	}
	return nil
}

// Stop гасит все watchers и дожидается их завершения
func (s *BurnService) Stop() {
	s.mu.Lock()
	for id, stop := range s.watchers {
		close(stop)
		delete(s.watchers, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// watch запускает поллер для инвойса, если его еще нет
func (s *BurnService) watch(invoiceID string, tgID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.watchers[invoiceID]; ok {
		return
	}
	stop := make(chan struct{})
	s.watchers[invoiceID] = stop
	s.wg.Add(1)
	go s.pollInvoice(invoiceID, tgID, stop)
}

func (s *BurnService) removeWatcher(invoiceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stop, ok := s.watchers[invoiceID]; ok {
		delete(s.watchers, invoiceID)
		// канал мог быть уже закрыт через Stop
		select {
		case <-stop:
		default:
			close(stop)
		}
	}
}

// pollInvoice опрашивает статус раз в pollInterval до оплаты или ошибки.
// Ошибка опроса терминальна для попытки: ретраит только пользователь.
func (s *BurnService) pollInvoice(invoiceID string, tgID int64, stop chan struct{}) {
	defer s.wg.Done()
	defer s.removeWatcher(invoiceID)

	log := logger.With("invoice", invoiceID, "tg_id", tgID)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
			done, err := s.pollOnce(ctx, invoiceID, tgID)
			cancel()
			if err != nil {
				log.Error("поллинг инвойса завершился ошибкой", "error", err)
				s.settleError(invoiceID, tgID, err)
				return
			}
			if done {
				return
			}
		case <-stop:
			log.Debug("поллинг инвойса остановлен")
			return
		}
	}
}

// pollOnce — один опрос; true когда инвойс оплачен и зачислен
func (s *BurnService) pollOnce(ctx context.Context, invoiceID string, tgID int64) (bool, error) {
	metrics.BurnPolls.Inc()

	st, err := s.pay.GetInvoiceStatus(ctx, invoiceID)
	if err != nil {
		return false, err
	}
	if !st.Paid {
		return false, nil
	}

	return true, s.settlePaid(ctx, invoiceID, tgID)
}

// settlePaid зачисляет оплаченный инвойс: случайный недостающий фрагмент
// и проклятие-кулдаун до следующего сжигания
func (s *BurnService) settlePaid(ctx context.Context, invoiceID string, tgID int64) error {
	log := logger.With("invoice", invoiceID, "tg_id", tgID)

	// статус меняется только по допустимому переходу машины
	next, err := s.transition(ctx, invoiceID, EventPaid)
	if err != nil {
		log.Warn("оплата по уже завершенному инвойсу проигнорирована", "error", err)
		return nil
	}

	player, err := s.players.GetByTgID(ctx, tgID)
	if err != nil {
		return err
	}

	var granted *int
	if missing := player.MissingFragments(); len(missing) > 0 {
		f := missing[rand.Intn(len(missing))]
		if err := s.players.GrantFragment(ctx, tgID, f); err != nil {
			return err
		}
		granted = &f
		metrics.FragmentsGranted.Inc()
	}

	// двойное зачисление отсекается на уровне UPDATE ... WHERE status='pending'
	ok, err := s.invoices.MarkPaid(ctx, invoiceID, granted, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		log.Warn("инвойс уже был завершен, пропускаем")
		return nil
	}

	curseUntil := time.Now().Add(s.curseDuration)
	if err := s.players.SetCurse(ctx, tgID, curseUntil); err != nil {
		log.Error("не удалось наложить проклятие", "error", err)
	}

	metrics.BurnsSettled.WithLabelValues("paid").Inc()
	log.Info("burn оплачен", "fragment", granted, "cursed_until", curseUntil, "state", next)

	if s.onSettled != nil {
		inv, err := s.invoices.GetByID(ctx, invoiceID)
		if err == nil {
			go s.onSettled(inv)
		}
	}
	return nil
}

// settleError фиксирует ошибку попытки; при ошибке авторизации
// дополнительно гасится сессия игрока
func (s *BurnService) settleError(invoiceID string, tgID int64, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.transition(ctx, invoiceID, EventFail); err != nil {
		logger.Warn("ошибка по уже завершенному инвойсу проигнорирована", "invoice", invoiceID, "error", err)
		return
	}

	kind := domain.KindOf(cause)
	if err := s.invoices.MarkError(ctx, invoiceID, kind, time.Now()); err != nil {
		logger.Error("не удалось пометить инвойс ошибкой", "invoice", invoiceID, "error", err)
	}
	metrics.BurnsSettled.WithLabelValues("error").Inc()

	if kind == domain.KindAuth && s.onAuthFail != nil {
		go s.onAuthFail(tgID)
	}
}

// transition прогоняет событие через машину состояний относительно
// текущего статуса инвойса в хранилище
func (s *BurnService) transition(ctx context.Context, invoiceID string, ev BurnEvent) (BurnState, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return BurnIdle, err
	}
	return NextBurnState(BurnStateOf(inv.Status), ev)
}
