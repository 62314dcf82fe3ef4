package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"order_of_ash/internal/domain"
	"order_of_ash/internal/logger"
	"order_of_ash/internal/repository"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AdminBot обрабатывает команды администраторов через Telegram
type AdminBot struct {
	bot      *tgbotapi.BotAPI
	players  *repository.PlayerRepository
	invoices *repository.InvoiceRepository
	adminIDs []int64 // Telegram ID пользователей с правами админа
	stopCh   chan struct{}
	wg       sync.WaitGroup
	log      *slog.Logger
}

// NewAdminBot создаёт нового админ бота
func NewAdminBot(token string, players *repository.PlayerRepository, invoices *repository.InvoiceRepository, adminIDs []int64) (*AdminBot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log := logger.With("component", "admin_bot")
	log.Info("admin bot authorized", "username", bot.Self.UserName)

	return &AdminBot{
		bot:      bot,
		players:  players,
		invoices: invoices,
		adminIDs: adminIDs,
		stopCh:   make(chan struct{}),
		log:      log,
	}, nil
}

// Start запускает прослушивание команд
func (b *AdminBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}

			// Проверка является ли пользователь админом
			if !b.isAdmin(update.Message.From.ID) {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop останавливает бота и дожидается обработчиков
func (b *AdminBot) Stop() {
	close(b.stopCh)
	b.bot.StopReceivingUpdates()
	b.wg.Wait()
}

func (b *AdminBot) isAdmin(userID int64) bool {
	for _, id := range b.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *AdminBot) handleCommand(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var reply string
	switch msg.Command() {
	case "start", "help":
		reply = b.helpMessage()
	case "stats":
		reply = b.handleStats(ctx)
	case "player":
		reply = b.handlePlayer(ctx, msg.CommandArguments())
	case "curse":
		reply = b.handleCurse(ctx, msg.CommandArguments())
	case "uncurse":
		reply = b.handleUncurse(ctx, msg.CommandArguments())
	default:
		reply = "Неизвестная команда. /help"
	}

	b.reply(msg.Chat.ID, reply)
}

func (b *AdminBot) helpMessage() string {
	return strings.Join([]string{
		"Команды админа:",
		"/stats — игроки и сжигания",
		"/player <tg_id> — профиль игрока",
		"/curse <tg_id> <minutes> — наложить проклятие",
		"/uncurse <tg_id> — снять проклятие",
	}, "\n")
}

func (b *AdminBot) handleStats(ctx context.Context) string {
	players, err := b.players.CountPlayers(ctx)
	if err != nil {
		return "Ошибка получения статистики: " + err.Error()
	}
	burns, err := b.invoices.CountBurns(ctx)
	if err != nil {
		return "Ошибка получения статистики: " + err.Error()
	}
	return fmt.Sprintf("Игроков: %d\nОплаченных сжиганий: %d", players, burns)
}

func (b *AdminBot) handlePlayer(ctx context.Context, args string) string {
	tgID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return "Использование: /player <tg_id>"
	}

	p, err := b.players.GetByTgID(ctx, tgID)
	if err != nil {
		return "Игрок не найден"
	}

	curse := "нет"
	if p.IsCursed(time.Now()) {
		curse = p.CurseExpires.Format(time.RFC3339)
	}
	return fmt.Sprintf(
		"Игрок %d (%s)\nФрагменты: %v\nПриглашено: %d\nПроклятие до: %s\nФинал решен: %v",
		p.TgID, p.Name, p.Fragments, p.InvitedCount, curse, p.Completed,
	)
}

func (b *AdminBot) handleCurse(ctx context.Context, args string) string {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "Использование: /curse <tg_id> <minutes>"
	}
	tgID, err1 := strconv.ParseInt(parts[0], 10, 64)
	minutes, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || minutes <= 0 {
		return "Использование: /curse <tg_id> <minutes>"
	}

	until := time.Now().Add(time.Duration(minutes) * time.Minute)
	if err := b.players.SetCurse(ctx, tgID, until); err != nil {
		return "Ошибка: " + err.Error()
	}
	return fmt.Sprintf("Проклятие наложено до %s", until.Format(time.RFC3339))
}

func (b *AdminBot) handleUncurse(ctx context.Context, args string) string {
	tgID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return "Использование: /uncurse <tg_id>"
	}
	if err := b.players.SetCurse(ctx, tgID, time.Now()); err != nil {
		return "Ошибка: " + err.Error()
	}
	return "Проклятие снято"
}

func (b *AdminBot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.bot.Send(msg); err != nil {
		b.log.Error("failed to send reply", "chat_id", chatID, "error", err)
	}
}

// NotifyBurnPaid уведомляет админов об оплаченном сжигании
func (b *AdminBot) NotifyBurnPaid(inv *domain.BurnInvoice) {
	fragment := "—"
	if inv.FragmentGranted != nil {
		fragment = strconv.Itoa(*inv.FragmentGranted)
	}
	text := fmt.Sprintf(
		"Оплачено сжигание %s\nИгрок: %d\nСумма: %d nanoTON\nВыдан фрагмент: %s",
		inv.ID, inv.TgID, inv.AmountNano, fragment,
	)
	b.notifyAdmins(text)
}

// NotifyFinalSolved уведомляет админов о разгаданной финальной фразе
func (b *AdminBot) NotifyFinalSolved(tgID int64, name string) {
	b.notifyAdmins(fmt.Sprintf("Финальная фраза разгадана!\nИгрок: %d (%s)", tgID, name))
}

func (b *AdminBot) notifyAdmins(text string) {
	for _, id := range b.adminIDs {
		msg := tgbotapi.NewMessage(id, text)
		if _, err := b.bot.Send(msg); err != nil {
			b.log.Error("failed to notify admin", "admin_id", id, "error", err)
		}
	}
}
