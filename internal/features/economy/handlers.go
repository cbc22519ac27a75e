// Package economy — handlers.go обрабатывает команды:
// !кристаллы (баланс), !отсыпать (перевод), !транзакции (история).
package economy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/arena-bot/internal/common"
	"serotonyl.ru/arena-bot/internal/features/players"
)

// Handler обрабатывает команды экономики.
type Handler struct {
	service       *Service         // Сервис экономики
	playerService *players.Service // Сервис игроков (для поиска получателя)
	bot           *telego.Bot      // API Telegram для отправки ответов
}

// NewHandler создаёт новый обработчик экономических команд.
func NewHandler(service *Service, playerService *players.Service, bot *telego.Bot) *Handler {
	return &Handler{
		service:       service,
		playerService: playerService,
		bot:           bot,
	}
}

// HandleBalance обрабатывает команду !кристаллы — показывает баланс.
//
// Формат ответа:
//
//	💎 Баланс: 150 кристаллов
func (h *Handler) HandleBalance(ctx context.Context, chatID int64, userID int64) {
	balance, err := h.service.GetBalance(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения баланса")
		h.sendMessage(ctx, chatID, "❌ Ошибка получения баланса")
		return
	}

	text := fmt.Sprintf("💎 Баланс: %s", common.FormatBalance(balance))
	h.sendMessage(ctx, chatID, text)
}

// HandleTransfer обрабатывает команду !отсыпать @username 100.
// Переводит указанную сумму от отправителя к получателю.
//
// Формат: !отсыпать @username 100
// или: !отсыпать username 100 (без @)
//
// Ответ при успехе:
//
//	✅ Переведено 100 кристаллов @username
//	Твой баланс: 50 кристаллов
func (h *Handler) HandleTransfer(ctx context.Context, chatID int64, fromUserID int64, args []string) {
	// Проверяем аргументы: нужен @username и сумма
	if len(args) < 2 {
		h.sendMessage(ctx, chatID, "❌ Формат: !отсыпать @username сумма")
		return
	}

	// Парсим username (убираем @ если есть)
	username := strings.TrimPrefix(args[0], "@")
	if username == "" {
		h.sendMessage(ctx, chatID, "❌ Укажите @username получателя")
		return
	}

	// Парсим сумму
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount <= 0 {
		h.sendMessage(ctx, chatID, "❌ Сумма должна быть положительным числом")
		return
	}

	// Находим получателя по username
	recipient, err := h.playerService.GetByUsername(ctx, username)
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ Игрок не найден")
		return
	}

	// Выполняем перевод
	err = h.service.Transfer(ctx, fromUserID, recipient.UserID, amount)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrSelfTransfer):
			h.sendMessage(ctx, chatID, "❌ Нельзя переводить кристаллы самому себе")
		case errors.Is(err, common.ErrInsufficientBalance):
			var ife *common.InsufficientFundsError
			if errors.As(err, &ife) {
				h.sendMessage(ctx, chatID, fmt.Sprintf("❌ Не хватает %s",
					common.FormatBalance(ife.Shortfall())))
			} else {
				h.sendMessage(ctx, chatID, "❌ Недостаточно кристаллов на счёте")
			}
		case errors.Is(err, common.ErrInvalidAmount):
			h.sendMessage(ctx, chatID, "❌ Сумма должна быть положительной")
		default:
			log.WithError(err).Error("Ошибка перевода")
			h.sendMessage(ctx, chatID, "❌ Ошибка выполнения перевода")
		}
		return
	}

	// Получаем новый баланс отправителя
	newBalance, _ := h.service.GetBalance(ctx, fromUserID)

	text := fmt.Sprintf("✅ Переведено %s @%s\nТвой баланс: %s",
		common.FormatBalance(amount), username, common.FormatBalance(newBalance))
	h.sendMessage(ctx, chatID, text)
}

// HandleTransactions обрабатывает команду !транзакции — показывает историю.
func (h *Handler) HandleTransactions(ctx context.Context, chatID int64, userID int64) {
	history, err := h.service.GetTransactionHistory(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения транзакций")
		h.sendMessage(ctx, chatID, "❌ Ошибка получения истории транзакций")
		return
	}

	// Отправляем с MarkdownV2 для поддержки спойлеров
	msg := tu.Message(tu.ID(chatID), history).WithParseMode(telego.ModeMarkdownV2)
	if _, err := h.bot.SendMessage(ctx, msg); err != nil {
		// Если MarkdownV2 не сработал — отправляем без форматирования
		h.sendMessage(ctx, chatID, history)
	}
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
