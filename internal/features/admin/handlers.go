// Package admin — handlers.go обрабатывает взаимодействие с админ-панелью.
// Панель работает в личных сообщениях: аутентификация по паролю,
// затем текстовые команды.
package admin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"
)

// Handler обрабатывает админ-команды.
type Handler struct {
	service *Service
	bot     *telego.Bot
}

// NewHandler создаёт обработчик админ-панели.
func NewHandler(service *Service, bot *telego.Bot) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleAdminMessage обрабатывает любое сообщение от администратора в DM.
// Возвращает true, если сообщение было обработано панелью.
func (h *Handler) HandleAdminMessage(ctx context.Context, chatID int64, userID int64, text string) bool {
	// Проверяем, является ли пользователь админом
	if !h.service.cfg.IsAdmin(userID) {
		return false
	}

	// Обрабатываем состояние ожидания пароля
	state := h.service.GetState(userID)
	if state != nil && state.State == StateAwaitingPassword {
		h.handlePasswordInput(ctx, chatID, userID, text)
		return true
	}

	// Проверяем активную сессию
	if !h.service.HasActiveSession(ctx, userID) {
		// Нет сессии — запрашиваем пароль
		h.sendMessage(ctx, chatID, "🔐 Введите пароль для доступа к админ-панели:")
		h.service.SetState(userID, StateAwaitingPassword, nil)
		return true
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "помощь", "панель", "админ":
		h.showHelp(ctx, chatID)
	case "выдать":
		h.handleGive(ctx, chatID, userID, fields[1:])
	case "списать":
		h.handleTake(ctx, chatID, userID, fields[1:])
	case "уровень":
		h.handleSetLevel(ctx, chatID, userID, fields[1:])
	case "удалить":
		h.handleRemove(ctx, chatID, userID, fields[1:])
	case "акция":
		h.handlePromotion(ctx, chatID, strings.TrimSpace(strings.TrimPrefix(text, fields[0])))
	case "выход":
		if err := h.service.Logout(ctx, userID); err != nil {
			log.WithError(err).Error("Ошибка выхода из админ-панели")
		}
		h.sendMessage(ctx, chatID, "👋 Сессия завершена")
	default:
		return false
	}
	return true
}

// handlePasswordInput обрабатывает ввод пароля.
func (h *Handler) handlePasswordInput(ctx context.Context, chatID int64, userID int64, password string) {
	h.service.ClearState(userID)

	if err := h.service.VerifyPassword(ctx, userID, password); err != nil {
		h.sendMessage(ctx, chatID, fmt.Sprintf("❌ %s", err.Error()))
		return
	}

	h.sendMessage(ctx, chatID, "✅ Аутентификация успешна!")
	h.showHelp(ctx, chatID)
}

// showHelp показывает список команд панели.
func (h *Handler) showHelp(ctx context.Context, chatID int64) {
	h.sendMessage(ctx, chatID, strings.Join([]string{
		"🛠 Команды админ-панели:",
		"• выдать @игрок сумма — начислить кристаллы",
		"• списать @игрок сумма — отнять кристаллы",
		"• уровень @игрок N — переопределить уровень",
		"• удалить @игрок — удалить игрока с историей",
		"• акция Имя | цена | продление | дд.мм.гггг | дд.мм.гггг",
		"• выход — завершить сессию",
	}, "\n"))
}

func (h *Handler) handleGive(ctx context.Context, chatID int64, adminID int64, args []string) {
	username, amount, ok := parseUserAmount(args)
	if !ok {
		h.sendMessage(ctx, chatID, "❌ Формат: выдать @игрок сумма")
		return
	}
	if err := h.service.GiveCurrency(ctx, adminID, username, amount); err != nil {
		h.sendMessage(ctx, chatID, fmt.Sprintf("❌ Ошибка: %s", err.Error()))
		return
	}
	h.sendMessage(ctx, chatID, fmt.Sprintf("✅ Начислено %d @%s", amount, username))
}

func (h *Handler) handleTake(ctx context.Context, chatID int64, adminID int64, args []string) {
	username, amount, ok := parseUserAmount(args)
	if !ok {
		h.sendMessage(ctx, chatID, "❌ Формат: списать @игрок сумма")
		return
	}
	if err := h.service.TakeCurrency(ctx, adminID, username, amount); err != nil {
		h.sendMessage(ctx, chatID, fmt.Sprintf("❌ Ошибка: %s", err.Error()))
		return
	}
	h.sendMessage(ctx, chatID, fmt.Sprintf("✅ Списано %d у @%s", amount, username))
}

func (h *Handler) handleSetLevel(ctx context.Context, chatID int64, adminID int64, args []string) {
	username, level, ok := parseUserAmount(args)
	if !ok || level < 1 {
		h.sendMessage(ctx, chatID, "❌ Формат: уровень @игрок N (N ≥ 1)")
		return
	}
	if err := h.service.SetLevel(ctx, adminID, username, int(level)); err != nil {
		h.sendMessage(ctx, chatID, fmt.Sprintf("❌ Ошибка: %s", err.Error()))
		return
	}
	h.sendMessage(ctx, chatID, fmt.Sprintf("✅ Уровень @%s теперь %d", username, level))
}

func (h *Handler) handleRemove(ctx context.Context, chatID int64, adminID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(ctx, chatID, "❌ Формат: удалить @игрок")
		return
	}
	username := strings.TrimPrefix(args[0], "@")
	if err := h.service.RemovePlayer(ctx, adminID, username); err != nil {
		h.sendMessage(ctx, chatID, fmt.Sprintf("❌ Ошибка: %s", err.Error()))
		return
	}
	h.sendMessage(ctx, chatID, fmt.Sprintf("✅ Игрок @%s удалён", username))
}

// handlePromotion разбирает "Имя | цена | продление | начало | конец".
func (h *Handler) handlePromotion(ctx context.Context, chatID int64, args string) {
	parts := strings.Split(args, "|")
	if len(parts) != 5 {
		h.sendMessage(ctx, chatID, "❌ Формат: акция Имя | цена | продление | дд.мм.гггг | дд.мм.гггг")
		return
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	premiumCost, err1 := strconv.ParseInt(parts[1], 10, 64)
	maintenanceCost, err2 := strconv.ParseInt(parts[2], 10, 64)
	if err1 != nil || err2 != nil || premiumCost <= 0 || maintenanceCost <= 0 {
		h.sendMessage(ctx, chatID, "❌ Цены должны быть положительными числами")
		return
	}

	if err := h.service.CreatePromotion(ctx, parts[0], premiumCost, maintenanceCost, parts[3], parts[4]); err != nil {
		h.sendMessage(ctx, chatID, fmt.Sprintf("❌ Ошибка: %s", err.Error()))
		return
	}
	h.sendMessage(ctx, chatID, fmt.Sprintf("🎉 Акция «%s» сохранена: %s — %s", parts[0], parts[3], parts[4]))
}

// parseUserAmount разбирает пару "@username число".
func parseUserAmount(args []string) (string, int64, bool) {
	if len(args) < 2 {
		return "", 0, false
	}
	username := strings.TrimPrefix(args[0], "@")
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if username == "" || err != nil || amount <= 0 {
		return "", 0, false
	}
	return username, amount, true
}

func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
