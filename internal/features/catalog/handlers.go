// Package catalog — handlers.go обрабатывает команды:
// !герой имя (выбор персонажа), !герои (список доступных).
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/arena-bot/internal/common"
)

// Handler обрабатывает команды каталога персонажей.
type Handler struct {
	service *Service
	bot     *telego.Bot
}

// NewHandler создаёт новый обработчик каталога.
func NewHandler(service *Service, bot *telego.Bot) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleSelect обрабатывает команду !герой имя — выбор персонажа.
// Без аргумента показывает текущего персонажа.
func (h *Handler) HandleSelect(ctx context.Context, chatID int64, userID int64, args []string) {
	if len(args) < 1 {
		char, err := h.service.GetSelected(ctx, userID)
		if err != nil {
			log.WithError(err).Error("Ошибка получения персонажа")
			h.sendMessage(ctx, chatID, "❌ Ошибка получения персонажа")
			return
		}
		if char == nil {
			h.sendMessage(ctx, chatID, "❌ Персонаж ещё не выбран. Список: !герои")
			return
		}
		h.sendMessage(ctx, chatID, fmt.Sprintf("🎭 Текущий персонаж: %s\n%s", char.Name, describe(char)))
		return
	}

	name := strings.Join(args, " ")
	char, err := h.service.SelectCharacter(ctx, userID, name)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			h.sendMessage(ctx, chatID, "❌ Персонаж с таким именем не найден. Список: !герои")
		case errors.Is(err, common.ErrCharacterLocked):
			h.sendMessage(ctx, chatID, "🔒 Этот персонаж пока недоступен — нужен уровень выше или премиум")
		default:
			log.WithError(err).Error("Ошибка выбора персонажа")
			h.sendMessage(ctx, chatID, "❌ Ошибка выбора персонажа")
		}
		return
	}

	h.sendMessage(ctx, chatID, fmt.Sprintf("✅ Выбран %s\n%s", char.Name, describe(char)))
}

// HandleList обрабатывает команду !герои — список доступных персонажей.
func (h *Handler) HandleList(ctx context.Context, chatID int64, userID int64) {
	chars, err := h.service.ListAvailable(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения списка персонажей")
		h.sendMessage(ctx, chatID, "❌ Ошибка получения списка персонажей")
		return
	}
	if len(chars) == 0 {
		h.sendMessage(ctx, chatID, "Пока нет доступных персонажей")
		return
	}

	var b strings.Builder
	b.WriteString("🎭 Доступные персонажи:\n")
	for _, c := range chars {
		star := ""
		if c.IsPremium {
			star = " ⭐"
		}
		fmt.Fprintf(&b, "• %s%s — %s\n", c.Name, star, describe(c))
	}
	h.sendMessage(ctx, chatID, b.String())
}

// describe — краткая сводка характеристик персонажа.
func describe(c *Character) string {
	parts := []string{fmt.Sprintf("⚔️ %d", c.Damage)}
	if c.ShieldPower > 0 {
		parts = append(parts, fmt.Sprintf("🛡 %d", c.ShieldPower))
	}
	if c.ResistancePercent > 0 {
		parts = append(parts, fmt.Sprintf("🧿 %d%%", c.ResistancePercent))
	}
	return strings.Join(parts, ", ")
}

func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
