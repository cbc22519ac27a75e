// Package combat — handlers.go обрабатывает команды:
// !атака @username (удар выбранным персонажем), !щит (поставить щит).
package combat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/arena-bot/internal/common"
	"serotonyl.ru/arena-bot/internal/features/catalog"
	"serotonyl.ru/arena-bot/internal/features/players"
)

// Handler обрабатывает боевые команды.
type Handler struct {
	service        *Service
	playerService  *players.Service
	catalogService *catalog.Service // Источник силы удара и щита
	bot            *telego.Bot
}

// NewHandler создаёт новый обработчик боевых команд.
func NewHandler(service *Service, playerService *players.Service, catalogService *catalog.Service, bot *telego.Bot) *Handler {
	return &Handler{
		service:        service,
		playerService:  playerService,
		catalogService: catalogService,
		bot:            bot,
	}
}

// HandleAttack обрабатывает команду !атака @username.
// Сила удара берётся у выбранного персонажа атакующего.
func (h *Handler) HandleAttack(ctx context.Context, chatID int64, attackerID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(ctx, chatID, "❌ Формат: !атака @username")
		return
	}

	username := strings.TrimPrefix(args[0], "@")
	if username == "" {
		h.sendMessage(ctx, chatID, "❌ Укажите @username цели")
		return
	}

	target, err := h.playerService.GetByUsername(ctx, username)
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ Игрок не найден")
		return
	}

	char, err := h.catalogService.GetSelected(ctx, attackerID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения персонажа")
		h.sendMessage(ctx, chatID, "❌ Ошибка получения персонажа")
		return
	}
	if char == nil {
		h.sendMessage(ctx, chatID, "❌ Сначала выберите персонажа: !герой имя")
		return
	}

	out, err := h.service.Attack(ctx, attackerID, target.UserID, char.Damage)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrSelfTransfer):
			h.sendMessage(ctx, chatID, "❌ Нельзя атаковать самого себя")
		default:
			log.WithError(err).Error("Ошибка атаки")
			h.sendMessage(ctx, chatID, "❌ Ошибка атаки")
		}
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⚔️ %s бьёт @%s на %d", char.Name, username, char.Damage)
	if out.AbsorbedByShield > 0 {
		fmt.Fprintf(&b, "\n🛡 Щит поглотил %d", out.AbsorbedByShield)
	}
	if out.Defeated {
		fmt.Fprintf(&b, "\n💀 @%s повержен!", username)
	} else {
		fmt.Fprintf(&b, "\n❤️ Осталось: %d/%d", out.State.Health, out.State.MaxHealth)
	}
	h.sendMessage(ctx, chatID, b.String())
}

// HandleShield обрабатывает команду !щит — ставит щит мощностью
// выбранного персонажа. Новый щит заменяет старый.
func (h *Handler) HandleShield(ctx context.Context, chatID int64, userID int64) {
	char, err := h.catalogService.GetSelected(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения персонажа")
		h.sendMessage(ctx, chatID, "❌ Ошибка получения персонажа")
		return
	}
	if char == nil {
		h.sendMessage(ctx, chatID, "❌ Сначала выберите персонажа: !герой имя")
		return
	}

	if char.ShieldPower <= 0 {
		h.sendMessage(ctx, chatID, fmt.Sprintf("❌ %s не умеет ставить щит", char.Name))
		return
	}

	if err := h.service.CastShield(ctx, userID, char.ShieldPower); err != nil {
		log.WithError(err).Error("Ошибка установки щита")
		h.sendMessage(ctx, chatID, "❌ Ошибка установки щита")
		return
	}

	h.sendMessage(ctx, chatID, fmt.Sprintf("🛡 Щит на %d установлен", char.ShieldPower))
}

func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
