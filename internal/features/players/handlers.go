// Package players — handlers.go обрабатывает команду !профиль.
package players

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/arena-bot/internal/common"
)

// NextThresholdFunc возвращает минимальный опыт, необходимый для уровня.
// Подставляется при сборке приложения, чтобы пакет профиля не зависел
// от пакета кривой опыта.
type NextThresholdFunc func(level int) int64

// Handler обрабатывает команды профиля игрока.
type Handler struct {
	service       *Service
	bot           *telego.Bot
	nextThreshold NextThresholdFunc
}

// NewHandler создаёт новый обработчик профиля.
func NewHandler(service *Service, bot *telego.Bot, nextThreshold NextThresholdFunc) *Handler {
	return &Handler{service: service, bot: bot, nextThreshold: nextThreshold}
}

// HandleProfile обрабатывает команду !профиль — сводка по игроку:
// уровень, опыт до следующего уровня, здоровье, щит, сопротивление
// и статус подписки.
func (h *Handler) HandleProfile(ctx context.Context, chatID int64, userID int64) {
	p, err := h.service.GetByUserID(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения профиля")
		h.sendMessage(ctx, chatID, "❌ Ошибка получения профиля")
		return
	}

	h.sendMessage(ctx, chatID, profileText(p, h.nextThreshold))
}

// profileText собирает текст профиля. Вынесено из обработчика,
// чтобы формат проверялся без Telegram API.
func profileText(p *Player, nextThreshold NextThresholdFunc) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 %s\n", p.DisplayName())
	fmt.Fprintf(&b, "🏆 Уровень %d", p.Level)

	if nextThreshold != nil {
		next := nextThreshold(p.Level + 1)
		if next > p.Experience {
			fmt.Fprintf(&b, " (до следующего: %d опыта)", next-p.Experience)
		}
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "❤️ Здоровье: %d/%d\n", p.Health, p.MaxHealth)
	if p.Shield > 0 {
		fmt.Fprintf(&b, "🛡 Щит: %d\n", p.Shield)
	}
	if p.ResistancePercent > 0 {
		fmt.Fprintf(&b, "🧿 Сопротивление: %d%%\n", p.ResistancePercent)
	}

	switch p.Subscription() {
	case StatePremiumActive:
		fmt.Fprintf(&b, "⭐ Премиум до %s (автопродление включено)", common.FormatDate(*p.PremiumExpiresAt))
	case StatePremiumNoRenew:
		fmt.Fprintf(&b, "⭐ Премиум до %s (без автопродления)", common.FormatDate(*p.PremiumExpiresAt))
	default:
		b.WriteString("💤 Подписки нет")
	}

	return b.String()
}

func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
