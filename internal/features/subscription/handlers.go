// Package subscription — handlers.go обрабатывает команды:
// !премиум (покупка), !продлить (досрочное продление),
// !автопродление вкл/выкл, !подписка (статус).
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/arena-bot/internal/common"
	"serotonyl.ru/arena-bot/internal/features/players"
)

// Handler обрабатывает команды подписки.
type Handler struct {
	service       *Service
	playerService *players.Service
	bot           *telego.Bot
}

// NewHandler создаёт новый обработчик команд подписки.
func NewHandler(service *Service, playerService *players.Service, bot *telego.Bot) *Handler {
	return &Handler{
		service:       service,
		playerService: playerService,
		bot:           bot,
	}
}

// HandleBuy обрабатывает команду !премиум — покупка подписки на месяц.
func (h *Handler) HandleBuy(ctx context.Context, chatID int64, userID int64) {
	expiresAt, err := h.service.BuyPremium(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrAlreadyPremium):
			h.sendMessage(ctx, chatID, "❌ Подписка уже активна. Продлить досрочно: !продлить")
		case errors.Is(err, common.ErrInsufficientBalance):
			var ife *common.InsufficientFundsError
			if errors.As(err, &ife) {
				h.sendMessage(ctx, chatID, fmt.Sprintf("❌ Не хватает %s на покупку подписки",
					common.FormatBalance(ife.Shortfall())))
			} else {
				h.sendMessage(ctx, chatID, "❌ Недостаточно кристаллов на покупку подписки")
			}
		default:
			log.WithError(err).Error("Ошибка покупки подписки")
			h.sendMessage(ctx, chatID, "❌ Ошибка покупки подписки")
		}
		return
	}

	h.sendMessage(ctx, chatID, fmt.Sprintf("⭐ Премиум активен до %s", common.FormatDate(expiresAt)))
}

// HandleExtra обрабатывает команду !продлить — досрочное продление
// на месяц от текущего срока.
func (h *Handler) HandleExtra(ctx context.Context, chatID int64, userID int64) {
	newExpiry, err := h.service.BuyPremiumExtra(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotPremium):
			h.sendMessage(ctx, chatID, "❌ Подписки нет. Купить: !премиум")
		case errors.Is(err, common.ErrInsufficientBalance):
			var ife *common.InsufficientFundsError
			if errors.As(err, &ife) {
				h.sendMessage(ctx, chatID, fmt.Sprintf("❌ Не хватает %s на продление",
					common.FormatBalance(ife.Shortfall())))
			} else {
				h.sendMessage(ctx, chatID, "❌ Недостаточно кристаллов на продление")
			}
		default:
			log.WithError(err).Error("Ошибка продления подписки")
			h.sendMessage(ctx, chatID, "❌ Ошибка продления подписки")
		}
		return
	}

	h.sendMessage(ctx, chatID, fmt.Sprintf("⭐ Подписка продлена до %s", common.FormatDate(newExpiry)))
}

// HandleAutoRenew обрабатывает команду !автопродление вкл/выкл.
func (h *Handler) HandleAutoRenew(ctx context.Context, chatID int64, userID int64, args []string) {
	if len(args) < 1 || (args[0] != "вкл" && args[0] != "выкл") {
		h.sendMessage(ctx, chatID, "❌ Формат: !автопродление вкл или !автопродление выкл")
		return
	}
	on := args[0] == "вкл"

	if err := h.service.SetAutoRenew(ctx, userID, on); err != nil {
		switch {
		case errors.Is(err, common.ErrNotPremium):
			h.sendMessage(ctx, chatID, "❌ Автопродление доступно только при активной подписке")
		case errors.Is(err, common.ErrNotFound):
			h.sendMessage(ctx, chatID, "❌ Игрок не найден")
		default:
			log.WithError(err).Error("Ошибка переключения автопродления")
			h.sendMessage(ctx, chatID, "❌ Ошибка переключения автопродления")
		}
		return
	}
}

// HandleStatus обрабатывает команду !подписка — статус и текущие цены.
func (h *Handler) HandleStatus(ctx context.Context, chatID int64, userID int64) {
	p, err := h.playerService.GetByUserID(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения статуса подписки")
		h.sendMessage(ctx, chatID, "❌ Ошибка получения статуса подписки")
		return
	}

	now := time.Now()
	costs, err := h.service.CurrentCosts(ctx, now)
	if err != nil {
		log.WithError(err).Error("Ошибка получения цен подписки")
		h.sendMessage(ctx, chatID, "❌ Ошибка получения цен подписки")
		return
	}

	var text string
	switch p.Subscription() {
	case players.StatePremiumActive:
		text = fmt.Sprintf("⭐ Премиум до %s\n🔄 Автопродление включено (%s/мес)",
			common.FormatDate(*p.PremiumExpiresAt), common.FormatBalance(costs.Maintenance))
	case players.StatePremiumNoRenew:
		text = fmt.Sprintf("⭐ Премиум до %s\n⏹ Автопродление выключено",
			common.FormatDate(*p.PremiumExpiresAt))
	default:
		text = fmt.Sprintf("💤 Подписки нет\n💎 Купить: !премиум — %s",
			common.FormatBalance(costs.Premium))
	}
	if costs.Promotion != "" {
		text += fmt.Sprintf("\n🎉 Действует акция «%s»", costs.Promotion)
	}

	h.sendMessage(ctx, chatID, text)
}

func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
