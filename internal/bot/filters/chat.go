package filters

import (
	"context"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/arena-bot/internal/features/players"
)

// ChatFilter пропускает сообщения только из чата арены
// и из личек зарегистрированных игроков.
type ChatFilter struct {
	arenaChatID   int64
	playerService *players.Service
	bot           *telego.Bot
}

func NewChatFilter(arenaChatID int64, playerService *players.Service, bot *telego.Bot) *ChatFilter {
	return &ChatFilter{
		arenaChatID:   arenaChatID,
		playerService: playerService,
		bot:           bot,
	}
}

func (f *ChatFilter) CheckAccess(ctx context.Context, message *telego.Message) bool {
	if message == nil {
		log.WithField("component", "ChatFilter").Warn("nil message")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Warn("nil message.From (service/channel message?)")
		return false
	}
	if f.arenaChatID == 0 {
		log.WithField("component", "ChatFilter").Error("arenaChatID is 0 (config bug)")
		return false
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	logger := log.WithFields(log.Fields{
		"component":     "ChatFilter",
		"chat_id":       chatID,
		"chat_type":     message.Chat.Type,
		"user_id":       userID,
		"arena_chat_id": f.arenaChatID,
	})

	// 1) Разрешённый чат
	if chatID == f.arenaChatID {
		logger.Debug("allow: arena chat")
		return true
	}

	// 2) Личка: сначала быстро по БД
	if message.Chat.Type == telego.ChatTypePrivate {
		isMember, err := f.playerService.IsMember(ctx, userID)
		if err != nil {
			logger.WithError(err).Error("player check failed (db)")
			return false
		}
		if isMember {
			logger.Debug("allow: private (db player)")
			return true
		}

		// 2.1) БД не знает пользователя: проверяем членство через Telegram API
		cm, err := f.bot.GetChatMember(ctx, &telego.GetChatMemberParams{
			ChatID: tu.ID(f.arenaChatID),
			UserID: userID,
		})
		if err != nil {
			logger.WithError(err).Error("player check failed (telegram GetChatMember)")
			return false
		}

		switch cm.MemberStatus() {
		case telego.MemberStatusCreator, telego.MemberStatusAdministrator,
			telego.MemberStatusMember, telego.MemberStatusRestricted:
			if _, err := f.playerService.EnsurePlayer(
				ctx, userID,
				message.From.Username,
				message.From.FirstName,
			); err != nil {
				logger.WithError(err).Warn("failed to backfill player to DB (allowing anyway)")
			}
			logger.WithField("tg_status", cm.MemberStatus()).Info("allow: private (telegram member, backfilled)")
			return true

		default:
			logger.WithField("tg_status", cm.MemberStatus()).Info("deny: private (not a chat member)")
			if _, sendErr := f.bot.SendMessage(ctx,
				tu.Message(tu.ID(chatID), "❌ Бот работает только для участников арены")); sendErr != nil {
				logger.WithError(sendErr).Warn("failed to send deny message")
			}
			return false
		}
	}

	// 3) Остальные чаты игнорируем
	logger.Info("deny: not arena chat and not private")
	return false
}
