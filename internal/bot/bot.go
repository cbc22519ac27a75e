// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go подключает обработчики фич и запускает polling.
package bot

import (
	"context"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/arena-bot/internal/bot/filters"
	"serotonyl.ru/arena-bot/internal/bot/middleware"
	"serotonyl.ru/arena-bot/internal/config"
	"serotonyl.ru/arena-bot/internal/features/admin"
	"serotonyl.ru/arena-bot/internal/features/catalog"
	"serotonyl.ru/arena-bot/internal/features/combat"
	"serotonyl.ru/arena-bot/internal/features/economy"
	"serotonyl.ru/arena-bot/internal/features/players"
	"serotonyl.ru/arena-bot/internal/features/progression"
	"serotonyl.ru/arena-bot/internal/features/subscription"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *telego.Bot
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	playerHandler       *players.Handler
	economyHandler      *economy.Handler
	combatHandler       *combat.Handler
	catalogHandler      *catalog.Handler
	subscriptionHandler *subscription.Handler
	adminHandler        *admin.Handler

	playerService      *players.Service
	economyService     *economy.Service
	progressionService *progression.Service

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *telego.Bot,
	cfg *config.Config,
	playerService *players.Service,
	playerHandler *players.Handler,
	economyService *economy.Service,
	economyHandler *economy.Handler,
	progressionService *progression.Service,
	combatHandler *combat.Handler,
	catalogHandler *catalog.Handler,
	subscriptionHandler *subscription.Handler,
	adminHandler *admin.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:                 api,
		cfg:                 cfg,
		chatFilter:          chatFilter,
		rateLimiter:         middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		playerHandler:       playerHandler,
		economyHandler:      economyHandler,
		combatHandler:       combatHandler,
		catalogHandler:      catalogHandler,
		subscriptionHandler: subscriptionHandler,
		adminHandler:        adminHandler,
		playerService:       playerService,
		economyService:      economyService,
		progressionService:  progressionService,
		parser:              NewCommandParser(),
		inflight:            make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
// Блокируется до отмены контекста.
func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: b.cfg.BotUpdateTimeoutSeconds,
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			return nil

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return nil
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd telego.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic()

	if update.Message == nil {
		return
	}
	message := update.Message

	// Обрабатываем новых участников (событие вступления)
	if len(message.NewChatMembers) > 0 {
		if message.Chat.ID == b.cfg.ArenaChatID {
			b.handleNewMembers(ctx, message.NewChatMembers)
		}
		return
	}

	if message.Text == "" {
		return
	}

	// Логируем входящее
	middleware.LogMessage(message)

	// Проверяем доступ (ARENA_CHAT_ID или DM игрока)
	if !b.chatFilter.CheckAccess(ctx, message) {
		return
	}

	// Rate limiting
	if message.From != nil && !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	// EnsurePlayer — ошибки нельзя игнорировать, иначе потом будет "оно не работает"
	created, err := b.playerService.EnsurePlayer(ctx, userID,
		message.From.Username, message.From.FirstName,
	)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("EnsurePlayer failed")
	}
	// Первый контакт через сообщение, а не через вступление в чат:
	// стартовый баланс выдаётся так же, как в handleNewMembers.
	if created {
		if err := b.economyService.CreateBalance(ctx, userID, b.cfg.EconomyStartingBalance); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("CreateBalance failed")
		}
	}

	// В DM проверяем админ-панель
	if message.Chat.Type == telego.ChatTypePrivate {
		if b.adminHandler.HandleAdminMessage(ctx, chatID, userID, message.Text) {
			return
		}
	}

	// Парсим команду
	cmd, args, isCommand := b.parser.ParseCommand(message.Text)

	if isCommand {
		b.routeCommand(ctx, chatID, userID, cmd, args)
		return
	}

	if chatID == b.cfg.ArenaChatID {
		// Не команда в основном чате — опыт за содержательное сообщение
		if err := b.progressionService.GrantMessageExperience(ctx, userID, message.Text); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("GrantMessageExperience failed")
		}
	}
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")

	switch cmd {
	case "start", "help", "помощь":
		b.sendMessage(ctx, chatID, strings.Join([]string{
			"⚔️ Арена. Команды:",
			"!профиль — уровень, здоровье, подписка",
			"!кристаллы — баланс, !отсыпать @ник сумма, !транзакции",
			"!герои — персонажи, !герой имя — выбрать",
			"!атака @ник — удар, !щит — поставить щит",
			"!премиум, !продлить, !подписка, !автопродление вкл/выкл",
		}, "\n"))

	case "профиль":
		b.playerHandler.HandleProfile(ctx, chatID, userID)

	case "кристаллы", "баланс":
		b.economyHandler.HandleBalance(ctx, chatID, userID)

	case "отсыпать":
		b.economyHandler.HandleTransfer(ctx, chatID, userID, args)

	case "транзакции":
		b.economyHandler.HandleTransactions(ctx, chatID, userID)

	case "герой":
		b.catalogHandler.HandleSelect(ctx, chatID, userID, args)

	case "герои":
		b.catalogHandler.HandleList(ctx, chatID, userID)

	case "атака":
		if b.cfg.FeatureCombatEnabled {
			b.combatHandler.HandleAttack(ctx, chatID, userID, args)
		} else {
			b.sendMessage(ctx, chatID, "⚔️ Арена временно закрыта")
		}

	case "щит":
		if b.cfg.FeatureCombatEnabled {
			b.combatHandler.HandleShield(ctx, chatID, userID)
		}

	case "премиум":
		if b.cfg.FeaturePremiumEnabled {
			b.subscriptionHandler.HandleBuy(ctx, chatID, userID)
		} else {
			b.sendMessage(ctx, chatID, "⭐ Подписки временно отключены")
		}

	case "продлить":
		if b.cfg.FeaturePremiumEnabled {
			b.subscriptionHandler.HandleExtra(ctx, chatID, userID)
		}

	case "подписка":
		if b.cfg.FeaturePremiumEnabled {
			b.subscriptionHandler.HandleStatus(ctx, chatID, userID)
		}

	case "автопродление":
		if b.cfg.FeaturePremiumEnabled {
			b.subscriptionHandler.HandleAutoRenew(ctx, chatID, userID, args)
		}
	}
}

// handleNewMembers обрабатывает вступление новых участников.
func (b *Bot) handleNewMembers(ctx context.Context, newMembers []telego.User) {
	for _, user := range newMembers {
		if user.IsBot {
			continue
		}
		if err := b.playerService.HandleNewPlayer(ctx, user.ID, user.Username, user.FirstName); err != nil {
			log.WithError(err).WithField("user_id", user.ID).Warn("HandleNewPlayer failed")
			continue
		}
		if err := b.economyService.CreateBalance(ctx, user.ID, b.cfg.EconomyStartingBalance); err != nil {
			log.WithError(err).WithField("user_id", user.ID).Warn("CreateBalance failed")
		}

		log.WithField("user", user.Username).Info("Новый игрок обработан")
	}
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := b.api.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// SendMessageToUser отправляет сообщение пользователю (для уведомлений).
// Используется сервисами как Notifier: ошибки доставки не критичны.
func (b *Bot) SendMessageToUser(userID int64, text string) {
	if _, err := b.api.SendMessage(context.Background(), tu.Message(tu.ID(userID), text)); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить сообщение")
	}
}

// CommandParser парсит русские команды с префиксами !, . и /
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	text = strings.TrimSpace(text)
	parts := strings.Fields(text)

	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
