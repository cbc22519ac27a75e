// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики,
// фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/arena-bot/internal/bot"
	"serotonyl.ru/arena-bot/internal/bot/filters"
	"serotonyl.ru/arena-bot/internal/config"
	"serotonyl.ru/arena-bot/internal/db/postgres"
	"serotonyl.ru/arena-bot/internal/features/admin"
	"serotonyl.ru/arena-bot/internal/features/catalog"
	"serotonyl.ru/arena-bot/internal/features/combat"
	"serotonyl.ru/arena-bot/internal/features/economy"
	"serotonyl.ru/arena-bot/internal/features/players"
	"serotonyl.ru/arena-bot/internal/features/progression"
	"serotonyl.ru/arena-bot/internal/features/subscription"
	"serotonyl.ru/arena-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *telego.Bot
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Запускаем миграции
	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := telego.NewBot(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	me, err := botAPI.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка авторизации бота: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)

	// Уведомления сервисов: личное сообщение, ошибки доставки не критичны
	notify := func(userID int64, text string) {
		if _, err := botAPI.SendMessage(context.Background(), tu.Message(tu.ID(userID), text)); err != nil {
			log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить уведомление")
		}
	}

	// === 3. Репозитории ===
	playerRepo := players.NewRepository(pool)
	economyRepo := economy.NewRepository(pool)
	progressionRepo := progression.NewRepository(pool)
	combatRepo := combat.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	subscriptionRepo := subscription.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 4. Сервисы ===
	playerService := players.NewService(playerRepo, cfg)
	economyService := economy.NewService(economyRepo)
	catalogService := catalog.NewService(catalogRepo, playerRepo, notify)
	progressionService := progression.NewService(progressionRepo, economyService, catalogService, notify, cfg)
	combatService := combat.NewService(combatRepo, progressionService, economyService, notify, cfg)
	subscriptionService := subscription.NewService(subscriptionRepo, playerRepo, catalogService, notify, cfg)
	adminService := admin.NewService(adminRepo, playerService, economyService, progressionService, subscriptionService, cfg)

	// === 5. Обработчики ===
	playerHandler := players.NewHandler(playerService, botAPI, progression.ThresholdForLevel)
	economyHandler := economy.NewHandler(economyService, playerService, botAPI)
	combatHandler := combat.NewHandler(combatService, playerService, catalogService, botAPI)
	catalogHandler := catalog.NewHandler(catalogService, botAPI)
	subscriptionHandler := subscription.NewHandler(subscriptionService, playerService, botAPI)
	adminHandler := admin.NewHandler(adminService, botAPI)

	// === 6. Фильтры ===
	chatFilter := filters.NewChatFilter(cfg.ArenaChatID, playerService, botAPI)

	// === 7. Собираем бота ===
	b := bot.New(
		botAPI, cfg,
		playerService, playerHandler,
		economyService, economyHandler,
		progressionService,
		combatHandler,
		catalogHandler,
		subscriptionHandler,
		adminHandler,
		chatFilter,
	)

	// === 8. Планировщик задач ===
	scheduler := jobs.NewScheduler(cfg, playerRepo, subscriptionService, adminService, b.SendMessageToUser)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	// Инициализируем систему миграций
	if err := postgres.EnsureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	// Выполняем миграции по порядку
	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Players},
		{2, migration002Economy},
		{3, migration003Characters},
		{4, migration004Promotions},
		{5, migration005Admin},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Players = `
CREATE TABLE IF NOT EXISTS players (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255),
    first_name VARCHAR(255) NOT NULL,
    experience BIGINT NOT NULL DEFAULT 0 CHECK (experience >= 0),
    level INTEGER NOT NULL DEFAULT 1 CHECK (level >= 1),
    selected_character_id BIGINT,
    is_premium BOOLEAN NOT NULL DEFAULT FALSE,
    auto_renew BOOLEAN NOT NULL DEFAULT FALSE,
    premium_expires_at TIMESTAMP,
    health INTEGER NOT NULL DEFAULT 100 CHECK (health >= 0),
    max_health INTEGER NOT NULL DEFAULT 100 CHECK (max_health > 0),
    shield INTEGER NOT NULL DEFAULT 0 CHECK (shield >= 0),
    resistance_percent INTEGER NOT NULL DEFAULT 0 CHECK (resistance_percent BETWEEN 0 AND 100),
    is_banned BOOLEAN NOT NULL DEFAULT FALSE,
    joined_at TIMESTAMP DEFAULT NOW(),
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_players_user_id ON players(user_id);
CREATE INDEX IF NOT EXISTS idx_players_username ON players(username);
CREATE INDEX IF NOT EXISTS idx_players_premium ON players(is_premium) WHERE is_premium = TRUE;
`

var migration002Economy = `
CREATE TABLE IF NOT EXISTS balances (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL REFERENCES players(user_id) ON DELETE CASCADE,
    balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
    total_earned BIGINT NOT NULL DEFAULT 0,
    total_spent BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    from_user_id BIGINT,
    to_user_id BIGINT,
    amount BIGINT NOT NULL,
    reason VARCHAR(50) NOT NULL,
    description TEXT,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_from_user ON transactions(from_user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_to_user ON transactions(to_user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC);
`

var migration003Characters = `
CREATE TABLE IF NOT EXISTS characters (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) UNIQUE NOT NULL,
    min_level INTEGER NOT NULL DEFAULT 1 CHECK (min_level >= 1),
    is_premium BOOLEAN NOT NULL DEFAULT FALSE,
    free_equivalent_id BIGINT REFERENCES characters(id),
    damage INTEGER NOT NULL DEFAULT 10 CHECK (damage > 0),
    shield_power INTEGER NOT NULL DEFAULT 0 CHECK (shield_power >= 0),
    resistance_percent INTEGER NOT NULL DEFAULT 0 CHECK (resistance_percent BETWEEN 0 AND 100),
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_characters_min_level ON characters(min_level);

INSERT INTO characters (name, min_level, is_premium, damage, shield_power, resistance_percent) VALUES
    ('Новобранец', 1, FALSE, 10, 0, 0),
    ('Мечник', 5, FALSE, 15, 10, 0),
    ('Латник', 10, FALSE, 15, 20, 10),
    ('Берсерк', 15, FALSE, 25, 0, 5),
    ('Паладин', 20, FALSE, 20, 30, 15),
    ('Колдун', 25, FALSE, 30, 15, 10),
    ('Страж арены', 30, FALSE, 30, 40, 20),
    ('Чемпион', 40, FALSE, 40, 30, 25)
ON CONFLICT (name) DO NOTHING;

INSERT INTO characters (name, min_level, is_premium, free_equivalent_id, damage, shield_power, resistance_percent)
SELECT v.name, v.min_level, TRUE, c.id, v.damage, v.shield_power, v.resistance_percent
FROM (VALUES
    ('Гладиатор'::varchar, 5, 'Мечник'::varchar, 20, 15, 5),
    ('Храмовник', 20, 'Паладин', 28, 40, 20),
    ('Архимаг', 25, 'Колдун', 40, 20, 15)
) AS v(name, min_level, free_name, damage, shield_power, resistance_percent)
JOIN characters c ON c.name = v.free_name
ON CONFLICT (name) DO NOTHING;
`

var migration004Promotions = `
CREATE TABLE IF NOT EXISTS promotions (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) UNIQUE NOT NULL,
    starts_on DATE NOT NULL,
    ends_on DATE NOT NULL CHECK (ends_on >= starts_on),
    premium_cost BIGINT NOT NULL CHECK (premium_cost > 0),
    maintenance_cost BIGINT NOT NULL CHECK (maintenance_cost > 0),
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_promotions_window ON promotions(starts_on, ends_on);
`

var migration005Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(255) UNIQUE,
    authenticated_at TIMESTAMP DEFAULT NOW(),
    expires_at TIMESTAMP,
    last_activity TIMESTAMP DEFAULT NOW(),
    is_active BOOLEAN DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user_id ON admin_sessions(user_id);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    attempt_time TIMESTAMP DEFAULT NOW(),
    success BOOLEAN DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_admin_attempts_user_time ON admin_login_attempts(user_id, attempt_time);
`
