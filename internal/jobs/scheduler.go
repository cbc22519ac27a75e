// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежедневная проверка подписок,
// напоминания об окончании и ночная очистка админ-сессий.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/arena-bot/internal/common"
	"serotonyl.ru/arena-bot/internal/config"
	"serotonyl.ru/arena-bot/internal/features/admin"
	"serotonyl.ru/arena-bot/internal/features/players"
	"serotonyl.ru/arena-bot/internal/features/subscription"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron                *cron.Cron
	loc                 *time.Location
	cfg                 *config.Config
	playerRepo          *players.Repository
	subscriptionService *subscription.Service
	adminService        *admin.Service
	sendFunc            func(userID int64, text string)
}

// NewScheduler создаёт планировщик задач в часовом поясе приложения.
func NewScheduler(cfg *config.Config, playerRepo *players.Repository,
	subscriptionService *subscription.Service, adminService *admin.Service,
	sendFunc func(userID int64, text string)) *Scheduler {
	loc := cfg.Location()

	return &Scheduler{
		cron:                cron.New(cron.WithLocation(loc)),
		loc:                 loc,
		cfg:                 cfg,
		playerRepo:          playerRepo,
		subscriptionService: subscriptionService,
		adminService:        adminService,
		sendFunc:            sendFunc,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Ежедневная проверка подписок в 00:05 (после полуночи, чтобы
	// "сегодня" уже было новым днём)
	s.cron.AddFunc("5 0 * * *", func() {
		log.Info("[CRON] Ежедневная проверка подписок")
		s.sweepSubscriptions(ctx)
	})

	// Напоминания об окончании подписки в полдень
	s.cron.AddFunc("0 12 * * *", func() {
		log.Debug("[CRON] Напоминания об окончании подписки")
		s.sendExpiryReminders(ctx)
	})

	// Ночная очистка истёкших админ-сессий
	s.cron.AddFunc("0 3 * * *", func() {
		if err := s.adminService.PurgeExpired(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка очистки админ-сессий")
		}
	})

	s.cron.Start()
	log.WithField("tz", s.loc.String()).Info("Планировщик задач запущен")
}

// sweepSubscriptions прогоняет проверку срока по всем премиум-игрокам.
// Каждый игрок обрабатывается независимо: ошибка одного не
// останавливает остальных.
func (s *Scheduler) sweepSubscriptions(ctx context.Context) {
	ids, err := s.playerRepo.ListPremium(ctx)
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка получения списка подписчиков")
		return
	}

	now := time.Now().In(s.loc)
	var failed int
	for _, userID := range ids {
		if err := s.subscriptionService.CheckExpiry(ctx, userID, now); err != nil {
			failed++
			log.WithError(err).WithField("user_id", userID).Error("[CRON] Ошибка проверки подписки")
		}
	}

	log.WithFields(log.Fields{
		"total":  len(ids),
		"failed": failed,
	}).Info("[CRON] Проверка подписок завершена")
}

// sendExpiryReminders напоминает о скором окончании подписки тем,
// у кого она истекает в ближайшие PREMIUM_REMINDER_DAYS дней
// и автопродление выключено.
func (s *Scheduler) sendExpiryReminders(ctx context.Context) {
	now := time.Now().In(s.loc)
	before := now.AddDate(0, 0, s.cfg.PremiumReminderDays)

	expiring, err := s.playerRepo.ListExpiringSoon(ctx, before)
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка получения истекающих подписок")
		return
	}

	for _, p := range expiring {
		if p.AutoRenew || p.PremiumExpiresAt == nil {
			continue
		}
		days := int(p.PremiumExpiresAt.Sub(now).Hours() / 24)
		if days < 0 {
			continue
		}
		s.sendFunc(p.UserID, reminderText(days, *p.PremiumExpiresAt))
	}
}

// reminderText собирает текст напоминания об окончании подписки.
func reminderText(days int, expiresAt time.Time) string {
	return fmt.Sprintf("⏳ Подписка закончится через %d %s (%s). Продлить: !продлить",
		days, common.PluralizeDays(days), common.FormatDate(expiresAt))
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
