// Package progression — service.go содержит бизнес-логику начисления опыта.
// Сервис начисляет опыт, пересекает рубежи уровней и выдаёт награды.
package progression

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/arena-bot/internal/common"
	"serotonyl.ru/arena-bot/internal/config"
	"serotonyl.ru/arena-bot/internal/features/economy"
)

// Store — хранилище прогрессии (реализуется Repository).
type Store interface {
	AddExperience(ctx context.Context, userID int64, amount int64) (*ExperienceGain, error)
	GetProgress(ctx context.Context, userID int64) (int64, int, error)
	OverrideLevel(ctx context.Context, userID int64, level int) error
}

// Ledger — узкий интерфейс к экономике для выдачи рубежных наград.
type Ledger interface {
	AddCurrency(ctx context.Context, userID int64, delta int64, reason economy.Reason, description string) error
}

// Catalog — коллаборатор каталога персонажей: открывает контент уровня.
// Результат не влияет на инварианты прогрессии, ошибки только логируются.
type Catalog interface {
	UnlockContentForLevel(ctx context.Context, userID int64, level int) error
}

// Notifier отправляет игроку сообщение. Доставка — fire-and-forget:
// неудача не откатывает уже зафиксированное состояние.
type Notifier func(userID int64, text string)

// Service управляет прогрессией игроков.
type Service struct {
	store   Store
	ledger  Ledger
	catalog Catalog
	notify  Notifier
	cfg     *config.Config
}

// NewService создаёт новый сервис прогрессии.
func NewService(store Store, ledger Ledger, catalog Catalog, notify Notifier, cfg *config.Config) *Service {
	return &Service{
		store:   store,
		ledger:  ledger,
		catalog: catalog,
		notify:  notify,
		cfg:     cfg,
	}
}

// GrantExperience начисляет опыт и обрабатывает пересечённые рубежи.
// Отрицательное количество отклоняется (опыт через этот путь не убывает),
// ноль — no-op. Одно большое начисление может пересечь несколько рубежей:
// каждый обрабатывается ровно один раз, по возрастанию уровня.
func (s *Service) GrantExperience(ctx context.Context, userID int64, amount int64) error {
	if amount < 0 {
		return common.ErrInvalidAmount
	}
	if amount == 0 {
		return nil
	}

	gain, err := s.store.AddExperience(ctx, userID, amount)
	if err != nil {
		return err
	}

	if gain.NewLevel <= gain.OldLevel {
		return nil
	}

	log.WithFields(log.Fields{
		"user_id":   userID,
		"old_level": gain.OldLevel,
		"new_level": gain.NewLevel,
	}).Info("Игрок повысил уровень")

	// Открываем контент каждого нового уровня. Каталог — внешний
	// коллаборатор: его ошибки не откатывают начисленный опыт.
	for lvl := gain.OldLevel + 1; lvl <= gain.NewLevel; lvl++ {
		if err := s.catalog.UnlockContentForLevel(ctx, userID, lvl); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"user_id": userID,
				"level":   lvl,
			}).Warn("Не удалось открыть контент уровня")
		}
	}

	// Выдаём рубежные награды по возрастанию
	for _, lvl := range MilestonesCrossed(gain.OldLevel, gain.NewLevel) {
		reward := MilestoneReward(lvl)
		if reward <= 0 {
			continue
		}
		description := fmt.Sprintf("Награда за %d уровень", lvl)
		if err := s.ledger.AddCurrency(ctx, userID, reward, economy.ReasonMilestone, description); err != nil {
			return fmt.Errorf("ошибка выдачи награды за уровень %d: %w", lvl, err)
		}
		if s.notify != nil {
			s.notify(userID, fmt.Sprintf("🏆 Уровень %d! Награда: %s",
				lvl, common.FormatBalance(reward)))
		}
	}

	if s.notify != nil {
		s.notify(userID, fmt.Sprintf("⬆️ Новый уровень: %d", gain.NewLevel))
	}

	return nil
}

// GrantMessageExperience начисляет опыт за сообщение в чате,
// если оно подходит по критериям (3+ слова, не команда).
func (s *Service) GrantMessageExperience(ctx context.Context, userID int64, text string) error {
	if !IsValidForExperience(text) {
		return nil
	}
	return s.GrantExperience(ctx, userID, s.cfg.ProgressionMessageXP)
}

// GetProgress возвращает текущие опыт и уровень игрока.
func (s *Service) GetProgress(ctx context.Context, userID int64) (int64, int, error) {
	return s.store.GetProgress(ctx, userID)
}

// OverrideLevel — явное админское переопределение уровня.
// Единственный путь записи уровня мимо кривой; всегда логируется.
func (s *Service) OverrideLevel(ctx context.Context, adminID, userID int64, level int) error {
	if err := s.store.OverrideLevel(ctx, userID, level); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"admin_id": adminID,
		"user_id":  userID,
		"level":    level,
	}).Warn("Уровень переопределён администратором")
	return nil
}
