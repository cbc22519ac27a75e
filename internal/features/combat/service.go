// Package combat — service.go связывает чистый расчёт урона с состоянием игроков.
// Удары, щиты и награды за победу.
package combat

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/arena-bot/internal/common"
	"serotonyl.ru/arena-bot/internal/config"
	"serotonyl.ru/arena-bot/internal/features/economy"
)

// Store — хранилище боевого состояния (реализуется Repository).
type Store interface {
	ApplyDamage(ctx context.Context, userID int64, incomingDamage int) (*Outcome, error)
	SetShield(ctx context.Context, userID int64, amount int) error
	GetState(ctx context.Context, userID int64) (*State, error)
}

// Progression — узкий интерфейс для начисления опыта за победу.
type Progression interface {
	GrantExperience(ctx context.Context, userID int64, amount int64) error
}

// Ledger — узкий интерфейс для выдачи добычи.
type Ledger interface {
	AddCurrency(ctx context.Context, userID int64, delta int64, reason economy.Reason, description string) error
}

// Notifier отправляет игроку сообщение (fire-and-forget).
type Notifier func(userID int64, text string)

// Service управляет боями между игроками.
type Service struct {
	store       Store
	progression Progression
	ledger      Ledger
	notify      Notifier
	cfg         *config.Config
}

// NewService создаёт новый боевой сервис.
func NewService(store Store, progression Progression, ledger Ledger, notify Notifier, cfg *config.Config) *Service {
	return &Service{
		store:       store,
		progression: progression,
		ledger:      ledger,
		notify:      notify,
		cfg:         cfg,
	}
}

// Attack наносит цели удар указанной силы.
// Урон проходит через сопротивление и щит цели; при поражении
// атакующий получает опыт и добычу, оба игрока уведомляются.
func (s *Service) Attack(ctx context.Context, attackerID, targetID int64, damage int) (*Outcome, error) {
	if attackerID == targetID {
		return nil, common.ErrSelfTransfer
	}
	if damage <= 0 {
		return nil, common.ErrInvalidAmount
	}

	out, err := s.store.ApplyDamage(ctx, targetID, damage)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"attacker": attackerID,
		"target":   targetID,
		"damage":   damage,
		"absorbed": out.AbsorbedByShield,
		"applied":  out.AppliedToHealth,
		"defeated": out.Defeated,
	}).Info("Удар нанесён")

	if !out.Defeated {
		return out, nil
	}

	// Победа: опыт и добыча атакующему. Состояние цели уже
	// зафиксировано — неудача наград не откатывает бой.
	if err := s.progression.GrantExperience(ctx, attackerID, s.cfg.CombatKillExperience); err != nil {
		log.WithError(err).WithField("user_id", attackerID).Warn("Не удалось начислить опыт за победу")
	}
	if s.cfg.CombatKillLoot > 0 {
		if err := s.ledger.AddCurrency(ctx, attackerID, s.cfg.CombatKillLoot,
			economy.ReasonKillLoot, "Добыча за победу в бою"); err != nil {
			log.WithError(err).WithField("user_id", attackerID).Warn("Не удалось выдать добычу")
		}
	}

	if s.notify != nil {
		s.notify(targetID, "💀 Вы повержены! Здоровье восстановлено для новой схватки")
		s.notify(attackerID, fmt.Sprintf("⚔️ Победа! +%d опыта, +%s",
			s.cfg.CombatKillExperience, common.FormatBalance(s.cfg.CombatKillLoot)))
	}

	return out, nil
}

// CastShield ставит игроку щит указанной мощности.
// Новый щит заменяет старый, а не суммируется с ним.
func (s *Service) CastShield(ctx context.Context, userID int64, amount int) error {
	if amount < 0 {
		return common.ErrInvalidAmount
	}
	if err := s.store.SetShield(ctx, userID, amount); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"shield":  amount,
	}).Debug("Щит установлен")
	return nil
}

// GetState возвращает боевое состояние игрока.
func (s *Service) GetState(ctx context.Context, userID int64) (*State, error) {
	return s.store.GetState(ctx, userID)
}
