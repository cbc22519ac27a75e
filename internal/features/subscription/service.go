// Package subscription — service.go содержит state-машину подписки.
// Состояния: FREE → PREMIUM_ACTIVE ↔ PREMIUM_ACTIVE_NO_RENEW → LAPSED.
// Все переходы со списанием атомарны на уровне репозитория.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/arena-bot/internal/common"
	"serotonyl.ru/arena-bot/internal/config"
	"serotonyl.ru/arena-bot/internal/features/players"
)

// Store — переходы жизненного цикла подписки (реализуется Repository).
type Store interface {
	ActivatePremium(ctx context.Context, userID int64, cost int64, expiresAt time.Time) error
	RenewPremium(ctx context.Context, userID int64, cost int64, now, newExpiry time.Time) error
	TopUpPremium(ctx context.Context, userID int64, cost int64) (time.Time, error)
	Lapse(ctx context.Context, userID int64, now time.Time) error
	SetAutoRenew(ctx context.Context, userID int64, on bool) error
	ListPromotions(ctx context.Context) ([]*Promotion, error)
	CreatePromotion(ctx context.Context, p *Promotion) error
}

// PlayerStore — чтение игрока (реализуется players.Repository).
type PlayerStore interface {
	GetByUserID(ctx context.Context, userID int64) (*players.Player, error)
}

// Catalog — коллаборатор каталога: откат премиум-персонажа
// на бесплатный аналог при завершении подписки.
type Catalog interface {
	DemoteToFreeEquivalent(ctx context.Context, userID int64, level int) error
}

// Notifier отправляет игроку сообщение (fire-and-forget).
type Notifier func(userID int64, text string)

// Service управляет премиум-подписками.
type Service struct {
	store   Store
	playerS PlayerStore
	catalog Catalog
	notify  Notifier
	cfg     *config.Config

	// now подменяется в тестах; операции, которые вызывает планировщик,
	// принимают время явным параметром
	now func() time.Time
}

// NewService создаёт новый сервис подписок.
func NewService(store Store, playerS PlayerStore, catalog Catalog, notify Notifier, cfg *config.Config) *Service {
	return &Service{
		store:   store,
		playerS: playerS,
		catalog: catalog,
		notify:  notify,
		cfg:     cfg,
		now:     time.Now,
	}
}

// CurrentCosts возвращает цены подписки на указанный момент.
// Акции перечитываются при каждом вызове — активная акция может
// смениться между тиками, кеша нет намеренно.
func (s *Service) CurrentCosts(ctx context.Context, now time.Time) (Costs, error) {
	promos, err := s.store.ListPromotions(ctx)
	if err != nil {
		return Costs{}, fmt.Errorf("ошибка чтения акций: %w", err)
	}
	return CostsFor(promos, now, s.cfg.PremiumCost, s.cfg.PremiumMaintenanceCost), nil
}

// BuyPremium покупает подписку: списывает текущую цену (акционную или
// базовую) и включает премиум на месяц с автопродлением.
// При нехватке кристаллов состояние не меняется, ошибка несёт
// размер нехватки.
func (s *Service) BuyPremium(ctx context.Context, userID int64) (time.Time, error) {
	now := s.now()
	costs, err := s.CurrentCosts(ctx, now)
	if err != nil {
		return time.Time{}, err
	}

	expiresAt := common.AddMonth(now)
	if err := s.store.ActivatePremium(ctx, userID, costs.Premium, expiresAt); err != nil {
		return time.Time{}, err
	}

	log.WithFields(log.Fields{
		"user_id":    userID,
		"cost":       costs.Premium,
		"promotion":  costs.Promotion,
		"expires_at": expiresAt,
	}).Info("Премиум-подписка куплена")

	if s.notify != nil {
		s.notify(userID, fmt.Sprintf("⭐ Премиум активен до %s", common.FormatDate(expiresAt)))
	}
	return expiresAt, nil
}

// BuyPremiumExtra — досрочное продление на месяц ОТ ТЕКУЩЕГО срока
// (аддитивно). Доступно только при активной подписке; списывается
// цена продления, не цена покупки.
func (s *Service) BuyPremiumExtra(ctx context.Context, userID int64) (time.Time, error) {
	costs, err := s.CurrentCosts(ctx, s.now())
	if err != nil {
		return time.Time{}, err
	}

	newExpiry, err := s.store.TopUpPremium(ctx, userID, costs.Maintenance)
	if err != nil {
		return time.Time{}, err
	}

	log.WithFields(log.Fields{
		"user_id":    userID,
		"cost":       costs.Maintenance,
		"expires_at": newExpiry,
	}).Info("Подписка продлена досрочно")

	if s.notify != nil {
		s.notify(userID, fmt.Sprintf("⭐ Подписка продлена до %s", common.FormatDate(newExpiry)))
	}
	return newExpiry, nil
}

// SetAutoRenew переключает автопродление (PREMIUM_ACTIVE ↔
// PREMIUM_ACTIVE_NO_RENEW). Денег не касается.
func (s *Service) SetAutoRenew(ctx context.Context, userID int64, on bool) error {
	if err := s.store.SetAutoRenew(ctx, userID, on); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"user_id":    userID,
		"auto_renew": on,
	}).Info("Автопродление переключено")

	if s.notify != nil {
		if on {
			s.notify(userID, "🔄 Автопродление включено")
		} else {
			s.notify(userID, "⏹ Автопродление выключено — подписка закончится по сроку")
		}
	}
	return nil
}

// CheckExpiry — плановая проверка подписки игрока. Планировщик вызывает
// её минимум раз в день; повторные вызовы в тот же день безвредны.
//
// Если срок подписки наступил:
//   - автопродление выключено → подписка завершается, премиум-персонаж
//     откатывается на бесплатный аналог того же уровня;
//   - автопродление включено → попытка списать цену продления;
//     при успехе новый срок считается от now (просроченные дни
//     не накапливаются), при нехватке — завершение, как выше.
func (s *Service) CheckExpiry(ctx context.Context, userID int64, now time.Time) error {
	p, err := s.playerS.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if !p.IsPremium || p.PremiumExpiresAt == nil || now.Before(*p.PremiumExpiresAt) {
		return nil
	}

	if !p.AutoRenew {
		return s.lapse(ctx, p, now)
	}

	costs, err := s.CurrentCosts(ctx, now)
	if err != nil {
		return err
	}

	err = s.store.RenewPremium(ctx, userID, costs.Maintenance, now, common.AddMonth(now))
	switch {
	case err == nil:
		log.WithFields(log.Fields{
			"user_id": userID,
			"cost":    costs.Maintenance,
		}).Info("Подписка продлена автоматически")
		if s.notify != nil {
			s.notify(userID, fmt.Sprintf("🔄 Подписка продлена, списано %s",
				common.FormatBalance(costs.Maintenance)))
		}
		return nil

	case errors.Is(err, common.ErrConflict):
		// Параллельный тик уже обработал игрока
		return nil

	case errors.Is(err, common.ErrInsufficientBalance):
		if s.notify != nil {
			var ife *common.InsufficientFundsError
			if errors.As(err, &ife) {
				s.notify(userID, fmt.Sprintf("⚠️ Не хватило %s на продление — подписка завершена",
					common.FormatBalance(ife.Shortfall())))
			}
		}
		return s.lapse(ctx, p, now)

	default:
		return err
	}
}

// lapse завершает подписку и откатывает премиум-персонажа.
func (s *Service) lapse(ctx context.Context, p *players.Player, now time.Time) error {
	err := s.store.Lapse(ctx, p.UserID, now)
	if errors.Is(err, common.ErrConflict) {
		return nil
	}
	if err != nil {
		return err
	}

	log.WithField("user_id", p.UserID).Info("Премиум-подписка завершена")

	// Каталог — внешний коллаборатор: его ошибка не откатывает завершение
	if err := s.catalog.DemoteToFreeEquivalent(ctx, p.UserID, p.Level); err != nil {
		log.WithError(err).WithField("user_id", p.UserID).Warn("Не удалось откатить персонажа")
	}

	if s.notify != nil {
		s.notify(p.UserID, "💤 Премиум-подписка закончилась")
	}
	return nil
}

// CreatePromotion создаёт или обновляет акцию (админка).
func (s *Service) CreatePromotion(ctx context.Context, p *Promotion) error {
	if err := s.store.CreatePromotion(ctx, p); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"name":  p.Name,
		"start": p.StartsOn,
		"end":   p.EndsOn,
	}).Info("Акция сохранена")
	return nil
}
