// Package subscription — promotions.go содержит выбор активной акции.
// Чистые функции: время передаётся явным параметром, скрытого
// глобального состояния нет, результат никогда не кешируется.
package subscription

import (
	"time"

	"serotonyl.ru/arena-bot/internal/common"
)

// ActivePromotion возвращает акцию, действующую в указанный день,
// или nil, если активных акций нет.
//
// Окно акции — [StartsOn, EndsOn] по дням, включительно с обеих сторон.
// Если окна нескольких акций пересекаются, детерминированно побеждает
// акция, начавшаяся позже; при одинаковом начале — с большим ID.
func ActivePromotion(promos []*Promotion, today time.Time) *Promotion {
	day := common.DateOnly(today)

	var winner *Promotion
	for _, p := range promos {
		start := common.DateOnly(p.StartsOn)
		end := common.DateOnly(p.EndsOn)
		if day.Before(start) || day.After(end) {
			continue
		}
		if winner == nil {
			winner = p
			continue
		}
		ws := common.DateOnly(winner.StartsOn)
		if start.After(ws) || (start.Equal(ws) && p.ID > winner.ID) {
			winner = p
		}
	}
	return winner
}

// CostsFor вычисляет цены подписки на указанный момент.
// Базовые цены переопределяются активной акцией. Вызывается заново
// при каждой операции с деньгами: активная акция может смениться
// между вызовами.
func CostsFor(promos []*Promotion, now time.Time, basePremium, baseMaintenance int64) Costs {
	if p := ActivePromotion(promos, now); p != nil {
		return Costs{
			Premium:     p.PremiumCost,
			Maintenance: p.MaintenanceCost,
			Promotion:   p.Name,
		}
	}
	return Costs{
		Premium:     basePremium,
		Maintenance: baseMaintenance,
	}
}
