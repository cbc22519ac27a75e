// Package catalog управляет каталогом персонажей.
// models.go описывает структуры для работы с таблицей characters.
package catalog

import "time"

// Character представляет персонажа из каталога.
// Персонажи открываются уровнем; часть доступна только с премиум-подпиской
// и имеет бесплатный аналог для отката при окончании подписки.
type Character struct {
	ID       int64  `db:"id"`        // ID персонажа
	Name     string `db:"name"`      // Уникальное имя (для выбора командой)
	MinLevel int    `db:"min_level"` // Минимальный уровень для выбора
	// Премиум-персонаж доступен только при активной подписке.
	// FreeEquivalentID — бесплатный аналог того же уровня,
	// на которого игрок откатывается при окончании подписки.
	IsPremium        bool   `db:"is_premium"`
	FreeEquivalentID *int64 `db:"free_equivalent_id"`

	// Боевые характеристики
	Damage            int `db:"damage"`             // Урон удара
	ShieldPower       int `db:"shield_power"`       // Мощность щита
	ResistancePercent int `db:"resistance_percent"` // Сопротивление, 0-100

	CreatedAt time.Time `db:"created_at"`
}
