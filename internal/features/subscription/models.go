// Package subscription управляет премиум-подпиской игроков.
// models.go описывает акции и цены подписки.
package subscription

import "time"

// Promotion — именованная акция с ограниченным по датам окном действия.
// Акции глобальные (не пер-игрок) и переопределяют обе цены подписки
// на время окна [StartsOn, EndsOn] включительно.
type Promotion struct {
	ID              int64     `db:"id"`               // ID акции
	Name            string    `db:"name"`             // Уникальное имя акции
	StartsOn        time.Time `db:"starts_on"`        // Первый день действия (включительно)
	EndsOn          time.Time `db:"ends_on"`          // Последний день действия (включительно)
	PremiumCost     int64     `db:"premium_cost"`     // Цена покупки во время акции
	MaintenanceCost int64     `db:"maintenance_cost"` // Цена продления во время акции
	CreatedAt       time.Time `db:"created_at"`
}

// Costs — цены подписки, действующие в конкретный момент времени.
// Либо базовые из конфига, либо из активной акции.
type Costs struct {
	Premium     int64  // Единоразовая цена покупки
	Maintenance int64  // Цена ежемесячного продления
	Promotion   string // Имя акции, если цены акционные (иначе пусто)
}
