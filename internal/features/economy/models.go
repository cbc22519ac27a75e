// Package economy управляет игровой валютой «кристаллы».
// models.go описывает структуры для балансов и транзакций.
package economy

import "time"

// Balance представляет баланс игрока.
// Каждый игрок имеет ровно одну запись в таблице balances.
// Инвариант: balance никогда не отрицателен после завершённой операции.
type Balance struct {
	ID          int64     `db:"id"`           // ID записи
	UserID      int64     `db:"user_id"`      // Telegram user ID
	Balance     int64     `db:"balance"`      // Текущий баланс
	TotalEarned int64     `db:"total_earned"` // Сколько всего заработано
	TotalSpent  int64     `db:"total_spent"`  // Сколько всего потрачено
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Transaction представляет одну операцию с кристаллами.
// Все движения кристаллов (награды, переводы, списания подписки)
// записываются сюда. Сумма всех дельт игрока равна его балансу.
type Transaction struct {
	ID          int64     `db:"id"`           // ID транзакции
	FromUserID  *int64    `db:"from_user_id"` // Отправитель (nil для системных начислений)
	ToUserID    *int64    `db:"to_user_id"`   // Получатель (nil для системных списаний)
	Amount      int64     `db:"amount"`       // Сумма (всегда положительная)
	Reason      Reason    `db:"reason"`       // Причина операции (закрытый перечень)
	Description string    `db:"description"`  // Описание для отображения
	CreatedAt   time.Time `db:"created_at"`   // Время транзакции
}

// Reason — причина движения кристаллов.
// Закрытый перечень вместо свободного текста: причина выбирается
// один раз на границе вызова и не перепарсивается из сообщений.
type Reason string

const (
	ReasonStarting     Reason = "starting_balance" // Стартовый баланс при регистрации
	ReasonTransfer     Reason = "transfer"         // Перевод между игроками
	ReasonMilestone    Reason = "milestone_reward" // Награда за рубежный уровень (кратный 5)
	ReasonKillLoot     Reason = "kill_loot"        // Добыча за победу в бою
	ReasonPremiumBuy   Reason = "premium_buy"      // Покупка подписки
	ReasonPremiumRenew Reason = "premium_renew"    // Ежемесячное продление подписки
	ReasonPremiumExtra Reason = "premium_extra"    // Досрочное продление подписки
	ReasonAdminGive    Reason = "admin_give"       // Выдача админом
	ReasonAdminTake    Reason = "admin_take"       // Изъятие админом
)
