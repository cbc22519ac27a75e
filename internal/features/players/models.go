// Package players управляет игроками: регистрацией, профилем, боевым состоянием.
// models.go описывает структуры данных для работы с таблицей players.
package players

import "time"

// Player представляет игрока в базе данных.
// Это центральный агрегат: прогрессия, премиум-статус и боевое
// состояние живут в одной строке, чтобы блокировка строки
// сериализовала все операции над одним игроком.
type Player struct {
	ID        int64  `db:"id"`         // Автоинкрементный ID записи в БД
	UserID    int64  `db:"user_id"`    // Telegram user ID (уникальный)
	Username  string `db:"username"`   // @username (может быть пустым)
	FirstName string `db:"first_name"` // Имя пользователя

	// Прогрессия. Уровень — материализованный кеш: он всегда
	// пересчитывается из опыта по кривой и никогда не пишется отдельно,
	// кроме явного админского переопределения.
	Experience int64 `db:"experience"` // Накопленный опыт (не убывает)
	Level      int   `db:"level"`      // Текущий уровень (производное от опыта)

	// Выбранный персонаж (nil до первого выбора)
	SelectedCharacterID *int64 `db:"selected_character_id"`

	// Премиум-подписка. PremiumExpiresAt имеет смысл только при IsPremium.
	IsPremium        bool       `db:"is_premium"`
	AutoRenew        bool       `db:"auto_renew"`
	PremiumExpiresAt *time.Time `db:"premium_expires_at"`

	// Боевое состояние (сбрасывается между схватками)
	Health            int `db:"health"`
	MaxHealth         int `db:"max_health"`
	Shield            int `db:"shield"`
	ResistancePercent int `db:"resistance_percent"` // 0-100

	IsBanned  bool      `db:"is_banned"`  // Флаг бана
	CreatedAt time.Time `db:"created_at"` // Когда запись создана в БД
	UpdatedAt time.Time `db:"updated_at"` // Последнее обновление записи
}

// SubscriptionState — состояние жизненного цикла подписки,
// производное от премиум-полей игрока.
type SubscriptionState string

const (
	StateFree           SubscriptionState = "FREE"                    // Подписки нет и не было / истекла давно
	StatePremiumActive  SubscriptionState = "PREMIUM_ACTIVE"          // Активна, автопродление включено
	StatePremiumNoRenew SubscriptionState = "PREMIUM_ACTIVE_NO_RENEW" // Активна, истечёт без продления
)

// Subscription возвращает текущее состояние подписки игрока.
func (p *Player) Subscription() SubscriptionState {
	if !p.IsPremium {
		return StateFree
	}
	if p.AutoRenew {
		return StatePremiumActive
	}
	return StatePremiumNoRenew
}

// UpdateInfo содержит данные для обновления информации об игроке.
// Используется, когда игрок возвращается в чат и его имя/username могли измениться.
type UpdateInfo struct {
	Username  string // Новый @username
	FirstName string // Новое имя
}

// DisplayName возвращает отображаемое имя игрока.
// Если есть @username — возвращает его, иначе — имя.
func (p *Player) DisplayName() string {
	if p.Username != "" {
		return "@" + p.Username
	}
	return p.FirstName
}
