// Package progression — repository.go изменяет опыт и уровень в таблице players.
// Опыт и уровень меняются только здесь и в админском переопределении;
// уровень всегда пересчитывается из опыта по кривой.
package progression

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/arena-bot/internal/common"
)

// ExperienceGain — результат одного начисления опыта.
type ExperienceGain struct {
	OldExperience int64
	NewExperience int64
	OldLevel      int
	NewLevel      int
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// AddExperience добавляет опыт игроку и пересчитывает уровень по кривой.
// Строка игрока блокируется через FOR UPDATE: конкурентные начисления
// одному игроку сериализуются, каждый вызов видит актуальный опыт.
func (r *Repository) AddExperience(ctx context.Context, userID int64, amount int64) (*ExperienceGain, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var gain ExperienceGain
	err = tx.QueryRow(ctx, `
		SELECT experience, level FROM players WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&gain.OldExperience, &gain.OldLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("игрок не найден (user_id=%d): %w", userID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения прогрессии: %w", err)
	}
	if gain.OldExperience < 0 {
		return nil, fmt.Errorf("отрицательный опыт у игрока %d: %w", userID, common.ErrInvariant)
	}

	gain.NewExperience = gain.OldExperience + amount
	gain.NewLevel = LevelForExperience(gain.NewExperience)

	// Уровень не понижается начислением опыта: если кеш уровня
	// по какой-то причине выше кривой, оставляем его как есть.
	if gain.NewLevel < gain.OldLevel {
		gain.NewLevel = gain.OldLevel
	}

	_, err = tx.Exec(ctx, `
		UPDATE players
		SET experience = $2, level = $3, updated_at = NOW()
		WHERE user_id = $1
	`, userID, gain.NewExperience, gain.NewLevel)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи прогрессии: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return &gain, nil
}

// GetProgress возвращает текущие опыт и уровень игрока.
func (r *Repository) GetProgress(ctx context.Context, userID int64) (int64, int, error) {
	var exp int64
	var level int
	err := r.db.QueryRow(ctx, `
		SELECT experience, level FROM players WHERE user_id = $1
	`, userID).Scan(&exp, &level)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, fmt.Errorf("игрок не найден (user_id=%d): %w", userID, common.ErrNotFound)
		}
		return 0, 0, fmt.Errorf("ошибка чтения прогрессии: %w", err)
	}
	return exp, level, nil
}

// OverrideLevel устанавливает уровень напрямую, минуя кривую.
// Опыт пересинхронизируется на нижний порог уровня, чтобы
// кеш уровня снова выводился из кривой. Только для админки.
func (r *Repository) OverrideLevel(ctx context.Context, userID int64, level int) error {
	if level < 1 {
		return common.ErrInvalidAmount
	}
	ct, err := r.db.Exec(ctx, `
		UPDATE players
		SET level = $2, experience = $3, updated_at = NOW()
		WHERE user_id = $1
	`, userID, level, ThresholdForLevel(level))
	if err != nil {
		return fmt.Errorf("ошибка переопределения уровня: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
