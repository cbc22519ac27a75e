// Package combat — repository.go фиксирует боевое состояние в таблице players.
// Чтение и запись состояния происходят под блокировкой строки игрока:
// расчёт урона чистый, но его результат коммитится атомарно.
package combat

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/arena-bot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ApplyDamage применяет урон к игроку под блокировкой его строки.
// Снимок состояния читается FOR UPDATE, урон считается чистым
// резолвером, результат пишется в той же транзакции БД.
func (r *Repository) ApplyDamage(ctx context.Context, userID int64, incomingDamage int) (*Outcome, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var st State
	err = tx.QueryRow(ctx, `
		SELECT health, max_health, shield, resistance_percent
		FROM players WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&st.Health, &st.MaxHealth, &st.Shield, &st.ResistancePercent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("игрок не найден (user_id=%d): %w", userID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения боевого состояния: %w", err)
	}
	if st.Health < 0 || st.Shield < 0 {
		return nil, fmt.Errorf("повреждённое боевое состояние у игрока %d: %w", userID, common.ErrInvariant)
	}

	out := Resolve(st, incomingDamage)

	// После поражения состояние сбрасывается к началу новой схватки
	newHealth, newShield := out.State.Health, out.State.Shield
	if out.Defeated {
		newHealth, newShield = st.MaxHealth, 0
	}

	_, err = tx.Exec(ctx, `
		UPDATE players
		SET health = $2, shield = $3, updated_at = NOW()
		WHERE user_id = $1
	`, userID, newHealth, newShield)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи боевого состояния: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return &out, nil
}

// SetShield устанавливает щит игрока. Новый щит ЗАМЕНЯЕТ старый,
// а не складывается с ним.
func (r *Repository) SetShield(ctx context.Context, userID int64, amount int) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE players SET shield = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("ошибка установки щита: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// SetResistance устанавливает процент сопротивления (0-100).
// Вызывается при смене персонажа: сопротивление — свойство персонажа.
func (r *Repository) SetResistance(ctx context.Context, userID int64, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	ct, err := r.db.Exec(ctx, `
		UPDATE players SET resistance_percent = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, percent)
	if err != nil {
		return fmt.Errorf("ошибка установки сопротивления: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// GetState возвращает текущее боевое состояние игрока.
func (r *Repository) GetState(ctx context.Context, userID int64) (*State, error) {
	var st State
	err := r.db.QueryRow(ctx, `
		SELECT health, max_health, shield, resistance_percent
		FROM players WHERE user_id = $1
	`, userID).Scan(&st.Health, &st.MaxHealth, &st.Shield, &st.ResistancePercent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("игрок не найден (user_id=%d): %w", userID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения боевого состояния: %w", err)
	}
	return &st, nil
}
