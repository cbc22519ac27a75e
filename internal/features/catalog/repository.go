// Package catalog — repository.go выполняет операции с таблицей characters
// и привязкой персонажа к игроку.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/arena-bot/internal/common"
)

const characterColumns = `id, name, min_level, is_premium, free_equivalent_id,
	       damage, shield_power, resistance_percent, created_at`

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetByID возвращает персонажа по ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Character, error) {
	query := `SELECT ` + characterColumns + ` FROM characters WHERE id = $1`
	c, err := r.scanCharacter(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("персонаж не найден (id=%d): %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения персонажа (id=%d): %w", id, err)
	}
	return c, nil
}

// GetByName возвращает персонажа по имени (без учёта регистра).
func (r *Repository) GetByName(ctx context.Context, name string) (*Character, error) {
	query := `SELECT ` + characterColumns + ` FROM characters WHERE LOWER(name) = LOWER($1)`
	c, err := r.scanCharacter(r.db.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("персонаж не найден (name=%s): %w", name, common.ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения персонажа (name=%s): %w", name, err)
	}
	return c, nil
}

// ListForLevel возвращает персонажей, открывающихся ровно на этом уровне.
// Используется при повышении уровня для сообщения о новом контенте.
func (r *Repository) ListForLevel(ctx context.Context, level int) ([]*Character, error) {
	query := `SELECT ` + characterColumns + ` FROM characters WHERE min_level = $1 ORDER BY name`
	return r.queryCharacters(ctx, query, level)
}

// ListAvailable возвращает всех персонажей, доступных игроку
// с данным уровнем и премиум-статусом.
func (r *Repository) ListAvailable(ctx context.Context, level int, premium bool) ([]*Character, error) {
	query := `SELECT ` + characterColumns + `
		FROM characters
		WHERE min_level <= $1 AND (is_premium = FALSE OR $2)
		ORDER BY min_level, name
	`
	return r.queryCharacters(ctx, query, level, premium)
}

// BestFreeForLevel возвращает самого сильного бесплатного персонажа,
// доступного на уровне. Запасной вариант отката, если у премиум-персонажа
// не указан бесплатный аналог.
func (r *Repository) BestFreeForLevel(ctx context.Context, level int) (*Character, error) {
	query := `SELECT ` + characterColumns + `
		FROM characters
		WHERE min_level <= $1 AND is_premium = FALSE
		ORDER BY min_level DESC, damage DESC
		LIMIT 1
	`
	c, err := r.scanCharacter(r.db.QueryRow(ctx, query, level))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("нет бесплатных персонажей для уровня %d: %w", level, common.ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка подбора бесплатного персонажа: %w", err)
	}
	return c, nil
}

// AssignToPlayer привязывает персонажа к игроку и переносит
// его сопротивление в боевое состояние. Одна атомарная запись.
func (r *Repository) AssignToPlayer(ctx context.Context, userID int64, c *Character) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE players
		SET selected_character_id = $2, resistance_percent = $3, updated_at = NOW()
		WHERE user_id = $1
	`, userID, c.ID, c.ResistancePercent)
	if err != nil {
		return fmt.Errorf("ошибка привязки персонажа: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanCharacter(row rowScanner) (*Character, error) {
	var c Character
	err := row.Scan(
		&c.ID, &c.Name, &c.MinLevel, &c.IsPremium, &c.FreeEquivalentID,
		&c.Damage, &c.ShieldPower, &c.ResistancePercent, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) queryCharacters(ctx context.Context, query string, args ...any) ([]*Character, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса персонажей: %w", err)
	}
	defer rows.Close()

	var out []*Character
	for rows.Next() {
		c, err := r.scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}
