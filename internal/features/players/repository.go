// Package players — repository.go отвечает за все операции с таблицей players в БД.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package players

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/arena-bot/internal/common"
)

const playerColumns = `id, user_id, username, first_name, experience, level,
	       selected_character_id, is_premium, auto_renew, premium_expires_at,
	       health, max_health, shield, resistance_percent,
	       is_banned, created_at, updated_at`

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create добавляет нового игрока в таблицу players.
// На конфликте по user_id обновляет только имя/username — создание
// идемпотентно, флаги и прогрессия при повторном входе не трогаются.
func (r *Repository) Create(ctx context.Context, p *Player) error {
	query := `
		INSERT INTO players (user_id, username, first_name, experience, level,
		                     health, max_health, shield, resistance_percent)
		VALUES ($1, $2, $3, 0, 1, $4, $4, 0, 0)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, p.UserID, p.Username, p.FirstName, p.MaxHealth)
	if err != nil {
		return fmt.Errorf("ошибка создания/обновления игрока: %w", err)
	}
	return nil
}

// GetByUserID возвращает игрока по Telegram user ID.
// Если не найден — ошибка, совместимая с common.ErrNotFound.
// На загрузке проверяются инварианты записи: повреждённые данные
// превращаются в common.ErrInvariant, операция прерывается.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE user_id = $1`
	p, err := r.scanPlayer(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("игрок не найден (user_id=%d): %w", userID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения игрока (user_id=%d): %w", userID, err)
	}
	if err := checkInvariants(p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByUsername возвращает игрока по @username (без @).
func (r *Repository) GetByUsername(ctx context.Context, username string) (*Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE LOWER(username) = LOWER($1)`
	p, err := r.scanPlayer(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("игрок не найден (username=%s): %w", username, common.ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения игрока (username=%s): %w", username, err)
	}
	if err := checkInvariants(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) Exists(ctx context.Context, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM players WHERE user_id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки существования: %w", err)
	}
	return exists, nil
}

func (r *Repository) UpdateInfo(ctx context.Context, userID int64, info UpdateInfo) error {
	query := `
		UPDATE players
		SET username = $2, first_name = $3, updated_at = NOW()
		WHERE user_id = $1
	`
	if _, err := r.db.Exec(ctx, query, userID, info.Username, info.FirstName); err != nil {
		return fmt.Errorf("ошибка обновления данных игрока: %w", err)
	}
	return nil
}

// SetSelectedCharacter записывает выбранного персонажа.
func (r *Repository) SetSelectedCharacter(ctx context.Context, userID int64, characterID int64) error {
	query := `UPDATE players SET selected_character_id = $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := r.db.Exec(ctx, query, userID, characterID); err != nil {
		return fmt.Errorf("ошибка выбора персонажа: %w", err)
	}
	return nil
}

// Delete удаляет игрока полностью. Единственный путь жёсткого
// удаления — административный; игровая логика игроков не удаляет.
func (r *Repository) Delete(ctx context.Context, userID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Сначала зависимые таблицы, затем сам игрок
	if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE from_user_id = $1 OR to_user_id = $1`, userID); err != nil {
		return fmt.Errorf("ошибка удаления транзакций: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM balances WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("ошибка удаления баланса: %w", err)
	}
	ct, err := tx.Exec(ctx, `DELETE FROM players WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("ошибка удаления игрока: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return tx.Commit(ctx)
}

// ListPremium возвращает user_id всех игроков с активным премиум-флагом.
// Используется планировщиком для ежедневной проверки подписок.
func (r *Repository) ListPremium(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM players WHERE is_premium = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки премиум-игроков: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования user_id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return ids, nil
}

// ListExpiringSoon возвращает премиум-игроков без автопродления,
// чья подписка закончится не позже указанного момента.
// Нужно для напоминаний о скором окончании подписки.
func (r *Repository) ListExpiringSoon(ctx context.Context, before time.Time) ([]*Player, error) {
	query := `SELECT ` + playerColumns + `
		FROM players
		WHERE is_premium = TRUE
		  AND auto_renew = FALSE
		  AND premium_expires_at <= $1
	`
	rows, err := r.db.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки истекающих подписок: %w", err)
	}
	defer rows.Close()

	var out []*Player
	for rows.Next() {
		p, err := r.scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// rowScanner покрывает и pgx.Row, и pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanPlayer(row rowScanner) (*Player, error) {
	var p Player
	err := row.Scan(
		&p.ID, &p.UserID, &p.Username, &p.FirstName,
		&p.Experience, &p.Level, &p.SelectedCharacterID,
		&p.IsPremium, &p.AutoRenew, &p.PremiumExpiresAt,
		&p.Health, &p.MaxHealth, &p.Shield, &p.ResistancePercent,
		&p.IsBanned, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// checkInvariants проверяет запись игрока на повреждение данных.
// Такие записи могли появиться только в обход мутаторов,
// поэтому ошибка фатальна для операции (common.ErrInvariant).
func checkInvariants(p *Player) error {
	if p.Experience < 0 {
		return fmt.Errorf("отрицательный опыт у игрока %d: %w", p.UserID, common.ErrInvariant)
	}
	if p.Level < 1 {
		return fmt.Errorf("уровень < 1 у игрока %d: %w", p.UserID, common.ErrInvariant)
	}
	if p.ResistancePercent < 0 || p.ResistancePercent > 100 {
		return fmt.Errorf("сопротивление вне 0-100 у игрока %d: %w", p.UserID, common.ErrInvariant)
	}
	if p.Health < 0 || p.Shield < 0 {
		return fmt.Errorf("отрицательное здоровье/щит у игрока %d: %w", p.UserID, common.ErrInvariant)
	}
	return nil
}
