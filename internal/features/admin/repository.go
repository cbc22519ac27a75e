// Package admin — repository.go работает с таблицами admin_sessions и admin_login_attempts.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository работает с админ-таблицами.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateSession создаёт новую сессию администратора.
// Старые сессии пользователя при этом гасятся: активна всегда одна.
func (r *Repository) CreateSession(ctx context.Context, session *AdminSession) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE admin_sessions SET is_active = FALSE WHERE user_id = $1 AND is_active = TRUE`,
		session.UserID)
	if err != nil {
		return fmt.Errorf("ошибка деактивации старых сессий: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO admin_sessions (user_id, session_token, expires_at, is_active)
		VALUES ($1, $2, $3, TRUE)
	`, session.UserID, session.SessionToken, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("ошибка создания сессии: %w", err)
	}

	return tx.Commit(ctx)
}

// HasActiveSession проверяет наличие живой сессии и продлевает
// отметку активности.
func (r *Repository) HasActiveSession(ctx context.Context, userID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE admin_sessions SET last_activity = NOW()
		WHERE user_id = $1 AND is_active = TRUE AND expires_at > NOW()
	`, userID)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки сессии: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeactivateSession деактивирует все сессии пользователя (выход).
func (r *Repository) DeactivateSession(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE admin_sessions SET is_active = FALSE WHERE user_id = $1`, userID)
	return err
}

// LogAttempt записывает попытку входа.
func (r *Repository) LogAttempt(ctx context.Context, userID int64, success bool) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO admin_login_attempts (user_id, success) VALUES ($1, $2)`,
		userID, success)
	return err
}

// CountRecentFailures возвращает число неудачных попыток входа за период.
func (r *Repository) CountRecentFailures(ctx context.Context, userID int64, period time.Duration) (int, error) {
	since := time.Now().Add(-period)
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM admin_login_attempts
		WHERE user_id = $1 AND success = FALSE AND attempt_time >= $2
	`, userID, since).Scan(&count)
	return count, err
}

// PurgeExpired удаляет истёкшие сессии и старые записи попыток.
// Вызывается из ночного планировщика.
func (r *Repository) PurgeExpired(ctx context.Context) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM admin_sessions WHERE expires_at < NOW() - INTERVAL '7 days'`); err != nil {
		return fmt.Errorf("ошибка очистки сессий: %w", err)
	}
	if _, err := r.db.Exec(ctx,
		`DELETE FROM admin_login_attempts WHERE attempt_time < NOW() - INTERVAL '30 days'`); err != nil {
		return fmt.Errorf("ошибка очистки попыток входа: %w", err)
	}
	return nil
}
