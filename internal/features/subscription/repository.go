// Package subscription — repository.go выполняет переходы жизненного цикла
// подписки в БД. Каждый переход со списанием — одна транзакция:
// строка игрока блокируется первой, затем строка баланса (фиксированный
// порядок блокировок), проверка и запись неразделимы. Неудачная проверка
// списания не меняет ни премиум-полей, ни баланса.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/arena-bot/internal/common"
	"serotonyl.ru/arena-bot/internal/features/economy"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ActivatePremium покупает подписку: списывает цену и включает премиум
// с автопродлением до указанной даты. Отклоняется, если подписка уже
// активна или кристаллов не хватает.
func (r *Repository) ActivatePremium(ctx context.Context, userID int64, cost int64, expiresAt time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var isPremium bool
	if err := lockPlayer(ctx, tx, userID, &isPremium, nil); err != nil {
		return err
	}
	if isPremium {
		return common.ErrAlreadyPremium
	}

	if err := debit(ctx, tx, userID, cost, economy.ReasonPremiumBuy, "Покупка премиум-подписки"); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE players
		SET is_premium = TRUE, auto_renew = TRUE, premium_expires_at = $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("ошибка включения премиума: %w", err)
	}

	return tx.Commit(ctx)
}

// RenewPremium продлевает просроченную подписку: списывает цену продления
// и ставит новый срок. Продление происходит только если подписка
// действительно просрочена на момент now — повторный вызов того же тика
// вернёт common.ErrConflict и ничего не изменит (идемпотентность).
func (r *Repository) RenewPremium(ctx context.Context, userID int64, cost int64, now, newExpiry time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var isPremium bool
	var expiresAt *time.Time
	if err := lockPlayer(ctx, tx, userID, &isPremium, &expiresAt); err != nil {
		return err
	}
	if !isPremium {
		return common.ErrNotPremium
	}
	if expiresAt == nil || now.Before(*expiresAt) {
		// Кто-то уже продлил в параллельном тике
		return common.ErrConflict
	}

	if err := debit(ctx, tx, userID, cost, economy.ReasonPremiumRenew, "Продление премиум-подписки"); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE players SET premium_expires_at = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, newExpiry)
	if err != nil {
		return fmt.Errorf("ошибка продления: %w", err)
	}

	return tx.Commit(ctx)
}

// TopUpPremium — досрочное продление: списывает цену продления и добавляет
// месяц к ТЕКУЩЕМУ сроку окончания (аддитивно, в отличие от продления
// по истечении). Возвращает новый срок окончания.
func (r *Repository) TopUpPremium(ctx context.Context, userID int64, cost int64) (time.Time, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var isPremium bool
	var expiresAt *time.Time
	if err := lockPlayer(ctx, tx, userID, &isPremium, &expiresAt); err != nil {
		return time.Time{}, err
	}
	if !isPremium || expiresAt == nil {
		return time.Time{}, common.ErrNotPremium
	}

	if err := debit(ctx, tx, userID, cost, economy.ReasonPremiumExtra, "Досрочное продление подписки"); err != nil {
		return time.Time{}, err
	}

	newExpiry := common.AddMonth(*expiresAt)
	_, err = tx.Exec(ctx, `
		UPDATE players SET premium_expires_at = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, newExpiry)
	if err != nil {
		return time.Time{}, fmt.Errorf("ошибка досрочного продления: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return time.Time{}, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return newExpiry, nil
}

// Lapse завершает подписку: снимает премиум-флаг и автопродление.
// Завершение происходит только если подписка просрочена на момент now;
// иначе common.ErrConflict (параллельный тик уже продлил её).
func (r *Repository) Lapse(ctx context.Context, userID int64, now time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var isPremium bool
	var expiresAt *time.Time
	if err := lockPlayer(ctx, tx, userID, &isPremium, &expiresAt); err != nil {
		return err
	}
	if !isPremium {
		// Уже завершена — идемпотентный no-op
		return tx.Commit(ctx)
	}
	if expiresAt != nil && now.Before(*expiresAt) {
		return common.ErrConflict
	}

	_, err = tx.Exec(ctx, `
		UPDATE players
		SET is_premium = FALSE, auto_renew = FALSE, premium_expires_at = NULL, updated_at = NOW()
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("ошибка завершения подписки: %w", err)
	}

	return tx.Commit(ctx)
}

// SetAutoRenew переключает автопродление. Работает только при активном
// премиуме; денег не касается.
func (r *Repository) SetAutoRenew(ctx context.Context, userID int64, on bool) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE players SET auto_renew = $2, updated_at = NOW()
		WHERE user_id = $1 AND is_premium = TRUE
	`, userID, on)
	if err != nil {
		return fmt.Errorf("ошибка переключения автопродления: %w", err)
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM players WHERE user_id = $1)`, userID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("ошибка проверки игрока: %w", err)
		}
		if !exists {
			return common.ErrNotFound
		}
		return common.ErrNotPremium
	}
	return nil
}

// ListPromotions возвращает все акции. Выбор активной делает
// чистая функция ActivePromotion — заново при каждой операции.
func (r *Repository) ListPromotions(ctx context.Context) ([]*Promotion, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, starts_on, ends_on, premium_cost, maintenance_cost, created_at
		FROM promotions
		ORDER BY starts_on
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса акций: %w", err)
	}
	defer rows.Close()

	var out []*Promotion
	for rows.Next() {
		var p Promotion
		if err := rows.Scan(&p.ID, &p.Name, &p.StartsOn, &p.EndsOn,
			&p.PremiumCost, &p.MaintenanceCost, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования акции: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// CreatePromotion создаёт акцию (только из админки).
func (r *Repository) CreatePromotion(ctx context.Context, p *Promotion) error {
	if p.PremiumCost <= 0 || p.MaintenanceCost <= 0 {
		return common.ErrInvalidAmount
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO promotions (name, starts_on, ends_on, premium_cost, maintenance_cost)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE
		SET starts_on = EXCLUDED.starts_on,
		    ends_on = EXCLUDED.ends_on,
		    premium_cost = EXCLUDED.premium_cost,
		    maintenance_cost = EXCLUDED.maintenance_cost
	`, p.Name, p.StartsOn, p.EndsOn, p.PremiumCost, p.MaintenanceCost)
	if err != nil {
		return fmt.Errorf("ошибка создания акции: %w", err)
	}
	return nil
}

// lockPlayer блокирует строку игрока и читает премиум-поля.
// expiresAt может быть nil, если срок вызывающему не нужен.
func lockPlayer(ctx context.Context, tx pgx.Tx, userID int64, isPremium *bool, expiresAt **time.Time) error {
	var exp *time.Time
	err := tx.QueryRow(ctx, `
		SELECT is_premium, premium_expires_at FROM players WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(isPremium, &exp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("игрок не найден (user_id=%d): %w", userID, common.ErrNotFound)
		}
		return fmt.Errorf("ошибка чтения игрока: %w", err)
	}
	if expiresAt != nil {
		*expiresAt = exp
	}
	return nil
}

// debit списывает кристаллы внутри уже открытой транзакции.
// Баланс блокируется FOR UPDATE; нехватка возвращает
// common.InsufficientFundsError, транзакция откатится целиком.
func debit(ctx context.Context, tx pgx.Tx, userID int64, cost int64, reason economy.Reason, description string) error {
	var balance int64
	err := tx.QueryRow(ctx, `
		SELECT balance FROM balances WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("баланс не найден (user_id=%d): %w", userID, common.ErrNotFound)
		}
		return fmt.Errorf("ошибка чтения баланса: %w", err)
	}
	if balance < 0 {
		return fmt.Errorf("отрицательный баланс %d у игрока %d: %w", balance, userID, common.ErrInvariant)
	}
	if balance < cost {
		return &common.InsufficientFundsError{Need: cost, Have: balance}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE balances
		SET balance = balance - $2, total_spent = total_spent + $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, cost); err != nil {
		return fmt.Errorf("ошибка списания: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO transactions (from_user_id, amount, reason, description)
		VALUES ($1, $2, $3, $4)
	`, userID, cost, reason, description); err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}
	return nil
}
