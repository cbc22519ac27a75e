// Package economy — repository.go выполняет все операции с таблицами balances и transactions.
// Все денежные операции выполняются в транзакциях БД для целостности данных.
package economy

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/arena-bot/internal/common"
)

// Repository предоставляет методы для работы с балансами и транзакциями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий экономики.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnsureBalance гарантирует, что у игрока есть запись баланса.
// Если нет — создаёт со стартовым балансом. Вызывается при регистрации,
// повторный вызов ничего не меняет.
func (r *Repository) EnsureBalance(ctx context.Context, userID int64, starting int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		INSERT INTO balances (user_id, balance, total_earned, total_spent)
		VALUES ($1, $2, $2, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, starting)
	if err != nil {
		return fmt.Errorf("ошибка создания баланса: %w", err)
	}

	// Стартовое начисление попадает в историю только при реальном создании
	if ct.RowsAffected() > 0 && starting > 0 {
		if _, err := tx.Exec(ctx, `
			INSERT INTO transactions (to_user_id, amount, reason, description)
			VALUES ($1, $2, $3, $4)
		`, userID, starting, ReasonStarting, "Стартовый баланс"); err != nil {
			return fmt.Errorf("ошибка записи стартовой транзакции: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetBalance возвращает текущий баланс игрока.
// Отрицательный баланс в БД означает порчу данных в обход мутаторов —
// возвращается common.ErrInvariant.
func (r *Repository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT balance FROM balances WHERE user_id = $1`
	var balance int64
	err := r.db.QueryRow(ctx, query, userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	if balance < 0 {
		return 0, fmt.Errorf("отрицательный баланс %d у игрока %d: %w", balance, userID, common.ErrInvariant)
	}
	return balance, nil
}

// Apply применяет знаковую дельту к балансу игрока.
// Положительная дельта — начисление, отрицательная — списание.
// Списание больше баланса откатывается целиком: строка блокируется
// через FOR UPDATE, проверка и запись происходят в одной транзакции БД,
// параллельные операции над одним игроком сериализуются.
// Отсутствующая строка баланса создаётся с нулём в той же транзакции:
// начисление (например, рубежная награда) не должно теряться из-за того,
// что игрок ещё ни разу не касался экономики.
func (r *Repository) Apply(ctx context.Context, userID int64, delta int64, reason Reason, description string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO balances (user_id, balance, total_earned, total_spent)
		VALUES ($1, 0, 0, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return fmt.Errorf("ошибка создания баланса: %w", err)
	}

	var current int64
	err = tx.QueryRow(ctx, `
		SELECT balance FROM balances WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&current)
	if err != nil {
		return fmt.Errorf("ошибка получения баланса: %w", err)
	}
	if current < 0 {
		return fmt.Errorf("отрицательный баланс %d у игрока %d: %w", current, userID, common.ErrInvariant)
	}

	if delta >= 0 {
		_, err = tx.Exec(ctx, `
			UPDATE balances
			SET balance = balance + $2, total_earned = total_earned + $2, updated_at = NOW()
			WHERE user_id = $1
		`, userID, delta)
		if err != nil {
			return fmt.Errorf("ошибка начисления: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO transactions (to_user_id, amount, reason, description)
			VALUES ($1, $2, $3, $4)
		`, userID, delta, reason, description)
		if err != nil {
			return fmt.Errorf("ошибка записи транзакции: %w", err)
		}
	} else {
		amount := -delta
		if current < amount {
			return &common.InsufficientFundsError{Need: amount, Have: current}
		}
		_, err = tx.Exec(ctx, `
			UPDATE balances
			SET balance = balance - $2, total_spent = total_spent + $2, updated_at = NOW()
			WHERE user_id = $1
		`, userID, amount)
		if err != nil {
			return fmt.Errorf("ошибка списания: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO transactions (from_user_id, amount, reason, description)
			VALUES ($1, $2, $3, $4)
		`, userID, amount, reason, description)
		if err != nil {
			return fmt.Errorf("ошибка записи транзакции: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Transfer переводит кристаллы от одного игрока к другому.
// Атомарная операция: либо оба баланса обновятся, либо ни одного.
func (r *Repository) Transfer(ctx context.Context, fromUserID, toUserID, amount int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Блокируем строку отправителя и проверяем баланс
	var senderBalance int64
	err = tx.QueryRow(ctx, `
		SELECT balance FROM balances WHERE user_id = $1 FOR UPDATE
	`, fromUserID).Scan(&senderBalance)
	if err != nil {
		return fmt.Errorf("отправитель не найден: %w", err)
	}

	if senderBalance < amount {
		return &common.InsufficientFundsError{Need: amount, Have: senderBalance}
	}

	// Списываем у отправителя
	_, err = tx.Exec(ctx, `
		UPDATE balances
		SET balance = balance - $2, total_spent = total_spent + $2, updated_at = NOW()
		WHERE user_id = $1
	`, fromUserID, amount)
	if err != nil {
		return fmt.Errorf("ошибка списания у отправителя: %w", err)
	}

	// Начисляем получателю
	_, err = tx.Exec(ctx, `
		UPDATE balances
		SET balance = balance + $2, total_earned = total_earned + $2, updated_at = NOW()
		WHERE user_id = $1
	`, toUserID, amount)
	if err != nil {
		return fmt.Errorf("ошибка начисления получателю: %w", err)
	}

	// Записываем транзакцию
	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (from_user_id, to_user_id, amount, reason, description)
		VALUES ($1, $2, $3, $4, $5)
	`, fromUserID, toUserID, amount, ReasonTransfer, fmt.Sprintf("Перевод %d кристаллов", amount))
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// GetTransactions возвращает последние N транзакций игрока.
// Включает как входящие, так и исходящие операции.
func (r *Repository) GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	query := `
		SELECT id, from_user_id, to_user_id, amount, reason, description, created_at
		FROM transactions
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var transactions []*Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(
			&t.ID, &t.FromUserID, &t.ToUserID,
			&t.Amount, &t.Reason, &t.Description, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		transactions = append(transactions, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return transactions, nil
}

// GetTotalStats возвращает общую статистику баланса игрока.
func (r *Repository) GetTotalStats(ctx context.Context, userID int64) (*Balance, error) {
	query := `
		SELECT id, user_id, balance, total_earned, total_spent, created_at, updated_at
		FROM balances
		WHERE user_id = $1
	`
	var b Balance
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&b.ID, &b.UserID, &b.Balance, &b.TotalEarned, &b.TotalSpent,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики: %w", err)
	}
	return &b, nil
}
