// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import (
	"errors"
	"fmt"
)

// Ошибки экономики (кристаллы, переводы)
var (
	// ErrInsufficientBalance — недостаточно кристаллов на счёте
	ErrInsufficientBalance = errors.New("недостаточно кристаллов на счёте")
	// ErrSelfTransfer — попытка перевести кристаллы самому себе
	ErrSelfTransfer = errors.New("нельзя переводить кристаллы самому себе")
	// ErrInvalidAmount — некорректная сумма или количество опыта (отрицательное там, где запрещено)
	ErrInvalidAmount = errors.New("значение должно быть положительным")
	// ErrNotFound — игрок или запись не найдены в базе
	ErrNotFound = errors.New("игрок не найден")
)

// Ошибки целостности данных
var (
	// ErrConflict — конкурентная запись обнаружена хранилищем, операцию можно повторить
	ErrConflict = errors.New("конфликт одновременной записи")
	// ErrInvariant — состояние игрока повреждено (например, отрицательный баланс в БД).
	// Операция прерывается, повторять её бессмысленно.
	ErrInvariant = errors.New("нарушен инвариант данных игрока")
)

// Ошибки подписки
var (
	// ErrNotPremium — операция доступна только премиум-игрокам
	ErrNotPremium = errors.New("премиум-подписка не активна")
	// ErrAlreadyPremium — подписка уже куплена
	ErrAlreadyPremium = errors.New("премиум-подписка уже активна")
)

// Ошибки каталога персонажей
var (
	// ErrCharacterLocked — персонаж недоступен: не хватает уровня или нужен премиум
	ErrCharacterLocked = errors.New("персонаж пока недоступен")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired — сессия истекла
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново")
)

// InsufficientFundsError — списание превышает баланс.
// Несёт размер нехватки, чтобы обработчик мог показать игроку,
// сколько кристаллов ему не хватает для операции.
type InsufficientFundsError struct {
	Need int64 // Сколько требовалось
	Have int64 // Сколько было на счёте
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("недостаточно кристаллов: нужно %d, есть %d", e.Need, e.Have)
}

// Is делает ошибку совместимой с errors.Is(err, ErrInsufficientBalance).
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// Shortfall возвращает, сколько кристаллов не хватило.
func (e *InsufficientFundsError) Shortfall() int64 {
	return e.Need - e.Have
}
