// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование чисел, работа с временем.
package common

import (
	"fmt"
	"math"
	"time"
)

// PluralizeCrystals возвращает правильную форму слова «кристалл» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "кристалл" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "кристалла" (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → "кристаллов" (0, 5-20, 25-30, 100, ...)
//
// Примеры:
//
//	PluralizeCrystals(1)  → "кристалл"
//	PluralizeCrystals(3)  → "кристалла"
//	PluralizeCrystals(5)  → "кристаллов"
//	PluralizeCrystals(11) → "кристаллов"
//	PluralizeCrystals(21) → "кристалл"
func PluralizeCrystals(n int64) string {
	// Берём абсолютное значение для отрицательных чисел
	absN := int64(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	// Единственное число: 1, 21, 31, 101 (но НЕ 11, 111)
	if lastDigit == 1 && lastTwoDigits != 11 {
		return "кристалл"
	}

	// Малое множественное: 2-4, 22-24, 32-34 (но НЕ 12-14)
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "кристалла"
	}

	// Большое множественное: 0, 5-20, 25-30, 100, ...
	return "кристаллов"
}

// FormatBalance форматирует баланс в читабельную строку.
// Пример: FormatBalance(150) → "150 кристаллов"
func FormatBalance(balance int64) string {
	return fmt.Sprintf("%d %s", balance, PluralizeCrystals(balance))
}

// PluralizeDays возвращает правильную форму слова «день» для числа n.
//
// Правила:
//   - 1, 21, 31 → "день"
//   - 2-4, 22-24 → "дня"
//   - 5-20, 25-30 → "дней"
func PluralizeDays(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "день"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "дня"
	}
	return "дней"
}

// PluralizeLevels возвращает правильную форму слова «уровень».
func PluralizeLevels(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "уровень"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "уровня"
	}
	return "уровней"
}

// AddMonth добавляет один календарный месяц к указанному моменту.
// Все продления подписки считаются через эту функцию, чтобы
// правило «+1 месяц» было одинаковым во всех ветках кода.
func AddMonth(t time.Time) time.Time {
	return t.AddDate(0, 1, 0)
}

// DateOnly обрезает время до начала суток в часовом поясе t.
// Используется при сравнении дат акций (окна акций — по дням, включительно).
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" (день.месяц.год часы:минуты).
// Используется для отображения дат транзакций и окончания подписки.
func FormatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// FormatDate форматирует только дату: "02.01.2006".
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}
