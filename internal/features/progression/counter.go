// Package progression — counter.go отвечает за отбор сообщений для опыта.
// Опыт начисляется только за сообщения из 3+ слов, не являющиеся командами.
package progression

import "strings"

// CountWords подсчитывает количество слов в тексте.
// Слова разделяются пробелами (включая множественные пробелы, табы и т.д.).
func CountWords(text string) int {
	// strings.Fields разбивает строку по пробельным символам
	// и автоматически игнорирует лишние пробелы
	words := strings.Fields(text)
	return len(words)
}

// IsValidForExperience проверяет, даёт ли сообщение опыт.
// Условия:
//   - Минимум 3 слова
//   - Не является командой (не начинается с !, . или /)
func IsValidForExperience(text string) bool {
	text = strings.TrimSpace(text)

	// Игнорируем команды
	if strings.HasPrefix(text, "!") || strings.HasPrefix(text, ".") || strings.HasPrefix(text, "/") {
		return false
	}

	// Проверяем количество слов
	return CountWords(text) >= 3
}
