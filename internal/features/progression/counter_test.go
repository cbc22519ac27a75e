package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidForExperience(t *testing.T) {
	assert.True(t, IsValidForExperience("привет как дела"))
	assert.True(t, IsValidForExperience("  раз   два   три  "))

	// Мало слов
	assert.False(t, IsValidForExperience("привет"))
	assert.False(t, IsValidForExperience("два слова"))
	assert.False(t, IsValidForExperience(""))

	// Команды не считаются
	assert.False(t, IsValidForExperience("!атака @кто то"))
	assert.False(t, IsValidForExperience(".герой три слова"))
	assert.False(t, IsValidForExperience("/start раз два"))
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords(""))
	assert.Equal(t, 1, CountWords("слово"))
	assert.Equal(t, 3, CountWords("  раз\tдва  три "))
}
