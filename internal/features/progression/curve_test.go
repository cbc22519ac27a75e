package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForExperience_Breakpoints(t *testing.T) {
	// Нижние границы первых уровней
	assert.Equal(t, 1, LevelForExperience(0))
	assert.Equal(t, 1, LevelForExperience(99))
	assert.Equal(t, 2, LevelForExperience(100))
	assert.Equal(t, 2, LevelForExperience(249))
	assert.Equal(t, 3, LevelForExperience(250))

	// Последний табличный порог
	assert.Equal(t, 47, LevelForExperience(58749))
	assert.Equal(t, 48, LevelForExperience(58750))
}

func TestLevelForExperience_NegativeTreatedAsZero(t *testing.T) {
	assert.Equal(t, 1, LevelForExperience(-500))
}

func TestLevelForExperience_Extrapolation(t *testing.T) {
	// Шаг после таблицы равен разнице двух последних порогов
	step := levelThresholds[47] - levelThresholds[46]
	require.Equal(t, int64(2400), step)

	assert.Equal(t, 48, LevelForExperience(58750+step-1))
	assert.Equal(t, 49, LevelForExperience(58750+step))
	assert.Equal(t, 58, LevelForExperience(58750+10*step))
}

func TestLevelForExperience_Monotonic(t *testing.T) {
	prev := LevelForExperience(0)
	for exp := int64(1); exp <= 70000; exp += 37 {
		lvl := LevelForExperience(exp)
		require.GreaterOrEqual(t, lvl, prev, "уровень не должен убывать (exp=%d)", exp)
		prev = lvl
	}
}

func TestLevelForExperience_EveryTabulatedThreshold(t *testing.T) {
	for i, threshold := range levelThresholds {
		level := i + 1
		assert.Equal(t, level, LevelForExperience(threshold),
			"порог %d должен давать уровень %d", threshold, level)
		if threshold > 0 {
			assert.Equal(t, level-1, LevelForExperience(threshold-1),
				"опыт %d должен оставаться на уровне %d", threshold-1, level-1)
		}
	}
}

func TestThresholdForLevel_RoundTrip(t *testing.T) {
	for level := 1; level <= 60; level++ {
		threshold := ThresholdForLevel(level)
		assert.Equal(t, level, LevelForExperience(threshold),
			"ThresholdForLevel(%d) должен быть нижней границей уровня", level)
	}
}

func TestThresholdForLevel_BelowOne(t *testing.T) {
	assert.Equal(t, int64(0), ThresholdForLevel(0))
	assert.Equal(t, int64(0), ThresholdForLevel(1))
}
