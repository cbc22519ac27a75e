package players

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileText_ShowsExperienceToNextLevel(t *testing.T) {
	p := &Player{
		Username:   "warrior",
		Level:      4,
		Experience: 500,
		Health:     80,
		MaxHealth:  100,
	}
	thresholds := func(level int) int64 {
		if level == 5 {
			return 700
		}
		return 0
	}

	text := profileText(p, thresholds)
	assert.Contains(t, text, "🏆 Уровень 4 (до следующего: 200 опыта)")
	assert.Contains(t, text, "❤️ Здоровье: 80/100")
	assert.Contains(t, text, "💤 Подписки нет")
}

func TestProfileText_WithoutThresholdFunc(t *testing.T) {
	p := &Player{FirstName: "Вася", Level: 3, Health: 100, MaxHealth: 100}

	text := profileText(p, nil)
	assert.Contains(t, text, "🏆 Уровень 3\n")
}

func TestProfileText_CombatStats(t *testing.T) {
	p := &Player{
		Username:          "mage",
		Level:             10,
		Health:            50,
		MaxHealth:         100,
		Shield:            30,
		ResistancePercent: 20,
	}

	text := profileText(p, nil)
	assert.Contains(t, text, "🛡 Щит: 30")
	assert.Contains(t, text, "🧿 Сопротивление: 20%")
}
