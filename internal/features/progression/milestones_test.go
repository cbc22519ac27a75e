package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMilestoneReward(t *testing.T) {
	assert.Equal(t, int64(0), MilestoneReward(1))
	assert.Equal(t, int64(0), MilestoneReward(4))
	assert.Equal(t, int64(40), MilestoneReward(5))
	assert.Equal(t, int64(0), MilestoneReward(7))
	assert.Equal(t, int64(60), MilestoneReward(10))
	assert.Equal(t, int64(150), MilestoneReward(30))
	assert.Equal(t, int64(250), MilestoneReward(40))

	// Все рубежи после 40-го дают фиксированные 250
	assert.Equal(t, int64(250), MilestoneReward(45))
	assert.Equal(t, int64(250), MilestoneReward(100))

	// Не кратные 5 никогда не награждаются
	assert.Equal(t, int64(0), MilestoneReward(41))
	assert.Equal(t, int64(0), MilestoneReward(99))
}

func TestMilestonesCrossed(t *testing.T) {
	// Один рубеж
	assert.Equal(t, []int{5}, MilestonesCrossed(4, 5))
	// Рубеж не пересечён
	assert.Nil(t, MilestonesCrossed(5, 6))
	assert.Nil(t, MilestonesCrossed(6, 9))
	// Несколько рубежей за одно начисление
	assert.Equal(t, []int{5, 10, 15}, MilestonesCrossed(3, 17))
	// Деградации нет
	assert.Nil(t, MilestonesCrossed(10, 10))
	assert.Nil(t, MilestonesCrossed(10, 7))
}

func TestMilestonesCrossed_BoundaryNotRepeated(t *testing.T) {
	// Игрок уже стоит на рубеже: повторного вознаграждения нет
	assert.Nil(t, MilestonesCrossed(30, 31))
	assert.Equal(t, []int{35}, MilestonesCrossed(30, 35))
}
