package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestActivePromotion_InclusiveWindow(t *testing.T) {
	p := &Promotion{ID: 1, Name: "Майская", StartsOn: day(2026, 5, 1), EndsOn: day(2026, 5, 10)}
	promos := []*Promotion{p}

	// Граничные дни входят в окно
	assert.Equal(t, p, ActivePromotion(promos, day(2026, 5, 1)))
	assert.Equal(t, p, ActivePromotion(promos, day(2026, 5, 10)))
	// Время внутри дня не влияет
	assert.Equal(t, p, ActivePromotion(promos, time.Date(2026, 5, 10, 23, 59, 0, 0, time.UTC)))

	// За пределами окна
	assert.Nil(t, ActivePromotion(promos, day(2026, 4, 30)))
	assert.Nil(t, ActivePromotion(promos, day(2026, 5, 11)))
}

func TestActivePromotion_OverlapLatestStartWins(t *testing.T) {
	older := &Promotion{ID: 1, Name: "Старая", StartsOn: day(2026, 5, 1), EndsOn: day(2026, 5, 31)}
	newer := &Promotion{ID: 2, Name: "Новая", StartsOn: day(2026, 5, 15), EndsOn: day(2026, 5, 20)}
	promos := []*Promotion{older, newer}

	// В пересечении побеждает начавшаяся позже
	assert.Equal(t, newer, ActivePromotion(promos, day(2026, 5, 16)))
	// До и после пересечения — старая
	assert.Equal(t, older, ActivePromotion(promos, day(2026, 5, 10)))
	assert.Equal(t, older, ActivePromotion(promos, day(2026, 5, 25)))

	// Порядок в слайсе не влияет
	assert.Equal(t, newer, ActivePromotion([]*Promotion{newer, older}, day(2026, 5, 16)))
}

func TestActivePromotion_SameStartHigherIDWins(t *testing.T) {
	a := &Promotion{ID: 1, Name: "А", StartsOn: day(2026, 6, 1), EndsOn: day(2026, 6, 10)}
	b := &Promotion{ID: 2, Name: "Б", StartsOn: day(2026, 6, 1), EndsOn: day(2026, 6, 10)}

	assert.Equal(t, b, ActivePromotion([]*Promotion{a, b}, day(2026, 6, 5)))
	assert.Equal(t, b, ActivePromotion([]*Promotion{b, a}, day(2026, 6, 5)))
}

func TestActivePromotion_Empty(t *testing.T) {
	assert.Nil(t, ActivePromotion(nil, day(2026, 5, 1)))
}

func TestCostsFor(t *testing.T) {
	p := &Promotion{
		ID: 1, Name: "Скидка", PremiumCost: 300, MaintenanceCost: 100,
		StartsOn: day(2026, 5, 1), EndsOn: day(2026, 5, 10),
	}
	promos := []*Promotion{p}

	// В окне — акционные цены
	costs := CostsFor(promos, day(2026, 5, 5), 500, 150)
	require.Equal(t, int64(300), costs.Premium)
	require.Equal(t, int64(100), costs.Maintenance)
	assert.Equal(t, "Скидка", costs.Promotion)

	// Вне окна — базовые
	costs = CostsFor(promos, day(2026, 5, 11), 500, 150)
	require.Equal(t, int64(500), costs.Premium)
	require.Equal(t, int64(150), costs.Maintenance)
	assert.Empty(t, costs.Promotion)
}
