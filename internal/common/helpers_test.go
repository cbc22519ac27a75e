package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPluralizeCrystals(t *testing.T) {
	cases := map[int64]string{
		0:   "кристаллов",
		1:   "кристалл",
		2:   "кристалла",
		4:   "кристалла",
		5:   "кристаллов",
		11:  "кристаллов",
		12:  "кристаллов",
		21:  "кристалл",
		24:  "кристалла",
		111: "кристаллов",
		-3:  "кристалла",
	}
	for n, want := range cases {
		assert.Equal(t, want, PluralizeCrystals(n), "n=%d", n)
	}
}

func TestPluralizeDays(t *testing.T) {
	assert.Equal(t, "день", PluralizeDays(1))
	assert.Equal(t, "дня", PluralizeDays(3))
	assert.Equal(t, "дней", PluralizeDays(7))
	assert.Equal(t, "дней", PluralizeDays(11))
	assert.Equal(t, "день", PluralizeDays(21))
}

func TestFormatBalance(t *testing.T) {
	assert.Equal(t, "150 кристаллов", FormatBalance(150))
	assert.Equal(t, "1 кристалл", FormatBalance(1))
}

func TestFormatCrystalsAmount(t *testing.T) {
	assert.Equal(t, "+100 кристаллов", FormatCrystalsAmount(100))
	assert.Equal(t, "-50 кристаллов", FormatCrystalsAmount(-50))
	assert.Equal(t, "+1 кристалл", FormatCrystalsAmount(1))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "2 350", FormatNumber(2350))
	assert.Equal(t, "1 000 000", FormatNumber(1000000))
	assert.Equal(t, "-2 350", FormatNumber(-2350))
}

func TestAddMonth(t *testing.T) {
	assert.Equal(t,
		time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC),
		AddMonth(time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)))

	// Перенос через конец года
	assert.Equal(t,
		time.Date(2027, 1, 10, 0, 0, 0, 0, time.UTC),
		AddMonth(time.Date(2026, 12, 10, 0, 0, 0, 0, time.UTC)))
}

func TestDateOnly(t *testing.T) {
	tm := time.Date(2026, 8, 31, 23, 59, 58, 123, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), DateOnly(tm))
}

func TestInsufficientFundsError(t *testing.T) {
	err := &InsufficientFundsError{Need: 150, Have: 20}

	assert.True(t, errors.Is(err, ErrInsufficientBalance))
	assert.Equal(t, int64(130), err.Shortfall())

	var ife *InsufficientFundsError
	assert.True(t, errors.As(error(err), &ife))
}
