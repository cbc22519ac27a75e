package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReminderText(t *testing.T) {
	expires := time.Date(2026, 9, 3, 12, 0, 0, 0, time.UTC)

	assert.Equal(t,
		"⏳ Подписка закончится через 3 дня (03.09.2026). Продлить: !продлить",
		reminderText(3, expires))
	assert.Equal(t,
		"⏳ Подписка закончится через 1 день (03.09.2026). Продлить: !продлить",
		reminderText(1, expires))
	assert.Equal(t,
		"⏳ Подписка закончится через 5 дней (03.09.2026). Продлить: !продлить",
		reminderText(5, expires))
}
