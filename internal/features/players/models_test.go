package players

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscription(t *testing.T) {
	expires := time.Now().AddDate(0, 0, 10)

	free := &Player{}
	assert.Equal(t, StateFree, free.Subscription())

	active := &Player{IsPremium: true, AutoRenew: true, PremiumExpiresAt: &expires}
	assert.Equal(t, StatePremiumActive, active.Subscription())

	noRenew := &Player{IsPremium: true, AutoRenew: false, PremiumExpiresAt: &expires}
	assert.Equal(t, StatePremiumNoRenew, noRenew.Subscription())
}

func TestDisplayName(t *testing.T) {
	withUsername := &Player{Username: "warrior", FirstName: "Вася"}
	assert.Equal(t, "@warrior", withUsername.DisplayName())

	withoutUsername := &Player{FirstName: "Вася"}
	assert.Equal(t, "Вася", withoutUsername.DisplayName())
}
