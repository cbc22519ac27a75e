package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/arena-bot/internal/common"
	"serotonyl.ru/arena-bot/internal/config"
	"serotonyl.ru/arena-bot/internal/features/players"
)

type renewCall struct {
	cost      int64
	now       time.Time
	newExpiry time.Time
}

type fakeSubStore struct {
	promos []*Promotion

	activateErr error
	renewErr    error
	lapseErr    error

	activated []int64
	renews    []renewCall
	topUps    []int64
	lapses    []int64
	autoRenew map[int64]bool

	expiresAt time.Time
}

func (f *fakeSubStore) ActivatePremium(_ context.Context, userID int64, cost int64, _ time.Time) error {
	if f.activateErr != nil {
		return f.activateErr
	}
	f.activated = append(f.activated, userID)
	return nil
}

func (f *fakeSubStore) RenewPremium(_ context.Context, userID int64, cost int64, now, newExpiry time.Time) error {
	if f.renewErr != nil {
		return f.renewErr
	}
	f.renews = append(f.renews, renewCall{cost: cost, now: now, newExpiry: newExpiry})
	return nil
}

// TopUpPremium повторяет арифметику репозитория: срок сдвигается
// на месяц от хранимого значения, а не подменяется извне.
func (f *fakeSubStore) TopUpPremium(_ context.Context, userID int64, cost int64) (time.Time, error) {
	f.topUps = append(f.topUps, cost)
	f.expiresAt = common.AddMonth(f.expiresAt)
	return f.expiresAt, nil
}

func (f *fakeSubStore) Lapse(_ context.Context, userID int64, _ time.Time) error {
	if f.lapseErr != nil {
		return f.lapseErr
	}
	f.lapses = append(f.lapses, userID)
	return nil
}

func (f *fakeSubStore) SetAutoRenew(_ context.Context, userID int64, on bool) error {
	if f.autoRenew == nil {
		f.autoRenew = make(map[int64]bool)
	}
	f.autoRenew[userID] = on
	return nil
}

func (f *fakeSubStore) ListPromotions(context.Context) ([]*Promotion, error) {
	return f.promos, nil
}

func (f *fakeSubStore) CreatePromotion(_ context.Context, p *Promotion) error {
	f.promos = append(f.promos, p)
	return nil
}

type fakePlayerStore struct {
	player *players.Player
}

func (f *fakePlayerStore) GetByUserID(context.Context, int64) (*players.Player, error) {
	return f.player, nil
}

type fakeDemoter struct {
	demoted []int64
}

func (f *fakeDemoter) DemoteToFreeEquivalent(_ context.Context, userID int64, _ int) error {
	f.demoted = append(f.demoted, userID)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{PremiumCost: 500, PremiumMaintenanceCost: 150}
}

func premiumPlayer(autoRenew bool, expiresAt time.Time) *players.Player {
	return &players.Player{
		UserID:           42,
		Level:            12,
		IsPremium:        true,
		AutoRenew:        autoRenew,
		PremiumExpiresAt: &expiresAt,
	}
}

func TestBuyPremium_MonthFromNow(t *testing.T) {
	store := &fakeSubStore{}
	svc := NewService(store, &fakePlayerStore{}, &fakeDemoter{}, nil, testConfig())

	bought := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return bought }

	expiresAt, err := svc.BuyPremium(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, common.AddMonth(bought), expiresAt)
	assert.Equal(t, []int64{42}, store.activated)
}

func TestBuyPremium_PromotionPriceApplies(t *testing.T) {
	now := time.Date(2026, 5, 5, 10, 0, 0, 0, time.UTC)
	store := &fakeSubStore{promos: []*Promotion{{
		ID: 1, Name: "Скидка", PremiumCost: 300, MaintenanceCost: 100,
		StartsOn: day(2026, 5, 1), EndsOn: day(2026, 5, 10),
	}}}
	svc := NewService(store, &fakePlayerStore{}, &fakeDemoter{}, nil, testConfig())
	svc.now = func() time.Time { return now }

	costs, err := svc.CurrentCosts(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(300), costs.Premium)

	_, err = svc.BuyPremium(context.Background(), 42)
	require.NoError(t, err)
}

func TestBuyPremiumExtra_Additive(t *testing.T) {
	currentExpiry := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	store := &fakeSubStore{expiresAt: currentExpiry}
	svc := NewService(store, &fakePlayerStore{}, &fakeDemoter{}, nil, testConfig())
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC) }

	newExpiry, err := svc.BuyPremiumExtra(context.Background(), 42)
	require.NoError(t, err)

	// Продление считается от текущего срока, не от момента оплаты
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), newExpiry)
	// Списывается цена продления, не покупки
	require.Len(t, store.topUps, 1)
	assert.Equal(t, int64(150), store.topUps[0])

	// Два подряд продления складываются: два месяца от исходного срока
	newExpiry, err = svc.BuyPremiumExtra(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC), newExpiry)
	assert.Equal(t, []int64{150, 150}, store.topUps)
}

func TestCheckExpiry_NotDueIsNoop(t *testing.T) {
	now := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	store := &fakeSubStore{}
	ps := &fakePlayerStore{player: premiumPlayer(true, now.AddDate(0, 0, 10))}
	svc := NewService(store, ps, &fakeDemoter{}, nil, testConfig())

	require.NoError(t, svc.CheckExpiry(context.Background(), 42, now))
	assert.Empty(t, store.renews)
	assert.Empty(t, store.lapses)
}

func TestCheckExpiry_AutoRenewExtendsFromNow(t *testing.T) {
	// Подписка истекла 5 дней назад: новый срок считается от now,
	// просроченные дни не накапливаются
	now := time.Date(2026, 8, 31, 0, 5, 0, 0, time.UTC)
	expired := now.AddDate(0, 0, -5)
	store := &fakeSubStore{}
	ps := &fakePlayerStore{player: premiumPlayer(true, expired)}
	svc := NewService(store, ps, &fakeDemoter{}, nil, testConfig())

	require.NoError(t, svc.CheckExpiry(context.Background(), 42, now))

	require.Len(t, store.renews, 1)
	assert.Equal(t, int64(150), store.renews[0].cost)
	assert.Equal(t, common.AddMonth(now), store.renews[0].newExpiry)
	assert.Empty(t, store.lapses)
}

func TestCheckExpiry_ConcurrentRenewalIdempotent(t *testing.T) {
	now := time.Date(2026, 8, 31, 0, 5, 0, 0, time.UTC)
	store := &fakeSubStore{renewErr: common.ErrConflict}
	ps := &fakePlayerStore{player: premiumPlayer(true, now.AddDate(0, 0, -1))}
	svc := NewService(store, ps, &fakeDemoter{}, nil, testConfig())

	// Параллельный тик уже продлил подписку — ошибки нет, завершения нет
	require.NoError(t, svc.CheckExpiry(context.Background(), 42, now))
	assert.Empty(t, store.lapses)
}

func TestCheckExpiry_InsufficientFundsLapses(t *testing.T) {
	now := time.Date(2026, 8, 31, 0, 5, 0, 0, time.UTC)
	store := &fakeSubStore{renewErr: &common.InsufficientFundsError{Need: 150, Have: 20}}
	ps := &fakePlayerStore{player: premiumPlayer(true, now.AddDate(0, 0, -1))}
	demoter := &fakeDemoter{}
	svc := NewService(store, ps, demoter, nil, testConfig())

	require.NoError(t, svc.CheckExpiry(context.Background(), 42, now))

	assert.Equal(t, []int64{42}, store.lapses)
	assert.Equal(t, []int64{42}, demoter.demoted)
}

func TestCheckExpiry_NoAutoRenewLapses(t *testing.T) {
	now := time.Date(2026, 8, 31, 0, 5, 0, 0, time.UTC)
	store := &fakeSubStore{}
	ps := &fakePlayerStore{player: premiumPlayer(false, now.AddDate(0, 0, -1))}
	demoter := &fakeDemoter{}
	svc := NewService(store, ps, demoter, nil, testConfig())

	require.NoError(t, svc.CheckExpiry(context.Background(), 42, now))

	assert.Empty(t, store.renews, "без автопродления списаний нет")
	assert.Equal(t, []int64{42}, store.lapses)
	assert.Equal(t, []int64{42}, demoter.demoted)
}

func TestCheckExpiry_LapseConflictIdempotent(t *testing.T) {
	now := time.Date(2026, 8, 31, 0, 5, 0, 0, time.UTC)
	store := &fakeSubStore{lapseErr: common.ErrConflict}
	ps := &fakePlayerStore{player: premiumPlayer(false, now.AddDate(0, 0, -1))}
	svc := NewService(store, ps, &fakeDemoter{}, nil, testConfig())

	require.NoError(t, svc.CheckExpiry(context.Background(), 42, now))
}

func TestSetAutoRenew(t *testing.T) {
	store := &fakeSubStore{}
	svc := NewService(store, &fakePlayerStore{}, &fakeDemoter{}, nil, testConfig())

	require.NoError(t, svc.SetAutoRenew(context.Background(), 42, false))
	assert.False(t, store.autoRenew[42])

	require.NoError(t, svc.SetAutoRenew(context.Background(), 42, true))
	assert.True(t, store.autoRenew[42])
}
