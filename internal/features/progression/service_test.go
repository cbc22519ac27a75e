package progression

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/arena-bot/internal/common"
	"serotonyl.ru/arena-bot/internal/config"
	"serotonyl.ru/arena-bot/internal/features/economy"
)

type fakeStore struct {
	gain    *ExperienceGain
	err     error
	granted []int64
}

func (f *fakeStore) AddExperience(_ context.Context, _ int64, amount int64) (*ExperienceGain, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.granted = append(f.granted, amount)
	return f.gain, nil
}

func (f *fakeStore) GetProgress(context.Context, int64) (int64, int, error) {
	return f.gain.NewExperience, f.gain.NewLevel, nil
}

func (f *fakeStore) OverrideLevel(context.Context, int64, int) error { return nil }

type grant struct {
	amount int64
	reason economy.Reason
}

type fakeLedger struct {
	grants []grant
	err    error
}

func (f *fakeLedger) AddCurrency(_ context.Context, _ int64, delta int64, reason economy.Reason, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.grants = append(f.grants, grant{amount: delta, reason: reason})
	return nil
}

type fakeCatalog struct {
	unlocked []int
	err      error
}

func (f *fakeCatalog) UnlockContentForLevel(_ context.Context, _ int64, level int) error {
	if f.err != nil {
		return f.err
	}
	f.unlocked = append(f.unlocked, level)
	return nil
}

func newTestService(store *fakeStore, ledger *fakeLedger, catalog *fakeCatalog) *Service {
	return NewService(store, ledger, catalog, nil, &config.Config{ProgressionMessageXP: 5})
}

func TestGrantExperience_NegativeRejected(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeLedger{}, &fakeCatalog{})

	err := svc.GrantExperience(context.Background(), 1, -10)
	require.ErrorIs(t, err, common.ErrInvalidAmount)
	assert.Empty(t, store.granted, "отрицательное начисление не должно доходить до хранилища")
}

func TestGrantExperience_ZeroIsNoop(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeLedger{}, &fakeCatalog{})

	require.NoError(t, svc.GrantExperience(context.Background(), 1, 0))
	assert.Empty(t, store.granted)
}

func TestGrantExperience_NoLevelUp(t *testing.T) {
	store := &fakeStore{gain: &ExperienceGain{OldLevel: 7, NewLevel: 7}}
	ledger := &fakeLedger{}
	svc := newTestService(store, ledger, &fakeCatalog{})

	require.NoError(t, svc.GrantExperience(context.Background(), 1, 50))
	assert.Empty(t, ledger.grants, "без повышения уровня наград нет")
}

func TestGrantExperience_SingleMilestone(t *testing.T) {
	store := &fakeStore{gain: &ExperienceGain{OldLevel: 4, NewLevel: 5}}
	ledger := &fakeLedger{}
	catalog := &fakeCatalog{}
	svc := newTestService(store, ledger, catalog)

	require.NoError(t, svc.GrantExperience(context.Background(), 1, 300))

	require.Len(t, ledger.grants, 1)
	assert.Equal(t, int64(40), ledger.grants[0].amount)
	assert.Equal(t, economy.ReasonMilestone, ledger.grants[0].reason)
	assert.Equal(t, []int{5}, catalog.unlocked)
}

func TestGrantExperience_MultipleMilestonesSingleGrant(t *testing.T) {
	// Одно большое начисление пересекает уровни 5, 10 и 15:
	// каждая награда выдаётся ровно один раз, по возрастанию
	store := &fakeStore{gain: &ExperienceGain{OldLevel: 3, NewLevel: 16}}
	ledger := &fakeLedger{}
	catalog := &fakeCatalog{}
	svc := newTestService(store, ledger, catalog)

	require.NoError(t, svc.GrantExperience(context.Background(), 1, 100000))

	require.Len(t, ledger.grants, 3)
	assert.Equal(t, int64(40), ledger.grants[0].amount)
	assert.Equal(t, int64(60), ledger.grants[1].amount)
	assert.Equal(t, int64(80), ledger.grants[2].amount)

	// Контент открыт для каждого нового уровня
	assert.Equal(t, []int{4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}, catalog.unlocked)
}

func TestGrantExperience_CatalogFailureDoesNotBlock(t *testing.T) {
	store := &fakeStore{gain: &ExperienceGain{OldLevel: 4, NewLevel: 5}}
	ledger := &fakeLedger{}
	catalog := &fakeCatalog{err: errors.New("каталог недоступен")}
	svc := newTestService(store, ledger, catalog)

	require.NoError(t, svc.GrantExperience(context.Background(), 1, 300))
	assert.Len(t, ledger.grants, 1, "награда выдаётся несмотря на сбой каталога")
}

func TestGrantExperience_LedgerFailureReturned(t *testing.T) {
	store := &fakeStore{gain: &ExperienceGain{OldLevel: 4, NewLevel: 5}}
	ledger := &fakeLedger{err: errors.New("бд недоступна")}
	svc := newTestService(store, ledger, &fakeCatalog{})

	err := svc.GrantExperience(context.Background(), 1, 300)
	require.Error(t, err)
}

func TestGrantMessageExperience(t *testing.T) {
	store := &fakeStore{gain: &ExperienceGain{OldLevel: 2, NewLevel: 2}}
	svc := newTestService(store, &fakeLedger{}, &fakeCatalog{})

	// Подходящее сообщение
	require.NoError(t, svc.GrantMessageExperience(context.Background(), 1, "три слова тут"))
	require.Len(t, store.granted, 1)
	assert.Equal(t, int64(5), store.granted[0])

	// Команда и короткое сообщение игнорируются
	require.NoError(t, svc.GrantMessageExperience(context.Background(), 1, "!атака @враг раз"))
	require.NoError(t, svc.GrantMessageExperience(context.Background(), 1, "коротко"))
	assert.Len(t, store.granted, 1)
}

// accountedLedger ведёт счета как реальный репозиторий после начисления:
// кредит игроку без счёта создаёт счёт в той же операции, а не падает.
type accountedLedger struct {
	accounts map[int64]int64
	grants   []grant
}

func (f *accountedLedger) AddCurrency(_ context.Context, userID int64, delta int64, reason economy.Reason, _ string) error {
	if f.accounts == nil {
		f.accounts = make(map[int64]int64)
	}
	if _, ok := f.accounts[userID]; !ok {
		f.accounts[userID] = 0
	}
	if f.accounts[userID]+delta < 0 {
		return &common.InsufficientFundsError{Need: -delta, Have: f.accounts[userID]}
	}
	f.accounts[userID] += delta
	f.grants = append(f.grants, grant{amount: delta, reason: reason})
	return nil
}

// Игрок, впервые написавший в чат, ещё не имеет счёта в экономике.
// Награда за рубеж обязана дойти и до него: начисление создаёт счёт,
// а не теряет награду навсегда из-за уже зафиксированного уровня.
func TestGrantExperience_FirstContactPlayerGetsMilestone(t *testing.T) {
	store := &fakeStore{gain: &ExperienceGain{
		OldLevel: 4, NewLevel: 5, NewExperience: 700,
	}}
	ledger := &accountedLedger{}
	svc := NewService(store, ledger, &fakeCatalog{}, nil, &config.Config{ProgressionMessageXP: 5})

	require.NoError(t, svc.GrantExperience(context.Background(), 777, 700))

	require.Len(t, ledger.grants, 1, "награда за уровень 5 должна быть выдана ровно один раз")
	assert.Equal(t, grant{amount: 40, reason: economy.ReasonMilestone}, ledger.grants[0])
	assert.Equal(t, int64(40), ledger.accounts[777])
}
