package combat

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

type fakeCombatStore struct {
	outcome *Outcome
	applied []int
	shields []int
}

func (f *fakeCombatStore) ApplyDamage(_ context.Context, _ int64, incomingDamage int) (*Outcome, error) {
	f.applied = append(f.applied, incomingDamage)
	return f.outcome, nil
}

func (f *fakeCombatStore) SetShield(_ context.Context, _ int64, amount int) error {
	f.shields = append(f.shields, amount)
	return nil
}

func (f *fakeCombatStore) GetState(context.Context, int64) (*State, error) {
	return &f.outcome.State, nil
}

type fakeProgression struct {
	granted []int64
	err     error
}

func (f *fakeProgression) GrantExperience(_ context.Context, _ int64, amount int64) error {
	if f.err != nil {
		return f.err
	}
	f.granted = append(f.granted, amount)
	return nil
}

type fakeCombatLedger struct {
	loot []int64
}

func (f *fakeCombatLedger) AddCurrency(_ context.Context, _ int64, delta int64, _ economy.Reason, _ string) error {
	f.loot = append(f.loot, delta)
	return nil
}

func combatConfig() *config.Config {
	return &config.Config{
		CombatStartingHealth: 100,
		CombatKillExperience: 50,
		CombatKillLoot:       25,
	}
}

func TestAttack_SelfRejected(t *testing.T) {
	svc := NewService(&fakeCombatStore{}, &fakeProgression{}, &fakeCombatLedger{}, nil, combatConfig())

	_, err := svc.Attack(context.Background(), 7, 7, 10)
	require.ErrorIs(t, err, common.ErrSelfTransfer)
}

func TestAttack_NonPositiveDamageRejected(t *testing.T) {
	svc := NewService(&fakeCombatStore{}, &fakeProgression{}, &fakeCombatLedger{}, nil, combatConfig())

	_, err := svc.Attack(context.Background(), 7, 8, 0)
	require.ErrorIs(t, err, common.ErrInvalidAmount)

	_, err = svc.Attack(context.Background(), 7, 8, -5)
	require.ErrorIs(t, err, common.ErrInvalidAmount)
}

func TestAttack_NoDefeatNoRewards(t *testing.T) {
	store := &fakeCombatStore{outcome: &Outcome{
		State:           State{Health: 60, MaxHealth: 100},
		AppliedToHealth: 40,
	}}
	prog := &fakeProgression{}
	ledger := &fakeCombatLedger{}
	svc := NewService(store, prog, ledger, nil, combatConfig())

	out, err := svc.Attack(context.Background(), 7, 8, 40)
	require.NoError(t, err)
	assert.False(t, out.Defeated)
	assert.Empty(t, prog.granted)
	assert.Empty(t, ledger.loot)
}

func TestAttack_DefeatGrantsRewards(t *testing.T) {
	store := &fakeCombatStore{outcome: &Outcome{
		State:           State{Health: 0, MaxHealth: 100},
		AppliedToHealth: 60,
		Defeated:        true,
	}}
	prog := &fakeProgression{}
	ledger := &fakeCombatLedger{}
	svc := NewService(store, prog, ledger, nil, combatConfig())

	out, err := svc.Attack(context.Background(), 7, 8, 60)
	require.NoError(t, err)
	require.True(t, out.Defeated)

	require.Len(t, prog.granted, 1)
	assert.Equal(t, int64(50), prog.granted[0])
	require.Len(t, ledger.loot, 1)
	assert.Equal(t, int64(25), ledger.loot[0])
}

func TestAttack_RewardFailureDoesNotFailAttack(t *testing.T) {
	// Бой уже зафиксирован в БД: сбой начисления наград его не откатывает
	store := &fakeCombatStore{outcome: &Outcome{
		State:    State{Health: 0, MaxHealth: 100},
		Defeated: true,
	}}
	prog := &fakeProgression{err: errors.New("бд недоступна")}
	svc := NewService(store, prog, &fakeCombatLedger{}, nil, combatConfig())

	out, err := svc.Attack(context.Background(), 7, 8, 60)
	require.NoError(t, err)
	assert.True(t, out.Defeated)
}

func TestCastShield(t *testing.T) {
	store := &fakeCombatStore{outcome: &Outcome{}}
	svc := NewService(store, &fakeProgression{}, &fakeCombatLedger{}, nil, combatConfig())

	require.NoError(t, svc.CastShield(context.Background(), 7, 30))
	assert.Equal(t, []int{30}, store.shields)

	// Ноль допустим (снятие щита), отрицательное — нет
	require.NoError(t, svc.CastShield(context.Background(), 7, 0))
	require.ErrorIs(t, svc.CastShield(context.Background(), 7, -1), common.ErrInvalidAmount)
}
