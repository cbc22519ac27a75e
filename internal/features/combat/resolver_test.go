package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_ResistanceThenShieldThenHealth(t *testing.T) {
	st := State{Health: 100, MaxHealth: 100, Shield: 50, ResistancePercent: 20}

	out := Resolve(st, 100)

	// 100 урона → 80 после сопротивления → щит 50 поглощает,
	// 30 переполнения идут в здоровье БЕЗ повторного уменьшения
	assert.Equal(t, 50, out.AbsorbedByShield)
	assert.Equal(t, 30, out.AppliedToHealth)
	assert.Equal(t, 0, out.State.Shield)
	assert.Equal(t, 70, out.State.Health)
	assert.False(t, out.Defeated)
}

func TestResolve_ShieldHoldsAll(t *testing.T) {
	st := State{Health: 40, MaxHealth: 100, Shield: 100, ResistancePercent: 0}

	out := Resolve(st, 60)

	assert.Equal(t, 60, out.AbsorbedByShield)
	assert.Equal(t, 0, out.AppliedToHealth)
	assert.Equal(t, 40, out.State.Shield)
	assert.Equal(t, 40, out.State.Health)
	assert.False(t, out.Defeated)
}

func TestResolve_Defeat(t *testing.T) {
	st := State{Health: 10, MaxHealth: 100, Shield: 0, ResistancePercent: 0}

	out := Resolve(st, 15)

	assert.Equal(t, 0, out.State.Health)
	assert.True(t, out.Defeated)
}

func TestResolve_ExactZeroIsDefeat(t *testing.T) {
	st := State{Health: 15, MaxHealth: 100}

	out := Resolve(st, 15)

	assert.Equal(t, 0, out.State.Health)
	assert.True(t, out.Defeated)
}

func TestResolve_RoundHalfUp(t *testing.T) {
	// 25% сопротивления от 10 урона: 7.5 округляется вверх до 8
	out := Resolve(State{Health: 100, MaxHealth: 100, ResistancePercent: 25}, 10)
	assert.Equal(t, 8, out.AppliedToHealth)

	// 50% от 5: 2.5 → 3
	out = Resolve(State{Health: 100, MaxHealth: 100, ResistancePercent: 50}, 5)
	assert.Equal(t, 3, out.AppliedToHealth)

	// 33% от 10: 6.7 → 7
	out = Resolve(State{Health: 100, MaxHealth: 100, ResistancePercent: 33}, 10)
	assert.Equal(t, 7, out.AppliedToHealth)
}

func TestResolve_FullResistance(t *testing.T) {
	out := Resolve(State{Health: 10, MaxHealth: 100, ResistancePercent: 100}, 1000)
	assert.Equal(t, 0, out.AppliedToHealth)
	assert.Equal(t, 10, out.State.Health)
	assert.False(t, out.Defeated)
}

func TestResolve_ResistanceClamped(t *testing.T) {
	// Значения вне 0-100 приводятся к границам
	out := Resolve(State{Health: 100, MaxHealth: 100, ResistancePercent: 150}, 50)
	assert.Equal(t, 0, out.AppliedToHealth)

	out = Resolve(State{Health: 100, MaxHealth: 100, ResistancePercent: -20}, 50)
	assert.Equal(t, 50, out.AppliedToHealth)
}

func TestResolve_NonPositiveDamageIsNoop(t *testing.T) {
	st := State{Health: 70, MaxHealth: 100, Shield: 20, ResistancePercent: 10}

	for _, dmg := range []int{0, -5} {
		out := Resolve(st, dmg)
		assert.Equal(t, st, out.State)
		assert.Equal(t, 0, out.AbsorbedByShield)
		assert.Equal(t, 0, out.AppliedToHealth)
		assert.False(t, out.Defeated)
	}
}

func TestResolve_OverflowNotReMitigated(t *testing.T) {
	// 100 урона при 50% сопротивления → 50; щит 30 поглощает,
	// 20 идут в здоровье. При повторном уменьшении было бы 10.
	st := State{Health: 100, MaxHealth: 100, Shield: 30, ResistancePercent: 50}

	out := Resolve(st, 100)

	assert.Equal(t, 30, out.AbsorbedByShield)
	assert.Equal(t, 20, out.AppliedToHealth)
	assert.Equal(t, 80, out.State.Health)
}
