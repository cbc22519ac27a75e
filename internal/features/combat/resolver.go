// Package combat — resolver.go содержит чистую арифметику урона.
// Функции не имеют побочных эффектов и работают со снимком состояния:
// блокировки не нужны, за сериализацию записи отвечает вызывающий.
package combat

// State — боевое состояние защитника на момент удара.
type State struct {
	Health            int // Текущее здоровье
	MaxHealth         int // Максимум здоровья
	Shield            int // Временный щит, поглощает урон до здоровья
	ResistancePercent int // Постоянное сопротивление, 0-100
}

// Outcome — результат применения урона.
type Outcome struct {
	State            State // Новое состояние защитника
	AbsorbedByShield int   // Сколько урона поглотил щит
	AppliedToHealth  int   // Сколько урона дошло до здоровья
	Defeated         bool  // Здоровье опустилось до 0
}

// Resolve применяет входящий урон к состоянию защитника.
//
// Порядок зафиксирован:
//  1. Сопротивление уменьшает урон ОДИН раз, с округлением
//     до ближайшего целого (половина — вверх).
//  2. Щит поглощает уменьшенный урон. Переполнение (остаток сверх щита)
//     уходит в здоровье БЕЗ повторного применения сопротивления —
//     урон уже был уменьшен на шаге 1.
//  3. Здоровье не опускается ниже 0; ноль означает поражение.
//
// Неположительный урон не меняет состояние.
func Resolve(st State, incomingDamage int) Outcome {
	out := Outcome{State: st}

	if incomingDamage <= 0 {
		return out
	}

	mitigated := mitigate(incomingDamage, st.ResistancePercent)

	if st.Shield > 0 {
		if mitigated <= st.Shield {
			// Щит держит весь урон
			out.State.Shield = st.Shield - mitigated
			out.AbsorbedByShield = mitigated
			return out
		}
		// Щит пробит: остаток идёт в здоровье
		out.AbsorbedByShield = st.Shield
		out.AppliedToHealth = mitigated - st.Shield
		out.State.Shield = 0
	} else {
		out.AppliedToHealth = mitigated
	}

	out.State.Health = st.Health - out.AppliedToHealth
	if out.State.Health <= 0 {
		out.State.Health = 0
		out.Defeated = true
	}

	return out
}

// mitigate уменьшает урон на процент сопротивления.
// Округление — половина вверх, в целых числах: (dmg*(100-res)+50)/100.
// Сопротивление ограничивается диапазоном 0-100.
func mitigate(damage, resistancePercent int) int {
	res := resistancePercent
	if res < 0 {
		res = 0
	}
	if res > 100 {
		res = 100
	}
	return (damage*(100-res) + 50) / 100
}
