// Package progression — milestones.go содержит награды за рубежные уровни.
// Рубеж — уровень, кратный 5; награда выдаётся один раз при первом достижении.
package progression

// milestoneRewards — фиксированное расписание наград по уровню.
// После 40-го все рубежи дают 250 кристаллов.
var milestoneRewards = map[int]int64{
	5:  40,
	10: 60,
	15: 80,
	20: 100,
	25: 120,
	30: 150,
	35: 200,
	40: 250,
}

// MilestoneReward возвращает награду в кристаллах за достижение уровня.
// Для уровня, не кратного 5, возвращает 0.
func MilestoneReward(level int) int64 {
	if level < 5 || level%5 != 0 {
		return 0
	}
	if reward, ok := milestoneRewards[level]; ok {
		return reward
	}
	// Любой рубеж после 40-го
	return 250
}

// MilestonesCrossed возвращает рубежные уровни, пройденные при переходе
// с oldLevel на newLevel, по возрастанию. Каждый рубеж встречается
// ровно один раз, даже если один вызов пересёк несколько порогов.
func MilestonesCrossed(oldLevel, newLevel int) []int {
	if newLevel <= oldLevel {
		return nil
	}
	var crossed []int
	// Первый кратный 5 уровень строго выше oldLevel
	first := (oldLevel/5 + 1) * 5
	for lvl := first; lvl <= newLevel; lvl += 5 {
		crossed = append(crossed, lvl)
	}
	return crossed
}
