// Package progression — curve.go содержит кривую опыта.
// Таблица порогов отображает накопленный опыт в уровень.
package progression

// levelThresholds[i] — минимальный опыт для уровня i+1.
// Таблица покрывает уровни 1-48; дальше пороги продолжаются
// с фиксированным шагом (линейная экстраполяция по двум последним точкам).
var levelThresholds = []int64{
	0,     // 1
	100,   // 2
	250,   // 3
	450,   // 4
	700,   // 5
	1000,  // 6
	1350,  // 7
	1750,  // 8
	2200,  // 9
	2700,  // 10
	3250,  // 11
	3850,  // 12
	4500,  // 13
	5200,  // 14
	5950,  // 15
	6750,  // 16
	7600,  // 17
	8500,  // 18
	9450,  // 19
	10450, // 20
	11500, // 21
	12600, // 22
	13750, // 23
	14950, // 24
	16200, // 25
	17500, // 26
	18850, // 27
	20250, // 28
	21700, // 29
	23200, // 30
	24750, // 31
	26350, // 32
	28000, // 33
	29700, // 34
	31450, // 35
	33250, // 36
	35100, // 37
	37000, // 38
	38950, // 39
	40950, // 40
	43000, // 41
	45100, // 42
	47250, // 43
	49450, // 44
	51700, // 45
	54000, // 46
	56350, // 47
	58750, // 48
}

// maxTabulatedLevel — последний уровень с явным порогом в таблице.
const maxTabulatedLevel = 48

// extrapolationStep — шаг порогов после таблицы:
// разница между двумя последними табличными порогами.
var extrapolationStep = levelThresholds[maxTabulatedLevel-1] - levelThresholds[maxTabulatedLevel-2]

// LevelForExperience возвращает наибольший уровень, чей порог не превышает exp.
// Чистая функция без побочных эффектов, не убывает по exp.
// Отрицательный опыт трактуется как нулевой (уровень 1).
func LevelForExperience(exp int64) int {
	if exp <= 0 {
		return 1
	}

	// За пределами таблицы — линейная экстраполяция
	last := levelThresholds[maxTabulatedLevel-1]
	if exp >= last {
		return maxTabulatedLevel + int((exp-last)/extrapolationStep)
	}

	// Бинарный поиск последнего порога <= exp
	lo, hi := 0, maxTabulatedLevel-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if levelThresholds[mid] <= exp {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

// ThresholdForLevel возвращает минимальный опыт, необходимый для уровня.
// Нужен админскому переопределению уровня: опыт пересинхронизируется
// на нижнюю границу, чтобы кеш уровня снова выводился из кривой.
func ThresholdForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level <= maxTabulatedLevel {
		return levelThresholds[level-1]
	}
	return levelThresholds[maxTabulatedLevel-1] + int64(level-maxTabulatedLevel)*extrapolationStep
}
