package service

import (
	"sort"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
)

// Mix is the share of each difficulty in a session, in percent.
type Mix struct {
	Easy   int
	Medium int
	Hard   int
}

// Mix endpoints for the lowest and the highest level.
var (
	lowestLevelMix  = Mix{Easy: 70, Medium: 20, Hard: 10}
	highestLevelMix = Mix{Easy: 20, Medium: 30, Hard: 50}
)

// DifficultyMix interpolates linearly between the lowest and highest level mix.
// The hard share never decreases as the level grows.
func DifficultyMix(level int) Mix {
	steps := entities.MaxLevel - 1
	step := min(max(level, 1), entities.MaxLevel) - 1

	hard := lowestLevelMix.Hard + (highestLevelMix.Hard-lowestLevelMix.Hard)*step/steps
	medium := lowestLevelMix.Medium + (highestLevelMix.Medium-lowestLevelMix.Medium)*step/steps

	return Mix{Easy: 100 - hard - medium, Medium: medium, Hard: hard}
}

func (m Mix) share(d entities.Difficulty) int {
	switch d {
	case entities.DifficultyEasy:
		return m.Easy
	case entities.DifficultyMedium:
		return m.Medium
	case entities.DifficultyHard:
		return m.Hard
	}
	return 0
}

// Quotas splits total questions across difficulties with the largest
// remainder method, so the quotas always sum to total.
// Ties on the remainder favour the harder difficulty.
func (m Mix) Quotas(total int) map[entities.Difficulty]int {
	quotas := make(map[entities.Difficulty]int, len(entities.Difficulties))
	if total <= 0 {
		return quotas
	}

	type part struct {
		d   entities.Difficulty
		rem int
		idx int
	}

	parts := make([]part, 0, len(entities.Difficulties))
	assigned := 0
	for i, d := range entities.Difficulties {
		exact := total * m.share(d)
		quotas[d] = exact / 100
		assigned += quotas[d]
		parts = append(parts, part{d: d, rem: exact % 100, idx: i})
	}

	sort.Slice(parts, func(i, j int) bool {
		if parts[i].rem != parts[j].rem {
			return parts[i].rem > parts[j].rem
		}
		return parts[i].idx > parts[j].idx
	})

	for i := 0; assigned < total; i = (i + 1) % len(parts) {
		quotas[parts[i].d]++
		assigned++
	}

	return quotas
}
