package task

import "sort"

// SortByScore orders tasks by AI score, highest first. The sort is stable, so
// tasks given in insertion order keep that order among equal scores.
func SortByScore(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].aiScore > tasks[j].aiScore
	})
}
