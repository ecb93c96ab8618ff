// Package scoring assigns per-race points from the entry course and the
// finishing position.
package scoring

// Courses is the number of boats in a race.
const Courses = 6

var finishScore = [Courses + 1]int{0, 10, 8, 6, 4, 2, 1}

// rankingPoint[entry][position] rewards beating the course's expected
// position: entry minus position.
var rankingPoint = [Courses + 1][Courses + 1]int{
	{},
	{0, 0, -1, -2, -3, -4, -5},
	{0, 1, 0, -1, -2, -3, -4},
	{0, 2, 1, 0, -1, -2, -3},
	{0, 3, 2, 1, 0, -1, -2},
	{0, 4, 3, 2, 1, 0, -1},
	{0, 5, 4, 3, 2, 1, 0},
}

// conditionPoint is the ranking table adjusted for how hard each course
// is to win from.
var conditionPoint = [Courses + 1][Courses + 1]int{
	{},
	{0, 2, -1, -2, -3, -4, -5},
	{0, 1, 1, -1, -2, -3, -4},
	{0, 2, 1, 1, -1, -2, -3},
	{0, 3, 2, 1, 0, -1, -2},
	{0, 4, 3, 2, 1, 0, -1},
	{0, 5, 4, 3, 2, 1, -1},
}

// Points are the per-race values summed per section.
type Points struct {
	Score     int
	Ranking   int
	Condition int
}

func valid(n int) bool { return n >= 1 && n <= Courses }

// Score maps a finishing position to its score. Anything other than a
// position 1..6 scores 0.
func Score(position int) int {
	if !valid(position) {
		return 0
	}
	return finishScore[position]
}

// RankingPoint returns the ranking point of a boat from course entry that
// finished at position, or 0 when either is outside 1..6.
func RankingPoint(entry, position int) int {
	if !valid(entry) || !valid(position) {
		return 0
	}
	return rankingPoint[entry][position]
}

// ConditionPoint returns the condition point, or 0 when either argument
// is outside 1..6.
func ConditionPoint(entry, position int) int {
	if !valid(entry) || !valid(position) {
		return 0
	}
	return conditionPoint[entry][position]
}

// Race computes all points of one start.
func Race(entry, position int) Points {
	return Points{
		Score:     Score(position),
		Ranking:   RankingPoint(entry, position),
		Condition: ConditionPoint(entry, position),
	}
}
