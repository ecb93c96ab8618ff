package snapshot

import (
	"strings"
)

// roles holds the column positions of one ranking table, -1 when absent.
type roles struct {
	rank, motor, rate, time int
}

type rule struct {
	exact   []string
	must    []string
	mustNot []string
}

var ( //nolint:gochecknoglobals // column recognition rules
	rankRule  = rule{exact: []string{"順位", "rank"}, must: []string{"順位"}}
	motorRule = rule{exact: []string{"モーター_番号", "motor_number", "motor no"}, must: []string{"モーター", "番号"}, mustNot: []string{"ボート"}}
	rateRule  = rule{exact: []string{"モーター_2連対率", "two_place_rate"}, must: []string{"モーター", "2連対率"}, mustNot: []string{"ボート"}}
	timeRule  = rule{exact: []string{"前検タイム", "precheck_time"}, must: []string{"前検", "タイム"}}
)

func (r rule) find(header []string) int {
	for _, want := range r.exact {
		for i, h := range header {
			if strings.EqualFold(h, want) {
				return i
			}
		}
	}
	for i, h := range header {
		if containsAll(h, r.must) && !containsAny(h, r.mustNot) {
			return i
		}
	}
	return -1
}

func containsAll(s string, parts []string) bool {
	if len(parts) == 0 {
		return false
	}
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

func containsAny(s string, parts []string) bool {
	for _, p := range parts {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// detectRoles finds the ranking columns. ok is false unless the motor
// number, two-place rate and pre-check time are all present.
func detectRoles(header []string) (roles, bool) {
	r := roles{
		rank:  rankRule.find(header),
		motor: motorRule.find(header),
		rate:  rateRule.find(header),
		time:  timeRule.find(header),
	}
	return r, r.motor >= 0 && r.rate >= 0 && r.time >= 0
}
