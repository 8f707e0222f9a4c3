package quality_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/core/quality"
)

func TestScorePerfectlyBalancedSchedule(t *testing.T) {
	counts := map[identity.ID]int{1: 5, 2: 5, 3: 5}
	hours := map[identity.ID]float64{1: 40, 2: 40, 3: 40}
	targets := map[identity.ID]int{1: 5, 2: 5, 3: 5}

	q := quality.Score(quality.Input{
		CountsByPerson: counts,
		HoursByPerson:  hours,
		TargetByPerson: targets,
		FilledSlots:    15,
		TotalSlots:     15,
	})

	assert.Equal(t, 0.0, q.BalanceScore)
	assert.Equal(t, 0.0, q.HourFairness)
	assert.Equal(t, 100.0, q.Occupancy)
	assert.InDelta(t, 100.0, q.RuleCompliance, 0.001)
}

func TestScoreUnbalancedSchedule(t *testing.T) {
	counts := map[identity.ID]int{1: 2, 2: 8}
	q := quality.Score(quality.Input{
		CountsByPerson: counts,
		FilledSlots:    10,
		TotalSlots:     10,
	})
	// (max-min)/mean*100 = 6/5*100 = 120
	assert.InDelta(t, 120.0, q.BalanceScore, 0.001)
}

func TestOccupancyPartialFill(t *testing.T) {
	q := quality.Score(quality.Input{FilledSlots: 8, TotalSlots: 10})
	assert.InDelta(t, 80.0, q.Occupancy, 0.001)
}

func TestRuleComplianceSkipsZeroTargetPersons(t *testing.T) {
	actual := map[identity.ID]int{1: 3, 2: 10}
	target := map[identity.ID]int{1: 3, 2: 0}
	q := quality.Score(quality.Input{TargetByPerson: target, CountsByPerson: actual})
	assert.Equal(t, 100.0, q.RuleCompliance)
}

func TestHomogeneityOfSpreadIntervals(t *testing.T) {
	intervals := map[identity.ID][]int{
		1: {5, 5, 5},
		2: {5, 5, 5},
	}
	q := quality.Score(quality.Input{IntervalsByPerson: intervals})
	assert.Equal(t, 0.0, q.Homogeneity)
}
