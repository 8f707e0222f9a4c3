// Package quality computes the post-solve quality metrics shared by both
// the CP-SAT assignment path and the greedy fallback path.
package quality

import (
	"math"

	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/common/models"
)

// Input bundles everything the quality score needs out of a finished
// schedule, independent of which solver produced it.
type Input struct {
	// CountsByPerson is the realized total duty count per person.
	CountsByPerson map[identity.ID]int
	// HoursByPerson is the realized hour-weighted total per person.
	HoursByPerson map[identity.ID]float64
	// IntervalsByPerson is, per person, the sorted list of day-gaps between
	// consecutive assigned days.
	IntervalsByPerson map[identity.ID][]int
	// TargetByPerson is the target total per person (for rule compliance).
	TargetByPerson map[identity.ID]int
	FilledSlots    int
	TotalSlots     int
}

// Score computes the five metrics from spec §8.
func Score(in Input) models.QualityScore {
	return models.QualityScore{
		BalanceScore:   balance(in.CountsByPerson),
		HourFairness:   hourFairness(in.HoursByPerson),
		Homogeneity:    homogeneity(in.IntervalsByPerson),
		Occupancy:      occupancy(in.FilledSlots, in.TotalSlots),
		RuleCompliance: ruleCompliance(in.CountsByPerson, in.TargetByPerson),
	}
}

// balance is denge_puani = (max-min)/mean * 100.
func balance(counts map[identity.ID]int) float64 {
	if len(counts) == 0 {
		return 0
	}
	min, max := math.MaxInt, math.MinInt
	sum := 0
	for _, c := range counts {
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
		sum += c
	}
	mean := float64(sum) / float64(len(counts))
	if mean == 0 {
		return 0
	}
	return float64(max-min) / mean * 100
}

// hourFairness is saat_adaleti = stdev(hours)/mean(hours) * 100.
func hourFairness(hours map[identity.ID]float64) float64 {
	if len(hours) == 0 {
		return 0
	}
	values := make([]float64, 0, len(hours))
	for _, h := range hours {
		values = append(values, h)
	}
	mean := meanOf(values)
	if mean == 0 {
		return 0
	}
	return stdevOf(values, mean) / mean * 100
}

// homogeneity is homojenlik = stdev over all intra-person day-intervals
// pooled together.
func homogeneity(intervals map[identity.ID][]int) float64 {
	var pooled []float64
	for _, gaps := range intervals {
		for _, g := range gaps {
			pooled = append(pooled, float64(g))
		}
	}
	if len(pooled) == 0 {
		return 0
	}
	mean := meanOf(pooled)
	return stdevOf(pooled, mean)
}

// occupancy is doluluk = filled/total * 100.
func occupancy(filled, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(filled) / float64(total) * 100
}

// ruleCompliance is kural_uyumu = (1 - mean(|target-actual|/target)) * 100,
// skipping persons with a zero target (division undefined).
func ruleCompliance(actual, target map[identity.ID]int) float64 {
	var sum float64
	n := 0
	for id, t := range target {
		if t == 0 {
			continue
		}
		a := actual[id]
		diff := math.Abs(float64(t-a)) / float64(t)
		sum += diff
		n++
	}
	if n == 0 {
		return 100
	}
	return (1 - sum/float64(n)) * 100
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdevOf(values []float64, mean float64) float64 {
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}
