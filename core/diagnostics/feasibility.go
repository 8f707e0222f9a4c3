package diagnostics

import (
	"sort"

	"github.com/ayhanuzun/nobetci/common/models"
)

const zeroCandidatePreviewLimit = 20

// FeasibilityInput bundles the per-(slot,day) admissibility an already-run
// assignment attempt can be recomputed from.
type FeasibilityInput struct {
	Persons  []models.Person
	Duties   []models.Duty
	DayCount int
	Gap      int
	// Admissible reports whether person p could legally take duty d's role
	// on day (ignoring the current occupancy of the slot, only the
	// person-level admissibility test).
	Admissible func(p models.Person, d models.Duty, day int) bool
	// RoleDemand is, per role, how many duties across the month need
	// filling by someone restricted/targeted to that role.
	RoleDemand map[string]int
}

// BuildFeasibilityReport computes the post-infeasibility feasibility report:
// zero-candidate slot counts with a bounded preview, and per-role upper
// bounds on gap-constrained achievable assignment counts.
func BuildFeasibilityReport(in FeasibilityInput) models.FeasibilityDebug {
	var zeroSlots []models.ZeroCandidateSlot
	for day := 1; day <= in.DayCount; day++ {
		for _, d := range in.Duties {
			count := 0
			for _, p := range in.Persons {
				if !p.Excused[day] && in.Admissible(p, d, day) {
					count++
				}
			}
			if count == 0 {
				zeroSlots = append(zeroSlots, models.ZeroCandidateSlot{Day: day, Slot: d.Slot})
			}
		}
	}

	preview := zeroSlots
	if len(preview) > zeroCandidatePreviewLimit {
		preview = preview[:zeroCandidatePreviewLimit]
	}

	roleCapacity := map[string]models.RoleCapacity{}
	byRole := map[string][]models.Duty{}
	for _, d := range in.Duties {
		byRole[d.RoleKey()] = append(byRole[d.RoleKey()], d)
	}
	for role, demand := range in.RoleDemand {
		var feasibleDays []int
		for day := 1; day <= in.DayCount; day++ {
			ok := false
			for _, p := range in.Persons {
				if p.Excused[day] {
					continue
				}
				for _, d := range byRole[role] {
					if in.Admissible(p, d, day) {
						ok = true
						break
					}
				}
				if ok {
					break
				}
			}
			if ok {
				feasibleDays = append(feasibleDays, day)
			}
		}
		ub := maxIndependentSetUnderGap(feasibleDays, in.Gap)
		roleCapacity[role] = models.RoleCapacity{Demand: demand, UpperBound: ub, Exceeded: demand > ub}
	}

	return models.FeasibilityDebug{
		ZeroCandidateSlots:   len(zeroSlots),
		ZeroCandidatePreview: preview,
		RoleCapacity:         roleCapacity,
	}
}

// maxIndependentSetUnderGap greedily computes the maximum number of days
// choosable from feasibleDays such that no two chosen days are within gap of
// each other (classic interval-scheduling greedy: always take the earliest
// remaining day then skip forward past the gap window).
func maxIndependentSetUnderGap(feasibleDays []int, gap int) int {
	if len(feasibleDays) == 0 {
		return 0
	}
	sorted := append([]int(nil), feasibleDays...)
	sort.Ints(sorted)
	count := 0
	last := -1 << 30
	for _, day := range sorted {
		if day-last > gap {
			count++
			last = day
		}
	}
	return count
}
