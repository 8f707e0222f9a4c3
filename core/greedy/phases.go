package greedy

import (
	"sort"

	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/common/models"
)

// togetherPhase places every together-group on its most-constrained
// eligible day, matching members to empty non-separate-building slots via
// "most-constrained-first" (members with the fewest feasible slots go
// first).
func (s *Solver) togetherPhase(dayOrder []int, groups []models.Rule) {
	for _, group := range groups {
		day, ok := s.commonAvailableDay(group, dayOrder)
		if !ok {
			continue
		}
		s.placeGroupOnDay(group, day)
	}
}

// commonAvailableDay walks the day ordering and returns the first day where
// every member is free of excused/assigned/gap conflicts.
func (s *Solver) commonAvailableDay(group models.Rule, dayOrder []int) (int, bool) {
	for _, day := range dayOrder {
		allFree := true
		for _, m := range group.Members {
			st := s.states[m]
			if st == nil || st.person.Excused[day] || st.assignedDays[day] {
				allFree = false
				break
			}
			for gd := day - s.in.Gap; gd <= day+s.in.Gap; gd++ {
				if gd != day && gd >= 1 && gd <= s.in.DayCount && st.assignedDays[gd] {
					allFree = false
					break
				}
			}
			if !allFree {
				break
			}
		}
		if allFree {
			return day, true
		}
	}
	return 0, false
}

func (s *Solver) placeGroupOnDay(group models.Rule, day int) {
	type member struct {
		id          identity.ID
		feasibleSlots []models.Duty
	}
	var members []member
	for _, m := range group.Members {
		var feasible []models.Duty
		for _, d := range s.in.Duties {
			if d.SeparateBuilding {
				continue
			}
			if s.schedule[day][d.Slot] != nil {
				continue
			}
			feasible = append(feasible, d)
		}
		members = append(members, member{m, feasible})
	}
	sort.SliceStable(members, func(i, j int) bool {
		return len(members[i].feasibleSlots) < len(members[j].feasibleSlots)
	})
	for _, mem := range members {
		for _, d := range mem.feasibleSlots {
			if s.schedule[day][d.Slot] == nil {
				s.place(day, d.Slot, mem.id)
				break
			}
		}
	}
}

// singlesPhase walks the day ordering and fills every still-empty slot with
// its best admissible candidate at the given gap, triggering bounded
// backtracking when no candidate is admissible.
func (s *Solver) singlesPhase(dayOrder []int, gap int) {
	savedGap := s.in.Gap
	s.in.Gap = gap
	defer func() { s.in.Gap = savedGap }()

	for _, day := range dayOrder {
		for _, d := range s.in.Duties {
			if s.schedule[day][d.Slot] != nil {
				continue
			}
			if cand, ok := s.bestCandidate(d, day); ok {
				s.place(day, d.Slot, cand)
				continue
			}
			if gap > 1 {
				s.backtrackNeighbors(day, d)
			}
		}
	}
}

// finishPhase reruns the singles phase with gap=1 to fill residual empties.
func (s *Solver) finishPhase(dayOrder []int) {
	s.singlesPhase(dayOrder, 1)
}
