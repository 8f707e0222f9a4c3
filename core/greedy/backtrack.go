package greedy

import "github.com/ayhanuzun/nobetci/common/models"

const maxBacktrackDepth = 3

// backtrackNeighbors implements the bounded neighbor-backtracking fallback:
// when no candidate is admissible for (day, duty), scan days in the window
// [day-gap, day+gap] in reverse slot order; for each previously assigned
// non-manual slot, undo it and re-score — keep the undo if a candidate now
// emerges for (day, duty.Slot), else redo and continue. Caps total undo
// attempts at maxBacktrackDepth. Never touches a manual pin.
func (s *Solver) backtrackNeighbors(day int, duty models.Duty) bool {
	attempts := 0
	for gd := day + s.in.Gap; gd >= day-s.in.Gap; gd-- {
		if gd == day || gd < 1 || gd > s.in.DayCount {
			continue
		}
		for slotIdx := len(s.in.Duties) - 1; slotIdx >= 0; slotIdx-- {
			if attempts >= maxBacktrackDepth {
				return false
			}
			neighborDuty := s.in.Duties[slotIdx]
			if s.isManualPin(gd, neighborDuty.Slot) {
				continue
			}
			occupant := s.schedule[gd][neighborDuty.Slot]
			if occupant == nil {
				continue
			}
			attempts++

			s.undo(gd, neighborDuty.Slot)
			if cand, ok := s.bestCandidate(duty, day); ok {
				s.place(day, duty.Slot, cand)
				// Try to refill the vacated neighbor slot; leaving it
				// empty is acceptable (matching the original's
				// best-effort undo semantics).
				if refill, ok := s.bestCandidate(neighborDuty, gd); ok {
					s.place(gd, neighborDuty.Slot, refill)
				}
				return true
			}
			// Redo: restore the original occupant.
			s.place(gd, neighborDuty.Slot, *occupant)
		}
	}
	return false
}
