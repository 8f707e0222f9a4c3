// Package greedy is the day-ordered heuristic fallback solver: used both as
// a first-class endpoint and as the adaptive orchestrator's last resort.
package greedy

import (
	"sort"

	"github.com/ayhanuzun/nobetci/common/calendarday"
	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/common/models"
)

// Input bundles everything the greedy solver needs. The greedy path reads only
// slot/baseName/separateBuilding from each Duty and takes no role
// restrictions, so Duty.Exclusive and pool roles are not enforced, matching
// the original's lossy SolverGorev->GorevTanim conversion (DESIGN.md Open
// Question #4); Run sets SolveResult.Degraded on every result it returns.
type Input struct {
	DayCount      int
	DayTypes      map[int]calendarday.Type
	Duties        []models.Duty
	Persons       []models.Person
	TogetherRules []models.Rule
	SeparateRules []models.Rule
	Manual        []models.ManualAssignment
	Gap           int
}

// state is the mutable per-person runtime bookkeeping the original keeps on
// its Personel dataclass.
type state struct {
	person          models.Person
	assignedDays    map[int]bool
	remainingType   map[calendarday.Type]int
	remainingRole   map[string]int
	lastAssignedDay int
	excusedCount    int
	assignedCount   int
	yearlyTotal     int
}

// Solver runs one greedy pass over a month.
type Solver struct {
	in           Input
	states       map[identity.ID]*state
	schedule     map[int][]*identity.ID // day -> slotCount-length
	manualPins   map[[2]int]identity.ID // (day,slot) -> person
	dutiesBySlot map[int]models.Duty
	maxSlot      int
}

// Run executes the full greedy pipeline: together phase, singles phase at
// the configured gap, a second singles pass at gap-1 when gap>1, and a
// finish phase at gap=1.
func Run(in Input) models.SolveResult {
	s := newSolver(in)
	s.applyManualPins()

	dayOrder := s.orderDays()
	groupOrder := s.orderTogetherGroups()

	s.togetherPhase(dayOrder, groupOrder)
	s.singlesPhase(dayOrder, in.Gap)
	if in.Gap > 1 {
		s.singlesPhase(dayOrder, in.Gap-1)
	}
	s.finishPhase(dayOrder)

	return s.buildResult()
}

func newSolver(in Input) *Solver {
	s := &Solver{
		in:           in,
		states:       map[identity.ID]*state{},
		schedule:     map[int][]*identity.ID{},
		manualPins:   map[[2]int]identity.ID{},
		dutiesBySlot: map[int]models.Duty{},
	}
	for _, d := range in.Duties {
		s.dutiesBySlot[d.Slot] = d
		if d.Slot > s.maxSlot {
			s.maxSlot = d.Slot
		}
	}
	for day := 1; day <= in.DayCount; day++ {
		s.schedule[day] = make([]*identity.ID, s.maxSlot+1)
	}
	for _, p := range in.Persons {
		excused := 0
		for range p.Excused {
			excused++
		}
		yearly := 0
		for _, v := range p.AnnualRealized {
			yearly += v
		}
		rt := map[calendarday.Type]int{}
		for t, v := range p.TargetsPerType {
			rt[t] = v
		}
		rr := map[string]int{}
		for role, v := range p.TargetPerRole {
			rr[role] = v
		}
		s.states[p.ID] = &state{
			person:          p,
			assignedDays:    map[int]bool{},
			remainingType:   rt,
			remainingRole:   rr,
			lastAssignedDay: -1,
			excusedCount:    excused,
			yearlyTotal:     yearly,
		}
	}
	for _, m := range in.Manual {
		s.manualPins[[2]int{m.Day, m.Slot}] = m.Person
	}
	return s
}

func (s *Solver) applyManualPins() {
	for _, m := range s.in.Manual {
		s.place(m.Day, m.Slot, m.Person)
	}
}

// place writes an assignment and decrements the person's remaining quotas.
func (s *Solver) place(day, slot int, person identity.ID) {
	id := person
	s.schedule[day][slot] = &id
	st := s.states[person]
	if st == nil {
		return
	}
	st.assignedDays[day] = true
	st.assignedCount++
	if t, ok := s.in.DayTypes[day]; ok {
		st.remainingType[t]--
	}
	if role := s.dutiesBySlot[slot].RoleKey(); role != "" {
		st.remainingRole[role]--
	}
	if day > st.lastAssignedDay {
		st.lastAssignedDay = day
	}
}

// undo reverses an assignment made by place; never call this for a manual
// pin (see the isManualPin guard in backtrackNeighbors).
func (s *Solver) undo(day, slot int) {
	idPtr := s.schedule[day][slot]
	if idPtr == nil {
		return
	}
	person := *idPtr
	s.schedule[day][slot] = nil
	st := s.states[person]
	if st == nil {
		return
	}
	delete(st.assignedDays, day)
	st.assignedCount--
	if t, ok := s.in.DayTypes[day]; ok {
		st.remainingType[t]++
	}
	if role := s.dutiesBySlot[slot].RoleKey(); role != "" {
		st.remainingRole[role]++
	}
	st.lastAssignedDay = recomputeLastAssignedDay(st)
}

func recomputeLastAssignedDay(st *state) int {
	last := -1
	for d := range st.assignedDays {
		if d > last {
			last = d
		}
	}
	return last
}

func (s *Solver) isManualPin(day, slot int) bool {
	_, ok := s.manualPins[[2]int{day, slot}]
	return ok
}

// orderDays scores each day by excusedPeopleOnDay*1000 + typeWeight,
// descending by score then ascending by day.
func (s *Solver) orderDays() []int {
	typeWeight := map[calendarday.Type]int{
		calendarday.Cmt: 500, calendarday.Pzr: 400, calendarday.Cum: 400,
		calendarday.Prs: 200, calendarday.Hici: 200,
	}
	type scored struct {
		day   int
		score int
	}
	var days []scored
	for day := 1; day <= s.in.DayCount; day++ {
		excusedCount := 0
		for _, p := range s.in.Persons {
			if p.Excused[day] {
				excusedCount++
			}
		}
		score := excusedCount*1000 + typeWeight[s.in.DayTypes[day]]
		days = append(days, scored{day, score})
	}
	sort.SliceStable(days, func(i, j int) bool {
		if days[i].score != days[j].score {
			return days[i].score > days[j].score
		}
		return days[i].day < days[j].day
	})
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = d.day
	}
	return out
}

// orderTogetherGroups sorts together rules by total excused count of
// members, most excused first.
func (s *Solver) orderTogetherGroups() []models.Rule {
	groups := make([]models.Rule, 0, len(s.in.TogetherRules))
	for _, r := range s.in.TogetherRules {
		if r.Kind == models.Together {
			groups = append(groups, r)
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return s.groupExcusedTotal(groups[i]) > s.groupExcusedTotal(groups[j])
	})
	return groups
}

func (s *Solver) groupExcusedTotal(r models.Rule) int {
	total := 0
	for _, m := range r.Members {
		if st, ok := s.states[m]; ok {
			total += st.excusedCount
		}
	}
	return total
}

func (s *Solver) buildResult() models.SolveResult {
	var assignments []models.Assignment
	filled := 0
	total := 0
	for day := 1; day <= s.in.DayCount; day++ {
		for _, d := range s.in.Duties {
			total++
			if id := s.schedule[day][d.Slot]; id != nil {
				filled++
				assignments = append(assignments, models.Assignment{Day: day, Slot: d.Slot, Person: *id})
			}
		}
	}

	return models.SolveResult{
		Success:     filled > 0,
		Status:      models.StatusFeasible,
		Assignments: assignments,
		Schedule:    s.schedule,
		Degraded:    true,
	}
}
