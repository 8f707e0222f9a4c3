package greedy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayhanuzun/nobetci/common/calendarday"
	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/common/models"
)

func testInput() Input {
	return Input{
		DayCount: 10,
		DayTypes: map[int]calendarday.Type{
			1: calendarday.Hici, 2: calendarday.Hici, 3: calendarday.Cum,
			4: calendarday.Cmt, 5: calendarday.Pzr, 6: calendarday.Hici,
			7: calendarday.Hici, 8: calendarday.Hici, 9: calendarday.Hici, 10: calendarday.Hici,
		},
		Duties: []models.Duty{{ID: 1, Name: "Nobetci", Slot: 0, BaseName: "Nobetci"}},
		Persons: []models.Person{
			{ID: 1, Name: "A", Excused: map[int]bool{}, TargetsPerType: map[calendarday.Type]int{}, TargetPerRole: map[string]int{"Nobetci": 3}},
			{ID: 2, Name: "B", Excused: map[int]bool{}, TargetsPerType: map[calendarday.Type]int{}, TargetPerRole: map[string]int{"Nobetci": 3}},
		},
		Gap: 2,
	}
}

func TestAdmissibleRejectsExcusedDay(t *testing.T) {
	in := testInput()
	in.Persons[0].Excused[5] = true
	s := newSolver(in)
	d := s.dutiesBySlot[0]
	assert.False(t, s.admissible(1, d, 5))
}

func TestAdmissibleRejectsAssignedWithinGapWindow(t *testing.T) {
	in := testInput()
	s := newSolver(in)
	d := s.dutiesBySlot[0]
	s.place(3, d.Slot, 1)
	assert.False(t, s.admissible(1, d, 4))
	assert.False(t, s.admissible(1, d, 5))
	assert.True(t, s.admissible(1, d, 6))
}

func TestAdmissibleRejectsAlreadyAssignedDay(t *testing.T) {
	in := testInput()
	s := newSolver(in)
	d := s.dutiesBySlot[0]
	s.place(3, d.Slot, 1)
	assert.False(t, s.admissible(1, d, 3))
}

func TestAdmissibleRejectsSeparateRuleConflict(t *testing.T) {
	in := testInput()
	in.SeparateRules = []models.Rule{{Kind: models.Separate, Members: []identity.ID{1, 2}}}
	s := newSolver(in)
	d := s.dutiesBySlot[0]
	s.place(3, d.Slot, 2)
	assert.False(t, s.admissible(1, d, 3))
}

func TestPlaceAndUndoRoundTrip(t *testing.T) {
	in := testInput()
	s := newSolver(in)
	d := s.dutiesBySlot[0]

	s.place(3, d.Slot, 1)
	require.True(t, s.states[1].assignedDays[3])
	assert.Equal(t, 1, s.states[1].assignedCount)
	assert.Equal(t, 3, s.states[1].lastAssignedDay)

	s.undo(3, d.Slot)
	assert.False(t, s.states[1].assignedDays[3])
	assert.Equal(t, 0, s.states[1].assignedCount)
	assert.Equal(t, -1, s.states[1].lastAssignedDay)
}

func TestScorePrefersPersonWithRemainingRoleQuota(t *testing.T) {
	in := testInput()
	in.Persons[1].TargetPerRole["Nobetci"] = 0
	s := newSolver(in)
	d := s.dutiesBySlot[0]
	s1 := s.score(1, d, 1)
	s2 := s.score(2, d, 1)
	assert.Greater(t, s1, s2)
}

func TestBestCandidateDeterministicTieBreakByID(t *testing.T) {
	in := testInput()
	s := newSolver(in)
	best, ok := s.bestCandidate(s.dutiesBySlot[0], 1)
	require.True(t, ok)
	assert.Equal(t, identity.ID(1), best)
}

func TestBestCandidateNoneWhenSlotFilled(t *testing.T) {
	in := testInput()
	s := newSolver(in)
	d := s.dutiesBySlot[0]
	s.place(1, d.Slot, 2)
	_, ok := s.bestCandidate(d, 1)
	assert.False(t, ok)
}

func TestOrderDaysRanksHigherExcusedCountFirst(t *testing.T) {
	in := testInput()
	in.Persons[0].Excused[7] = true
	in.Persons[1].Excused[7] = true
	s := newSolver(in)
	order := s.orderDays()
	assert.Equal(t, 7, order[0])
}

func TestIsManualPinTracksOnlyPinnedSlots(t *testing.T) {
	in := testInput()
	in.Manual = []models.ManualAssignment{{Person: 1, Day: 2, Slot: 0}}
	s := newSolver(in)
	assert.True(t, s.isManualPin(2, 0))
	assert.False(t, s.isManualPin(3, 0))
}

func TestBacktrackNeighborsFreesUpGapWindowSlot(t *testing.T) {
	in := testInput()
	s := newSolver(in)
	d := s.dutiesBySlot[0]

	// Occupy day 3 with person 1, which blocks person 1 from day 1 (within
	// gap 2) -- but person 2 is free, so no backtrack is actually needed to
	// admit someone on day 1. Instead force a scenario where only person 1
	// remains by excusing person 2 entirely.
	for day := 1; day <= in.DayCount; day++ {
		s.states[2].person.Excused[day] = true
	}
	s.place(3, d.Slot, 1)

	// Day 4 is within gap of day 3, so person 1 is inadmissible there and
	// person 2 is fully excused: no direct candidate exists.
	_, ok := s.bestCandidate(d, 4)
	assert.False(t, ok)

	freed := s.backtrackNeighbors(4, d)
	assert.True(t, freed)
	assert.NotNil(t, s.schedule[4][d.Slot])
}

func TestBacktrackNeighborsNeverTouchesManualPin(t *testing.T) {
	in := testInput()
	in.Manual = []models.ManualAssignment{{Person: 1, Day: 3, Slot: 0}}
	s := newSolver(in)
	s.applyManualPins()
	d := s.dutiesBySlot[0]

	for day := 1; day <= in.DayCount; day++ {
		s.states[2].person.Excused[day] = true
	}

	freed := s.backtrackNeighbors(4, d)
	assert.False(t, freed)
	require.NotNil(t, s.schedule[3][d.Slot])
	assert.Equal(t, identity.ID(1), *s.schedule[3][d.Slot])
}
