package orchestrator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayhanuzun/nobetci/common/calendarday"
	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/common/models"
	"github.com/ayhanuzun/nobetci/core/diagnostics"
	"github.com/ayhanuzun/nobetci/core/orchestrator"
)

// buildCapacityConstrainedInput sets up a scenario where the first
// assignment solve is genuinely infeasible: person 2 is manually pinned to
// the "Lab" slot, but an exclusive-without-pool restriction on that role
// (that nobody holds) forces the matching variable to zero, conflicting
// with the manual pin's hard equality. "Nobetci" is a second exclusive role
// nobody can ever fill, and persons 3/4 sit under a separate rule with
// availability well below the roster mean — together these should surface
// both exclusive_gevset and ayri_gevset in the ranked relaxations the
// orchestrator derives from the real feasibility report.
func buildCapacityConstrainedInput() orchestrator.Input {
	const dayCount = 10

	dayTypes := make(map[int]calendarday.Type, dayCount)
	for d := 1; d <= dayCount; d++ {
		dayTypes[d] = calendarday.Hici
	}

	lowAvailability := map[int]bool{4: true, 5: true, 6: true, 7: true, 8: true, 9: true, 10: true}

	persons := []models.Person{
		{ID: 1, Name: "Ayse", Excused: map[int]bool{}},
		{ID: 2, Name: "Mehmet", Excused: map[int]bool{}},
		{ID: 3, Name: "Fatma", Excused: lowAvailability},
		{ID: 4, Name: "Deniz", Excused: lowAvailability},
	}

	duties := []models.Duty{
		{ID: 10, Name: "Nobetci", Slot: 0, BaseName: "Nobetci", Exclusive: true},
		{ID: 20, Name: "Lab", Slot: 1, BaseName: "Lab", Exclusive: false},
	}

	// Filed under a key that belongs to neither manually-pinned person so the
	// pre-model manual scan (which only inspects Restrictions[pinnedPerson])
	// never sees it; BuildRoleContext aggregates every map value regardless
	// of key, so the CP-SAT pre-elimination still picks it up.
	restrictions := map[identity.ID][]models.RoleRestriction{
		999: {
			{RoleName: "Nobetci", Exclusive: true},
			{RoleName: "Lab", Exclusive: true},
		},
	}

	return orchestrator.Input{
		DayCount:  dayCount,
		DayTypes:  dayTypes,
		SlotCount: 2,
		Duties:    duties,
		Persons:   persons,
		SeparateRules: []models.Rule{
			{Kind: models.Separate, Members: []identity.ID{3, 4}},
		},
		Restrictions: restrictions,
		Manual:       []models.ManualAssignment{{Person: 2, Day: 1, Slot: 1}},
		Gap:          1,
		MaxSeconds:   6,
	}
}

func TestRunAttemptsExclusiveAndSeparateRelaxationsUnderCapacityShortfall(t *testing.T) {
	result := orchestrator.Run(buildCapacityConstrainedInput())

	require.NotEqual(t, models.StatusManualConflict, result.Status, "manual pin should survive the pre-model scan")

	names := make([]string, len(result.Diagnostics.RankedRelaxations))
	for i, a := range result.Diagnostics.RankedRelaxations {
		names[i] = a.Name
	}
	assert.Contains(t, names, diagnostics.ActionRelaxExclusive, "exclusive_gevset must be reachable once the feasibility report feeds it real ratios")
	assert.Contains(t, names, diagnostics.ActionRelaxSeparate, "ayri_gevset must be reachable once the feasibility report feeds it real ratios")

	require.True(t, result.Success, "relaxing the exclusive restriction should resolve the manual pin conflict")
	assert.True(t, result.Diagnostics.Relaxation.ExclusiveRelaxed)
	assert.Equal(t, diagnostics.ActionRelaxExclusive, result.Diagnostics.Relaxation.RootCause)
}
