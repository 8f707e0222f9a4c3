package diagnostics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayhanuzun/nobetci/common/models"
	"github.com/ayhanuzun/nobetci/core/diagnostics"
)

func TestBuildFeasibilityReportDetectsZeroCandidateSlots(t *testing.T) {
	persons := []models.Person{
		{ID: 1, Excused: map[int]bool{1: true}},
	}
	duties := []models.Duty{{ID: 1, Name: "Nobetci", Slot: 0, BaseName: "Nobetci"}}
	report := diagnostics.BuildFeasibilityReport(diagnostics.FeasibilityInput{
		Persons:  persons,
		Duties:   duties,
		DayCount: 1,
		Gap:      1,
		Admissible: func(p models.Person, d models.Duty, day int) bool {
			return true
		},
	})
	assert.Equal(t, 1, report.ZeroCandidateSlots)
	require.Len(t, report.ZeroCandidatePreview, 1)
	assert.Equal(t, 1, report.ZeroCandidatePreview[0].Day)
}

func TestBuildFeasibilityReportNoZeroCandidatesWhenAdmissible(t *testing.T) {
	persons := []models.Person{{ID: 1, Excused: map[int]bool{}}}
	duties := []models.Duty{{ID: 1, Name: "Nobetci", Slot: 0, BaseName: "Nobetci"}}
	report := diagnostics.BuildFeasibilityReport(diagnostics.FeasibilityInput{
		Persons:  persons,
		Duties:   duties,
		DayCount: 5,
		Gap:      1,
		Admissible: func(p models.Person, d models.Duty, day int) bool {
			return true
		},
	})
	assert.Equal(t, 0, report.ZeroCandidateSlots)
}

func TestBuildFeasibilityReportRoleCapacityUpperBound(t *testing.T) {
	persons := []models.Person{{ID: 1, Excused: map[int]bool{}}}
	duties := []models.Duty{{ID: 1, Name: "Nobetci", Slot: 0, BaseName: "Nobetci"}}
	report := diagnostics.BuildFeasibilityReport(diagnostics.FeasibilityInput{
		Persons:  persons,
		Duties:   duties,
		DayCount: 10,
		Gap:      2,
		Admissible: func(p models.Person, d models.Duty, day int) bool {
			return true
		},
		RoleDemand: map[string]int{"Nobetci": 5},
	})
	cap, ok := report.RoleCapacity["Nobetci"]
	require.True(t, ok)
	// days 1..10 with gap 2 -> every 3rd day choosable: 1,4,7,10 = 4 slots.
	assert.Equal(t, 4, cap.UpperBound)
	assert.Equal(t, 5, cap.Demand)
	assert.True(t, cap.Exceeded)
}

func TestBuildFeasibilityReportPreviewCappedAtLimit(t *testing.T) {
	persons := []models.Person{{ID: 1, Excused: map[int]bool{}}}
	duties := []models.Duty{{ID: 1, Name: "Nobetci", Slot: 0, BaseName: "Nobetci"}}
	report := diagnostics.BuildFeasibilityReport(diagnostics.FeasibilityInput{
		Persons:  persons,
		Duties:   duties,
		DayCount: 30,
		Gap:      1,
		Admissible: func(p models.Person, d models.Duty, day int) bool {
			return false
		},
	})
	assert.Equal(t, 30, report.ZeroCandidateSlots)
	assert.Len(t, report.ZeroCandidatePreview, 20)
}
