package diagnostics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/common/models"
	"github.com/ayhanuzun/nobetci/core/diagnostics"
)

func baseScanInput() diagnostics.ManualScanInput {
	return diagnostics.ManualScanInput{
		Persons: []models.Person{
			{ID: 1, Name: "A", Excused: map[int]bool{}, TargetPerRole: map[string]int{}},
			{ID: 2, Name: "B", Excused: map[int]bool{}, TargetPerRole: map[string]int{}},
		},
		Duties:   []models.Duty{{ID: 10, Name: "Nobetci", Slot: 0, BaseName: "Nobetci"}},
		DayCount: 10,
		Gap:      2,
	}
}

func TestScanManualConflictsUnknownPerson(t *testing.T) {
	in := baseScanInput()
	in.Manual = []models.ManualAssignment{{Person: 999, Day: 1, Slot: 0}}
	conflicts := diagnostics.ScanManualConflicts(in)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "MANUEL_KISI_YOK", conflicts[0].Code)
}

func TestScanManualConflictsDayOutOfRange(t *testing.T) {
	in := baseScanInput()
	in.Manual = []models.ManualAssignment{{Person: 1, Day: 99, Slot: 0}}
	conflicts := diagnostics.ScanManualConflicts(in)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "MANUEL_GUN_HATALI", conflicts[0].Code)
}

func TestScanManualConflictsSlotOutOfRange(t *testing.T) {
	in := baseScanInput()
	in.Manual = []models.ManualAssignment{{Person: 1, Day: 1, Slot: 5}}
	conflicts := diagnostics.ScanManualConflicts(in)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "MANUEL_SLOT_HATALI", conflicts[0].Code)
}

func TestScanManualConflictsExcusedDay(t *testing.T) {
	in := baseScanInput()
	in.Persons[0].Excused[3] = true
	in.Manual = []models.ManualAssignment{{Person: 1, Day: 3, Slot: 0}}
	conflicts := diagnostics.ScanManualConflicts(in)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "MAZERET_GUNU", conflicts[0].Code)
}

func TestScanManualConflictsNoConflictsOnCleanInput(t *testing.T) {
	in := baseScanInput()
	in.Manual = []models.ManualAssignment{{Person: 1, Day: 1, Slot: 0}}
	conflicts := diagnostics.ScanManualConflicts(in)
	assert.Empty(t, conflicts)
}

func TestScanManualConflictsDuplicateSameDay(t *testing.T) {
	in := baseScanInput()
	in.Duties = append(in.Duties, models.Duty{ID: 11, Name: "Other", Slot: 1, BaseName: "Other"})
	in.Manual = []models.ManualAssignment{
		{Person: 1, Day: 1, Slot: 0},
		{Person: 1, Day: 1, Slot: 1},
	}
	conflicts := diagnostics.ScanManualConflicts(in)
	require.NotEmpty(t, conflicts)
	assert.Equal(t, "AYNI_GUN_CIFT_ATAMA", conflicts[len(conflicts)-1].Code)
}

func TestScanManualConflictsDuplicateSameSlot(t *testing.T) {
	in := baseScanInput()
	in.Manual = []models.ManualAssignment{
		{Person: 1, Day: 1, Slot: 0},
		{Person: 2, Day: 1, Slot: 0},
	}
	conflicts := diagnostics.ScanManualConflicts(in)
	require.NotEmpty(t, conflicts)
	var found bool
	for _, c := range conflicts {
		if c.Code == "AYNI_SLOT_CIFT_ATAMA" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestScanManualConflictsGapViolation(t *testing.T) {
	in := baseScanInput()
	in.Duties = append(in.Duties, models.Duty{ID: 11, Name: "Other", Slot: 1, BaseName: "Other"})
	in.Manual = []models.ManualAssignment{
		{Person: 1, Day: 1, Slot: 0},
		{Person: 1, Day: 2, Slot: 1},
	}
	conflicts := diagnostics.ScanManualConflicts(in)
	var found bool
	for _, c := range conflicts {
		if c.Code == "ARA_GUN_IHLALI" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestScanManualConflictsSeparateRuleViolation(t *testing.T) {
	in := baseScanInput()
	in.SeparateRules = []models.Rule{{Kind: models.Separate, Members: []identity.ID{1, 2}}}
	in.Manual = []models.ManualAssignment{
		{Person: 1, Day: 1, Slot: 0},
		{Person: 2, Day: 1, Slot: 0},
	}
	conflicts := diagnostics.ScanManualConflicts(in)
	var found bool
	for _, c := range conflicts {
		if c.Code == "AYRI_KURALI_IHLALI" {
			found = true
		}
	}
	assert.True(t, found)
}
