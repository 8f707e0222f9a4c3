package request_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/common/models"
	"github.com/ayhanuzun/nobetci/common/request"
)

func TestParsePersonsMergesExcusedDaySources(t *testing.T) {
	persons, err := request.ParsePersons([]request.PersonInput{
		{ID: 1, Name: "A", ExcusedA: []int{1, 2}, ExcusedB: []int{2, 3}, ExcusedC: []int{4}},
	})
	require.NoError(t, err)
	require.Len(t, persons, 1)
	assert.True(t, persons[0].Excused[1])
	assert.True(t, persons[0].Excused[2])
	assert.True(t, persons[0].Excused[3])
	assert.True(t, persons[0].Excused[4])
	assert.False(t, persons[0].Excused[5])
}

func TestParsePersonsRejectsDuplicateNormalizedID(t *testing.T) {
	_, err := request.ParsePersons([]request.PersonInput{
		{ID: 1, Name: "A"},
		{ID: "1", Name: "B"},
	})
	require.Error(t, err)
	var verr *request.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "personeller", verr.Field)
}

func TestParsePersonsComputesTargetTotal(t *testing.T) {
	persons, err := request.ParsePersons([]request.PersonInput{
		{ID: 1, Name: "A", Hici: 3, Prs: 2, Cum: 1, Cmt: 1, Pzr: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, persons[0].TargetTotal)
}

func TestResolvePersonRefPrefersIDOverName(t *testing.T) {
	// persons[0] is named "7" (a digit-spelled name); persons[1] actually has
	// id 7. Resolving ref "7" must hit the id match first.
	persons := []models.Person{
		{ID: 1, Name: "7"},
		{ID: 7, Name: "Someone"},
	}
	id, ok := request.ResolvePersonRef("7", persons)
	require.True(t, ok)
	assert.Equal(t, persons[1].ID, id)
}

func TestResolvePersonRefFallsBackToName(t *testing.T) {
	persons := []models.Person{{ID: 42, Name: "Ayse"}}
	id, ok := request.ResolvePersonRef("Ayse", persons)
	require.True(t, ok)
	assert.Equal(t, persons[0].ID, id)
}

func TestResolvePersonRefUnknown(t *testing.T) {
	persons := []models.Person{{ID: 1, Name: "A"}}
	_, ok := request.ResolvePersonRef("nobody", persons)
	assert.False(t, ok)
}

func TestParseRulesCanonicalMembersList(t *testing.T) {
	persons, _ := request.ParsePersons([]request.PersonInput{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}})
	rules, err := request.ParseRules([]request.RuleInput{
		{Kind: "birlikte", Members: []any{1, 2}},
	}, persons)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, models.Together, rules[0].Kind)
	assert.ElementsMatch(t, []identity.ID{persons[0].ID, persons[1].ID}, rules[0].Members)
}

func TestParseRulesLegacyTriple(t *testing.T) {
	persons, _ := request.ParsePersons([]request.PersonInput{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}})
	rules, err := request.ParseRules([]request.RuleInput{
		{Kind: "ayri", P1: 1, P2: 2},
	}, persons)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, models.Separate, rules[0].Kind)
}

func TestParseRulesRejectsFewerThanTwoMembers(t *testing.T) {
	persons, _ := request.ParsePersons([]request.PersonInput{{ID: 1, Name: "A"}})
	_, err := request.ParseRules([]request.RuleInput{
		{Kind: "birlikte", Members: []any{1}},
	}, persons)
	require.Error(t, err)
}

func TestParseRulesRejectsUnknownKind(t *testing.T) {
	persons, _ := request.ParsePersons([]request.PersonInput{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}})
	_, err := request.ParseRules([]request.RuleInput{
		{Kind: "bilinmeyen", Members: []any{1, 2}},
	}, persons)
	require.Error(t, err)
}

func TestParseRoleRestrictionsTracksRawVsValidCounts(t *testing.T) {
	persons, _ := request.ParsePersons([]request.PersonInput{{ID: 1, Name: "A"}})
	restrictions, debug := request.ParseRoleRestrictions([]request.RoleRestrictionInput{
		{PersonID: 1, RoleName: "Nobetci"},
		{PersonID: "unknown-person", RoleName: "Nobetci"},
	}, persons)
	assert.Equal(t, 2, debug.Raw)
	assert.Equal(t, 1, debug.Valid)
	require.Contains(t, restrictions, persons[0].ID)
	assert.Equal(t, "Nobetci", restrictions[persons[0].ID][0].RoleName)
}

func TestParseManualAssignmentsResolvesByMultiplePaths(t *testing.T) {
	persons, _ := request.ParsePersons([]request.PersonInput{{ID: 1, Name: "A"}})
	duties := []models.Duty{{ID: 10, Name: "Nobetci", Slot: 0, BaseName: "Nobetci"}}

	out := request.ParseManualAssignments([]request.ManualAssignmentInput{
		{PersonID: 1, Day: 5, DutyName: "Nobetci"},
	}, persons, duties)

	require.Len(t, out, 1)
	assert.Equal(t, persons[0].ID, out[0].Person)
	assert.Equal(t, 5, out[0].Day)
	assert.Equal(t, 0, out[0].Slot)
}

func TestParseManualAssignmentsSkipsUnresolvable(t *testing.T) {
	persons, _ := request.ParsePersons([]request.PersonInput{{ID: 1, Name: "A"}})
	duties := []models.Duty{{ID: 10, Name: "Nobetci", Slot: 0, BaseName: "Nobetci"}}

	out := request.ParseManualAssignments([]request.ManualAssignmentInput{
		{PersonID: "ghost", Day: 5, DutyName: "Nobetci"},
		{PersonID: 1, Day: 5, DutyName: "ghost-duty"},
	}, persons, duties)

	assert.Empty(t, out)
}
