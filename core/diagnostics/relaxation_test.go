package diagnostics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayhanuzun/nobetci/core/diagnostics"
)

func TestRankRelaxationsAlwaysIncludesLastResorts(t *testing.T) {
	actions := diagnostics.RankRelaxations(diagnostics.RelaxationScanInput{})
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.Name
	}
	assert.Contains(t, names, diagnostics.ActionReduceGap)
	assert.Contains(t, names, diagnostics.ActionRemoveAllSoft)
	assert.Contains(t, names, diagnostics.ActionGreedy)
	assert.NotContains(t, names, diagnostics.ActionRelaxExclusive)
	assert.NotContains(t, names, diagnostics.ActionRelaxSeparate)
	assert.NotContains(t, names, diagnostics.ActionRemoveTogether)
}

func TestRankRelaxationsSortedDescending(t *testing.T) {
	actions := diagnostics.RankRelaxations(diagnostics.RelaxationScanInput{
		CapacityIssuesDetected: true,
		HasExclusiveRoles:      true, ExclusiveZeroCandidateRatio: 0.6,
		HasSeparateRules: true, SeparateRuleAffectedRatio: 0.8,
		HasTogetherRules: true,
	})
	require.True(t, len(actions) >= 2)
	for i := 1; i < len(actions); i++ {
		assert.GreaterOrEqual(t, actions[i-1].Score, actions[i].Score)
	}
	// greedy is always the last resort and scores lowest.
	assert.Equal(t, diagnostics.ActionGreedy, actions[len(actions)-1].Name)
}

func TestRankRelaxationsGapScoreEscalatesUnderCapacityIssues(t *testing.T) {
	normal := diagnostics.RankRelaxations(diagnostics.RelaxationScanInput{})
	escalated := diagnostics.RankRelaxations(diagnostics.RelaxationScanInput{CapacityIssuesDetected: true})

	var normalGap, escalatedGap float64
	for _, a := range normal {
		if a.Name == diagnostics.ActionReduceGap {
			normalGap = a.Score
		}
	}
	for _, a := range escalated {
		if a.Name == diagnostics.ActionReduceGap {
			escalatedGap = a.Score
		}
	}
	assert.Greater(t, escalatedGap, normalGap)
}

func TestRankRelaxationsIncludesApplicableOptionalActions(t *testing.T) {
	actions := diagnostics.RankRelaxations(diagnostics.RelaxationScanInput{
		HasExclusiveRoles: true, ExclusiveZeroCandidateRatio: 0.5,
		HasSeparateRules: true, SeparateRuleAffectedRatio: 0.9,
		HasTogetherRules: true,
	})
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.Name
	}
	assert.Contains(t, names, diagnostics.ActionRelaxExclusive)
	assert.Contains(t, names, diagnostics.ActionRelaxSeparate)
	assert.Contains(t, names, diagnostics.ActionRemoveTogether)
}
