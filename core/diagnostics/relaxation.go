package diagnostics

import (
	"sort"

	"github.com/ayhanuzun/nobetci/common/models"
)

const (
	ActionReduceGap        = "ara_gun_azalt"
	ActionRelaxExclusive    = "exclusive_gevset"
	ActionRelaxSeparate     = "ayri_gevset"
	ActionRemoveTogether    = "birlikte_kaldir"
	ActionRemoveAllSoft     = "tum_soft_kaldir"
	ActionGreedy            = "greedy"
)

// RelaxationScanInput bundles the signals the ranked relaxation recommender
// needs from a failed assignment attempt.
type RelaxationScanInput struct {
	Feasibility models.FeasibilityDebug
	// ExclusiveZeroCandidateRatio is the fraction of zero-candidate slots
	// that belong to an exclusive role.
	ExclusiveZeroCandidateRatio float64
	// SeparateRuleAffectedRatio is the fraction of persons under a separate
	// rule who also have few available days.
	SeparateRuleAffectedRatio float64
	HasTogetherRules          bool
	HasSeparateRules          bool
	HasExclusiveRoles         bool
	CapacityIssuesDetected    bool
}

// RankRelaxations scores the six candidate relaxations from spec §4.4 and
// returns them sorted by descending score. Only actions applicable to the
// current rule set are included (e.g. birlikte_kaldir is omitted when there
// are no together rules), except for ara_gun_azalt/tum_soft_kaldir/greedy
// which are always present as last-resort options.
func RankRelaxations(in RelaxationScanInput) []models.RelaxationAction {
	var actions []models.RelaxationAction

	gapScore := 60.0
	if in.CapacityIssuesDetected {
		gapScore = 95.0
	}
	actions = append(actions, models.RelaxationAction{Name: ActionReduceGap, Score: gapScore})

	if in.HasExclusiveRoles && in.ExclusiveZeroCandidateRatio >= 0.3 {
		score := 70 + 15*in.ExclusiveZeroCandidateRatio
		if score > 85 {
			score = 85
		}
		actions = append(actions, models.RelaxationAction{Name: ActionRelaxExclusive, Score: score})
	}

	if in.HasSeparateRules && in.SeparateRuleAffectedRatio > 0.5 {
		actions = append(actions, models.RelaxationAction{Name: ActionRelaxSeparate, Score: 65})
	}

	if in.HasTogetherRules {
		actions = append(actions, models.RelaxationAction{Name: ActionRemoveTogether, Score: 50})
	}

	actions = append(actions, models.RelaxationAction{Name: ActionRemoveAllSoft, Score: 35})
	actions = append(actions, models.RelaxationAction{Name: ActionGreedy, Score: 10})

	sort.SliceStable(actions, func(i, j int) bool { return actions[i].Score > actions[j].Score })
	return actions
}
