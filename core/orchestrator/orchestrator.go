// Package orchestrator is the Adaptive Orchestrator: runs the Target
// Computer, then the Assignment Solver, and on infeasibility iterates
// ranked relaxations within a time budget before falling back to the greedy
// solver.
package orchestrator

import (
	"time"

	"github.com/ayhanuzun/nobetci/common/calendarday"
	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/common/models"
	"github.com/ayhanuzun/nobetci/core/assignsolver"
	"github.com/ayhanuzun/nobetci/core/diagnostics"
	"github.com/ayhanuzun/nobetci/core/greedy"
	"github.com/ayhanuzun/nobetci/core/quality"
	"github.com/ayhanuzun/nobetci/core/targetsolver"
)

// Input bundles a full Solve request.
type Input struct {
	DayCount      int
	DayTypes      map[int]calendarday.Type
	SlotCount     int
	Duties        []models.Duty
	Persons       []models.Person
	TogetherRules []models.Rule
	SeparateRules []models.Rule
	Restrictions  map[identity.ID][]models.RoleRestriction
	Manual        []models.ManualAssignment
	Gap           int
	LockedTargets map[identity.ID]map[calendarday.Type]int
	MaxSeconds    float64
}

// Run executes the full pipeline described in spec §4.4/§5: pre-model
// manual-conflict scan, Target Computer, first Assignment solve, ranked
// relaxation cascade within the remaining budget, and a final greedy
// fallback.
func Run(in Input) models.SolveResult {
	start := time.Now()
	maxSeconds := in.MaxSeconds
	if maxSeconds <= 0 {
		maxSeconds = 60
	}

	togetherMembers := map[identity.ID]bool{}
	for _, r := range in.TogetherRules {
		if r.Kind == models.Together {
			for _, m := range r.Members {
				togetherMembers[m] = true
			}
		}
	}

	conflicts := diagnostics.ScanManualConflicts(diagnostics.ManualScanInput{
		Persons:         in.Persons,
		Duties:          in.Duties,
		Manual:          in.Manual,
		DayCount:        in.DayCount,
		Gap:             in.Gap,
		Restrictions:    in.Restrictions,
		SeparateRules:   in.SeparateRules,
		TogetherMembers: togetherMembers,
	})
	if len(conflicts) > 0 {
		return models.SolveResult{
			Success: false,
			Status:  models.StatusManualConflict,
			Diagnostics: models.DiagnosticsReport{
				Status:          models.StatusManualConflict,
				ManualConflicts: conflicts,
			},
			Message: "manual pin conflicts detected",
		}
	}

	firstBudget := maxSeconds * 0.5
	relaxBudget := maxSeconds * 0.4
	greedyBudget := maxSeconds - firstBudget - relaxBudget

	tr, err := targetsolver.Solve(targetsolver.Input{
		DayCount:      in.DayCount,
		DayTypes:      in.DayTypes,
		SlotCount:     in.SlotCount,
		Persons:       in.Persons,
		TogetherRules: in.TogetherRules,
		ManualSeeds:   in.Manual,
		Gap:           in.Gap,
		LockedTargets: in.LockedTargets,
		MaxSeconds:    firstBudget,
	})
	if err != nil || !tr.Success {
		msg := "targets infeasible — likely capacity shortfall"
		if tr.Message != "" {
			msg = tr.Message
		}
		return models.SolveResult{Success: false, Status: models.StatusInfeasible, Message: msg}
	}

	writeBackTargets(in.Persons, tr.Targets)

	assignIn := assignsolver.Input{
		DayCount:      in.DayCount,
		DayTypes:      in.DayTypes,
		Duties:        in.Duties,
		Persons:       in.Persons,
		TogetherRules: in.TogetherRules,
		SeparateRules: in.SeparateRules,
		Restrictions:  in.Restrictions,
		Manual:        in.Manual,
		Gap:           in.Gap,
		Targets:       tr.Targets,
		MaxSeconds:    remaining(start, firstBudget),
	}

	result, err := assignsolver.Solve(assignIn)
	relaxation := models.RelaxationInfo{}
	if err == nil && result.Success {
		return buildSuccess(in, result, tr.Targets, relaxation, nil)
	}

	relaxDeadline := start.Add(time.Duration((firstBudget + relaxBudget) * float64(time.Second)))

	roleCtx := assignsolver.BuildRoleContext(in.Persons, in.Duties, in.Restrictions, in.TogetherRules)
	admissibleFn := func(p models.Person, d models.Duty, day int) bool {
		return assignsolver.Admissible(p, d.RoleKey(), day, d, roleCtx, assignsolver.Exceptions{})
	}
	feasibility := diagnostics.BuildFeasibilityReport(diagnostics.FeasibilityInput{
		Persons:    in.Persons,
		Duties:     in.Duties,
		DayCount:   in.DayCount,
		Gap:        in.Gap,
		Admissible: admissibleFn,
		RoleDemand: roleDemandOf(in),
	})
	capacityIssues := feasibility.ZeroCandidateSlots > 0
	for _, rc := range feasibility.RoleCapacity {
		if rc.Exceeded {
			capacityIssues = true
		}
	}

	actions := diagnostics.RankRelaxations(diagnostics.RelaxationScanInput{
		Feasibility:                 feasibility,
		ExclusiveZeroCandidateRatio: exclusiveZeroCandidateRatio(in, admissibleFn),
		SeparateRuleAffectedRatio:   separateRuleAffectedRatio(in),
		HasTogetherRules:            len(in.TogetherRules) > 0,
		HasSeparateRules:            len(in.SeparateRules) > 0,
		HasExclusiveRoles:           anyExclusive(in.Restrictions),
		CapacityIssuesDetected:      capacityIssues,
	})

	workingAssign := assignIn
	for _, action := range actions {
		if time.Now().After(relaxDeadline) {
			break
		}
		for gap := in.Gap; gap >= 0; gap-- {
			if time.Now().After(relaxDeadline) {
				break
			}
			trial := workingAssign
			trial.Gap = gap
			trial.MaxSeconds = remaining(start, firstBudget+relaxBudget)
			applyRelaxation(&trial, action.Name, &relaxation)

			r, err := assignsolver.Solve(trial)
			if err == nil && r.Success {
				if gap != in.Gap {
					g := gap
					relaxation.GapReducedTo = &g
				}
				relaxation.RootCause = action.Name
				workingAssign = trial
				return buildSuccess(in, r, tr.Targets, relaxation, actions)
			}
		}
		applyRelaxation(&workingAssign, action.Name, &relaxation)
	}

	// Last resort: greedy.
	relaxation.UsedGreedy = true
	relaxation.RootCause = diagnostics.ActionGreedy
	gr := greedy.Run(greedy.Input{
		DayCount:      in.DayCount,
		DayTypes:      in.DayTypes,
		Duties:        in.Duties,
		Persons:       in.Persons,
		TogetherRules: workingAssign.TogetherRules,
		SeparateRules: workingAssign.SeparateRules,
		Manual:        in.Manual,
		Gap:           in.Gap,
	})
	_ = greedyBudget
	gr.Targets = tr.Targets
	gr.Quality = scoreAssignments(in, gr.Assignments)
	gr.Diagnostics.Relaxation = relaxation
	gr.Diagnostics.Feasibility = &feasibility
	gr.Diagnostics.RankedRelaxations = actions
	gr.Diagnostics.Notes = append(gr.Diagnostics.Notes, "produced by the greedy fallback path; exclusive and pool role metadata were not enforced")
	return gr
}

// roleDemandOf sums each role's per-person target quota across all persons,
// for every role actually present among the configured duties, as the
// feasibility report's per-role demand figure.
func roleDemandOf(in Input) map[string]int {
	demand := map[string]int{}
	for _, d := range in.Duties {
		role := d.RoleKey()
		if _, ok := demand[role]; ok {
			continue
		}
		total := 0
		for _, p := range in.Persons {
			total += p.TargetPerRole[role]
		}
		demand[role] = total
	}
	return demand
}

// exclusiveZeroCandidateRatio is the fraction of zero-candidate (day,slot)
// pairs whose duty is exclusive, feeding the relaxation recommender's
// exclusive_gevset score.
func exclusiveZeroCandidateRatio(in Input, admissible func(models.Person, models.Duty, int) bool) float64 {
	total, exclusiveZero := 0, 0
	for day := 1; day <= in.DayCount; day++ {
		for _, d := range in.Duties {
			count := 0
			for _, p := range in.Persons {
				if p.Excused[day] {
					continue
				}
				if admissible(p, d, day) {
					count++
				}
			}
			if count == 0 {
				total++
				if d.Exclusive {
					exclusiveZero++
				}
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(exclusiveZero) / float64(total)
}

// separateRuleAffectedRatio is the fraction of persons under a separate rule
// whose available-day count falls below the across-roster mean, feeding the
// relaxation recommender's ayri_gevset score.
func separateRuleAffectedRatio(in Input) float64 {
	members := map[identity.ID]bool{}
	for _, r := range in.SeparateRules {
		if r.Kind != models.Separate {
			continue
		}
		for _, m := range r.Members {
			members[m] = true
		}
	}
	if len(members) == 0 || len(in.Persons) == 0 {
		return 0
	}

	availableByPerson := map[identity.ID]int{}
	var totalAvailable float64
	for _, p := range in.Persons {
		avail := 0
		for day := 1; day <= in.DayCount; day++ {
			if !p.Excused[day] {
				avail++
			}
		}
		availableByPerson[p.ID] = avail
		totalAvailable += float64(avail)
	}
	meanAvailable := totalAvailable / float64(len(in.Persons))

	affected := 0
	for m := range members {
		if float64(availableByPerson[m]) < meanAvailable {
			affected++
		}
	}
	return float64(affected) / float64(len(members))
}

func remaining(start time.Time, budget float64) float64 {
	elapsed := time.Since(start).Seconds()
	left := budget - elapsed
	if left < 1 {
		left = 1
	}
	return left
}

func anyExclusive(restrictions map[identity.ID][]models.RoleRestriction) bool {
	for _, list := range restrictions {
		for _, r := range list {
			if r.Exclusive {
				return true
			}
		}
	}
	return false
}

func applyRelaxation(in *assignsolver.Input, action string, info *models.RelaxationInfo) {
	switch action {
	case diagnostics.ActionRelaxExclusive:
		relaxed := map[identity.ID][]models.RoleRestriction{}
		for id, list := range in.Restrictions {
			var out []models.RoleRestriction
			for _, r := range list {
				r.Exclusive = false
				out = append(out, r)
			}
			relaxed[id] = out
		}
		in.Restrictions = relaxed
		info.ExclusiveRelaxed = true
	case diagnostics.ActionRelaxSeparate:
		in.SeparateRules = nil
		info.SeparateRulesRemoved = true
	case diagnostics.ActionRemoveTogether:
		in.TogetherRules = nil
		info.TogetherRulesRemoved = true
	case diagnostics.ActionRemoveAllSoft:
		in.TogetherRules = nil
		in.SeparateRules = nil
		in.Restrictions = map[identity.ID][]models.RoleRestriction{}
		info.AllSoftRemoved = true
	}
}

func writeBackTargets(persons []models.Person, targets models.Targets) {
	for i := range persons {
		if pt, ok := targets.PerType[persons[i].ID]; ok {
			persons[i].TargetsPerType = pt
		}
		if t, ok := targets.Total[persons[i].ID]; ok {
			persons[i].TargetTotal = t
		}
	}
}

func buildSuccess(in Input, r assignsolver.Result, targets models.Targets, relaxation models.RelaxationInfo, rankedRelaxations []models.RelaxationAction) models.SolveResult {
	schedule := map[int][]*identity.ID{}
	for day := 1; day <= in.DayCount; day++ {
		schedule[day] = make([]*identity.ID, in.SlotCount)
	}
	for _, a := range r.Assignments {
		id := a.Person
		if a.Slot < len(schedule[a.Day]) {
			schedule[a.Day][a.Slot] = &id
		}
	}

	return models.SolveResult{
		Success:     true,
		Status:      r.Status,
		Assignments: r.Assignments,
		Schedule:    schedule,
		Quality:     scoreAssignments(in, r.Assignments),
		Targets:     targets,
		Diagnostics: models.DiagnosticsReport{Status: r.Status, Relaxation: relaxation, RankedRelaxations: rankedRelaxations},
	}
}

// scoreAssignments computes the shared quality score both the CP-SAT success
// path and the greedy fallback path report, so SolveResult.Quality is never
// left zero-valued regardless of which solver produced the assignments.
func scoreAssignments(in Input, assignments []models.Assignment) models.QualityScore {
	hoursByPerson := map[identity.ID]float64{}
	countsByPerson := map[identity.ID]int{}
	targetByPerson := map[identity.ID]int{}
	daysByPerson := map[identity.ID][]int{}
	for _, a := range assignments {
		countsByPerson[a.Person]++
		daysByPerson[a.Person] = append(daysByPerson[a.Person], a.Day)
		if t, ok := in.DayTypes[a.Day]; ok {
			hoursByPerson[a.Person] += float64(calendarday.Hours[t])
		}
	}
	for _, p := range in.Persons {
		targetByPerson[p.ID] = p.TargetTotal
	}
	intervals := map[identity.ID][]int{}
	for id, days := range daysByPerson {
		for i := 1; i < len(days); i++ {
			intervals[id] = append(intervals[id], days[i]-days[i-1])
		}
	}

	return quality.Score(quality.Input{
		CountsByPerson:    countsByPerson,
		HoursByPerson:     hoursByPerson,
		IntervalsByPerson: intervals,
		TargetByPerson:    targetByPerson,
		FilledSlots:       len(assignments),
		TotalSlots:        in.DayCount * in.SlotCount,
	})
}
