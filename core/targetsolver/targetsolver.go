// Package targetsolver is the Target Computer: a small CP-SAT model that
// decides, per person, the target duty count per day-type (and per role)
// consistent with capacity, locks, together-groups, and manual assignments.
package targetsolver

import (
	"fmt"
	"math"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"

	"github.com/ayhanuzun/nobetci/common/calendarday"
	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/common/models"
)

// Weights are the penalty weights from spec §4.2, exposed so tests and
// callers can override the defaults.
type Weights struct {
	CountClampExcessSq  int64
	CountClampMissingSq int64
	HourBalance         int64
	WeekendBalance      int64
	TogetherEquality    int64
}

// DefaultWeights mirrors the orders of magnitude spec §4.2 mandates.
var DefaultWeights = Weights{
	CountClampExcessSq:  100000,
	CountClampMissingSq: 10000,
	HourBalance:         50,
	WeekendBalance:      10,
	TogetherEquality:    500,
}

// Input bundles everything the Target Computer needs for one request.
type Input struct {
	DayCount       int
	DayTypes       map[int]calendarday.Type // day -> type
	SlotCount      int
	Persons        []models.Person
	TogetherRules  []models.Rule
	ManualSeeds    []models.ManualAssignment
	Gap            int
	HourWeights    map[calendarday.Type]int
	LockedTargets  map[identity.ID]map[calendarday.Type]int
	Weights        Weights
	MaxSeconds      float64
	Workers        int
}

// Result is the Target Computer's outcome.
type Result struct {
	Success bool
	Targets models.Targets
	Status  models.SolveStatus
	Message string
}

// Solve builds and solves the Target Computer CP-SAT model, then applies the
// annual-deficit transfer pass and together-group harmonization before
// returning.
func Solve(in Input) (Result, error) {
	if in.HourWeights == nil {
		in.HourWeights = map[calendarday.Type]int{
			calendarday.Hici: 8, calendarday.Prs: 8, calendarday.Cum: 16,
			calendarday.Cmt: 24, calendarday.Pzr: 16,
		}
	}
	if in.Weights == (Weights{}) {
		in.Weights = DefaultWeights
	}
	if in.Workers == 0 {
		in.Workers = 4
	}
	if in.MaxSeconds == 0 {
		in.MaxSeconds = 10
	}

	typeCounts := calendarday.CountsByType(in.DayTypes)
	typeSlots := map[calendarday.Type]int{}
	totalSlots := 0
	for _, t := range calendarday.All {
		typeSlots[t] = typeCounts[t] * in.SlotCount
		totalSlots += typeSlots[t]
	}

	availPerType := make(map[identity.ID]map[calendarday.Type]int, len(in.Persons))
	for _, p := range in.Persons {
		avail := map[calendarday.Type]int{}
		for day, t := range in.DayTypes {
			if !p.Excused[day] {
				avail[t]++
			}
		}
		availPerType[p.ID] = avail
	}

	manualPerType := make(map[identity.ID]map[calendarday.Type]int)
	for _, m := range in.ManualSeeds {
		t, ok := in.DayTypes[m.Day]
		if !ok {
			continue
		}
		if manualPerType[m.Person] == nil {
			manualPerType[m.Person] = map[calendarday.Type]int{}
		}
		manualPerType[m.Person][t]++
	}

	locked := map[identity.ID]bool{}
	for pid := range in.LockedTargets {
		locked[pid] = true
	}

	var free []models.Person
	for _, p := range in.Persons {
		if !locked[p.ID] {
			free = append(free, p)
		}
	}

	model := cpmodel.NewCpModelBuilder()

	type personVars struct {
		perType map[calendarday.Type]cpmodel.IntVar
		total   cpmodel.IntVar
	}
	vars := make(map[identity.ID]personVars, len(free))

	remainingSlots := totalSlots
	for t, locked := range in.LockedTargets {
		for _, v := range locked {
			remainingSlots -= v
		}
		_ = t
	}
	nFree := len(free)
	if nFree == 0 {
		nFree = 1
	}

	for _, p := range free {
		pv := personVars{perType: map[calendarday.Type]cpmodel.IntVar{}}
		for _, t := range calendarday.All {
			manual := manualPerType[p.ID][t]
			ub := availPerType[p.ID][t]
			if ub < manual {
				ub = manual
			}
			pv.perType[t] = model.NewIntVar(int64(manual), int64(ub)).WithName(fmt.Sprintf("h_%d_%s", p.ID, t))
		}
		manualTotal := 0
		for _, t := range calendarday.All {
			manualTotal += manualPerType[p.ID][t]
		}
		ub := int(math.Floor(float64(remainingSlots)/float64(nFree))) + 2
		if p.TargetTotal > 0 && p.TargetTotal < ub {
			// explicit capacity never exceeds the declared ceiling
		}
		pv.total = model.NewIntVar(int64(manualTotal), int64(ub)).WithName(fmt.Sprintf("total_%d", p.ID))
		sumExpr := cpmodel.NewLinearExpr()
		for _, t := range calendarday.All {
			sumExpr.Add(pv.perType[t])
		}
		model.AddEquality(pv.total, sumExpr)
		vars[p.ID] = pv
	}

	// Hard equalities: sum_p h[p,t] = typeSlots[t].
	for _, t := range calendarday.All {
		lockedSum := 0
		for pid, lt := range in.LockedTargets {
			_ = pid
			lockedSum += lt[t]
		}
		expr := cpmodel.NewLinearExpr()
		for _, p := range free {
			expr.Add(vars[p.ID].perType[t])
		}
		model.AddEquality(expr, cpmodel.NewConstant(int64(typeSlots[t]-lockedSum)))
	}

	lockedTotalSum := 0
	for _, lt := range in.LockedTargets {
		for _, v := range lt {
			lockedTotalSum += v
		}
	}
	totalExpr := cpmodel.NewLinearExpr()
	for _, p := range free {
		totalExpr.Add(vars[p.ID].total)
	}
	model.AddEquality(totalExpr, cpmodel.NewConstant(int64(totalSlots-lockedTotalSum)))

	objective := cpmodel.NewLinearExpr()

	// Count-clamp penalty (priority 1).
	avg := float64(totalSlots-lockedTotalSum) / float64(nFree)
	avgFloor := int64(math.Floor(avg))
	for _, p := range free {
		excusedRatio := 0.0
		totalDays := in.DayCount
		if totalDays > 0 {
			excusedCount := 0
			for day := range in.DayTypes {
				if p.Excused[day] {
					excusedCount++
				}
			}
			excusedRatio = float64(excusedCount) / float64(totalDays)
		}
		heavyExcused := excusedRatio > 0.4
		limit := avgFloor
		if !heavyExcused {
			limit++
		}
		excess := model.NewIntVar(0, 1_000_000).WithName(fmt.Sprintf("excess_%d", p.ID))
		diff := cpmodel.NewLinearExpr().Add(vars[p.ID].total).AddTerm(cpmodel.NewConstant(limit), -1)
		model.AddGreaterOrEqual(excess, diff)
		model.AddGreaterOrEqual(excess, cpmodel.NewConstant(0))
		excessSq := model.NewIntVar(0, 1_000_000_000).WithName(fmt.Sprintf("excess_sq_%d", p.ID))
		model.AddMultiplicationEquality(excessSq, excess, excess)
		objective.AddTerm(excessSq, in.Weights.CountClampExcessSq)

		if !heavyExcused {
			missingLimit := avgFloor - 1
			missing := model.NewIntVar(0, 1_000_000).WithName(fmt.Sprintf("missing_%d", p.ID))
			mdiff := cpmodel.NewLinearExpr().Add(cpmodel.NewConstant(missingLimit)).AddTerm(vars[p.ID].total, -1)
			model.AddGreaterOrEqual(missing, mdiff)
			model.AddGreaterOrEqual(missing, cpmodel.NewConstant(0))
			missingSq := model.NewIntVar(0, 1_000_000_000).WithName(fmt.Sprintf("missing_sq_%d", p.ID))
			model.AddMultiplicationEquality(missingSq, missing, missing)
			objective.AddTerm(missingSq, in.Weights.CountClampMissingSq)
		}
	}

	// Hour balance (priority 2).
	avgHours := 0.0
	{
		sumHours := 0
		for _, t := range calendarday.All {
			sumHours += typeSlots[t] * in.HourWeights[t]
		}
		avgHours = float64(sumHours) / float64(nFree)
	}
	avgHoursInt := int64(math.Round(avgHours))
	for _, p := range free {
		hoursExpr := cpmodel.NewLinearExpr()
		for _, t := range calendarday.All {
			hoursExpr.AddTerm(vars[p.ID].perType[t], int64(in.HourWeights[t]))
		}
		absHours := model.NewIntVar(0, 1_000_000).WithName(fmt.Sprintf("hours_abs_%d", p.ID))
		model.AddAbsEquality(absHours, cpmodel.NewLinearExpr().Add(hoursExpr).AddTerm(cpmodel.NewConstant(avgHoursInt), -1))
		objective.AddTerm(absHours, in.Weights.HourBalance)
	}

	// Weekend balance (priority 3).
	totalWeekendSlots := typeSlots[calendarday.Cum] + typeSlots[calendarday.Cmt] + typeSlots[calendarday.Pzr]
	for _, p := range free {
		weekendExpr := cpmodel.NewLinearExpr()
		weekendExpr.Add(vars[p.ID].perType[calendarday.Cum])
		weekendExpr.Add(vars[p.ID].perType[calendarday.Cmt])
		weekendExpr.Add(vars[p.ID].perType[calendarday.Pzr])
		lhs := model.NewIntVar(-10_000_000, 10_000_000).WithName(fmt.Sprintf("weekend_lhs_%d", p.ID))
		model.AddMultiplicationEquality(lhs, sumVarAsInt(model, weekendExpr), cpmodel.NewConstant(int64(totalSlots)))
		rhs := model.NewIntVar(-10_000_000, 10_000_000).WithName(fmt.Sprintf("weekend_rhs_%d", p.ID))
		model.AddMultiplicationEquality(rhs, vars[p.ID].total, cpmodel.NewConstant(int64(totalWeekendSlots)))
		absDiff := model.NewIntVar(0, 20_000_000).WithName(fmt.Sprintf("weekend_abs_%d", p.ID))
		model.AddAbsEquality(absDiff, cpmodel.NewLinearExpr().Add(lhs).AddTerm(rhs, -1))
		objective.AddTerm(absDiff, in.Weights.WeekendBalance)
	}

	// Together-equality.
	for _, rule := range in.TogetherRules {
		if rule.Kind != models.Together {
			continue
		}
		for i := 0; i < len(rule.Members); i++ {
			for j := i + 1; j < len(rule.Members); j++ {
				p1, ok1 := vars[rule.Members[i]]
				p2, ok2 := vars[rule.Members[j]]
				if !ok1 || !ok2 {
					continue
				}
				abs := model.NewIntVar(0, 1_000_000).WithName("together_abs")
				model.AddAbsEquality(abs, cpmodel.NewLinearExpr().Add(p1.total).AddTerm(p2.total, -1))
				objective.AddTerm(abs, in.Weights.TogetherEquality)
			}
		}
	}

	model.Minimize(objective)

	m, err := model.Model()
	if err != nil {
		return Result{}, fmt.Errorf("failed to instantiate the target CP model: %w", err)
	}
	response, err := cpmodel.SolveCpModelWithParameters(m, cpmodel.NewSatParameters(fmt.Sprintf(
		"max_time_in_seconds:%f,num_search_workers:%d", in.MaxSeconds, in.Workers,
	)))
	if err != nil {
		return Result{}, fmt.Errorf("failed to solve the target model: %w", err)
	}

	status := response.GetStatus()
	if status != cpmodel.CpSolverStatus_OPTIMAL && status != cpmodel.CpSolverStatus_FEASIBLE {
		return Result{
			Success: false,
			Status:  models.StatusInfeasible,
			Message: "targets infeasible — likely capacity shortfall",
		}, nil
	}

	targets := models.Targets{
		PerType: map[identity.ID]map[calendarday.Type]int{},
		PerRole: map[identity.ID]map[string]int{},
		Total:   map[identity.ID]int{},
	}
	for _, p := range free {
		perType := map[calendarday.Type]int{}
		for _, t := range calendarday.All {
			perType[t] = int(cpmodel.SolutionIntegerValue(response, vars[p.ID].perType[t]))
		}
		targets.PerType[p.ID] = perType
		targets.Total[p.ID] = int(cpmodel.SolutionIntegerValue(response, vars[p.ID].total))
	}
	for pid, lt := range in.LockedTargets {
		perType := map[calendarday.Type]int{}
		total := 0
		for t, v := range lt {
			perType[t] = v
			total += v
		}
		targets.PerType[pid] = perType
		targets.Total[pid] = total
	}

	RebalanceAnnualDeficit(in.Persons, targets)
	HarmonizeTogetherGroups(in.Persons, in.TogetherRules, availPerType, targets)

	st := models.StatusFeasible
	if status == cpmodel.CpSolverStatus_OPTIMAL {
		st = models.StatusOptimal
	}
	return Result{Success: true, Targets: targets, Status: st}, nil
}

// sumVarAsInt materializes a LinearExpr as a single IntVar so it can be used
// as a multiplication operand (the API only multiplies variables/constants).
func sumVarAsInt(model *cpmodel.CpModelBuilder, expr *cpmodel.LinearExpr) cpmodel.IntVar {
	v := model.NewIntVar(0, 10_000_000)
	model.AddEquality(v, expr)
	return v
}
