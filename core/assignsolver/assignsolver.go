// Package assignsolver is the Assignment Solver (CP-SAT #2): produces the
// concrete month schedule against the Target Computer's per-person targets.
package assignsolver

import (
	"fmt"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"

	"github.com/ayhanuzun/nobetci/common/calendarday"
	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/common/models"
)

// Input bundles everything the Assignment Solver needs for one solve.
type Input struct {
	DayCount      int
	DayTypes      map[int]calendarday.Type
	Duties        []models.Duty
	Persons       []models.Person
	TogetherRules []models.Rule
	SeparateRules []models.Rule
	Restrictions  map[identity.ID][]models.RoleRestriction
	Manual        []models.ManualAssignment
	Gap           int
	Targets       models.Targets
	Exceptions    Exceptions
	Weights       Weights
	MaxSeconds    float64
	Workers       int
}

// Weights are the soft-term weights from spec §4.3's table.
type Weights struct {
	EmptySlot       int64
	RoleQuotaBase   int64 // ×scarcityWeight(role)
	DayTypeQuota    int64
	TotalTarget     int64
	Together        int64
	WeeklyHomogeneity int64
	MaxGapWindow      int64
	MaxGapWindowWide  int64
	AnnualDeficit     int64
	Crowding          int64
}

// DefaultWeights mirrors spec §4.3's default table.
var DefaultWeights = Weights{
	EmptySlot:         100000,
	RoleQuotaBase:     1000,
	DayTypeQuota:      500,
	TotalTarget:       100,
	Together:          500,
	WeeklyHomogeneity: 300,
	MaxGapWindow:      300,
	MaxGapWindowWide:  1500,
	AnnualDeficit:     400,
	Crowding:          250,
}

// Result is the Assignment Solver's outcome.
type Result struct {
	Success     bool
	Status      models.SolveStatus
	Assignments []models.Assignment
	ReasonHint  string
	GapReduceMayHelp bool
}

// key identifies one x[p,d,s] variable.
type key struct {
	person identity.ID
	day    int
	slot   int
}

// Solve builds and solves the Assignment Solver CP-SAT model.
func Solve(in Input) (Result, error) {
	if in.Weights == (Weights{}) {
		in.Weights = DefaultWeights
	}
	if in.Workers == 0 {
		in.Workers = 4
	}
	if in.MaxSeconds == 0 {
		in.MaxSeconds = 30
	}

	ctx := BuildRoleContext(in.Persons, in.Duties, in.Restrictions, in.TogetherRules)
	model := cpmodel.NewCpModelBuilder()

	x := make(map[key]cpmodel.BoolVar)
	admissibleCache := make(map[key]bool)

	for _, p := range in.Persons {
		for day := 1; day <= in.DayCount; day++ {
			for _, duty := range in.Duties {
				k := key{p.ID, day, duty.Slot}
				var v cpmodel.BoolVar
				if p.Excused[day] {
					v = model.NewConstant(0).AsBoolVar()
				} else if !Admissible(p, duty.RoleKey(), day, duty, ctx, in.Exceptions) && p.TargetPerRole[duty.RoleKey()] <= 0 {
					v = model.NewConstant(0).AsBoolVar()
					admissibleCache[k] = false
				} else {
					v = model.NewBoolVar().WithName(fmt.Sprintf("x_%d_%d_%d", p.ID, day, duty.Slot))
					admissibleCache[k] = true
				}
				x[k] = v
			}
		}
	}

	empty := make(map[[2]int]cpmodel.BoolVar)

	// H1: at most one person per (d,s); empty[d,s] true iff sum==0.
	for day := 1; day <= in.DayCount; day++ {
		for _, duty := range in.Duties {
			expr := cpmodel.NewLinearExpr()
			for _, p := range in.Persons {
				expr.Add(x[key{p.ID, day, duty.Slot}])
			}
			model.AddLessOrEqual(expr, cpmodel.NewConstant(1))

			e := model.NewBoolVar().WithName(fmt.Sprintf("empty_%d_%d", day, duty.Slot))
			model.AddEquality(expr, cpmodel.NewConstant(0)).OnlyEnforceIf(e)
			model.AddGreaterOrEqual(expr, cpmodel.NewConstant(1)).OnlyEnforceIf(e.Not())
			empty[[2]int{day, duty.Slot}] = e
		}
	}

	// H2 already applied via pre-elimination above.

	// H3: at most one slot per person per day.
	for _, p := range in.Persons {
		for day := 1; day <= in.DayCount; day++ {
			expr := cpmodel.NewLinearExpr()
			for _, duty := range in.Duties {
				expr.Add(x[key{p.ID, day, duty.Slot}])
			}
			model.AddLessOrEqual(expr, cpmodel.NewConstant(1))
		}
	}

	// H4: gap.
	if in.Gap > 0 {
		for _, p := range in.Persons {
			for d1 := 1; d1 <= in.DayCount; d1++ {
				for d2 := d1 + 1; d2 <= d1+in.Gap && d2 <= in.DayCount; d2++ {
					e1 := cpmodel.NewLinearExpr()
					for _, duty := range in.Duties {
						e1.Add(x[key{p.ID, d1, duty.Slot}])
					}
					e2 := cpmodel.NewLinearExpr()
					for _, duty := range in.Duties {
						e2.Add(x[key{p.ID, d2, duty.Slot}])
					}
					combined := cpmodel.NewLinearExpr().Add(sumAsVar(model, e1)).Add(sumAsVar(model, e2))
					model.AddLessOrEqual(combined, cpmodel.NewConstant(1))
				}
			}
		}
	}

	// H5: separate-rule pairs.
	for _, rule := range in.SeparateRules {
		if rule.Kind != models.Separate {
			continue
		}
		for i := 0; i < len(rule.Members); i++ {
			for j := i + 1; j < len(rule.Members); j++ {
				for day := 1; day <= in.DayCount; day++ {
					e1 := cpmodel.NewLinearExpr()
					for _, duty := range in.Duties {
						e1.Add(x[key{rule.Members[i], day, duty.Slot}])
					}
					e2 := cpmodel.NewLinearExpr()
					for _, duty := range in.Duties {
						e2.Add(x[key{rule.Members[j], day, duty.Slot}])
					}
					combined := cpmodel.NewLinearExpr().Add(sumAsVar(model, e1)).Add(sumAsVar(model, e2))
					model.AddLessOrEqual(combined, cpmodel.NewConstant(1))
				}
			}
		}
	}

	// H6: manual pins.
	for _, m := range in.Manual {
		if v, ok := x[key{m.Person, m.Day, m.Slot}]; ok {
			model.AddEquality(v, cpmodel.NewConstant(1))
		}
	}

	// H7-H10 are already encoded via the pre-elimination pass above (a
	// forbidden (p,d,s) is wired directly to the constant-0 BoolVar), which
	// is equivalent to and cheaper than adding explicit equality
	// constraints over already-free variables.

	model.Minimize(buildObjective(model, in, x, empty, ctx))

	m, err := model.Model()
	if err != nil {
		return Result{}, fmt.Errorf("failed to instantiate the assignment CP model: %w", err)
	}
	response, err := cpmodel.SolveCpModelWithParameters(m, cpmodel.NewSatParameters(fmt.Sprintf(
		"max_time_in_seconds:%f,num_search_workers:%d", in.MaxSeconds, in.Workers,
	)))
	if err != nil {
		return Result{}, fmt.Errorf("failed to solve the assignment model: %w", err)
	}

	status := normalizeStatus(response.GetStatus())
	if status != models.StatusOptimal && status != models.StatusFeasible {
		return Result{
			Success:          false,
			Status:           status,
			ReasonHint:       "assignment infeasible",
			GapReduceMayHelp: in.Gap > 0,
		}, nil
	}

	var assignments []models.Assignment
	for _, p := range in.Persons {
		for day := 1; day <= in.DayCount; day++ {
			for _, duty := range in.Duties {
				k := key{p.ID, day, duty.Slot}
				if cpmodel.SolutionBooleanValue(response, x[k]) {
					assignments = append(assignments, models.Assignment{Day: day, Slot: duty.Slot, Person: p.ID})
				}
			}
		}
	}

	return Result{Success: true, Status: status, Assignments: assignments}, nil
}

func normalizeStatus(s cpmodel.CpSolverStatus) models.SolveStatus {
	switch s {
	case cpmodel.CpSolverStatus_OPTIMAL:
		return models.StatusOptimal
	case cpmodel.CpSolverStatus_FEASIBLE:
		return models.StatusFeasible
	case cpmodel.CpSolverStatus_INFEASIBLE:
		return models.StatusInfeasible
	case cpmodel.CpSolverStatus_MODEL_INVALID:
		return models.StatusModelInvalid
	default:
		return models.StatusUnknown
	}
}

// sumAsVar materializes a LinearExpr as a single BoolVar-range IntVar for
// use as an addable operand where the API needs a variable, not an
// expression.
func sumAsVar(model *cpmodel.CpModelBuilder, expr *cpmodel.LinearExpr) cpmodel.IntVar {
	v := model.NewIntVar(0, 1)
	model.AddEquality(v, expr)
	return v
}
