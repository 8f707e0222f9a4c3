package assignsolver

import (
	"fmt"
	"math"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"

	"github.com/ayhanuzun/nobetci/common/calendarday"
	"github.com/ayhanuzun/nobetci/common/identity"
)

// buildObjective assembles the weighted sum of soft terms from spec §4.3's
// table: empty-slot, role-quota, day-type-quota, total-target, together,
// weekly homogeneity, max-gap window, annual deficit, and crowding.
func buildObjective(model *cpmodel.CpModelBuilder, in Input, x map[key]cpmodel.BoolVar, empty map[[2]int]cpmodel.BoolVar, ctx roleContext) *cpmodel.LinearExpr {
	obj := cpmodel.NewLinearExpr()

	for _, e := range empty {
		obj.AddTerm(e, in.Weights.EmptySlot)
	}

	slotsPerRole := map[string]int{}
	for _, d := range in.Duties {
		slotsPerRole[d.RoleKey()]++
	}
	maxSlotsPerRole := 0
	for _, n := range slotsPerRole {
		if n > maxSlotsPerRole {
			maxSlotsPerRole = n
		}
	}
	scarcityWeight := func(role string) int64 {
		n := slotsPerRole[role]
		if n == 0 {
			return 1
		}
		w := maxSlotsPerRole / n
		if w < 1 {
			w = 1
		}
		return int64(w)
	}

	for _, p := range in.Persons {
		// role-quota.
		for role, target := range p.TargetPerRole {
			expr := cpmodel.NewLinearExpr()
			for day := 1; day <= in.DayCount; day++ {
				for _, d := range in.Duties {
					if d.RoleKey() != role {
						continue
					}
					expr.Add(x[key{p.ID, day, d.Slot}])
				}
			}
			abs := model.NewIntVar(0, int64(in.DayCount)).WithName(fmt.Sprintf("roleq_abs_%d_%s", p.ID, role))
			model.AddAbsEquality(abs, cpmodel.NewLinearExpr().Add(expr).AddTerm(cpmodel.NewConstant(int64(target)), -1))
			obj.AddTerm(abs, in.Weights.RoleQuotaBase*scarcityWeight(role))
		}

		// day-type-quota.
		for _, t := range calendarday.All {
			target := p.TargetsPerType[t]
			expr := cpmodel.NewLinearExpr()
			for day, dt := range in.DayTypes {
				if dt != t {
					continue
				}
				for _, d := range in.Duties {
					expr.Add(x[key{p.ID, day, d.Slot}])
				}
			}
			abs := model.NewIntVar(0, int64(in.DayCount)).WithName(fmt.Sprintf("dtq_abs_%d_%s", p.ID, t))
			model.AddAbsEquality(abs, cpmodel.NewLinearExpr().Add(expr).AddTerm(cpmodel.NewConstant(int64(target)), -1))
			obj.AddTerm(abs, in.Weights.DayTypeQuota)
		}

		// total-target.
		totalExpr := cpmodel.NewLinearExpr()
		for day := 1; day <= in.DayCount; day++ {
			for _, d := range in.Duties {
				totalExpr.Add(x[key{p.ID, day, d.Slot}])
			}
		}
		absTotal := model.NewIntVar(0, int64(in.DayCount)).WithName(fmt.Sprintf("total_abs_%d", p.ID))
		model.AddAbsEquality(absTotal, cpmodel.NewLinearExpr().Add(totalExpr).AddTerm(cpmodel.NewConstant(int64(p.TargetTotal)), -1))
		obj.AddTerm(absTotal, in.Weights.TotalTarget)
	}

	// together.
	for _, rule := range in.TogetherRules {
		for i := 0; i < len(rule.Members); i++ {
			for j := i + 1; j < len(rule.Members); j++ {
				for day := 1; day <= in.DayCount; day++ {
					e1 := cpmodel.NewLinearExpr()
					for _, d := range in.Duties {
						e1.Add(x[key{rule.Members[i], day, d.Slot}])
					}
					e2 := cpmodel.NewLinearExpr()
					for _, d := range in.Duties {
						e2.Add(x[key{rule.Members[j], day, d.Slot}])
					}
					abs := model.NewIntVar(0, 1).WithName("together_abs")
					model.AddAbsEquality(abs, cpmodel.NewLinearExpr().Add(e1).AddTerm(e2, -1))
					obj.AddTerm(abs, in.Weights.Together)
				}
			}
		}
	}

	// weekly homogeneity: per 7-day block (days 1-7, 8-14, ...), penalize
	// (blockCount-1)+. Blocks start at day 1 of the month and are not aligned
	// to Monday-Sunday calendar weeks.
	weeks := weeksOf(in.DayCount)
	for _, p := range in.Persons {
		for _, week := range weeks {
			expr := cpmodel.NewLinearExpr()
			for _, day := range week {
				for _, d := range in.Duties {
					expr.Add(x[key{p.ID, day, d.Slot}])
				}
			}
			excess := model.NewIntVar(0, int64(len(week))).WithName(fmt.Sprintf("weekly_excess_%d", p.ID))
			model.AddGreaterOrEqual(excess, cpmodel.NewLinearExpr().Add(expr).AddTerm(cpmodel.NewConstant(1), -1))
			model.AddGreaterOrEqual(excess, cpmodel.NewConstant(0))
			obj.AddTerm(excess, in.Weights.WeeklyHomogeneity)
		}
	}

	// max-gap window: windows of length idealGap+max(2,idealGap/2), and a
	// wider window at 2*idealGap with ×5 weight; penalize zero-duty
	// windows.
	idealGap := in.Gap
	if idealGap <= 0 {
		idealGap = 1
	}
	narrow := windowsOf(in.DayCount, idealGap+max(2, idealGap/2))
	wide := windowsOf(in.DayCount, 2*idealGap)
	for _, p := range in.Persons {
		addGapWindowPenalty(model, obj, in, p.ID, x, narrow, in.Weights.MaxGapWindow)
		addGapWindowPenalty(model, obj, in, p.ID, x, wide, in.Weights.MaxGapWindow*5)
	}

	// annual deficit and crowding.
	yearlyMean := yearlyMeanOf(in)
	for _, p := range in.Persons {
		totalExpr := cpmodel.NewLinearExpr()
		for day := 1; day <= in.DayCount; day++ {
			for _, d := range in.Duties {
				totalExpr.Add(x[key{p.ID, day, d.Slot}])
			}
		}

		yearly := 0
		for _, v := range p.AnnualRealized {
			yearly += v
		}
		dev := float64(yearly) - yearlyMean
		if math.Abs(dev) > 1 {
			mult := int64(math.Min(math.Abs(dev), 3))
			deficit := model.NewIntVar(0, int64(in.DayCount)).WithName(fmt.Sprintf("deficit_%d", p.ID))
			if dev < 0 {
				model.AddGreaterOrEqual(deficit, cpmodel.NewLinearExpr().Add(cpmodel.NewConstant(int64(p.TargetTotal))).AddTerm(totalExpr, -1))
			} else {
				model.AddGreaterOrEqual(deficit, cpmodel.NewLinearExpr().Add(totalExpr).AddTerm(cpmodel.NewConstant(int64(p.TargetTotal)), -1))
			}
			model.AddGreaterOrEqual(deficit, cpmodel.NewConstant(0))
			obj.AddTerm(deficit, in.Weights.AnnualDeficit*mult)
		}

		availableDays := 0
		for day := 1; day <= in.DayCount; day++ {
			if !p.Excused[day] {
				availableDays++
			}
		}
		if availableDays > 0 {
			rho := float64(p.TargetTotal) / float64(availableDays)
			if rho > 0.3 {
				mult := int64(math.Min(math.Floor(10*rho), 5))
				panic := model.NewIntVar(0, int64(in.DayCount)).WithName(fmt.Sprintf("panic_%d", p.ID))
				model.AddGreaterOrEqual(panic, cpmodel.NewLinearExpr().Add(cpmodel.NewConstant(int64(p.TargetTotal))).AddTerm(totalExpr, -1))
				model.AddGreaterOrEqual(panic, cpmodel.NewConstant(0))
				obj.AddTerm(panic, in.Weights.Crowding*mult)
			}
		}
	}

	return obj
}

func addGapWindowPenalty(model *cpmodel.CpModelBuilder, obj *cpmodel.LinearExpr, in Input, p identity.ID, x map[key]cpmodel.BoolVar, windows [][]int, weight int64) {
	for _, w := range windows {
		expr := cpmodel.NewLinearExpr()
		for _, day := range w {
			for _, d := range in.Duties {
				expr.Add(x[key{p, day, d.Slot}])
			}
		}
		e := model.NewBoolVar()
		model.AddEquality(expr, cpmodel.NewConstant(0)).OnlyEnforceIf(e)
		model.AddGreaterOrEqual(expr, cpmodel.NewConstant(1)).OnlyEnforceIf(e.Not())
		obj.AddTerm(e, weight)
	}
}

func weeksOf(dayCount int) [][]int {
	var weeks [][]int
	for start := 1; start <= dayCount; start += 7 {
		end := start + 6
		if end > dayCount {
			end = dayCount
		}
		week := make([]int, 0, 7)
		for d := start; d <= end; d++ {
			week = append(week, d)
		}
		weeks = append(weeks, week)
	}
	return weeks
}

// windowsOf partitions [1,dayCount] into overlapping windows of the given
// length, sliding by half the length so consecutive windows overlap.
func windowsOf(dayCount, length int) [][]int {
	if length <= 0 {
		return nil
	}
	step := max(1, length/2)
	var windows [][]int
	for start := 1; start <= dayCount; start += step {
		end := start + length - 1
		if end > dayCount {
			end = dayCount
		}
		w := make([]int, 0, length)
		for d := start; d <= end; d++ {
			w = append(w, d)
		}
		windows = append(windows, w)
		if end == dayCount {
			break
		}
	}
	return windows
}

func yearlyMeanOf(in Input) float64 {
	sum, n := 0, 0
	for _, p := range in.Persons {
		y := 0
		for _, v := range p.AnnualRealized {
			y += v
		}
		if y > 0 {
			sum += y
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
