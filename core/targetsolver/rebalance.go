package targetsolver

import (
	"sort"

	"github.com/ayhanuzun/nobetci/common/calendarday"
	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/common/models"
)

// RebalanceAnnualDeficit shifts up to 2 duties from over-served to
// under-served people as a deterministic post-pass on top of the CP-SAT
// write-back. It mirrors the original's `_yillik_dengeleme_hedef_ayarla`
// smoothing step (SPEC_FULL.md supplemented feature #3) and only runs when at
// least two people carry a yearly realized count, matching the original's
// guard against running on data that doesn't support a meaningful mean.
func RebalanceAnnualDeficit(persons []models.Person, targets models.Targets) {
	type yearlyPerson struct {
		id     identity.ID
		yearly int
	}
	var withYearly []yearlyPerson
	for _, p := range persons {
		sum := 0
		for _, v := range p.AnnualRealized {
			sum += v
		}
		if sum > 0 {
			withYearly = append(withYearly, yearlyPerson{p.ID, sum})
		}
	}
	if len(withYearly) < 2 {
		return
	}

	total := 0
	for _, y := range withYearly {
		total += y.yearly
	}
	mean := float64(total) / float64(len(withYearly))

	sort.Slice(withYearly, func(i, j int) bool { return withYearly[i].yearly > withYearly[j].yearly })

	transfers := 0
	i, j := 0, len(withYearly)-1
	for i < j && transfers < 2 {
		over := withYearly[i]
		under := withYearly[j]
		if float64(over.yearly) <= mean+1 || float64(under.yearly) >= mean-1 {
			break
		}
		if moveOneDuty(targets, over.id, under.id) {
			transfers++
		}
		i++
		j--
	}
}

// moveOneDuty shifts a single duty of "from"'s most populous day-type to the
// same day-type of "to", preserving each person's type-sum-equals-total
// invariant and every day-type's roster-wide sum. Returns false if no safe
// move exists.
func moveOneDuty(targets models.Targets, from, to identity.ID) bool {
	fromTypes := targets.PerType[from]
	toTypes := targets.PerType[to]
	if fromTypes == nil || toTypes == nil {
		return false
	}
	var bestType calendarday.Type
	best := -1
	for _, t := range calendarday.All {
		if fromTypes[t] > best {
			best = fromTypes[t]
			bestType = t
		}
	}
	if best <= 0 {
		return false
	}
	fromTypes[bestType]--
	toTypes[bestType]++
	targets.Total[from]--
	targets.Total[to]++
	return true
}
