package targetsolver

import (
	"github.com/ayhanuzun/nobetci/common/calendarday"
	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/common/models"
)

// HarmonizeTogetherGroups forces every member of a together-group to an
// identical per-day-type target (the minimum across the group, capped by
// each member's own availability), run as a deterministic step distinct
// from the CP-SAT soft together-equality penalty (SPEC_FULL.md supplemented
// feature #4, grounded on `_birlikte_gruplari_dengele`).
func HarmonizeTogetherGroups(persons []models.Person, rules []models.Rule, availPerType map[identity.ID]map[calendarday.Type]int, targets models.Targets) {
	for _, rule := range rules {
		if rule.Kind != models.Together || len(rule.Members) < 2 {
			continue
		}
		for _, t := range calendarday.All {
			min := -1
			for _, pid := range rule.Members {
				pt := targets.PerType[pid]
				if pt == nil {
					min = -1
					break
				}
				if min == -1 || pt[t] < min {
					min = pt[t]
				}
			}
			if min < 0 {
				continue
			}
			for _, pid := range rule.Members {
				avail := availPerType[pid][t]
				v := min
				if v > avail {
					v = avail
				}
				pt := targets.PerType[pid]
				if pt == nil {
					continue
				}
				delta := v - pt[t]
				pt[t] = v
				targets.Total[pid] += delta
			}
		}
	}
}
