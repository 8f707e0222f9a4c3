// Package diagnostics implements the pre-model manual-pin conflict scan,
// the post-infeasibility feasibility report, and the ranked relaxation
// recommender described in spec §4.4.
package diagnostics

import (
	"fmt"

	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/common/models"
)

const maxManualConflicts = 50

// ManualScanInput bundles everything needed to validate manual pins before
// any CP-SAT model is built.
type ManualScanInput struct {
	Persons       []models.Person
	Duties        []models.Duty
	Manual        []models.ManualAssignment
	DayCount      int
	Gap           int
	Restrictions  map[identity.ID][]models.RoleRestriction
	SeparateRules []models.Rule
	TogetherMembers map[identity.ID]bool
}

// ScanManualConflicts enumerates structured conflicts over the supplied
// manual pins. If any conflict is produced, the caller must fail the solve
// immediately with status MANUAL_CONFLICT rather than attempting any
// relaxation.
func ScanManualConflicts(in ManualScanInput) []models.ManualConflict {
	var conflicts []models.ManualConflict
	add := func(c models.ManualConflict) bool {
		conflicts = append(conflicts, c)
		return len(conflicts) >= maxManualConflicts
	}

	personByID := map[identity.ID]models.Person{}
	for _, p := range in.Persons {
		personByID[p.ID] = p
	}
	dutyBySlot := map[int]models.Duty{}
	for _, d := range in.Duties {
		dutyBySlot[d.Slot] = d
	}

	type seenKey struct {
		person, day, slot int
	}
	seenDay := map[[2]int]identity.ID{}  // (person,day) -> first slot
	seenSlot := map[[2]int]identity.ID{} // (day,slot) -> first person

	for _, m := range in.Manual {
		p, ok := personByID[m.Person]
		if !ok {
			if add(models.ManualConflict{Code: "MANUEL_KISI_YOK", Message: "unknown person", Person: m.Person, Day: m.Day, Slot: m.Slot}) {
				return conflicts
			}
			continue
		}
		if m.Day < 1 || m.Day > in.DayCount {
			if add(models.ManualConflict{Code: "MANUEL_GUN_HATALI", Message: "day out of range", Person: m.Person, Day: m.Day, Slot: m.Slot}) {
				return conflicts
			}
			continue
		}
		duty, ok := dutyBySlot[m.Slot]
		if !ok {
			if add(models.ManualConflict{Code: "MANUEL_SLOT_HATALI", Message: "slot out of range", Person: m.Person, Day: m.Day, Slot: m.Slot}) {
				return conflicts
			}
			continue
		}
		if p.Excused[m.Day] {
			if add(models.ManualConflict{Code: "MAZERET_GUNU", Message: "excused day", Person: m.Person, Day: m.Day, Slot: m.Slot}) {
				return conflicts
			}
		}

		role := duty.RoleKey()
		if p.RestrictedRole != "" && role != p.RestrictedRole && role != p.OverflowRole {
			if add(models.ManualConflict{Code: "KISITLAMA_IHLALI", Message: fmt.Sprintf("role restriction violated for role %s", role), Person: m.Person, Day: m.Day, Slot: m.Slot}) {
				return conflicts
			}
		}
		if duty.Exclusive && p.RestrictedRole != role && p.OverflowRole != role && p.TargetPerRole[role] <= 0 {
			restricted := false
			for _, r := range in.Restrictions[m.Person] {
				if r.RoleName == role && !r.HasPool() {
					restricted = true
				}
			}
			_ = restricted
			if add(models.ManualConflict{Code: "EXCLUSIVE_IHLALI", Message: "exclusive role violated", Person: m.Person, Day: m.Day, Slot: m.Slot}) {
				return conflicts
			}
		}
		for _, r := range in.Restrictions[m.Person] {
			if r.RoleName == role && r.HasPool() {
				inPool := false
				for _, id := range r.PoolMemberIDs {
					if id == m.Person {
						inPool = true
					}
				}
				if !inPool && p.RestrictedRole != role && p.OverflowRole != role {
					if add(models.ManualConflict{Code: "HAVUZ_IHLALI", Message: "pool role violated", Person: m.Person, Day: m.Day, Slot: m.Slot}) {
						return conflicts
					}
				}
			}
		}
		if duty.SeparateBuilding && in.TogetherMembers[m.Person] {
			if add(models.ManualConflict{Code: "AYRI_BINA_BIRLIKTE", Message: "separate-building slot for together-group member", Person: m.Person, Day: m.Day, Slot: m.Slot}) {
				return conflicts
			}
		}

		if prevSlot, ok := seenDay[[2]int{int(m.Person), m.Day}]; ok && prevSlot != identity.ID(m.Slot) {
			if add(models.ManualConflict{Code: "AYNI_GUN_CIFT_ATAMA", Message: "duplicate manual pin on same day", Person: m.Person, Day: m.Day, Slot: m.Slot}) {
				return conflicts
			}
		}
		seenDay[[2]int{int(m.Person), m.Day}] = identity.ID(m.Slot)

		if prevPerson, ok := seenSlot[[2]int{m.Day, m.Slot}]; ok && prevPerson != m.Person {
			if add(models.ManualConflict{Code: "AYNI_SLOT_CIFT_ATAMA", Message: "duplicate manual pin on same slot", Person: m.Person, Day: m.Day, Slot: m.Slot}) {
				return conflicts
			}
		}
		seenSlot[[2]int{m.Day, m.Slot}] = m.Person
	}

	// Gap + separate-rule checks need the full set collected above.
	for i := 0; i < len(in.Manual); i++ {
		for j := i + 1; j < len(in.Manual); j++ {
			a, b := in.Manual[i], in.Manual[j]
			if a.Person != b.Person {
				continue
			}
			d1, d2 := a.Day, b.Day
			if d1 > d2 {
				d1, d2 = d2, d1
			}
			if d2-d1 >= 1 && d2-d1 <= in.Gap {
				if add(models.ManualConflict{Code: "ARA_GUN_IHLALI", Message: "gap violation between manual pins", Person: a.Person, Day: a.Day, Slot: a.Slot}) {
					return conflicts
				}
			}
		}
	}
	for _, rule := range in.SeparateRules {
		if rule.Kind != models.Separate {
			continue
		}
		for i := 0; i < len(rule.Members); i++ {
			for j := i + 1; j < len(rule.Members); j++ {
				for _, a := range in.Manual {
					if a.Person != rule.Members[i] {
						continue
					}
					for _, b := range in.Manual {
						if b.Person != rule.Members[j] || b.Day != a.Day {
							continue
						}
						if add(models.ManualConflict{Code: "AYRI_KURALI_IHLALI", Message: "separate-rule conflict between manual pins", Person: a.Person, Day: a.Day, Slot: a.Slot}) {
							return conflicts
						}
					}
				}
			}
		}
	}

	return conflicts
}
