package greedy

import (
	"sort"

	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/common/models"
)

// admissible reports whether person p could fill duty d on day, given the
// currently-assigned state (excused/assigned/gap/separate-rule conflicts).
// This mirrors the original's kisi_uygun_mu, narrowed to the lossy
// SolverGorev->GorevTanim duty view (no exclusive/pool checks here).
func (s *Solver) admissible(p identity.ID, d models.Duty, day int) bool {
	st := s.states[p]
	if st == nil {
		return false
	}
	if st.person.Excused[day] {
		return false
	}
	if st.assignedDays[day] {
		return false
	}
	for gd := day - s.in.Gap; gd <= day+s.in.Gap; gd++ {
		if gd == day {
			continue
		}
		if gd >= 1 && gd <= s.in.DayCount && st.assignedDays[gd] {
			return false
		}
	}
	if d.SeparateBuilding && s.isTogetherMember(p) {
		return false
	}
	for _, rule := range s.in.SeparateRules {
		if rule.Kind != models.Separate {
			continue
		}
		if !containsID(rule.Members, p) {
			continue
		}
		for _, other := range rule.Members {
			if other == p {
				continue
			}
			if s.states[other] != nil && s.states[other].assignedDays[day] {
				return false
			}
		}
	}
	return true
}

func (s *Solver) isTogetherMember(p identity.ID) bool {
	for _, r := range s.in.TogetherRules {
		if r.Kind == models.Together && containsID(r.Members, p) {
			return true
		}
	}
	return false
}

func containsID(ids []identity.ID, target identity.ID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

// score computes the composite candidate score from spec §4.5.
func (s *Solver) score(p identity.ID, d models.Duty, day int) int {
	st := s.states[p]
	role := d.RoleKey()
	score := 0

	remainingForRole, hasRole := st.remainingRole[role]
	if hasRole && remainingForRole > 0 {
		score += 5000
	}

	onlyRoleLeft := hasRole && remainingForRole > 0
	if onlyRoleLeft {
		for otherRole, remaining := range st.remainingRole {
			if otherRole != role && remaining > 0 {
				onlyRoleLeft = false
				break
			}
		}
		if onlyRoleLeft {
			score += 20000
		}
	}

	score += 100 * st.excusedCount

	remainingTotal := 0
	for _, v := range st.remainingType {
		remainingTotal += v
	}
	remainingAvailableDays := s.remainingAvailableDays(p, day)
	if remainingAvailableDays < 1 {
		remainingAvailableDays = 1
	}
	score += 1000 * remainingTotal / remainingAvailableDays

	if t, ok := s.in.DayTypes[day]; ok && st.person.CarryIn[t] > 0 {
		score += 3000
	}

	score -= 10 * st.yearlyTotal
	score -= 200 * st.assignedCount

	if st.lastAssignedDay < 0 {
		score += 500
	} else {
		score += 10 * (day - st.lastAssignedDay)
	}

	return score
}

func (s *Solver) remainingAvailableDays(p identity.ID, fromDay int) int {
	st := s.states[p]
	count := 0
	for day := fromDay; day <= s.in.DayCount; day++ {
		if !st.person.Excused[day] && !st.assignedDays[day] {
			count++
		}
	}
	return count
}

// bestCandidate returns the admissible candidate for duty d on day with the
// highest composite score (ties broken by person id for determinism).
func (s *Solver) bestCandidate(d models.Duty, day int) (identity.ID, bool) {
	var candidates []identity.ID
	for _, p := range s.in.Persons {
		if s.schedule[day][d.Slot] != nil {
			return 0, false
		}
		if s.admissible(p.ID, d, day) {
			candidates = append(candidates, p.ID)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := s.score(candidates[i], d, day), s.score(candidates[j], d, day)
		if si != sj {
			return si > sj
		}
		return candidates[i] < candidates[j]
	})
	return candidates[0], true
}
