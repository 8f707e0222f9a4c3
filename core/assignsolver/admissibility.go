package assignsolver

import (
	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/common/models"
)

// Exceptions bundles the per-(person,day) exception sets that unlock
// otherwise-forbidden slots (spec §4.3 admissibility test).
type Exceptions struct {
	// RoleException[personID][day] holds role names p may take that day
	// despite a restriction that would otherwise forbid it.
	RoleException map[identity.ID]map[int]map[string]bool
	// TogetherException[personID][day] allows a together-group member onto
	// a separate-building slot on that day.
	TogetherException map[identity.ID]map[int]bool
}

func (e Exceptions) roleAllowed(p identity.ID, day int, role string) bool {
	if e.RoleException == nil {
		return false
	}
	days, ok := e.RoleException[p]
	if !ok {
		return false
	}
	return days[day][role]
}

func (e Exceptions) togetherAllowed(p identity.ID, day int) bool {
	if e.TogetherException == nil {
		return false
	}
	return e.TogetherException[p][day]
}

// roleContext resolves the pieces of per-role state the admissibility test
// needs, precomputed once per Input.
type roleContext struct {
	restrictions map[identity.ID][]models.RoleRestriction // by person
	poolByRole   map[string][]identity.ID
	exclusiveNoPoolByRole map[string]bool
	restrictedByRole      map[string][]identity.ID // persons restricted/overflow to this role
	hasPositiveTarget     func(p identity.ID, role string) bool
	togetherMembers       map[identity.ID]bool
}

// Admissible runs the four-part test from spec §4.3 §4.3 for (p, role, day).
func Admissible(p models.Person, role string, day int, duty models.Duty, ctx roleContext, ex Exceptions) bool {
	// 1. restrictedRole mismatch.
	if p.RestrictedRole != "" && role != p.RestrictedRole && role != p.OverflowRole {
		if !ex.roleAllowed(p.ID, day, role) {
			return false
		}
	}
	// 2. exclusive-without-pool.
	if ctx.exclusiveNoPoolByRole[role] {
		if p.RestrictedRole != role && p.OverflowRole != role && !ctx.hasPositiveTarget(p.ID, role) {
			return false
		}
	}
	// 3. pool role.
	if pool, ok := ctx.poolByRole[role]; ok && len(pool) > 0 {
		inPool := false
		for _, id := range pool {
			if id == p.ID {
				inPool = true
				break
			}
		}
		isRestrictedOrOverflow := p.RestrictedRole == role || p.OverflowRole == role
		if !inPool && !isRestrictedOrOverflow && !ctx.hasPositiveTarget(p.ID, role) {
			return false
		}
	}
	// 4. separate-building x together-member.
	if duty.SeparateBuilding && ctx.togetherMembers[p.ID] {
		if !ex.togetherAllowed(p.ID, day) {
			return false
		}
	}
	return true
}

// BuildRoleContext precomputes the per-role lookup tables Admissible needs.
// Exported so callers outside this package (the orchestrator's feasibility
// pre-check) can run the same admissibility test without duplicating it.
func BuildRoleContext(persons []models.Person, duties []models.Duty, restrictions map[identity.ID][]models.RoleRestriction, togetherRules []models.Rule) roleContext {
	ctx := roleContext{
		restrictions:          restrictions,
		poolByRole:            map[string][]identity.ID{},
		exclusiveNoPoolByRole:  map[string]bool{},
		restrictedByRole:       map[string][]identity.ID{},
		togetherMembers:        map[identity.ID]bool{},
	}
	for _, list := range restrictions {
		for _, r := range list {
			if r.HasPool() {
				ctx.poolByRole[r.RoleName] = append(ctx.poolByRole[r.RoleName], r.PoolMemberIDs...)
			} else if r.Exclusive {
				ctx.exclusiveNoPoolByRole[r.RoleName] = true
			}
		}
	}
	for _, p := range persons {
		if p.RestrictedRole != "" {
			ctx.restrictedByRole[p.RestrictedRole] = append(ctx.restrictedByRole[p.RestrictedRole], p.ID)
			if p.OverflowRole != "" {
				ctx.restrictedByRole[p.OverflowRole] = append(ctx.restrictedByRole[p.OverflowRole], p.ID)
			}
		}
	}
	for _, rule := range togetherRules {
		if rule.Kind != models.Together {
			continue
		}
		for _, m := range rule.Members {
			ctx.togetherMembers[m] = true
		}
	}
	ctx.hasPositiveTarget = func(p identity.ID, role string) bool {
		for _, person := range persons {
			if person.ID == p {
				return person.TargetPerRole[role] > 0
			}
		}
		return false
	}
	return ctx
}
