// Package request turns the loosely-typed JSON documents the HTTP layer
// receives into validated domain objects from common/models.
package request

import (
	"fmt"

	"github.com/ayhanuzun/nobetci/common/calendarday"
	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/common/models"
)

// ValidationError is returned for any malformed or inconsistent request
// field; httpapi maps it to a 400 response.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PersonInput is the wire shape of a single personnel record.
type PersonInput struct {
	ID                any            `json:"id"`
	Name              string         `json:"ad"`
	ExcusedA          []int          `json:"mazeretler"`
	ExcusedB          []int          `json:"yillikIzinler"`
	ExcusedC          []int          `json:"nobetIzinleri"`
	Hici              int            `json:"hici"`
	Prs               int            `json:"prs"`
	Cum               int            `json:"cum"`
	Cmt               int            `json:"cmt"`
	Pzr               int            `json:"pzr"`
	RoleQuotas        map[string]int `json:"gorevKotalari"`
	AnnualRealized    map[string]int `json:"yillikGerceklesen"`
	CarryIn           map[string]int `json:"devir"`
	RestrictedRole    string         `json:"kisitliGorev"`
	OverflowRole      string         `json:"tasmaGorevi"`
}

// RuleInput is the wire shape of a together/separate rule. Legacy p1/p2/p3
// fields are accepted alongside the canonical `kisiler` list.
type RuleInput struct {
	Kind    string `json:"tur"`
	Members []any  `json:"kisiler"`
	P1      any    `json:"p1"`
	P2      any    `json:"p2"`
	P3      any    `json:"p3"`
}

// RoleRestrictionInput is the wire shape of a per-person role restriction.
type RoleRestrictionInput struct {
	PersonID     any    `json:"personelId"`
	RoleName     string `json:"gorevAdi"`
	Exclusive    bool   `json:"exclusive"`
	PoolIDs      []any  `json:"havuzIds"`
	OverflowRole string `json:"tasmaGorevi"`
}

// ManualAssignmentInput is the wire shape of one manual pre-assignment;
// multiple lookup paths are tried in order, first match wins.
type ManualAssignmentInput struct {
	Person     any `json:"personel"`
	PersonName any `json:"personelAd"`
	PersonID   any `json:"personelId"`
	Day        int `json:"gun"`
	DutyID     any `json:"gorevId"`
	DutyName   any `json:"gorevAdi"`
	SlotIdx    any `json:"slotIdx"`
	DutyIdx    any `json:"gorevIdx"`
}

// ParsePersons canonicalizes raw person payloads into domain Persons,
// rejecting duplicate normalized ids.
func ParsePersons(raw []PersonInput) ([]models.Person, error) {
	seen := make(map[identity.ID]bool, len(raw))
	out := make([]models.Person, 0, len(raw))
	for i, r := range raw {
		id := identity.Normalize(r.ID)
		if id == 0 && r.ID == nil {
			id = identity.Normalize(r.Name)
		}
		if seen[id] {
			return nil, &ValidationError{Field: "personeller", Message: fmt.Sprintf("duplicate normalized id at index %d", i)}
		}
		seen[id] = true

		excused := map[int]bool{}
		for _, d := range r.ExcusedA {
			excused[d] = true
		}
		for _, d := range r.ExcusedB {
			excused[d] = true
		}
		for _, d := range r.ExcusedC {
			excused[d] = true
		}

		p := models.Person{
			ID:      id,
			Name:    r.Name,
			Excused: excused,
			TargetsPerType: map[calendarday.Type]int{
				calendarday.Hici: r.Hici,
				calendarday.Prs:  r.Prs,
				calendarday.Cum:  r.Cum,
				calendarday.Cmt:  r.Cmt,
				calendarday.Pzr:  r.Pzr,
			},
			TargetPerRole:  copyIntMap(r.RoleQuotas),
			RestrictedRole: r.RestrictedRole,
			OverflowRole:   r.OverflowRole,
			AnnualRealized: stringKeysToDayType(r.AnnualRealized),
			CarryIn:        stringKeysToDayType(r.CarryIn),
		}
		for _, v := range p.TargetsPerType {
			p.TargetTotal += v
		}
		out = append(out, p)
	}
	return out, nil
}

func copyIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func stringKeysToDayType(m map[string]int) map[calendarday.Type]int {
	out := map[calendarday.Type]int{}
	for k, v := range m {
		out[calendarday.Type(k)] = v
	}
	return out
}

// ResolvePersonRef resolves a dynamic person reference (raw id or name) to a
// normalized identity.ID. Id-lookup is tried before name-lookup: a numeric
// string that happens to equal both a valid id and a person's digit-spelled
// name resolves to the id (see DESIGN.md Open Question #1).
func ResolvePersonRef(ref any, persons []models.Person) (identity.ID, bool) {
	want := identity.Normalize(ref)
	for _, p := range persons {
		if p.ID == want {
			return p.ID, true
		}
	}
	if s, ok := ref.(string); ok {
		for _, p := range persons {
			if p.Name == s {
				return p.ID, true
			}
		}
	}
	return 0, false
}

// ParseRules canonicalizes raw rule payloads, accepting either `kisiler[]`
// or the legacy `p1,p2,p3` triple. Rules with fewer than 2 resolved members
// are rejected.
func ParseRules(raw []RuleInput, persons []models.Person) ([]models.Rule, error) {
	out := make([]models.Rule, 0, len(raw))
	for i, r := range raw {
		var kind models.RuleKind
		switch r.Kind {
		case "birlikte":
			kind = models.Together
		case "ayri":
			kind = models.Separate
		default:
			return nil, &ValidationError{Field: "kurallar", Message: fmt.Sprintf("unknown rule kind %q at index %d", r.Kind, i)}
		}

		var rawMembers []any
		if len(r.Members) > 0 {
			rawMembers = r.Members
		} else {
			for _, v := range []any{r.P1, r.P2, r.P3} {
				if v != nil {
					rawMembers = append(rawMembers, v)
				}
			}
		}

		members := make([]identity.ID, 0, len(rawMembers))
		for _, m := range rawMembers {
			if id, ok := ResolvePersonRef(m, persons); ok {
				members = append(members, id)
			}
		}
		if len(members) < 2 {
			return nil, &ValidationError{Field: "kurallar", Message: fmt.Sprintf("rule at index %d has fewer than 2 resolvable members", i)}
		}
		out = append(out, models.Rule{Kind: kind, Members: members})
	}
	return out, nil
}

// ParseRoleRestrictions canonicalizes raw role-restriction payloads into a
// per-person map, tracking how many raw records were supplied vs. how many
// resolved to a valid person (SPEC_FULL.md supplemented feature #1).
func ParseRoleRestrictions(raw []RoleRestrictionInput, persons []models.Person) (map[identity.ID][]models.RoleRestriction, models.RoleExceptionDebug) {
	out := map[identity.ID][]models.RoleRestriction{}
	debug := models.RoleExceptionDebug{Raw: len(raw)}
	for _, r := range raw {
		pid, ok := ResolvePersonRef(r.PersonID, persons)
		if !ok {
			continue
		}
		pool := make([]identity.ID, 0, len(r.PoolIDs))
		for _, p := range r.PoolIDs {
			if id, ok := ResolvePersonRef(p, persons); ok {
				pool = append(pool, id)
			}
		}
		out[pid] = append(out[pid], models.RoleRestriction{
			PersonID:      pid,
			RoleName:      r.RoleName,
			Exclusive:     r.Exclusive,
			OverflowRole:  r.OverflowRole,
			PoolMemberIDs: pool,
		})
		debug.Valid++
	}
	return out, debug
}

// ParseManualAssignments resolves each manual assignment through its
// multiple lookup paths (person, then duty), first match wins; an entry whose
// person or duty reference does not resolve is skipped, not treated as a
// parse error. Skipped entries are not reported back to the caller.
func ParseManualAssignments(raw []ManualAssignmentInput, persons []models.Person, duties []models.Duty) []models.ManualAssignment {
	out := make([]models.ManualAssignment, 0, len(raw))
	for _, r := range raw {
		var personID identity.ID
		var ok bool
		for _, candidate := range []any{r.Person, r.PersonName, r.PersonID} {
			if candidate == nil {
				continue
			}
			if personID, ok = ResolvePersonRef(candidate, persons); ok {
				break
			}
		}
		if !ok {
			continue
		}

		var slot int
		var slotOK bool
		for _, candidate := range []any{r.DutyID, r.DutyName, r.SlotIdx, r.DutyIdx} {
			if candidate == nil {
				continue
			}
			if d, found := resolveDuty(candidate, duties); found {
				slot = d.Slot
				slotOK = true
				break
			}
		}
		if !slotOK {
			continue
		}

		out = append(out, models.ManualAssignment{Person: personID, Day: r.Day, Slot: slot})
	}
	return out
}

func resolveDuty(ref any, duties []models.Duty) (models.Duty, bool) {
	if idx, ok := asInt(ref); ok {
		for _, d := range duties {
			if d.Slot == idx {
				return d, true
			}
		}
	}
	want := identity.Normalize(ref)
	for _, d := range duties {
		if d.ID == want {
			return d, true
		}
	}
	if s, ok := ref.(string); ok {
		for _, d := range duties {
			if d.Name == s || d.BaseName == s {
				return d, true
			}
		}
	}
	return models.Duty{}, false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
