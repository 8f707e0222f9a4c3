// Package models holds the request-scoped domain types shared by every
// solver path: the Target Computer, the Assignment Solver, the greedy
// fallback, and the diagnostics/orchestration layer above them.
package models

import (
	"github.com/ayhanuzun/nobetci/common/calendarday"
	"github.com/ayhanuzun/nobetci/common/identity"
)

// Person is a single roster member. Its per-type/per-role target fields are
// written exactly once, by the Target Computer's write-back phase; every
// other component treats Person as read-only for the remainder of a request.
type Person struct {
	ID   identity.ID
	Name string

	// Excused is the union of the three excused-day sources on the wire
	// (mazeretler, yillikIzinler, nobetIzinleri).
	Excused map[int]bool

	RestrictedRole string // empty means unrestricted
	OverflowRole   string // secondary role a restricted person may also take

	TargetsPerType map[calendarday.Type]int
	TargetPerRole  map[string]int
	TargetTotal    int

	// AnnualRealized is last-known realized duty counts per day-type from
	// prior months, used for annual-deficit balancing.
	AnnualRealized map[calendarday.Type]int

	// CarryIn (devir) is a per-day-type deficit carried from prior months;
	// it raises greedy candidate scores for that day-type.
	CarryIn map[calendarday.Type]int

	// LockedPerType holds per-day-type counts locked by request input. No
	// component sets or reads it; locked targets reach the Target Computer
	// through its LockedTargets input instead.
	LockedPerType map[calendarday.Type]int
}

// IsRestricted reports whether p is locked to a single role (plus optional
// overflow).
func (p Person) IsRestricted() bool {
	return p.RestrictedRole != ""
}

// Duty is a single staffing slot definition within a day.
type Duty struct {
	ID    identity.ID
	Name  string
	Slot  int // 0-based, stable index within the day
	// BaseName is the role key; several slots can share one (e.g. "OR #1",
	// "OR #2" both have BaseName "OR"). Falls back to Name when empty.
	BaseName         string
	Exclusive        bool
	SeparateBuilding bool
}

// RoleKey returns BaseName, falling back to Name when BaseName is empty.
func (d Duty) RoleKey() string {
	if d.BaseName != "" {
		return d.BaseName
	}
	return d.Name
}

// RuleKind distinguishes the two Rule variants.
type RuleKind string

const (
	Together RuleKind = "together"
	Separate RuleKind = "separate"
)

// Rule is a canonicalized together/separate constraint over ≥2 persons.
type Rule struct {
	Kind    RuleKind
	Members []identity.ID
}

// RoleRestriction is a per-person, per-role admissibility record.
type RoleRestriction struct {
	PersonID       identity.ID
	RoleName       string
	Exclusive      bool
	OverflowRole   string
	PoolMemberIDs  []identity.ID // non-empty means this role is a pool role
}

// HasPool reports whether this restriction defines a pool role.
func (r RoleRestriction) HasPool() bool {
	return len(r.PoolMemberIDs) > 0
}

// Targets is the full per-person target table produced by the Target
// Computer. It is returned as a fresh value rather than mutating Person in
// place, even though the write-back phase copies it onto Person afterward.
type Targets struct {
	PerType map[identity.ID]map[calendarday.Type]int
	PerRole map[identity.ID]map[string]int
	Total   map[identity.ID]int
}

// Assignment is a single (day, slot, person) triple in a produced schedule.
type Assignment struct {
	Day    int
	Slot   int
	Person identity.ID
}

// ManualAssignment is a caller-supplied Assignment that must be hard-pinned
// (x[p,d,s] = 1) unless the pre-model diagnostics reject it.
type ManualAssignment struct {
	Person identity.ID
	Day    int
	Slot   int
}

// SolveStatus normalizes every underlying CP-SAT/greedy outcome into one of
// a fixed set of values reported to callers.
type SolveStatus string

const (
	StatusOptimal      SolveStatus = "OPTIMAL"
	StatusFeasible     SolveStatus = "FEASIBLE"
	StatusInfeasible   SolveStatus = "INFEASIBLE"
	StatusModelInvalid SolveStatus = "MODEL_INVALID"
	StatusUnknown      SolveStatus = "UNKNOWN"
	StatusManualConflict SolveStatus = "MANUAL_CONFLICT"
)

// QualityScore holds the five post-solve quality metrics (spec §8).
type QualityScore struct {
	BalanceScore   float64 // denge_puani
	HourFairness   float64 // saat_adaleti
	Homogeneity    float64 // homojenlik
	Occupancy      float64 // doluluk
	RuleCompliance float64 // kural_uyumu
}

// RoleExceptionDebug tracks how many raw role-restriction-exception records
// were supplied vs. how many were valid.
type RoleExceptionDebug struct {
	Raw   int
	Valid int
}

// ManualConflict is one structured conflict produced by the pre-model manual
// pin scan.
type ManualConflict struct {
	Code    string
	Message string
	Person  identity.ID
	Day     int
	Slot    int
}

// RelaxationAction is one ranked candidate relaxation produced by the
// diagnostics analyzer.
type RelaxationAction struct {
	Name  string
	Score float64
}

// FeasibilityDebug summarizes the post-infeasibility feasibility report.
type FeasibilityDebug struct {
	ZeroCandidateSlots int
	ZeroCandidatePreview []ZeroCandidateSlot
	RoleCapacity       map[string]RoleCapacity
}

// ZeroCandidateSlot names a (day, slot) pair with no admissible candidate.
type ZeroCandidateSlot struct {
	Day  int
	Slot int
}

// RoleCapacity reports a role's demand against its gap-bounded upper bound.
type RoleCapacity struct {
	Demand     int
	UpperBound int
	Exceeded   bool
}

// RelaxationInfo records which relaxations were applied to reach a solution.
type RelaxationInfo struct {
	GapReducedTo       *int
	ExclusiveRelaxed   bool
	SeparateRulesRemoved bool
	TogetherRulesRemoved bool
	AllSoftRemoved     bool
	UsedGreedy         bool
	RootCause          string
}

// DiagnosticsReport bundles every diagnostic artifact a failed or relaxed
// solve can surface to a caller.
type DiagnosticsReport struct {
	Status            SolveStatus
	ManualConflicts   []ManualConflict
	Feasibility       *FeasibilityDebug
	RankedRelaxations []RelaxationAction
	Relaxation        RelaxationInfo
	RoleExceptionDebug RoleExceptionDebug
	ReasonHint        string
	GapReduceMayHelp  bool
	Notes             []string
}

// SolveResult is the top-level output of any solve path (CP-SAT, greedy, or
// the orchestrator wrapping both).
type SolveResult struct {
	Success     bool
	Status      SolveStatus
	Assignments []Assignment
	Schedule    map[int][]*identity.ID // day -> slotCount-length, nil = empty
	Quality     QualityScore
	Diagnostics DiagnosticsReport
	Targets     Targets
	Degraded    bool // true when produced by the greedy fallback path
	Message     string
}
