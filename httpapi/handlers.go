package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ayhanuzun/nobetci/applog"
	"github.com/ayhanuzun/nobetci/common/calendarday"
	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/common/models"
	"github.com/ayhanuzun/nobetci/common/request"
	"github.com/ayhanuzun/nobetci/core/greedy"
	"github.com/ayhanuzun/nobetci/core/orchestrator"
	"github.com/ayhanuzun/nobetci/core/targetsolver"
	"github.com/ayhanuzun/nobetci/integrations/workbook"
)

// DutyInput is the wire shape of a duty/slot definition (`gorevTanimlari`).
type DutyInput struct {
	ID               any    `json:"id"`
	Name             string `json:"ad"`
	SlotIdx          int    `json:"slotIdx"`
	BaseName         string `json:"baseName"`
	Exclusive        bool   `json:"exclusive"`
	SeparateBuilding bool   `json:"ayriBina"`
}

// HolidayInput is the wire shape of one holiday override (`resmiTatiller`).
type HolidayInput struct {
	Day  int    `json:"gun"`
	Type string `json:"tur"`
}

// BaseRequest is the common payload shared across all four endpoints.
type BaseRequest struct {
	Year               int                             `json:"yil"`
	Month              int                              `json:"ay"`
	SlotCount          int                              `json:"gunlukSayi"`
	Gap                int                              `json:"araGun"`
	Rules              []request.RuleInput              `json:"kurallar"`
	RoleRestrictions   []request.RoleRestrictionInput    `json:"gorevKisitlamalari"`
	Duties             []DutyInput                       `json:"gorevTanimlari"`
	Holidays           []HolidayInput                    `json:"resmiTatiller"`
	Persons            []request.PersonInput             `json:"personeller"`
	ManualAssignments  []request.ManualAssignmentInput    `json:"manuelAtamalar"`
}

// TargetRequest additionally carries locked per-person per-type targets.
type TargetRequest struct {
	BaseRequest
	LockedTargets map[string]map[string]int `json:"kilitliHedefler"`
}

func toDuties(raw []DutyInput) []models.Duty {
	out := make([]models.Duty, 0, len(raw))
	for _, d := range raw {
		out = append(out, models.Duty{
			ID:               identity.Normalize(d.ID),
			Name:             d.Name,
			Slot:             d.SlotIdx,
			BaseName:         d.BaseName,
			Exclusive:        d.Exclusive,
			SeparateBuilding: d.SeparateBuilding,
		})
	}
	return out
}

func toHolidays(raw []HolidayInput) map[int]calendarday.Holiday {
	out := make(map[int]calendarday.Holiday, len(raw))
	for _, h := range raw {
		out[h.Day] = calendarday.Holiday{Day: h.Day, Type: calendarday.Type(h.Type)}
	}
	return out
}

func buildCommon(b BaseRequest) (persons []models.Person, duties []models.Duty, dayTypes map[int]calendarday.Type, manual []models.ManualAssignment, err *APIError) {
	persons, perr := request.ParsePersons(b.Persons)
	if perr != nil {
		return nil, nil, nil, nil, newValidationError(perr.Error(), nil)
	}
	duties = toDuties(b.Duties)
	dayTypes = calendarday.BuildMonth(b.Year, b.Month, toHolidays(b.Holidays))
	manual = request.ParseManualAssignments(b.ManualAssignments, persons, duties)
	return persons, duties, dayTypes, manual, nil
}

func (s *Server) handleDistribute(w http.ResponseWriter, r *http.Request) {
	log := applog.WithEndpoint(s.Log, "distribute").With("request_id", requestIDFromContext(r.Context()))
	log.Infow("request start")

	var req BaseRequest
	if aerr := decodeBody(r, &req); aerr != nil {
		writeError(w, s.Log, "distribute", aerr)
		return
	}

	persons, duties, dayTypes, manual, aerr := buildCommon(req)
	if aerr != nil {
		writeError(w, s.Log, "distribute", aerr)
		return
	}
	rules, rerr := request.ParseRules(req.Rules, persons)
	if rerr != nil {
		writeError(w, s.Log, "distribute", newValidationError(rerr.Error(), nil))
		return
	}

	result := greedy.Run(greedy.Input{
		DayCount:      calendarday.DayCount(req.Year, req.Month),
		DayTypes:      dayTypes,
		Duties:        duties,
		Persons:       persons,
		TogetherRules: filterRules(rules, models.Together),
		SeparateRules: filterRules(rules, models.Separate),
		Manual:        manual,
		Gap:           req.Gap,
	})
	log.Infow("request end", "success", result.Success, "status", result.Status)

	excelURL := s.renderAndUpload(req.Year, req.Month, dayTypes, duties, persons, result)

	writeJSON(w, map[string]any{
		"basari":   result.Success,
		"excelUrl": excelURL,
		"cizelge":  scheduleToWire(result.Schedule, persons),
		"gorevler": req.Duties,
	})
}

func (s *Server) handleCapacity(w http.ResponseWriter, r *http.Request) {
	log := applog.WithEndpoint(s.Log, "capacity").With("request_id", requestIDFromContext(r.Context()))
	log.Infow("request start")

	var req BaseRequest
	if aerr := decodeBody(r, &req); aerr != nil {
		writeError(w, s.Log, "capacity", aerr)
		return
	}
	persons, _, dayTypes, _, aerr := buildCommon(req)
	if aerr != nil {
		writeError(w, s.Log, "capacity", aerr)
		return
	}

	available := map[string]map[string]int{}
	for _, p := range persons {
		perType := map[string]int{}
		for _, t := range calendarday.All {
			perType[string(t)] = 0
		}
		for day, t := range dayTypes {
			if !p.Excused[day] {
				perType[string(t)]++
			}
		}
		available[fmt.Sprint(p.ID)] = perType
	}

	typeCounts := calendarday.CountsByType(dayTypes)
	globalSlots := map[string]int{}
	for _, t := range calendarday.All {
		globalSlots[string(t)] = typeCounts[t] * req.SlotCount
	}

	log.Infow("request end", "persons", len(persons))
	writeJSON(w, map[string]any{
		"kullanilabilirGunler": available,
		"globalSlotlar":        globalSlots,
	})
}

func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	log := applog.WithEndpoint(s.Log, "target").With("request_id", requestIDFromContext(r.Context()))
	log.Infow("request start")

	var req TargetRequest
	if aerr := decodeBody(r, &req); aerr != nil {
		writeError(w, s.Log, "target", aerr)
		return
	}
	persons, _, dayTypes, manual, aerr := buildCommon(req.BaseRequest)
	if aerr != nil {
		writeError(w, s.Log, "target", aerr)
		return
	}
	rules, rerr := request.ParseRules(req.Rules, persons)
	if rerr != nil {
		writeError(w, s.Log, "target", newValidationError(rerr.Error(), nil))
		return
	}

	locked := map[identity.ID]map[calendarday.Type]int{}
	for rawID, perType := range req.LockedTargets {
		id, ok := request.ResolvePersonRef(rawID, persons)
		if !ok {
			continue
		}
		m := map[calendarday.Type]int{}
		for t, v := range perType {
			m[calendarday.Type(t)] = v
		}
		locked[id] = m
	}

	result, err := targetsolver.Solve(targetsolver.Input{
		DayCount:      calendarday.DayCount(req.Year, req.Month),
		DayTypes:      dayTypes,
		SlotCount:     req.SlotCount,
		Persons:       persons,
		TogetherRules: filterRules(rules, models.Together),
		ManualSeeds:   manual,
		Gap:           req.Gap,
		LockedTargets: locked,
	})
	if err != nil {
		writeError(w, s.Log, "target", newInternalError(err.Error(), nil))
		return
	}
	log.Infow("request end", "success", result.Success)
	if !result.Success {
		writeJSON(w, map[string]any{"basari": false, "mesaj": result.Message})
		return
	}

	writeJSON(w, map[string]any{
		"basari":  true,
		"hedefler": targetsToWire(result.Targets),
	})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	log := applog.WithEndpoint(s.Log, "solve").With("request_id", requestIDFromContext(r.Context()))
	log.Infow("request start")

	var req BaseRequest
	if aerr := decodeBody(r, &req); aerr != nil {
		writeError(w, s.Log, "solve", aerr)
		return
	}
	persons, duties, dayTypes, manual, aerr := buildCommon(req)
	if aerr != nil {
		writeError(w, s.Log, "solve", aerr)
		return
	}
	rules, rerr := request.ParseRules(req.Rules, persons)
	if rerr != nil {
		writeError(w, s.Log, "solve", newValidationError(rerr.Error(), nil))
		return
	}
	restrictions, roleDebug := request.ParseRoleRestrictions(req.RoleRestrictions, persons)

	result := orchestrator.Run(orchestrator.Input{
		DayCount:      calendarday.DayCount(req.Year, req.Month),
		DayTypes:      dayTypes,
		SlotCount:     req.SlotCount,
		Duties:        duties,
		Persons:       persons,
		TogetherRules: filterRules(rules, models.Together),
		SeparateRules: filterRules(rules, models.Separate),
		Restrictions:  restrictions,
		Manual:        manual,
		Gap:           req.Gap,
		MaxSeconds:    s.Config.MaxSolveSeconds,
	})
	result.Diagnostics.RoleExceptionDebug = roleDebug
	log.Infow("request end", "success", result.Success, "status", result.Status, "degraded", result.Degraded)

	if !result.Success {
		writeJSON(w, map[string]any{
			"basari": false,
			"mesaj":  result.Message,
			"istatistikler": map[string]any{
				"status":           result.Status,
				"manual_conflicts": result.Diagnostics.ManualConflicts,
				"feasibility_debug": result.Diagnostics.Feasibility,
				"teshis":           result.Diagnostics.RankedRelaxations,
			},
		})
		return
	}

	excelURL := s.renderAndUpload(req.Year, req.Month, dayTypes, duties, persons, result)

	writeJSON(w, map[string]any{
		"basari":   true,
		"excelUrl": excelURL,
		"cizelge":  scheduleToWire(result.Schedule, persons),
		"atamalar": result.Assignments,
		"istatistikler": map[string]any{
			"kalite_skoru":      result.Quality,
			"feasibility_debug": result.Diagnostics.Feasibility,
			"teshis":            result.Diagnostics.RankedRelaxations,
			"gevsetme_bilgisi":  result.Diagnostics.Relaxation,
			"tani_mesajlari":    result.Diagnostics.Notes,
			"status":            result.Status,
		},
		"kaliteUyarilari": qualityWarnings(result.Quality),
		"hedefDebug":      targetDebugRows(result.Targets, persons, result.Assignments),
	})
}

// qualityWarnings derives human-readable warnings from quality score
// thresholds (spec §6 `kaliteUyarilari`): each metric crossing a
// conservative threshold gets one message.
func qualityWarnings(q models.QualityScore) []string {
	var warnings []string
	if q.BalanceScore > 30 {
		warnings = append(warnings, "duty counts are unevenly balanced across personnel")
	}
	if q.HourFairness > 30 {
		warnings = append(warnings, "duty hours are unevenly balanced across personnel")
	}
	if q.Occupancy < 100 {
		warnings = append(warnings, "some slots could not be filled")
	}
	if q.RuleCompliance < 70 {
		warnings = append(warnings, "realized duties deviate significantly from targets")
	}
	return warnings
}

// targetDebugRow is one person's target-vs-realized row (`hedefDebug`).
type targetDebugRow struct {
	PersonID identity.ID `json:"personelId"`
	Target   int         `json:"hedef"`
	Realized int         `json:"gerceklesen"`
}

func targetDebugRows(targets models.Targets, persons []models.Person, assignments []models.Assignment) []targetDebugRow {
	realized := map[identity.ID]int{}
	for _, a := range assignments {
		realized[a.Person]++
	}
	rows := make([]targetDebugRow, 0, len(persons))
	for _, p := range persons {
		rows = append(rows, targetDebugRow{
			PersonID: p.ID,
			Target:   targets.Total[p.ID],
			Realized: realized[p.ID],
		})
	}
	return rows
}

func filterRules(rules []models.Rule, kind models.RuleKind) []models.Rule {
	var out []models.Rule
	for _, r := range rules {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func scheduleToWire(schedule map[int][]*identity.ID, persons []models.Person) map[string][]*string {
	nameByID := map[identity.ID]string{}
	for _, p := range persons {
		nameByID[p.ID] = p.Name
	}
	out := make(map[string][]*string, len(schedule))
	for day, slots := range schedule {
		row := make([]*string, len(slots))
		for i, id := range slots {
			if id == nil {
				continue
			}
			name := nameByID[*id]
			row[i] = &name
		}
		out[fmt.Sprint(day)] = row
	}
	return out
}

func targetsToWire(t models.Targets) map[string]any {
	out := make(map[string]any, len(t.Total))
	for id, total := range t.Total {
		out[fmt.Sprint(id)] = map[string]any{
			"perType": t.PerType[id],
			"perRole": t.PerRole[id],
			"total":   total,
		}
	}
	return out
}

func (s *Server) renderAndUpload(year, month int, dayTypes map[int]calendarday.Type, duties []models.Duty, persons []models.Person, result models.SolveResult) string {
	nameByID := map[identity.ID]string{}
	realized := map[identity.ID]int{}
	for _, p := range persons {
		nameByID[p.ID] = p.Name
	}
	for _, a := range result.Assignments {
		realized[a.Person]++
	}

	f, err := (workbook.ExcelizeRenderer{}).Render(year, month, workbook.RenderInput{
		DayTypes: dayTypes,
		DayCount: calendarday.DayCount(year, month),
		Duties:   duties,
		Persons:  persons,
		Schedule: result.Schedule,
		NameByID: nameByID,
		Realized: realized,
	})
	if err != nil {
		s.Log.Errorw("failed to render workbook", "error", err)
		return ""
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.Log.Errorw("failed to serialize workbook", "error", err)
		return ""
	}

	key := fmt.Sprintf("sonuclar/nobet_%d_%d_%d.xlsx", year, month, time.Now().Unix())
	url, err := s.Uploader.Upload(context.Background(), key, buf.Bytes())
	if err != nil {
		s.Log.Errorw("failed to upload workbook", "error", err)
		return ""
	}
	return url
}
