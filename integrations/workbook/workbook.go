// Package workbook renders a solved schedule into the fixed two-sheet xlsx
// layout: a daily schedule sheet with weekend-colored rows, and a
// personnel-statistics sheet.
package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ayhanuzun/nobetci/common/calendarday"
	"github.com/ayhanuzun/nobetci/common/identity"
	"github.com/ayhanuzun/nobetci/common/models"
)

const (
	scheduleSheet  = "Nöbet Listesi"
	statisticsSheet = "İstatistik"
)

// Renderer produces an xlsx workbook from a solved schedule.
type Renderer interface {
	Render(year, month int, result RenderInput) (*excelize.File, error)
}

// RenderInput bundles everything the two sheets need.
type RenderInput struct {
	DayTypes   map[int]calendarday.Type
	DayCount   int
	Duties     []models.Duty
	Persons    []models.Person
	Schedule   map[int][]*identity.ID
	NameByID   map[identity.ID]string
	Realized   map[identity.ID]int
}

// ExcelizeRenderer is the production Renderer, grounded on the Go xlsx
// export idiom used across the pack (slot-header row, weekend fill color,
// per-person statistics rows).
type ExcelizeRenderer struct{}

// Render builds the workbook in memory; callers are responsible for saving
// or uploading the returned file.
func (ExcelizeRenderer) Render(year, month int, in RenderInput) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", scheduleSheet); err != nil {
		return nil, fmt.Errorf("failed to rename default sheet: %w", err)
	}
	if _, err := f.NewSheet(statisticsSheet); err != nil {
		return nil, fmt.Errorf("failed to create statistics sheet: %w", err)
	}

	weekendStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFE699"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create weekend style: %w", err)
	}

	if err := writeScheduleSheet(f, year, month, in, weekendStyle); err != nil {
		return nil, err
	}
	if err := writeStatisticsSheet(f, in); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeScheduleSheet(f *excelize.File, year, month int, in RenderInput, weekendStyle int) error {
	f.SetCellValue(scheduleSheet, "A1", "Tarih")
	f.SetCellValue(scheduleSheet, "B1", "Gün")
	for i, d := range in.Duties {
		col, _ := excelize.ColumnNumberToName(3 + i)
		f.SetCellValue(scheduleSheet, col+"1", d.Name)
	}

	for day := 1; day <= in.DayCount; day++ {
		row := day + 1
		f.SetCellValue(scheduleSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%04d-%02d-%02d", year, month, day))
		t := in.DayTypes[day]
		f.SetCellValue(scheduleSheet, fmt.Sprintf("B%d", row), string(t))

		for i, d := range in.Duties {
			col, _ := excelize.ColumnNumberToName(3 + i)
			cell := fmt.Sprintf("%s%d", col, row)
			slots := in.Schedule[day]
			var name string
			if d.Slot < len(slots) && slots[d.Slot] != nil {
				name = in.NameByID[*slots[d.Slot]]
			}
			f.SetCellValue(scheduleSheet, cell, name)
		}

		if calendarday.IsWeekend(t) {
			lastCol, _ := excelize.ColumnNumberToName(2 + len(in.Duties))
			if err := f.SetCellStyle(scheduleSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), weekendStyle); err != nil {
				return fmt.Errorf("failed to apply weekend style on row %d: %w", row, err)
			}
		}
	}
	return nil
}

func writeStatisticsSheet(f *excelize.File, in RenderInput) error {
	headers := []string{"Personel", "Hedef", "Gerçekleşen", "Fark", "Kalan H.İçi", "Kalan Pzr", "Mazeret Gün"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(statisticsSheet, col+"1", h)
	}

	for i, p := range in.Persons {
		row := i + 2
		realized := in.Realized[p.ID]
		target := p.TargetTotal
		f.SetCellValue(statisticsSheet, fmt.Sprintf("A%d", row), p.Name)
		f.SetCellValue(statisticsSheet, fmt.Sprintf("B%d", row), target)
		f.SetCellValue(statisticsSheet, fmt.Sprintf("C%d", row), realized)
		f.SetCellValue(statisticsSheet, fmt.Sprintf("D%d", row), target-realized)
		f.SetCellValue(statisticsSheet, fmt.Sprintf("E%d", row), max0(p.TargetsPerType[calendarday.Hici]-realizedByType(in, p.ID, calendarday.Hici)))
		f.SetCellValue(statisticsSheet, fmt.Sprintf("F%d", row), max0(p.TargetsPerType[calendarday.Pzr]-realizedByType(in, p.ID, calendarday.Pzr)))
		f.SetCellValue(statisticsSheet, fmt.Sprintf("G%d", row), len(p.Excused))
	}
	return nil
}

func realizedByType(in RenderInput, person identity.ID, t calendarday.Type) int {
	count := 0
	for day, slots := range in.Schedule {
		if in.DayTypes[day] != t {
			continue
		}
		for _, id := range slots {
			if id != nil && *id == person {
				count++
			}
		}
	}
	return count
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
