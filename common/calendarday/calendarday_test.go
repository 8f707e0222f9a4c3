package calendarday_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayhanuzun/nobetci/common/calendarday"
)

func TestClassifyWeekdayMapping(t *testing.T) {
	// 2026-07 is used as a known reference month: 2026-07-01 is a Wednesday.
	assert.Equal(t, calendarday.Hici, calendarday.Classify(2026, 7, 1, nil)) // Wed
	assert.Equal(t, calendarday.Prs, calendarday.Classify(2026, 7, 2, nil))  // Thu
	assert.Equal(t, calendarday.Cum, calendarday.Classify(2026, 7, 3, nil))  // Fri
	assert.Equal(t, calendarday.Cmt, calendarday.Classify(2026, 7, 4, nil))  // Sat
	assert.Equal(t, calendarday.Pzr, calendarday.Classify(2026, 7, 5, nil))  // Sun
	assert.Equal(t, calendarday.Hici, calendarday.Classify(2026, 7, 6, nil)) // Mon
}

func TestClassifyHolidayOverride(t *testing.T) {
	holidays := map[int]calendarday.Holiday{1: {Day: 1, Type: calendarday.Pzr}}
	assert.Equal(t, calendarday.Pzr, calendarday.Classify(2026, 7, 1, holidays))
}

func TestClassifyInvalidHolidayTypeFallsThroughToWeekday(t *testing.T) {
	holidays := map[int]calendarday.Holiday{1: {Day: 1, Type: "not-a-type"}}
	assert.Equal(t, calendarday.Hici, calendarday.Classify(2026, 7, 1, holidays))
}

func TestDayCount(t *testing.T) {
	require.Equal(t, 31, calendarday.DayCount(2026, 7))
	require.Equal(t, 28, calendarday.DayCount(2026, 2))
	require.Equal(t, 29, calendarday.DayCount(2024, 2)) // leap year
}

func TestBuildMonthAndCountsByType(t *testing.T) {
	dayTypes := calendarday.BuildMonth(2026, 7, nil)
	require.Len(t, dayTypes, 31)

	counts := calendarday.CountsByType(dayTypes)
	sum := 0
	for _, n := range counts {
		sum += n
	}
	assert.Equal(t, 31, sum)
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, calendarday.IsWeekend(calendarday.Cum))
	assert.True(t, calendarday.IsWeekend(calendarday.Cmt))
	assert.True(t, calendarday.IsWeekend(calendarday.Pzr))
	assert.False(t, calendarday.IsWeekend(calendarday.Hici))
	assert.False(t, calendarday.IsWeekend(calendarday.Prs))
}
