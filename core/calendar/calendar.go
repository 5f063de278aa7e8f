// Package calendar builds month grids and moves a reference date month by month.
package calendar

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

var daysOfWeek = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

type (
	// Cell is one slot of a month grid. Leading blanks have no Date.
	Cell struct {
		Date string
		Day  int
	}

	// View holds the reference date a calendar page is showing.
	View struct {
		current time.Time
	}
)

// Blank reports whether c pads the first week.
func (c Cell) Blank() bool {
	return c.Date == ""
}

// FormatDate returns the ISO `YYYY-MM-DD` key of the given day.
func FormatDate(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// DaysIn returns the number of days of month in year.
func DaysIn(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthGrid lists one blank cell per weekday before the 1st (Sunday first), then one cell per day.
func MonthGrid(year int, month time.Month) []Cell {
	offset := int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
	days := DaysIn(year, month)

	cells := make([]Cell, 0, offset+days)
	for i := 0; i < offset; i++ {
		cells = append(cells, Cell{})
	}
	for d := 1; d <= days; d++ {
		cells = append(cells, Cell{Date: FormatDate(year, month, d), Day: d})
	}
	return cells
}

func NewView(t time.Time) View {
	return View{current: t}
}

func (v View) Current() time.Time { return v.current }
func (v View) Date() int          { return v.current.Day() }
func (v View) Month() time.Month  { return v.current.Month() }
func (v View) Year() int          { return v.current.Year() }
func (v View) MonthName() string  { return v.current.Month().String() }

func (v View) DaysOfWeek() []string {
	out := make([]string, len(daysOfWeek))
	copy(out, daysOfWeek)
	return out
}

func (v View) CurrentMonthDays() []Cell {
	return MonthGrid(v.Year(), v.Month())
}

func (v View) PrevMonth() View {
	return View{current: addMonths(v.current, -1)}
}

func (v View) NextMonth() View {
	return View{current: addMonths(v.current, 1)}
}

// addMonths moves t by n months, clamping the day to the target month's length
// so that Jan 31 + 1 lands on the last day of February rather than in March.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := DaysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}
