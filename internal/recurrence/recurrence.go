// Package recurrence computes the next occurrence of repeating tasks.
//
// All arithmetic is done on civil dates, so time zones and daylight-saving
// transitions never shift the result.
package recurrence

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/Jayphen/todone/internal/types"
)

// Next returns the due date that follows current under pattern.
// Unknown patterns return current unchanged.
func Next(current civil.Date, pattern types.RecurrencePattern) civil.Date {
	switch pattern {
	case types.RecurDaily:
		return current.AddDays(1)
	case types.RecurWeekdays:
		next := current.AddDays(1)
		switch weekday(next) {
		case time.Saturday:
			return next.AddDays(2)
		case time.Sunday:
			return next.AddDays(1)
		}
		return next
	case types.RecurWeekly:
		return current.AddDays(7)
	case types.RecurMonthly:
		return addMonths(current, 1)
	case types.RecurYearly:
		return addMonths(current, 12)
	default:
		return current
	}
}

// Humanize returns the display text of a pattern.
func Humanize(pattern types.RecurrencePattern) string {
	switch pattern {
	case types.RecurDaily:
		return "Every day"
	case types.RecurWeekdays:
		return "Every weekday"
	case types.RecurWeekly:
		return "Every week"
	case types.RecurMonthly:
		return "Every month"
	case types.RecurYearly:
		return "Every year"
	default:
		return string(pattern)
	}
}

// ParsePattern parses user input such as "Weekly" or "every weekday".
func ParsePattern(s string) (types.RecurrencePattern, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "every day", "day":
		s = string(types.RecurDaily)
	case "every weekday", "weekday":
		s = string(types.RecurWeekdays)
	case "every week", "week":
		s = string(types.RecurWeekly)
	case "every month", "month":
		s = string(types.RecurMonthly)
	case "every year", "year", "annually":
		s = string(types.RecurYearly)
	}
	p := types.RecurrencePattern(s)
	return p, p.Valid()
}

func weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

// addMonths clamps the day to the length of the target month.
func addMonths(d civil.Date, n int) civil.Date {
	total := int(d.Month) - 1 + n
	year := d.Year + total/12
	month := total % 12
	if month < 0 {
		month += 12
		year--
	}
	m := time.Month(month + 1)
	day := d.Day
	if last := daysIn(year, m); day > last {
		day = last
	}
	return civil.Date{Year: year, Month: m, Day: day}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
