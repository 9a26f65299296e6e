package recurrence

import (
	"fmt"
	"time"

	"github.com/hray3182/lifeledger/internal/models"
)

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay returns day of the given month, clamped to the month's last day.
// Month values outside 1..12 roll over into adjacent years.
func ClampDay(year int, month time.Month, day int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	year, month = first.Year(), first.Month()
	if last := DaysIn(year, month); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NextDate returns the next due date strictly after ref.
//
// For monthly and yearly steps dueDay is the target day-of-month; zero means
// ref's own day. The clamp is recomputed on every call so a rule targeting
// the 31st returns to the 31st after a shorter month. The result is a UTC
// calendar date.
func NextDate(ref time.Time, freq models.Frequency, dueDay int) (time.Time, error) {
	ref = models.Date(ref)
	if dueDay == 0 {
		dueDay = ref.Day()
	}

	switch freq {
	case models.FrequencyDaily:
		return ref.AddDate(0, 0, 1), nil
	case models.FrequencyWeekly:
		return ref.AddDate(0, 0, 7), nil
	case models.FrequencyMonthly:
		return ClampDay(ref.Year(), ref.Month()+1, dueDay), nil
	case models.FrequencyYearly:
		return ClampDay(ref.Year()+1, ref.Month(), dueDay), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown frequency %q", models.ErrInvalidRule, freq)
	}
}

// AnchorDay is the day-of-month a rule's monthly or yearly steps aim for.
func AnchorDay(rule *models.RecurrenceRule) int {
	switch rule.Frequency {
	case models.FrequencyMonthly:
		if rule.DueDay != nil {
			return *rule.DueDay
		}
		return rule.StartDate.Day()
	case models.FrequencyYearly:
		return rule.StartDate.Day()
	}
	return 0
}

// FirstDue is the first candidate of a rule that has never generated.
// Monthly rules align to the due day, moving to the following month when the
// start date is already past it.
func FirstDue(rule *models.RecurrenceRule) time.Time {
	start := models.Date(rule.StartDate)
	if rule.Frequency != models.FrequencyMonthly || rule.DueDay == nil {
		return start
	}
	dueDay := *rule.DueDay
	if start.Day() > dueDay {
		return ClampDay(start.Year(), start.Month()+1, dueDay)
	}
	return ClampDay(start.Year(), start.Month(), dueDay)
}
