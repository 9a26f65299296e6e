package rrule

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/hray3182/lifeledger/internal/models"
	"github.com/hray3182/lifeledger/internal/recurrence"
)

// Builder creates an RRULE from components
type Builder struct {
	Freq       rrule.Frequency
	ByMonthDay []int
	ByMonth    []int
	BySetPos   []int
	Count      int
	Until      *time.Time
}

var freqMap = map[models.Frequency]rrule.Frequency{
	models.FrequencyDaily:   rrule.DAILY,
	models.FrequencyWeekly:  rrule.WEEKLY,
	models.FrequencyMonthly: rrule.MONTHLY,
	models.FrequencyYearly:  rrule.YEARLY,
}

// ForRule translates a recurrence rule into RRULE components.
//
// A day-of-month past the 28th is expressed as "the last of days 28..N" so
// that short months clamp instead of being skipped.
func ForRule(rule *models.RecurrenceRule) (*Builder, error) {
	freq, ok := freqMap[rule.Frequency]
	if !ok {
		return nil, fmt.Errorf("%w: unknown frequency %q", models.ErrInvalidRule, rule.Frequency)
	}
	b := &Builder{Freq: freq, Until: rule.EndDate}
	if rule.MaxOccurrences != nil {
		b.Count = *rule.MaxOccurrences
	}

	switch rule.Frequency {
	case models.FrequencyMonthly:
		b.ByMonthDay, b.BySetPos = clampedDays(recurrence.AnchorDay(rule))
	case models.FrequencyYearly:
		b.ByMonth = []int{int(rule.StartDate.Month())}
		b.ByMonthDay, b.BySetPos = clampedDays(recurrence.AnchorDay(rule))
	}
	return b, nil
}

func clampedDays(day int) ([]int, []int) {
	if day <= 28 {
		return []int{day}, nil
	}
	days := make([]int, 0, day-27)
	for d := 28; d <= day; d++ {
		days = append(days, d)
	}
	return days, []int{-1}
}

func (b *Builder) Build(dtstart time.Time) (*rrule.RRule, error) {
	opt := rrule.ROption{
		Freq:     b.Freq,
		Interval: 1,
		Dtstart:  dtstart,
	}

	if len(b.ByMonthDay) > 0 {
		opt.Bymonthday = b.ByMonthDay
	}
	if len(b.ByMonth) > 0 {
		opt.Bymonth = b.ByMonth
	}
	if len(b.BySetPos) > 0 {
		opt.Bysetpos = b.BySetPos
	}
	if b.Count > 0 {
		opt.Count = b.Count
	}
	if b.Until != nil {
		opt.Until = models.Date(*b.Until)
	}

	return rrule.NewRRule(opt)
}

func (b *Builder) String() string {
	var parts []string

	names := map[rrule.Frequency]string{
		rrule.DAILY:   "DAILY",
		rrule.WEEKLY:  "WEEKLY",
		rrule.MONTHLY: "MONTHLY",
		rrule.YEARLY:  "YEARLY",
	}
	parts = append(parts, fmt.Sprintf("FREQ=%s", names[b.Freq]))

	if len(b.ByMonth) > 0 {
		parts = append(parts, fmt.Sprintf("BYMONTH=%s", joinInts(b.ByMonth)))
	}
	if len(b.ByMonthDay) > 0 {
		parts = append(parts, fmt.Sprintf("BYMONTHDAY=%s", joinInts(b.ByMonthDay)))
	}
	if len(b.BySetPos) > 0 {
		parts = append(parts, fmt.Sprintf("BYSETPOS=%s", joinInts(b.BySetPos)))
	}
	if b.Count > 0 {
		parts = append(parts, fmt.Sprintf("COUNT=%d", b.Count))
	}
	if b.Until != nil {
		parts = append(parts, fmt.Sprintf("UNTIL=%s", b.Until.Format("20060102")))
	}

	return strings.Join(parts, ";")
}

func joinInts(values []int) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(s, ",")
}

// String renders rule as an RRULE line.
func String(rule *models.RecurrenceRule) (string, error) {
	b, err := ForRule(rule)
	if err != nil {
		return "", err
	}
	return "RRULE:" + b.String(), nil
}

// Expand lists every occurrence of rule from its start through until,
// independently of the engine's own calendar arithmetic.
func Expand(rule *models.RecurrenceRule, until time.Time) ([]time.Time, error) {
	b, err := ForRule(rule)
	if err != nil {
		return nil, err
	}
	start := models.Date(rule.StartDate)
	r, err := b.Build(start)
	if err != nil {
		return nil, fmt.Errorf("failed to build RRULE: %w", err)
	}
	return r.Between(start, models.Date(until), true), nil
}

// Apply sets the schedule of rule from an RRULE line such as
// "FREQ=MONTHLY;BYMONTHDAY=-1;COUNT=12". The rule's start date must already be
// set: weekly rules repeat on its weekday and yearly rules on its month and
// day, so BYDAY and a BYMONTH other than the start month are rejected.
//
// The day-of-month may be a single day, -1 for the last day, or the clamped
// form String renders for days past the 28th.
func Apply(rule *models.RecurrenceRule, line string) error {
	opt, err := rrule.StrToROption(strings.TrimPrefix(strings.TrimSpace(line), "RRULE:"))
	if err != nil {
		return fmt.Errorf("%w: invalid RRULE %q: %v", models.ErrInvalidRule, line, err)
	}
	if err := supported(opt); err != nil {
		return fmt.Errorf("%w: %s in RRULE %q", models.ErrInvalidRule, err, line)
	}

	var freq models.Frequency
	for f, rf := range freqMap {
		if rf == opt.Freq {
			freq = f
		}
	}
	if freq == "" {
		return fmt.Errorf("%w: unsupported FREQ in RRULE %q", models.ErrInvalidRule, line)
	}

	day, err := monthDay(opt.Bymonthday, opt.Bysetpos)
	if err != nil {
		return fmt.Errorf("%w: %s in RRULE %q", models.ErrInvalidRule, err, line)
	}
	switch freq {
	case models.FrequencyMonthly:
		if len(opt.Bymonth) > 0 {
			return fmt.Errorf("%w: BYMONTH on a monthly RRULE %q", models.ErrInvalidRule, line)
		}
	case models.FrequencyYearly:
		if len(opt.Bymonth) > 1 || (len(opt.Bymonth) == 1 && opt.Bymonth[0] != int(rule.StartDate.Month())) {
			return fmt.Errorf("%w: yearly RRULE %q must fall in the start month", models.ErrInvalidRule, line)
		}
		if day != 0 && day != rule.StartDate.Day() {
			return fmt.Errorf("%w: yearly RRULE %q must fall on the start day", models.ErrInvalidRule, line)
		}
		day = 0
	default:
		if len(opt.Bymonth) > 0 || day != 0 {
			return fmt.Errorf("%w: BYMONTH or BYMONTHDAY on a %s RRULE %q", models.ErrInvalidRule, freq, line)
		}
	}

	rule.Frequency = freq
	rule.DueDay = nil
	if day != 0 {
		rule.DueDay = &day
	}
	rule.MaxOccurrences = nil
	if opt.Count > 0 {
		count := opt.Count
		rule.MaxOccurrences = &count
	}
	rule.EndDate = nil
	if !opt.Until.IsZero() {
		until := models.Date(opt.Until)
		rule.EndDate = &until
	}
	return nil
}

func supported(opt *rrule.ROption) error {
	switch {
	case opt.Interval > 1:
		return fmt.Errorf("unsupported INTERVAL=%d", opt.Interval)
	case len(opt.Byweekday) > 0:
		return errors.New("unsupported BYDAY")
	case len(opt.Byyearday) > 0, len(opt.Byweekno) > 0, len(opt.Byeaster) > 0:
		return errors.New("unsupported BYYEARDAY, BYWEEKNO or BYEASTER")
	case len(opt.Byhour) > 0, len(opt.Byminute) > 0, len(opt.Bysecond) > 0:
		return errors.New("unsupported time of day")
	}
	return nil
}

// monthDay reads the day-of-month a BYMONTHDAY/BYSETPOS pair targets. Zero
// means none was given.
func monthDay(days, setPos []int) (int, error) {
	switch {
	case len(days) == 0 && len(setPos) == 0:
		return 0, nil
	case len(days) == 1 && len(setPos) == 0:
		switch d := days[0]; {
		case d == -1:
			return 31, nil
		case d >= 1 && d <= 31:
			return d, nil
		}
	case len(days) > 1 && len(setPos) == 1 && setPos[0] == -1:
		want, _ := clampedDays(days[len(days)-1])
		if slices.Equal(days, want) {
			return days[len(days)-1], nil
		}
	}
	return 0, fmt.Errorf("unsupported BYMONTHDAY %v", days)
}

// Describe returns a short English description of the rule's schedule.
func Describe(rule *models.RecurrenceRule) string {
	var sb strings.Builder

	switch rule.Frequency {
	case models.FrequencyDaily:
		sb.WriteString("every day")
	case models.FrequencyWeekly:
		sb.WriteString("every " + rule.StartDate.Weekday().String())
	case models.FrequencyMonthly:
		day := recurrence.AnchorDay(rule)
		sb.WriteString(fmt.Sprintf("monthly on day %d", day))
		if day > 28 {
			sb.WriteString(" (or the last day)")
		}
	case models.FrequencyYearly:
		sb.WriteString(fmt.Sprintf("every year on %s %d", rule.StartDate.Month(), rule.StartDate.Day()))
	default:
		return string(rule.Frequency)
	}

	if rule.MaxOccurrences != nil {
		sb.WriteString(fmt.Sprintf(", %d times", *rule.MaxOccurrences))
	}
	if rule.EndDate != nil {
		sb.WriteString(", until " + models.FormatDate(*rule.EndDate))
	}
	return sb.String()
}
