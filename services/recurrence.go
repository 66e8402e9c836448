package services

import (
	"time"

	"github.com/google/uuid"

	"tutorbook-backend/models"
	"tutorbook-backend/utils"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// MaxOccurrences bounds a single series (two years of daily lessons).
const MaxOccurrences = 730

func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(s); f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return f, nil
	}
	return "", validationf("invalid recurring frequency %q", s)
}

// Occurrences returns the dates of a series anchored at anchor, up to and
// including the calendar day of endDate. Occurrence n is always derived from
// the anchor so month-end clamping never drifts. An anchor already past the
// end date yields just the anchor.
func Occurrences(anchor time.Time, freq Frequency, endDate time.Time) ([]time.Time, error) {
	if _, err := ParseFrequency(string(freq)); err != nil {
		return nil, err
	}

	y, m, d := endDate.Date()
	limit := utils.EndOfDay(time.Date(y, m, d, 0, 0, 0, 0, anchor.Location()))
	if anchor.After(limit) {
		return []time.Time{anchor}, nil
	}

	var dates []time.Time
	for n := 0; ; n++ {
		next := occurrenceAt(anchor, freq, n)
		if next.After(limit) {
			break
		}
		if len(dates) == MaxOccurrences {
			return nil, validationf("recurring series exceeds %d occurrences", MaxOccurrences)
		}
		dates = append(dates, next)
	}
	return dates, nil
}

func occurrenceAt(anchor time.Time, freq Frequency, n int) time.Time {
	switch freq {
	case FrequencyDaily:
		return anchor.AddDate(0, 0, n)
	case FrequencyWeekly:
		return anchor.AddDate(0, 0, 7*n)
	case FrequencyMonthly:
		return utils.AddMonthsClamped(anchor, n)
	default:
		return utils.AddYearsClamped(anchor, n)
	}
}

func expandSeries[T any](anchor time.Time, freq Frequency, endDate time.Time, build func(at time.Time, group uuid.UUID) T) ([]T, error) {
	dates, err := Occurrences(anchor, freq, endDate)
	if err != nil {
		return nil, err
	}
	group := uuid.New()
	out := make([]T, 0, len(dates))
	for _, at := range dates {
		out = append(out, build(at, group))
	}
	return out, nil
}

// ExpandLessons turns a template lesson into one lesson per occurrence, all
// sharing a new recurring group id.
func ExpandLessons(template models.Lesson, freq Frequency, endDate time.Time) ([]models.Lesson, error) {
	end := endDate
	return expandSeries(template.DateTime, freq, endDate, func(at time.Time, group uuid.UUID) models.Lesson {
		l := template
		l.ID = uuid.Nil
		l.DateTime = at
		l.IsRecurring = true
		l.RecurringFrequency = string(freq)
		l.RecurringGroupID = &group
		l.RecurringEndDate = &end
		return l
	})
}

func ExpandPurchases(template models.Purchase, freq Frequency, endDate time.Time) ([]models.Purchase, error) {
	end := endDate
	return expandSeries(template.Date, freq, endDate, func(at time.Time, group uuid.UUID) models.Purchase {
		p := template
		p.ID = uuid.Nil
		p.Date = at
		p.IsRecurring = true
		p.RecurringFrequency = string(freq)
		p.RecurringGroupID = &group
		p.RecurringEndDate = &end
		return p
	})
}
