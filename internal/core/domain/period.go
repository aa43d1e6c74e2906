package domain

import "time"

// Period classifies an instant into the window family whose daily limit
// applies to it.
type Period string

const (
	PeriodDaytime   Period = "DAYTIME"
	PeriodNighttime Period = "NIGHTTIME"
	PeriodWeekend   Period = "WEEKEND"
)

// PeriodOf classifies an instant, UTC-based. Saturday and Sunday are WEEKEND
// regardless of time of day; on other days [06:00, 18:00) is DAYTIME and the
// rest is NIGHTTIME.
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return PeriodWeekend
	}
	if h := t.Hour(); h >= 6 && h < 18 {
		return PeriodDaytime
	}
	return PeriodNighttime
}

// PeriodWindow computes the half-open aggregation window [start, end) of the
// given period around t. The NIGHTTIME window spans midnight: an instant at
// or after 18:00 belongs to [today 18:00, tomorrow 06:00), an instant before
// 06:00 to [yesterday 18:00, today 06:00). A WEEKEND window covers a single
// calendar day, so Saturday and Sunday aggregate independently.
func PeriodWindow(p Period, t time.Time) (start, end time.Time) {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch p {
	case PeriodDaytime:
		return day.Add(6 * time.Hour), day.Add(18 * time.Hour)
	case PeriodNighttime:
		if t.Hour() >= 18 {
			return day.Add(18 * time.Hour), day.Add(30 * time.Hour)
		}
		return day.Add(-6 * time.Hour), day.Add(6 * time.Hour)
	default:
		return day, day.AddDate(0, 0, 1)
	}
}

// DayWindow returns the UTC calendar-day window [00:00, 24:00) containing t.
func DayWindow(t time.Time) (start, end time.Time) {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day, day.AddDate(0, 0, 1)
}
