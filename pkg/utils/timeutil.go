package utils

import (
	"errors"
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var (
	ErrInvalidDate  = errors.New("invalid date format")
	ErrInvalidTime  = errors.New("invalid time format")
	ErrPastMidnight = errors.New("time range runs past midnight")
)

const minutesPerDay = 24 * 60

func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	date, err := time.ParseInLocation(DateLayout, dateStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

func ClockToMinutes(timeStr string) (int, error) {
	tm, err := time.Parse(ClockLayout, timeStr)
	if err != nil {
		return 0, ErrInvalidTime
	}
	return tm.Hour()*60 + tm.Minute(), nil
}

func MinutesToClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// EndClock adds durationMinutes to a HH:MM start. The range must end by
// 24:00 on the same day.
func EndClock(start string, durationMinutes int) (string, error) {
	m, err := ClockToMinutes(start)
	if err != nil {
		return "", err
	}
	if m+durationMinutes > minutesPerDay {
		return "", ErrPastMidnight
	}
	return MinutesToClock(m + durationMinutes), nil
}

// HumanDate renders 2024-06-01 as "Saturday, June 1, 2024".
func HumanDate(dateStr string) string {
	d, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return dateStr
	}
	return d.Format("Monday, January 2, 2006")
}

// HumanTime renders 14:00 as "2:00 PM".
func HumanTime(timeStr string) string {
	t, err := time.Parse(ClockLayout, timeStr)
	if err != nil {
		return timeStr
	}
	return t.Format("3:04 PM")
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
