package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// ScheduleType identifies the scheduling pattern.
type ScheduleType string

const (
	// ScheduleTypeFixedRate runs every Interval.
	ScheduleTypeFixedRate ScheduleType = "fixed-rate"
	// ScheduleTypeDaily runs once per day at Hour:Minute local time.
	ScheduleTypeDaily ScheduleType = "daily"
	// ScheduleTypeCron runs on a five-field cron expression.
	ScheduleTypeCron ScheduleType = "cron"
)

const dailyPrefix = "daily "

// Schedule describes when a job runs.
type Schedule struct {
	Type ScheduleType

	Interval time.Duration
	Hour     int
	Minute   int
	Cron     string
}

// Every returns a fixed-rate schedule.
func Every(interval time.Duration) Schedule {
	return Schedule{Type: ScheduleTypeFixedRate, Interval: interval}
}

// DailyAt returns a schedule that fires once a day at hour:minute.
func DailyAt(hour, minute int) Schedule {
	return Schedule{Type: ScheduleTypeDaily, Hour: hour, Minute: minute}
}

// ParseSchedule reads the configuration form of a schedule:
//
//	"6h"             fixed rate
//	"daily 03:30"    once per day, 24-hour clock
//	"15 3 * * 1"     five-field cron
func ParseSchedule(expr string) (Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Schedule{}, &ValidationError{Field: "schedule", Message: "must not be empty"}
	}

	if lower := strings.ToLower(expr); strings.HasPrefix(lower, dailyPrefix) {
		at, err := time.Parse("15:04", strings.TrimSpace(expr[len(dailyPrefix):]))
		if err != nil {
			return Schedule{}, &ValidationError{Field: "schedule", Message: fmt.Sprintf("'%s' expects HH:MM after daily", expr)}
		}
		return DailyAt(at.Hour(), at.Minute()), nil
	}

	if d, err := time.ParseDuration(expr); err == nil {
		s := Every(d)
		return s, s.Validate()
	}

	if len(strings.Fields(expr)) == 5 {
		return Schedule{Type: ScheduleTypeCron, Cron: expr}, nil
	}

	return Schedule{}, &ValidationError{
		Field:   "schedule",
		Message: fmt.Sprintf("'%s' is not a duration, 'daily HH:MM' or a five-field cron expression", expr),
	}
}

// Validate checks the fields the schedule type uses.
func (s Schedule) Validate() error {
	switch s.Type {
	case ScheduleTypeFixedRate:
		if s.Interval <= 0 {
			return &ValidationError{Field: "interval", Message: "must be positive"}
		}
	case ScheduleTypeDaily:
		if s.Hour < 0 || s.Hour > 23 {
			return &ValidationError{Field: "hour", Message: fmt.Sprintf("must be 0-23 (got %d)", s.Hour)}
		}
		if s.Minute < 0 || s.Minute > 59 {
			return &ValidationError{Field: "minute", Message: fmt.Sprintf("must be 0-59 (got %d)", s.Minute)}
		}
	case ScheduleTypeCron:
		if len(strings.Fields(s.Cron)) != 5 {
			return &ValidationError{Field: "cron", Message: "must have five fields"}
		}
	default:
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unknown schedule type '%s'", s.Type)}
	}
	return nil
}

// CronExpression returns a cron-style rendering. Fixed-rate schedules use "@every".
func (s Schedule) CronExpression() string {
	switch s.Type {
	case ScheduleTypeFixedRate:
		return "@every " + s.Interval.String()
	case ScheduleTypeDaily:
		return fmt.Sprintf("%d %d * * *", s.Minute, s.Hour)
	case ScheduleTypeCron:
		return s.Cron
	default:
		return ""
	}
}

// String describes the schedule for operators.
func (s Schedule) String() string {
	switch s.Type {
	case ScheduleTypeFixedRate:
		return "Every " + formatDuration(s.Interval)
	case ScheduleTypeDaily:
		return "Daily at " + formatTime(s.Hour, s.Minute)
	case ScheduleTypeCron:
		return "Cron " + s.Cron
	default:
		return ""
	}
}

func formatTime(hour, minute int) string {
	period := "AM"
	display := hour
	if hour >= 12 {
		period = "PM"
		if hour > 12 {
			display = hour - 12
		}
	}
	if hour == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, period)
}

func formatDuration(d time.Duration) string {
	plural := func(n int, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	switch {
	case d < time.Minute:
		return plural(int(d.Seconds()), "second")
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	default:
		return plural(int(d.Hours()/24), "day")
	}
}
