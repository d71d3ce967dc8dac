// Package cron is the scheduled-job core of the console: the edit-form codec,
// the schedule describer, the run-state formatter and the lifecycle controller
// that owns the local job collection.
package cron

import (
	"strconv"
	"strings"
	"time"

	"github.com/crystaldolphin/crondeck/internal/schema"
)

// Form defaults. A new form and an edited job whose schedule cannot be read
// both start from these values.
const (
	DefaultCronMinute   = "0"
	DefaultCronHour     = "9"
	DefaultCronDom      = "*"
	DefaultCronMonth    = "*"
	DefaultCronDow      = "*"
	DefaultEverySeconds = "3600"
)

// EditForm backs the job edit dialog. Every field is a string; numbers are
// parsed at the Codec boundary.
type EditForm struct {
	Name         string
	Message      string
	ScheduleType schema.ScheduleKind
	CronMinute   string
	CronHour     string
	CronDom      string
	CronMonth    string
	CronDow      string
	EverySeconds string
	AtTime       string // minute precision, schema.AtTimeLayout
	TZ           string
}

// DefaultForm returns the form of a brand-new job.
func DefaultForm() EditForm {
	return EditForm{
		ScheduleType: schema.KindCron,
		CronMinute:   DefaultCronMinute,
		CronHour:     DefaultCronHour,
		CronDom:      DefaultCronDom,
		CronMonth:    DefaultCronMonth,
		CronDow:      DefaultCronDow,
		EverySeconds: DefaultEverySeconds,
	}
}

// Codec maps between EditForm and schema.Schedule.
//
// One-shot times are wall-clock times in the form's TZ when it is set,
// otherwise in the codec's location.
type Codec struct {
	loc *time.Location
}

// NewCodec creates a Codec. A nil loc means time.Local.
func NewCodec(loc *time.Location) *Codec {
	if loc == nil {
		loc = time.Local
	}
	return &Codec{loc: loc}
}

// Location returns the zone used for forms without a TZ.
func (c *Codec) Location() *time.Location { return c.loc }

// CronExpression joins the five cron fields with single spaces.
func (c *Codec) CronExpression(f EditForm) string {
	return strings.TrimSpace(strings.Join([]string{
		f.CronMinute, f.CronHour, f.CronDom, f.CronMonth, f.CronDow,
	}, " "))
}

// ScheduleValue is the string sent to the store for the form's schedule type.
func (c *Codec) ScheduleValue(f EditForm) string {
	switch f.ScheduleType {
	case schema.KindCron:
		return c.CronExpression(f)
	case schema.KindEvery:
		return strings.TrimSpace(f.EverySeconds)
	case schema.KindAt:
		return strings.TrimSpace(f.AtTime)
	}
	return ""
}

// ToSchedule builds the canonical schedule. It never fails: a cron expression
// is passed through verbatim, and unparseable seconds or times leave the
// interval or timestamp absent.
func (c *Codec) ToSchedule(f EditForm) schema.Schedule {
	tz := strings.TrimSpace(f.TZ)
	switch f.ScheduleType {
	case schema.KindEvery:
		ms, _ := schema.ParseEverySeconds(f.EverySeconds)
		return schema.Every{IntervalMs: ms, TZ: tz}
	case schema.KindAt:
		var ms int64
		if v, err := schema.ParseAtTime(f.AtTime, c.zone(tz)); err == nil {
			ms = v
		}
		return schema.At{AtMs: ms, TZ: tz}
	default:
		return schema.Cron{Expr: c.CronExpression(f), TZ: tz}
	}
}

// FromJob fills the edit form for an existing job. Malformed schedules fall
// back to the DefaultForm values.
func (c *Codec) FromJob(job schema.Job) EditForm {
	f := DefaultForm()
	f.Name = job.Name
	f.Message = job.Payload.Message

	switch s := job.Schedule.(type) {
	case schema.Every:
		f.ScheduleType = schema.KindEvery
		if s.IntervalMs > 0 {
			f.EverySeconds = strconv.FormatInt(s.IntervalMs/1000, 10)
		}
	case schema.Cron:
		f.ScheduleType = schema.KindCron
		if parts := strings.Fields(s.Expr); len(parts) == 5 {
			f.CronMinute, f.CronHour, f.CronDom, f.CronMonth, f.CronDow =
				parts[0], parts[1], parts[2], parts[3], parts[4]
		}
	case schema.At:
		f.ScheduleType = schema.KindAt
		if s.AtMs != 0 {
			f.AtTime = schema.FormatAtTime(s.AtMs, c.zone(s.TZ))
		}
	}
	if job.Schedule != nil {
		f.TZ = job.Schedule.Zone()
	}
	return f
}

// Validate checks the form before any store call. The first failing field
// is reported.
func (c *Codec) Validate(f EditForm) error {
	if strings.TrimSpace(f.Name) == "" {
		return &ValidationError{Field: "name", Key: "cronNameRequired"}
	}
	if strings.TrimSpace(f.Message) == "" {
		return &ValidationError{Field: "message", Key: "cronMessageRequired"}
	}
	if !f.ScheduleType.Valid() {
		return &ValidationError{Field: "scheduleType", Key: "cronScheduleTypeInvalid"}
	}
	value := c.ScheduleValue(f)
	if value == "" {
		return &ValidationError{Field: "schedule", Key: "cronScheduleRequired"}
	}

	tz := strings.TrimSpace(f.TZ)
	loc, err := schema.LoadZone(tz, c.loc)
	if err != nil {
		return &ValidationError{Field: "tz", Key: "cronTimezoneInvalid"}
	}

	switch f.ScheduleType {
	case schema.KindEvery:
		if _, err := schema.ParseEverySeconds(value); err != nil {
			return &ValidationError{Field: "everySeconds", Key: "cronEverySecondsInvalid"}
		}
	case schema.KindAt:
		if _, err := schema.ParseAtTime(value, loc); err != nil {
			return &ValidationError{Field: "atTime", Key: "cronAtTimeInvalid"}
		}
	}
	return nil
}

// zone resolves tz, falling back to the codec location for "" or unknown zones.
func (c *Codec) zone(tz string) *time.Location {
	loc, err := schema.LoadZone(tz, c.loc)
	if err != nil {
		return c.loc
	}
	return loc
}
