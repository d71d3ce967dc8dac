package cron

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystaldolphin/crondeck/internal/schema"
)

func validForm() EditForm {
	f := DefaultForm()
	f.Name = "daily report"
	f.Message = "summarize the inbox"
	return f
}

// ─── Defaults ──────────────────────────────────────────────────────────────

func TestDefaultForm(t *testing.T) {
	f := DefaultForm()
	assert.Equal(t, EditForm{
		ScheduleType: schema.KindCron,
		CronMinute:   "0",
		CronHour:     "9",
		CronDom:      "*",
		CronMonth:    "*",
		CronDow:      "*",
		EverySeconds: "3600",
	}, f)
}

func TestFromJob_CorruptCronMatchesNewForm(t *testing.T) {
	c := NewCodec(time.UTC)
	for _, expr := range []string{"", "0 9 * *", "0 9 * * * *", "garbage"} {
		got := c.FromJob(schema.Job{Schedule: schema.Cron{Expr: expr}})
		assert.Equal(t, DefaultForm(), got, "expr %q", expr)
	}
}

func TestFromJob_NilSchedule(t *testing.T) {
	c := NewCodec(time.UTC)
	got := c.FromJob(schema.Job{Name: "n", Payload: schema.Payload{Message: "m"}})
	want := DefaultForm()
	want.Name, want.Message = "n", "m"
	assert.Equal(t, want, got)
}

// ─── ToSchedule ────────────────────────────────────────────────────────────

func TestToSchedule_Cron(t *testing.T) {
	c := NewCodec(time.UTC)
	f := validForm()
	f.CronMinute, f.CronHour, f.CronDow = "30", "14", "1-5"
	f.TZ = " Asia/Tokyo "
	assert.Equal(t, schema.Cron{Expr: "30 14 * * 1-5", TZ: "Asia/Tokyo"}, c.ToSchedule(f))
}

func TestToSchedule_CronPassesInvalidThrough(t *testing.T) {
	c := NewCodec(time.UTC)
	f := validForm()
	f.CronMinute, f.CronHour = "nope", "61"
	assert.Equal(t, schema.Cron{Expr: "nope 61 * * *"}, c.ToSchedule(f))
}

func TestToSchedule_Every(t *testing.T) {
	c := NewCodec(time.UTC)
	f := validForm()
	f.ScheduleType = schema.KindEvery
	f.EverySeconds = "90"
	assert.Equal(t, schema.Every{IntervalMs: 90_000}, c.ToSchedule(f))

	f.EverySeconds = "ninety"
	assert.Equal(t, schema.Every{}, c.ToSchedule(f))

	f.EverySeconds = "9223372036854776"
	assert.Equal(t, schema.Every{}, c.ToSchedule(f))
}

func TestToSchedule_AtInFormZone(t *testing.T) {
	c := NewCodec(time.UTC)
	f := validForm()
	f.ScheduleType = schema.KindAt
	f.AtTime = "2030-03-04T05:06"
	f.TZ = "America/New_York"

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	want := time.Date(2030, 3, 4, 5, 6, 0, 0, ny).UnixMilli()
	assert.Equal(t, schema.At{AtMs: want, TZ: "America/New_York"}, c.ToSchedule(f))
}

func TestToSchedule_AtInCodecZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	c := NewCodec(tokyo)
	f := validForm()
	f.ScheduleType = schema.KindAt
	f.AtTime = "2030-03-04T05:06"
	want := time.Date(2030, 3, 4, 5, 6, 0, 0, tokyo).UnixMilli()
	assert.Equal(t, schema.At{AtMs: want}, c.ToSchedule(f))
}

// ─── Round trip ────────────────────────────────────────────────────────────

func TestRoundTrip_AllScheduleTypes(t *testing.T) {
	c := NewCodec(time.UTC)

	cronForm := validForm()
	cronForm.CronMinute, cronForm.CronHour, cronForm.CronDom = "*/15", "*", "1"
	cronForm.TZ = "Europe/London"

	everyForm := validForm()
	everyForm.ScheduleType = schema.KindEvery
	everyForm.EverySeconds = "120"

	atForm := validForm()
	atForm.ScheduleType = schema.KindAt
	atForm.AtTime = "2031-12-24T18:30"
	atForm.TZ = "Asia/Hong_Kong"

	for _, form := range []EditForm{cronForm, everyForm, atForm} {
		job := schema.Job{
			ID:       "abc",
			Name:     form.Name,
			Schedule: c.ToSchedule(form),
			Payload:  schema.Payload{Message: form.Message},
		}
		assert.Equal(t, form, c.FromJob(job), "schedule type %s", form.ScheduleType)
	}
}

func TestFromJob_EveryFloorsSeconds(t *testing.T) {
	c := NewCodec(time.UTC)
	f := c.FromJob(schema.Job{Schedule: schema.Every{IntervalMs: 1999}})
	assert.Equal(t, schema.KindEvery, f.ScheduleType)
	assert.Equal(t, "1", f.EverySeconds)

	f = c.FromJob(schema.Job{Schedule: schema.Every{}})
	assert.Equal(t, DefaultEverySeconds, f.EverySeconds)
}

func TestFromJob_AtAbsent(t *testing.T) {
	c := NewCodec(time.UTC)
	f := c.FromJob(schema.Job{Schedule: schema.At{TZ: "UTC"}})
	assert.Equal(t, schema.KindAt, f.ScheduleType)
	assert.Empty(t, f.AtTime)
	assert.Equal(t, "UTC", f.TZ)
}

// ─── ScheduleValue / Validate ──────────────────────────────────────────────

func TestScheduleValue(t *testing.T) {
	c := NewCodec(time.UTC)
	f := validForm()
	assert.Equal(t, "0 9 * * *", c.ScheduleValue(f))

	f.ScheduleType = schema.KindEvery
	f.EverySeconds = " 60 "
	assert.Equal(t, "60", c.ScheduleValue(f))

	f.ScheduleType = schema.KindAt
	f.AtTime = ""
	assert.Equal(t, "", c.ScheduleValue(f))
}

func TestValidate(t *testing.T) {
	c := NewCodec(time.UTC)
	cases := []struct {
		name  string
		edit  func(*EditForm)
		field string
	}{
		{"blank name", func(f *EditForm) { f.Name = "  " }, "name"},
		{"blank message", func(f *EditForm) { f.Message = "\t" }, "message"},
		{"bad type", func(f *EditForm) { f.ScheduleType = "weekly" }, "scheduleType"},
		{"blank cron", func(f *EditForm) {
			f.CronMinute, f.CronHour, f.CronDom, f.CronMonth, f.CronDow = "", "", "", "", ""
		}, "schedule"},
		{"blank every", func(f *EditForm) { f.ScheduleType, f.EverySeconds = schema.KindEvery, "" }, "schedule"},
		{"blank at", func(f *EditForm) { f.ScheduleType = schema.KindAt }, "schedule"},
		{"zero every", func(f *EditForm) { f.ScheduleType, f.EverySeconds = schema.KindEvery, "0" }, "everySeconds"},
		{"text every", func(f *EditForm) { f.ScheduleType, f.EverySeconds = schema.KindEvery, "soon" }, "everySeconds"},
		{"overflowing every", func(f *EditForm) { f.ScheduleType, f.EverySeconds = schema.KindEvery, "9223372036854776" }, "everySeconds"},
		{"bad at", func(f *EditForm) { f.ScheduleType, f.AtTime = schema.KindAt, "next tuesday" }, "atTime"},
		{"bad tz", func(f *EditForm) { f.TZ = "Mars/Olympus" }, "tz"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := validForm()
			tc.edit(&f)
			var verr *ValidationError
			require.True(t, errors.As(c.Validate(f), &verr))
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestValidate_OK(t *testing.T) {
	c := NewCodec(time.UTC)
	require.NoError(t, c.Validate(validForm()))

	f := validForm()
	f.ScheduleType, f.AtTime, f.TZ = schema.KindAt, "2030-01-01T08:00", "Asia/Shanghai"
	require.NoError(t, c.Validate(f))
}
