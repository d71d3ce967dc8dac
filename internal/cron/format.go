package cron

import (
	"time"

	"github.com/crystaldolphin/crondeck/internal/i18n"
	"github.com/crystaldolphin/crondeck/internal/schema"
)

// Placeholder is rendered for absent timestamps and schedules.
const Placeholder = "-"

// Glyph marks the outcome of a job's last run.
type Glyph string

const (
	GlyphSuccess Glyph = "✓"
	GlyphFailed  Glyph = "✗"
	GlyphPending Glyph = "○"
)

// StatusGlyph maps a last-run status to its indicator.
func StatusGlyph(status schema.RunStatus) Glyph {
	switch status {
	case schema.StatusSuccess:
		return GlyphSuccess
	case schema.StatusFailed:
		return GlyphFailed
	}
	return GlyphPending
}

// Formatter renders run-state timestamps for display.
type Formatter struct {
	t   i18n.Translator
	loc *time.Location
	now func() time.Time
}

// NewFormatter creates a Formatter rendering in loc (nil means time.Local).
func NewFormatter(t i18n.Translator, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{t: t, loc: loc, now: time.Now}
}

// WithClock returns a copy of f that reads the current time from now.
func (f *Formatter) WithClock(now func() time.Time) *Formatter {
	cp := *f
	cp.now = now
	return &cp
}

// FormatTimestamp renders ms as a minute-precision date and time.
func (f *Formatter) FormatTimestamp(ms *int64) string {
	if ms == nil {
		return Placeholder
	}
	return f.formatIn(*ms, f.loc)
}

func (f *Formatter) formatIn(ms int64, loc *time.Location) string {
	layout := f.t.T("cronTimestampLayout", nil)
	return time.UnixMilli(ms).In(loc).Format(layout)
}

// FormatRelative renders how far in the future ms is, in its largest whole unit.
// Past times render as expired.
func (f *Formatter) FormatRelative(ms *int64) string {
	if ms == nil {
		return Placeholder
	}
	diff := *ms - f.now().UnixMilli()
	if diff < 0 {
		return f.t.T("cronExpired", nil)
	}

	days := diff / 86_400_000
	hours := diff / 3_600_000
	minutes := diff / 60_000
	switch {
	case days > 0:
		return f.t.T("cronDaysLater", i18n.Params{"count": days})
	case hours > 0:
		return f.t.T("cronHoursLater", i18n.Params{"count": hours})
	case minutes > 0:
		return f.t.T("cronMinutesLater", i18n.Params{"count": minutes})
	}
	return f.t.T("cronSoon", nil)
}
