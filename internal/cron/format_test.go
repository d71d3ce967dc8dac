package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystaldolphin/crondeck/internal/i18n"
	"github.com/crystaldolphin/crondeck/internal/schema"
)

func ptr(v int64) *int64 { return &v }

func TestFormatTimestamp(t *testing.T) {
	f := NewFormatter(english(t), time.UTC)
	ms := time.Date(2030, 7, 8, 9, 10, 59, 0, time.UTC).UnixMilli()

	assert.Equal(t, Placeholder, f.FormatTimestamp(nil))
	assert.Equal(t, "2030-07-08 09:10", f.FormatTimestamp(&ms))
}

func TestFormatTimestamp_LocaleLayout(t *testing.T) {
	zh, err := i18n.Load("zh")
	require.NoError(t, err)
	f := NewFormatter(zh, time.UTC)
	ms := time.Date(2030, 7, 8, 9, 10, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, "2030/07/08 09:10", f.FormatTimestamp(&ms))
}

func TestFormatRelative(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFormatter(english(t), time.UTC).WithClock(func() time.Time { return now })
	base := now.UnixMilli()

	assert.Equal(t, Placeholder, f.FormatRelative(nil))
	assert.Equal(t, "expired", f.FormatRelative(ptr(base-1)))
	assert.Equal(t, "soon", f.FormatRelative(ptr(base)))
	assert.Equal(t, "soon", f.FormatRelative(ptr(base+1)))
	assert.Equal(t, "soon", f.FormatRelative(ptr(base+59_999)))
	assert.Equal(t, "in 1 minute", f.FormatRelative(ptr(base+60_000)))
	assert.Equal(t, "in 59 minutes", f.FormatRelative(ptr(base+3_599_999)))
	assert.Equal(t, "in 1 hour", f.FormatRelative(ptr(base+90*60_000)))
	assert.Equal(t, "in 23 hours", f.FormatRelative(ptr(base+86_399_999)))
	assert.Equal(t, "in 1 day", f.FormatRelative(ptr(base+86_400_000)))
	assert.Equal(t, "in 3 days", f.FormatRelative(ptr(base+3*86_400_000+5)))
}

func TestWithClock_DoesNotMutateOriginal(t *testing.T) {
	f := NewFormatter(english(t), time.UTC)
	fixed := f.WithClock(func() time.Time { return time.Unix(0, 0) })
	assert.NotSame(t, f, fixed)
	// Far-past timestamp is expired for the real clock but in the future for the fixed one.
	ms := int64(86_400_000 * 2)
	assert.Equal(t, "expired", f.FormatRelative(&ms))
	assert.Equal(t, "in 2 days", fixed.FormatRelative(&ms))
}

func TestStatusGlyph(t *testing.T) {
	assert.Equal(t, GlyphSuccess, StatusGlyph(schema.StatusSuccess))
	assert.Equal(t, GlyphFailed, StatusGlyph(schema.StatusFailed))
	assert.Equal(t, GlyphPending, StatusGlyph(""))
	assert.Equal(t, GlyphPending, StatusGlyph("ok"))
}
