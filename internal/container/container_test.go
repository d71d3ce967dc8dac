package container

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystaldolphin/crondeck/internal/config"
	"github.com/crystaldolphin/crondeck/internal/cron"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.StorePath = filepath.Join(t.TempDir(), "cron", "jobs.json")
	return &cfg
}

func TestNew_WiresEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	var out, errOut bytes.Buffer
	c, err := NewWithIO(cfg, strings.NewReader("y\n"), &out, &errOut)
	require.NoError(t, err)

	assert.Equal(t, "en", c.Catalog().Locale())
	assert.Equal(t, "UTC", c.Location().String())
	assert.Equal(t, cfg.StoreFile(), c.Store().Path())

	ctx := context.Background()
	form := cron.DefaultForm()
	form.Name, form.Message = "standup", "post the standup notes"
	job, err := c.Controller().Create(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, "every day 09:00, runs", c.Describer().DescribeSchedule(job.Schedule))

	require.NoError(t, c.Controller().Run(ctx, job.ID))
	assert.Contains(t, out.String(), "post the standup notes")
	assert.Contains(t, out.String(), "✓ Job triggered")

	require.NoError(t, c.Controller().Remove(ctx, job.ID))
	assert.Empty(t, c.Controller().Jobs())
	assert.Empty(t, errOut.String())
}

func TestNew_Chinese(t *testing.T) {
	cfg := testConfig(t)
	cfg.Locale = "zh-CN"
	c, err := NewWithIO(cfg, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "zh", c.Catalog().Locale())
}

func TestNew_BadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Locale = "xx"
	_, err := NewWithIO(cfg, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Timezone = "Mars/Olympus"
	_, err = NewWithIO(cfg, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	assert.Error(t, err)
}
