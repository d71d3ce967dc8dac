package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crystaldolphin/crondeck/internal/config"
	"github.com/crystaldolphin/crondeck/internal/cron"
	"github.com/crystaldolphin/crondeck/internal/schema"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show crondeck status",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}

	fmt.Fprintf(out, "%s crondeck Status\n\n", logo)

	c, err := newContainer(cmd)
	if err != nil {
		fmt.Fprintf(out, "Config:    %s %s\n", cfgPath, cron.GlyphFailed)
		fmt.Fprintf(out, "  (could not load config: %v)\n", err)
		return nil
	}
	cfg := c.Config()

	var (
		cfgExists, storeExists bool
		jobs                   []schema.Job
		listErr                error
	)
	g, gctx := errgroup.WithContext(commandContext(cmd))
	g.Go(func() error {
		_, err := os.Stat(cfgPath)
		cfgExists = err == nil
		return nil
	})
	g.Go(func() error {
		_, err := os.Stat(c.Store().Path())
		storeExists = err == nil
		return nil
	})
	g.Go(func() error {
		jobs, listErr = c.Controller().List(gctx)
		return nil
	})
	_ = g.Wait()

	fmt.Fprintf(out, "Config:    %s %s\n", cfgPath, mark(cfgExists))
	fmt.Fprintf(out, "Jobs file: %s %s\n", c.Store().Path(), mark(storeExists))
	fmt.Fprintf(out, "Locale:    %s\n", c.Catalog().Locale())
	fmt.Fprintf(out, "Timezone:  %s\n", c.Location())
	fmt.Fprintf(out, "Refresh:   %s\n", cfg.Interval())
	fmt.Fprintf(out, "%s: %s\n\n", c.Catalog().T("cronTimezones", nil), strings.Join(cfg.Timezones, ", "))

	if listErr != nil {
		fmt.Fprintf(out, "Jobs:      (could not read: %v)\n", listErr)
		return nil
	}
	enabled := 0
	for _, j := range jobs {
		if j.Enabled {
			enabled++
		}
	}
	fmt.Fprintf(out, "Jobs:      %d (%d enabled, %d disabled)\n",
		len(jobs), enabled, len(jobs)-enabled)
	return nil
}

func mark(ok bool) cron.Glyph {
	if ok {
		return cron.GlyphSuccess
	}
	return cron.GlyphFailed
}
