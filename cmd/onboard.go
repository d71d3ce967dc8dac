package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/crondeck/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration and the jobs directory",
	RunE:  runOnboard,
}

func runOnboard(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}

	if _, err := os.Stat(cfgPath); err == nil {
		existing, loadErr := config.Load(cfgPath)
		if loadErr != nil {
			def := config.DefaultConfig()
			existing = &def
		}
		if err := config.Save(existing, cfgPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Config refreshed at %s\n", cfgPath)
	} else {
		cfg := config.DefaultConfig()
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Created config at %s\n", cfgPath)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	storeDir := filepath.Dir(cfg.StoreFile())
	if err := os.MkdirAll(storeDir, 0o755); err != nil {
		return fmt.Errorf("create jobs directory: %w", err)
	}
	fmt.Fprintf(out, "✓ Jobs directory at %s\n", storeDir)

	fmt.Fprintf(out, "\n%s crondeck is ready!\n\n", logo)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintf(out, "  1. Pick a locale and timezone in %s\n", cfgPath)
	fmt.Fprintln(out, "  2. Add a job: crondeck cron add -n \"morning brief\" -m \"summarize my inbox\" -c \"0 9 * * *\"")
	return nil
}
