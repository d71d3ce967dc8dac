package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crystaldolphin/crondeck/internal/config"
	"github.com/crystaldolphin/crondeck/internal/container"
	"github.com/crystaldolphin/crondeck/internal/cron"
	"github.com/crystaldolphin/crondeck/internal/i18n"
	"github.com/crystaldolphin/crondeck/internal/schema"
	"github.com/crystaldolphin/crondeck/internal/shared/stringutils"
	"github.com/crystaldolphin/crondeck/internal/watch"
)

var cronCmd = &cobra.Command{
	Use:   "cron",
	Short: "Manage scheduled jobs",
}

func init() {
	cronCmd.AddCommand(cronListCmd)
	cronCmd.AddCommand(cronAddCmd)
	cronCmd.AddCommand(cronEditCmd)
	cronCmd.AddCommand(cronRemoveCmd)
	cronCmd.AddCommand(cronEnableCmd)
	cronCmd.AddCommand(cronDisableCmd)
	cronCmd.AddCommand(cronRunCmd)
	cronCmd.AddCommand(cronDescribeCmd)
	cronCmd.AddCommand(cronWatchCmd)
}

// ---- form flags ------------------------------------------------------------

// formFlags are the edit-form fields settable from the command line.
type formFlags struct {
	name, message                 string
	cron                          string
	minute, hour, dom, month, dow string
	every, at, tz                 string
}

func bindFormFlags(cmd *cobra.Command, f *formFlags) {
	fl := cmd.Flags()
	fl.StringVarP(&f.name, "name", "n", "", "Job name")
	fl.StringVarP(&f.message, "message", "m", "", "Message sent to the agent")
	fl.StringVarP(&f.cron, "cron", "c", "", "Cron expression (e.g. '0 9 * * 1-5')")
	fl.StringVar(&f.minute, "minute", "", "Cron minute field")
	fl.StringVar(&f.hour, "hour", "", "Cron hour field")
	fl.StringVar(&f.dom, "dom", "", "Cron day-of-month field")
	fl.StringVar(&f.month, "month", "", "Cron month field")
	fl.StringVar(&f.dow, "dow", "", "Cron day-of-week field")
	fl.StringVarP(&f.every, "every", "e", "", "Run every N seconds")
	fl.StringVar(&f.at, "at", "", "Run once at YYYY-MM-DDTHH:MM")
	fl.StringVar(&f.tz, "tz", "", "IANA timezone; completes from the configured zones (default "+
		strings.Join(config.DefaultTimezones, ", ")+")")
	_ = cmd.RegisterFlagCompletionFunc("tz", completeTimezones)
}

// completeTimezones offers the zones listed in the config file.
func completeTimezones(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	zones := config.DefaultTimezones
	if cfg, err := loadConfig(); err == nil {
		zones = cfg.Timezones
	}
	var out []string
	for _, z := range zones {
		if strings.HasPrefix(strings.ToLower(z), strings.ToLower(toComplete)) {
			out = append(out, z)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// apply copies the flags the user set onto form.
func (f *formFlags) apply(cmd *cobra.Command, form *cron.EditForm) error {
	changed := cmd.Flags().Changed

	if changed("name") {
		form.Name = f.name
	}
	if changed("message") {
		form.Message = f.message
	}
	if changed("tz") {
		form.TZ = f.tz
	}

	kinds := 0
	cronFields := map[string]*string{
		"minute": &form.CronMinute,
		"hour":   &form.CronHour,
		"dom":    &form.CronDom,
		"month":  &form.CronMonth,
		"dow":    &form.CronDow,
	}
	fieldValues := map[string]string{
		"minute": f.minute, "hour": f.hour, "dom": f.dom, "month": f.month, "dow": f.dow,
	}
	cronSet := changed("cron")
	for name := range cronFields {
		cronSet = cronSet || changed(name)
	}
	if cronSet {
		kinds++
		form.ScheduleType = schema.KindCron
		if changed("cron") {
			setCronExpression(form, f.cron)
		}
		for name, dst := range cronFields {
			if changed(name) {
				*dst = fieldValues[name]
			}
		}
	}
	if changed("every") {
		kinds++
		form.ScheduleType = schema.KindEvery
		form.EverySeconds = f.every
	}
	if changed("at") {
		kinds++
		form.ScheduleType = schema.KindAt
		form.AtTime = f.at
	}
	if kinds > 1 {
		return errors.New("use only one of --cron (or the cron field flags), --every or --at")
	}
	return nil
}

// setCronExpression splits a five-field expression into the form fields.
// Anything else is kept whole so the store can report it.
func setCronExpression(form *cron.EditForm, expr string) {
	parts := strings.Fields(expr)
	if len(parts) == 5 {
		form.CronMinute, form.CronHour, form.CronDom, form.CronMonth, form.CronDow =
			parts[0], parts[1], parts[2], parts[3], parts[4]
		return
	}
	form.CronMinute = strings.TrimSpace(expr)
	form.CronHour, form.CronDom, form.CronMonth, form.CronDow = "", "", "", ""
}

// ---- list ------------------------------------------------------------------

var cronListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := newContainer(cmd)
		if err != nil {
			return err
		}
		jobs, err := c.Controller().List(commandContext(cmd))
		if err != nil {
			return err
		}
		renderJobs(cmd.OutOrStdout(), c, jobs)
		return nil
	},
}

func renderJobs(w io.Writer, c *container.Container, jobs []schema.Job) {
	t := c.Catalog()
	if len(jobs) == 0 {
		fmt.Fprintln(w, t.T("noCronJobs", nil))
		fmt.Fprintln(w, t.T("noCronJobsDesc", nil))
		return
	}

	d, f := c.Describer(), c.Formatter()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join([]string{
		t.T("cronColumnId", nil),
		t.T("cronColumnName", nil),
		t.T("cronColumnSchedule", nil),
		t.T("cronColumnStatus", nil),
		t.T("cronNextRun", nil),
		t.T("cronLastRun", nil),
		t.T("cronLastError", nil),
	}, "\t"))
	for _, j := range jobs {
		status := t.T("enabled", nil)
		if !j.Enabled {
			status = t.T("disabled", nil)
		}
		lastRun := cron.Placeholder
		if j.State.LastRunAtMs != nil {
			lastRun = fmt.Sprintf("%s %s", cron.StatusGlyph(j.State.LastStatus), f.FormatTimestamp(j.State.LastRunAtMs))
		}
		lastErr := stringutils.OrDefault(stringutils.Truncate(stringutils.OneLine(j.State.LastError), 40), cron.Placeholder)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			j.ID,
			stringutils.Truncate(j.Name, 24),
			d.DescribeSchedule(j.Schedule),
			status,
			f.FormatRelative(j.State.NextRunAtMs),
			lastRun,
			lastErr,
		)
	}
	_ = tw.Flush()
}

// ---- add / edit ------------------------------------------------------------

var addFlags formFlags

var cronAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a scheduled job",
	Example: `  crondeck cron add -n "morning brief" -m "summarize my inbox" -c "0 9 * * 1-5" --tz Asia/Shanghai
  crondeck cron add -n heartbeat -m "check the queue" -e 600
  crondeck cron add -n reminder -m "renew the cert" --at 2030-01-15T10:00`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := newContainer(cmd)
		if err != nil {
			return err
		}
		ctrl := c.Controller()
		form := ctrl.OpenCreate()
		if err := addFlags.apply(cmd, &form); err != nil {
			return err
		}
		job, err := ctrl.Submit(commandContext(cmd), form)
		if err != nil {
			return err
		}
		if job.ID != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", job.ID, c.Describer().DescribeSchedule(job.Schedule))
		}
		return nil
	},
}

var (
	editFlags   formFlags
	editEnable  bool
	editDisable bool
)

var cronEditCmd = &cobra.Command{
	Use:   "edit <job-id>",
	Short: "Edit a scheduled job",
	Long:  "Edit a scheduled job. Only the flags given are changed; the job stays enabled or disabled unless --enable or --disable is passed.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if editEnable && editDisable {
			return errors.New("--enable and --disable are mutually exclusive")
		}
		c, err := newContainer(cmd)
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)
		ctrl := c.Controller()
		if _, err := ctrl.List(ctx); err != nil {
			return err
		}
		form, err := ctrl.OpenEdit(args[0])
		if err != nil {
			c.Terminal().Error(c.Catalog().T("cronJobNotFound", i18n.Params{"id": args[0]}))
			return err
		}
		if err := editFlags.apply(cmd, &form); err != nil {
			return err
		}

		switch {
		case editEnable:
			_, err = ctrl.Update(ctx, args[0], form, true)
		case editDisable:
			_, err = ctrl.Update(ctx, args[0], form, false)
		default:
			_, err = ctrl.Submit(ctx, form)
		}
		return err
	},
}

func init() {
	bindFormFlags(cronAddCmd, &addFlags)
	_ = cronAddCmd.MarkFlagRequired("name")
	_ = cronAddCmd.MarkFlagRequired("message")

	bindFormFlags(cronEditCmd, &editFlags)
	cronEditCmd.Flags().BoolVar(&editEnable, "enable", false, "Enable the job")
	cronEditCmd.Flags().BoolVar(&editDisable, "disable", false, "Disable the job")
}

// ---- remove / enable / disable / run ---------------------------------------

var removeYes bool

var cronRemoveCmd = &cobra.Command{
	Use:   "remove <job-id>",
	Short: "Remove a scheduled job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newContainer(cmd)
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)
		// Listing first lets the prompt show the job's name.
		if _, err := c.Controller().List(ctx); err != nil {
			return err
		}
		c.Terminal().AssumeYes(removeYes)
		err = c.Controller().Remove(ctx, args[0])
		if errors.Is(err, cron.ErrDeclined) {
			return nil
		}
		return err
	},
}

func init() {
	cronRemoveCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Do not ask for confirmation")
}

var cronEnableCmd = &cobra.Command{
	Use:   "enable <job-id>",
	Short: "Enable a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args[0], true)
	},
}

var cronDisableCmd = &cobra.Command{
	Use:   "disable <job-id>",
	Short: "Disable a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args[0], false)
	},
}

func setEnabled(cmd *cobra.Command, jobID string, enabled bool) error {
	c, err := newContainer(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	if _, err := c.Controller().List(ctx); err != nil {
		return err
	}
	_, err = c.Controller().SetEnabled(ctx, jobID, enabled)
	return err
}

var cronRunCmd = &cobra.Command{
	Use:   "run <job-id>",
	Short: "Run a job now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newContainer(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(commandContext(cmd), 5*time.Minute)
		defer cancel()
		return c.Controller().Run(ctx, args[0])
	},
}

// ---- describe --------------------------------------------------------------

var describeFlags formFlags

var cronDescribeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Preview how a schedule reads, without saving it",
	Example: `  crondeck cron describe -c "*/15 9-17 * * 1-5"
  crondeck cron describe --hour 7 --dow 0,6
  crondeck cron describe --at 2030-01-15T10:00 --tz Asia/Tokyo`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := newContainer(cmd)
		if err != nil {
			return err
		}
		form := cron.DefaultForm()
		if err := describeFlags.apply(cmd, &form); err != nil {
			return err
		}
		sched := c.Codec().ToSchedule(form)
		fmt.Fprintln(cmd.OutOrStdout(), c.Describer().DescribeSchedule(sched))
		if v, ok := sched.(schema.Cron); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", v.Expr)
		}
		return nil
	},
}

func init() {
	bindFormFlags(cronDescribeCmd, &describeFlags)
}

// ---- watch -----------------------------------------------------------------

var watchInterval time.Duration

var cronWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the job list and refresh it periodically",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := newContainer(cmd)
		if err != nil {
			return err
		}
		interval := c.Config().Interval()
		if watchInterval > 0 {
			interval = watchInterval
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)

		// Holds at most the newest listing; the renderer never sees a stale one.
		snapshots := make(chan []schema.Job, 1)
		refresher := watch.NewRefresher(c.Controller().List, func(jobs []schema.Job) {
			select {
			case <-snapshots:
			default:
			}
			snapshots <- jobs
		}, interval)

		out := cmd.OutOrStdout()
		g.Go(func() error { return refresher.Start(gctx) })
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case jobs := <-snapshots:
					fmt.Fprint(out, "\033[H\033[2J")
					fmt.Fprintf(out, "%s crondeck  %s  (%s)\n\n", logo, time.Now().In(c.Location()).Format("15:04:05"), interval)
					renderJobs(out, c, jobs)
				}
			}
		})

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	cronWatchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", 0, "Refresh period (default from config)")
}
