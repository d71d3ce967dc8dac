package cron

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/crystaldolphin/crondeck/internal/i18n"
	"github.com/crystaldolphin/crondeck/internal/interfaces"
	"github.com/crystaldolphin/crondeck/internal/schema"
)

// DialogMode says what the edit dialog is doing.
type DialogMode int

const (
	DialogClosed DialogMode = iota
	DialogCreate
	DialogEdit
)

// Dialog is a snapshot of the edit dialog.
type Dialog struct {
	Mode  DialogMode
	JobID string
	Form  EditForm
}

// Controller is the only component that mutates the job store. It keeps a
// local copy of the store's jobs and updates it after each confirmed call.
//
// Store calls are not serialized: concurrent List calls each replace the
// local collection when they complete, so the last response wins. Nothing
// is applied locally before the store confirms it.
type Controller struct {
	store   interfaces.CronStore
	codec   *Codec
	t       i18n.Translator
	notify  Notifier
	confirm Confirmer

	mu     sync.Mutex
	jobs   []schema.Job
	dialog Dialog
	// dialogGen changes whenever the dialog is opened or closed; a result
	// that arrives for an older generation leaves the dialog alone.
	dialogGen uint64
}

// NewController creates a Controller.
func NewController(
	store interfaces.CronStore,
	codec *Codec,
	t i18n.Translator,
	notify Notifier,
	confirm Confirmer,
) *Controller {
	return &Controller{
		store:   store,
		codec:   codec,
		t:       t,
		notify:  notify,
		confirm: confirm,
		jobs:    []schema.Job{},
	}
}

// Jobs returns a copy of the local collection.
func (c *Controller) Jobs() []schema.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return schema.CloneJobs(c.jobs)
}

// Job returns a copy of one job from the local collection.
func (c *Controller) Job(id string) (schema.Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.jobs[i].Clone(), true
	}
	return schema.Job{}, false
}

// --------------------------------------------------------------------------
// Edit dialog
// --------------------------------------------------------------------------

// OpenCreate opens the dialog with a blank form.
func (c *Controller) OpenCreate() EditForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialogGen++
	c.dialog = Dialog{Mode: DialogCreate, Form: DefaultForm()}
	return c.dialog.Form
}

// OpenEdit opens the dialog populated from a job in the local collection.
func (c *Controller) OpenEdit(jobID string) (EditForm, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(jobID)
	if i < 0 {
		return EditForm{}, ErrJobNotFound
	}
	c.dialogGen++
	c.dialog = Dialog{Mode: DialogEdit, JobID: jobID, Form: c.codec.FromJob(c.jobs[i])}
	return c.dialog.Form, nil
}

// CloseDialog discards the dialog. In-flight calls are not cancelled.
func (c *Controller) CloseDialog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialogGen++
	c.dialog = Dialog{}
}

// Dialog returns the current dialog state.
func (c *Controller) Dialog() Dialog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialog
}

// Submit sends the form for the open dialog: an update for an edit dialog
// (keeping the job's enabled flag), a create otherwise.
func (c *Controller) Submit(ctx context.Context, form EditForm) (schema.Job, error) {
	d := c.Dialog()
	if d.Mode != DialogEdit {
		return c.Create(ctx, form)
	}
	job, ok := c.Job(d.JobID)
	if !ok {
		c.notify.Error(c.t.T("cronJobNotFound", i18n.Params{"id": d.JobID}))
		return schema.Job{}, ErrJobNotFound
	}
	return c.Update(ctx, d.JobID, form, job.Enabled)
}

func (c *Controller) currentGen() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialogGen
}

func (c *Controller) closeDialogIf(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dialogGen == gen {
		c.dialogGen++
		c.dialog = Dialog{}
	}
}

// --------------------------------------------------------------------------
// Store operations
// --------------------------------------------------------------------------

// List refreshes the whole local collection from the store.
func (c *Controller) List(ctx context.Context) ([]schema.Job, error) {
	res, err := c.store.List(ctx)
	if err != nil {
		return nil, c.transportFailure("list", "", "cronLoadFailed", err)
	}
	if !res.Success {
		return nil, c.rejected("list", "", "cronLoadFailed", res.Message)
	}

	jobs := schema.CloneJobs(res.Jobs)
	c.mu.Lock()
	c.jobs = jobs
	c.mu.Unlock()
	return schema.CloneJobs(jobs), nil
}

// Create validates form and adds a job. On success the job joins the local
// collection and the dialog closes.
func (c *Controller) Create(ctx context.Context, form EditForm) (schema.Job, error) {
	if err := c.validate(form); err != nil {
		return schema.Job{}, err
	}
	gen := c.currentGen()

	res, err := c.store.Add(ctx, c.spec(form))
	if err != nil {
		return schema.Job{}, c.transportFailure("add", "", "cronAddFailed", err)
	}
	if !res.Success {
		return schema.Job{}, c.rejected("add", "", "cronAddFailed", res.Message)
	}

	slog.Info("cron: job added", "name", strings.TrimSpace(form.Name))
	c.notify.Success(c.t.T("cronAddSuccess", nil))
	c.closeDialogIf(gen)
	return c.apply(ctx, res.Job)
}

// Update validates form and rewrites job jobID. enabled is sent unchanged,
// so editing never toggles a job by itself.
func (c *Controller) Update(ctx context.Context, jobID string, form EditForm, enabled bool) (schema.Job, error) {
	if err := c.validate(form); err != nil {
		return schema.Job{}, err
	}
	gen := c.currentGen()

	res, err := c.store.Update(ctx, jobID, c.spec(form), enabled)
	if err != nil {
		return schema.Job{}, c.transportFailure("update", jobID, "cronEditFailed", err)
	}
	if !res.Success {
		return schema.Job{}, c.rejected("update", jobID, "cronEditFailed", res.Message)
	}

	slog.Info("cron: job updated", "id", jobID)
	c.notify.Success(c.t.T("cronEditSuccess", nil))
	c.closeDialogIf(gen)
	return c.apply(ctx, res.Job)
}

// SetEnabled enables or disables a job. Nothing but the enabled flag changes.
func (c *Controller) SetEnabled(ctx context.Context, jobID string, enabled bool) (schema.Job, error) {
	if _, ok := c.Job(jobID); !ok {
		c.notify.Error(c.t.T("cronJobNotFound", i18n.Params{"id": jobID}))
		return schema.Job{}, ErrJobNotFound
	}

	res, err := c.store.Enable(ctx, jobID, !enabled)
	if err != nil {
		return schema.Job{}, c.transportFailure("enable", jobID, "cronToggleFailed", err)
	}
	if !res.Success {
		return schema.Job{}, c.rejected("enable", jobID, "cronToggleFailed", res.Message)
	}

	c.mu.Lock()
	var out schema.Job
	if i := c.indexLocked(jobID); i >= 0 {
		c.jobs[i].Enabled = enabled
		out = c.jobs[i].Clone()
	}
	c.mu.Unlock()

	slog.Info("cron: job toggled", "id", jobID, "enabled", enabled)
	if enabled {
		c.notify.Success(c.t.T("cronEnableSuccess", nil))
	} else {
		c.notify.Success(c.t.T("cronDisableSuccess", nil))
	}
	return out, nil
}

// Remove asks for confirmation and deletes a job. The job leaves the local
// collection only once the store confirms; failures are not retried.
func (c *Controller) Remove(ctx context.Context, jobID string) error {
	name := jobID
	if job, ok := c.Job(jobID); ok && job.Name != "" {
		name = job.Name
	}

	if c.confirm != nil {
		ok, err := c.confirm.Confirm(ctx,
			c.t.T("cronRemoveJob", nil),
			c.t.T("cronRemoveConfirm", i18n.Params{"name": name}),
		)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDeclined
		}
	}

	res, err := c.store.Remove(ctx, jobID)
	if err != nil {
		return c.transportFailure("remove", jobID, "cronRemoveFailed", err)
	}
	if !res.Success {
		return c.rejected("remove", jobID, "cronRemoveFailed", res.Message)
	}

	c.mu.Lock()
	if i := c.indexLocked(jobID); i >= 0 {
		c.jobs = append(c.jobs[:i], c.jobs[i+1:]...)
	}
	c.mu.Unlock()

	slog.Info("cron: job removed", "id", jobID)
	c.notify.Success(c.t.T("cronRemoveSuccess", nil))
	return nil
}

// Run triggers a job out of band. The local collection is untouched; a later
// List shows the resulting run state.
func (c *Controller) Run(ctx context.Context, jobID string) error {
	res, err := c.store.Run(ctx, jobID)
	if err != nil {
		return c.transportFailure("run", jobID, "cronRunFailed", err)
	}
	if !res.Success {
		return c.rejected("run", jobID, "cronRunFailed", res.Message)
	}
	slog.Info("cron: job triggered", "id", jobID)
	c.notify.Success(c.t.T("cronRunSuccess", nil))
	return nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func (c *Controller) validate(form EditForm) error {
	err := c.codec.Validate(form)
	var verr *ValidationError
	if errors.As(err, &verr) {
		c.notify.Error(c.t.T(verr.Key, i18n.Params{"tz": strings.TrimSpace(form.TZ)}))
	}
	return err
}

func (c *Controller) spec(form EditForm) interfaces.JobSpec {
	return interfaces.JobSpec{
		Name:          strings.TrimSpace(form.Name),
		Message:       strings.TrimSpace(form.Message),
		ScheduleType:  form.ScheduleType,
		ScheduleValue: c.codec.ScheduleValue(form),
		TZ:            strings.TrimSpace(form.TZ),
	}
}

// apply puts a job echoed by the store into the local collection, replacing
// any copy with the same id. Without an echo the collection is re-listed.
func (c *Controller) apply(ctx context.Context, job *schema.Job) (schema.Job, error) {
	if job == nil {
		_, err := c.List(ctx)
		return schema.Job{}, err
	}
	j := job.Clone()
	c.mu.Lock()
	if i := c.indexLocked(j.ID); i >= 0 {
		c.jobs[i] = j
	} else {
		c.jobs = append(c.jobs, j)
	}
	c.mu.Unlock()
	return j.Clone(), nil
}

func (c *Controller) indexLocked(id string) int {
	for i := range c.jobs {
		if c.jobs[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) transportFailure(op, jobID, key string, err error) error {
	slog.Error("cron: store call failed", "op", op, "id", jobID, "err", err)
	c.notify.Error(c.t.T(key, nil))
	return &TransportError{Op: op, Err: err}
}

func (c *Controller) rejected(op, jobID, key, message string) error {
	slog.Warn("cron: store rejected call", "op", op, "id", jobID, "message", message)
	if message == "" {
		message = c.t.T(key, nil)
	}
	c.notify.Error(message)
	return &RejectedError{Op: op, Message: message}
}
