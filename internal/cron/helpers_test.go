package cron

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crystaldolphin/crondeck/internal/i18n"
	"github.com/crystaldolphin/crondeck/internal/interfaces"
	"github.com/crystaldolphin/crondeck/internal/schema"
)

func english(t *testing.T) *i18n.Catalog {
	t.Helper()
	c, err := i18n.Load("en")
	require.NoError(t, err)
	return c
}

// recorder collects notifications and answers confirmations.
type recorder struct {
	mu         sync.Mutex
	successes  []string
	errors     []string
	prompts    []string
	answer     bool
	confirmErr error
}

func (r *recorder) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, msg)
}

func (r *recorder) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

func (r *recorder) Confirm(_ context.Context, title, message string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, title+": "+message)
	return r.answer, r.confirmErr
}

// fakeStore is an in-memory CronStore that counts calls.
type fakeStore struct {
	mu     sync.Mutex
	jobs   []schema.Job
	nextID int
	calls  map[string]int

	reject  string // when set, mutations answer success=false with this message
	failErr error  // when set, every call fails with this error
	noEcho  bool   // Add/Update answer without the job
	codec   *Codec
}

func newFakeStore() *fakeStore {
	return &fakeStore{calls: map[string]int{}, codec: NewCodec(time.UTC)}
}

func (f *fakeStore) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeStore) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.calls {
		n += v
	}
	return n
}

func (f *fakeStore) begin(op string) (interfaces.StoreResult, error) {
	f.calls[op]++
	if f.failErr != nil {
		return interfaces.StoreResult{}, f.failErr
	}
	if f.reject != "" && op != "list" {
		return interfaces.StoreResult{Success: false, Message: f.reject}, nil
	}
	return interfaces.StoreResult{Success: true}, nil
}

func (f *fakeStore) List(context.Context) (interfaces.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, err := f.begin("list")
	if err != nil || !res.Success {
		return interfaces.ListResult{StoreResult: res}, err
	}
	return interfaces.ListResult{StoreResult: res, Jobs: schema.CloneJobs(f.jobs)}, nil
}

func (f *fakeStore) schedule(spec interfaces.JobSpec) schema.Schedule {
	form := DefaultForm()
	form.ScheduleType = spec.ScheduleType
	form.TZ = spec.TZ
	switch spec.ScheduleType {
	case schema.KindEvery:
		form.EverySeconds = spec.ScheduleValue
	case schema.KindAt:
		form.AtTime = spec.ScheduleValue
	default:
		return schema.Cron{Expr: spec.ScheduleValue, TZ: spec.TZ}
	}
	return f.codec.ToSchedule(form)
}

func (f *fakeStore) Add(_ context.Context, spec interfaces.JobSpec) (interfaces.JobResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, err := f.begin("add")
	if err != nil || !res.Success {
		return interfaces.JobResult{StoreResult: res}, err
	}
	f.nextID++
	next := int64(1_700_000_000_000)
	job := schema.Job{
		ID:       fmt.Sprintf("job%d", f.nextID),
		Name:     spec.Name,
		Enabled:  true,
		Schedule: f.schedule(spec),
		Payload:  schema.Payload{Kind: "agent_turn", Message: spec.Message},
		State:    schema.RunState{NextRunAtMs: &next},
	}
	f.jobs = append(f.jobs, job)
	if f.noEcho {
		return interfaces.JobResult{StoreResult: res}, nil
	}
	out := job.Clone()
	return interfaces.JobResult{StoreResult: res, Job: &out}, nil
}

func (f *fakeStore) Update(_ context.Context, id string, spec interfaces.JobSpec, enabled bool) (interfaces.JobResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, err := f.begin("update")
	if err != nil || !res.Success {
		return interfaces.JobResult{StoreResult: res}, err
	}
	for i := range f.jobs {
		if f.jobs[i].ID == id {
			f.jobs[i].Name = spec.Name
			f.jobs[i].Payload.Message = spec.Message
			f.jobs[i].Schedule = f.schedule(spec)
			f.jobs[i].Enabled = enabled
			if f.noEcho {
				return interfaces.JobResult{StoreResult: res}, nil
			}
			out := f.jobs[i].Clone()
			return interfaces.JobResult{StoreResult: res, Job: &out}, nil
		}
	}
	return interfaces.JobResult{StoreResult: interfaces.StoreResult{Message: "job not found"}}, nil
}

func (f *fakeStore) Remove(_ context.Context, id string) (interfaces.StoreResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, err := f.begin("remove")
	if err != nil || !res.Success {
		return res, err
	}
	for i := range f.jobs {
		if f.jobs[i].ID == id {
			f.jobs = append(f.jobs[:i], f.jobs[i+1:]...)
			return res, nil
		}
	}
	return interfaces.StoreResult{Message: "job not found"}, nil
}

func (f *fakeStore) Enable(_ context.Context, id string, disable bool) (interfaces.StoreResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, err := f.begin("enable")
	if err != nil || !res.Success {
		return res, err
	}
	for i := range f.jobs {
		if f.jobs[i].ID == id {
			f.jobs[i].Enabled = !disable
			return res, nil
		}
	}
	return interfaces.StoreResult{Message: "job not found"}, nil
}

func (f *fakeStore) Run(_ context.Context, id string) (interfaces.StoreResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, err := f.begin("run")
	if err != nil || !res.Success {
		return res, err
	}
	for i := range f.jobs {
		if f.jobs[i].ID == id {
			last := int64(1_600_000_000_000)
			f.jobs[i].State.LastRunAtMs = &last
			f.jobs[i].State.LastStatus = schema.StatusSuccess
			return res, nil
		}
	}
	return interfaces.StoreResult{Message: "job not found"}, nil
}
