// Package jobstore is a file-backed job store.
//
// JSON persistence is byte-compatible with nanobot's jobs.json:
//
//	{ "version": 1, "jobs": [ { "id":"…", "name":"…", "enabled":true,
//	    "schedule":{"kind":"every","everyMs":…},
//	    "payload":{"kind":"agent_turn","message":"…","deliver":false},
//	    "state":{"nextRunAtMs":…,"lastRunAtMs":…,"lastStatus":"success"},
//	    "createdAtMs":…, "updatedAtMs":… } ] }
//
// The file is re-read on every call so several console processes can share it.
package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	robfigcron "github.com/robfig/cron/v3"

	"github.com/crystaldolphin/crondeck/internal/interfaces"
	"github.com/crystaldolphin/crondeck/internal/schema"
)

var cronParser = robfigcron.NewParser(
	robfigcron.Minute | robfigcron.Hour | robfigcron.Dom | robfigcron.Month | robfigcron.Dow,
)

// RunFunc executes a job's payload for a manual run.
type RunFunc func(ctx context.Context, job schema.Job) error

type document struct {
	Version int          `json:"version"`
	Jobs    []schema.Job `json:"jobs"`
}

// FileStore implements interfaces.CronStore over a jobs.json file.
type FileStore struct {
	path string
	loc  *time.Location
	now  func() time.Time

	mu    sync.Mutex
	onRun RunFunc
}

var _ interfaces.CronStore = (*FileStore)(nil)

// NewFileStore creates a store at path. loc interprets one-shot times that
// carry no timezone (nil means time.Local).
func NewFileStore(path string, loc *time.Location) *FileStore {
	if loc == nil {
		loc = time.Local
	}
	return &FileStore{path: path, loc: loc, now: time.Now}
}

// SetOnRun registers the callback executed by Run.
func (s *FileStore) SetOnRun(fn RunFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRun = fn
}

// Path returns the jobs.json location.
func (s *FileStore) Path() string { return s.path }

// List returns all jobs ordered by next run; jobs without one go last.
func (s *FileStore) List(_ context.Context) (interfaces.ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return interfaces.ListResult{}, err
	}
	jobs := doc.Jobs
	sort.SliceStable(jobs, func(i, k int) bool {
		return nextOrMax(jobs[i]) < nextOrMax(jobs[k])
	})
	return interfaces.ListResult{StoreResult: ok(), Jobs: jobs}, nil
}

// Add creates an enabled job with a fresh id.
func (s *FileStore) Add(_ context.Context, spec interfaces.JobSpec) (interfaces.JobResult, error) {
	sched, err := s.parseSchedule(spec)
	if err != nil {
		return interfaces.JobResult{StoreResult: reject(err.Error())}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return interfaces.JobResult{}, err
	}

	now := s.nowMs()
	job := schema.Job{
		ID:       shortID(),
		Name:     spec.Name,
		Enabled:  true,
		Schedule: sched,
		Payload: schema.Payload{
			Kind:    "agent_turn",
			Message: spec.Message,
		},
		State:       schema.RunState{NextRunAtMs: computeNextRun(sched, now, s.loc)},
		CreatedAtMs: now,
		UpdatedAtMs: now,
	}
	doc.Jobs = append(doc.Jobs, job)
	if err := s.save(doc); err != nil {
		return interfaces.JobResult{}, err
	}

	slog.Info("jobstore: added job", "name", job.Name, "id", job.ID, "kind", sched.Kind())
	return interfaces.JobResult{StoreResult: ok(), Job: &job}, nil
}

// Update rewrites a job's definition and enabled flag. Last-run state is kept.
func (s *FileStore) Update(_ context.Context, jobID string, spec interfaces.JobSpec, enabled bool) (interfaces.JobResult, error) {
	sched, err := s.parseSchedule(spec)
	if err != nil {
		return interfaces.JobResult{StoreResult: reject(err.Error())}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return interfaces.JobResult{}, err
	}
	i := indexOf(doc.Jobs, jobID)
	if i < 0 {
		return interfaces.JobResult{StoreResult: notFound(jobID)}, nil
	}

	now := s.nowMs()
	j := &doc.Jobs[i]
	j.Name = spec.Name
	j.Payload.Message = spec.Message
	j.Schedule = sched
	j.Enabled = enabled
	j.UpdatedAtMs = now
	if enabled {
		j.State.NextRunAtMs = computeNextRun(sched, now, s.loc)
	}
	if err := s.save(doc); err != nil {
		return interfaces.JobResult{}, err
	}

	out := j.Clone()
	return interfaces.JobResult{StoreResult: ok(), Job: &out}, nil
}

// Remove deletes a job.
func (s *FileStore) Remove(_ context.Context, jobID string) (interfaces.StoreResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return interfaces.StoreResult{}, err
	}
	i := indexOf(doc.Jobs, jobID)
	if i < 0 {
		return notFound(jobID), nil
	}
	doc.Jobs = append(doc.Jobs[:i], doc.Jobs[i+1:]...)
	if err := s.save(doc); err != nil {
		return interfaces.StoreResult{}, err
	}
	slog.Info("jobstore: removed job", "id", jobID)
	return ok(), nil
}

// Enable sets enabled to !disable. Run state is kept; enabling recomputes
// the next run.
func (s *FileStore) Enable(_ context.Context, jobID string, disable bool) (interfaces.StoreResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return interfaces.StoreResult{}, err
	}
	i := indexOf(doc.Jobs, jobID)
	if i < 0 {
		return notFound(jobID), nil
	}

	now := s.nowMs()
	j := &doc.Jobs[i]
	j.Enabled = !disable
	j.UpdatedAtMs = now
	if j.Enabled {
		j.State.NextRunAtMs = computeNextRun(j.Schedule, now, s.loc)
	}
	if err := s.save(doc); err != nil {
		return interfaces.StoreResult{}, err
	}
	return ok(), nil
}

// Run executes a job now, disabled or not, and records the outcome.
func (s *FileStore) Run(ctx context.Context, jobID string) (interfaces.StoreResult, error) {
	s.mu.Lock()
	doc, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return interfaces.StoreResult{}, err
	}
	i := indexOf(doc.Jobs, jobID)
	if i < 0 {
		s.mu.Unlock()
		return notFound(jobID), nil
	}
	job := doc.Jobs[i].Clone()
	onRun := s.onRun
	s.mu.Unlock()

	startMs := s.nowMs()
	slog.Info("jobstore: executing job", "name", job.Name, "id", job.ID)

	status := schema.StatusSuccess
	var lastErr string
	if onRun != nil {
		if err := onRun(ctx, job); err != nil {
			status = schema.StatusFailed
			lastErr = err.Error()
			slog.Error("jobstore: job failed", "name", job.Name, "err", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Reload: the file may have changed while the job ran.
	doc, err = s.load()
	if err != nil {
		return interfaces.StoreResult{}, err
	}
	if i = indexOf(doc.Jobs, jobID); i < 0 {
		return ok(), nil
	}

	now := s.nowMs()
	j := &doc.Jobs[i]
	j.State.LastRunAtMs = &startMs
	j.State.LastStatus = status
	j.State.LastError = lastErr
	j.UpdatedAtMs = now
	if j.Schedule != nil && j.Schedule.Kind() == schema.KindAt {
		j.Enabled = false
		j.State.NextRunAtMs = nil
	} else if j.Enabled {
		j.State.NextRunAtMs = computeNextRun(j.Schedule, now, s.loc)
	}
	if err := s.save(doc); err != nil {
		return interfaces.StoreResult{}, err
	}
	return ok(), nil
}

// --------------------------------------------------------------------------
// Schedule parsing
// --------------------------------------------------------------------------

func (s *FileStore) parseSchedule(spec interfaces.JobSpec) (schema.Schedule, error) {
	tz := strings.TrimSpace(spec.TZ)
	loc, err := schema.LoadZone(tz, s.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q", tz)
	}
	value := strings.TrimSpace(spec.ScheduleValue)

	switch spec.ScheduleType {
	case schema.KindCron:
		if _, err := cronParser.Parse(value); err != nil {
			return nil, fmt.Errorf("invalid cron expression %q: %v", value, err)
		}
		return schema.Cron{Expr: value, TZ: tz}, nil
	case schema.KindEvery:
		ms, err := schema.ParseEverySeconds(value)
		if err != nil {
			return nil, fmt.Errorf("invalid interval %q: must be a positive number of seconds", value)
		}
		return schema.Every{IntervalMs: ms, TZ: tz}, nil
	case schema.KindAt:
		ms, err := schema.ParseAtTime(value, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid run time %q", value)
		}
		return schema.At{AtMs: ms, TZ: tz}, nil
	}
	return nil, fmt.Errorf("unknown schedule kind %q", spec.ScheduleType)
}

// computeNextRun mirrors the scheduler's next-run rule. Nil means no
// upcoming run.
func computeNextRun(sched schema.Schedule, nowMs int64, fallback *time.Location) *int64 {
	switch v := sched.(type) {
	case schema.At:
		if v.AtMs > nowMs {
			ms := v.AtMs
			return &ms
		}
	case schema.Every:
		if v.IntervalMs > 0 {
			ms := nowMs + v.IntervalMs
			return &ms
		}
	case schema.Cron:
		loc, err := schema.LoadZone(v.TZ, fallback)
		if err != nil {
			loc = fallback
		}
		parsed, err := cronParser.Parse(v.Expr)
		if err != nil {
			return nil
		}
		ms := parsed.Next(time.UnixMilli(nowMs).In(loc)).UnixMilli()
		return &ms
	}
	return nil
}

// --------------------------------------------------------------------------
// Persistence
// --------------------------------------------------------------------------

func (s *FileStore) load() (document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return document{Version: 1}, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	return doc, nil
}

func (s *FileStore) save(doc document) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if doc.Jobs == nil {
		doc.Jobs = []schema.Job{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal jobs: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Utility
// --------------------------------------------------------------------------

func (s *FileStore) nowMs() int64 { return s.now().UnixMilli() }

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func indexOf(jobs []schema.Job, id string) int {
	for i := range jobs {
		if jobs[i].ID == id {
			return i
		}
	}
	return -1
}

func nextOrMax(j schema.Job) int64 {
	if j.State.NextRunAtMs == nil {
		return int64(^uint64(0) >> 1)
	}
	return *j.State.NextRunAtMs
}

func ok() interfaces.StoreResult { return interfaces.StoreResult{Success: true} }

func reject(msg string) interfaces.StoreResult {
	return interfaces.StoreResult{Success: false, Message: msg}
}

func notFound(id string) interfaces.StoreResult {
	return reject(fmt.Sprintf("job %s not found", id))
}
