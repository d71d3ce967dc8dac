// Package schema holds the data types shared between the console, the job
// store contract and the file-backed store.
//
// The JSON form is byte-compatible with nanobot's jobs.json:
//
//	{ "id":"…", "name":"…", "enabled":true,
//	  "schedule":{"kind":"every","everyMs":…,"tz":"…"},
//	  "payload":{"kind":"agent_turn","message":"…","deliver":false},
//	  "state":{"nextRunAtMs":…,"lastRunAtMs":…,"lastStatus":"success"} }
package schema

import (
	"encoding/json"
)

// ScheduleKind discriminates the three schedule variants.
type ScheduleKind string

const (
	KindCron  ScheduleKind = "cron"
	KindEvery ScheduleKind = "every"
	KindAt    ScheduleKind = "at"
)

// Valid reports whether k names one of the three schedule variants.
func (k ScheduleKind) Valid() bool {
	switch k {
	case KindCron, KindEvery, KindAt:
		return true
	}
	return false
}

// Schedule is one of Cron, Every or At.
type Schedule interface {
	Kind() ScheduleKind
	// Zone returns the IANA timezone name, or "" when unset.
	Zone() string
	isSchedule()
}

// Cron fires on a 5-field cron expression.
type Cron struct {
	Expr string
	TZ   string
}

// Every fires every IntervalMs milliseconds. Zero means the interval is absent.
type Every struct {
	IntervalMs int64
	TZ         string
}

// At fires once at AtMs (Unix epoch milliseconds). Zero means the time is absent.
type At struct {
	AtMs int64
	TZ   string
}

func (Cron) Kind() ScheduleKind  { return KindCron }
func (Every) Kind() ScheduleKind { return KindEvery }
func (At) Kind() ScheduleKind    { return KindAt }

func (s Cron) Zone() string  { return s.TZ }
func (s Every) Zone() string { return s.TZ }
func (s At) Zone() string    { return s.TZ }

func (Cron) isSchedule()  {}
func (Every) isSchedule() {}
func (At) isSchedule()    {}

// Payload is what the agent receives when a job fires.
type Payload struct {
	Kind    string `json:"kind"` // "agent_turn"
	Message string `json:"message"`
	Deliver bool   `json:"deliver"`
	Channel string `json:"channel,omitempty"`
	To      string `json:"to,omitempty"`
}

// RunStatus is the outcome of the last run.
type RunStatus string

const (
	StatusSuccess RunStatus = "success"
	StatusFailed  RunStatus = "failed"
)

// RunState is owned by the scheduler; the console only displays it.
type RunState struct {
	NextRunAtMs *int64    `json:"nextRunAtMs,omitempty"`
	LastRunAtMs *int64    `json:"lastRunAtMs,omitempty"`
	LastStatus  RunStatus `json:"lastStatus,omitempty"`
	LastError   string    `json:"lastError,omitempty"`
}

// Job is a scheduled agent task. ID is assigned by the store.
type Job struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Enabled        bool     `json:"enabled"`
	Schedule       Schedule `json:"-"`
	Payload        Payload  `json:"payload"`
	State          RunState `json:"state"`
	CreatedAtMs    int64    `json:"createdAtMs,omitempty"`
	UpdatedAtMs    int64    `json:"updatedAtMs,omitempty"`
	DeleteAfterRun bool     `json:"deleteAfterRun,omitempty"`
}

// Clone returns a deep copy of j; the run-state pointers are not shared.
func (j Job) Clone() Job {
	out := j
	out.State.NextRunAtMs = cloneInt64(j.State.NextRunAtMs)
	out.State.LastRunAtMs = cloneInt64(j.State.LastRunAtMs)
	return out
}

// CloneJobs deep-copies a job slice. A nil input yields an empty slice.
func CloneJobs(jobs []Job) []Job {
	out := make([]Job, len(jobs))
	for i, j := range jobs {
		out[i] = j.Clone()
	}
	return out
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// --------------------------------------------------------------------------
// JSON
// --------------------------------------------------------------------------

type scheduleJSON struct {
	Kind    ScheduleKind `json:"kind"`
	AtMs    *int64       `json:"atMs,omitempty"`
	EveryMs *int64       `json:"everyMs,omitempty"`
	Expr    *string      `json:"expr,omitempty"`
	TZ      *string      `json:"tz,omitempty"`
}

func toWire(s Schedule) *scheduleJSON {
	if s == nil {
		return nil
	}
	w := &scheduleJSON{Kind: s.Kind()}
	if tz := s.Zone(); tz != "" {
		w.TZ = &tz
	}
	switch v := s.(type) {
	case Cron:
		expr := v.Expr
		w.Expr = &expr
	case Every:
		if v.IntervalMs != 0 {
			ms := v.IntervalMs
			w.EveryMs = &ms
		}
	case At:
		if v.AtMs != 0 {
			ms := v.AtMs
			w.AtMs = &ms
		}
	}
	return w
}

// fromWire returns nil for a missing schedule or an unknown kind.
func fromWire(w *scheduleJSON) Schedule {
	if w == nil {
		return nil
	}
	var tz string
	if w.TZ != nil {
		tz = *w.TZ
	}
	switch w.Kind {
	case KindCron:
		var expr string
		if w.Expr != nil {
			expr = *w.Expr
		}
		return Cron{Expr: expr, TZ: tz}
	case KindEvery:
		var ms int64
		if w.EveryMs != nil {
			ms = *w.EveryMs
		}
		return Every{IntervalMs: ms, TZ: tz}
	case KindAt:
		var ms int64
		if w.AtMs != nil {
			ms = *w.AtMs
		}
		return At{AtMs: ms, TZ: tz}
	}
	return nil
}

// MarshalJSON writes the schedule as the flat {"kind", …} object.
func (j Job) MarshalJSON() ([]byte, error) {
	type alias Job
	return json.Marshal(struct {
		alias
		Schedule *scheduleJSON `json:"schedule"`
	}{alias: alias(j), Schedule: toWire(j.Schedule)})
}

// UnmarshalJSON reads the flat schedule object back into the sum type.
func (j *Job) UnmarshalJSON(data []byte) error {
	type alias Job
	aux := struct {
		*alias
		Schedule *scheduleJSON `json:"schedule"`
	}{alias: (*alias)(j)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	j.Schedule = fromWire(aux.Schedule)
	return nil
}
