// Package guardian drives periodic battery checks and notifies a remote
// controller when charging has to be toggled.
package guardian

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ogulcanaydogan/battery-guardian/pkg/model"
	"github.com/ogulcanaydogan/battery-guardian/pkg/notify"
	"github.com/ogulcanaydogan/battery-guardian/pkg/policy"
	"github.com/ogulcanaydogan/battery-guardian/pkg/request"
	"github.com/ogulcanaydogan/battery-guardian/pkg/scheduler"
	"github.com/ogulcanaydogan/battery-guardian/pkg/sensor"
)

// State is the lifecycle state of an Engine.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// Recorder persists the outcome of check cycles.
type Recorder interface {
	RecordCheck(ctx context.Context, record *model.CheckRecord) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRecorder stores every check record in r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine runs check cycles at a fixed rate.
type Engine struct {
	settings *Settings
	sensor   sensor.Provider
	sender   notify.Sender
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
	sched    *scheduler.Scheduler

	mu    sync.Mutex
	state State
	last  *model.CheckRecord
}

// New creates an idle engine.
func New(settings *Settings, provider sensor.Provider, sender notify.Sender, opts ...Option) *Engine {
	e := &Engine{
		settings: settings,
		sensor:   provider,
		sender:   sender,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.sched = scheduler.New(e.now)
	return e
}

// Settings returns the live settings of the engine.
func (e *Engine) Settings() *Settings { return e.settings }

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Pending returns the number of scheduled checks.
func (e *Engine) Pending() int { return e.sched.Len() }

// LastCheck returns the record of the most recent check cycle.
func (e *Engine) LastCheck() (model.CheckRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return model.CheckRecord{}, false
	}
	return *e.last, true
}

// Start schedules the first check immediately. In blocking mode it runs
// checks until Stop is called or ctx is done; otherwise it runs the checks
// that are due and returns.
func (e *Engine) Start(ctx context.Context, blocking bool) error {
	e.mu.Lock()
	if e.state == StateRunning {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.state = StateRunning
	first := e.sched.Now()
	e.schedule(first)
	e.mu.Unlock()

	e.logger.Info("engine started",
		"check_interval", e.settings.CheckInterval().String(),
		"blocking", blocking,
	)
	if blocking {
		_, err := e.sched.Run(ctx, true)
		return err
	}
	_, err := e.Step(ctx)
	return err
}

// Step runs every check that is due and returns the delay until the next one.
func (e *Engine) Step(ctx context.Context) (time.Duration, error) {
	return e.sched.Run(ctx, false)
}

// Stop cancels all pending checks. A check in flight is not interrupted.
// Calling Stop more than once is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.sched.CancelAll()
	if e.state == StateRunning {
		e.state = StateStopped
		e.logger.Info("engine stopped", "cancelled", n)
	}
}

// schedule must be called with e.mu held.
func (e *Engine) schedule(deadline time.Time) {
	e.sched.EnterAt(deadline, func(ctx context.Context) {
		e.performCheck(ctx, deadline)
	})
}

func (e *Engine) performCheck(ctx context.Context, scheduled time.Time) {
	defer e.reschedule(scheduled)
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("check cycle panicked", "panic", r)
		}
	}()
	e.CheckOnce(ctx)
}

func (e *Engine) reschedule(previous time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateRunning {
		return
	}
	e.schedule(previous.Add(e.settings.CheckInterval()))
}

// CheckOnce runs a single check cycle outside of the schedule.
// Steady-state failures are reported in the returned record, never as errors.
func (e *Engine) CheckOnce(ctx context.Context) model.CheckRecord {
	record := e.check(ctx)

	e.mu.Lock()
	last := record
	e.last = &last
	e.mu.Unlock()

	if e.recorder != nil {
		if err := e.recorder.RecordCheck(ctx, &record); err != nil {
			e.logger.Error("record check", "error", err)
		}
	}
	return record
}

func (e *Engine) check(ctx context.Context) model.CheckRecord {
	record := model.CheckRecord{
		ID:        uuid.New().String(),
		Timestamp: e.now().UTC(),
		Action:    model.ActionNone,
	}

	state, err := e.sensor.Read(ctx)
	if err != nil {
		e.logger.Error("read power state", "error", err)
		record.Outcome = model.OutcomeSensorError
		record.Detail = err.Error()
		return record
	}
	record.IsCharging = state.IsCharging
	record.LeftInPercent = state.LeftInPercent

	intent := e.Intent(state)
	if intent.IsNone() {
		e.logger.Debug("charging must not be toggled",
			"is_charging", state.IsCharging,
			"left_in_percent", state.LeftInPercent,
		)
		record.Outcome = model.OutcomeNoAction
		return record
	}
	record.Action = model.ActionNotify

	req, err := request.Build(intent.Values, e.settings.Target())
	if err != nil {
		e.logger.Error("render request", "error", err)
		record.Outcome = model.OutcomeTemplateError
		record.Detail = err.Error()
		return record
	}
	record.Method = req.Method
	record.URL = req.URL

	result := e.sender.Send(ctx, req)
	record.Outcome = result.Outcome
	record.StatusCode = result.StatusCode
	record.Detail = result.Reason
	return record
}

// Intent returns the decision for state under the current settings.
// Templates without a recognized placeholder are notified on every cycle.
func (e *Engine) Intent(state model.PowerState) model.Intent {
	if !slices.Contains(e.settings.RequestKeys(), model.KeyNeedsCharging) {
		return model.Notify(nil)
	}
	intent := policy.Decide(state, e.settings.Thresholds())
	if !intent.IsNone() {
		e.logger.Debug("charging must be toggled",
			"needs_charging", intent.Values[model.KeyNeedsCharging],
			"left_in_percent", state.LeftInPercent,
		)
	}
	return intent
}

// Status is a point-in-time view of the engine.
type Status struct {
	State         State              `json:"state"`
	Thresholds    model.Thresholds   `json:"thresholds"`
	CheckInterval int                `json:"check_interval"`
	Method        string             `json:"request_method"`
	RemoteAddress string             `json:"remote_address"`
	Template      string             `json:"request_template"`
	Pending       int                `json:"pending"`
	LastCheck     *model.CheckRecord `json:"last_check,omitempty"`
}

// Status returns the current engine status.
func (e *Engine) Status() Status {
	target := e.settings.Target()
	status := Status{
		State:         e.State(),
		Thresholds:    e.settings.Thresholds(),
		CheckInterval: e.settings.CheckIntervalSeconds(),
		Method:        target.Method,
		RemoteAddress: target.Address,
		Template:      target.Template,
		Pending:       e.Pending(),
	}
	if last, ok := e.LastCheck(); ok {
		status.LastCheck = &last
	}
	return status
}
