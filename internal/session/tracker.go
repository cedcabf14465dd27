package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/geoclaim/internal/filter"
	"github.com/banshee-data/geoclaim/internal/geo"
	"github.com/banshee-data/geoclaim/internal/path"
)

// Outcome describes what happened to a single offered fix.
type Outcome int

const (
	// OutcomeIgnored means the tracker was not tracking.
	OutcomeIgnored Outcome = iota
	OutcomeInvalid
	OutcomeNoise
	OutcomeAccepted
	// OutcomeFatal means the fix implied an impossible speed and the
	// session was cancelled.
	OutcomeFatal
)

var outcomeNames = [...]string{"ignored", "invalid", "noise", "accepted", "fatal_speed"}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// Step is the result of offering one fix to the tracker.
type Step struct {
	Outcome Outcome
	Warning filter.SpeedWarning
	Closed  bool
}

// Tracker is the capture state machine. It is not safe for concurrent use;
// Session owns one and drives it from a single goroutine. The path store is
// the exception and may be snapshotted from any goroutine.
type Tracker struct {
	cfg   Config
	noise filter.NoiseFilter
	guard filter.SpeedGuard
	path  *path.Store

	state       State
	id          string
	lastTime    time.Time
	warning     filter.SpeedWarning
	result      *ValidationResult
	startedAt   time.Time
	completedAt time.Time
}

// NewTracker returns an idle tracker.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		cfg:   cfg,
		noise: filter.NewNoiseFilter(cfg.MinDistance),
		guard: filter.NewSpeedGuard(cfg.AdvisoryKPH, cfg.FatalKPH),
		path:  path.NewStore(max(cfg.ClosureMinPoints, 16)),
	}
}

// Start moves Idle to Tracking with an empty path and a fresh session ID.
func (t *Tracker) Start(now time.Time) error {
	if t.state != Idle {
		return fmt.Errorf("start from %s: %w", t.state, ErrInvalidTransition)
	}
	t.path.Clear()
	t.state = Tracking
	t.id = uuid.NewString()
	t.lastTime = time.Time{}
	t.warning = filter.SpeedWarning{}
	t.result = nil
	t.startedAt = now
	t.completedAt = time.Time{}
	return nil
}

// Cancel moves Tracking to Cancelled and discards the path.
func (t *Tracker) Cancel(now time.Time) error {
	if t.state != Tracking {
		return fmt.Errorf("cancel from %s: %w", t.state, ErrInvalidTransition)
	}
	t.cancel(now)
	return nil
}

func (t *Tracker) cancel(now time.Time) {
	t.path.Clear()
	t.state = Cancelled
	t.completedAt = now
}

// Reset returns a Closed or Cancelled tracker to Idle.
func (t *Tracker) Reset() error {
	if !t.state.Terminal() {
		return fmt.Errorf("reset from %s: %w", t.state, ErrInvalidTransition)
	}
	t.path.Clear()
	t.state = Idle
	t.id = ""
	t.lastTime = time.Time{}
	t.warning = filter.SpeedWarning{}
	t.result = nil
	t.startedAt = time.Time{}
	t.completedAt = time.Time{}
	return nil
}

// Offer runs one fix through the noise filter, the speed guard, the path
// append and the closure check. Fixes without a timestamp are stamped with
// now.
func (t *Tracker) Offer(fix geo.Fix, now time.Time) Step {
	if t.state != Tracking {
		return Step{Outcome: OutcomeIgnored}
	}
	if !fix.Point.Valid() {
		return Step{Outcome: OutcomeInvalid}
	}

	at := fix.Time
	if at.IsZero() {
		at = now
	}

	last, hasLast := t.path.Last()
	var lastPtr *geo.Point
	if hasLast {
		lastPtr = &last
	}
	if !t.noise.Accept(fix.Point, lastPtr) {
		return Step{Outcome: OutcomeNoise}
	}

	var w filter.SpeedWarning
	if hasLast {
		w = t.guard.Classify(fix.Point, at, last, t.lastTime)
	}
	t.warning = w

	if w.Level == filter.SpeedFatal {
		t.cancel(now)
		return Step{Outcome: OutcomeFatal, Warning: w}
	}

	t.path.Append(fix.Point)
	t.lastTime = at

	step := Step{Outcome: OutcomeAccepted, Warning: w}
	if t.closureReached() {
		pts := t.path.Snapshot()
		res := Validate(pts, t.cfg)
		t.result = &res
		t.state = Closed
		t.completedAt = now
		step.Closed = true
	}
	return step
}

func (t *Tracker) closureReached() bool {
	return t.path.Count() >= t.cfg.ClosureMinPoints &&
		t.path.ClosureDistance() <= t.cfg.ClosureDistance
}

// State returns the current state.
func (t *Tracker) State() State { return t.state }

// ID returns the session ID, empty while Idle.
func (t *Tracker) ID() string { return t.id }

// Warning returns the speed warning from the last accepted or fatal fix.
func (t *Tracker) Warning() filter.SpeedWarning { return t.warning }

// Result returns the verdict, nil until Closed.
func (t *Tracker) Result() *ValidationResult {
	if t.result == nil {
		return nil
	}
	res := *t.result
	return &res
}

// Path returns a snapshot of the captured path.
func (t *Tracker) Path() []geo.Point { return t.path.Snapshot() }

// Claim builds the uploader payload for a passed session.
func (t *Tracker) Claim() (Claim, bool) {
	if t.state != Closed || t.result == nil || !t.result.Passed {
		return Claim{}, false
	}
	return Claim{
		ID:             uuid.NewString(),
		SessionID:      t.id,
		Points:         t.path.Snapshot(),
		Area:           t.result.Area,
		PointCount:     t.result.PointCount,
		WalkedDistance: t.result.WalkedDistance,
		StartedAt:      t.startedAt,
		CompletedAt:    t.completedAt,
	}, true
}

// Status returns an immutable view of the tracker.
func (t *Tracker) Status() Status {
	return Status{
		State:          t.state,
		SessionID:      t.id,
		PathLength:     t.path.Count(),
		WalkedDistance: t.path.WalkedDistance(),
		Warning:        t.warning,
		Result:         t.Result(),
		StartedAt:      t.startedAt,
		CompletedAt:    t.completedAt,
	}
}
