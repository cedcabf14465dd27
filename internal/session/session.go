// Package session drives a geofenced capture: it samples the freshest fix
// on a fixed cadence, filters it, appends it to the walk and validates the
// walk once it closes on itself.
//
// Tracker is the synchronous state machine. Session wraps one Tracker in a
// single goroutine (Run) and exposes commands, status snapshots and event
// subscriptions that are safe to use from any goroutine.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/geoclaim/internal/coords"
	"github.com/banshee-data/geoclaim/internal/filter"
	"github.com/banshee-data/geoclaim/internal/geo"
	"github.com/banshee-data/geoclaim/internal/monitoring"
	"github.com/banshee-data/geoclaim/internal/timeutil"
)

// subscriberBuffer is the per-subscriber event queue. Events to a full queue
// are dropped.
const subscriberBuffer = 32

const uploadTimeout = 10 * time.Second

type commandKind int

const (
	cmdStart commandKind = iota
	cmdCancel
	cmdReset
)

type command struct {
	kind  commandKind
	reply chan error
}

// Session owns one Tracker and runs it on a single goroutine.
type Session struct {
	cfg      Config
	tracker  *Tracker
	source   PositionSource
	uploader Uploader
	clock    timeutil.Clock
	metrics  *monitoring.Metrics
	log      *EventLog

	cmds    chan command
	done    chan struct{}
	running atomic.Bool
	status  atomic.Pointer[Status]

	subscriberMu sync.Mutex
	subscribers  map[string]chan Event

	uploads sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock, typically with a timeutil.MockClock.
func WithClock(c timeutil.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithUploader sets the collaborator that receives passed claims.
func WithUploader(u Uploader) Option {
	return func(s *Session) { s.uploader = u }
}

// WithMetrics records session activity in m.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// New returns an idle session reading fixes from src. Call Run to start the
// session goroutine before issuing commands.
func New(cfg Config, src PositionSource, opts ...Option) *Session {
	s := &Session{
		cfg:         cfg,
		tracker:     NewTracker(cfg),
		source:      src,
		clock:       timeutil.RealClock{},
		log:         NewEventLog(cfg.EventLogSize),
		cmds:        make(chan command),
		done:        make(chan struct{}),
		subscribers: make(map[string]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.publish()
	return s
}

// Run processes commands and sampling ticks until ctx is cancelled. It must
// be called exactly once.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("session: Run called twice")
	}
	defer close(s.done)
	defer s.uploads.Wait()

	var ticker timeutil.Ticker
	var tickC <-chan time.Time
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tickC = nil
		}
	}
	defer stopTicker()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case cmd := <-s.cmds:
			err := s.handle(cmd.kind)
			if s.tracker.State() != Tracking {
				stopTicker()
			} else if ticker == nil {
				ticker = s.clock.NewTicker(s.cfg.SampleInterval)
				tickC = ticker.C()
			}
			cmd.reply <- err

		case now := <-tickC:
			s.tick(ctx, now)
			if s.tracker.State() != Tracking {
				stopTicker()
			}
		}
	}
}

func (s *Session) handle(kind commandKind) error {
	now := s.clock.Now()
	switch kind {
	case cmdStart:
		if err := s.tracker.Start(now); err != nil {
			return err
		}
		s.log.Add(now, LevelInfo, "session %s started", s.tracker.ID())
	case cmdCancel:
		id := s.tracker.ID()
		if err := s.tracker.Cancel(now); err != nil {
			return err
		}
		s.log.Add(now, LevelWarning, "session %s cancelled", id)
		s.metrics.Session("cancelled")
	case cmdReset:
		if err := s.tracker.Reset(); err != nil {
			return err
		}
		s.log.Add(now, LevelInfo, "session reset")
	}
	s.publish()
	s.emit(Event{Kind: EventState, State: s.tracker.State(), Time: now})
	return nil
}

func (s *Session) tick(ctx context.Context, now time.Time) {
	fix, ok := s.source.LatestFix()
	if !ok {
		return
	}

	step := s.tracker.Offer(fix, now)
	switch step.Outcome {
	case OutcomeIgnored:
		return
	case OutcomeInvalid:
		s.metrics.Fix(monitoring.FixInvalid)
		s.log.Add(now, LevelError, "discarded invalid fix %s", fix)
		return
	case OutcomeNoise:
		s.metrics.Fix(monitoring.FixNoise)
		return
	case OutcomeFatal:
		s.metrics.Fix(monitoring.FixFatalSpeed)
		s.metrics.SpeedWarning(step.Warning.Level.String())
		s.metrics.Session("cancelled")
		s.log.Add(now, LevelError, "speed %s, session cancelled", step.Warning)
		s.publish()
		s.emit(Event{Kind: EventWarning, State: Cancelled, Warning: step.Warning, Time: now})
		s.emit(Event{Kind: EventState, State: Cancelled, Time: now})
		return
	}

	s.metrics.Fix(monitoring.FixAccepted)
	count := s.tracker.path.Count()
	s.publish()
	s.emit(Event{Kind: EventPoint, State: s.tracker.State(), Warning: step.Warning, PathLength: count, Time: now})
	if step.Warning.Level == filter.SpeedAdvisory {
		s.metrics.SpeedWarning(step.Warning.Level.String())
		s.log.Add(now, LevelWarning, "speed %s, slow down", step.Warning)
		s.emit(Event{Kind: EventWarning, State: Tracking, Warning: step.Warning, PathLength: count, Time: now})
	}

	if step.Closed {
		s.closed(ctx, now)
	}
}

func (s *Session) closed(ctx context.Context, now time.Time) {
	res := s.tracker.Result()
	if res.Passed {
		s.metrics.Session("passed")
		s.metrics.ObserveClaimArea(res.Area)
		s.log.Add(now, LevelSuccess, "loop closed with %d points, area %.1f m²", res.PointCount, res.Area)
	} else {
		s.metrics.Session("failed")
		s.log.Add(now, LevelWarning, "loop closed with %d points, rejected: %s", res.PointCount, res.FailureReason)
	}
	s.emit(Event{Kind: EventResult, State: Closed, Result: res, PathLength: res.PointCount, Time: now})
	s.emit(Event{Kind: EventState, State: Closed, PathLength: res.PointCount, Time: now})

	claim, ok := s.tracker.Claim()
	if !ok || s.uploader == nil {
		return
	}
	s.uploads.Add(1)
	go s.upload(ctx, claim)
}

// upload hands claim to the uploader off the session goroutine, so commands
// are served while it runs. Shutdown does not abort it; Run waits for it.
func (s *Session) upload(ctx context.Context, claim Claim) {
	defer s.uploads.Done()
	uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uploadTimeout)
	defer cancel()
	if err := s.uploader.Upload(uctx, claim); err != nil {
		s.metrics.UploadError()
		s.log.Add(s.clock.Now(), LevelError, "upload of claim %s failed: %v", claim.ID, err)
		return
	}
	s.log.Add(s.clock.Now(), LevelSuccess, "claim %s uploaded", claim.ID)
}

// Start checks the source's authorization, requesting it once if it is still
// undetermined, and then moves the session from Idle to Tracking.
func (s *Session) Start(ctx context.Context) error {
	auth := s.source.Authorization()
	if auth == AuthUndetermined {
		auth = s.source.RequestAuthorization(ctx)
	}
	if auth != AuthGranted {
		s.log.Add(s.clock.Now(), LevelError, "position source %s", auth)
		return ErrNotAuthorized
	}
	return s.send(ctx, cmdStart)
}

// Cancel aborts a tracking session and discards its path.
func (s *Session) Cancel(ctx context.Context) error {
	return s.send(ctx, cmdCancel)
}

// Reset returns a closed or cancelled session to Idle.
func (s *Session) Reset(ctx context.Context) error {
	return s.send(ctx, cmdReset)
}

func (s *Session) send(ctx context.Context, kind commandKind) error {
	reply := make(chan error, 1)
	select {
	case s.cmds <- command{kind: kind, reply: reply}:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) publish() {
	st := s.tracker.Status()
	s.status.Store(&st)
}

// Status returns the most recently published snapshot.
func (s *Session) Status() Status {
	return *s.status.Load()
}

// Subscribe registers a new event channel. The ID is used to Unsubscribe.
func (s *Session) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscriber channel.
func (s *Session) Unsubscribe(id string) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

func (s *Session) emit(ev Event) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// slow subscriber, drop rather than stall sampling
		}
	}
}

// Log returns the retained event log entries, oldest first.
func (s *Session) Log() []LogEntry {
	return s.log.Entries()
}

// Path returns the captured path in the capture frame.
func (s *Session) Path() []geo.Point {
	return s.tracker.Path()
}

// DisplayPath returns the captured path converted for regional map tiles.
func (s *Session) DisplayPath() []geo.Point {
	return coords.ConvertPath(s.tracker.Path())
}
