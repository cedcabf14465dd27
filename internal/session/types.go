package session

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/geoclaim/internal/filter"
	"github.com/banshee-data/geoclaim/internal/geo"
)

// State is the lifecycle position of a capture session.
type State int

const (
	Idle State = iota
	Tracking
	Closed
	Cancelled
)

var stateNames = [...]string{"idle", "tracking", "closed", "cancelled"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the state only leaves through Reset.
func (s State) Terminal() bool {
	return s == Closed || s == Cancelled
}

// FailureReason names the first validation rule a closed walk broke.
type FailureReason int

const (
	NoFailure FailureReason = iota
	InsufficientPoints
	InsufficientDistance
	SelfIntersection
	InsufficientArea
)

var failureNames = [...]string{
	"",
	"insufficient_points",
	"insufficient_distance",
	"self_intersection",
	"insufficient_area",
}

func (r FailureReason) String() string {
	if r < 0 || int(r) >= len(failureNames) {
		return fmt.Sprintf("FailureReason(%d)", int(r))
	}
	return failureNames[r]
}

// MarshalText encodes the reason by name.
func (r FailureReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// ValidationResult is the verdict produced once per closure.
type ValidationResult struct {
	Passed          bool          `json:"passed"`
	FailureReason   FailureReason `json:"failure_reason,omitempty"`
	Area            float64       `json:"area_m2"`
	PointCount      int           `json:"point_count"`
	WalkedDistance  float64       `json:"walked_distance_m"`
	ClosureDistance float64       `json:"closure_distance_m"`
}

// Claim is what the uploader receives when a closed walk passes validation.
// Points are in the capture frame, never the display frame.
type Claim struct {
	ID             string      `json:"id"`
	SessionID      string      `json:"session_id"`
	Points         []geo.Point `json:"points"`
	Area           float64     `json:"area_m2"`
	PointCount     int         `json:"point_count"`
	WalkedDistance float64     `json:"walked_distance_m"`
	StartedAt      time.Time   `json:"started_at"`
	CompletedAt    time.Time   `json:"completed_at"`
}

// Authorization is the position source's permission to deliver fixes.
type Authorization int

const (
	AuthUndetermined Authorization = iota
	AuthDenied
	AuthGranted
)

func (a Authorization) String() string {
	switch a {
	case AuthUndetermined:
		return "undetermined"
	case AuthDenied:
		return "denied"
	case AuthGranted:
		return "granted"
	}
	return fmt.Sprintf("Authorization(%d)", int(a))
}

// MarshalText encodes the authorization by name.
func (a Authorization) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// PositionSource supplies the freshest fix. LatestFix consumes the fix it
// returns; a second call without a new fix reports false.
type PositionSource interface {
	LatestFix() (geo.Fix, bool)
	Authorization() Authorization
	RequestAuthorization(ctx context.Context) Authorization
}

// Uploader receives passed claims.
type Uploader interface {
	Upload(ctx context.Context, claim Claim) error
}

// Status is an immutable view of the session published after every step.
type Status struct {
	State          State               `json:"state"`
	SessionID      string              `json:"session_id,omitempty"`
	PathLength     int                 `json:"path_length"`
	WalkedDistance float64             `json:"walked_distance_m"`
	Warning        filter.SpeedWarning `json:"warning"`
	Result         *ValidationResult   `json:"result,omitempty"`
	StartedAt      time.Time           `json:"started_at,omitzero"`
	CompletedAt    time.Time           `json:"completed_at,omitzero"`
}

// EventKind classifies an Event.
type EventKind int

const (
	EventState EventKind = iota
	EventPoint
	EventWarning
	EventResult
)

var eventKindNames = [...]string{"state", "point", "warning", "result"}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventKindNames[k]
}

// MarshalText encodes the kind by name.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event is delivered to subscribers as the session progresses.
type Event struct {
	Kind       EventKind           `json:"kind"`
	State      State               `json:"state"`
	Warning    filter.SpeedWarning `json:"warning"`
	Result     *ValidationResult   `json:"result,omitempty"`
	PathLength int                 `json:"path_length"`
	Time       time.Time           `json:"time"`
}
