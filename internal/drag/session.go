// Package drag tracks one pointer- or keyboard-driven card drag at a time.
//
// A Session is driven from a single event loop (the TUI's Update). It applies
// hover previews to the board state synchronously and hands the final result to
// a Dispatcher on drop; it never waits for persistence.
package drag

import (
	"errors"
	"fmt"

	"corkboard-cli/internal/board"
	"corkboard-cli/internal/model"
	"corkboard-cli/internal/reorder"

	log "github.com/sirupsen/logrus"
)

type State int

const (
	Idle State = iota
	Dragging
	Committing
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Committing:
		return "committing"
	default:
		return "idle"
	}
}

// transitions is the full transition table; anything else is a bug.
var transitions = map[State]map[State]bool{
	Idle:       {Dragging: true},
	Dragging:   {Dragging: true, Committing: true, Idle: true},
	Committing: {Idle: true},
}

var (
	ErrBusy              = errors.New("a drag is already in progress")
	ErrNotDragging       = errors.New("no drag in progress")
	ErrInvalidTransition = errors.New("invalid drag transition")
)

// DefaultThreshold is the pointer travel (in cells) a press must exceed before
// it becomes a drag. Anything shorter is a click.
const DefaultThreshold = 1

type Point struct {
	X int
	Y int
}

// Snapshot exists only between drag start and drag end.
type Snapshot struct {
	ActiveCardID          string
	SourceListID          string
	LastKnownTargetListID string
	// LastOverID is the most recent drop target that produced a preview.
	LastOverID string
}

// Dispatcher receives the authoritative result of a drop. Implementations must
// not block: persistence runs elsewhere.
type Dispatcher interface {
	Dispatch(before []model.Card, res reorder.Result)
}

type DispatchFunc func(before []model.Card, res reorder.Result)

func (f DispatchFunc) Dispatch(before []model.Card, res reorder.Result) { f(before, res) }

type Outcome int

const (
	// OutcomeNone means the event did not affect any drag.
	OutcomeNone Outcome = iota
	// OutcomeClick means a press was released before the threshold.
	OutcomeClick
	// OutcomeCommitted means a move was applied and dispatched.
	OutcomeCommitted
	// OutcomeNoop means the drop left every card in place.
	OutcomeNoop
	// OutcomeCancelled means the pre-drag state was restored.
	OutcomeCancelled
)

// Drop describes what a release did.
type Drop struct {
	Outcome Outcome
	CardID  string
	Result  reorder.Result
}

type press struct {
	cardID string
	at     Point
}

type Session struct {
	threshold int
	logger    log.FieldLogger

	state  State
	press  *press
	snap   *Snapshot
	before []model.Card
}

func NewSession(threshold int, logger log.FieldLogger) *Session {
	if threshold < 0 {
		threshold = 0
	}
	if logger == nil {
		l := log.New()
		l.SetLevel(log.PanicLevel)
		logger = l
	}
	return &Session{threshold: threshold, logger: logger}
}

func (s *Session) State() State { return s.state }

// Snapshot returns the active drag snapshot, if any.
func (s *Session) Snapshot() (Snapshot, bool) {
	if s.snap == nil {
		return Snapshot{}, false
	}
	return *s.snap, true
}

// ActiveCardID is the dragged card id, or "" when idle.
func (s *Session) ActiveCardID() string {
	if s.snap == nil {
		return ""
	}
	return s.snap.ActiveCardID
}

// Pending reports whether a press is waiting to become a drag or a click.
func (s *Session) Pending() bool { return s.press != nil }

func (s *Session) transition(to State) error {
	if !transitions[s.state][to] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
	}
	s.logger.WithFields(log.Fields{"from": s.state.String(), "to": to.String()}).Debug("drag transition")
	s.state = to
	return nil
}

// Press records a pointer press on a card. It does not start a drag yet.
func (s *Session) Press(cardID string, at Point) error {
	if s.state != Idle {
		return ErrBusy
	}
	s.press = &press{cardID: cardID, at: at}
	return nil
}

// Move handles pointer motion. A pending press whose travel exceeds the
// threshold starts a drag; while dragging, overID is fed to Over.
// changed reports whether b was modified.
func (s *Session) Move(b *board.State, at Point, overID string) (changed bool, err error) {
	switch s.state {
	case Idle:
		if s.press == nil || !exceeds(s.press.at, at, s.threshold) {
			return false, nil
		}
		cardID := s.press.cardID
		s.press = nil
		if err := s.Begin(b, cardID); err != nil {
			return false, err
		}
		return s.Over(b, overID)
	case Dragging:
		return s.Over(b, overID)
	default:
		return false, nil
	}
}

// Begin starts a drag of cardID immediately (keyboard pick-up, or a press that
// crossed the threshold) and captures the pre-drag card set.
func (s *Session) Begin(b *board.State, cardID string) error {
	if s.state != Idle {
		return ErrBusy
	}
	c, ok := b.FindCard(cardID)
	if !ok {
		return fmt.Errorf("%w: %s", reorder.ErrUnknownCard, cardID)
	}
	if err := s.transition(Dragging); err != nil {
		return err
	}
	s.press = nil
	s.before = append([]model.Card(nil), b.Cards...)
	s.snap = &Snapshot{
		ActiveCardID:          c.ID,
		SourceListID:          c.ListID,
		LastKnownTargetListID: c.ListID,
	}
	return nil
}

// Over is a drag-over event. A new target recomputes the move from the
// pre-drag cards and applies it to b at once; repeating the current target,
// hovering the dragged card itself, or hovering nothing keeps the preview.
func (s *Session) Over(b *board.State, overID string) (bool, error) {
	if s.state != Dragging {
		return false, ErrNotDragging
	}
	if overID == "" || overID == s.snap.ActiveCardID || overID == s.snap.LastOverID {
		return false, nil
	}
	res, err := reorder.ComputeMove(s.before, b.Lists, s.snap.ActiveCardID, overID)
	if err != nil {
		return false, err
	}
	if err := s.transition(Dragging); err != nil {
		return false, err
	}
	b.Cards = res.Cards
	s.snap.LastOverID = overID
	s.snap.LastKnownTargetListID = res.TargetListID
	return true, nil
}

// Baseline returns a copy of the cards as they were when the drag began.
func (s *Session) Baseline() []model.Card {
	if s.state != Dragging {
		return nil
	}
	return append([]model.Card(nil), s.before...)
}

// Reset puts the dragged card back at its origin without ending the drag.
func (s *Session) Reset(b *board.State) error {
	if s.state != Dragging {
		return ErrNotDragging
	}
	b.Cards = append([]model.Card(nil), s.before...)
	s.snap.LastOverID = ""
	s.snap.LastKnownTargetListID = s.snap.SourceListID
	return nil
}

// Release ends a press or a drag. overID is the target under the pointer at
// release ("" when outside every drop zone, which cancels the drag).
func (s *Session) Release(b *board.State, overID string, d Dispatcher) (Drop, error) {
	switch s.state {
	case Idle:
		if s.press == nil {
			return Drop{Outcome: OutcomeNone}, nil
		}
		cardID := s.press.cardID
		s.press = nil
		return Drop{Outcome: OutcomeClick, CardID: cardID}, nil
	case Dragging:
	default:
		return Drop{}, fmt.Errorf("%w: release while %s", ErrInvalidTransition, s.state)
	}

	active := s.snap.ActiveCardID
	if overID == "" {
		s.Cancel(b)
		return Drop{Outcome: OutcomeCancelled, CardID: active}, nil
	}
	target := overID
	if target == active {
		target = s.snap.LastOverID
	}
	res, err := reorder.ComputeMove(s.before, b.Lists, active, target)
	if err != nil {
		s.Cancel(b)
		return Drop{Outcome: OutcomeCancelled, CardID: active}, err
	}
	before := s.before
	if res.Noop() {
		b.Cards = before
		s.clear()
		_ = s.transition(Idle)
		return Drop{Outcome: OutcomeNoop, CardID: active, Result: res}, nil
	}

	b.Cards = res.Cards
	if err := s.transition(Committing); err != nil {
		return Drop{}, err
	}
	s.logger.WithFields(log.Fields{
		"card":   active,
		"kind":   res.Kind.String(),
		"source": res.SourceListID,
		"target": res.TargetListID,
	}).Debug("drag committed")
	if d != nil {
		d.Dispatch(before, res)
	}
	s.clear()
	if err := s.transition(Idle); err != nil {
		return Drop{}, err
	}
	return Drop{Outcome: OutcomeCommitted, CardID: active, Result: res}, nil
}

// Cancel aborts a pending press or an active drag, restoring the pre-drag
// cards. It reports whether anything was cancelled.
func (s *Session) Cancel(b *board.State) bool {
	switch s.state {
	case Idle:
		if s.press == nil {
			return false
		}
		s.press = nil
		return true
	case Dragging:
		b.Cards = s.before
		s.logger.WithField("card", s.snap.ActiveCardID).Debug("drag cancelled")
		s.clear()
		_ = s.transition(Idle)
		return true
	default:
		return false
	}
}

func (s *Session) clear() {
	s.press = nil
	s.snap = nil
	s.before = nil
}

func exceeds(a, b Point, threshold int) bool {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx+dy*dy > threshold*threshold
}
