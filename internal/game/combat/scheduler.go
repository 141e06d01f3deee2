package combat

import "time"

// ATB pacing constants. A combatant acts when its turn meter reaches
// ATBThreshold; the meter grows by Speed × ATBSpeedMultiplier per reference
// tick of simulated time.
const (
	ATBThreshold       = 100.0
	ATBSpeedMultiplier = 0.2
)

// ReferenceTick is the amount of elapsed time worth one meter step. Meter
// growth scales with measured elapsed time rather than host tick count, so
// pacing is independent of frame rate; the reference matches a 60Hz frame
// budget so content tuned against the original pacing behaves identically.
const ReferenceTick = time.Second / 60

// maxTickElapsed caps the elapsed time consumed by a single Tick so a
// stalled host (suspended process, debugger pause) does not convert into a
// meter burst.
const maxTickElapsed = 250 * time.Millisecond

// SchedulerState is the scheduler's state machine position.
type SchedulerState int

const (
	SchedulerIdle SchedulerState = iota
	SchedulerAccumulating
	SchedulerTurnQueued
	SchedulerTurnInProgress
	SchedulerEnded
)

// String returns a human-readable state label.
func (s SchedulerState) String() string {
	switch s {
	case SchedulerIdle:
		return "idle"
	case SchedulerAccumulating:
		return "accumulating"
	case SchedulerTurnQueued:
		return "turn_queued"
	case SchedulerTurnInProgress:
		return "turn_in_progress"
	case SchedulerEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Scheduler owns per-tick meter accumulation and FIFO turn ordering for one
// combat session. It is not safe for concurrent use; the owning Session
// serialises all access.
//
// Invariant: the turn queue never contains duplicate entries, never contains
// the combatant currently acting, and never contains dead combatants at
// enqueue time. At most one combatant is mid-turn.
type Scheduler struct {
	combatants []*Combatant
	queue      []*Combatant
	queued     map[string]bool
	current    *Combatant
	state      SchedulerState
}

// NewScheduler creates an idle Scheduler over the given combatants.
//
// Precondition: combatants must be non-empty.
// Postcondition: State() == SchedulerIdle; no combatant is queued or acting.
func NewScheduler(combatants []*Combatant) *Scheduler {
	return &Scheduler{
		combatants: combatants,
		queued:     make(map[string]bool),
		state:      SchedulerIdle,
	}
}

// State returns the current scheduler state.
func (s *Scheduler) State() SchedulerState { return s.state }

// Current returns the combatant whose turn is in progress, or nil.
func (s *Scheduler) Current() *Combatant { return s.current }

// Tick accumulates turn meters for all living combatants by
// Speed × ATBSpeedMultiplier × (elapsed / ReferenceTick). A combatant whose
// meter crosses ATBThreshold is clamped to exactly the threshold and appended
// to the turn queue at most once.
//
// Accumulation never proceeds while a turn is in progress or after End: those
// ticks are dropped, which is what pauses everyone else's meters for the
// duration of the acting combatant's decision.
//
// Precondition: elapsed >= 0.
// Postcondition: Meters are monotonically non-decreasing for living
// combatants and unchanged for dead ones; no duplicate queue entries exist.
func (s *Scheduler) Tick(elapsed time.Duration) {
	if s.state == SchedulerEnded || s.state == SchedulerTurnInProgress {
		return
	}
	if elapsed > maxTickElapsed {
		elapsed = maxTickElapsed
	}
	steps := elapsed.Seconds() / ReferenceTick.Seconds()

	s.state = SchedulerAccumulating
	for _, c := range s.combatants {
		if !c.IsAlive() {
			continue
		}
		c.TurnMeter += float64(c.Speed) * ATBSpeedMultiplier * steps
		if c.TurnMeter >= ATBThreshold {
			c.TurnMeter = ATBThreshold
			if !s.queued[c.ID] {
				s.queued[c.ID] = true
				s.queue = append(s.queue, c)
			}
		}
	}
	if len(s.queue) > 0 {
		s.state = SchedulerTurnQueued
	}
}

// NextTurn dequeues the head of the turn queue and marks it as acting.
// Combatants that died while waiting in the queue are discarded.
//
// Postcondition: Returns (combatant, true) and State() ==
// SchedulerTurnInProgress when a living combatant was dequeued; returns
// (nil, false) when a turn is already in progress or the queue is empty.
func (s *Scheduler) NextTurn() (*Combatant, bool) {
	if s.state == SchedulerEnded || s.current != nil {
		return nil, false
	}
	for len(s.queue) > 0 {
		head := s.queue[0]
		s.queue = s.queue[1:]
		if !head.IsAlive() {
			delete(s.queued, head.ID)
			continue
		}
		s.current = head
		s.state = SchedulerTurnInProgress
		return head, true
	}
	if s.state == SchedulerTurnQueued {
		s.state = SchedulerAccumulating
	}
	return nil, false
}

// CompleteTurn finishes the current combatant's turn: its meter resets to
// exactly 0 and the scheduler returns to accumulation (or straight to
// TurnQueued when others are already waiting).
//
// Precondition: a turn must be in progress.
// Postcondition: Current() == nil; the acted combatant's TurnMeter == 0 and
// it is eligible to be enqueued again.
func (s *Scheduler) CompleteTurn() {
	if s.current == nil {
		return
	}
	s.current.TurnMeter = 0
	delete(s.queued, s.current.ID)
	s.current = nil
	if s.state == SchedulerEnded {
		return
	}
	if len(s.queue) > 0 {
		s.state = SchedulerTurnQueued
	} else {
		s.state = SchedulerAccumulating
	}
}

// End moves the scheduler to its terminal state. Idempotent.
//
// Postcondition: State() == SchedulerEnded; Tick and NextTurn become no-ops.
func (s *Scheduler) End() {
	s.state = SchedulerEnded
}
