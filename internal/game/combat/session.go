package combat

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mirefall/mirefall/internal/game/content"
	"github.com/mirefall/mirefall/internal/game/dice"
	"github.com/mirefall/mirefall/internal/telemetry"
)

// Result is a combat session's terminal outcome.
type Result string

const (
	ResultWin  Result = "win"
	ResultLose Result = "lose"
	ResultFled Result = "fled"
)

// SessionState is the session's state machine position.
type SessionState int

const (
	SessionStarting SessionState = iota
	SessionAwaitingTurn
	SessionAwaitingDecision
	SessionResolvingAction
	SessionEnded
)

// String returns a human-readable state label.
func (s SessionState) String() string {
	switch s {
	case SessionStarting:
		return "starting"
	case SessionAwaitingTurn:
		return "awaiting_turn"
	case SessionAwaitingDecision:
		return "awaiting_decision"
	case SessionResolvingAction:
		return "resolving_action"
	case SessionEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Controller supplies decisions for combatants of one control kind. Human
// implementations may block indefinitely on ChooseAction — the wait is
// unbounded and cancelled only through ctx when the session is torn down.
// AI implementations must return immediately.
type Controller interface {
	// ChooseAction picks the actor's move for this turn.
	ChooseAction(ctx context.Context, actor *Combatant, allies, enemies []*Combatant) (Action, error)
	// ChooseTarget picks one candidate by id. ok is false when the pick was
	// cancelled, which returns control to action choice without consuming
	// the turn.
	ChooseTarget(ctx context.Context, actor *Combatant, candidates []*Combatant) (id string, ok bool, err error)
}

// Presenter receives fire-and-forget presentation callbacks. No return value
// is consumed by combat logic; a no-op implementation is valid.
type Presenter interface {
	ShowCombat(allies, enemies []*Combatant)
	RenderRoster(combatants []*Combatant)
	AppendLog(message string)
	PlayHitFeedback(combatantID string)
	HideCombat()
}

// EndFunc reports the session's terminal result to its owner, together with
// the enemy roster (defeated or remaining). Invoked exactly once per session.
type EndFunc func(result Result, enemies []*Combatant)

// SessionOptions tune the session's pacing.
type SessionOptions struct {
	// TickInterval is the scheduling cadence. Zero defaults to the ATB
	// reference tick.
	TickInterval time.Duration
	// TurnDelay is the cosmetic pause between announcing an action and
	// applying it. Zero disables the pause; correctness never depends on it.
	TurnDelay time.Duration
}

// Session orchestrates one combat encounter: it owns the rosters and the
// scheduler, suspends for decisions, resolves actions, and reports the
// terminal result.
//
// A Session runs on a single goroutine via Run; no combatant record is ever
// mutated concurrently. One encounter at a time: a Session is not reusable.
type Session struct {
	allies   []*Combatant
	enemies  []*Combatant
	all      []*Combatant
	sched    *Scheduler
	registry *content.Registry
	human    Controller
	enemyAI  Controller
	pres     Presenter
	src      dice.Source
	logger   *zap.Logger
	tracer   trace.Tracer
	onEnd    EndFunc
	opts     SessionOptions

	state    SessionState
	running  bool
	result   Result
	reported bool
}

// NewSession creates a combat session over the two rosters.
//
// Precondition: both rosters must be non-empty; registry must be frozen;
// human, enemyAI, pres, src, and logger must be non-nil. onEnd may be nil.
// Postcondition: Returns a Session in the Starting state, ready for Run.
func NewSession(
	allies, enemies []*Combatant,
	registry *content.Registry,
	human, enemyAI Controller,
	pres Presenter,
	src dice.Source,
	logger *zap.Logger,
	onEnd EndFunc,
	opts SessionOptions,
) (*Session, error) {
	if len(allies) == 0 || len(enemies) == 0 {
		return nil, fmt.Errorf("combat: NewSession requires both rosters to be non-empty")
	}
	if registry == nil || !registry.Frozen() {
		return nil, fmt.Errorf("combat: NewSession requires a frozen content registry")
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = ReferenceTick
	}
	all := make([]*Combatant, 0, len(allies)+len(enemies))
	all = append(all, allies...)
	all = append(all, enemies...)
	return &Session{
		allies:   allies,
		enemies:  enemies,
		all:      all,
		sched:    NewScheduler(all),
		registry: registry,
		human:    human,
		enemyAI:  enemyAI,
		pres:     pres,
		src:      src,
		logger:   logger,
		tracer:   telemetry.Tracer("combat"),
		onEnd:    onEnd,
		opts:     opts,
	}, nil
}

// State returns the session's current state.
func (s *Session) State() SessionState { return s.state }

// Run drives the encounter to completion and returns its terminal result.
// It blocks for the session's lifetime and must be called exactly once.
//
// Cancelling ctx tears the session down mid-encounter: Run returns ctx.Err()
// and no result is reported, since a session only ends via the three defined
// terminal results.
//
// Postcondition: On nil error, the returned Result is win, lose, or fled and
// the EndFunc has been invoked exactly once.
func (s *Session) Run(ctx context.Context) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "combat.session",
		trace.WithAttributes(
			attribute.Int("allies", len(s.allies)),
			attribute.Int("enemies", len(s.enemies)),
		))
	defer span.End()

	s.state = SessionStarting
	s.running = true
	s.pres.ShowCombat(s.allies, s.enemies)
	s.logger.Info("combat started",
		zap.Int("allies", len(s.allies)),
		zap.Int("enemies", len(s.enemies)),
	)

	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()
	last := time.Now()

	for s.running {
		select {
		case <-ctx.Done():
			s.sched.End()
			s.state = SessionEnded
			return "", ctx.Err()
		case now := <-ticker.C:
			s.state = SessionAwaitingTurn
			s.sched.Tick(now.Sub(last))
			last = now
			s.pres.RenderRoster(s.all)

			actor, ok := s.sched.NextTurn()
			if !ok {
				continue
			}
			if err := s.takeTurn(ctx, actor); err != nil {
				s.sched.End()
				s.state = SessionEnded
				return "", err
			}
			// Decision time is wall time, not simulated time: rebase so
			// meters do not leap after a long menu wait.
			last = time.Now()
		}
	}

	span.SetAttributes(attribute.String("result", string(s.result)))
	return s.result, nil
}

// takeTurn runs one combatant's full turn: decision, resolution, meter reset,
// and the post-action termination check. Recoverable action failures (empty
// target set, insufficient energy, unknown definition, cancelled pick)
// re-prompt the actor without consuming the turn.
func (s *Session) takeTurn(ctx context.Context, actor *Combatant) error {
	ctx, span := s.tracer.Start(ctx, "combat.turn",
		trace.WithAttributes(
			attribute.String("actor", actor.Name),
			attribute.String("faction", actor.Faction.String()),
		))
	defer span.End()

	actor.Defending = false

	for {
		s.state = SessionAwaitingDecision
		action, err := s.controllerFor(actor).ChooseAction(ctx, actor, s.allies, s.enemies)
		if err != nil {
			return err
		}
		s.state = SessionResolvingAction
		done, err := s.executeAction(ctx, actor, action)
		if err != nil {
			return err
		}
		if done {
			span.SetAttributes(attribute.String("action", action.Kind.String()))
			break
		}
	}

	if s.running {
		s.sched.CompleteTurn()
		s.checkTermination()
	}
	return nil
}

// controllerFor resolves the decision source from the combatant's capability
// tag.
func (s *Session) controllerFor(actor *Combatant) Controller {
	if actor.Controller == ControllerHuman {
		return s.human
	}
	return s.enemyAI
}

// opposing returns the roster opposing the actor's faction.
func (s *Session) opposing(actor *Combatant) []*Combatant {
	if actor.Faction == FactionEnemy {
		return s.allies
	}
	return s.enemies
}

// executeAction resolves one chosen action. It returns done == false for the
// recoverable abort paths that re-prompt the actor.
func (s *Session) executeAction(ctx context.Context, actor *Combatant, action Action) (bool, error) {
	switch action.Kind {
	case ActionDefend:
		actor.Defending = true
		s.pres.AppendLog(fmt.Sprintf("%s is defending.", actor.Name))
		return true, nil

	case ActionFlee:
		if ResolveFlee(actor, s.opposing(actor), s.src) {
			s.pres.AppendLog("Escape successful!")
			s.end(ResultFled)
		} else {
			s.pres.AppendLog("The escape failed!")
		}
		return true, nil

	case ActionAttack, ActionItem, ActionSkill:
		return s.executeTargeted(ctx, actor, action)

	default:
		s.logger.Warn("rejecting invalid action kind",
			zap.String("actor", actor.Name),
			zap.Int("kind", int(action.Kind)),
		)
		return false, nil
	}
}

// executeTargeted handles attack, item, and skill: definition lookup, energy
// gate, target resolution, and per-target application.
func (s *Session) executeTargeted(ctx context.Context, actor *Combatant, action Action) (bool, error) {
	var def *content.Definition
	if action.Kind.NeedsDefinition() {
		kind := content.DefItem
		if action.Kind == ActionSkill {
			kind = content.DefSkill
		}
		d, ok := s.registry.Definition(kind, action.DefID)
		if !ok {
			// Unknown ids degrade like an energy failure: externally loaded
			// content must never be fatal mid-combat.
			s.logger.Warn("unknown definition id",
				zap.String("kind", string(kind)),
				zap.String("id", action.DefID),
			)
			s.pres.AppendLog("Nothing happens.")
			return false, nil
		}
		def = d
		if actor.EP < def.Cost {
			s.pres.AppendLog("Not enough energy!")
			return false, nil
		}
	}

	targetType := action.TargetType(def)
	possible := PossibleTargets(actor, s.allies, s.enemies, targetType)
	if len(possible) == 0 {
		s.pres.AppendLog("No valid target!")
		return false, nil
	}

	var targets []*Combatant
	switch {
	case targetType.All():
		targets = possible
	case len(possible) == 1:
		targets = possible[:1]
	default:
		id, ok, err := s.controllerFor(actor).ChooseTarget(ctx, actor, possible)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		target := findByID(possible, id)
		if target == nil {
			return false, nil
		}
		targets = []*Combatant{target}
	}

	announced := action.Kind.String()
	if def != nil {
		announced = def.Name
	}
	s.pres.AppendLog(fmt.Sprintf("%s uses %s!", actor.Name, announced))
	s.pause(ctx)

	if def != nil {
		// The cost is deducted once, before per-target application.
		actor.SpendEnergy(def.Cost)
	}
	if action.Kind == ActionItem {
		actor.ConsumeItem(action.DefID)
	}
	for _, target := range targets {
		s.applyToTarget(actor, target, action, def)
	}
	return true, nil
}

// applyToTarget applies a resolved action to one target and emits the log
// line describing its numeric result.
func (s *Session) applyToTarget(actor, target *Combatant, action Action, def *content.Definition) {
	switch action.Kind {
	case ActionAttack:
		res := ResolveAttack(actor, target, s.src)
		if !res.Hit {
			s.pres.AppendLog(fmt.Sprintf("%s misses %s!", actor.Name, target.Name))
			return
		}
		if res.Crit {
			s.pres.AppendLog(fmt.Sprintf("%s takes %d CRITICAL damage!", target.Name, res.Damage))
		} else {
			s.pres.AppendLog(fmt.Sprintf("%s takes %d damage!", target.Name, res.Damage))
		}
		s.pres.PlayHitFeedback(target.ID)

	case ActionItem, ActionSkill:
		res := ApplyEffect(def.Effect, target)
		switch res.Action {
		case content.EffectRestoreHP:
			s.pres.AppendLog(fmt.Sprintf("%s recovers %d HP!", target.Name, res.Amount))
		case content.EffectRestoreEP:
			s.pres.AppendLog(fmt.Sprintf("%s recovers %d EP!", target.Name, res.Amount))
		case content.EffectDamageHP:
			s.pres.AppendLog(fmt.Sprintf("%s takes %d magic damage!", target.Name, res.Amount))
			s.pres.PlayHitFeedback(target.ID)
		}
	}
}

// pause sleeps for the cosmetic turn delay, abandoning the wait on ctx
// cancellation.
func (s *Session) pause(ctx context.Context) {
	if s.opts.TurnDelay <= 0 {
		return
	}
	select {
	case <-time.After(s.opts.TurnDelay):
	case <-ctx.Done():
	}
}

// checkTermination runs the HP-based terminal conditions after a fully
// resolved action. A successful flee short-circuits through end directly and
// never reaches this check.
func (s *Session) checkTermination() {
	if !AnyAlive(s.allies) {
		s.end(ResultLose)
		return
	}
	if !AnyAlive(s.enemies) {
		s.end(ResultWin)
	}
}

// end moves the session to its terminal state and reports the result exactly
// once.
func (s *Session) end(result Result) {
	if s.state == SessionEnded {
		return
	}
	s.running = false
	s.state = SessionEnded
	s.result = result
	s.sched.End()
	s.pres.HideCombat()
	s.logger.Info("combat ended", zap.String("result", string(result)))
	if s.onEnd != nil && !s.reported {
		s.reported = true
		s.onEnd(result, s.enemies)
	}
}

// findByID returns the combatant with the given id, or nil.
func findByID(combatants []*Combatant, id string) *Combatant {
	for _, c := range combatants {
		if c.ID == id {
			return c
		}
	}
	return nil
}
