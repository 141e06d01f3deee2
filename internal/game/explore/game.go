package explore

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mirefall/mirefall/internal/game/combat"
	"github.com/mirefall/mirefall/internal/game/content"
	"github.com/mirefall/mirefall/internal/game/dice"
	"github.com/mirefall/mirefall/internal/game/entity"
	"github.com/mirefall/mirefall/internal/game/world"
	"github.com/mirefall/mirefall/internal/telemetry"
)

// DefaultMoveCooldown throttles movement so a held key does not sprint the
// player through corridors.
const DefaultMoveCooldown = 120 * time.Millisecond

// UI is everything the exploration loop needs from the frontend: the
// player's combat decision surface, the combat presentation callbacks, and
// exploration input and rendering.
type UI interface {
	combat.Controller
	combat.Presenter

	// NextCommand blocks for the player's next exploration input.
	NextCommand(ctx context.Context) (Command, error)
	// RenderExplore draws the current dungeon view.
	RenderExplore(v View)
	// ShowMessage displays a one-line status message.
	ShowMessage(msg string)
}

// View is the render snapshot handed to the UI each frame.
type View struct {
	Dungeon *world.Dungeon
	Player  *combat.Combatant
	X, Y    int
	Mobs    []*entity.Mob
	Floor   int
	XP      int
}

// Options tune the exploration loop.
type Options struct {
	// MoveCooldown is the minimum delay between moves. Zero uses
	// DefaultMoveCooldown.
	MoveCooldown time.Duration
	// Combat is passed through to every combat session.
	Combat combat.SessionOptions
	// Width and Height override the dungeon dimensions. Zero uses the world
	// defaults.
	Width  int
	Height int
}

// Game drives one dungeon run: floor generation, movement, encounters, and
// the transitions between exploring, fighting, and game over.
type Game struct {
	player   *combat.Combatant
	registry *content.Registry
	enemyAI  combat.Controller
	ui       UI
	src      dice.Source
	logger   *zap.Logger
	opts     Options

	dungeon  *world.Dungeon
	mobs     []*entity.Mob
	x, y     int
	floor    int
	xp       int
	state    State
	lastMove time.Time
}

// New creates an exploration game for the given player.
//
// Precondition: player, registry, enemyAI, ui, src, and logger must be
// non-nil; registry must be frozen.
func New(
	player *combat.Combatant,
	registry *content.Registry,
	enemyAI combat.Controller,
	ui UI,
	src dice.Source,
	logger *zap.Logger,
	opts Options,
) (*Game, error) {
	if registry == nil || !registry.Frozen() {
		return nil, fmt.Errorf("explore: New requires a frozen content registry")
	}
	if opts.MoveCooldown <= 0 {
		opts.MoveCooldown = DefaultMoveCooldown
	}
	if opts.Width <= 0 {
		opts.Width = world.DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = world.DefaultHeight
	}
	return &Game{
		player:   player,
		registry: registry,
		enemyAI:  enemyAI,
		ui:       ui,
		src:      src,
		logger:   logger,
		opts:     opts,
	}, nil
}

// State returns the loop's current state.
func (g *Game) State() State { return g.state }

// Floor returns the current depth, starting at 1.
func (g *Game) Floor() int { return g.floor }

// XP returns the experience earned this run.
func (g *Game) XP() int { return g.xp }

// Run drives the exploration loop until the player quits, dies, or ctx is
// cancelled.
func (g *Game) Run(ctx context.Context) error {
	ctx, span := telemetry.Tracer("explore").Start(ctx, "explore.run")
	defer span.End()

	g.descend(ctx)

	for g.state != StateGameOver {
		g.ui.RenderExplore(g.view())

		cmd, err := g.ui.NextCommand(ctx)
		if err != nil {
			return err
		}

		switch cmd {
		case CmdQuit:
			span.SetAttributes(attribute.Int("floors", g.floor), attribute.Int("xp", g.xp))
			return nil
		case CmdMoveUp:
			g.tryMove(ctx, 0, -1)
		case CmdMoveDown:
			g.tryMove(ctx, 0, 1)
		case CmdMoveLeft:
			g.tryMove(ctx, -1, 0)
		case CmdMoveRight:
			g.tryMove(ctx, 1, 0)
		}
	}

	g.ui.RenderExplore(g.view())
	span.SetAttributes(attribute.Int("floors", g.floor), attribute.Int("xp", g.xp))
	return nil
}

// descend generates the next floor and repopulates it.
func (g *Game) descend(ctx context.Context) {
	g.floor++
	g.dungeon = world.Generate(ctx, g.opts.Width, g.opts.Height, g.src)
	g.x, g.y = g.dungeon.Entry.X, g.dungeon.Entry.Y
	g.mobs = g.spawnMobs()
	g.logger.Info("descended",
		zap.Int("floor", g.floor),
		zap.Int("rooms", len(g.dungeon.Rooms)),
		zap.Int("mobs", len(g.mobs)),
	)
	g.ui.ShowMessage(fmt.Sprintf("Floor %d", g.floor))
}

// spawnMobs rolls a weighted monster for every spawn point on the floor.
func (g *Game) spawnMobs() []*entity.Mob {
	var mobs []*entity.Mob
	for _, p := range g.dungeon.SpawnPoints {
		tmpl, ok := g.registry.RandomMonster(g.src)
		if !ok {
			break
		}
		mobs = append(mobs, &entity.Mob{
			Combatant: entity.NewMonster(tmpl, g.src),
			X:         p.X,
			Y:         p.Y,
		})
	}
	return mobs
}

// tryMove applies one movement command: cooldown gate, collision checks,
// encounter trigger, and the exit transition.
func (g *Game) tryMove(ctx context.Context, dx, dy int) {
	now := time.Now()
	if now.Sub(g.lastMove) < g.opts.MoveCooldown {
		return
	}

	nx, ny := g.x+dx, g.y+dy
	if mob := g.mobAt(nx, ny); mob != nil {
		g.lastMove = now
		g.startEncounter(ctx, mob)
		return
	}
	if !g.dungeon.Walkable(nx, ny) {
		return
	}

	g.x, g.y = nx, ny
	g.lastMove = now

	if g.dungeon.TileAt(nx, ny) == world.TileExit {
		g.descend(ctx)
	}
}

// mobAt returns the living mob standing on the position, or nil.
func (g *Game) mobAt(x, y int) *entity.Mob {
	for _, m := range g.mobs {
		if m.IsAlive() && m.X == x && m.Y == y {
			return m
		}
	}
	return nil
}

// startEncounter gathers every mob near the bumped one into a combat
// session and applies its result.
func (g *Game) startEncounter(ctx context.Context, bumped *entity.Mob) {
	gathered := world.GatherEncounter(g.mobs, bumped.X, bumped.Y)
	enemies := make([]*combat.Combatant, 0, len(gathered))
	for _, m := range gathered {
		enemies = append(enemies, m.Combatant)
	}

	session, err := combat.NewSession(
		[]*combat.Combatant{g.player}, enemies,
		g.registry, g.ui, g.enemyAI, g.ui, g.src, g.logger, nil,
		g.opts.Combat,
	)
	if err != nil {
		g.logger.Error("could not start combat", zap.Error(err))
		return
	}

	g.state = StateCombat
	result, err := session.Run(ctx)
	if err != nil {
		// Teardown mid-combat: surface it as game over so Run unwinds.
		g.logger.Warn("combat aborted", zap.Error(err))
		g.state = StateGameOver
		return
	}
	g.applyResult(result, enemies)
}

// applyResult handles the session's terminal result: win removes the
// defeated and grants their XP, lose ends the run, fled resumes exploration
// with every survivor still on the map.
func (g *Game) applyResult(result combat.Result, enemies []*combat.Combatant) {
	switch result {
	case combat.ResultWin:
		earned := 0
		for _, e := range enemies {
			if !e.IsAlive() {
				earned += e.XPReward
			}
		}
		g.xp += earned
		g.removeDeadMobs()
		g.state = StatePlaying
		g.ui.ShowMessage(fmt.Sprintf("Victory! +%d XP", earned))

	case combat.ResultLose:
		g.state = StateGameOver
		g.ui.ShowMessage("You have fallen...")

	case combat.ResultFled:
		// Mobs keep any damage dealt before the escape.
		g.removeDeadMobs()
		g.state = StatePlaying
		g.ui.ShowMessage("You got away.")
	}
}

func (g *Game) removeDeadMobs() {
	alive := g.mobs[:0]
	for _, m := range g.mobs {
		if m.IsAlive() {
			alive = append(alive, m)
		}
	}
	g.mobs = alive
}

func (g *Game) view() View {
	return View{
		Dungeon: g.dungeon,
		Player:  g.player,
		X:       g.x,
		Y:       g.y,
		Mobs:    g.mobs,
		Floor:   g.floor,
		XP:      g.xp,
	}
}
