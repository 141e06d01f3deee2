package explore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mirefall/mirefall/internal/game/combat"
	"github.com/mirefall/mirefall/internal/game/content"
	"github.com/mirefall/mirefall/internal/game/dice"
	"github.com/mirefall/mirefall/internal/game/entity"
	"github.com/mirefall/mirefall/internal/game/world"
)

// fakeUI scripts exploration commands and always attacks in combat.
type fakeUI struct {
	commands []Command
	messages []string
	rendered int
	action   combat.ActionKind
}

func (u *fakeUI) NextCommand(_ context.Context) (Command, error) {
	if len(u.commands) == 0 {
		return CmdQuit, nil
	}
	cmd := u.commands[0]
	u.commands = u.commands[1:]
	return cmd, nil
}

func (u *fakeUI) RenderExplore(View)   { u.rendered++ }
func (u *fakeUI) ShowMessage(m string) { u.messages = append(u.messages, m) }

func (u *fakeUI) ChooseAction(_ context.Context, _ *combat.Combatant, _, _ []*combat.Combatant) (combat.Action, error) {
	kind := u.action
	if kind == combat.ActionUnknown {
		kind = combat.ActionAttack
	}
	return combat.Action{Kind: kind}, nil
}

func (u *fakeUI) ChooseTarget(_ context.Context, _ *combat.Combatant, candidates []*combat.Combatant) (string, bool, error) {
	t := combat.SelectLowestHP(candidates)
	if t == nil {
		return "", false, nil
	}
	return t.ID, true, nil
}

func (u *fakeUI) ShowCombat(_, _ []*combat.Combatant) {}
func (u *fakeUI) RenderRoster(_ []*combat.Combatant)  {}
func (u *fakeUI) AppendLog(string)                    {}
func (u *fakeUI) PlayHitFeedback(string)              {}
func (u *fakeUI) HideCombat()                         {}

// fixedSrc always lands hits and never crits.
type fixedSrc struct{}

func (fixedSrc) Intn(n int) int   { return 0 }
func (fixedSrc) Float64() float64 { return 0.5 }

func goblinRegistry(t *testing.T) *content.Registry {
	t.Helper()
	reg := content.NewRegistry()
	require.NoError(t, reg.RegisterMonster(&content.MonsterTemplate{
		ID: "goblin", Name: "Goblin",
		MaxHP:       content.StatRange{Min: 8, Max: 8},
		Atk:         content.StatRange{Min: 3, Max: 3},
		Hit:         content.StatRange{Min: 75, Max: 75},
		CritMult:    1.5,
		Speed:       content.StatRange{Min: 8, Max: 8},
		XPReward:    content.StatRange{Min: 5, Max: 5},
		SpawnWeight: 10,
	}))
	reg.Freeze()
	return reg
}

func strongPlayer() *combat.Combatant {
	p := entity.NewPlayer("hero")
	p.Atk = 100
	p.Speed = 2000
	p.Hit = 100
	return p
}

// flatDungeon is an open floor with a one-tile wall border.
func flatDungeon(w, h int) *world.Dungeon {
	d := &world.Dungeon{Width: w, Height: h, Tiles: make([][]world.Tile, h)}
	for y := range d.Tiles {
		d.Tiles[y] = make([]world.Tile, w)
		for x := range d.Tiles[y] {
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				d.Tiles[y][x] = world.TileWall
			} else {
				d.Tiles[y][x] = world.TileFloor
			}
		}
	}
	d.Rooms = []world.Room{{X: 1, Y: 1, Width: w - 2, Height: h - 2}}
	d.Entry = world.Point{X: 1, Y: 1}
	return d
}

func mobAt(name string, x, y, hp int) *entity.Mob {
	return &entity.Mob{
		Combatant: &combat.Combatant{
			ID: name, Name: name,
			Faction: combat.FactionEnemy, Controller: combat.ControllerAI,
			HP: hp, MaxHP: hp, Atk: 3, Hit: 75, CritMult: 1.5, Speed: 8,
			XPReward: 5,
		},
		X: x, Y: y,
	}
}

// attackAI is a minimal enemy controller for tests.
type attackAI struct{}

func (attackAI) ChooseAction(_ context.Context, _ *combat.Combatant, _, _ []*combat.Combatant) (combat.Action, error) {
	return combat.Action{Kind: combat.ActionAttack}, nil
}

func (attackAI) ChooseTarget(_ context.Context, _ *combat.Combatant, candidates []*combat.Combatant) (string, bool, error) {
	t := combat.SelectLowestHP(candidates)
	if t == nil {
		return "", false, nil
	}
	return t.ID, true, nil
}

func newTestGame(t *testing.T, ui *fakeUI) *Game {
	t.Helper()
	g, err := New(strongPlayer(), goblinRegistry(t), attackAI{}, ui, fixedSrc{},
		zap.NewNop(), Options{
			MoveCooldown: time.Nanosecond,
			Combat:       combat.SessionOptions{TickInterval: time.Millisecond},
		})
	require.NoError(t, err)

	// Hand-built floor for deterministic movement.
	g.dungeon = flatDungeon(20, 12)
	g.x, g.y = 5, 5
	g.floor = 1
	g.state = StatePlaying
	return g
}

func TestNewRequiresFrozenRegistry(t *testing.T) {
	_, err := New(strongPlayer(), content.NewRegistry(), attackAI{}, &fakeUI{},
		fixedSrc{}, zap.NewNop(), Options{})
	assert.Error(t, err)
}

func TestRunQuitsCleanly(t *testing.T) {
	ui := &fakeUI{commands: []Command{CmdQuit}}
	g, err := New(strongPlayer(), goblinRegistry(t), attackAI{}, ui,
		dice.NewCryptoSource(), zap.NewNop(), Options{})
	require.NoError(t, err)

	require.NoError(t, g.Run(context.Background()))
	assert.Equal(t, 1, g.Floor())
	assert.Positive(t, ui.rendered)
}

func TestTryMoveBlockedByWall(t *testing.T) {
	g := newTestGame(t, &fakeUI{})
	g.x, g.y = 1, 1

	g.tryMove(context.Background(), -1, 0)

	assert.Equal(t, 1, g.x)
	assert.Equal(t, 1, g.y)
}

func TestMoveCooldownThrottles(t *testing.T) {
	g := newTestGame(t, &fakeUI{})
	g.opts.MoveCooldown = time.Hour

	g.tryMove(context.Background(), 1, 0)
	g.tryMove(context.Background(), 1, 0)

	assert.Equal(t, 6, g.x, "second move inside the cooldown is dropped")
}

func TestBumpingMobStartsAndWinsEncounter(t *testing.T) {
	ui := &fakeUI{}
	g := newTestGame(t, ui)
	g.mobs = []*entity.Mob{mobAt("goblin", 6, 5, 8)}

	g.tryMove(context.Background(), 1, 0)

	assert.Equal(t, StatePlaying, g.State())
	assert.Empty(t, g.mobs, "defeated mobs leave the map")
	assert.Equal(t, 5, g.XP())
	assert.Contains(t, ui.messages, "Victory! +5 XP")
	assert.Equal(t, 5, g.x, "bumping does not move the player")
}

func TestEncounterGathersNearbyMobs(t *testing.T) {
	ui := &fakeUI{}
	g := newTestGame(t, ui)
	g.mobs = []*entity.Mob{
		mobAt("bumped", 6, 5, 8),
		mobAt("nearby", 8, 6, 8),
		mobAt("distant", 15, 10, 8),
	}

	g.tryMove(context.Background(), 1, 0)

	require.Len(t, g.mobs, 1, "only the distant mob survives the gathered fight")
	assert.Equal(t, "distant", g.mobs[0].Name)
	assert.Equal(t, 10, g.XP())
}

func TestLosingEndsRun(t *testing.T) {
	ui := &fakeUI{}
	g := newTestGame(t, ui)
	g.player.HP = 1
	g.player.Atk = 0
	g.player.Speed = 1
	g.mobs = []*entity.Mob{mobAt("ogre", 6, 5, 500)}
	g.mobs[0].Atk = 100
	g.mobs[0].Speed = 2000

	g.tryMove(context.Background(), 1, 0)

	assert.Equal(t, StateGameOver, g.State())
	assert.Contains(t, ui.messages, "You have fallen...")
}

func TestFleeingResumesExploration(t *testing.T) {
	ui := &fakeUI{action: combat.ActionFlee}
	g := newTestGame(t, ui)
	g.mobs = []*entity.Mob{mobAt("goblin", 6, 5, 8)}

	g.tryMove(context.Background(), 1, 0)

	assert.Equal(t, StatePlaying, g.State())
	assert.Len(t, g.mobs, 1, "fleeing leaves the mob on the map")
	assert.Zero(t, g.XP())
	assert.Contains(t, ui.messages, "You got away.")
}

func TestSteppingOnExitDescends(t *testing.T) {
	ui := &fakeUI{}
	g := newTestGame(t, ui)
	// Real generation needs real randomness.
	g.src = dice.NewCryptoSource()
	g.dungeon.Tiles[5][6] = world.TileExit

	g.tryMove(context.Background(), 1, 0)

	assert.Equal(t, 2, g.Floor())
	assert.Equal(t, g.dungeon.Entry.X, g.x)
	assert.Equal(t, g.dungeon.Entry.Y, g.y)
	assert.Len(t, g.mobs, len(g.dungeon.SpawnPoints), "every spawn point is populated")
	assert.Contains(t, ui.messages, "Floor 2")
}
