// Package ai supplies combat decisions for AI-controlled combatants, either
// from the builtin policy or from a sandboxed Lua decision script.
package ai

import (
	"context"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/mirefall/mirefall/internal/game/combat"
	"github.com/mirefall/mirefall/internal/game/content"
	"github.com/mirefall/mirefall/internal/scripting"
)

// Decider implements combat.Controller for AI combatants. Actors with a
// loaded AIScript are decided by their Lua script; everything else, and any
// script failure, uses the builtin policy: attack while a living opposing
// combatant exists, otherwise defend.
//
// Decider never blocks: both decision paths return immediately.
type Decider struct {
	scripts  *scripting.Manager
	registry *content.Registry
	logger   *zap.Logger
	// scratch builds the Lua argument tables. LTable values are not bound to
	// the state that allocated them, so passing them into script VMs is safe.
	scratch *lua.LState
}

// NewDecider creates a Decider.
//
// Precondition: registry must be frozen; logger must be non-nil. scripts may
// be nil, which disables the scripted path entirely.
func NewDecider(scripts *scripting.Manager, registry *content.Registry, logger *zap.Logger) *Decider {
	return &Decider{
		scripts:  scripts,
		registry: registry,
		logger:   logger,
		scratch:  lua.NewState(lua.Options{SkipOpenLibs: true}),
	}
}

// Close releases the scratch VM.
func (d *Decider) Close() {
	d.scratch.Close()
}

// ChooseAction picks the actor's move. The rosters are the session's absolute
// allies and enemies; the opposing side is derived from the actor's faction.
func (d *Decider) ChooseAction(_ context.Context, actor *combat.Combatant, allies, enemies []*combat.Combatant) (combat.Action, error) {
	own, opposing := allies, enemies
	if actor.Faction == combat.FactionEnemy {
		own, opposing = enemies, allies
	}

	if action, ok := d.scripted(actor, own, opposing); ok {
		return action, nil
	}
	return d.builtin(opposing), nil
}

// ChooseTarget picks the living candidate with the lowest HP. AI picks are
// never cancelled.
func (d *Decider) ChooseTarget(_ context.Context, _ *combat.Combatant, candidates []*combat.Combatant) (string, bool, error) {
	target := combat.SelectLowestHP(candidates)
	if target == nil {
		return "", false, nil
	}
	return target.ID, true, nil
}

// builtin is the default policy: attack while anything opposes, else defend.
func (d *Decider) builtin(opposing []*combat.Combatant) combat.Action {
	if combat.AnyAlive(opposing) {
		return combat.Action{Kind: combat.ActionAttack}
	}
	return combat.Action{Kind: combat.ActionDefend}
}

// scripted runs the actor's decision script and maps its result to an
// action. Returns ok == false whenever the script is absent, errors, or
// returns something the session could not resolve, so a bad script degrades
// to the builtin policy instead of wedging the turn loop.
func (d *Decider) scripted(actor *combat.Combatant, own, opposing []*combat.Combatant) (combat.Action, bool) {
	if d.scripts == nil || actor.AIScript == "" || !d.scripts.Has(actor.AIScript) {
		return combat.Action{}, false
	}

	ret, err := d.scripts.Decide(actor.AIScript,
		d.combatantTable(actor),
		d.rosterTable(own),
		d.rosterTable(opposing),
	)
	if err != nil {
		d.logger.Warn("decision script failed",
			zap.String("script", actor.AIScript),
			zap.Error(err),
		)
		return combat.Action{}, false
	}

	table, ok := ret.(*lua.LTable)
	if !ok {
		return combat.Action{}, false
	}
	return d.parseAction(actor, table)
}

// parseAction validates the script's result against what the session will
// accept: a known action kind, a resolvable definition id, and enough energy
// to cover its cost.
func (d *Decider) parseAction(actor *combat.Combatant, table *lua.LTable) (combat.Action, bool) {
	name, ok := d.scratch.GetField(table, "action").(lua.LString)
	if !ok {
		return combat.Action{}, false
	}

	var kind combat.ActionKind
	switch string(name) {
	case "attack":
		kind = combat.ActionAttack
	case "defend":
		kind = combat.ActionDefend
	case "item":
		kind = combat.ActionItem
	case "skill":
		kind = combat.ActionSkill
	case "flee":
		kind = combat.ActionFlee
	default:
		d.logger.Warn("decision script returned unknown action",
			zap.String("script", actor.AIScript),
			zap.String("action", string(name)),
		)
		return combat.Action{}, false
	}

	action := combat.Action{Kind: kind}
	if !kind.NeedsDefinition() {
		return action, true
	}

	id, ok := d.scratch.GetField(table, "id").(lua.LString)
	if !ok {
		return combat.Action{}, false
	}
	action.DefID = string(id)

	defKind := content.DefItem
	if kind == combat.ActionSkill {
		defKind = content.DefSkill
	}
	def, ok := d.registry.Definition(defKind, action.DefID)
	if !ok || actor.EP < def.Cost {
		// The session would re-prompt on these and the script would repeat
		// itself forever.
		return combat.Action{}, false
	}
	return action, true
}

// combatantTable snapshots a combatant into the fields scripts may read.
func (d *Decider) combatantTable(c *combat.Combatant) *lua.LTable {
	t := d.scratch.NewTable()
	d.scratch.SetField(t, "id", lua.LString(c.ID))
	d.scratch.SetField(t, "name", lua.LString(c.Name))
	d.scratch.SetField(t, "hp", lua.LNumber(c.HP))
	d.scratch.SetField(t, "max_hp", lua.LNumber(c.MaxHP))
	d.scratch.SetField(t, "ep", lua.LNumber(c.EP))
	d.scratch.SetField(t, "max_ep", lua.LNumber(c.MaxEP))
	d.scratch.SetField(t, "atk", lua.LNumber(c.Atk))
	d.scratch.SetField(t, "def", lua.LNumber(c.Def))
	d.scratch.SetField(t, "speed", lua.LNumber(c.Speed))
	d.scratch.SetField(t, "defending", lua.LBool(c.Defending))
	return t
}

func (d *Decider) rosterTable(roster []*combat.Combatant) *lua.LTable {
	t := d.scratch.NewTable()
	for _, c := range roster {
		t.Append(d.combatantTable(c))
	}
	return t
}
