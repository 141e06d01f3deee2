package combat

import (
	"math"

	"github.com/mirefall/mirefall/internal/game/content"
	"github.com/mirefall/mirefall/internal/game/dice"
)

// AttackResult holds the numeric outcome of a single physical attack.
type AttackResult struct {
	// Hit is false when the attack missed; Crit and Damage are then zero.
	Hit  bool
	Crit bool
	// Damage is the final amount applied to the target; >= 1 on any hit.
	Damage int
}

// clampPercent bounds a percentage stat to [0, 100] at resolution time.
func clampPercent(v int) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return float64(v)
}

// ResolveAttack performs a full physical attack of attacker against defender
// and applies the damage to the defender.
//
// Hit chance is attacker.Hit − defender.Eva clamped to [5, 95], so no attack
// is ever certain to land or to miss. On a hit, damage starts at
// max(1, Atk − Def); a critical (drawn against the clamped CritChance)
// multiplies by CritMult, a defending target multiplies by 0.8, both floored,
// and the final damage is floored to a minimum of 1.
//
// Precondition: attacker and defender must be non-nil and alive; src must be
// non-nil.
// Postcondition: Returns the populated AttackResult; defender.HP is reduced
// by Damage (floored at 0) iff Hit.
func ResolveAttack(attacker, defender *Combatant, src dice.Source) AttackResult {
	hitChance := float64(attacker.Hit - defender.Eva)
	if hitChance < 5 {
		hitChance = 5
	}
	if hitChance > 95 {
		hitChance = 95
	}
	if dice.Percent(src) > hitChance {
		return AttackResult{Hit: false}
	}

	damage := attacker.Atk - defender.Def
	if damage < 1 {
		damage = 1
	}
	crit := dice.Percent(src) < clampPercent(attacker.CritChance)
	if crit {
		damage = int(math.Floor(float64(damage) * attacker.CritMult))
	}
	if defender.Defending {
		damage = int(math.Floor(float64(damage) * 0.8))
	}
	if damage < 1 {
		damage = 1
	}

	defender.ApplyDamage(damage)
	return AttackResult{Hit: true, Crit: crit, Damage: damage}
}

// EffectResult describes one applied item or skill effect.
type EffectResult struct {
	Action content.EffectAction
	// Amount is the HP/EP actually restored or the damage actually dealt
	// after clamping.
	Amount int
}

// ApplyEffect applies a definition effect to target.
//
// restore_hp and restore_ep clamp at the target's maxima. damage_hp is flat
// magical damage mitigated only by Def — max(1, amount − Def) — deliberately
// bypassing crit and defend mitigation.
//
// Precondition: target must be non-nil.
// Postcondition: Only target.HP/EP change; 0 <= HP <= MaxHP and
// 0 <= EP <= MaxEP still hold.
func ApplyEffect(effect content.Effect, target *Combatant) EffectResult {
	switch effect.Action {
	case content.EffectRestoreHP:
		return EffectResult{Action: effect.Action, Amount: target.Heal(effect.Amount)}
	case content.EffectRestoreEP:
		return EffectResult{Action: effect.Action, Amount: target.RestoreEnergy(effect.Amount)}
	case content.EffectDamageHP:
		damage := effect.Amount - target.Def
		if damage < 1 {
			damage = 1
		}
		target.ApplyDamage(damage)
		return EffectResult{Action: effect.Action, Amount: damage}
	default:
		return EffectResult{Action: effect.Action}
	}
}

// FleeChance computes the escape probability for caster against the living
// members of the opposing roster: 50 + Speed − average opposing Speed.
//
// The result is deliberately not clamped to [0, 100] before the draw; the
// source formula leaves extreme speed differentials as guaranteed or
// impossible escapes and that behavior is preserved.
//
// Precondition: caster must be non-nil.
// Postcondition: Returns 50 + caster.Speed when no opponent is alive.
func FleeChance(caster *Combatant, opposing []*Combatant) float64 {
	alive := Living(opposing)
	avg := 0.0
	if len(alive) > 0 {
		sum := 0
		for _, c := range alive {
			sum += c.Speed
		}
		avg = float64(sum) / float64(len(alive))
	}
	return 50 + float64(caster.Speed) - avg
}

// ResolveFlee draws against FleeChance.
//
// Precondition: caster and src must be non-nil.
// Postcondition: Returns true iff the escape succeeds. No combatant state
// changes either way.
func ResolveFlee(caster *Combatant, opposing []*Combatant, src dice.Source) bool {
	return dice.Percent(src) < FleeChance(caster, opposing)
}
