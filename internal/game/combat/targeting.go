package combat

import "github.com/mirefall/mirefall/internal/game/content"

// PossibleTargets computes the legal target set for a caster and target type
// against the two rosters.
//
// enemy_* resolves to living members of the roster opposing the caster's
// faction; ally_* to living members of the caster's own roster; self to the
// caster alone. Dead combatants are never legal targets.
//
// An empty result is a recoverable condition, not an error: the session
// re-offers the turn to the caster.
//
// Precondition: caster must be non-nil and a member of one of the rosters.
// Postcondition: Every returned combatant is alive (or is the caster for
// self-targeting).
func PossibleTargets(caster *Combatant, allies, enemies []*Combatant, tt content.TargetType) []*Combatant {
	if tt == content.TargetSelf {
		return []*Combatant{caster}
	}

	own, opposing := allies, enemies
	if caster.Faction == FactionEnemy {
		own, opposing = enemies, allies
	}

	if tt.Opposing() {
		return Living(opposing)
	}
	return Living(own)
}

// SelectLowestHP returns the candidate with the lowest current HP, the
// standard AI preference. Ties resolve to the earliest candidate in roster
// order.
//
// Postcondition: Returns nil iff candidates is empty.
func SelectLowestHP(candidates []*Combatant) *Combatant {
	var best *Combatant
	for _, c := range candidates {
		if best == nil || c.HP < best.HP {
			best = c
		}
	}
	return best
}
