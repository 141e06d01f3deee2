package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/mirefall/mirefall/internal/game/content"
)

// TestResolveAttackBaseline: atk=5 vs def=1 with hit=100, eva=0,
// critChance=0 lands and deals max(1, 5-1) = 4.
func TestResolveAttackBaseline(t *testing.T) {
	attacker := testCombatant("attacker", FactionAlly)
	defender := testCombatant("defender", FactionEnemy)

	res := ResolveAttack(attacker, defender, fixedSrc{pct: 50})

	assert.True(t, res.Hit)
	assert.False(t, res.Crit)
	assert.Equal(t, 4, res.Damage)
	assert.Equal(t, 16, defender.HP)
}

// TestResolveAttackDefending: same attack against a defending target deals
// floor(4 * 0.8) = 3.
func TestResolveAttackDefending(t *testing.T) {
	attacker := testCombatant("attacker", FactionAlly)
	defender := testCombatant("defender", FactionEnemy)
	defender.Defending = true

	res := ResolveAttack(attacker, defender, fixedSrc{pct: 50})

	assert.True(t, res.Hit)
	assert.Equal(t, 3, res.Damage)
	assert.Equal(t, 17, defender.HP)
}

func TestResolveAttackMiss(t *testing.T) {
	attacker := testCombatant("attacker", FactionAlly)
	attacker.Hit = 30
	defender := testCombatant("defender", FactionEnemy)
	defender.Eva = 10

	// Chance is 20; a draw of 90 misses.
	res := ResolveAttack(attacker, defender, fixedSrc{pct: 90})

	assert.False(t, res.Hit)
	assert.Zero(t, res.Damage)
	assert.Equal(t, 20, defender.HP, "a miss never mutates the target")
}

func TestResolveAttackHitChanceClamps(t *testing.T) {
	attacker := testCombatant("attacker", FactionAlly)
	defender := testCombatant("defender", FactionEnemy)

	// hit - eva = -100 clamps to 5: a draw of 4 still lands.
	attacker.Hit = 0
	defender.Eva = 100
	res := ResolveAttack(attacker, defender, fixedSrc{pct: 4})
	assert.True(t, res.Hit)

	// hit - eva = 200 clamps to 95: a draw of 96 still misses.
	attacker.Hit = 200
	defender.Eva = 0
	res = ResolveAttack(attacker, defender, fixedSrc{pct: 96})
	assert.False(t, res.Hit)
}

func TestResolveAttackCrit(t *testing.T) {
	attacker := testCombatant("attacker", FactionAlly)
	attacker.CritChance = 100
	attacker.CritMult = 1.5
	defender := testCombatant("defender", FactionEnemy)

	res := ResolveAttack(attacker, defender, fixedSrc{pct: 50})

	assert.True(t, res.Crit)
	// floor(4 * 1.5) = 6
	assert.Equal(t, 6, res.Damage)
}

func TestResolveAttackCritOnDefendingTarget(t *testing.T) {
	attacker := testCombatant("attacker", FactionAlly)
	attacker.CritChance = 100
	defender := testCombatant("defender", FactionEnemy)
	defender.Defending = true

	res := ResolveAttack(attacker, defender, fixedSrc{pct: 50})

	// floor(floor(4 * 1.5) * 0.8) = floor(6 * 0.8) = 4
	assert.Equal(t, 4, res.Damage)
}

// TestDamageFloorLaw: damage is >= 1 on any hit regardless of defense
// magnitude or the defend multiplier.
func TestDamageFloorLaw(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		attacker := testCombatant("attacker", FactionAlly)
		attacker.Atk = rapid.IntRange(0, 50).Draw(t, "atk")
		attacker.CritChance = rapid.IntRange(0, 100).Draw(t, "crit")
		defender := testCombatant("defender", FactionEnemy)
		defender.Def = rapid.IntRange(0, 200).Draw(t, "def")
		defender.Defending = rapid.Bool().Draw(t, "defending")
		defender.MaxHP = 1000
		defender.HP = 1000

		res := ResolveAttack(attacker, defender, fixedSrc{pct: 0})
		if !res.Hit {
			t.Fatal("a 0 draw must always land")
		}
		if res.Damage < 1 {
			t.Fatalf("damage %d below floor", res.Damage)
		}
	})
}

func TestApplyEffectRestoreHP(t *testing.T) {
	target := testCombatant("target", FactionAlly)
	target.HP = 13

	res := ApplyEffect(content.Effect{Action: content.EffectRestoreHP, Amount: 10}, target)

	assert.Equal(t, 20, target.HP, "restore clamps at MaxHP")
	assert.Equal(t, 7, res.Amount)
}

func TestApplyEffectRestoreEP(t *testing.T) {
	target := testCombatant("target", FactionAlly)
	target.EP = 0

	res := ApplyEffect(content.Effect{Action: content.EffectRestoreEP, Amount: 6}, target)

	assert.Equal(t, 6, target.EP)
	assert.Equal(t, 6, res.Amount)
}

func TestApplyEffectDamageHP(t *testing.T) {
	target := testCombatant("target", FactionEnemy)
	target.Def = 3
	target.Defending = true // magic damage ignores defending

	res := ApplyEffect(content.Effect{Action: content.EffectDamageHP, Amount: 8}, target)

	assert.Equal(t, 5, res.Amount)
	assert.Equal(t, 15, target.HP)
}

func TestApplyEffectDamageHPFloor(t *testing.T) {
	target := testCombatant("target", FactionEnemy)
	target.Def = 100

	res := ApplyEffect(content.Effect{Action: content.EffectDamageHP, Amount: 2}, target)

	assert.Equal(t, 1, res.Amount, "magic damage floors at 1")
	assert.Equal(t, 19, target.HP)
}

func TestFleeChance(t *testing.T) {
	caster := testCombatant("caster", FactionAlly)
	caster.Speed = 10

	fast := testCombatant("fast", FactionEnemy)
	fast.Speed = 20
	slow := testCombatant("slow", FactionEnemy)
	slow.Speed = 10
	dead := testCombatant("dead", FactionEnemy)
	dead.Speed = 100
	dead.HP = 0

	// Average over living opponents only: (20+10)/2 = 15.
	assert.InDelta(t, 45.0, FleeChance(caster, []*Combatant{fast, slow, dead}), 0.001)
}

func TestFleeChanceNoLivingOpponents(t *testing.T) {
	caster := testCombatant("caster", FactionAlly)
	caster.Speed = 10
	assert.InDelta(t, 60.0, FleeChance(caster, nil), 0.001)
}

func TestResolveFleeIsStateless(t *testing.T) {
	caster := testCombatant("caster", FactionAlly)
	enemy := testCombatant("enemy", FactionEnemy)

	before := *caster
	ResolveFlee(caster, []*Combatant{enemy}, fixedSrc{pct: 99})
	ResolveFlee(caster, []*Combatant{enemy}, fixedSrc{pct: 1})
	assert.Equal(t, before, *caster)
	assert.Equal(t, 20, enemy.HP)
}
