// Package combat implements the Active Time Battle engine for Mirefall.
package combat

// Faction is the side grouping that determines valid targets.
type Faction int

const (
	FactionAlly Faction = iota
	FactionEnemy
)

// String returns a human-readable faction label.
func (f Faction) String() string {
	switch f {
	case FactionAlly:
		return "ally"
	case FactionEnemy:
		return "enemy"
	default:
		return "unknown"
	}
}

// ControllerKind identifies the decision source for a combatant. It is
// resolved once at creation and never re-derived from roster membership.
type ControllerKind int

const (
	ControllerHuman ControllerKind = iota
	ControllerAI
)

// Combatant represents one participant in a combat session — the player or a
// monster instance. The record is owned exclusively by its Session for the
// session's lifetime; no other component retains a mutable reference.
type Combatant struct {
	// ID uniquely identifies this combatant within the session.
	ID string
	// Name is the display name.
	Name string
	// Faction is the side this combatant fights for.
	Faction Faction
	// Controller is the decision source: human menu or AI.
	Controller ControllerKind

	// HP is current hit points in [0, MaxHP]; 0 means dead.
	HP    int
	MaxHP int
	// EP is the current energy pool in [0, MaxEP] spent on items and skills.
	// Energy-less units have MaxEP == 0.
	EP    int
	MaxEP int

	Atk int
	Def int
	// Hit, Eva, and CritChance are percentages. They are clamped to [0, 100]
	// at resolution time, not at assignment time.
	Hit        int
	Eva        int
	CritChance int
	CritMult   float64
	Speed      int

	// TurnMeter accumulates toward ATBThreshold while alive and resets to 0
	// exactly once per completed turn.
	TurnMeter float64
	// Defending is set by the defend action and cleared at the start of every
	// turn this combatant takes, before its action executes.
	Defending bool

	// Inventory and Skills are ordered id sequences, present only on allied
	// combatants. Enemies never consult these lists.
	Inventory []string
	Skills    []string

	// AIScript is an optional Lua decider id copied from the monster template.
	AIScript string
	// XPReward is granted to the victors when this combatant is defeated.
	XPReward int
}

// IsAlive reports whether this combatant can still act and be targeted.
//
// Postcondition: Returns true iff HP > 0.
func (c *Combatant) IsAlive() bool { return c.HP > 0 }

// ApplyDamage reduces HP by amount, flooring at zero.
//
// Precondition: amount must be >= 0.
// Postcondition: HP >= 0.
func (c *Combatant) ApplyDamage(amount int) {
	c.HP -= amount
	if c.HP < 0 {
		c.HP = 0
	}
}

// Heal raises HP by amount, clamping at MaxHP, and returns the HP actually
// restored.
//
// Precondition: amount must be >= 0.
// Postcondition: HP <= MaxHP; returned value >= 0.
func (c *Combatant) Heal(amount int) int {
	before := c.HP
	c.HP += amount
	if c.HP > c.MaxHP {
		c.HP = c.MaxHP
	}
	return c.HP - before
}

// RestoreEnergy raises EP by amount, clamping at MaxEP, and returns the EP
// actually restored.
//
// Precondition: amount must be >= 0.
// Postcondition: EP <= MaxEP; returned value >= 0.
func (c *Combatant) RestoreEnergy(amount int) int {
	before := c.EP
	c.EP += amount
	if c.EP > c.MaxEP {
		c.EP = c.MaxEP
	}
	return c.EP - before
}

// SpendEnergy deducts cost from EP.
//
// Precondition: cost must be >= 0.
// Postcondition: Returns false and leaves EP unchanged when EP < cost;
// otherwise EP is reduced by cost and EP >= 0.
func (c *Combatant) SpendEnergy(cost int) bool {
	if c.EP < cost {
		return false
	}
	c.EP -= cost
	return true
}

// ConsumeItem removes the first occurrence of the item id from the
// inventory.
//
// Postcondition: Returns false and leaves the inventory unchanged when the
// id is not present.
func (c *Combatant) ConsumeItem(id string) bool {
	for i, have := range c.Inventory {
		if have == id {
			c.Inventory = append(c.Inventory[:i], c.Inventory[i+1:]...)
			return true
		}
	}
	return false
}

// Living filters combatants down to those still alive.
//
// Postcondition: Every returned combatant has HP > 0.
func Living(combatants []*Combatant) []*Combatant {
	var alive []*Combatant
	for _, c := range combatants {
		if c.IsAlive() {
			alive = append(alive, c)
		}
	}
	return alive
}

// AnyAlive reports whether at least one combatant is still alive.
func AnyAlive(combatants []*Combatant) bool {
	for _, c := range combatants {
		if c.IsAlive() {
			return true
		}
	}
	return false
}
