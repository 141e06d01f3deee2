package world

import "github.com/mirefall/mirefall/internal/game/entity"

// GatherRadius is the tile distance within which nearby mobs join an
// encounter started by bumping into one of them.
const GatherRadius = 3

// GatherEncounter returns every living mob within GatherRadius of the given
// position, measured per axis so the catchment is a square. The triggering
// mob is inside its own radius and is always included.
//
// Postcondition: Every returned mob is alive; order follows the input slice.
func GatherEncounter(mobs []*entity.Mob, x, y int) []*entity.Mob {
	var gathered []*entity.Mob
	for _, m := range mobs {
		if !m.IsAlive() {
			continue
		}
		if abs(m.X-x) <= GatherRadius && abs(m.Y-y) <= GatherRadius {
			gathered = append(gathered, m)
		}
	}
	return gathered
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
