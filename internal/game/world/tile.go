// Package world provides dungeon generation and map queries.
package world

// Tile represents a single map tile.
type Tile rune

const (
	// TileWall is impassable rock.
	TileWall Tile = '#'
	// TileFloor is open ground.
	TileFloor Tile = '.'
	// TileEntry marks where the player starts.
	TileEntry Tile = '<'
	// TileExit marks the stairs out of the floor.
	TileExit Tile = '>'
	// TileChest is furniture blocking movement.
	TileChest Tile = 'C'
	// TileBookshelf is furniture blocking movement.
	TileBookshelf Tile = 'B'
)

// Walkable reports whether the tile can be stood on.
func (t Tile) Walkable() bool {
	switch t {
	case TileFloor, TileEntry, TileExit:
		return true
	default:
		return false
	}
}

// Rune returns the tile's display character.
func (t Tile) Rune() rune {
	return rune(t)
}
