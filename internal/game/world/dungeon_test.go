package world

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirefall/mirefall/internal/game/dice"
)

// generation is randomized; run the invariant checks across several floors.
const generationSamples = 25

func TestGenerateStructuralInvariants(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < generationSamples; i++ {
		d := Generate(context.Background(), DefaultWidth, DefaultHeight, src)

		require.NotEmpty(t, d.Rooms)
		assert.LessOrEqual(t, len(d.Rooms), maxRooms)

		for ri, room := range d.Rooms {
			assert.GreaterOrEqual(t, room.Width, minRoomSize)
			assert.LessOrEqual(t, room.Width, maxRoomSize)
			assert.GreaterOrEqual(t, room.Height, minRoomSize)
			assert.LessOrEqual(t, room.Height, maxRoomSize)
			assert.Greater(t, room.X, 0)
			assert.Greater(t, room.Y, 0)
			assert.Less(t, room.X+room.Width, d.Width)
			assert.Less(t, room.Y+room.Height, d.Height)

			for rj := ri + 1; rj < len(d.Rooms); rj++ {
				assert.False(t, room.Expand(1).Intersects(d.Rooms[rj]),
					"rooms %d and %d touch", ri, rj)
			}
		}
	}
}

func TestGenerateBordersStayWalled(t *testing.T) {
	src := dice.NewCryptoSource()
	d := Generate(context.Background(), DefaultWidth, DefaultHeight, src)

	for x := 0; x < d.Width; x++ {
		assert.Equal(t, TileWall, d.Tiles[0][x])
		assert.Equal(t, TileWall, d.Tiles[d.Height-1][x])
	}
	for y := 0; y < d.Height; y++ {
		assert.Equal(t, TileWall, d.Tiles[y][0])
		assert.Equal(t, TileWall, d.Tiles[y][d.Width-1])
	}
}

func TestGenerateMarkersAndSpawns(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < generationSamples; i++ {
		d := Generate(context.Background(), DefaultWidth, DefaultHeight, src)

		assert.Equal(t, TileEntry, d.TileAt(d.Entry.X, d.Entry.Y))
		assert.Equal(t, TileExit, d.TileAt(d.Exit.X, d.Exit.Y))
		assert.True(t, d.Walkable(d.Entry.X, d.Entry.Y))

		for _, p := range d.SpawnPoints {
			assert.True(t, d.Walkable(p.X, p.Y), "spawn at (%d,%d) not walkable", p.X, p.Y)
			assert.NotEqual(t, 0, d.RoomAt(p.X, p.Y), "no spawns in the entry room")
		}
	}
}

// TestGenerateConnectivity flood-fills from the entry and checks every
// walkable tile is reachable, so the exit and all spawns can be walked to.
func TestGenerateConnectivity(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < generationSamples; i++ {
		d := Generate(context.Background(), DefaultWidth, DefaultHeight, src)

		reached := make(map[Point]bool)
		frontier := []Point{d.Entry}
		reached[d.Entry] = true
		for len(frontier) > 0 {
			p := frontier[0]
			frontier = frontier[1:]
			for _, n := range []Point{{p.X + 1, p.Y}, {p.X - 1, p.Y}, {p.X, p.Y + 1}, {p.X, p.Y - 1}} {
				if !reached[n] && d.Walkable(n.X, n.Y) {
					reached[n] = true
					frontier = append(frontier, n)
				}
			}
		}

		assert.True(t, reached[d.Exit], "exit unreachable from entry")
		for _, p := range d.SpawnPoints {
			assert.True(t, reached[p], "spawn at (%d,%d) unreachable", p.X, p.Y)
		}
	}
}

func TestWalkableOutOfBounds(t *testing.T) {
	d := Generate(context.Background(), DefaultWidth, DefaultHeight, dice.NewCryptoSource())

	assert.False(t, d.Walkable(-1, 0))
	assert.False(t, d.Walkable(0, -1))
	assert.False(t, d.Walkable(d.Width, 0))
	assert.False(t, d.Walkable(0, d.Height))
	assert.Equal(t, TileWall, d.TileAt(-5, -5))
}

func TestRoomAt(t *testing.T) {
	d := Generate(context.Background(), DefaultWidth, DefaultHeight, dice.NewCryptoSource())

	cx, cy := d.Rooms[0].Center()
	assert.Equal(t, 0, d.RoomAt(cx, cy))
	assert.Equal(t, -1, d.RoomAt(0, 0))
}

func TestTileWalkability(t *testing.T) {
	assert.True(t, TileFloor.Walkable())
	assert.True(t, TileEntry.Walkable())
	assert.True(t, TileExit.Walkable())
	assert.False(t, TileWall.Walkable())
	assert.False(t, TileChest.Walkable())
	assert.False(t, TileBookshelf.Walkable())
}

func TestRoomGeometry(t *testing.T) {
	r := Room{X: 4, Y: 4, Width: 6, Height: 4}

	cx, cy := r.Center()
	assert.Equal(t, 7, cx)
	assert.Equal(t, 6, cy)

	assert.True(t, r.Contains(4, 4))
	assert.True(t, r.Contains(9, 7))
	assert.False(t, r.Contains(10, 7))

	assert.True(t, r.Intersects(Room{X: 9, Y: 7, Width: 3, Height: 3}))
	assert.False(t, r.Intersects(Room{X: 10, Y: 8, Width: 3, Height: 3}))
	assert.True(t, r.Expand(1).Intersects(Room{X: 10, Y: 8, Width: 3, Height: 3}))
}
