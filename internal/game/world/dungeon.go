package world

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mirefall/mirefall/internal/game/dice"
	"github.com/mirefall/mirefall/internal/telemetry"
)

const (
	DefaultWidth  = 80
	DefaultHeight = 40

	minRooms    = 8
	maxRooms    = 12
	minRoomSize = 6
	maxRoomSize = 12

	// placeAttempts caps room placement tries so generation always
	// terminates, even on small maps.
	placeAttempts = 200

	// monsterRoomPercent of non-entry rooms receive spawn points; the rest
	// get a piece of furniture.
	monsterRoomPercent = 80
	maxSpawnsPerRoom   = 2
)

// Point is a tile coordinate.
type Point struct {
	X, Y int
}

// Dungeon is one generated floor: the tile grid, its rooms, the entry
// point, and the monster spawn points.
type Dungeon struct {
	Width  int
	Height int
	Tiles  [][]Tile
	Rooms  []Room
	Entry  Point
	Exit   Point
	// SpawnPoints are the tiles monsters are placed on, rolled at
	// generation time.
	SpawnPoints []Point
}

// Generate builds a dungeon floor: rooms placed with an overlap check,
// L-shaped corridors between successive rooms, the entry in the first room,
// the exit in the last, and spawn points or furniture rolled per room.
//
// Precondition: width and height must each be at least 2*maxRoomSize;
// src must not be nil.
// Postcondition: The dungeon has at least one room, a walkable Entry, and
// every spawn point is walkable.
func Generate(ctx context.Context, width, height int, src dice.Source) *Dungeon {
	_, span := telemetry.Tracer("world").Start(ctx, "dungeon.generate")
	defer span.End()
	startTime := time.Now()

	d := &Dungeon{
		Width:  width,
		Height: height,
		Tiles:  make([][]Tile, height),
	}
	for y := range d.Tiles {
		d.Tiles[y] = make([]Tile, width)
		for x := range d.Tiles[y] {
			d.Tiles[y][x] = TileWall
		}
	}

	d.placeRooms(src)
	d.carveCorridors(src)
	d.placeMarkers()
	d.rollRoomContents(src)

	span.SetAttributes(
		attribute.Int("dungeon.width", d.Width),
		attribute.Int("dungeon.height", d.Height),
		attribute.Int("dungeon.room_count", len(d.Rooms)),
		attribute.Int("dungeon.spawn_points", len(d.SpawnPoints)),
		attribute.Int64("dungeon.generation_ms", time.Since(startTime).Milliseconds()),
	)
	return d
}

// Walkable reports whether the position is in bounds and passable.
func (d *Dungeon) Walkable(x, y int) bool {
	if x < 0 || x >= d.Width || y < 0 || y >= d.Height {
		return false
	}
	return d.Tiles[y][x].Walkable()
}

// TileAt returns the tile at the position; out-of-bounds reads as wall.
func (d *Dungeon) TileAt(x, y int) Tile {
	if x < 0 || x >= d.Width || y < 0 || y >= d.Height {
		return TileWall
	}
	return d.Tiles[y][x]
}

// RoomAt returns the index of the room containing the position, or -1.
func (d *Dungeon) RoomAt(x, y int) int {
	for i, room := range d.Rooms {
		if room.Contains(x, y) {
			return i
		}
	}
	return -1
}

// placeRooms rolls the room count, then places each room at a random
// position, rejecting placements that would touch an existing room.
func (d *Dungeon) placeRooms(src dice.Source) {
	target := dice.Between(src, minRooms, maxRooms)
	for attempt := 0; attempt < placeAttempts && len(d.Rooms) < target; attempt++ {
		w := dice.Between(src, minRoomSize, maxRoomSize)
		h := dice.Between(src, minRoomSize, maxRoomSize)
		room := Room{
			X:      dice.Between(src, 1, d.Width-w-2),
			Y:      dice.Between(src, 1, d.Height-h-2),
			Width:  w,
			Height: h,
		}

		overlaps := false
		for _, other := range d.Rooms {
			if room.Expand(1).Intersects(other) {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}

		d.Rooms = append(d.Rooms, room)
		d.carveRoom(room)
	}
}

func (d *Dungeon) carveRoom(room Room) {
	for y := room.Y; y < room.Y+room.Height; y++ {
		for x := room.X; x < room.X+room.Width; x++ {
			d.Tiles[y][x] = TileFloor
		}
	}
}

// carveCorridors joins each room to the next with an L-shaped corridor, so
// every room is reachable from the entry.
func (d *Dungeon) carveCorridors(src dice.Source) {
	for i := 1; i < len(d.Rooms); i++ {
		x1, y1 := d.Rooms[i-1].Center()
		x2, y2 := d.Rooms[i].Center()
		if src.Intn(2) == 0 {
			d.carveHorizontal(x1, x2, y1)
			d.carveVertical(y1, y2, x2)
		} else {
			d.carveVertical(y1, y2, x1)
			d.carveHorizontal(x1, x2, y2)
		}
	}
}

func (d *Dungeon) carveHorizontal(x1, x2, y int) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	for x := x1; x <= x2; x++ {
		if x > 0 && x < d.Width-1 && y > 0 && y < d.Height-1 {
			d.Tiles[y][x] = TileFloor
		}
	}
}

func (d *Dungeon) carveVertical(y1, y2, x int) {
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	for y := y1; y <= y2; y++ {
		if x > 0 && x < d.Width-1 && y > 0 && y < d.Height-1 {
			d.Tiles[y][x] = TileFloor
		}
	}
}

// placeMarkers puts the entry in the first room and the exit in the last.
func (d *Dungeon) placeMarkers() {
	if len(d.Rooms) == 0 {
		return
	}
	ex, ey := d.Rooms[0].Center()
	d.Entry = Point{X: ex, Y: ey}
	d.Tiles[ey][ex] = TileEntry

	xx, xy := d.Rooms[len(d.Rooms)-1].Center()
	d.Exit = Point{X: xx, Y: xy}
	d.Tiles[xy][xx] = TileExit
}

// rollRoomContents assigns each non-entry room either spawn points or a
// chance of furniture. The entry room stays empty so the player never
// starts inside an encounter.
func (d *Dungeon) rollRoomContents(src dice.Source) {
	for i, room := range d.Rooms {
		if i == 0 {
			continue
		}
		if dice.Percent(src) < monsterRoomPercent {
			count := dice.Between(src, 1, maxSpawnsPerRoom)
			for n := 0; n < count; n++ {
				if p, ok := d.randomFloorIn(room, src); ok {
					d.SpawnPoints = append(d.SpawnPoints, p)
				}
			}
			continue
		}
		if p, ok := d.randomFloorIn(room, src); ok {
			furniture := TileChest
			if src.Intn(2) == 0 {
				furniture = TileBookshelf
			}
			d.Tiles[p.Y][p.X] = furniture
		}
	}
}

// randomFloorIn picks a plain floor tile inside the room, avoiding the
// entry, exit, and already-placed furniture.
func (d *Dungeon) randomFloorIn(room Room, src dice.Source) (Point, bool) {
	for i := 0; i < 50; i++ {
		x := room.X + src.Intn(room.Width)
		y := room.Y + src.Intn(room.Height)
		if d.Tiles[y][x] == TileFloor {
			return Point{X: x, Y: y}, true
		}
	}
	return Point{}, false
}
