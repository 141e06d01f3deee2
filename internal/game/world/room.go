package world

// Room is a rectangular carved area of the dungeon.
type Room struct {
	X, Y          int
	Width, Height int
}

// Center returns the room's center coordinates.
func (r Room) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains reports whether the point lies inside the room.
func (r Room) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Intersects reports whether this room overlaps another.
func (r Room) Intersects(other Room) bool {
	return r.X < other.X+other.Width &&
		r.X+r.Width > other.X &&
		r.Y < other.Y+other.Height &&
		r.Y+r.Height > other.Y
}

// Expand grows the room by the given margin on every side. Placement uses
// the expanded rectangle for overlap checks so rooms keep a wall between
// them.
func (r Room) Expand(margin int) Room {
	return Room{
		X:      r.X - margin,
		Y:      r.Y - margin,
		Width:  r.Width + 2*margin,
		Height: r.Height + 2*margin,
	}
}
