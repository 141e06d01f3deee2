package dice

// Percent draws a uniform value in [0, 100) from src.
//
// Combat rolls compare a percentage stat against this draw, so a stat of 100
// always passes and a stat of 0 always fails.
//
// Precondition: src must be non-nil.
func Percent(src Source) float64 {
	return src.Float64() * 100
}

// Between returns a uniform random int in [min, max] inclusive.
// When min == max the constant value is returned without consuming a draw.
//
// Precondition: src must be non-nil; min <= max.
// Postcondition: min <= result <= max.
func Between(src Source, min, max int) int {
	if min > max {
		panic("dice: Between called with min > max")
	}
	if min == max {
		return min
	}
	return min + src.Intn(max-min+1)
}
