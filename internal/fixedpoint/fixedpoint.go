// Package fixedpoint implements the engine's fixed-point numeric types.
// All geometry, velocity, acceleration, and time-proportions in the engine
// are fixed-point integers with an implicit binary point; mixing formats
// without an explicit conversion is a compile error by construction (design
// note "Fixed-point math"). Grounded on the phase-accumulator fixed-point
// pattern in the teacher's internal/apu package (PhaseFixed/PhaseIncrementFixed).
package fixedpoint

// Fix13 is a Q18.13 signed fixed-point number: 13 fractional bits. Used for
// world-space geometry (positions, displacements).
type Fix13 int32

// Fix9 is a Q22.9 signed fixed-point number: 9 fractional bits. Used for
// screen-space and parallax quantities where less fractional precision is
// needed.
type Fix9 int32

const (
	fix13Shift = 13
	fix9Shift  = 9
)

// FromInt13 converts an integer to Fix13.
func FromInt13(n int) Fix13 { return Fix13(n << fix13Shift) }

// ToInt converts a Fix13 to an integer, truncating the fraction.
func (f Fix13) ToInt() int { return int(f >> fix13Shift) }

// FromFloat13 converts a float64 to Fix13.
func FromFloat13(v float64) Fix13 { return Fix13(v * (1 << fix13Shift)) }

// ToFloat converts a Fix13 to float64.
func (f Fix13) ToFloat() float64 { return float64(f) / (1 << fix13Shift) }

// Mul multiplies two Fix13 values, correcting the shift.
func (f Fix13) Mul(g Fix13) Fix13 {
	return Fix13((int64(f) * int64(g)) >> fix13Shift)
}

// Div divides two Fix13 values, correcting the shift. Division by zero
// panics, matching the engine's fatal-on-divide-by-zero policy (§7) rather
// than silently returning zero or infinity.
func (f Fix13) Div(g Fix13) Fix13 {
	if g == 0 {
		panic("fixedpoint: division by zero")
	}
	return Fix13((int64(f) << fix13Shift) / int64(g))
}

// Add, Sub are ordinary integer operations; defined as methods so call
// sites read uniformly with Mul/Div.
func (f Fix13) Add(g Fix13) Fix13 { return f + g }
func (f Fix13) Sub(g Fix13) Fix13 { return f - g }
func (f Fix13) Neg() Fix13        { return -f }

// FromInt9 converts an integer to Fix9.
func FromInt9(n int) Fix9 { return Fix9(n << fix9Shift) }

// ToInt converts a Fix9 to an integer, truncating the fraction.
func (f Fix9) ToInt() int { return int(f >> fix9Shift) }

// FromFloat9 converts a float64 to Fix9.
func FromFloat9(v float64) Fix9 { return Fix9(v * (1 << fix9Shift)) }

// ToFloat converts a Fix9 to float64.
func (f Fix9) ToFloat() float64 { return float64(f) / (1 << fix9Shift) }

func (f Fix9) Mul(g Fix9) Fix9 {
	return Fix9((int64(f) * int64(g)) >> fix9Shift)
}

func (f Fix9) Div(g Fix9) Fix9 {
	if g == 0 {
		panic("fixedpoint: division by zero")
	}
	return Fix9((int64(f) << fix9Shift) / int64(g))
}

func (f Fix9) Add(g Fix9) Fix9 { return f + g }
func (f Fix9) Sub(g Fix9) Fix9 { return f - g }
func (f Fix9) Neg() Fix9       { return -f }

// To13 widens a Fix9 value into Fix13, the only sanctioned conversion path
// between the two formats.
func (f Fix9) To13() Fix13 { return Fix13(int32(f) << (fix13Shift - fix9Shift)) }

// To9 narrows a Fix13 value into Fix9, truncating extra fractional bits.
func (f Fix13) To9() Fix9 { return Fix9(int32(f) >> (fix13Shift - fix9Shift)) }

// FullTurn is the fixed-point representation of one full rotation: 360
// degrees expressed as 4096 of the engine's angle units, each a Fix13 value.
const FullTurn Fix13 = 4096 << fix13Shift

// ClampTurn wraps an angle into [0, FullTurn).
func ClampTurn(angle Fix13) Fix13 {
	angle %= FullTurn
	if angle < 0 {
		angle += FullTurn
	}
	return angle
}
