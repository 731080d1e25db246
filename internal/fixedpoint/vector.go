package fixedpoint

// Vector3D is a triple of Fix13 fixed-point numbers used for position,
// velocity, acceleration, and displacement.
type Vector3D struct {
	X, Y, Z Fix13
}

func (v Vector3D) Add(o Vector3D) Vector3D {
	return Vector3D{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vector3D) Sub(o Vector3D) Vector3D {
	return Vector3D{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vector3D) Scale(s Fix13) Vector3D {
	return Vector3D{v.X.Mul(s), v.Y.Mul(s), v.Z.Mul(s)}
}

func (v Vector3D) Neg() Vector3D {
	return Vector3D{-v.X, -v.Y, -v.Z}
}

// SquareLength returns |v|^2 without extracting a square root — the broad
// phase collision test compares squared distances directly.
func (v Vector3D) SquareLength() int64 {
	x, y, z := int64(v.X), int64(v.Y), int64(v.Z)
	return x*x + y*y + z*z
}

// Rotation is a triple of independent fixed-point angles, each clamped to
// one full turn.
type Rotation struct {
	X, Y, Z Fix13
}

// Clamped returns the rotation with every axis wrapped into [0, FullTurn).
func (r Rotation) Clamped() Rotation {
	return Rotation{ClampTurn(r.X), ClampTurn(r.Y), ClampTurn(r.Z)}
}

// Add concatenates two rotations (parent x child is addition for rotations).
func (r Rotation) Add(o Rotation) Rotation {
	return Rotation{r.X + o.X, r.Y + o.Y, r.Z + o.Z}.Clamped()
}

// Invert negates and re-clamps a rotation.
func (r Rotation) Invert() Rotation {
	return Rotation{-r.X, -r.Y, -r.Z}.Clamped()
}

// Scale is a triple of fixed-point scale factors. Concatenation of
// parent x child is multiplication for scales.
type Scale struct {
	X, Y, Z Fix13
}

// UnitScale is the identity scale (1.0 on every axis).
var UnitScale = Scale{FromInt13(1), FromInt13(1), FromInt13(1)}

func (s Scale) Mul(o Scale) Scale {
	return Scale{s.X.Mul(o.X), s.Y.Mul(o.Y), s.Z.Mul(o.Z)}
}
