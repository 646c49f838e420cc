package domain

// Direction indicates which side of the trade a threshold leg takes.
// The string values are part of the wire contract for threshold legs.
type Direction string

// Direction constants
const (
	DirectionLong  Direction = "Long"
	DirectionShort Direction = "Short"
)

// Factor returns the position value a held signal carries: +1 for long,
// -1 for short, 0 for an unrecognized direction.
func (d Direction) Factor() int {
	switch d {
	case DirectionLong:
		return 1
	case DirectionShort:
		return -1
	default:
		return 0
	}
}

// Valid reports whether the direction is one of the recognized values.
func (d Direction) Valid() bool {
	return d == DirectionLong || d == DirectionShort
}
