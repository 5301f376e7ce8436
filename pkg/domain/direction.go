package domain

import "fmt"

// Direction is the head movement applied after a write.
type Direction int

const (
	Left Direction = iota
	Right
)

// Delta returns the head offset for the direction.
func (d Direction) Delta() int {
	if d == Left {
		return -1
	}
	return 1
}

// String returns the program-file token for the direction.
func (d Direction) String() string {
	if d == Left {
		return "<"
	}
	return ">"
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	dir, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = dir
	return nil
}

// ParseDirection accepts "<" (left) or ">" (right).
func ParseDirection(token string) (Direction, error) {
	switch token {
	case "<":
		return Left, nil
	case ">":
		return Right, nil
	default:
		return 0, fmt.Errorf("invalid direction %q: expected '<' or '>'", token)
	}
}
