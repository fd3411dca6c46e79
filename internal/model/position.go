package model

import "fmt"

const boardSize = 8

// CaptureMarker may trail a destination square to signal a pawn's capture intent.
const CaptureMarker = 'x'

// Position is a zero-based square coordinate. File 0 is 'a', Rank 0 is '1'.
type Position struct {
	File int
	Rank int
}

// ParsePosition reads a square such as "e4".
func ParsePosition(s string) (Position, error) {
	if len(s) != 2 {
		return Position{}, fmt.Errorf("square %q: %w", s, ErrInvalidFormat)
	}
	p := Position{File: int(s[0]) - 'a', Rank: int(s[1]) - '1'}
	if !p.Valid() {
		return Position{}, fmt.Errorf("square %q: %w", s, ErrOutOfBounds)
	}
	return p, nil
}

// ParseTarget reads a destination square with an optional trailing capture marker.
func ParseTarget(s string) (Position, bool, error) {
	capture := false
	if len(s) == 3 && s[2] == CaptureMarker {
		capture = true
		s = s[:2]
	}
	p, err := ParsePosition(s)
	if err != nil {
		return Position{}, false, err
	}
	return p, capture, nil
}

func (p Position) Valid() bool {
	return p.File >= 0 && p.File < boardSize && p.Rank >= 0 && p.Rank < boardSize
}

func (p Position) String() string {
	if !p.Valid() {
		return fmt.Sprintf("(%d,%d)", p.File, p.Rank)
	}
	return fmt.Sprintf("%c%d", p.File+'a', p.Rank+1)
}

func (p Position) offset(df, dr int) Position {
	return Position{File: p.File + df, Rank: p.Rank + dr}
}

// MarshalText encodes the position in square notation so it travels as "e2" in JSON.
func (p Position) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("position %v: %w", p, ErrOutOfBounds)
	}
	return []byte(p.String()), nil
}

func (p *Position) UnmarshalText(text []byte) error {
	parsed, err := ParsePosition(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
