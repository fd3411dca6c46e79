package model

import (
	"fmt"
	"unicode"
)

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

// forward is the rank direction pawns of this color advance in.
func (c Color) forward() int {
	if c == White {
		return 1
	}
	return -1
}

type PieceType string

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

// Symbol is the lowercase descriptor letter for the piece type.
func (p PieceType) Symbol() byte {
	switch p {
	case King:
		return 'k'
	case Queen:
		return 'q'
	case Rook:
		return 'r'
	case Bishop:
		return 'b'
	case Knight:
		return 'n'
	case Pawn:
		return 'p'
	}
	return emptySymbol
}

// IsSliding reports whether the piece needs an unobstructed path to its destination.
func (p PieceType) IsSliding() bool {
	return p == Rook || p == Bishop || p == Queen
}

type Piece struct {
	Type     PieceType `json:"type"`
	Color    Color     `json:"color"`
	Position Position  `json:"position"`
	HasMoved bool      `json:"hasMoved"`
}

func NewPiece(t PieceType, c Color, pos Position) *Piece {
	return &Piece{Type: t, Color: c, Position: pos}
}

// PieceFromSymbol builds a piece from a descriptor letter: lowercase is White, uppercase is Black.
func PieceFromSymbol(symbol byte, pos Position) (*Piece, error) {
	color := White
	if unicode.IsUpper(rune(symbol)) {
		color = Black
	}
	var t PieceType
	switch unicode.ToLower(rune(symbol)) {
	case 'k':
		t = King
	case 'q':
		t = Queen
	case 'r':
		t = Rook
	case 'b':
		t = Bishop
	case 'n':
		t = Knight
	case 'p':
		t = Pawn
	default:
		return nil, fmt.Errorf("piece symbol %q at %s: %w", symbol, pos, ErrInvalidFormat)
	}
	return NewPiece(t, color, pos), nil
}

// Symbol is the descriptor letter for the piece, cased by color.
func (p *Piece) Symbol() byte {
	s := p.Type.Symbol()
	if p.Color == Black {
		return byte(unicode.ToUpper(rune(s)))
	}
	return s
}

func (p *Piece) GetType() PieceType {
	return p.Type
}

func (p *Piece) GetColor() Color {
	return p.Color
}

func (p *Piece) GetPosition() Position {
	return p.Position
}

// IsFirstMove reports whether a pawn may still advance two squares.
func (p *Piece) IsFirstMove() bool {
	return p.Type == Pawn && !p.HasMoved
}

// CanMove checks the destination against the piece's own movement geometry.
// It knows nothing about other pieces; path and capture rules belong to the Board.
// The capture flag only matters for pawns, where it permits a change of file.
func (p *Piece) CanMove(to Position, capture bool) error {
	if !p.Position.Valid() || !to.Valid() {
		return fmt.Errorf("%s %s to %s: %w", p.Type, p.Position, to, ErrOutOfBounds)
	}
	dr := to.Rank - p.Position.Rank
	dc := to.File - p.Position.File

	legal := false
	switch p.Type {
	case Bishop:
		legal = diagonal(dr, dc)
	case Rook:
		legal = straight(dr, dc)
	case Queen:
		legal = diagonal(dr, dc) || straight(dr, dc)
	case Knight:
		legal = (abs(dr) == 1 && abs(dc) == 2) || (abs(dr) == 2 && abs(dc) == 1)
	case King:
		legal = abs(dr) <= 1 && abs(dc) <= 1 && (dr != 0 || dc != 0)
	case Pawn:
		legal = p.pawnCanReach(dr, dc, capture)
	}
	if !legal {
		return fmt.Errorf("%s %s to %s: %w", p.Type, p.Position, to, ErrIllegalPieceMove)
	}
	return nil
}

// pawnCanReach only loosely checks captures: with the marker set any file change is accepted.
func (p *Piece) pawnCanReach(dr, dc int, capture bool) bool {
	if dc != 0 && !capture {
		return false
	}
	dir := p.Color.forward()
	return dr == dir || (!p.HasMoved && dr == 2*dir)
}

// Move revalidates the destination and updates the piece's own position.
// Grid bookkeeping is left to the Board.
func (p *Piece) Move(to Position, capture bool) error {
	if err := p.CanMove(to, capture); err != nil {
		return err
	}
	p.Position = to
	p.HasMoved = true
	return nil
}

func diagonal(dr, dc int) bool {
	return dr != 0 && abs(dr) == abs(dc)
}

func straight(dr, dc int) bool {
	return (dr == 0) != (dc == 0)
}
