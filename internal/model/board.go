package model

import (
	"fmt"
	"strings"
)

const (
	emptySymbol      = '#'
	descriptorLength = boardSize*boardSize + 1
	whiteToMove      = '0'
	blackToMove      = '1'
)

// InitialDescriptor is the standard starting position, White to move.
const InitialDescriptor = "rnbqkbnr" + "pppppppp" +
	"########" + "########" + "########" + "########" +
	"PPPPPPPP" + "RNBQKBNR" + "0"

// Board owns the pieces on an 8x8 grid and the side to move.
// Squares are indexed [rank][file]; a nil slot is an empty square.
// A Board is not safe for concurrent use.
type Board struct {
	squares [boardSize][boardSize]*Piece
	turn    Color
}

func NewBoard() *Board {
	b, err := ParseBoard(InitialDescriptor)
	if err != nil {
		panic(err)
	}
	return b
}

// ParseBoard builds a board from a 65-character descriptor.
func ParseBoard(descriptor string) (*Board, error) {
	b := &Board{}
	if err := b.Deserialize(descriptor); err != nil {
		return nil, err
	}
	return b, nil
}

// Deserialize replaces every square and the turn from the descriptor.
// The board is left untouched when the descriptor is rejected.
func (b *Board) Deserialize(descriptor string) error {
	if len(descriptor) != descriptorLength {
		return fmt.Errorf("board descriptor has %d characters, want %d: %w", len(descriptor), descriptorLength, ErrInvalidFormat)
	}

	var squares [boardSize][boardSize]*Piece
	for i := 0; i < boardSize*boardSize; i++ {
		pos := Position{File: i % boardSize, Rank: i / boardSize}
		symbol := descriptor[i]
		if symbol == emptySymbol {
			continue
		}
		piece, err := PieceFromSymbol(symbol, pos)
		if err != nil {
			return err
		}
		if piece.Type == Pawn {
			piece.HasMoved = pos.Rank != pawnHomeRank(piece.Color)
		}
		squares[pos.Rank][pos.File] = piece
	}

	var turn Color
	switch descriptor[boardSize*boardSize] {
	case whiteToMove:
		turn = White
	case blackToMove:
		turn = Black
	default:
		return fmt.Errorf("turn indicator %q: %w", descriptor[boardSize*boardSize], ErrInvalidFormat)
	}

	b.squares = squares
	b.turn = turn
	return nil
}

func pawnHomeRank(c Color) int {
	if c == White {
		return 1
	}
	return boardSize - 2
}

// Serialize writes the board as a descriptor: 64 squares from a1 to h8, rank by rank,
// lowercase for White, uppercase for Black, '#' for empty, then '0' or '1' for the side to move.
func (b *Board) Serialize() string {
	var sb strings.Builder
	sb.Grow(descriptorLength)
	for rank := 0; rank < boardSize; rank++ {
		for file := 0; file < boardSize; file++ {
			if piece := b.squares[rank][file]; piece != nil {
				sb.WriteByte(piece.Symbol())
			} else {
				sb.WriteByte(emptySymbol)
			}
		}
	}
	if b.turn == Black {
		sb.WriteByte(blackToMove)
	} else {
		sb.WriteByte(whiteToMove)
	}
	return sb.String()
}

func (b *Board) String() string {
	return b.Serialize()
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	c := &Board{turn: b.turn}
	for rank := range b.squares {
		for file, piece := range b.squares[rank] {
			if piece != nil {
				cp := *piece
				c.squares[rank][file] = &cp
			}
		}
	}
	return c
}

func (b *Board) Turn() Color {
	return b.turn
}

func (b *Board) SwitchTurn() {
	b.turn = b.turn.Opposite()
}

// PieceAt returns the piece on the square, or nil when empty or off the board.
// The piece belongs to the board and must not be modified; use Resolve for a copy.
func (b *Board) PieceAt(pos Position) *Piece {
	if !pos.Valid() {
		return nil
	}
	return b.squares[pos.Rank][pos.File]
}

// Resolve looks up a square given in text form and returns a copy of its piece,
// or nil when the square is empty.
func (b *Board) Resolve(square string) (*Piece, error) {
	pos, err := ParsePosition(square)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	piece := b.PieceAt(pos)
	if piece == nil {
		return nil, nil
	}
	cp := *piece
	return &cp, nil
}

// Pieces returns copies of every piece in descriptor order.
func (b *Board) Pieces() []Piece {
	pieces := []Piece{}
	for rank := range b.squares {
		for _, piece := range b.squares[rank] {
			if piece != nil {
				pieces = append(pieces, *piece)
			}
		}
	}
	return pieces
}

// MovePiece moves the piece on from to to, both in square notation.
// The destination may carry a trailing CaptureMarker.
func (b *Board) MovePiece(from, to string) error {
	src, err := ParsePosition(from)
	if err != nil {
		return err
	}
	dst, capture, err := ParseTarget(to)
	if err != nil {
		return err
	}
	_, err = b.Move(src, dst, capture)
	return err
}

// Move executes a move and returns the captured piece, if any.
// Nothing changes unless every check passes.
func (b *Board) Move(from, to Position, capture bool) (*Piece, error) {
	piece, err := b.validateMove(from, to, capture)
	if err != nil {
		return nil, err
	}
	if err := piece.Move(to, capture); err != nil {
		return nil, err
	}
	captured := b.squares[to.Rank][to.File]
	b.squares[to.Rank][to.File] = piece
	b.squares[from.Rank][from.File] = nil
	return captured, nil
}

func (b *Board) validateMove(from, to Position, capture bool) (*Piece, error) {
	if !from.Valid() || !to.Valid() {
		return nil, fmt.Errorf("move %s to %s: %w", from, to, ErrOutOfBounds)
	}
	piece := b.squares[from.Rank][from.File]
	if piece == nil {
		return nil, fmt.Errorf("square %s: %w", from, ErrNoPieceAtSource)
	}
	if err := piece.CanMove(to, capture); err != nil {
		return nil, err
	}
	if piece.Type.IsSliding() && !b.PathClear(from, to, piece.Type) {
		return nil, fmt.Errorf("%s %s to %s: %w", piece.Type, from, to, ErrPathBlocked)
	}
	if target := b.squares[to.Rank][to.File]; target != nil && target.Color == piece.Color {
		return nil, fmt.Errorf("%s %s to %s: %w", piece.Type, from, to, ErrOwnPieceCapture)
	}
	return piece, nil
}

// PathClear reports whether every square strictly between from and to is empty
// along the line the piece type may use. Non-sliding types are always clear.
func (b *Board) PathClear(from, to Position, t PieceType) bool {
	if !t.IsSliding() {
		return true
	}
	dr := to.Rank - from.Rank
	dc := to.File - from.File
	switch {
	case t != Bishop && straight(dr, dc):
	case t != Rook && diagonal(dr, dc):
	default:
		return false
	}
	return b.walkClear(from, to, sign(dc), sign(dr))
}

func (b *Board) walkClear(from, to Position, df, dr int) bool {
	for pos := from.offset(df, dr); pos != to; pos = pos.offset(df, dr) {
		if !pos.Valid() {
			return false
		}
		if b.squares[pos.Rank][pos.File] != nil {
			return false
		}
	}
	return true
}

// LegalDestinations lists every square the piece on from could move to right now.
// Pawn captures are listed only where an enemy piece stands.
func (b *Board) LegalDestinations(from Position) ([]Position, error) {
	if !from.Valid() {
		return nil, fmt.Errorf("square %s: %w", from, ErrOutOfBounds)
	}
	piece := b.squares[from.Rank][from.File]
	if piece == nil {
		return nil, fmt.Errorf("square %s: %w", from, ErrNoPieceAtSource)
	}

	destinations := []Position{}
	for rank := 0; rank < boardSize; rank++ {
		for file := 0; file < boardSize; file++ {
			to := Position{File: file, Rank: rank}
			if _, err := b.validateMove(from, to, false); err == nil {
				destinations = append(destinations, to)
				continue
			}
			target := b.squares[rank][file]
			if piece.Type == Pawn && target != nil && target.Color != piece.Color {
				if _, err := b.validateMove(from, to, true); err == nil {
					destinations = append(destinations, to)
				}
			}
		}
	}
	return destinations, nil
}

// IsSquareAttacked reports whether any piece of color by could strike the square.
// Pawns attack one file diagonally forward.
func (b *Board) IsSquareAttacked(square Position, by Color) bool {
	if !square.Valid() {
		return false
	}
	for rank := range b.squares {
		for _, piece := range b.squares[rank] {
			if piece == nil || piece.Color != by || piece.Position == square {
				continue
			}
			if b.attacks(piece, square) {
				return true
			}
		}
	}
	return false
}

func (b *Board) attacks(piece *Piece, square Position) bool {
	if piece.Type == Pawn {
		return square.Rank-piece.Position.Rank == piece.Color.forward() &&
			abs(square.File-piece.Position.File) == 1
	}
	if piece.CanMove(square, false) != nil {
		return false
	}
	return b.PathClear(piece.Position, square, piece.Type)
}
