package model

import "errors"

// Board and piece errors.
var (
	ErrInvalidFormat    = errors.New("invalid format")
	ErrOutOfBounds      = errors.New("position out of bounds")
	ErrIllegalPieceMove = errors.New("illegal move for piece")
	ErrPathBlocked      = errors.New("path is blocked")
	ErrNoPieceAtSource  = errors.New("no piece at source square")
	ErrOwnPieceCapture  = errors.New("cannot capture own piece")
)

// Session errors.
var (
	ErrNotYourTurn      = errors.New("not your turn")
	ErrGameFull         = errors.New("game is full")
	ErrGameNotFound     = errors.New("game not found")
	ErrGameExists       = errors.New("game already exists")
	ErrPlayerNotInGame  = errors.New("player not in game")
	ErrAlreadyQueued    = errors.New("player already in queue")
	ErrAlreadyConnected = errors.New("player already connected")
)
