package model

// MoveRequest is a move in square notation as sent by clients.
// To may end with CaptureMarker to declare a pawn capture.
type MoveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (m MoveRequest) parse() (SimpleMove, bool, error) {
	from, err := ParsePosition(m.From)
	if err != nil {
		return SimpleMove{}, false, err
	}
	to, capture, err := ParseTarget(m.To)
	if err != nil {
		return SimpleMove{}, false, err
	}
	return SimpleMove{From: from, To: to}, capture, nil
}

type SimpleMove struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

type Ply struct {
	Piece         Piece    `json:"piece"`
	From          Position `json:"from"`
	To            Position `json:"to"`
	CapturedPiece *Piece   `json:"capturedPiece"`
}
