package model

import (
	"errors"
	"testing"

	"github.com/gofiber/websocket/v2"
)

func TestAddPlayer(t *testing.T) {
	g := NewGame("g1")

	tests := []struct {
		player string
		want   Color
		err    error
	}{
		{"alice", White, nil},
		{"bob", Black, nil},
		{"alice", White, nil},
		{"carol", "", ErrGameFull},
	}
	for _, tt := range tests {
		color, err := g.AddPlayer(tt.player)
		if !errors.Is(err, tt.err) {
			t.Fatalf("AddPlayer(%s) error = %v, want %v", tt.player, err, tt.err)
		}
		if color != tt.want {
			t.Fatalf("AddPlayer(%s) = %q, want %q", tt.player, color, tt.want)
		}
	}
	if !g.IsPlayerInGame("bob") || g.IsPlayerInGame("carol") {
		t.Fatalf("IsPlayerInGame disagrees with seating")
	}
	if g.CanSpectate() {
		t.Fatalf("full game should not accept spectators")
	}
}

func TestMakeMoveAlternatesTurns(t *testing.T) {
	g := NewGame("g1")

	ply, err := g.MakeMove("", MoveRequest{From: "e2", To: "e4"})
	if err != nil {
		t.Fatalf("e2 to e4: %v", err)
	}
	if ply.Piece.Type != Pawn || ply.To.String() != "e4" || ply.CapturedPiece != nil {
		t.Fatalf("ply = %+v", ply)
	}

	state := g.GetState()
	if state.ToMove != Black {
		t.Fatalf("ToMove = %s, want black", state.ToMove)
	}
	if state.Sound != "move" || state.LastMove == nil || state.LastMove.From.String() != "e2" {
		t.Fatalf("state after move = %+v", state)
	}
	if state.Board[64] != '1' {
		t.Fatalf("descriptor turn = %c, want 1", state.Board[64])
	}

	if _, err := g.MakeMove("", MoveRequest{From: "d2", To: "d4"}); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("white moving twice: %v, want ErrNotYourTurn", err)
	}
	if g.GetState().Board != state.Board {
		t.Fatalf("rejected move changed the board")
	}

	if _, err := g.MakeMove("", MoveRequest{From: "e7", To: "e5"}); err != nil {
		t.Fatalf("e7 to e5: %v", err)
	}
	if g.GetState().ToMove != White {
		t.Fatalf("turn did not return to white")
	}
}

func TestMakeMoveSeatedPlayers(t *testing.T) {
	g := NewGame("g1")
	if _, err := g.AddPlayer("alice"); err != nil {
		t.Fatalf("seat alice: %v", err)
	}
	if _, err := g.AddPlayer("bob"); err != nil {
		t.Fatalf("seat bob: %v", err)
	}

	if _, err := g.MakeMove("bob", MoveRequest{From: "e2", To: "e4"}); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("black moving white's pawn: %v, want ErrNotYourTurn", err)
	}
	if _, err := g.MakeMove("carol", MoveRequest{From: "e2", To: "e4"}); !errors.Is(err, ErrPlayerNotInGame) {
		t.Fatalf("stranger moving: %v, want ErrPlayerNotInGame", err)
	}
	if _, err := g.MakeMove("alice", MoveRequest{From: "e2", To: "e4"}); err != nil {
		t.Fatalf("alice e2 to e4: %v", err)
	}
	if _, err := g.MakeMove("alice", MoveRequest{From: "e7", To: "e5"}); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("alice moving black's pawn: %v, want ErrNotYourTurn", err)
	}
	if _, err := g.MakeMove("bob", MoveRequest{From: "e7", To: "e5"}); err != nil {
		t.Fatalf("bob e7 to e5: %v", err)
	}
}

func TestMakeMoveRejectionsLeaveGame(t *testing.T) {
	g := NewGame("g1")
	before := g.GetState()

	tests := []struct {
		name string
		move MoveRequest
		want error
	}{
		{"malformed", MoveRequest{From: "e", To: "e4"}, ErrInvalidFormat},
		{"off board", MoveRequest{From: "e2", To: "e9"}, ErrOutOfBounds},
		{"empty source", MoveRequest{From: "e4", To: "e5"}, ErrNoPieceAtSource},
		{"illegal geometry", MoveRequest{From: "e2", To: "e5"}, ErrIllegalPieceMove},
		{"blocked", MoveRequest{From: "a1", To: "a4"}, ErrPathBlocked},
		{"own capture", MoveRequest{From: "d1", To: "d2"}, ErrOwnPieceCapture},
		{"wrong side", MoveRequest{From: "e7", To: "e5"}, ErrNotYourTurn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.MakeMove("", tt.move); !errors.Is(err, tt.want) {
				t.Fatalf("MakeMove(%+v) error = %v, want %v", tt.move, err, tt.want)
			}
			after := g.GetState()
			if after.Board != before.Board || after.ToMove != before.ToMove || after.LastMove != nil {
				t.Fatalf("rejected move changed the game")
			}
		})
	}
}

func TestMakeMoveRecordsCapture(t *testing.T) {
	board, err := ParseBoard("r###k###" + "########" + "########" + "########" +
		"n#######" + "########" + "########" + "####K###" + "0")
	if err != nil {
		t.Fatalf("ParseBoard: %v", err)
	}
	g := NewGameFromBoard("g1", board)

	if _, err := g.MakeMove("", MoveRequest{From: "a1", To: "a5"}); !errors.Is(err, ErrOwnPieceCapture) {
		t.Fatalf("rook onto own knight: %v, want ErrOwnPieceCapture", err)
	}
	if _, err := g.MakeMove("", MoveRequest{From: "a5", To: "b7"}); err != nil {
		t.Fatalf("knight a5 to b7: %v", err)
	}
	if _, err := g.MakeMove("", MoveRequest{From: "e8", To: "d8"}); err != nil {
		t.Fatalf("black king e8 to d8: %v", err)
	}
	ply, err := g.MakeMove("", MoveRequest{From: "b7", To: "d8"})
	if err != nil {
		t.Fatalf("knight takes king: %v", err)
	}
	if ply.CapturedPiece == nil || ply.CapturedPiece.Type != King || ply.CapturedPiece.Color != Black {
		t.Fatalf("captured = %+v, want black king", ply.CapturedPiece)
	}

	state := g.GetState()
	if state.Sound != "capture" {
		t.Fatalf("sound = %q, want capture", state.Sound)
	}
	if len(state.CapturedPieces.White) != 1 || len(state.CapturedPieces.Black) != 0 {
		t.Fatalf("captured pieces = %+v", state.CapturedPieces)
	}
	if len(state.Pieces) != 3 {
		t.Fatalf("board has %d pieces, want 3", len(state.Pieces))
	}
}

func TestGameQueries(t *testing.T) {
	g := NewGame("g1")

	p, err := g.Square("g1")
	if err != nil || p == nil || p.Type != Knight || p.Color != White {
		t.Fatalf("Square(g1) = %+v, %v", p, err)
	}
	p.Position = Position{File: 3, Rank: 3}
	if again, _ := g.Square("g1"); again.Position.String() != "g1" {
		t.Fatalf("Square returned a live piece")
	}

	if p, err := g.Square("d4"); err != nil || p != nil {
		t.Fatalf("Square(d4) = %+v, %v, want empty", p, err)
	}
	if _, err := g.Square("z0"); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("Square(z0) error = %v, want ErrInvalidFormat", err)
	}

	moves, err := g.LegalMoves("g1")
	if err != nil {
		t.Fatalf("LegalMoves(g1): %v", err)
	}
	if len(moves) != 2 || moves[0].String() != "f3" || moves[1].String() != "h3" {
		t.Fatalf("LegalMoves(g1) = %v, want [f3 h3]", moves)
	}

	if snap := g.Snapshot(); snap.Descriptor != InitialDescriptor || snap.GameID != "g1" || snap.Plies != 0 {
		t.Fatalf("Snapshot() = %+v", snap)
	}
	board := g.Board()
	if err := board.MovePiece("g1", "f3"); err != nil {
		t.Fatalf("move on copy: %v", err)
	}
	if g.Snapshot().Descriptor != InitialDescriptor {
		t.Fatalf("Board() returned the live board")
	}
}

func TestPliesCountAcceptedMoves(t *testing.T) {
	g := NewGame("g1")
	moves := []MoveRequest{{From: "e2", To: "e4"}, {From: "e2", To: "e4"}, {From: "e7", To: "e5"}}
	for _, m := range moves {
		g.MakeMove("", m)
	}
	if got := g.GetState().Plies; got != 2 {
		t.Fatalf("Plies = %d, want 2", got)
	}

	snap := g.Snapshot()
	restored, err := RestoreGame(snap)
	if err != nil {
		t.Fatalf("RestoreGame: %v", err)
	}
	if restored.Snapshot() != snap {
		t.Fatalf("restored snapshot = %+v, want %+v", restored.Snapshot(), snap)
	}
	if _, err := restored.MakeMove("", MoveRequest{From: "g1", To: "f3"}); err != nil {
		t.Fatalf("move on restored game: %v", err)
	}
	if restored.Snapshot().Plies != 3 {
		t.Fatalf("restored game did not continue the move count")
	}

	if _, err := RestoreGame(Snapshot{GameID: "bad", Descriptor: "###"}); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("RestoreGame(bad) error = %v, want ErrInvalidFormat", err)
	}
}

func TestBroadcastDropsStaleStates(t *testing.T) {
	g := NewGame("g1")
	g.broadcastState(GameState{ID: "g1", Plies: 2})
	g.broadcastState(GameState{ID: "g1", Plies: 1})
	g.broadcastState(GameState{ID: "g1", Plies: 2})

	g.connections.writeMu.Lock()
	sent := g.connections.sent
	g.connections.writeMu.Unlock()
	if sent != 2 {
		t.Fatalf("newest sent state = %d, want 2", sent)
	}

	g.broadcastState(GameState{ID: "g1", Plies: 3})
	g.connections.writeMu.Lock()
	sent = g.connections.sent
	g.connections.writeMu.Unlock()
	if sent != 3 {
		t.Fatalf("newest sent state = %d, want 3", sent)
	}
}

func TestConnectionRegistryKeepsFirstSocket(t *testing.T) {
	g := NewGame("g1")
	first, second := &websocket.Conn{}, &websocket.Conn{}

	g.connections.mu.Lock()
	g.connections.connections["alice"] = first
	g.connections.mu.Unlock()

	if err := g.RegisterConnection("alice", second); !errors.Is(err, ErrAlreadyConnected) {
		t.Fatalf("second socket error = %v, want ErrAlreadyConnected", err)
	}

	g.UnregisterConnection("alice", second)
	g.connections.mu.RLock()
	current := g.connections.connections["alice"]
	g.connections.mu.RUnlock()
	if current != first {
		t.Fatalf("rejected socket removed the registered one")
	}

	g.UnregisterConnection("alice", first)
	g.connections.mu.RLock()
	_, still := g.connections.connections["alice"]
	g.connections.mu.RUnlock()
	if still {
		t.Fatalf("registered socket was not removed")
	}
}

func TestRegisterConnectionRejectsOutsiders(t *testing.T) {
	g := NewGame("g1")
	g.AddPlayer("alice")
	g.AddPlayer("bob")

	if err := g.RegisterConnection("carol", &websocket.Conn{}); !errors.Is(err, ErrPlayerNotInGame) {
		t.Fatalf("outsider error = %v, want ErrPlayerNotInGame", err)
	}
	g.connections.mu.RLock()
	n := len(g.connections.connections)
	g.connections.mu.RUnlock()
	if n != 0 {
		t.Fatalf("outsider was registered")
	}
}
