package model

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/benbeisheim/chessrules-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
)

// The connections for a specific game
type GameConnections struct {
	connections map[string]*websocket.Conn // playerID -> connection
	mu          sync.RWMutex
	writeMu     sync.Mutex
	sent        int // plies of the newest state broadcast, guarded by writeMu
}

// Game drives one board: seats, turn order, and the observers of its state.
type Game struct {
	ID          string
	mu          sync.Mutex
	board       *Board
	players     Players
	captured    CapturedPieces
	lastMove    *Ply
	sound       string
	plies       int
	connections *GameConnections
}

type Players struct {
	White ClientPlayer `json:"white"`
	Black ClientPlayer `json:"black"`
}

// GameState is a read-only snapshot of a game.
type GameState struct {
	ID             string         `json:"id"`
	Sound          string         `json:"sound"`
	Board          string         `json:"board"`
	ToMove         Color          `json:"toMove"`
	Pieces         []Piece        `json:"pieces"`
	CapturedPieces CapturedPieces `json:"capturedPieces"`
	Players        Players        `json:"players"`
	LastMove       *Ply           `json:"lastMove"`
	Plies          int            `json:"plies"`
}

// Snapshot is the persisted form of a game: its board and how many moves led to it.
type Snapshot struct {
	GameID     string
	Descriptor string
	Plies      int
}

// CapturedPieces lists the pieces each side has taken.
type CapturedPieces struct {
	White []Piece `json:"white"`
	Black []Piece `json:"black"`
}

func NewGame(id string) *Game {
	return NewGameFromBoard(id, NewBoard())
}

// NewGameFromBoard starts a game from an existing position, such as a restored snapshot.
func NewGameFromBoard(id string, board *Board) *Game {
	return &Game{
		ID:          id,
		board:       board,
		captured:    newCapturedPieces(),
		connections: NewGameConnections(),
	}
}

// RestoreGame rebuilds a game from a persisted snapshot.
func RestoreGame(s Snapshot) (*Game, error) {
	board, err := ParseBoard(s.Descriptor)
	if err != nil {
		return nil, err
	}
	g := NewGameFromBoard(s.GameID, board)
	g.plies = s.Plies
	return g, nil
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]*websocket.Conn),
	}
}

func newCapturedPieces() CapturedPieces {
	return CapturedPieces{
		White: make([]Piece, 0),
		Black: make([]Piece, 0),
	}
}

// AddPlayer seats the player as White, then Black. A seated player rejoining keeps their color.
func (g *Game) AddPlayer(playerID string) (Color, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if color, ok := g.seatOf(playerID); ok {
		return color, nil
	}
	if !g.players.White.seated() {
		g.players.White = ClientPlayer{ID: playerID, Color: White}
		return White, nil
	}
	if !g.players.Black.seated() {
		g.players.Black = ClientPlayer{ID: playerID, Color: Black}
		return Black, nil
	}
	return "", fmt.Errorf("game %s: %w", g.ID, ErrGameFull)
}

func (g *Game) seatOf(playerID string) (Color, bool) {
	if playerID == "" {
		return "", false
	}
	switch playerID {
	case g.players.White.ID:
		return White, true
	case g.players.Black.ID:
		return Black, true
	}
	return "", false
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.seatOf(playerID)
	return ok
}

// CanSpectate reports whether a seat is still open, which lets unseated connections watch.
func (g *Game) CanSpectate() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.canSpectate()
}

func (g *Game) canSpectate() bool {
	return !g.players.White.seated() || !g.players.Black.seated()
}

func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.stateLocked()
}

func (g *Game) stateLocked() GameState {
	captured := CapturedPieces{
		White: append([]Piece{}, g.captured.White...),
		Black: append([]Piece{}, g.captured.Black...),
	}
	var lastMove *Ply
	if g.lastMove != nil {
		lm := *g.lastMove
		lastMove = &lm
	}
	return GameState{
		ID:             g.ID,
		Sound:          g.sound,
		Board:          g.board.Serialize(),
		ToMove:         g.board.Turn(),
		Pieces:         g.board.Pieces(),
		CapturedPieces: captured,
		Players:        g.players,
		LastMove:       lastMove,
		Plies:          g.plies,
	}
}

// Snapshot returns the board descriptor together with the move count it belongs to.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	return Snapshot{GameID: g.ID, Descriptor: g.board.Serialize(), Plies: g.plies}
}

// Board returns a copy of the current board.
func (g *Game) Board() *Board {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.board.Clone()
}

// Square returns a copy of the piece on the square, or nil when it is empty.
func (g *Game) Square(square string) (*Piece, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.board.Resolve(square)
}

func (g *Game) LegalMoves(square string) ([]Position, error) {
	pos, err := ParsePosition(square)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.LegalDestinations(pos)
}

// MakeMove validates the turn, executes the move and passes the turn to the other side.
// A rejected move changes nothing.
func (g *Game) MakeMove(playerID string, move MoveRequest) (Ply, error) {
	mv, capture, err := move.parse()
	if err != nil {
		return Ply{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkTurn(playerID, mv.From); err != nil {
		return Ply{}, err
	}

	captured, err := g.board.Move(mv.From, mv.To, capture)
	if err != nil {
		return Ply{}, err
	}

	mover := g.board.PieceAt(mv.To)
	ply := Ply{Piece: *mover, From: mv.From, To: mv.To, CapturedPiece: captured}
	g.sound = "move"
	if captured != nil {
		g.sound = "capture"
		switch mover.Color {
		case White:
			g.captured.White = append(g.captured.White, *captured)
		case Black:
			g.captured.Black = append(g.captured.Black, *captured)
		}
	}
	g.lastMove = &ply
	g.plies++
	g.board.SwitchTurn()

	log.Debugw("move applied", "game", g.ID, "from", mv.From.String(), "to", mv.To.String(), "next", g.board.Turn())

	go g.broadcastState(g.stateLocked())

	return ply, nil
}

func (g *Game) checkTurn(playerID string, from Position) error {
	piece := g.board.PieceAt(from)
	if piece == nil {
		return fmt.Errorf("square %s: %w", from, ErrNoPieceAtSource)
	}
	turn := g.board.Turn()
	if piece.Color != turn {
		return fmt.Errorf("%s %s on %s, %s to move: %w", piece.Color, piece.Type, from, turn, ErrNotYourTurn)
	}

	seat, seated := g.seatOf(playerID)
	if !seated {
		if g.players.White.seated() || g.players.Black.seated() {
			return fmt.Errorf("player %s in game %s: %w", playerID, g.ID, ErrPlayerNotInGame)
		}
		return nil
	}
	if seat != turn {
		return fmt.Errorf("player %s plays %s, %s to move: %w", playerID, seat, turn, ErrNotYourTurn)
	}
	return nil
}

// RegisterConnection adds the player's socket and sends it the current state.
// A player already connected to this game gets ErrAlreadyConnected and the existing socket is kept.
func (g *Game) RegisterConnection(playerID string, conn *websocket.Conn) error {
	g.connections.writeMu.Lock()
	defer g.connections.writeMu.Unlock()

	g.mu.Lock()
	_, seated := g.seatOf(playerID)
	authorized := seated || g.canSpectate()
	state := g.stateLocked()
	g.mu.Unlock()

	if !authorized {
		return fmt.Errorf("player %s in game %s: %w", playerID, g.ID, ErrPlayerNotInGame)
	}

	g.connections.mu.Lock()
	if _, exists := g.connections.connections[playerID]; exists {
		g.connections.mu.Unlock()
		return fmt.Errorf("player %s in game %s: %w", playerID, g.ID, ErrAlreadyConnected)
	}
	g.connections.connections[playerID] = conn
	g.connections.mu.Unlock()
	log.Infow("connection registered", "game", g.ID, "player", playerID)

	// a pending broadcast older than state must not reach the new socket after it
	if state.Plies > g.connections.sent {
		g.broadcastLocked(state)
		return nil
	}
	msg, err := stateMessage(state)
	if err != nil {
		log.Errorw("marshal game state", "game", g.ID, "error", err)
		return nil
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Debugw("send initial state", "game", g.ID, "player", playerID, "error", err)
	}
	return nil
}

// UnregisterConnection removes the player's socket if conn is still the registered one.
func (g *Game) UnregisterConnection(playerID string, conn *websocket.Conn) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	g.dropConnectionLocked(playerID, conn)
}

func (g *Game) dropConnectionLocked(playerID string, conn *websocket.Conn) {
	if current, exists := g.connections.connections[playerID]; exists && current == conn {
		delete(g.connections.connections, playerID)
		log.Infow("connection unregistered", "game", g.ID, "player", playerID)
	}
}

// broadcastState pushes a snapshot to every connection; failed connections are dropped.
// A state older than one already sent is discarded, so clients see moves in order.
func (g *Game) broadcastState(state GameState) {
	g.connections.writeMu.Lock()
	defer g.connections.writeMu.Unlock()

	if state.Plies <= g.connections.sent {
		log.Debugw("stale game state dropped", "game", g.ID, "plies", state.Plies, "sent", g.connections.sent)
		return
	}
	g.broadcastLocked(state)
}

// broadcastLocked writes state to every connection. Callers hold writeMu.
func (g *Game) broadcastLocked(state GameState) {
	g.connections.sent = state.Plies

	g.connections.mu.RLock()
	activeConnections := make(map[string]*websocket.Conn, len(g.connections.connections))
	for playerID, conn := range g.connections.connections {
		activeConnections[playerID] = conn
	}
	g.connections.mu.RUnlock()

	if len(activeConnections) == 0 {
		return
	}

	msg, err := stateMessage(state)
	if err != nil {
		log.Errorw("marshal game state", "game", g.ID, "error", err)
		return
	}
	for playerID, conn := range activeConnections {
		if err := conn.WriteJSON(msg); err != nil {
			log.Warnw("send game state failed", "game", g.ID, "player", playerID, "error", err)
			g.connections.mu.Lock()
			g.dropConnectionLocked(playerID, conn)
			g.connections.mu.Unlock()
		}
	}
}

func stateMessage(state GameState) (ws.Message, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return ws.Message{}, err
	}
	return ws.Message{
		Type:    ws.MessageTypeGameState,
		Payload: json.RawMessage(payload),
	}, nil
}

// SendError writes an error message to one connection of this game.
func (g *Game) SendError(conn *websocket.Conn, message string) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	g.connections.writeMu.Lock()
	defer g.connections.writeMu.Unlock()
	return conn.WriteJSON(ws.Message{
		Type:    ws.MessageTypeError,
		Payload: json.RawMessage(payload),
	})
}
