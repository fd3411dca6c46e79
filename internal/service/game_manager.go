package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/store"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// SnapshotStore persists game snapshots by game id.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot model.Snapshot) error
	Load(ctx context.Context, gameID string) (model.Snapshot, error)
}

type GameManager struct {
	games            map[string]*model.Game
	queue            *model.Queue
	matchingChannels map[string]chan string
	snapshots        SnapshotStore
	mu               sync.RWMutex

	// saveMu orders snapshot writes; saved holds the plies last written per game.
	saveMu sync.Mutex
	saved  map[string]int
}

// NewGameManager builds an empty registry. snapshots may be nil to keep games in memory only.
func NewGameManager(snapshots SnapshotStore) *GameManager {
	return &GameManager{
		games:            make(map[string]*model.Game),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
		snapshots:        snapshots,
		saved:            make(map[string]int),
	}
}

// RunMatchmaking pairs queued players every interval until ctx is cancelled.
func (gm *GameManager) RunMatchmaking(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("matchmaking stopped")
			return
		case <-ticker.C:
			for gm.matchOnce(ctx) {
			}
		}
	}
}

// matchOnce pairs the two longest waiting players into a new game.
// A player whose matchmaking socket is gone is dropped and the other goes back to the head of the queue.
func (gm *GameManager) matchOnce(ctx context.Context) bool {
	player1, player2, ok := gm.queue.GetNextPair()
	if !ok {
		return false
	}

	gm.mu.Lock()
	_, waiting1 := gm.matchingChannels[player1.Player.ID]
	_, waiting2 := gm.matchingChannels[player2.Player.ID]
	if !waiting1 || !waiting2 {
		var requeue []model.QueuedPlayer
		for _, p := range []struct {
			queued  model.QueuedPlayer
			waiting bool
		}{{player1, waiting1}, {player2, waiting2}} {
			if p.waiting {
				requeue = append(requeue, p.queued)
			} else {
				log.Infow("dropped queued player without a matchmaking socket", "player", p.queued.Player.ID)
			}
		}
		gm.queue.PushFront(requeue...)
		gm.mu.Unlock()
		return true
	}

	gameID := uuid.New().String()
	game := model.NewGame(gameID)
	p1Color, err := game.AddPlayer(player1.Player.ID)
	if err != nil {
		gm.mu.Unlock()
		log.Errorw("seat matched player", "game", gameID, "player", player1.Player.ID, "error", err)
		return true
	}
	p2Color, err := game.AddPlayer(player2.Player.ID)
	if err != nil {
		gm.mu.Unlock()
		log.Errorw("seat matched player", "game", gameID, "player", player2.Player.ID, "error", err)
		return true
	}

	gm.games[gameID] = game
	sentBoth := gm.sendMatchFound(player1.Player.ID, model.MatchFoundEvent{GameID: gameID, Color: p1Color})
	sentBoth = gm.sendMatchFound(player2.Player.ID, model.MatchFoundEvent{GameID: gameID, Color: p2Color}) && sentBoth
	gm.mu.Unlock()

	if !sentBoth {
		log.Warnw("match found but not every player was notified", "game", gameID)
	}
	log.Infow("match created", "game", gameID,
		"white", player1.Player.ID, "whiteWaited", time.Since(player1.JoinedAt).Round(time.Millisecond),
		"black", player2.Player.ID, "blackWaited", time.Since(player2.JoinedAt).Round(time.Millisecond))
	gm.persist(ctx, game)
	return true
}

// sendMatchFound delivers the event and retires the player's channel. Callers hold gm.mu.
func (gm *GameManager) sendMatchFound(playerID string, event model.MatchFoundEvent) bool {
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		return false
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Errorw("marshal match event", "player", playerID, "error", err)
		return false
	}
	select {
	case ch <- string(payload):
		delete(gm.matchingChannels, playerID)
		close(ch)
		return true
	default:
		log.Warnw("match event not delivered", "player", playerID)
		return false
	}
}

// RegisterMatchmakingChannel replaces any earlier channel for the player, closing it.
func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if existing, ok := gm.matchingChannels[playerID]; ok {
		delete(gm.matchingChannels, playerID)
		close(existing)
	}
	gm.matchingChannels[playerID] = ch
}

// UnregisterMatchmakingChannel forgets the channel without closing it; its creator owns it.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if current, ok := gm.matchingChannels[playerID]; ok && current == ch {
		delete(gm.matchingChannels, playerID)
	}
}

func (gm *GameManager) JoinMatchmaking(playerID string) error {
	return gm.queue.AddPlayer(model.Player{ID: playerID})
}

func (gm *GameManager) LeaveMatchmaking(playerID string) {
	gm.queue.RemovePlayer(playerID)
}

func (gm *GameManager) CreateGame(ctx context.Context, gameID string) error {
	return gm.addGame(ctx, model.NewGame(gameID))
}

// CreateGameFromBoard starts a game from a board descriptor.
func (gm *GameManager) CreateGameFromBoard(ctx context.Context, gameID, descriptor string) error {
	board, err := model.ParseBoard(descriptor)
	if err != nil {
		return err
	}
	return gm.addGame(ctx, model.NewGameFromBoard(gameID, board))
}

func (gm *GameManager) addGame(ctx context.Context, game *model.Game) error {
	gm.mu.Lock()
	if _, exists := gm.games[game.ID]; exists {
		gm.mu.Unlock()
		return fmt.Errorf("game %s: %w", game.ID, model.ErrGameExists)
	}
	gm.games[game.ID] = game
	gm.mu.Unlock()

	gm.persist(ctx, game)
	return nil
}

// GetGame returns a live game, restoring it from the snapshot store when it is not in memory.
func (gm *GameManager) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	gm.mu.RLock()
	game, exists := gm.games[gameID]
	gm.mu.RUnlock()
	if exists {
		return game, nil
	}

	restored, err := gm.restore(ctx, gameID)
	if err != nil {
		return nil, err
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()
	if game, exists := gm.games[gameID]; exists {
		return game, nil
	}
	gm.games[gameID] = restored
	return restored, nil
}

func (gm *GameManager) restore(ctx context.Context, gameID string) (*model.Game, error) {
	notFound := fmt.Errorf("game %s: %w", gameID, model.ErrGameNotFound)
	if gm.snapshots == nil {
		return nil, notFound
	}
	snapshot, err := gm.snapshots.Load(ctx, gameID)
	if err != nil {
		if !errors.Is(err, store.ErrSnapshotNotFound) {
			log.Errorw("load snapshot", "game", gameID, "error", err)
		}
		return nil, notFound
	}
	game, err := model.RestoreGame(snapshot)
	if err != nil {
		log.Errorw("corrupt snapshot", "game", gameID, "error", err)
		return nil, notFound
	}
	log.Infow("game restored from snapshot", "game", gameID, "plies", snapshot.Plies)
	return game, nil
}

// persist saves the game's snapshot. Writes are serialised and a snapshot older than
// the last one written is skipped, so the store never falls behind the live board.
// Failures are logged; the in-memory game stays authoritative.
func (gm *GameManager) persist(ctx context.Context, game *model.Game) {
	if gm.snapshots == nil {
		return
	}
	snapshot := game.Snapshot()

	gm.saveMu.Lock()
	defer gm.saveMu.Unlock()

	if last, ok := gm.saved[game.ID]; ok && snapshot.Plies < last {
		log.Debugw("older snapshot skipped", "game", game.ID, "plies", snapshot.Plies, "saved", last)
		return
	}
	if err := gm.snapshots.Save(ctx, snapshot); err != nil {
		log.Errorw("save snapshot", "game", game.ID, "error", err)
		return
	}
	gm.saved[game.ID] = snapshot.Plies
}

func (gm *GameManager) AddPlayerToGame(ctx context.Context, gameID, playerID string) (model.Color, error) {
	game, err := gm.GetGame(ctx, gameID)
	if err != nil {
		return "", err
	}
	return game.AddPlayer(playerID)
}

func (gm *GameManager) GetGameState(ctx context.Context, gameID string) (model.GameState, error) {
	game, err := gm.GetGame(ctx, gameID)
	if err != nil {
		return model.GameState{}, err
	}
	return game.GetState(), nil
}

func (gm *GameManager) MakeMove(ctx context.Context, gameID, playerID string, move model.MoveRequest) (model.Ply, error) {
	game, err := gm.GetGame(ctx, gameID)
	if err != nil {
		return model.Ply{}, err
	}
	ply, err := game.MakeMove(playerID, move)
	if err != nil {
		return model.Ply{}, err
	}
	gm.persist(ctx, game)
	return ply, nil
}

func (gm *GameManager) RegisterConnection(ctx context.Context, gameID, playerID string, conn *websocket.Conn) error {
	game, err := gm.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	return game.RegisterConnection(playerID, conn)
}

func (gm *GameManager) UnregisterConnection(gameID, playerID string, conn *websocket.Conn) {
	gm.mu.RLock()
	game, exists := gm.games[gameID]
	gm.mu.RUnlock()
	if !exists {
		return
	}
	game.UnregisterConnection(playerID, conn)
}
