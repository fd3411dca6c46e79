package service

import (
	"context"
	"fmt"

	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) JoinGame(ctx context.Context, gameID, playerID string) (model.Color, error) {
	return gs.gameManager.AddPlayerToGame(ctx, gameID, playerID)
}

func (gs *GameService) CreateGame(ctx context.Context) (string, error) {
	gameID := uuid.New().String()

	if err := gs.gameManager.CreateGame(ctx, gameID); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}
	return gameID, nil
}

// CreateGameFromBoard starts a game from a 65-character board descriptor.
func (gs *GameService) CreateGameFromBoard(ctx context.Context, descriptor string) (string, error) {
	gameID := uuid.New().String()

	if err := gs.gameManager.CreateGameFromBoard(ctx, gameID, descriptor); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}
	return gameID, nil
}

func (gs *GameService) JoinMatchmaking(playerID string) error {
	return gs.gameManager.JoinMatchmaking(playerID)
}

func (gs *GameService) LeaveMatchmaking(playerID string) {
	gs.gameManager.LeaveMatchmaking(playerID)
}

func (gs *GameService) GetGameState(ctx context.Context, gameID string) (model.GameState, error) {
	return gs.gameManager.GetGameState(ctx, gameID)
}

func (gs *GameService) HandleMove(ctx context.Context, gameID, playerID string, move model.MoveRequest) (model.Ply, error) {
	return gs.gameManager.MakeMove(ctx, gameID, playerID, move)
}

// Square resolves the piece on a square; a nil piece means the square is empty.
func (gs *GameService) Square(ctx context.Context, gameID, square string) (*model.Piece, error) {
	game, err := gs.gameManager.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return game.Square(square)
}

func (gs *GameService) LegalMoves(ctx context.Context, gameID, square string) ([]model.Position, error) {
	game, err := gs.gameManager.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return game.LegalMoves(square)
}

func (gs *GameService) RegisterConnection(ctx context.Context, gameID, playerID string, conn *websocket.Conn) error {
	return gs.gameManager.RegisterConnection(ctx, gameID, playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID, playerID string, conn *websocket.Conn) {
	gs.gameManager.UnregisterConnection(gameID, playerID, conn)
}

// SendError reports a rejected message back over the sender's connection.
func (gs *GameService) SendError(ctx context.Context, gameID string, conn *websocket.Conn, message string) error {
	game, err := gs.gameManager.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	return game.SendError(conn, message)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID, ch)
}
