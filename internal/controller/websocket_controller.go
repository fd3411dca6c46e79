package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benbeisheim/chessrules-backend/internal/middleware"
	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/service"
	"github.com/benbeisheim/chessrules-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// HandleConnection serves one player's (or spectator's) socket for a game.
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	ctx := context.Background()
	gameID := c.Params("gameId")
	playerID, _ := c.Locals(middleware.PlayerIDKey).(string)

	if err := wsc.gameService.RegisterConnection(ctx, gameID, playerID, c); err != nil {
		log.Warnw("register connection", "game", gameID, "player", playerID, "error", err)
		rejectConnection(c, err)
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, c)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Debugw("websocket read", "game", gameID, "player", playerID, "error", err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Debugw("websocket parse", "game", gameID, "player", playerID, "error", err)
			continue
		}

		if err := wsc.handleMessage(ctx, gameID, playerID, msg); err != nil {
			log.Debugw("websocket move rejected", "game", gameID, "player", playerID, "error", err)
			if sendErr := wsc.gameService.SendError(ctx, gameID, c, err.Error()); sendErr != nil {
				log.Warnw("send websocket error", "game", gameID, "player", playerID, "error", sendErr)
			}
		}
	}
}

func (wsc *WebSocketController) handleMessage(ctx context.Context, gameID, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.MoveRequest
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return fmt.Errorf("move payload: %w", model.ErrInvalidFormat)
		}
		_, err := wsc.gameService.HandleMove(ctx, gameID, playerID, move)
		return err
	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

// HandleMatchmaking queues the player and sends a single matchFound message once paired.
// Closing the socket before that leaves the queue.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID, _ := c.Locals(middleware.PlayerIDKey).(string)

	ch := make(chan string, 1)
	wsc.gameService.RegisterMatchmakingChannel(playerID, ch)
	defer wsc.gameService.UnregisterMatchmakingChannel(playerID, ch)

	if err := wsc.gameService.JoinMatchmaking(playerID); err != nil && !errors.Is(err, model.ErrAlreadyQueued) {
		if writeErr := c.WriteJSON(errorMessage(err.Error())); writeErr != nil {
			log.Debugw("send matchmaking error", "player", playerID, "error", writeErr)
		}
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event, ok := <-ch:
		if !ok {
			return
		}
		if err := c.WriteJSON(ws.Message{
			Type:    ws.MessageTypeMatchFound,
			Payload: json.RawMessage(event),
		}); err != nil {
			log.Warnw("send match found", "player", playerID, "error", err)
		}
	case <-closed:
		wsc.gameService.LeaveMatchmaking(playerID)
		log.Debugw("left matchmaking", "player", playerID)
	}
}

// rejectConnection reports why the socket was refused and closes it.
func rejectConnection(c *websocket.Conn, err error) {
	if writeErr := c.WriteJSON(errorMessage(err.Error())); writeErr != nil {
		log.Debugw("send connection error", "error", writeErr)
	}
	reason := "connection rejected"
	if errors.Is(err, model.ErrAlreadyConnected) {
		reason = "connection already exists"
	}
	if writeErr := c.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
	); writeErr != nil {
		log.Debugw("send close frame", "error", writeErr)
	}
	if closeErr := c.Close(); closeErr != nil {
		log.Debugw("close rejected connection", "error", closeErr)
	}
}

func errorMessage(message string) ws.Message {
	payload, _ := json.Marshal(message)
	return ws.Message{
		Type:    ws.MessageTypeError,
		Payload: payload,
	}
}
