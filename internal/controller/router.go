package controller

import (
	"github.com/benbeisheim/chessrules-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes mounts the REST API, the WebSocket endpoints and the health check.
func RegisterRoutes(app *fiber.App, gc *GameController, wsc *WebSocketController, origins []string) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	wsConfig := websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Origins:         origins,
	}
	wsRoutes := app.Group("/ws", middleware.EnsurePlayerID(), middleware.WebSocketUpgrade())
	wsRoutes.Get("/matchmaking", websocket.New(wsc.HandleMatchmaking, wsConfig))
	wsRoutes.Get("/game/:gameId", middleware.ValidateGameID(), websocket.New(wsc.HandleConnection, wsConfig))

	api := app.Group("/api", middleware.EnsurePlayerID())

	gameRoutes := api.Group("/game")
	gameRoutes.Post("/create", gc.CreateGame)
	gameRoutes.Post("/join/:gameId", middleware.ValidateGameID(), gc.JoinGame)
	gameRoutes.Get("/:gameId", middleware.ValidateGameID(), gc.GetGameState)
	gameRoutes.Get("/:gameId/square/:square", middleware.ValidateGameID(), gc.GetSquare)
	gameRoutes.Get("/:gameId/moves/:square", middleware.ValidateGameID(), gc.GetLegalMoves)
	gameRoutes.Post("/:gameId/move", middleware.ValidateGameID(), gc.MakeMove)
}
