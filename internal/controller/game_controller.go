package controller

import (
	"github.com/benbeisheim/chessrules-backend/internal/middleware"
	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

type createGameRequest struct {
	Board string `json:"board"`
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	var req createGameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	var (
		gameID string
		err    error
	)
	if req.Board != "" {
		gameID, err = gc.gameService.CreateGameFromBoard(c.UserContext(), req.Board)
	} else {
		gameID, err = gc.gameService.CreateGame(c.UserContext())
	}
	if err != nil {
		return err
	}

	log.Infow("game created", "game", gameID, "player", playerID(c))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	color, err := gc.gameService.JoinGame(c.UserContext(), gameID, playerID(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameState, err := gc.gameService.GetGameState(c.UserContext(), c.Params("gameId"))
	if err != nil {
		return err
	}
	return c.JSON(gameState)
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	var move model.MoveRequest
	if err := c.BodyParser(&move); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ply, err := gc.gameService.HandleMove(c.UserContext(), c.Params("gameId"), playerID(c), move)
	if err != nil {
		return err
	}
	return c.JSON(ply)
}

// GetSquare answers which piece stands on a square; "piece" is null for an empty square.
func (gc *GameController) GetSquare(c *fiber.Ctx) error {
	square := c.Params("square")
	piece, err := gc.gameService.Square(c.UserContext(), c.Params("gameId"), square)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"square": square,
		"piece":  piece,
	})
}

func (gc *GameController) GetLegalMoves(c *fiber.Ctx) error {
	square := c.Params("square")
	moves, err := gc.gameService.LegalMoves(c.UserContext(), c.Params("gameId"), square)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"square": square,
		"moves":  moves,
	})
}

func playerID(c *fiber.Ctx) string {
	id, _ := c.Locals(middleware.PlayerIDKey).(string)
	return id
}
