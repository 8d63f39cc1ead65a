package handler

import (
	"net/http"
	"strconv"

	"matchmind/backend/internal/database"
	"matchmind/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// GameResponse is a game as seen over the REST surface.
type GameResponse struct {
	ID         uint              `json:"id"`
	Status     models.GameStatus `json:"status"`
	MaxPlayers int               `json:"max_players"`
	Players    []PlayerResponse  `json:"players"`
}

// PlayerResponse is one seat in a game.
type PlayerResponse struct {
	ID     uint `json:"id"`
	UserID uint `json:"user_id"`
	Score  int  `json:"score"`
}

// MessageResponse is one chat message in a game's history.
type MessageResponse struct {
	ID       uint   `json:"id"`
	PlayerID uint   `json:"player_id"`
	Text     string `json:"text"`
}

// StatResponse is the authenticated user's lifetime aggregates.
type StatResponse struct {
	TotalWins   int `json:"total_wins"`
	TotalLosses int `json:"total_losses"`
	TotalPoints int `json:"total_points"`
	XP          int `json:"xp"`
}

func newGameResponse(game models.Game) GameResponse {
	players := make([]PlayerResponse, 0, len(game.Players))
	for _, p := range game.Players {
		players = append(players, PlayerResponse{ID: p.ID, UserID: p.UserID, Score: p.Score})
	}
	return GameResponse{
		ID:         game.ID,
		Status:     game.Status,
		MaxPlayers: game.MaxPlayers,
		Players:    players,
	}
}

// endregion

// GetMyGames godoc
// @Summary      List the caller's games
// @Description  Returns every game the authenticated user currently occupies.
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} GameResponse
// @Failure      401 {object} ErrorResponse
// @Router       /games [get]
func GetMyGames(c *gin.Context) {
	userID, _ := c.Get("userID")

	var games []models.Game
	err := database.DB.Preload("Players").
		Joins("JOIN players ON players.game_id = games.id AND players.deleted_at IS NULL").
		Where("players.user_id = ?", userID).
		Group("games.id").
		Find(&games).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load games"})
		return
	}

	response := make([]GameResponse, 0, len(games))
	for _, game := range games {
		response = append(response, newGameResponse(game))
	}

	c.JSON(http.StatusOK, response)
}

// GetGameMessages godoc
// @Summary      Get a game's chat history
// @Description  Returns the messages of a game the authenticated user is a member of, oldest first.
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int true  "Game ID"
// @Param        page  query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(50)
// @Success      200 {object} PaginatedResponse[MessageResponse]
// @Failure      403 {object} ErrorResponse "Caller is not a member of the game"
// @Failure      404 {object} ErrorResponse "Game not found"
// @Router       /games/{id}/messages [get]
func GetGameMessages(c *gin.Context) {
	userID, _ := c.Get("userID")
	gameID, _ := strconv.Atoi(c.Param("id"))

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	var game models.Game
	if err := database.DB.Preload("Players").First(&game, gameID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	member := false
	for _, p := range game.Players {
		if p.UserID == userID.(uint) {
			member = true
			break
		}
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this game"})
		return
	}

	query := database.DB.Where("game_id = ?", gameID).Order("id")
	paginated, err := Paginate[models.Message](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
		return
	}

	messages := make([]MessageResponse, 0, len(paginated.Data))
	for _, m := range paginated.Data {
		messages = append(messages, MessageResponse{ID: m.ID, PlayerID: m.PlayerID, Text: m.Text})
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(messages, paginated.Meta.TotalItems, page, limit))
}

// GetMyStats godoc
// @Summary      Get the caller's lifetime stats
// @Description  Returns the authenticated user's win/loss/points/xp aggregates.
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} StatResponse
// @Failure      404 {object} ErrorResponse
// @Router       /stats/me [get]
func GetMyStats(c *gin.Context) {
	userID, _ := c.Get("userID")

	var stat models.Stat
	if err := database.DB.Where("user_id = ?", userID).First(&stat).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stats not found"})
		return
	}

	c.JSON(http.StatusOK, StatResponse{
		TotalWins:   stat.TotalWins,
		TotalLosses: stat.TotalLosses,
		TotalPoints: stat.TotalPoints,
		XP:          stat.XP,
	})
}
