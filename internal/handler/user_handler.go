package handler

import (
	"net/http"

	"matchmind/backend/internal/database"
	"matchmind/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// UpdateUsernameInput defines the structure for a username change.
type UpdateUsernameInput struct {
	Username string `json:"username" binding:"required" example:"newname"`
}

// UserResponse is the authenticated user's profile with lifetime stats.
type UserResponse struct {
	ID       uint         `json:"id"`
	Username string       `json:"username"`
	Stat     StatResponse `json:"stat"`
}

// endregion

// GetMyProfile godoc
// @Summary      Get the caller's profile
// @Description  Returns the authenticated user together with their lifetime stats.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UserResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /users/me [get]
func GetMyProfile(c *gin.Context) {
	userID, _ := c.Get("userID")

	var user models.User
	if err := database.DB.Preload("Stat").First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Stat: StatResponse{
			TotalWins:   user.Stat.TotalWins,
			TotalLosses: user.Stat.TotalLosses,
			TotalPoints: user.Stat.TotalPoints,
			XP:          user.Stat.XP,
		},
	})
}

// UpdateMyUsername godoc
// @Summary      Change the caller's username
// @Description  Renames the authenticated user. Usernames are unique regardless of case.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body UpdateUsernameInput true "New username"
// @Success      200  {object}  map[string]string "{"username": "..."}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Username already taken"
// @Router       /users/me/username [patch]
func UpdateMyUsername(c *gin.Context) {
	userID, _ := c.Get("userID")

	var input UpdateUsernameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.User
	err := database.DB.
		Where("LOWER(username) = LOWER(?)", input.Username).
		Where("id <> ?", userID).
		First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Username has been taken"})
		return
	}

	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("username", input.Username).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update username"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": input.Username})
}
