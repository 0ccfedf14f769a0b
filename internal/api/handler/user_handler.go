package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/findoc-ai/analyzer-be/internal/api/domain"
	"github.com/findoc-ai/analyzer-be/internal/api/dto"
	"github.com/gin-gonic/gin"
)

// RegisterUser handles POST /users
// Registers a new user and returns the generated API key
func (h *Handler) RegisterUser(c *gin.Context) {
	var req dto.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: email is required",
		})
		return
	}

	user, err := h.store.CreateUser(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "A user with this email already exists",
			})
			return
		}
		h.logger.Error("Failed to create user", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create user",
		})
		return
	}

	h.logger.Info("User registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	c.JSON(http.StatusCreated, dto.NewUserResponse(user))
}

// GetMe handles GET /users/me
// Returns the authenticated user's profile
func (h *Handler) GetMe(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		// RequireAuth middleware guards this route; reaching here
		// without an identity is a wiring error, not a user error.
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}
