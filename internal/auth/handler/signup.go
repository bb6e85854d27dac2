package handler

import (
	"net/http"

	"auth-gateway/internal/logger"

	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

// Signup handles POST /auth/signup. A duplicate email gets the same
// status and shape as a fresh one, carrying the existing row's id.
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	result, err := h.signup.Signup(
		c.Request.Context(),
		req.Email,
		req.Password,
		req.Name,
	)

	if err != nil {
		logger.Error("signup failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, result)
}
