package auth

import (
	"net/http"

	"microsite-app/internal/api/respond"
	"microsite-app/internal/app/http/middleware"
	"microsite-app/internal/services/accounts"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	accounts *accounts.Service
}

func NewHandler(a *accounts.Service) *Handler {
	return &Handler{accounts: a}
}

func (h *Handler) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), input.Name, input.Email, input.Password)
	if err != nil {
		respond.Error(c, err)
		return
	}
	token, err := h.accounts.Issue(*user)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "token": token, "user": user})
}

func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}

	token, user, err := h.accounts.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		if err == accounts.ErrInvalidCredentials {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "code": "invalid_credentials"})
			return
		}
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var input struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	if err := h.accounts.ChangePassword(c.Request.Context(), middleware.UserID(c), input.CurrentPassword, input.NewPassword); err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
