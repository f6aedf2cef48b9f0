package handler

import (
	"errors"
	"net/http"

	"github.com/anand-babu-0003/ParkWise-sub000/internal/domain"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(as *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var dto domain.RegisterUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register user", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, user)
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var dto domain.LoginUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not log in", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}
