package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"oneaccount/api/internal/apperr"
	"oneaccount/api/internal/middleware"
	"oneaccount/api/internal/service"
)

type registerUserRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	UserName *string `json:"userName"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest(err.Error()))
		return
	}

	account, user, err := h.identity.RegisterUser(c.Request.Context(), service.RegisterUserInput{
		Email:    req.Email,
		UserName: req.UserName,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"account": toAccountResponse(account),
		"user":    toUserResponse(user),
	})
}

func (h HandlerSet) LoginUser(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest(err.Error()))
		return
	}

	result, err := h.identity.LoginUser(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.setTierCookie(c, middleware.AccountTokenCookie, result.AccountToken, h.cfg.Security.AccountToken.TTL)
	c.JSON(http.StatusOK, gin.H{
		"account": toAccountResponse(result.Principal.Account),
		"user":    toUserResponse(*result.Principal.User),
	})
}

func (h HandlerSet) GetUser(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account": toAccountResponse(principal.Account),
		"user":    toUserResponse(*principal.User),
	})
}

func (h HandlerSet) LogoutUser(c *gin.Context) {
	h.clearTierCookie(c, middleware.AccountTokenCookie)
	c.JSON(http.StatusOK, gin.H{"message": "user logged out"})
}
