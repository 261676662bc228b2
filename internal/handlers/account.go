package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"oneaccount/api/internal/apperr"
	"oneaccount/api/internal/middleware"
	"oneaccount/api/internal/models"
	"oneaccount/api/internal/service"
)

type registerAccountRequest struct {
	Kind     string `json:"kind"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Gender   string `json:"gender"`
}

func (h HandlerSet) RegisterAccount(c *gin.Context) {
	var req registerAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest(err.Error()))
		return
	}

	input := service.RegisterAccountInput{
		Kind:     models.AccountKind(req.Kind),
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	}
	if req.Gender != "" {
		gender := models.Gender(req.Gender)
		input.Gender = &gender
	}

	account, err := h.identity.RegisterAccount(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"account": toAccountResponse(account),
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) LoginAccount(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest(err.Error()))
		return
	}

	result, err := h.identity.LoginAccount(c.Request.Context(), service.LoginInput{
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
	})
}

func (h HandlerSet) GetAccount(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account": toAccountResponse(principal.Account),
	})
}

func (h HandlerSet) LogoutAccount(c *gin.Context) {
	h.clearTierCookie(c, middleware.AccountTokenCookie)
	c.JSON(http.StatusOK, gin.H{"message": "account logged out"})
}

// UpdateAvatar accepts a multipart "avatar" file and swaps the account's
// avatar blob, destroying the replaced one best-effort.
func (h HandlerSet) UpdateAvatar(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	header, err := c.FormFile("avatar")
	if err != nil {
		respondError(c, apperr.BadRequest("avatar file is required"))
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, apperr.BadRequest("avatar file is unreadable"))
		return
	}
	defer file.Close()

	account, err := h.identity.UpdateAvatar(c.Request.Context(), service.UpdateAvatarInput{
		AccountID:   principal.Account.ID,
		File:        file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account": toAccountResponse(account),
	})
}
