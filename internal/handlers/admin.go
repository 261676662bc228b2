package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"oneaccount/api/internal/apperr"
	"oneaccount/api/internal/middleware"
	"oneaccount/api/internal/service"
)

type adminLoginRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required"`
	AdminPassword string `json:"adminPassword" binding:"required"`
}

func (h HandlerSet) LoginAdmin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest(err.Error()))
		return
	}

	result, err := h.identity.LoginAdmin(c.Request.Context(), service.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		TierSecret: req.AdminPassword,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.setTierCookie(c, middleware.AccountTokenCookie, result.AccountToken, h.cfg.Security.AccountToken.TTL)
	h.setTierCookie(c, middleware.AdminTokenCookie, result.AdminToken, h.cfg.Security.AdminToken.TTL)
	c.JSON(http.StatusOK, gin.H{
		"account": toAccountResponse(result.Principal.Account),
		"admin":   toAdminResponse(*result.Principal.Admin),
	})
}

func (h HandlerSet) GetAdmin(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account": toAccountResponse(principal.Account),
		"admin":   toAdminResponse(*principal.Admin),
	})
}

func (h HandlerSet) LogoutAdmin(c *gin.Context) {
	h.clearTierCookie(c, middleware.AccountTokenCookie)
	h.clearTierCookie(c, middleware.AdminTokenCookie)
	c.JSON(http.StatusOK, gin.H{"message": "admin logged out"})
}
