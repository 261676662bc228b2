package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"oneaccount/api/internal/apperr"
	"oneaccount/api/internal/middleware"
	"oneaccount/api/internal/service"
)

type registerSuperAdminRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required"`
	SuperPassword string `json:"superPassword" binding:"required,min=8"`
}

func (h HandlerSet) RegisterSuperAdmin(c *gin.Context) {
	var req registerSuperAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest(err.Error()))
		return
	}

	account, superAdmin, err := h.identity.RegisterSuperAdmin(c.Request.Context(), service.RegisterSuperAdminInput{
		Email:         req.Email,
		Password:      req.Password,
		SuperPassword: req.SuperPassword,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"account":    toAccountResponse(account),
		"superAdmin": toSuperAdminResponse(superAdmin),
	})
}

type superAdminLoginRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required"`
	SuperPassword string `json:"superPassword" binding:"required"`
}

func (h HandlerSet) LoginSuperAdmin(c *gin.Context) {
	var req superAdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest(err.Error()))
		return
	}

	result, err := h.identity.LoginSuperAdmin(c.Request.Context(), service.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		TierSecret: req.SuperPassword,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.setTierCookie(c, middleware.AccountTokenCookie, result.AccountToken, h.cfg.Security.AccountToken.TTL)
	h.setTierCookie(c, middleware.SuperAdminTokenCookie, result.SuperAdminToken, h.cfg.Security.SuperAdminToken.TTL)
	c.JSON(http.StatusOK, gin.H{
		"account":    toAccountResponse(result.Principal.Account),
		"superAdmin": toSuperAdminResponse(*result.Principal.SuperAdmin),
	})
}

func (h HandlerSet) GetSuperAdmin(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account":    toAccountResponse(principal.Account),
		"superAdmin": toSuperAdminResponse(*principal.SuperAdmin),
	})
}

func (h HandlerSet) LogoutSuperAdmin(c *gin.Context) {
	h.clearTierCookie(c, middleware.AccountTokenCookie)
	h.clearTierCookie(c, middleware.SuperAdminTokenCookie)
	c.JSON(http.StatusOK, gin.H{"message": "superadmin logged out"})
}

// GetAccountByID lets a superadmin inspect any account.
func (h HandlerSet) GetAccountByID(c *gin.Context) {
	if _, ok := currentPrincipal(c); !ok {
		return
	}

	accountID := c.Param("accountId")
	if accountID == "" {
		respondError(c, apperr.BadRequest("accountId is required"))
		return
	}

	account, err := h.identity.GetAccountByID(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account": toAccountResponse(account),
	})
}

type addAdminRequest struct {
	TargetAccountID string `json:"targetAccountId" binding:"required"`
	Password        string `json:"password" binding:"required"`
	SuperPassword   string `json:"superPassword" binding:"required"`
}

// AddAdmin elevates a target account to ADMIN on behalf of the calling
// superadmin.
func (h HandlerSet) AddAdmin(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req addAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest(err.Error()))
		return
	}

	account, admin, err := h.identity.ElevateToAdmin(c.Request.Context(), principal, service.ElevateToAdminInput{
		TargetAccountID: req.TargetAccountID,
		Password:        req.Password,
		SuperPassword:   req.SuperPassword,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"account": toAccountResponse(account),
		"admin":   toAdminResponse(admin),
	})
}
