package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"oneaccount/api/internal/apperr"
	"oneaccount/api/internal/middleware"
	"oneaccount/api/internal/models"
	"oneaccount/api/internal/service"
)

func respondError(c *gin.Context, err error) {
	c.JSON(apperr.StatusOf(err), gin.H{
		"error": err.Error(),
		"code":  apperr.CodeOf(err),
	})
}

// Response shapes. Secret digests never appear here: the DTOs have no field
// to carry them.

type roleResponse struct {
	Name     string `json:"name"`
	ID       string `json:"id"`
	IsActive bool   `json:"isActive"`
}

type accountResponse struct {
	ID               string         `json:"id"`
	Kind             string         `json:"kind"`
	Name             string         `json:"name"`
	Email            string         `json:"email"`
	EmailAlternative *string        `json:"emailAlternative,omitempty"`
	Phone            string         `json:"phone"`
	PhoneAlternative *string        `json:"phoneAlternative,omitempty"`
	WhatsappNumber   *string        `json:"whatsappNumber,omitempty"`
	AvatarURL        string         `json:"avatarUrl,omitempty"`
	Gender           *string        `json:"gender,omitempty"`
	Roles            []roleResponse `json:"roles"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

type userResponse struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"accountId"`
	PublicName string    `json:"publicName"`
	UserName   *string   `json:"userName,omitempty"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type adminResponse struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type superAdminResponse struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toAccountResponse(account models.Account) accountResponse {
	resp := accountResponse{
		ID:               account.ID,
		Kind:             string(account.Kind),
		Name:             account.Name,
		Email:            account.Email,
		EmailAlternative: account.EmailAlternative,
		Phone:            account.Phone,
		PhoneAlternative: account.PhoneAlternative,
		WhatsappNumber:   account.WhatsappNumber,
		Roles:            make([]roleResponse, 0, len(account.Roles)),
		CreatedAt:        account.CreatedAt,
		UpdatedAt:        account.UpdatedAt,
	}
	if account.Avatar != nil {
		resp.AvatarURL = account.Avatar.URL
	}
	if account.Gender != nil {
		gender := string(*account.Gender)
		resp.Gender = &gender
	}
	for _, attachment := range account.Roles {
		resp.Roles = append(resp.Roles, roleResponse{
			Name:     string(attachment.Kind),
			ID:       attachment.RoleID,
			IsActive: attachment.Active,
		})
	}
	return resp
}

func toUserResponse(user models.User) userResponse {
	return userResponse{
		ID:         user.ID,
		AccountID:  user.AccountID,
		PublicName: user.PublicName,
		UserName:   user.UserName,
		IsActive:   user.Active,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}

func toAdminResponse(admin models.Admin) adminResponse {
	return adminResponse{
		ID:        admin.ID,
		AccountID: admin.AccountID,
		IsActive:  admin.Active,
		CreatedAt: admin.CreatedAt,
		UpdatedAt: admin.UpdatedAt,
	}
}

func toSuperAdminResponse(superAdmin models.SuperAdmin) superAdminResponse {
	return superAdminResponse{
		ID:        superAdmin.ID,
		AccountID: superAdmin.AccountID,
		IsActive:  superAdmin.Active,
		CreatedAt: superAdmin.CreatedAt,
		UpdatedAt: superAdmin.UpdatedAt,
	}
}

func (h HandlerSet) setTierCookie(c *gin.Context, name string, token string, ttl time.Duration) {
	c.SetCookie(name, token, int(ttl.Seconds()), "/", "", h.cfg.Security.SecureCookies, true)
}

func (h HandlerSet) clearTierCookie(c *gin.Context, name string) {
	c.SetCookie(name, "", -1, "/", "", h.cfg.Security.SecureCookies, true)
}

func currentPrincipal(c *gin.Context) (service.Principal, bool) {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		respondError(c, apperr.Unauthorized("unauthorized"))
	}
	return principal, ok
}
