package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storehub/storehub-auth/internal/config"
	"github.com/storehub/storehub-auth/internal/domain"
	"github.com/storehub/storehub-auth/internal/http/middleware"
	"github.com/storehub/storehub-auth/internal/service"
)

const refreshCookieName = "refreshToken"

// refreshCookiePath scopes the refresh cookie to the auth endpoints so
// it is not replayed to the rest of the API surface.
const refreshCookiePath = "/auth"

// AuthHandler exposes the auth core over HTTP.
type AuthHandler struct {
	Auth   *service.AuthService
	Cfg    config.Config
	Logger *zap.Logger
}

// NewAuthHandler creates the handler set.
func NewAuthHandler(auth *service.AuthService, cfg config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Cfg: cfg, Logger: logger}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Name     string `json:"name" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
		Address  string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid payload.")
		return
	}

	result, err := h.Auth.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Address:  req.Address,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	c.JSON(http.StatusCreated, gin.H{"user": result.User, "accessToken": result.AccessToken})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid payload.")
		return
	}

	result, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"user": result.User, "accessToken": result.AccessToken})
}

// Refresh handles POST /auth/refresh. The refresh token travels only in
// the HTTP-only cookie; a successful call rotates it.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil || refreshToken == "" {
		h.respondError(c, domain.ErrUnauthenticated("No refresh token."))
		return
	}

	result, err := h.Auth.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"accessToken": result.AccessToken})
}

// Logout handles POST /auth/logout. Requires authentication; always
// clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		h.respondError(c, domain.ErrUnauthenticated("Authentication required."))
		return
	}

	if err := h.Auth.Logout(c.Request.Context(), identity.ID); err != nil {
		h.respondError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		h.respondError(c, domain.ErrUnauthenticated("Authentication required."))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": identity})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		refreshCookieName,
		value,
		int(h.Auth.RefreshTokenTTL().Seconds()),
		refreshCookiePath,
		"",
		h.Cfg.Production(),
		true,
	)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath, "", h.Cfg.Production(), true)
}

func (h *AuthHandler) respondError(c *gin.Context, err error) {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		c.JSON(authErr.Status, gin.H{"status": "error", "message": authErr.Message})
		return
	}

	h.log().Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	internal := domain.ErrInternal()
	c.JSON(internal.Status, gin.H{"status": "error", "message": internal.Message})
}

func (h *AuthHandler) log() *zap.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return zap.L()
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"status": "error", "message": message})
}
