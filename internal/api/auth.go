package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chatbot-studio/internal/auth"
	"chatbot-studio/internal/service"
)

type AuthHandler struct {
	users *service.UserService
	gate  *auth.Gate
}

func NewAuthHandler(users *service.UserService, gate *auth.Gate) *AuthHandler {
	return &AuthHandler{users: users, gate: gate}
}

// TokenRequest is accepted as JSON or as an OAuth2 password form.
type TokenRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func expiresIn(exp time.Time) int64 {
	return int64(time.Until(exp).Round(time.Second).Seconds())
}

func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	pair, err := h.gate.Tokens.Issue(user.ID, user.Username)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    expiresIn(pair.AccessExpiresAt),
	})
}

// Refresh trades a refresh token for a new access token. The user must still
// be active.
func (h *AuthHandler) Refresh(c *gin.Context) {
	claims := currentClaims(c)
	user, err := h.users.Get(c.Request.Context(), currentUserID(c))
	if errors.Is(err, service.ErrNotFound) {
		_ = c.Error(auth.ErrInvalidToken)
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	access, exp, err := h.gate.Tokens.IssueAccess(user.ID, claims.Username)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   expiresIn(exp),
	})
}

// Revoke denylists the token that authenticated the request.
func (h *AuthHandler) Revoke(c *gin.Context) {
	claims := currentClaims(c)
	if err := h.gate.Revoke(c.Request.Context(), claims); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": string(claims.Type) + " token revoked"})
}
