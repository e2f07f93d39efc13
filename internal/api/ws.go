package api

import (
	"github.com/gin-gonic/gin"

	"chatbot-studio/internal/auth"
	"chatbot-studio/internal/logger"
	"chatbot-studio/internal/service"
	"chatbot-studio/internal/ws"
)

// WSHandler serves the live change feed of a template to its owner.
type WSHandler struct {
	hub       *ws.Hub
	gate      *auth.Gate
	templates *service.TemplateService
}

func NewWSHandler(hub *ws.Hub, gate *auth.Gate, templates *service.TemplateService) *WSHandler {
	return &WSHandler{hub: hub, gate: gate, templates: templates}
}

// Handle authenticates with the access token from the Authorization header
// or, for browsers, the token query parameter.
func (h *WSHandler) Handle(c *gin.Context) {
	raw, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		raw = c.Query("token")
	}
	if raw == "" {
		_ = c.Error(auth.ErrInvalidToken)
		return
	}
	claims, err := h.gate.Verify(c.Request.Context(), raw, auth.AccessToken)
	if err != nil {
		_ = c.Error(err)
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		_ = c.Error(err)
		return
	}

	t, err := h.templates.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.hub.ServeTemplate(c.Writer, c.Request, t.ID); err != nil {
		// the upgrader has already answered the client
		logger.FromContext(c.Request.Context()).WithError(err).Warn("WebSocket upgrade error")
	}
}
