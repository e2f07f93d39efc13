package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatbot-studio/internal/service"
	"chatbot-studio/internal/whatsapp"
)

type ContentHandler struct {
	contents *service.ContentService
	sender   *whatsapp.Client
}

func NewContentHandler(contents *service.ContentService, sender *whatsapp.Client) *ContentHandler {
	return &ContentHandler{contents: contents, sender: sender}
}

// CreateNodeRequest carries payloads untyped; they are validated by the
// service before anything is stored.
type CreateNodeRequest struct {
	TemplateID string            `json:"template_id" binding:"required"`
	Payloads   []json.RawMessage `json:"payloads"`
	ParentIDs  []string          `json:"parent_ids"`
	Label      string            `json:"label" binding:"max=255"`
	Kind       string            `json:"kind"`
	PositionX  float64           `json:"position_x"`
	PositionY  float64           `json:"position_y"`
}

// UpdateNodeRequest fields that are absent or null are not changed.
type UpdateNodeRequest struct {
	Payloads  *[]json.RawMessage `json:"payloads"`
	ParentIDs *[]string          `json:"parent_ids"`
	Label     *string            `json:"label" binding:"omitempty,max=255"`
	Kind      *string            `json:"kind"`
	PositionX *float64           `json:"position_x"`
	PositionY *float64           `json:"position_y"`
}

type ListNodesQuery struct {
	TemplateID string `form:"template_id" json:"template_id" binding:"required"`
}

type SendNodeRequest struct {
	To string `json:"to" binding:"required"`
}

func (h *ContentHandler) List(c *gin.Context) {
	var q ListNodesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(&bindError{err: err})
		return
	}
	nodes, err := h.contents.ListByTemplate(c.Request.Context(), currentUserID(c), q.TemplateID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, nodes)
}

func (h *ContentHandler) Create(c *gin.Context) {
	var req CreateNodeRequest
	if !bindJSON(c, &req) {
		return
	}
	node, err := h.contents.Create(c.Request.Context(), currentUserID(c), service.CreateNodeInput{
		TemplateID: req.TemplateID,
		Payloads:   req.Payloads,
		ParentIDs:  req.ParentIDs,
		Label:      req.Label,
		Kind:       req.Kind,
		PositionX:  req.PositionX,
		PositionY:  req.PositionY,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Content created", "data": node})
}

func (h *ContentHandler) Get(c *gin.Context) {
	node, err := h.contents.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, node)
}

func (h *ContentHandler) Update(c *gin.Context) {
	var req UpdateNodeRequest
	if !bindJSON(c, &req) {
		return
	}
	node, err := h.contents.Update(c.Request.Context(), currentUserID(c), c.Param("id"), service.UpdateNodeInput{
		Payloads:  req.Payloads,
		ParentIDs: req.ParentIDs,
		Label:     req.Label,
		Kind:      req.Kind,
		PositionX: req.PositionX,
		PositionY: req.PositionY,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Content updated", "data": node})
}

func (h *ContentHandler) Delete(c *gin.Context) {
	node, err := h.contents.Delete(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Content deleted", "data": node})
}

// Send delivers the node's payloads, in order, to a phone number through the
// WhatsApp Cloud API.
func (h *ContentHandler) Send(c *gin.Context) {
	var req SendNodeRequest
	if !bindJSON(c, &req) {
		return
	}
	node, err := h.contents.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	ids, err := h.sender.SendPayloads(c.Request.Context(), req.To, node.Payloads)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Content sent", "data": gin.H{"message_ids": ids}})
}
