package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatbot-studio/internal/service"
)

type TemplateHandler struct {
	templates *service.TemplateService
}

func NewTemplateHandler(templates *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

type CreateTemplateRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
	Language    string `json:"language" binding:"max=50"`
	Type        string `json:"type"`
}

// UpdateTemplateRequest fields left empty are not changed.
type UpdateTemplateRequest struct {
	Title       string `json:"title" binding:"max=255"`
	Description string `json:"description"`
	Language    string `json:"language" binding:"max=50"`
	Type        string `json:"type"`
}

// ListAll is the public, unscoped listing.
func (h *TemplateHandler) ListAll(c *gin.Context) {
	templates, err := h.templates.ListAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *TemplateHandler) ListMine(c *gin.Context) {
	templates, err := h.templates.ListByOwner(c.Request.Context(), currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *TemplateHandler) Create(c *gin.Context) {
	var req CreateTemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.templates.Create(c.Request.Context(), currentUserID(c), service.CreateTemplateInput{
		Title:       req.Title,
		Description: req.Description,
		Language:    req.Language,
		Type:        req.Type,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Template created", "data": t})
}

func (h *TemplateHandler) Get(c *gin.Context) {
	t, err := h.templates.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TemplateHandler) Update(c *gin.Context) {
	var req UpdateTemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.templates.Update(c.Request.Context(), currentUserID(c), c.Param("id"), service.UpdateTemplateInput{
		Title:       req.Title,
		Description: req.Description,
		Language:    req.Language,
		Type:        req.Type,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template updated", "data": t})
}

func (h *TemplateHandler) Delete(c *gin.Context) {
	t, err := h.templates.Delete(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template deleted", "data": t})
}

func (h *TemplateHandler) Changelog(c *gin.Context) {
	entries, err := h.templates.Changelog(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
