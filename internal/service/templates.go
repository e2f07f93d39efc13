package service

import (
	"context"
	"fmt"
	"strings"

	"chatbot-studio/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateTemplateInput struct {
	Title       string
	Description string
	Language    string
	Type        string
}

// UpdateTemplateInput fields left empty keep their stored value.
type UpdateTemplateInput struct {
	Title       string
	Description string
	Language    string
	Type        string
}

type TemplateService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewTemplateService(db *gorm.DB, notifier Notifier) *TemplateService {
	return &TemplateService{db: db, notifier: notifierOrNop(notifier)}
}

// normalizeType accepts basic/smart in any case. Empty means BASIC.
func normalizeType(t string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(t)) {
	case "", models.TemplateBasic:
		return models.TemplateBasic, nil
	case models.TemplateSmart:
		return models.TemplateSmart, nil
	}
	return "", fieldError("type", `one of "BASIC", "SMART"`)
}

func (s *TemplateService) Create(ctx context.Context, ownerID uint, in CreateTemplateInput) (*models.Template, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fieldError("title", "non-empty string")
	}
	typ, err := normalizeType(in.Type)
	if err != nil {
		return nil, err
	}

	t := models.Template{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		Language:    in.Language,
		Type:        typ,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&t).Error; err != nil {
			return fmt.Errorf("create template: %w", err)
		}
		return record(tx, ownerID, t.ID, models.ActionTemplateCreated, t.ID, t)
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, Event{Type: models.ActionTemplateCreated, TemplateID: t.ID, SubjectID: t.ID, Data: t})
	return &t, nil
}

func (s *TemplateService) Get(ctx context.Context, ownerID uint, templateID string) (*models.Template, error) {
	return ownedTemplate(s.db.WithContext(ctx), ownerID, templateID)
}

func (s *TemplateService) ListByOwner(ctx context.Context, ownerID uint) ([]models.Template, error) {
	var templates []models.Template
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND is_deleted = ?", ownerID, false).
		Order("created_at, id").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("list templates of %d: %w", ownerID, err)
	}
	return templates, nil
}

// ListAll is the unscoped listing of every live template.
func (s *TemplateService) ListAll(ctx context.Context) ([]models.Template, error) {
	var templates []models.Template
	err := s.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("created_at, id").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

func (s *TemplateService) Update(ctx context.Context, ownerID uint, templateID string, in UpdateTemplateInput) (*models.Template, error) {
	updates := map[string]interface{}{}
	if in.Title != "" {
		updates["title"] = in.Title
	}
	if in.Description != "" {
		updates["description"] = in.Description
	}
	if in.Language != "" {
		updates["language"] = in.Language
	}
	if in.Type != "" {
		typ, err := normalizeType(in.Type)
		if err != nil {
			return nil, err
		}
		updates["type"] = typ
	}

	var t *models.Template
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		t, err = ownedTemplate(tx, ownerID, templateID)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(t).Updates(updates).Error; err != nil {
			return fmt.Errorf("update template %s: %w", templateID, err)
		}
		if err := tx.First(t, "id = ?", t.ID).Error; err != nil {
			return fmt.Errorf("reload template %s: %w", templateID, err)
		}
		return record(tx, ownerID, t.ID, models.ActionTemplateUpdated, t.ID, t)
	})
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		s.notifier.Notify(ctx, Event{Type: models.ActionTemplateUpdated, TemplateID: t.ID, SubjectID: t.ID, Data: t})
	}
	return t, nil
}

// Delete soft-deletes the template and every node in it.
func (s *TemplateService) Delete(ctx context.Context, ownerID uint, templateID string) (*models.Template, error) {
	var t *models.Template
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		t, err = ownedTemplate(tx, ownerID, templateID)
		if err != nil {
			return err
		}
		if err := tx.Model(t).Update("is_deleted", true).Error; err != nil {
			return fmt.Errorf("delete template %s: %w", templateID, err)
		}
		t.IsDeleted = true
		if err := tx.Model(&models.ContentNode{}).
			Where("template_id = ? AND is_deleted = ?", templateID, false).
			Update("is_deleted", true).Error; err != nil {
			return fmt.Errorf("delete nodes of template %s: %w", templateID, err)
		}
		return record(tx, ownerID, t.ID, models.ActionTemplateDeleted, t.ID, t)
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, Event{Type: models.ActionTemplateDeleted, TemplateID: t.ID, SubjectID: t.ID, Data: t})
	return t, nil
}

// Changelog returns the template's history, newest first.
func (s *TemplateService) Changelog(ctx context.Context, ownerID uint, templateID string) ([]models.TemplateChangelog, error) {
	db := s.db.WithContext(ctx)
	if _, err := ownedTemplate(db, ownerID, templateID); err != nil {
		return nil, err
	}
	var entries []models.TemplateChangelog
	if err := db.Where("template_id = ?", templateID).Order("id DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("load changelog of %s: %w", templateID, err)
	}
	return entries, nil
}
