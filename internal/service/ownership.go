package service

import (
	"errors"
	"fmt"

	"chatbot-studio/internal/models"

	"gorm.io/gorm"
)

// ownedTemplate returns the live template ownerID owns. A missing template, a
// soft-deleted one and someone else's template are all ErrNotFound.
func ownedTemplate(tx *gorm.DB, ownerID uint, templateID string) (*models.Template, error) {
	var t models.Template
	err := tx.Where("id = ? AND owner_id = ? AND is_deleted = ?", templateID, ownerID, false).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", templateID, err)
	}
	return &t, nil
}

// ownedNode returns the node, soft-deleted or not, when its template passes
// ownedTemplate. Callers decide what a soft-deleted node means to them.
func ownedNode(tx *gorm.DB, ownerID uint, nodeID string) (*models.ContentNode, error) {
	var n models.ContentNode
	err := tx.Where("id = ?", nodeID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load node %s: %w", nodeID, err)
	}
	if _, err := ownedTemplate(tx, ownerID, n.TemplateID); err != nil {
		return nil, err
	}
	return &n, nil
}

// liveOwnedNode is ownedNode with soft-deleted nodes treated as missing.
func liveOwnedNode(tx *gorm.DB, ownerID uint, nodeID string) (*models.ContentNode, error) {
	n, err := ownedNode(tx, ownerID, nodeID)
	if err != nil {
		return nil, err
	}
	if n.IsDeleted {
		return nil, ErrNotFound
	}
	return n, nil
}
