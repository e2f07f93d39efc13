package service

import (
	"encoding/json"
	"fmt"

	"chatbot-studio/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// record appends a changelog entry inside tx.
func record(tx *gorm.DB, userID uint, templateID, action, subjectID string, snapshot any) error {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode changelog snapshot: %w", err)
	}
	entry := models.TemplateChangelog{
		TemplateID: templateID,
		UserID:     userID,
		Action:     action,
		SubjectID:  subjectID,
		Payload:    datatypes.JSON(body),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("write changelog: %w", err)
	}
	return nil
}
