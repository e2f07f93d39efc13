package database

import (
	"context"
	"fmt"

	"chatbot-studio/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const copyBatchSize = 500

// CopyAll copies every table from src to dst, keeping ids. dst must already
// be migrated. Tables are copied parents first so foreign keys hold.
func CopyAll(ctx context.Context, src, dst *gorm.DB) error {
	steps := []func(context.Context, *gorm.DB, *gorm.DB) error{
		copyTable[models.User],
		copyTable[models.Template],
		copyTable[models.ContentNode],
		copyTable[models.NodeEdge],
		copyTable[models.TemplateChangelog],
	}
	for _, step := range steps {
		if err := step(ctx, src, dst); err != nil {
			return err
		}
	}
	return nil
}

func copyTable[T any](ctx context.Context, src, dst *gorm.DB) error {
	var rows []T
	if err := src.WithContext(ctx).Find(&rows).Error; err != nil {
		return fmt.Errorf("read %T: %w", rows, err)
	}
	if len(rows) == 0 {
		return nil
	}
	err := dst.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// without Select("*") zero values behind a default tag, like is_active=false, are dropped
		return tx.Omit(clause.Associations).Select("*").CreateInBatches(&rows, copyBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("write %T: %w", rows, err)
	}
	logrus.WithField("rows", len(rows)).Infof("Successfully copied %T", rows)
	return nil
}
