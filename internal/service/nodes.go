package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chatbot-studio/internal/models"
	"chatbot-studio/pkg/payload"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Node is a content node as served to clients: payloads decoded and parent
// ids resolved from the edge table.
type Node struct {
	ID         string            `json:"id"`
	TemplateID string            `json:"template_id"`
	Label      string            `json:"label"`
	Kind       string            `json:"kind"`
	Payloads   []payload.Payload `json:"payloads"`
	ParentIDs  []string          `json:"parent_ids"`
	PositionX  float64           `json:"position_x"`
	PositionY  float64           `json:"position_y"`
	IsDeleted  bool              `json:"is_deleted"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

type CreateNodeInput struct {
	TemplateID string
	Payloads   []json.RawMessage
	ParentIDs  []string
	Label      string
	Kind       string
	PositionX  float64
	PositionY  float64
}

// UpdateNodeInput fields left nil keep their stored value. A non-nil
// Payloads or ParentIDs replaces the stored list wholesale.
type UpdateNodeInput struct {
	Payloads  *[]json.RawMessage
	ParentIDs *[]string
	Label     *string
	Kind      *string
	PositionX *float64
	PositionY *float64
}

type ContentService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewContentService(db *gorm.DB, notifier Notifier) *ContentService {
	return &ContentService{db: db, notifier: notifierOrNop(notifier)}
}

func (s *ContentService) Create(ctx context.Context, ownerID uint, in CreateNodeInput) (*Node, error) {
	payloads, err := validatePayloads(in.Payloads)
	if err != nil {
		return nil, err
	}
	kind, err := normalizeKind(in.Kind)
	if err != nil {
		return nil, err
	}

	var node *Node
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedTemplate(tx, ownerID, in.TemplateID); err != nil {
			return err
		}
		id := uuid.NewString()
		if err := checkParents(tx, in.TemplateID, id, in.ParentIDs); err != nil {
			return err
		}

		row := models.ContentNode{
			ID:         id,
			TemplateID: in.TemplateID,
			Label:      in.Label,
			Kind:       kind,
			Payloads:   payloads,
			PositionX:  in.PositionX,
			PositionY:  in.PositionY,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create node: %w", err)
		}
		if err := replaceEdges(tx, id, in.ParentIDs); err != nil {
			return err
		}

		node, err = loadNode(tx, &row)
		if err != nil {
			return err
		}
		return record(tx, ownerID, row.TemplateID, models.ActionNodeCreated, id, node)
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, Event{Type: models.ActionNodeCreated, TemplateID: node.TemplateID, SubjectID: node.ID, Data: node})
	return node, nil
}

func (s *ContentService) Get(ctx context.Context, ownerID uint, nodeID string) (*Node, error) {
	db := s.db.WithContext(ctx)
	row, err := liveOwnedNode(db, ownerID, nodeID)
	if err != nil {
		return nil, err
	}
	return loadNode(db, row)
}

func (s *ContentService) Update(ctx context.Context, ownerID uint, nodeID string, in UpdateNodeInput) (*Node, error) {
	updates := map[string]interface{}{}
	if in.Payloads != nil {
		payloads, err := validatePayloads(*in.Payloads)
		if err != nil {
			return nil, err
		}
		updates["payloads"] = payloads
	}
	if in.Kind != nil {
		kind, err := normalizeKind(*in.Kind)
		if err != nil {
			return nil, err
		}
		updates["kind"] = kind
	}
	if in.Label != nil {
		updates["label"] = *in.Label
	}
	if in.PositionX != nil {
		updates["position_x"] = *in.PositionX
	}
	if in.PositionY != nil {
		updates["position_y"] = *in.PositionY
	}

	var node *Node
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := liveOwnedNode(tx, ownerID, nodeID)
		if err != nil {
			return err
		}
		if in.ParentIDs != nil {
			if err := checkParents(tx, row.TemplateID, row.ID, *in.ParentIDs); err != nil {
				return err
			}
			if err := replaceEdges(tx, row.ID, *in.ParentIDs); err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(row).Updates(updates).Error; err != nil {
				return fmt.Errorf("update node %s: %w", nodeID, err)
			}
			if err := tx.First(row, "id = ?", row.ID).Error; err != nil {
				return fmt.Errorf("reload node %s: %w", nodeID, err)
			}
		}

		node, err = loadNode(tx, row)
		if err != nil {
			return err
		}
		return record(tx, ownerID, row.TemplateID, models.ActionNodeUpdated, row.ID, node)
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, Event{Type: models.ActionNodeUpdated, TemplateID: node.TemplateID, SubjectID: node.ID, Data: node})
	return node, nil
}

// Delete soft-deletes the node. Deleting a node that is already deleted
// returns it unchanged. Edges held by other nodes are left in place.
func (s *ContentService) Delete(ctx context.Context, ownerID uint, nodeID string) (*Node, error) {
	var (
		node    *Node
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := ownedNode(tx, ownerID, nodeID)
		if err != nil {
			return err
		}
		if !row.IsDeleted {
			if err := tx.Model(row).Update("is_deleted", true).Error; err != nil {
				return fmt.Errorf("delete node %s: %w", nodeID, err)
			}
			row.IsDeleted = true
			changed = true
		}

		node, err = loadNode(tx, row)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return record(tx, ownerID, row.TemplateID, models.ActionNodeDeleted, row.ID, node)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.notifier.Notify(ctx, Event{Type: models.ActionNodeDeleted, TemplateID: node.TemplateID, SubjectID: node.ID, Data: node})
	}
	return node, nil
}

// ListByTemplate returns the live nodes of an owned template, oldest first.
func (s *ContentService) ListByTemplate(ctx context.Context, ownerID uint, templateID string) ([]Node, error) {
	db := s.db.WithContext(ctx)
	if _, err := ownedTemplate(db, ownerID, templateID); err != nil {
		return nil, err
	}

	var rows []models.ContentNode
	err := db.Where("template_id = ? AND is_deleted = ?", templateID, false).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list nodes of %s: %w", templateID, err)
	}
	return loadNodes(db, rows)
}

func validatePayloads(raws []json.RawMessage) (datatypes.JSON, error) {
	if len(raws) == 0 {
		return nil, fieldError("payloads", "at least one payload")
	}
	parsed, err := payload.ParseList(raws)
	if err != nil {
		return nil, err
	}
	body, err := payload.MarshalList(parsed)
	if err != nil {
		return nil, fmt.Errorf("encode payloads: %w", err)
	}
	return datatypes.JSON(body), nil
}

// normalizeKind accepts node kinds in any case. Empty means REPLY.
func normalizeKind(kind string) (string, error) {
	k := strings.ToUpper(strings.TrimSpace(kind))
	if k == "" {
		return models.NodeReply, nil
	}
	for _, known := range models.NodeKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fieldError("kind", "one of "+strings.Join(models.NodeKinds, ", "))
}

// checkParents requires every parent to be a distinct live node of the same
// template, other than the node itself.
func checkParents(tx *gorm.DB, templateID, nodeID string, parentIDs []string) error {
	if len(parentIDs) == 0 {
		return nil
	}
	var issues []payload.Issue
	seen := make(map[string]bool, len(parentIDs))
	for i, id := range parentIDs {
		field := "parent_ids[" + strconv.Itoa(i) + "]"
		switch {
		case id == nodeID:
			issues = append(issues, payload.Issue{Field: field, Expected: "a node other than itself"})
		case seen[id]:
			issues = append(issues, payload.Issue{Field: field, Expected: "a parent listed once"})
		}
		seen[id] = true
	}
	if len(issues) > 0 {
		return &FieldError{Issues: issues}
	}

	var live []string
	err := tx.Model(&models.ContentNode{}).
		Where("template_id = ? AND is_deleted = ? AND id IN ?", templateID, false, parentIDs).
		Pluck("id", &live).Error
	if err != nil {
		return fmt.Errorf("load parents: %w", err)
	}
	found := make(map[string]bool, len(live))
	for _, id := range live {
		found[id] = true
	}
	for i, id := range parentIDs {
		if !found[id] {
			issues = append(issues, payload.Issue{
				Field:    "parent_ids[" + strconv.Itoa(i) + "]",
				Expected: "a live node of template " + templateID,
			})
		}
	}
	if len(issues) > 0 {
		return &FieldError{Issues: issues}
	}
	return nil
}

func replaceEdges(tx *gorm.DB, nodeID string, parentIDs []string) error {
	if err := tx.Where("node_id = ?", nodeID).Delete(&models.NodeEdge{}).Error; err != nil {
		return fmt.Errorf("clear edges of %s: %w", nodeID, err)
	}
	if len(parentIDs) == 0 {
		return nil
	}
	edges := make([]models.NodeEdge, len(parentIDs))
	for i, parentID := range parentIDs {
		edges[i] = models.NodeEdge{NodeID: nodeID, ParentID: parentID, Position: i}
	}
	if err := tx.Create(&edges).Error; err != nil {
		return fmt.Errorf("write edges of %s: %w", nodeID, err)
	}
	return nil
}

// liveParents maps node ids to their parents in submission order. Parents
// that have since been soft-deleted are left out.
func liveParents(tx *gorm.DB, nodeIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(nodeIDs))
	if len(nodeIDs) == 0 {
		return out, nil
	}
	var edges []models.NodeEdge
	err := tx.Model(&models.NodeEdge{}).
		Select("node_edges.*").
		Joins("JOIN content_nodes AS parent ON parent.id = node_edges.parent_id AND parent.is_deleted = ?", false).
		Where("node_edges.node_id IN ?", nodeIDs).
		Order("node_edges.node_id, node_edges.position").
		Find(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}
	for _, e := range edges {
		out[e.NodeID] = append(out[e.NodeID], e.ParentID)
	}
	return out, nil
}

func loadNode(tx *gorm.DB, row *models.ContentNode) (*Node, error) {
	nodes, err := loadNodes(tx, []models.ContentNode{*row})
	if err != nil {
		return nil, err
	}
	return &nodes[0], nil
}

func loadNodes(tx *gorm.DB, rows []models.ContentNode) ([]Node, error) {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	parents, err := liveParents(tx, ids)
	if err != nil {
		return nil, err
	}

	nodes := make([]Node, len(rows))
	for i, r := range rows {
		var raws []json.RawMessage
		if err := json.Unmarshal(r.Payloads, &raws); err != nil {
			return nil, fmt.Errorf("decode payloads of %s: %w", r.ID, err)
		}
		payloads, err := payload.ParseList(raws)
		if err != nil {
			return nil, fmt.Errorf("stored payloads of %s are invalid: %v", r.ID, err)
		}
		parentIDs := parents[r.ID]
		if parentIDs == nil {
			parentIDs = []string{}
		}
		nodes[i] = Node{
			ID:         r.ID,
			TemplateID: r.TemplateID,
			Label:      r.Label,
			Kind:       r.Kind,
			Payloads:   payloads,
			ParentIDs:  parentIDs,
			PositionX:  r.PositionX,
			PositionY:  r.PositionY,
			IsDeleted:  r.IsDeleted,
			CreatedAt:  r.CreatedAt,
			UpdatedAt:  r.UpdatedAt,
		}
	}
	return nodes, nil
}
