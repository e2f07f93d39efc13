package models

import (
	"time"

	"gorm.io/datatypes"
)

// User is a registered author
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Username       string     `gorm:"type:varchar(150);not null;uniqueIndex" json:"username"`
	Email          string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Name           string     `gorm:"type:varchar(255)" json:"name"`
	HashedPassword string     `gorm:"type:varchar(255);not null" json:"-"`
	IsActive       bool       `gorm:"default:true" json:"is_active"`
	Templates      []Template `gorm:"foreignKey:OwnerID" json:"-"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Template types
const (
	TemplateBasic = "BASIC"
	TemplateSmart = "SMART"
)

// Template is an owned chatbot flow
type Template struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID     uint      `gorm:"index;not null" json:"owner_id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Language    string    `gorm:"type:varchar(50)" json:"language"`
	Type        string    `gorm:"type:varchar(20);default:'BASIC'" json:"type"`
	IsDeleted   bool      `gorm:"index;default:false" json:"is_deleted"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Template) TableName() string {
	return "templates"
}

// Node kinds
const (
	NodeStart   = "START"
	NodeIntent  = "INTENT"
	NodeKeyword = "KEYWORD"
	NodeReply   = "REPLY"
	NodeAction  = "ACTION"
	NodeForm    = "FORM"
)

// NodeKinds lists every accepted node kind.
var NodeKinds = []string{NodeStart, NodeIntent, NodeKeyword, NodeReply, NodeAction, NodeForm}

// ContentNode is one block of a template's flow graph
type ContentNode struct {
	ID         string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TemplateID string         `gorm:"index;type:varchar(36);not null" json:"template_id"`
	Label      string         `gorm:"type:varchar(255)" json:"label"`
	Kind       string         `gorm:"type:varchar(20);default:'REPLY'" json:"kind"`
	Payloads   datatypes.JSON `json:"payloads"` // JSON array of payload envelopes
	PositionX  float64        `json:"position_x"`
	PositionY  float64        `json:"position_y"`
	IsDeleted  bool           `gorm:"index;default:false" json:"is_deleted"`
	Parents    []NodeEdge     `gorm:"foreignKey:NodeID;constraint:OnDelete:CASCADE;" json:"-"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ContentNode) TableName() string {
	return "content_nodes"
}

// NodeEdge links a node to one of its parents. Position keeps the order the
// parents were submitted in.
type NodeEdge struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	NodeID   string `gorm:"index;type:varchar(36);not null" json:"node_id"`
	ParentID string `gorm:"index;type:varchar(36);not null" json:"parent_id"`
	Position int    `json:"position"`
}

func (NodeEdge) TableName() string {
	return "node_edges"
}

// Changelog actions
const (
	ActionTemplateCreated = "template.created"
	ActionTemplateUpdated = "template.updated"
	ActionTemplateDeleted = "template.deleted"
	ActionNodeCreated     = "node.created"
	ActionNodeUpdated     = "node.updated"
	ActionNodeDeleted     = "node.deleted"
)

// TemplateChangelog records one mutation of a template or its nodes
type TemplateChangelog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	TemplateID string         `gorm:"index;type:varchar(36);not null" json:"template_id"`
	UserID     uint           `gorm:"index" json:"user_id"`
	Action     string         `gorm:"type:varchar(50);not null" json:"action"`
	SubjectID  string         `gorm:"type:varchar(36)" json:"subject_id"`
	Payload    datatypes.JSON `json:"payload"` // snapshot after the action
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (TemplateChangelog) TableName() string {
	return "template_changelogs"
}

// All lists every model, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Template{},
		&ContentNode{},
		&NodeEdge{},
		&TemplateChangelog{},
	}
}
