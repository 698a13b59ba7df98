package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Workspace struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Settings  JSONMap   `gorm:"type:text" json:"settings,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Workspace) TableName() string {
	return "workspaces"
}

func (w *Workspace) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

type Project struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	WorkspaceID string    `gorm:"type:char(36);not null;index" json:"workspace_id"`
	Title       string    `gorm:"size:300;not null" json:"title"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
