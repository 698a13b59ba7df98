package repository

import (
	"gorm.io/gorm"

	"github.com/sendit2sri/artifact-os/internal/model"
)

type NodeRepository struct {
	db *gorm.DB
}

func NewNodeRepository(db *gorm.DB) *NodeRepository {
	return &NodeRepository{db: db}
}

func (r *NodeRepository) Create(node *model.ResearchNode) error {
	return r.db.Create(node).Error
}

func (r *NodeRepository) GetByID(id string) (*model.ResearchNode, error) {
	var node model.ResearchNode
	err := r.db.Where("id = ?", id).First(&node).Error
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// ListActiveByProject returns non-suppressed facts oldest-first, capped at
// limit. This is the pairwise dedup input ordering.
func (r *NodeRepository) ListActiveByProject(projectID string, limit int) ([]*model.ResearchNode, error) {
	var nodes []*model.ResearchNode
	q := r.db.Where("project_id = ? AND is_suppressed = ?", projectID, false).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&nodes).Error
	return nodes, err
}

// ListActiveByProjectNewest returns non-suppressed facts newest-first, the
// lexical grouping input ordering.
func (r *NodeRepository) ListActiveByProjectNewest(projectID string) ([]*model.ResearchNode, error) {
	var nodes []*model.ResearchNode
	err := r.db.Where("project_id = ? AND is_suppressed = ?", projectID, false).
		Order("created_at DESC, id DESC").
		Find(&nodes).Error
	return nodes, err
}

// Suppress marks group members as suppressed duplicates of the canonical
// fact. The canonical row itself only receives the group id.
func (r *NodeRepository) Suppress(groupID, canonicalID string, memberIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ResearchNode{}).
			Where("id = ?", canonicalID).
			Updates(map[string]any{
				"duplicate_group_id": groupID,
				"is_suppressed":      false,
				"canonical_fact_id":  "",
			}).Error; err != nil {
			return err
		}
		if len(memberIDs) == 0 {
			return nil
		}
		return tx.Model(&model.ResearchNode{}).
			Where("id IN ?", memberIDs).
			Updates(map[string]any{
				"duplicate_group_id": groupID,
				"is_suppressed":      true,
				"canonical_fact_id":  canonicalID,
			}).Error
	})
}

func (r *NodeRepository) CountByProject(projectID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.ResearchNode{}).Where("project_id = ?", projectID).Count(&count).Error
	return count, err
}
