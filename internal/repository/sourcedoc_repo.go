package repository

import (
	"gorm.io/gorm"

	"github.com/sendit2sri/artifact-os/internal/model"
)

type SourceDocRepository struct {
	db *gorm.DB
}

func NewSourceDocRepository(db *gorm.DB) *SourceDocRepository {
	return &SourceDocRepository{db: db}
}

func (r *SourceDocRepository) Create(doc *model.SourceDoc) error {
	return r.db.Create(doc).Error
}

func (r *SourceDocRepository) Update(doc *model.SourceDoc) error {
	return r.db.Save(doc).Error
}

func (r *SourceDocRepository) GetByID(id string) (*model.SourceDoc, error) {
	var doc model.SourceDoc
	err := r.db.Where("id = ?", id).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindForIngest looks up an existing document for the dedup check: canonical
// URL first, then canonical stored as the raw URL, then the original
// un-normalized URL (legacy rows predating canonicalization). Returns
// (nil, nil) when nothing matches.
func (r *SourceDocRepository) FindForIngest(projectID, canonicalURL, originalURL string) (*model.SourceDoc, error) {
	if canonicalURL != "" {
		doc, err := r.findOne("project_id = ? AND canonical_url = ?", projectID, canonicalURL)
		if doc != nil || err != nil {
			return doc, err
		}
		doc, err = r.findOne("project_id = ? AND url = ?", projectID, canonicalURL)
		if doc != nil || err != nil {
			return doc, err
		}
	}
	if originalURL != "" && originalURL != canonicalURL {
		return r.findOne("project_id = ? AND url = ?", projectID, originalURL)
	}
	return nil, nil
}

func (r *SourceDocRepository) findOne(query string, args ...any) (*model.SourceDoc, error) {
	var doc model.SourceDoc
	err := r.db.Where(query, args...).First(&doc).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (r *SourceDocRepository) ListByProject(projectID string) ([]*model.SourceDoc, error) {
	var docs []*model.SourceDoc
	err := r.db.Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

// ListUnarchivedMedia returns media documents whose uploaded file has not
// been copied to object storage yet.
func (r *SourceDocRepository) ListUnarchivedMedia(limit int) ([]*model.SourceDoc, error) {
	var docs []*model.SourceDoc
	err := r.db.Where("source_type = ? AND archive_url = ''", model.SourceTypeMedia).
		Order("created_at ASC").
		Limit(limit).
		Find(&docs).Error
	return docs, err
}

func (r *SourceDocRepository) CountByProject(projectID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.SourceDoc{}).Where("project_id = ?", projectID).Count(&count).Error
	return count, err
}
