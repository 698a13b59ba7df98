package worker

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/sendit2sri/artifact-os/internal/model"
	"github.com/sendit2sri/artifact-os/internal/repository"
)

const archiveInterval = 5 * time.Minute

// MediaStore is the object-storage surface the archiver needs.
type MediaStore interface {
	UploadMedia(projectID, contentHash string, data []byte, ext string) (string, error)
}

// Archiver sweeps transcribed media documents whose uploaded file still
// lives only in the local upload directory and copies it to object storage,
// then removes the local file.
type Archiver struct {
	docRepo *repository.SourceDocRepository
	store   MediaStore
}

func NewArchiver(docRepo *repository.SourceDocRepository, store MediaStore) *Archiver {
	return &Archiver{
		docRepo: docRepo,
		store:   store,
	}
}

// Start runs the sweep loop until the context is cancelled. One sweep runs
// immediately on startup.
func (a *Archiver) Start(ctx context.Context) {
	a.Sweep()

	ticker := time.NewTicker(archiveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Archiver stopped")
			return
		case <-ticker.C:
			a.Sweep()
		}
	}
}

// Sweep archives one batch. A document whose local file is already gone is
// skipped, not failed: the janitor may have pruned it.
func (a *Archiver) Sweep() {
	docs, err := a.docRepo.ListUnarchivedMedia(50)
	if err != nil {
		log.Printf("Archiver: failed to query unarchived media: %v", err)
		return
	}

	for _, doc := range docs {
		localPath := a.localPath(doc)
		if localPath == "" {
			continue
		}
		data, err := os.ReadFile(localPath)
		if err != nil {
			if !os.IsNotExist(err) {
				log.Printf("Archiver: failed to read %s: %v", localPath, err)
			}
			continue
		}

		archiveURL, err := a.store.UploadMedia(doc.ProjectID, doc.ContentHash, data, filepath.Ext(localPath))
		if err != nil {
			log.Printf("Archiver: failed to upload media for doc %s: %v", doc.ID, err)
			continue
		}

		doc.ArchiveURL = archiveURL
		if err := a.docRepo.Update(doc); err != nil {
			log.Printf("Archiver: failed to update doc %s: %v", doc.ID, err)
			continue
		}

		os.Remove(localPath)
		log.Printf("Archiver: archived media for doc %s", doc.ID)
	}
}

func (a *Archiver) localPath(doc *model.SourceDoc) string {
	path, _ := doc.Metadata["path"].(string)
	return path
}
